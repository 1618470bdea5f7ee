package game

import "errors"

// Illegal-action errors are rejected before any write; nothing is mutated
// and the caller relays the message to the player.
var (
	ErrNotYourTurn       = errors.New("not your turn to act")
	ErrWrongStage        = errors.New("action not allowed in this stage")
	ErrIllegalAction     = errors.New("action not legal here")
	ErrInsufficientStack = errors.New("insufficient stack")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotEnoughPlayers  = errors.New("not enough players to start a hand")
	ErrBettingOpen       = errors.New("betting round still open")
)

// ErrUnreconciled means chip totals failed to reconcile at settlement. The
// hand is marked for manual review and no payout happens.
var ErrUnreconciled = errors.New("chip totals do not reconcile; hand marked for review")
