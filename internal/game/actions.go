package game

import "time"

// Kind identifies a committed action in the append-only log.
type Kind string

const (
	ActFold      Kind = "fold"
	ActCheck     Kind = "check"
	ActCall      Kind = "call"
	ActBet       Kind = "bet"
	ActRaise     Kind = "raise"
	ActPostBlind Kind = "post-blind"
	ActWin       Kind = "win"
)

// ActionRecord is one entry of the audit log. Records are appended after a
// successful conditional write and never updated or deleted.
type ActionRecord struct {
	Room   string    `json:"room"`
	Hand   int       `json:"hand"`
	Seat   int       `json:"seat"`
	Kind   Kind      `json:"kind"`
	Amount int       `json:"amount"`
	At     time.Time `json:"at"`
}

// Request is a player's intent before validation. Amount is the raise
// increment for raises and the full bet size for bets; it is ignored for
// fold, check, call and all-in.
type Request struct {
	Seat   int
	Kind   RequestKind
	Amount int
}

// RequestKind is the set of actions a player may ask for. All-in is a
// distinct request but is logged as a bet or raise depending on whether a
// bet already existed this street.
type RequestKind string

const (
	ReqFold  RequestKind = "fold"
	ReqCheck RequestKind = "check"
	ReqCall  RequestKind = "call"
	ReqBet   RequestKind = "bet"
	ReqRaise RequestKind = "raise"
	ReqAllIn RequestKind = "all-in"
)
