package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/cardroom/internal/audit"
	"github.com/cardroom/cardroom/internal/game"
	"github.com/cardroom/cardroom/internal/store"
)

// Client submits player actions: validate against the latest snapshot,
// commit with a conditional write, then append to the action log. When the
// action closes the betting round the stage transition rides in the same
// write, so a racing coordinator can never double-deal the street.
type Client struct {
	store  store.Store
	room   string
	rules  game.Rules
	clock  quartz.Clock
	audit  *audit.Log
	logger *log.Logger
}

// NewClient creates an action-submission client for a room.
func NewClient(st store.Store, logger *log.Logger, room string, rules game.Rules, clock quartz.Clock, auditLog *audit.Log) *Client {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Client{
		store:  st,
		room:   room,
		rules:  rules,
		clock:  clock,
		audit:  auditLog,
		logger: logger.WithPrefix("client").With("room", room),
	}
}

// Act validates and commits one player action. Illegal actions are rejected
// before any write. A store.ErrConflict means another client moved first:
// the caller should refresh its view and let the player retry.
func (c *Client) Act(ctx context.Context, req game.Request) error {
	sess, version, err := c.store.Load(ctx, c.room)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	now := c.clock.Now()
	record, err := sess.ApplyAction(req, c.rules.BigBlind, now, c.rules.TurnTimeout)
	if err != nil {
		return err
	}

	records := []game.ActionRecord{*record}
	if sess.InHandCount() <= 1 || sess.BettingComplete() {
		more, err := sess.AdvanceStreet(c.rules, now)
		switch {
		case err == nil:
			records = append(records, more...)
		case errors.Is(err, game.ErrUnreconciled):
			c.logger.Error("settlement failed reconciliation, hand marked for review",
				"hand", sess.HandNum)
		default:
			return fmt.Errorf("advancing street: %w", err)
		}
	}

	if err := c.store.Update(ctx, c.room, version, sess); err != nil {
		return err
	}

	for _, rec := range records {
		if err := c.store.AppendAction(ctx, rec); err != nil {
			c.logger.Warn("action append failed", "error", err)
		}
	}
	if c.audit != nil {
		c.audit.RecordAll(records)
	}

	c.logger.Debug("action committed",
		"seat", req.Seat, "kind", record.Kind, "amount", record.Amount, "stage", sess.Stage)
	return nil
}

// View returns the latest session snapshot for display refresh.
func (c *Client) View(ctx context.Context) (*game.Session, error) {
	sess, _, err := c.store.Load(ctx, c.room)
	return sess, err
}
