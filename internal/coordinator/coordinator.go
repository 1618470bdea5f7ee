// Package coordinator drives a room forward when no player action does:
// starting hands, enforcing turn deadlines and advancing streets. Any
// client can run one; a store lease elects a single leader, and the
// conditional-write guard on the session record keeps a second leader
// harmless if the lease ever overlaps.
package coordinator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/oklog/ulid/v2"

	"github.com/cardroom/cardroom/internal/audit"
	"github.com/cardroom/cardroom/internal/game"
	"github.com/cardroom/cardroom/internal/store"
)

// Options configure a coordinator. Zero durations fall back to defaults.
type Options struct {
	Room         string
	ClientID     string
	Rules        game.Rules
	PollInterval time.Duration
	LeaseTTL     time.Duration
	Clock        quartz.Clock
	RNG          *rand.Rand
	Audit        *audit.Log
}

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultLeaseTTL     = 3 * time.Second
)

// Coordinator polls the shared session and applies transitions while it
// holds the room lease.
type Coordinator struct {
	store        store.Store
	room         string
	clientID     string
	rules        game.Rules
	pollInterval time.Duration
	leaseTTL     time.Duration
	clock        quartz.Clock
	rng          *rand.Rand
	audit        *audit.Log
	logger       *log.Logger
	leading      bool
}

// New creates a coordinator for a room.
func New(st store.Store, logger *log.Logger, opts Options) *Coordinator {
	if opts.ClientID == "" {
		opts.ClientID = ulid.Make().String()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = defaultLeaseTTL
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.RNG == nil {
		opts.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Coordinator{
		store:        st,
		room:         opts.Room,
		clientID:     opts.ClientID,
		rules:        opts.Rules,
		pollInterval: opts.PollInterval,
		leaseTTL:     opts.LeaseTTL,
		clock:        opts.Clock,
		rng:          opts.RNG,
		audit:        opts.Audit,
		logger:       logger.WithPrefix("coordinator").With("room", opts.Room, "client", opts.ClientID),
	}
}

// ClientID returns the identity this coordinator leases under.
func (c *Coordinator) ClientID() string {
	return c.clientID
}

// Run polls until the context is canceled. Transient store failures are
// logged and retried on the next tick; they never stop the loop.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("coordinator started", "poll", c.pollInterval, "lease", c.leaseTTL)

	waiter := c.clock.TickerFunc(ctx, c.pollInterval, func() error {
		c.Tick(ctx)
		return nil
	}, "poll")

	err := waiter.Wait()

	releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if relErr := c.store.ReleaseLease(releaseCtx, c.room, c.clientID); relErr != nil {
		c.logger.Warn("failed to release lease", "error", relErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Tick runs one poll iteration: renew or take the lease, then apply at
// most one authoritative transition. Exported so tests can drive the loop
// deterministically.
func (c *Coordinator) Tick(ctx context.Context) {
	leader, err := c.store.AcquireLease(ctx, c.room, c.clientID, c.leaseTTL)
	if err != nil {
		c.logger.Warn("lease check failed", "error", err)
		return
	}
	if !leader {
		if c.leading {
			c.logger.Info("lost room lease")
			c.leading = false
		}
		return
	}
	if !c.leading {
		c.logger.Info("acquired room lease")
		c.leading = true
	}

	sess, version, err := c.store.Load(ctx, c.room)
	if err != nil {
		c.logger.Warn("session load failed", "error", err)
		return
	}

	records, dirty := c.step(sess)
	if !dirty {
		return
	}

	if err := c.store.Update(ctx, c.room, version, sess); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Someone else moved first. Discard our transition; the next
			// poll recomputes from fresh state.
			c.logger.Debug("transition lost race, discarding")
			return
		}
		c.logger.Warn("transition commit failed", "error", err)
		return
	}

	for _, rec := range records {
		if err := c.store.AppendAction(ctx, rec); err != nil {
			c.logger.Warn("action append failed", "error", err)
		}
	}
	if c.audit != nil {
		c.audit.RecordAll(records)
	}
}

// step computes at most one transition against the snapshot. It reports
// whether the snapshot was mutated and must be committed.
func (c *Coordinator) step(sess *game.Session) ([]game.ActionRecord, bool) {
	now := c.clock.Now()

	switch {
	case sess.Stage == game.Ended:
		return nil, false

	case sess.Stage == game.Lobby || sess.Stage == game.Showdown:
		records, err := sess.StartHand(c.rules, c.rng, now)
		if err != nil {
			if !errors.Is(err, game.ErrNotEnoughPlayers) {
				c.logger.Error("start hand failed", "error", err)
			}
			return nil, false
		}
		c.logger.Info("hand started", "hand", sess.HandNum, "dealer", sess.Dealer)
		return records, true

	case sess.InHandCount() <= 1 || sess.BettingComplete():
		wasMarked := sess.Unreconciled
		records, err := sess.AdvanceStreet(c.rules, now)
		if err != nil {
			if errors.Is(err, game.ErrUnreconciled) {
				// Commit the mark once; retrying cannot reconcile the hand
				// and rewriting an identical snapshot only churns versions.
				if wasMarked {
					return nil, false
				}
				c.logger.Error("settlement failed reconciliation, hand marked for review",
					"hand", sess.HandNum)
				return nil, true
			}
			c.logger.Error("street advance failed", "error", err)
			return nil, false
		}
		c.logger.Info("stage advanced", "stage", sess.Stage, "board", sess.Board, "pot", sess.Pot)
		return records, true

	case sess.CurrentTurn != game.NoTurn && !sess.TurnDeadline.IsZero() && now.After(sess.TurnDeadline):
		seat := sess.CurrentTurn
		req := sess.AutoRequest(seat)
		record, err := sess.ApplyAction(req, c.rules.BigBlind, now, c.rules.TurnTimeout)
		if err != nil {
			c.logger.Error("forced action failed", "seat", seat, "error", err)
			return nil, false
		}
		c.logger.Info("turn expired, forced action", "seat", seat, "action", record.Kind)

		records := []game.ActionRecord{*record}
		// The forced action may have closed the round; fold the stage
		// transition into the same conditional write.
		if sess.InHandCount() <= 1 || sess.BettingComplete() {
			more, err := sess.AdvanceStreet(c.rules, now)
			if err == nil {
				records = append(records, more...)
			} else if errors.Is(err, game.ErrUnreconciled) {
				c.logger.Error("settlement failed reconciliation, hand marked for review",
					"hand", sess.HandNum)
			}
		}
		return records, true
	}

	return nil, false
}
