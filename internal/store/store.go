// Package store defines the abstract shared-record contract the engine
// coordinates through. There is no dedicated server process: clients read
// snapshots, compute transitions locally and commit them with conditional
// writes. A failed condition means another client moved first and the
// computed transition must be discarded, never retried blindly.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/cardroom/cardroom/internal/game"
)

var (
	// ErrConflict is returned by Update when the guard version is stale.
	// Callers treat it as "someone else moved first", not as a failure.
	ErrConflict = errors.New("conditional update failed: stale version")

	// ErrNotFound is returned when the room has no session record.
	ErrNotFound = errors.New("session not found")
)

// Store is the shared record store. Every call is a fallible round trip;
// callers must never assume synchronous consistency with their last read.
type Store interface {
	// Create initializes the session record for a room. Fails if one exists.
	Create(ctx context.Context, sess *game.Session) error

	// Load returns a deep snapshot of the session and its current version.
	Load(ctx context.Context, room string) (*game.Session, int64, error)

	// Update commits a full snapshot if and only if the record is still at
	// the expected version. Returns ErrConflict on a stale guard.
	Update(ctx context.Context, room string, expect int64, sess *game.Session) error

	// AppendAction appends to the room's append-only action log. Ordering
	// across clients is best effort; per-session timestamps suffice for
	// audit.
	AppendAction(ctx context.Context, record game.ActionRecord) error

	// Actions returns the action log for a room, oldest first.
	Actions(ctx context.Context, room string) ([]game.ActionRecord, error)

	// Watch delivers a notification after each committed update, for
	// refreshing local views only. Correctness never depends on it; the
	// poll loop is the authoritative trigger.
	Watch(ctx context.Context, room string) (<-chan struct{}, error)

	Leaser
}

// Leaser is the coordinator lease. Exactly one client should hold the lease
// at a time; a second leader slipping through is tolerated because every
// authoritative transition goes through Update's version guard anyway.
type Leaser interface {
	// AcquireLease takes the room lease if it is free or expired.
	AcquireLease(ctx context.Context, room, clientID string, ttl time.Duration) (bool, error)

	// RenewLease extends the lease if clientID still holds it.
	RenewLease(ctx context.Context, room, clientID string, ttl time.Duration) (bool, error)

	// ReleaseLease drops the lease if clientID holds it.
	ReleaseLease(ctx context.Context, room, clientID string) error
}
