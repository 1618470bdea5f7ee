package store

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroom/cardroom/internal/game"
)

func newRoom(t *testing.T, m *Memory, room string) *game.Session {
	t.Helper()
	sess := game.NewSession(room)
	_, err := sess.Sit(0, "alice", 100)
	require.NoError(t, err)
	_, err = sess.Sit(1, "bob", 100)
	require.NoError(t, err)
	require.NoError(t, m.Create(context.Background(), sess))
	return sess
}

func TestMemoryCreateLoad(t *testing.T) {
	t.Parallel()

	m := NewMemory(nil)
	ctx := context.Background()
	newRoom(t, m, "r1")

	sess, version, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "r1", sess.Room)
	assert.Len(t, sess.Seats, 2)

	_, _, err = m.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.Create(ctx, game.NewSession("r1"))
	assert.Error(t, err, "rooms are created once")
}

func TestMemoryLoadReturnsSnapshot(t *testing.T) {
	t.Parallel()

	m := NewMemory(nil)
	ctx := context.Background()
	newRoom(t, m, "r1")

	first, _, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	first.Seat(0).Stack = 1

	second, _, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 100, second.Seat(0).Stack, "loads must not share state")
}

func TestMemoryConditionalUpdate(t *testing.T) {
	t.Parallel()

	m := NewMemory(nil)
	ctx := context.Background()
	newRoom(t, m, "r1")

	// Two clients load the same version and both try to commit a
	// transition; exactly one write wins.
	one, v1, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	two, v2, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, v1, v2)

	one.Pot = 10
	require.NoError(t, m.Update(ctx, "r1", v1, one))

	two.Pot = 99
	err = m.Update(ctx, "r1", v2, two)
	assert.ErrorIs(t, err, ErrConflict)

	final, version, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, 10, final.Pot, "the losing transition left no trace")

	err = m.Update(ctx, "missing", 1, one)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryActions(t *testing.T) {
	t.Parallel()

	m := NewMemory(nil)
	ctx := context.Background()

	recs := []game.ActionRecord{
		{Room: "r1", Hand: 1, Seat: 0, Kind: game.ActPostBlind, Amount: 1},
		{Room: "r1", Hand: 1, Seat: 1, Kind: game.ActPostBlind, Amount: 2},
		{Room: "r1", Hand: 1, Seat: 0, Kind: game.ActFold},
	}
	for _, rec := range recs {
		require.NoError(t, m.AppendAction(ctx, rec))
	}

	got, err := m.Actions(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, recs, got, "the log preserves append order")

	empty, err := m.Actions(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryWatch(t *testing.T) {
	t.Parallel()

	m := NewMemory(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	newRoom(t, m, "r1")

	ch, err := m.Watch(ctx, "r1")
	require.NoError(t, err)

	sess, version, err := m.Load(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, m.Update(ctx, "r1", version, sess))

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after an update")
	}

	// Back-to-back updates collapse into at most one pending notification;
	// watchers reload the session rather than reading events.
	for i := 0; i < 3; i++ {
		sess, version, err = m.Load(ctx, "r1")
		require.NoError(t, err)
		require.NoError(t, m.Update(ctx, "r1", version, sess))
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after collapsed updates")
	}
	select {
	case <-ch:
		t.Fatal("more than one pending notification")
	default:
	}
}

func TestMemoryLease(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	m := NewMemory(mock)
	ctx := context.Background()
	ttl := 3 * time.Second

	ok, err := m.AcquireLease(ctx, "r1", "c1", ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second client cannot take a live lease.
	ok, err = m.AcquireLease(ctx, "r1", "c2", ttl)
	require.NoError(t, err)
	assert.False(t, ok)

	// The holder renews; a non-holder cannot.
	ok, err = m.RenewLease(ctx, "r1", "c1", ttl)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.RenewLease(ctx, "r1", "c2", ttl)
	require.NoError(t, err)
	assert.False(t, ok)

	// Expiry opens the lease to takeover.
	mock.Advance(ttl + time.Second)
	ok, err = m.AcquireLease(ctx, "r1", "c2", ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	// Release by a non-holder is a no-op; release by the holder frees it.
	require.NoError(t, m.ReleaseLease(ctx, "r1", "c1"))
	ok, err = m.RenewLease(ctx, "r1", "c2", ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.ReleaseLease(ctx, "r1", "c2"))
	ok, err = m.AcquireLease(ctx, "r1", "c3", ttl)
	require.NoError(t, err)
	assert.True(t, ok)
}
