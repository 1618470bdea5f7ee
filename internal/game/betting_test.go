package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 30 * time.Second

// testSession builds a session mid-preflop with the given stacks, dealer at
// seat 0, and no blinds posted, so betting scenarios can be laid out by
// hand.
func testSession(t *testing.T, stacks ...int) *Session {
	t.Helper()
	sess := NewSession("test")
	for i, stack := range stacks {
		_, err := sess.Sit(i, string(rune('a'+i)), stack)
		require.NoError(t, err)
	}
	for _, seat := range sess.Seats {
		seat.SittingOut = false
	}
	sess.Stage = Preflop
	sess.HandNum = 1
	sess.Dealer = 0
	sess.CurrentTurn = 1
	return sess
}

func TestMaxStreetBetAndCallAmount(t *testing.T) {
	t.Parallel()

	sess := testSession(t, 100, 100, 100)
	assert.Equal(t, 0, sess.MaxStreetBet())

	sess.Seat(0).StreetBet = 10
	sess.Seat(1).StreetBet = 30
	assert.Equal(t, 30, sess.MaxStreetBet())

	assert.Equal(t, 20, sess.CallAmount(0))
	assert.Equal(t, 0, sess.CallAmount(1))
	assert.Equal(t, 30, sess.CallAmount(2))

	// A short stack's call is capped at the stack.
	sess.Seat(2).Stack = 12
	assert.Equal(t, 12, sess.CallAmount(2))
}

func TestCanCheck(t *testing.T) {
	t.Parallel()

	sess := testSession(t, 100, 100)
	assert.True(t, sess.CanCheck(0))
	assert.True(t, sess.CanCheck(1))

	sess.Seat(0).StreetBet = 10
	assert.False(t, sess.CanCheck(1))
	assert.True(t, sess.CanCheck(0))
}

func TestApplyActionRejections(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("wrong turn", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		_, err := sess.ApplyAction(Request{Seat: 0, Kind: ReqCheck}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrNotYourTurn)
	})

	t.Run("wrong stage", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		sess.Stage = Showdown
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqCheck}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrWrongStage)
	})

	t.Run("check facing bet", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		sess.Seat(0).StreetBet = 10
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqCheck}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrIllegalAction)
	})

	t.Run("bet over stack", func(t *testing.T) {
		sess := testSession(t, 100, 50)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 60}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrInsufficientStack)
	})

	t.Run("bet below minimum", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 1}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("bet with live bet", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		sess.Seat(0).StreetBet = 10
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 20}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrIllegalAction)
	})

	t.Run("raise with no live bet", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqRaise, Amount: 10}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrIllegalAction)
	})

	t.Run("raise below minimum", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		sess.Seat(0).StreetBet = 10
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqRaise, Amount: 1}, 2, now, testTimeout)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejection mutates nothing", func(t *testing.T) {
		sess := testSession(t, 100, 100)
		sess.Seat(0).StreetBet = 10
		before := *sess.Seat(1)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqCheck}, 2, now, testTimeout)
		require.Error(t, err)
		assert.Equal(t, before, *sess.Seat(1))
		assert.Equal(t, 0, sess.Pot)
	})
}

func TestApplyActionCommit(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("bet commits chips and records", func(t *testing.T) {
		sess := testSession(t, 100, 100, 100)
		rec, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 10}, 2, now, testTimeout)
		require.NoError(t, err)

		assert.Equal(t, ActBet, rec.Kind)
		assert.Equal(t, 10, rec.Amount)
		assert.Equal(t, 1, rec.Hand)

		seat := sess.Seat(1)
		assert.Equal(t, 90, seat.Stack)
		assert.Equal(t, 10, seat.StreetBet)
		assert.Equal(t, 10, seat.TotalBet)
		assert.True(t, seat.Acted)
		assert.Equal(t, 10, sess.Pot)
		assert.Equal(t, 2, sess.CurrentTurn)
		assert.Equal(t, now.Add(testTimeout), sess.TurnDeadline)
	})

	t.Run("call that empties stack is all-in", func(t *testing.T) {
		sess := testSession(t, 100, 100, 8)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 20}, 2, now, testTimeout)
		require.NoError(t, err)

		rec, err := sess.ApplyAction(Request{Seat: 2, Kind: ReqCall}, 2, now, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, ActCall, rec.Kind)
		assert.Equal(t, 8, rec.Amount)
		assert.True(t, sess.Seat(2).AllIn)
		assert.Equal(t, 0, sess.Seat(2).Stack)
	})

	t.Run("raise resets acted for others", func(t *testing.T) {
		sess := testSession(t, 100, 100, 100)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 10}, 2, now, testTimeout)
		require.NoError(t, err)
		_, err = sess.ApplyAction(Request{Seat: 2, Kind: ReqCall}, 2, now, testTimeout)
		require.NoError(t, err)
		require.True(t, sess.Seat(2).Acted)

		// Seat 0 raises by 10 on top of the 10 call.
		rec, err := sess.ApplyAction(Request{Seat: 0, Kind: ReqRaise, Amount: 10}, 2, now, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, ActRaise, rec.Kind)
		assert.Equal(t, 20, rec.Amount)
		assert.Equal(t, 20, sess.Seat(0).StreetBet)

		assert.False(t, sess.Seat(1).Acted, "seat 1 must respond to the raise")
		assert.False(t, sess.Seat(2).Acted, "seat 2 must respond to the raise")
		assert.True(t, sess.Seat(0).Acted)
	})

	t.Run("all-in below minimum raise is legal", func(t *testing.T) {
		sess := testSession(t, 100, 100, 11)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 10}, 2, now, testTimeout)
		require.NoError(t, err)

		rec, err := sess.ApplyAction(Request{Seat: 2, Kind: ReqAllIn}, 2, now, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, ActRaise, rec.Kind, "all-in over a live bet is logged as a raise")
		assert.Equal(t, 11, rec.Amount)
		assert.True(t, sess.Seat(2).AllIn)
		assert.False(t, sess.Seat(0).Acted)
	})

	t.Run("all-in with no live bet is logged as a bet", func(t *testing.T) {
		sess := testSession(t, 100, 50)
		rec, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqAllIn}, 2, now, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, ActBet, rec.Kind)
		assert.Equal(t, 50, rec.Amount)
	})

	t.Run("fold removes seat from hand", func(t *testing.T) {
		sess := testSession(t, 100, 100, 100)
		rec, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqFold}, 2, now, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, ActFold, rec.Kind)
		assert.True(t, sess.Seat(1).Folded)
		assert.False(t, sess.Seat(1).InHand())
		assert.Equal(t, 2, sess.InHandCount())
	})

	t.Run("raise for whole stack caps at stack", func(t *testing.T) {
		sess := testSession(t, 100, 100, 30)
		_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqBet, Amount: 20}, 2, now, testTimeout)
		require.NoError(t, err)

		rec, err := sess.ApplyAction(Request{Seat: 2, Kind: ReqRaise, Amount: 50}, 2, now, testTimeout)
		require.NoError(t, err)
		assert.Equal(t, 30, rec.Amount)
		assert.True(t, sess.Seat(2).AllIn)
	})
}

func TestTurnRotation(t *testing.T) {
	t.Parallel()

	now := time.Now()
	sess := testSession(t, 100, 100, 100)

	_, err := sess.ApplyAction(Request{Seat: 1, Kind: ReqCheck}, 2, now, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.CurrentTurn)

	_, err = sess.ApplyAction(Request{Seat: 2, Kind: ReqCheck}, 2, now, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.CurrentTurn, "turn wraps around the table")

	// Folded and all-in seats are skipped.
	sess.Seat(1).Folded = true
	_, err = sess.ApplyAction(Request{Seat: 0, Kind: ReqCheck}, 2, now, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, 2, sess.CurrentTurn)
}
