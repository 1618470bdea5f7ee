package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cardroom/cardroom/poker"
)

// Rules are the table stakes for a room. They come from configuration and
// never change mid-session.
type Rules struct {
	SmallBlind  int
	BigBlind    int
	EntryFee    int
	MinPlayers  int
	TurnTimeout time.Duration
}

// Validate checks the stakes are coherent.
func (r Rules) Validate() error {
	if r.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", r.SmallBlind)
	}
	if r.BigBlind <= r.SmallBlind {
		return fmt.Errorf("big blind %d must exceed small blind %d", r.BigBlind, r.SmallBlind)
	}
	if r.EntryFee < 0 {
		return fmt.Errorf("entry fee must not be negative, got %d", r.EntryFee)
	}
	if r.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2, got %d", r.MinPlayers)
	}
	if r.TurnTimeout <= 0 {
		return fmt.Errorf("turn timeout must be positive, got %s", r.TurnTimeout)
	}
	return nil
}

// StartHand deals the next hand: charges entry fees, posts blinds, deals
// hole cards and opens the preflop street. It returns the blind-post records
// for the audit log.
//
// Entry fees and blinds are guarded by per-hand idempotency markers, so a
// client that reconnects and replays the transition cannot charge anyone
// twice. The caller commits the mutated snapshot with a conditional write;
// if that write loses a race the whole transition is discarded.
func (s *Session) StartHand(r Rules, rng *rand.Rand, now time.Time) ([]ActionRecord, error) {
	if s.Stage != Lobby && s.Stage != Showdown {
		return nil, fmt.Errorf("cannot start a hand from %s: %w", s.Stage, ErrWrongStage)
	}

	hand := s.HandNum + 1
	s.pruneMarkers(hand)

	// Charge entry fees exactly once per hand. Seats that cannot cover the
	// fee sit the hand out unpaid. The fee leaves the chip pool; it is the
	// one audited exception to chip conservation.
	playable := 0
	paid := make(map[int]bool, len(s.Seats))
	for _, seat := range s.Seats {
		switch {
		case s.Marker(FeeMarker(hand, seat.Index)):
			paid[seat.Index] = true
		case seat.Stack > r.EntryFee:
			seat.Stack -= r.EntryFee
			s.SetMarker(FeeMarker(hand, seat.Index))
			paid[seat.Index] = true
		}
		if paid[seat.Index] && seat.Stack > 0 {
			playable++
		}
	}
	if playable < r.MinPlayers {
		return nil, fmt.Errorf("%d of %d players: %w", playable, r.MinPlayers, ErrNotEnoughPlayers)
	}

	s.HandNum = hand
	s.Board = nil
	s.Winners = nil
	s.Pot = 0
	s.Unreconciled = false

	for _, seat := range s.Seats {
		seat.StreetBet = 0
		seat.TotalBet = 0
		seat.Folded = false
		seat.AllIn = false
		seat.Acted = false
		seat.Hole = nil
		seat.SittingOut = seat.Stack == 0 || !paid[seat.Index]
	}

	s.Stage = Preflop
	s.Dealer = s.NextEligible(s.Dealer)

	if playable == 2 {
		// Heads-up: the dealer posts the small blind and acts first preflop.
		s.SmallBlind = s.Dealer
		s.BigBlind = s.NextEligible(s.Dealer)
	} else {
		s.SmallBlind = s.NextEligible(s.Dealer)
		s.BigBlind = s.NextEligible(s.SmallBlind)
	}

	var records []ActionRecord
	for _, post := range []struct {
		seat   int
		amount int
	}{
		{s.SmallBlind, r.SmallBlind},
		{s.BigBlind, r.BigBlind},
	} {
		if s.Marker(BlindMarker(hand, post.seat)) {
			continue
		}
		seat := s.Seat(post.seat)
		s.commitChips(seat, post.amount)
		s.SetMarker(BlindMarker(hand, post.seat))
		records = append(records, ActionRecord{
			Room: s.Room, Hand: hand, Seat: post.seat,
			Kind: ActPostBlind, Amount: seat.StreetBet, At: now,
		})
	}

	deck := poker.NewDeck(rng)
	for _, seat := range s.seatOrder(s.Dealer) {
		if !seat.SittingOut {
			seat.Hole = deck.Deal(2)
		}
	}
	s.DeckCards = deck.Remaining()

	// First to act preflop is the seat after the big blind; heads-up that
	// wraps around to the dealer.
	s.CurrentTurn = s.NextEligible(s.BigBlind)
	if s.CurrentTurn == NoTurn {
		s.TurnDeadline = time.Time{}
	} else {
		s.TurnDeadline = now.Add(r.TurnTimeout)
	}
	return records, nil
}

// BettingComplete reports whether the street-advance guard holds: every
// active seat has responded to the current bet level and matched it.
func (s *Session) BettingComplete() bool {
	if !s.Stage.Betting() {
		return false
	}
	max := s.MaxStreetBet()
	for _, seat := range s.Seats {
		if !seat.Active() {
			continue
		}
		if !seat.Acted || seat.StreetBet != max {
			return false
		}
	}
	return true
}

// AdvanceStreet performs one stage transition: reveal the street's board
// cards, or resolve the hand when only one contender remains or the river
// is complete. The caller must commit the result with a conditional write
// guarded by the version it read; on conflict the transition is discarded.
func (s *Session) AdvanceStreet(r Rules, now time.Time) ([]ActionRecord, error) {
	if !s.Stage.Betting() {
		return nil, fmt.Errorf("cannot advance from %s: %w", s.Stage, ErrWrongStage)
	}

	// A lone contender wins the whole pot immediately, with no card reveal
	// and no evaluation.
	if s.InHandCount() <= 1 {
		return s.finishHand(now)
	}

	if !s.BettingComplete() {
		return nil, ErrBettingOpen
	}

	for _, seat := range s.Seats {
		seat.StreetBet = 0
		if seat.Active() {
			seat.Acted = false
		}
	}

	deck := poker.NewDeckFromCards(s.DeckCards)
	switch s.Stage {
	case Preflop:
		s.Board = append(s.Board, deck.Deal(3)...)
		s.Stage = Flop
	case Flop:
		s.Board = append(s.Board, deck.Deal(1)...)
		s.Stage = Turn
	case Turn:
		s.Board = append(s.Board, deck.Deal(1)...)
		s.Stage = River
	case River:
		return s.finishHand(now)
	}
	s.DeckCards = deck.Remaining()

	s.CurrentTurn = s.NextEligible(s.Dealer)
	if s.CurrentTurn == NoTurn {
		// Everyone left is all-in; the guard stays satisfied and the next
		// poll advances again until showdown.
		s.TurnDeadline = time.Time{}
	} else {
		s.TurnDeadline = now.Add(r.TurnTimeout)
	}
	return nil, nil
}

// finishHand settles the pot, records winners and parks the session in
// showdown until the coordinator starts the next hand. Seats that busted
// sit out; with fewer than two funded seats the session ends.
func (s *Session) finishHand(now time.Time) ([]ActionRecord, error) {
	_, records, err := s.Settle(now)
	if err != nil {
		return nil, err
	}

	s.Stage = Showdown
	s.CurrentTurn = NoTurn
	s.TurnDeadline = time.Time{}

	funded := 0
	for _, seat := range s.Seats {
		if seat.Stack == 0 {
			seat.SittingOut = true
		} else {
			funded++
		}
	}
	if funded < 2 {
		s.Stage = Ended
	}
	return records, nil
}

// AutoRequest is the forced resolution for a seat whose turn deadline has
// elapsed: check when legal, fold otherwise.
func (s *Session) AutoRequest(index int) Request {
	if s.CanCheck(index) {
		return Request{Seat: index, Kind: ReqCheck}
	}
	return Request{Seat: index, Kind: ReqFold}
}
