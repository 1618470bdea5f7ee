package game

import (
	"fmt"
	"time"
)

// MaxStreetBet returns the highest street bet among all seats, 0 if nobody
// has bet this street.
func (s *Session) MaxStreetBet() int {
	max := 0
	for _, seat := range s.Seats {
		if seat.StreetBet > max {
			max = seat.StreetBet
		}
	}
	return max
}

// CanCheck reports whether the seat may check: it has already matched the
// street's highest bet.
func (s *Session) CanCheck(index int) bool {
	seat := s.Seat(index)
	return seat != nil && seat.StreetBet == s.MaxStreetBet()
}

// CallAmount returns what the seat must pay to call, capped at its stack. A
// call that empties the stack becomes an all-in on commit.
func (s *Session) CallAmount(index int) int {
	seat := s.Seat(index)
	if seat == nil {
		return 0
	}
	owed := s.MaxStreetBet() - seat.StreetBet
	if owed < 0 {
		owed = 0
	}
	if owed > seat.Stack {
		owed = seat.Stack
	}
	return owed
}

// ApplyAction validates a player's request against the snapshot and, if
// legal, mutates the snapshot and returns the log record to append. The
// caller commits both under one conditional write; an error means nothing
// was mutated.
func (s *Session) ApplyAction(req Request, bigBlind int, now time.Time, turnTimeout time.Duration) (*ActionRecord, error) {
	if !s.Stage.Betting() {
		return nil, fmt.Errorf("stage %s: %w", s.Stage, ErrWrongStage)
	}
	if s.CurrentTurn != req.Seat {
		return nil, fmt.Errorf("seat %d acting on seat %d's turn: %w", req.Seat, s.CurrentTurn, ErrNotYourTurn)
	}
	seat := s.Seat(req.Seat)
	if seat == nil || !seat.Active() {
		return nil, fmt.Errorf("seat %d cannot act: %w", req.Seat, ErrIllegalAction)
	}

	maxBet := s.MaxStreetBet()
	record := &ActionRecord{Room: s.Room, Hand: s.HandNum, Seat: req.Seat, At: now}

	switch req.Kind {
	case ReqFold:
		seat.Folded = true
		record.Kind = ActFold

	case ReqCheck:
		if seat.StreetBet != maxBet {
			return nil, fmt.Errorf("cannot check facing a bet of %d: %w", maxBet, ErrIllegalAction)
		}
		record.Kind = ActCheck

	case ReqCall:
		owed := s.CallAmount(req.Seat)
		if owed == 0 {
			return nil, fmt.Errorf("nothing to call: %w", ErrIllegalAction)
		}
		s.commitChips(seat, owed)
		record.Kind = ActCall
		record.Amount = owed

	case ReqBet:
		if maxBet != 0 {
			return nil, fmt.Errorf("bet with a live bet of %d, raise instead: %w", maxBet, ErrIllegalAction)
		}
		if req.Amount > seat.Stack {
			return nil, fmt.Errorf("bet %d with stack %d: %w", req.Amount, seat.Stack, ErrInsufficientStack)
		}
		if req.Amount < bigBlind && req.Amount != seat.Stack {
			return nil, fmt.Errorf("bet %d below minimum %d: %w", req.Amount, bigBlind, ErrInvalidAmount)
		}
		s.commitChips(seat, req.Amount)
		s.resetActedExcept(seat)
		record.Kind = ActBet
		record.Amount = req.Amount

	case ReqRaise:
		if maxBet == 0 {
			return nil, fmt.Errorf("raise with no live bet, bet instead: %w", ErrIllegalAction)
		}
		owed := s.CallAmount(req.Seat)
		total := owed + req.Amount
		if total >= seat.Stack {
			// A raise for the whole stack is an all-in and is exempt from
			// the minimum raise size.
			total = seat.Stack
		} else if req.Amount < bigBlind {
			return nil, fmt.Errorf("raise %d below minimum %d: %w", req.Amount, bigBlind, ErrInvalidAmount)
		}
		if total <= owed {
			return nil, fmt.Errorf("raise must exceed the call amount: %w", ErrInvalidAmount)
		}
		s.commitChips(seat, total)
		if seat.StreetBet > maxBet {
			s.resetActedExcept(seat)
		}
		record.Kind = ActRaise
		record.Amount = total

	case ReqAllIn:
		amount := seat.Stack
		if amount == 0 {
			return nil, fmt.Errorf("all-in with empty stack: %w", ErrIllegalAction)
		}
		s.commitChips(seat, amount)
		if maxBet == 0 {
			record.Kind = ActBet
		} else {
			record.Kind = ActRaise
		}
		record.Amount = amount
		if seat.StreetBet > maxBet {
			s.resetActedExcept(seat)
		}

	default:
		return nil, fmt.Errorf("unknown action %q: %w", req.Kind, ErrIllegalAction)
	}

	seat.Acted = true
	s.advanceTurn(req.Seat, now, turnTimeout)
	return record, nil
}

// commitChips moves chips from the seat's stack into its street commitment
// and the running pot total, flagging all-in when the stack empties.
func (s *Session) commitChips(seat *Seat, amount int) {
	if amount > seat.Stack {
		amount = seat.Stack
	}
	seat.Stack -= amount
	seat.StreetBet += amount
	seat.TotalBet += amount
	s.Pot += amount
	if seat.Stack == 0 {
		seat.AllIn = true
	}
}

// resetActedExcept forces every other active seat to respond to a new bet
// level.
func (s *Session) resetActedExcept(actor *Seat) {
	for _, seat := range s.Seats {
		if seat != actor && seat.Active() {
			seat.Acted = false
		}
	}
}

// advanceTurn moves the turn pointer to the next eligible seat and
// refreshes the deadline, or clears both when nobody can act.
func (s *Session) advanceTurn(from int, now time.Time, turnTimeout time.Duration) {
	next := s.NextEligible(from)
	s.CurrentTurn = next
	if next == NoTurn {
		s.TurnDeadline = time.Time{}
		return
	}
	s.TurnDeadline = now.Add(turnTimeout)
}
