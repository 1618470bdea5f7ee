package game

import (
	"sort"
	"time"

	"github.com/cardroom/cardroom/poker"
)

// Pot is one settlement tier. Pots are derived from seat contributions at
// settlement time and never stored as independent truth.
type Pot struct {
	Amount   int
	Cap      int   // contribution cap that closed this tier
	Eligible []int // non-folded seats that reached the cap
}

// Payout is chips credited to a seat during settlement.
type Payout struct {
	Seat   int
	Amount int
}

// BuildPots partitions hand contributions into pots. Every contributor pays
// into a tier up to its cap, folded seats included; only contenders that
// reached the cap can win it.
func BuildPots(seats []*Seat) []Pot {
	caps := make(map[int]bool)
	for _, seat := range seats {
		if seat.InHand() && seat.TotalBet > 0 {
			caps[seat.TotalBet] = true
		}
	}

	levels := make([]int, 0, len(caps))
	for c := range caps {
		levels = append(levels, c)
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, cap := range levels {
		pot := Pot{Cap: cap}
		for _, seat := range seats {
			contributed := seat.TotalBet
			if contributed > cap {
				contributed = cap
			}
			if contributed > prev {
				pot.Amount += contributed - prev
			}
			if seat.InHand() && seat.TotalBet >= cap {
				pot.Eligible = append(pot.Eligible, seat.Index)
			}
		}
		if pot.Amount > 0 {
			sort.Ints(pot.Eligible)
			pots = append(pots, pot)
		}
		prev = cap
	}

	// Chips above the highest contender cap can only come from seats that
	// bet more and then folded. Nobody is left to contest them, so they
	// join the last pot.
	if len(pots) > 0 {
		excess := 0
		for _, seat := range seats {
			if seat.TotalBet > prev {
				excess += seat.TotalBet - prev
			}
		}
		pots[len(pots)-1].Amount += excess
	}
	return pots
}

// Settle evaluates each pot and credits winners. It is idempotent: a hand
// settles at most once, guarded by the settled marker. Chip totals are
// reconciled before anything is paid; a mismatch marks the hand for manual
// review instead of guessing.
func (s *Session) Settle(now time.Time) ([]Payout, []ActionRecord, error) {
	if s.Marker(SettledMarker(s.HandNum)) {
		return nil, nil, nil
	}

	pots := BuildPots(s.Seats)

	potTotal := 0
	for _, pot := range pots {
		potTotal += pot.Amount
	}
	if potTotal != s.Pot {
		s.Unreconciled = true
		return nil, nil, ErrUnreconciled
	}

	var payouts []Payout
	var records []ActionRecord
	winnerSet := make(map[int]bool)

	for _, pot := range pots {
		winners := s.potWinners(pot)
		if len(winners) == 0 {
			// Cannot happen with a well-formed pot; leave the chips for
			// manual review rather than inventing a winner.
			s.Unreconciled = true
			return nil, nil, ErrUnreconciled
		}

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for i, index := range winners {
			amount := share
			// Odd chip goes to the first winner in seat order clockwise
			// from the dealer.
			if i == 0 {
				amount += remainder
			}
			if amount == 0 {
				continue
			}
			s.Seat(index).Stack += amount
			payouts = append(payouts, Payout{Seat: index, Amount: amount})
			records = append(records, ActionRecord{
				Room: s.Room, Hand: s.HandNum, Seat: index,
				Kind: ActWin, Amount: amount, At: now,
			})
			winnerSet[index] = true
		}
	}

	s.Pot = 0
	for _, seat := range s.Seats {
		seat.StreetBet = 0
	}
	s.Winners = s.Winners[:0]
	for _, seat := range sortedSeats(s.Seats) {
		if winnerSet[seat.Index] {
			s.Winners = append(s.Winners, seat.Index)
		}
	}
	s.SetMarker(SettledMarker(s.HandNum))
	return payouts, records, nil
}

// potWinners returns the eligible seats holding the best hand for the pot,
// ordered clockwise from the dealer so remainder chips land deterministically.
func (s *Session) potWinners(pot Pot) []int {
	contenders := make([]*Seat, 0, len(pot.Eligible))
	for _, index := range pot.Eligible {
		if seat := s.Seat(index); seat != nil && seat.InHand() {
			contenders = append(contenders, seat)
		}
	}
	if len(contenders) == 0 {
		return nil
	}
	if len(contenders) == 1 {
		return []int{contenders[0].Index}
	}

	var best poker.Score
	var winners []int
	for _, seat := range s.seatOrder(s.Dealer) {
		var in bool
		for _, c := range contenders {
			if c == seat {
				in = true
				break
			}
		}
		if !in {
			continue
		}
		score := poker.Evaluate7(append(append([]poker.Card(nil), seat.Hole...), s.Board...))
		switch {
		case len(winners) == 0:
			best = score
			winners = []int{seat.Index}
		default:
			switch score.Compare(best) {
			case 1:
				best = score
				winners = []int{seat.Index}
			case 0:
				winners = append(winners, seat.Index)
			}
		}
	}
	return winners
}
