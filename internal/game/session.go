package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cardroom/cardroom/poker"
)

// Stage is the phase a hand is in. Transitions are monotonic within a hand
// and reset only by starting a new one.
type Stage int

const (
	Lobby Stage = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	Ended
)

func (s Stage) String() string {
	switch s {
	case Lobby:
		return "lobby"
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Betting reports whether the stage is a betting street.
func (s Stage) Betting() bool {
	return s >= Preflop && s <= River
}

// NoTurn marks a session with no acting seat.
const NoTurn = -1

// Seat is one occupied position at the table. Seat assignment itself is
// owned by the lobby; the engine only mutates chip and hand state.
type Seat struct {
	Index      int          `json:"index"`
	PlayerID   string       `json:"player_id"`
	Stack      int          `json:"stack"`
	StreetBet  int          `json:"street_bet"`
	TotalBet   int          `json:"total_bet"`
	Folded     bool         `json:"folded"`
	AllIn      bool         `json:"all_in"`
	Acted      bool         `json:"acted"`
	SittingOut bool         `json:"sitting_out"`
	Hole       []poker.Card `json:"hole,omitempty"`
}

// Active reports whether the seat can still act this street.
func (s *Seat) Active() bool {
	return !s.SittingOut && !s.Folded && !s.AllIn
}

// InHand reports whether the seat is still contending for the pot.
func (s *Seat) InHand() bool {
	return !s.SittingOut && !s.Folded
}

// Session is the authoritative shared record for one room. Every client
// works on a snapshot of it and commits changes through a conditional write;
// nothing here is safe to mutate outside that protocol.
type Session struct {
	Room         string       `json:"room"`
	Stage        Stage        `json:"stage"`
	HandNum      int          `json:"hand_num"`
	Dealer       int          `json:"dealer"`
	SmallBlind   int          `json:"small_blind_seat"`
	BigBlind     int          `json:"big_blind_seat"`
	Board        []poker.Card `json:"board,omitempty"`
	DeckCards    []poker.Card `json:"deck,omitempty"`
	CurrentTurn  int          `json:"current_turn"`
	TurnDeadline time.Time    `json:"turn_deadline,omitempty"`
	Pot          int          `json:"pot"`
	Winners      []int        `json:"winners,omitempty"`
	Seats        []*Seat      `json:"seats"`
	Markers      map[string]bool `json:"markers,omitempty"`
	Unreconciled bool         `json:"unreconciled,omitempty"`
}

// NewSession creates an empty session in the lobby stage.
func NewSession(room string) *Session {
	return &Session{
		Room:        room,
		Stage:       Lobby,
		CurrentTurn: NoTurn,
		Markers:     make(map[string]bool),
	}
}

// Seat returns the seat at the given index, or nil if unoccupied.
func (s *Session) Seat(index int) *Seat {
	for _, seat := range s.Seats {
		if seat.Index == index {
			return seat
		}
	}
	return nil
}

// Sit places a player at a seat index. Duplicate indices are rejected; the
// seat sits out until the next hand starts.
func (s *Session) Sit(index int, playerID string, stack int) (*Seat, error) {
	if s.Seat(index) != nil {
		return nil, fmt.Errorf("seat %d is taken", index)
	}
	seat := &Seat{
		Index:      index,
		PlayerID:   playerID,
		Stack:      stack,
		SittingOut: true,
	}
	s.Seats = append(s.Seats, seat)
	return seat, nil
}

// seatOrder returns occupied seats starting at the first index strictly
// after `from`, wrapping around the table.
func (s *Session) seatOrder(from int) []*Seat {
	ordered := make([]*Seat, 0, len(s.Seats))
	var before []*Seat
	for _, seat := range sortedSeats(s.Seats) {
		if seat.Index > from {
			ordered = append(ordered, seat)
		} else {
			before = append(before, seat)
		}
	}
	return append(ordered, before...)
}

// NextEligible returns the index of the first seat after `from` that can
// act, or NoTurn if nobody can.
func (s *Session) NextEligible(from int) int {
	for _, seat := range s.seatOrder(from) {
		if seat.Active() && seat.Stack > 0 {
			return seat.Index
		}
	}
	return NoTurn
}

// InHandCount returns the number of seats still contending for the pot.
func (s *Session) InHandCount() int {
	n := 0
	for _, seat := range s.Seats {
		if seat.InHand() {
			n++
		}
	}
	return n
}

// lastInHand returns the sole contender, or nil when more than one remains.
func (s *Session) lastInHand() *Seat {
	var last *Seat
	for _, seat := range s.Seats {
		if seat.InHand() {
			if last != nil {
				return nil
			}
			last = seat
		}
	}
	return last
}

// ChipTotal returns stacks plus chips committed this hand. Settlement checks
// this against its starting value before paying anything out.
func (s *Session) ChipTotal() int {
	total := 0
	for _, seat := range s.Seats {
		total += seat.Stack + seat.TotalBet
	}
	return total
}

// Marker reports whether the idempotency key has been recorded.
func (s *Session) Marker(key string) bool {
	return s.Markers[key]
}

// SetMarker records an idempotency key. Entry fees, blind posts and
// settlement all share this mechanism so none of them can apply twice for
// the same hand.
func (s *Session) SetMarker(key string) {
	if s.Markers == nil {
		s.Markers = make(map[string]bool)
	}
	s.Markers[key] = true
}

// FeeMarker is the idempotency key for a seat's entry fee in a hand.
func FeeMarker(hand, seat int) string {
	return fmt.Sprintf("fee:%d:%d", hand, seat)
}

// BlindMarker is the idempotency key for a seat's blind post in a hand.
func BlindMarker(hand, seat int) string {
	return fmt.Sprintf("blind:%d:%d", hand, seat)
}

// SettledMarker is the idempotency key for a hand's settlement.
func SettledMarker(hand int) string {
	return fmt.Sprintf("settled:%d", hand)
}

// pruneMarkers drops idempotency keys for hands before the given one. A
// marker only protects transitions of the hand it names, so keeping older
// ones just grows the session record for the life of the room.
func (s *Session) pruneMarkers(hand int) {
	for key := range s.Markers {
		if h, ok := markerHand(key); ok && h < hand {
			delete(s.Markers, key)
		}
	}
}

// markerHand extracts the hand number from a marker key. All marker forms
// carry it in the second colon-separated field.
func markerHand(key string) (int, bool) {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h, true
}

func sortedSeats(seats []*Seat) []*Seat {
	out := append([]*Seat(nil), seats...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Index > out[j].Index; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
