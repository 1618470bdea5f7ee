package poker

import (
	"fmt"
	"sort"
)

// Category enumerates hand categories from weakest to strongest.
type Category int

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Score is a comparable hand strength: a category plus the kicker sequence
// that breaks ties within the category, highest first.
type Score struct {
	Category Category
	Kickers  []Rank
}

// Compare returns 1 if s beats o, -1 if o beats s, and 0 for an exact tie.
func (s Score) Compare(o Score) int {
	if s.Category != o.Category {
		if s.Category > o.Category {
			return 1
		}
		return -1
	}
	for i := 0; i < len(s.Kickers) && i < len(o.Kickers); i++ {
		if s.Kickers[i] != o.Kickers[i] {
			if s.Kickers[i] > o.Kickers[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// String returns the category name with its deciding kickers, e.g.
// "Full House (KKK99)".
func (s Score) String() string {
	codes := ""
	for _, r := range s.Kickers {
		codes += r.String()
	}
	return fmt.Sprintf("%s [%s]", s.Category, codes)
}

// Evaluate5 scores exactly five cards.
func Evaluate5(cards []Card) Score {
	if len(cards) != 5 {
		panic("poker: Evaluate5 requires exactly five cards")
	}

	counts := make(map[Rank]int, 5)
	flush := true
	for i, c := range cards {
		counts[c.Rank]++
		if i > 0 && c.Suit != cards[0].Suit {
			flush = false
		}
	}

	// Group ranks by multiplicity, then by rank, highest first. The kicker
	// sequence for every category falls directly out of this ordering.
	groups := make([]Rank, 0, 5)
	for r := range counts {
		groups = append(groups, r)
	}
	sort.Slice(groups, func(i, j int) bool {
		if counts[groups[i]] != counts[groups[j]] {
			return counts[groups[i]] > counts[groups[j]]
		}
		return groups[i] > groups[j]
	})

	straightHigh, isStraight := straightHigh(groups)

	switch {
	case isStraight && flush:
		return Score{Category: StraightFlush, Kickers: []Rank{straightHigh}}
	case counts[groups[0]] == 4:
		return Score{Category: FourOfAKind, Kickers: groups}
	case counts[groups[0]] == 3 && counts[groups[1]] == 2:
		return Score{Category: FullHouse, Kickers: groups}
	case flush:
		return Score{Category: Flush, Kickers: groups}
	case isStraight:
		return Score{Category: Straight, Kickers: []Rank{straightHigh}}
	case counts[groups[0]] == 3:
		return Score{Category: ThreeOfAKind, Kickers: groups}
	case counts[groups[0]] == 2 && counts[groups[1]] == 2:
		return Score{Category: TwoPair, Kickers: groups}
	case counts[groups[0]] == 2:
		return Score{Category: Pair, Kickers: groups}
	default:
		return Score{Category: HighCard, Kickers: groups}
	}
}

// straightHigh reports whether five distinct ranks form a straight and, if
// so, its high card. The wheel (A-2-3-4-5) is the lowest straight with high
// card Five.
func straightHigh(distinct []Rank) (Rank, bool) {
	if len(distinct) != 5 {
		return 0, false
	}

	sorted := append([]Rank(nil), distinct...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	// Wheel: ace plays low.
	if sorted[0] == Ace && sorted[1] == Five && sorted[2] == Four && sorted[3] == Three && sorted[4] == Two {
		return Five, true
	}

	for i := 1; i < 5; i++ {
		if sorted[i-1]-sorted[i] != 1 {
			return 0, false
		}
	}
	return sorted[0], true
}

// Evaluate7 scores the best five-card hand choosable from five to seven
// cards by evaluating every five-card subset and keeping the maximum.
func Evaluate7(cards []Card) Score {
	n := len(cards)
	if n < 5 || n > 7 {
		panic(fmt.Sprintf("poker: Evaluate7 requires five to seven cards, got %d", n))
	}
	if n == 5 {
		return Evaluate5(cards)
	}

	var best Score
	first := true
	subset := make([]Card, 5)
	forEachCombination(n, 5, func(idx []int) {
		for i, j := range idx {
			subset[i] = cards[j]
		}
		score := Evaluate5(subset)
		if first || score.Compare(best) > 0 {
			best = score
			first = false
		}
	})
	return best
}

// forEachCombination calls fn with every k-combination of {0..n-1} in
// lexicographic order. The index slice is reused between calls.
func forEachCombination(n, k int, fn func([]int)) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
