package poker

import "math/rand"

// Deck is an ordered stack of cards. The order is authoritative: cards are
// dealt from the front and never revealed before they are dealt.
type Deck struct {
	cards []Card
}

// NewDeck creates a standard 52-card deck shuffled with the given RNG.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(rank, suit))
		}
	}
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// NewDeckFromCards creates a deck with a fixed order, for deterministic tests
// and for rebuilding a deck from a persisted session snapshot.
func NewDeckFromCards(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Deal removes and returns the top n cards. It panics if the deck is short,
// which can only happen if session state has been corrupted.
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		panic("poker: dealing from a short deck")
	}
	dealt := d.cards[:n:n]
	d.cards = d.cards[n:]
	return dealt
}

// Remaining returns the undealt cards in order.
func (d *Deck) Remaining() []Card {
	return append([]Card(nil), d.cards...)
}

// Len returns the number of undealt cards.
func (d *Deck) Len() int {
	return len(d.cards)
}
