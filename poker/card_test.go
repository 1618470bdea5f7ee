package poker

import (
	"math/rand"
	"testing"
)

func TestParseCard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		rank Rank
		suit Suit
	}{
		{"As", Ace, Spades},
		{"Td", Ten, Diamonds},
		{"2c", Two, Clubs},
		{"Kh", King, Hearts},
		{"9s", Nine, Spades},
	}

	for _, tc := range tests {
		card, err := ParseCard(tc.code)
		if err != nil {
			t.Fatalf("ParseCard(%q) returned error: %v", tc.code, err)
		}
		if card.Rank != tc.rank || card.Suit != tc.suit {
			t.Errorf("ParseCard(%q) = %v, want rank %v suit %v", tc.code, card, tc.rank, tc.suit)
		}
		if card.String() != tc.code {
			t.Errorf("round trip %q -> %q", tc.code, card.String())
		}
	}
}

func TestParseCardInvalid(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"", "A", "Ax", "1s", "Asd", "Zc"} {
		if _, err := ParseCard(code); err == nil {
			t.Errorf("ParseCard(%q) should fail", code)
		}
	}
}

func TestParseCards(t *testing.T) {
	t.Parallel()

	cards, err := ParseCards("AsKdQh")
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}

	if _, err := ParseCards("AsK"); err == nil {
		t.Error("odd-length card string should fail")
	}
}

func TestNewDeckDealsUniqueCards(t *testing.T) {
	t.Parallel()

	d := NewDeck(rand.New(rand.NewSource(1)))
	if d.Len() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Len())
	}

	seen := make(map[Card]bool)
	for _, c := range d.Deal(52) {
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
	}
	if d.Len() != 0 {
		t.Errorf("deck should be empty, has %d", d.Len())
	}
}

func TestDeckRoundTrip(t *testing.T) {
	t.Parallel()

	d := NewDeck(rand.New(rand.NewSource(7)))
	d.Deal(5)

	rebuilt := NewDeckFromCards(d.Remaining())
	if rebuilt.Len() != 47 {
		t.Fatalf("expected 47 cards, got %d", rebuilt.Len())
	}

	want := d.Deal(3)
	got := rebuilt.Deal(3)
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("card %d differs: %v != %v", i, want[i], got[i])
		}
	}
}
