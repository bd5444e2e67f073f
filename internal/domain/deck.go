package domain

import (
	"math/rand"
	"sort"
)

const (
	// PlayerCount is the number of seats at a landlord table.
	PlayerCount = 3
	// DeckSize is the number of cards in a deck including both jokers.
	DeckSize = 54
	// HandSize is the number of cards dealt to each player.
	HandSize = 17
	// KittySize is the number of cards held back for the landlord.
	KittySize = DeckSize - PlayerCount*HandSize
)

// NewDeck returns a sorted 54-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for r := Rank3; r <= Rank2; r++ {
		for s := SuitSpades; s <= SuitClubs; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	deck = append(deck,
		Card{Rank: RankSmallJoker, Suit: SuitJoker},
		Card{Rank: RankBigJoker, Suit: SuitJoker},
	)
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck using rng.
func ShuffleDeck(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal splits a full deck into three hands of HandSize cards and the kitty.
// Cards are dealt from the top of the deck in seat order.
func Deal(deck []Card) (hands [PlayerCount][]Card, kitty []Card) {
	idx := 0
	for seat := 0; seat < PlayerCount; seat++ {
		hands[seat] = append([]Card{}, deck[idx:idx+HandSize]...)
		idx += HandSize
	}
	kitty = append([]Card{}, deck[idx:]...)
	return hands, kitty
}

// SortHand orders a hand by ascending strength, breaking ties by suit.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return cardPower(cards[i]) < cardPower(cards[j])
	})
}

func cardPower(c Card) int {
	return Strength(c)*5 + int(c.Suit)
}
