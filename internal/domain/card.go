package domain

import "fmt"

// Suit identifies the suit of a card. Suits never affect legality or ranking.
type Suit int

const (
	SuitSpades Suit = iota
	SuitHearts
	SuitDiamonds
	SuitClubs
	// SuitJoker is the sentinel suit carried by both jokers.
	SuitJoker
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣", ""}

func (s Suit) String() string {
	if s < SuitSpades || s > SuitJoker {
		return "?"
	}
	return suitSymbols[s]
}

// Rank is a card rank. Constants are declared in strength order, so 3 is the
// weakest rank and the big joker the strongest.
type Rank int

const (
	Rank3 Rank = iota
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
	Rank2
	RankSmallJoker
	RankBigJoker
)

var rankNames = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2", "SJ", "BJ"}

func (r Rank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// Valid reports whether r is one of the fifteen ranks of the deck.
func (r Rank) Valid() bool {
	return r >= Rank3 && r <= RankBigJoker
}

// Chainable reports whether the rank may appear in a Sequence or an Airplane.
func (r Rank) Chainable() bool {
	return r >= Rank3 && r <= RankA
}

// Card is a single playing card. Cards are values; two cards are the same
// physical card when rank and suit match.
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	if c.Suit == SuitJoker {
		return c.Rank.String()
	}
	return c.Rank.String() + c.Suit.String()
}

// Valid reports whether the card exists in a standard 54-card deck.
func (c Card) Valid() bool {
	if c.Rank == RankSmallJoker || c.Rank == RankBigJoker {
		return c.Suit == SuitJoker
	}
	return c.Rank.Valid() && c.Suit >= SuitSpades && c.Suit <= SuitClubs
}

// Strength returns the position of the card's rank in the play order
// 3 < 4 < ... < A < 2 < small joker < big joker.
func Strength(c Card) int {
	return int(c.Rank)
}

// IsJoker reports whether c is the small or the big joker.
func IsJoker(c Card) bool {
	return c.Rank == RankSmallJoker || c.Rank == RankBigJoker
}

// IsTwo reports whether c is a 2.
func IsTwo(c Card) bool {
	return c.Rank == Rank2
}
