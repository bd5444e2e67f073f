package domain

import (
	"sort"
	"strings"
)

// PlayKind represents the shape of a play.
type PlayKind int

const (
	Invalid PlayKind = iota
	Single
	Pair
	TripleSolo
	TripleSingle  // triple with a single kicker
	TripleDouble  // triple with a pair kicker
	Airplane      // two or more consecutive triples, no kickers
	QuadTwoSingle // four of a kind with two single kickers
	QuadTwoPair   // four of a kind with two pair kickers
	Bomb          // four of a kind, or the rocket (both jokers)
	Sequence      // five or more consecutive singles from 3 to A
)

var playKindNames = map[PlayKind]string{
	Invalid:       "invalid",
	Single:        "single",
	Pair:          "pair",
	TripleSolo:    "triple",
	TripleSingle:  "triple_single",
	TripleDouble:  "triple_double",
	Airplane:      "airplane",
	QuadTwoSingle: "quad_two_single",
	QuadTwoPair:   "quad_two_pair",
	Bomb:          "bomb",
	Sequence:      "sequence",
}

func (k PlayKind) String() string {
	if name, ok := playKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Play is a classified combination of cards.
type Play struct {
	Kind PlayKind
	// Cards holds every card consumed by the play, core group first and
	// kickers last.
	Cards []Card
	// Kickers are the cards attached to a triple or a quad. They never take
	// part in comparisons.
	Kickers []Card
	// Anchor is the rank two plays of the same shape are compared by.
	Anchor Rank
	// Chain is the number of triples in an Airplane or of cards in a
	// Sequence, and zero for every other kind.
	Chain int
}

// IsBomb reports whether the play is a quad bomb or the rocket.
func (p Play) IsBomb() bool {
	return p.Kind == Bomb
}

// IsRocket reports whether the play is the two-joker bomb.
func (p Play) IsRocket() bool {
	return p.Kind == Bomb && len(p.Cards) == 2
}

func (p Play) String() string {
	parts := make([]string, len(p.Cards))
	for i, c := range p.Cards {
		parts[i] = c.String()
	}
	kind := p.Kind.String()
	if p.IsRocket() {
		kind = "rocket"
	}
	return kind + "[" + strings.Join(parts, " ") + "]"
}

type rankGroup struct {
	rank  Rank
	count int
}

// groupsOf returns the rank groups ordered by count descending, then rank
// ascending.
func groupsOf(counts map[Rank]int) []rankGroup {
	groups := make([]rankGroup, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, rankGroup{rank: r, count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank < groups[j].rank
	})
	return groups
}

// orderByGroup copies cards so the largest rank groups come first; within a
// group cards are ordered by suit.
func orderByGroup(cards []Card, counts map[Rank]int) []Card {
	out := append([]Card{}, cards...)
	sort.Slice(out, func(i, j int) bool {
		ci, cj := counts[out[i].Rank], counts[out[j].Rank]
		if ci != cj {
			return ci > cj
		}
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Suit < out[j].Suit
	})
	return out
}
