package domain

import "fmt"

// Classify analyzes a set of cards and returns the play it forms. Shapes are
// resolved by the per-rank composition of the cards, never by their order.
// Possession is not checked here.
func Classify(cards []Card) (Play, error) {
	if len(cards) == 0 {
		return Play{}, fmt.Errorf("%w: no cards", ErrInvalidShape)
	}

	counts := rankCounts(cards)
	groups := groupsOf(counts)
	ordered := orderByGroup(cards, counts)
	n := len(cards)

	switch {
	case n == 1:
		return Play{Kind: Single, Cards: ordered, Anchor: groups[0].rank}, nil
	case n == 2 && counts[RankSmallJoker] == 1 && counts[RankBigJoker] == 1:
		return Play{Kind: Bomb, Cards: ordered, Anchor: RankBigJoker}, nil
	case n == 2 && hasShape(groups, 2):
		return Play{Kind: Pair, Cards: ordered, Anchor: groups[0].rank}, nil
	case n == 3 && hasShape(groups, 3):
		return Play{Kind: TripleSolo, Cards: ordered, Anchor: groups[0].rank}, nil
	case n == 4 && hasShape(groups, 4):
		return Play{Kind: Bomb, Cards: ordered, Anchor: groups[0].rank}, nil
	case n == 4 && hasShape(groups, 3, 1):
		return withKickers(TripleSingle, ordered, 3, groups[0].rank), nil
	case n == 5 && hasShape(groups, 3, 2):
		return withKickers(TripleDouble, ordered, 3, groups[0].rank), nil
	case n == 6 && hasShape(groups, 4, 1, 1):
		return withKickers(QuadTwoSingle, ordered, 4, groups[0].rank), nil
	case n == 8 && hasShape(groups, 4, 2, 2):
		return withKickers(QuadTwoPair, ordered, 4, groups[0].rank), nil
	}

	if isAirplane(n, groups) {
		return Play{Kind: Airplane, Cards: ordered, Anchor: groups[0].rank, Chain: len(groups)}, nil
	}
	if isSequence(n, groups) {
		return Play{Kind: Sequence, Cards: ordered, Anchor: groups[0].rank, Chain: n}, nil
	}

	return Play{}, fmt.Errorf("%w: %d cards in %d ranks", ErrInvalidShape, n, len(groups))
}

// hasShape reports whether the group counts, largest first, are exactly want.
func hasShape(groups []rankGroup, want ...int) bool {
	if len(groups) != len(want) {
		return false
	}
	for i, g := range groups {
		if g.count != want[i] {
			return false
		}
	}
	return true
}

func withKickers(kind PlayKind, ordered []Card, core int, anchor Rank) Play {
	return Play{
		Kind:    kind,
		Cards:   ordered,
		Kickers: append([]Card{}, ordered[core:]...),
		Anchor:  anchor,
	}
}

// isAirplane checks for two or more consecutive triples below rank 2.
func isAirplane(n int, groups []rankGroup) bool {
	if n < 6 || n%3 != 0 || len(groups) != n/3 {
		return false
	}
	ranks := make([]Rank, len(groups))
	for i, g := range groups {
		if g.count != 3 {
			return false
		}
		ranks[i] = g.rank
	}
	return consecutive(ranks)
}

// isSequence checks for five or more consecutive singles from 3 to A.
func isSequence(n int, groups []rankGroup) bool {
	if n < 5 || len(groups) != n {
		return false
	}
	ranks := make([]Rank, len(groups))
	for i, g := range groups {
		ranks[i] = g.rank
	}
	return consecutive(ranks)
}

// Target returns the play a new play must beat. There is no target when the
// trick history is empty or the last two players passed.
func Target(history []Play, passStreak int) (Play, bool) {
	if passStreak >= 2 || len(history) == 0 {
		return Play{}, false
	}
	return history[len(history)-1], true
}

// Validate decides whether candidate may be placed on the current trick and
// returns the new target on success.
func Validate(history []Play, passStreak int, candidate Play) (Play, error) {
	if candidate.Kind == Invalid {
		return Play{}, ErrInvalidShape
	}
	target, ok := Target(history, passStreak)
	if !ok {
		return candidate, nil
	}
	if err := CanBeat(target, candidate); err != nil {
		return Play{}, err
	}
	return candidate, nil
}

// CanBeat reports, as an error, why candidate cannot beat target. It returns
// nil when candidate beats target.
func CanBeat(target, candidate Play) error {
	switch {
	case candidate.IsBomb() && !target.IsBomb():
		return nil
	case candidate.IsBomb():
		if bombBeats(target, candidate) {
			return nil
		}
		return fmt.Errorf("%w: %s on %s", ErrDoesNotBeatTarget, candidate, target)
	case target.IsBomb():
		return fmt.Errorf("%w: %s on %s", ErrMustBeatWithBombOrHigher, candidate, target)
	}

	if candidate.Kind != target.Kind || candidate.Chain != target.Chain {
		return fmt.Errorf("%w: %s on %s", ErrShapeMismatch, candidate, target)
	}
	if candidate.Anchor <= target.Anchor {
		return fmt.Errorf("%w: %s on %s", ErrDoesNotBeatTarget, candidate, target)
	}
	return nil
}

// bombBeats compares two bombs: the rocket beats every quad, quads compare by
// rank. Only one rocket exists, so rocket against rocket never happens.
func bombBeats(target, candidate Play) bool {
	switch {
	case target.IsRocket():
		return false
	case candidate.IsRocket():
		return true
	default:
		return candidate.Anchor > target.Anchor
	}
}
