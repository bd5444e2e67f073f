package internal

import (
	"sort"

	"landlord/internal/domain"
)

// GetValidMoves returns all legal plays for a hand. Without a target every
// shape the hand can form is returned; otherwise only plays that beat target.
// Kickers are always the lowest cards of other ranks, so one play is produced
// per core group rather than one per kicker choice.
func GetValidMoves(hand []domain.Card, target domain.Play, hasTarget bool) []domain.Play {
	byRank := groupByRank(hand)
	ranks := sortedRanks(byRank)

	var candidates [][]domain.Card
	candidates = append(candidates, findSets(byRank, ranks, 1)...)
	candidates = append(candidates, findSets(byRank, ranks, 2)...)
	candidates = append(candidates, findSets(byRank, ranks, 3)...)
	candidates = append(candidates, findTriplesWithKickers(byRank, ranks)...)
	candidates = append(candidates, findChains(byRank, 1, 5)...)
	candidates = append(candidates, findChains(byRank, 3, 2)...)
	candidates = append(candidates, findQuadsWithKickers(byRank, ranks)...)
	candidates = append(candidates, findSets(byRank, ranks, 4)...)
	candidates = append(candidates, findRocket(byRank)...)

	moves := make([]domain.Play, 0, len(candidates))
	for _, cards := range candidates {
		play, err := domain.Classify(cards)
		if err != nil {
			continue
		}
		if hasTarget && domain.CanBeat(target, play) != nil {
			continue
		}
		moves = append(moves, play)
	}
	return moves
}

// BreaksBomb reports whether play spends part of a bomb held in hand without
// being that bomb.
func BreaksBomb(hand []domain.Card, play domain.Play) bool {
	byRank := groupByRank(hand)
	rocket := len(byRank[domain.RankSmallJoker]) == 1 && len(byRank[domain.RankBigJoker]) == 1

	for _, c := range play.Cards {
		switch {
		case len(byRank[c.Rank]) == 4 && !(play.IsBomb() && play.Anchor == c.Rank):
			return true
		case domain.IsJoker(c) && rocket && !play.IsRocket():
			return true
		}
	}
	return false
}

func groupByRank(hand []domain.Card) map[domain.Rank][]domain.Card {
	sorted := append([]domain.Card{}, hand...)
	domain.SortHand(sorted)

	byRank := make(map[domain.Rank][]domain.Card)
	for _, c := range sorted {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	return byRank
}

func sortedRanks(byRank map[domain.Rank][]domain.Card) []domain.Rank {
	ranks := make([]domain.Rank, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	return ranks
}

// findSets returns one group of size cards for every rank holding that many.
func findSets(byRank map[domain.Rank][]domain.Card, ranks []domain.Rank, size int) [][]domain.Card {
	var sets [][]domain.Card
	for _, r := range ranks {
		if len(byRank[r]) >= size {
			sets = append(sets, append([]domain.Card{}, byRank[r][:size]...))
		}
	}
	return sets
}

// lowestOther picks count groups of width cards from the lowest ranks other
// than core.
func lowestOther(byRank map[domain.Rank][]domain.Card, ranks []domain.Rank, core domain.Rank, width, count int) ([]domain.Card, bool) {
	var kickers []domain.Card
	picked := 0
	for _, r := range ranks {
		if picked == count {
			break
		}
		if r == core || len(byRank[r]) < width {
			continue
		}
		kickers = append(kickers, byRank[r][:width]...)
		picked++
	}
	return kickers, picked == count
}

func findTriplesWithKickers(byRank map[domain.Rank][]domain.Card, ranks []domain.Rank) [][]domain.Card {
	var out [][]domain.Card
	for _, r := range ranks {
		if len(byRank[r]) < 3 {
			continue
		}
		core := byRank[r][:3]
		for width := 1; width <= 2; width++ {
			if kickers, ok := lowestOther(byRank, ranks, r, width, 1); ok {
				out = append(out, concat(core, kickers))
			}
		}
	}
	return out
}

func findQuadsWithKickers(byRank map[domain.Rank][]domain.Card, ranks []domain.Rank) [][]domain.Card {
	var out [][]domain.Card
	for _, r := range ranks {
		if len(byRank[r]) < 4 {
			continue
		}
		core := byRank[r][:4]
		for width := 1; width <= 2; width++ {
			if kickers, ok := lowestOther(byRank, ranks, r, width, 2); ok {
				out = append(out, concat(core, kickers))
			}
		}
	}
	return out
}

// findChains returns every run of at least minLen consecutive chainable
// ranks, taking width cards from each rank.
func findChains(byRank map[domain.Rank][]domain.Card, width, minLen int) [][]domain.Card {
	var out [][]domain.Card
	for start := domain.Rank3; start.Chainable(); start++ {
		var cards []domain.Card
		for r := start; r.Chainable() && len(byRank[r]) >= width; r++ {
			cards = append(cards, byRank[r][:width]...)
			if int(r-start)+1 >= minLen {
				out = append(out, append([]domain.Card{}, cards...))
			}
		}
	}
	return out
}

func findRocket(byRank map[domain.Rank][]domain.Card) [][]domain.Card {
	small, big := byRank[domain.RankSmallJoker], byRank[domain.RankBigJoker]
	if len(small) == 0 || len(big) == 0 {
		return nil
	}
	return [][]domain.Card{{small[0], big[0]}}
}

func concat(a, b []domain.Card) []domain.Card {
	out := make([]domain.Card, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
