package domain

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// HasCards reports whether hand holds every card in cards. A card requested
// twice must be held twice, so duplicates in the request never pass.
func HasCards(hand []Card, cards []Card) bool {
	held := make(map[Card]int, len(hand))
	for _, card := range hand {
		held[card]++
	}
	for _, card := range cards {
		if held[card] == 0 {
			return false
		}
		held[card]--
	}
	return true
}

// rankCounts groups cards by rank.
func rankCounts(cards []Card) map[Rank]int {
	counts := make(map[Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}
	return counts
}

// consecutive reports whether ranks, sorted ascending, form an unbroken run
// of chainable ranks.
func consecutive(ranks []Rank) bool {
	for i, r := range ranks {
		if !r.Chainable() {
			return false
		}
		if i > 0 && r != ranks[i-1]+1 {
			return false
		}
	}
	return true
}
