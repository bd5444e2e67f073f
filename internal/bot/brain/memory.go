package brain

import (
	"landlord/internal/app"
	"landlord/internal/domain"
)

// GameMemory stores what a bot has observed of the current round.
type GameMemory struct {
	// Played marks every card that has hit the table.
	Played map[domain.Card]bool
	// LandlordSeat is -1 until the landlord is announced.
	LandlordSeat int
	// LastPlaySeat is the seat that made the standing play, -1 when the
	// trick is empty.
	LastPlaySeat int
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	m := &GameMemory{}
	m.Reset()
	return m
}

// Reset clears the memory for a new round.
func (m *GameMemory) Reset() {
	m.Played = make(map[domain.Card]bool)
	m.LandlordSeat = -1
	m.LastPlaySeat = -1
}

// Observe updates the memory from an app event.
func (m *GameMemory) Observe(ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		m.Reset()
	case app.LandlordAssignedPayload:
		m.LandlordSeat = p.Seat
	case app.CardPlayedPayload:
		m.MarkPlayed(p.Cards)
		m.LastPlaySeat = p.Seat
	case app.TurnPassedPayload:
		if p.LeadRequired {
			m.LastPlaySeat = -1
		}
	}
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	for _, c := range cards {
		m.Played[c] = true
	}
}

// IsPartner reports whether seat plays on the same side as self. Sides are
// unknown until the landlord is announced.
func (m *GameMemory) IsPartner(self, seat int) bool {
	if m.LandlordSeat < 0 || self == seat {
		return false
	}
	return self != m.LandlordSeat && seat != m.LandlordSeat
}

// Unbeaten reports whether no card still hidden from this seat can top play
// without a bomb. Only singles, pairs and bare triples are judged; other
// kinds report false.
func (m *GameMemory) Unbeaten(hand []domain.Card, play domain.Play) bool {
	switch play.Kind {
	case domain.Single, domain.Pair, domain.TripleSolo:
	default:
		return false
	}

	seen := make(map[domain.Rank]int)
	for _, c := range hand {
		seen[c.Rank]++
	}
	for c := range m.Played {
		seen[c.Rank]++
	}
	for r := play.Anchor + 1; r <= domain.RankBigJoker; r++ {
		copies := 4
		if r == domain.RankSmallJoker || r == domain.RankBigJoker {
			copies = 1
		}
		if copies-seen[r] >= len(play.Cards) {
			return false
		}
	}
	return true
}
