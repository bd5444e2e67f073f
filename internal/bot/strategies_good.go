package bot

import (
	"sort"

	"landlord/internal/app"
	"landlord/internal/bot/brain"
	botinternal "landlord/internal/bot/internal"
	"landlord/internal/domain"
)

// GoodBot plays the cheapest legal move. It keeps bombs for when an opponent
// is close to going out and lets its partner's plays stand.
type GoodBot struct {
	Tuning Tuning
	Memory *brain.GameMemory
}

// NewGoodBot returns a GoodBot with fresh memory.
func NewGoodBot(tuning Tuning) *GoodBot {
	return &GoodBot{Tuning: tuning, Memory: brain.NewMemory()}
}

func (b *GoodBot) CalculateMove(s Situation) (Move, error) {
	if len(s.Hand) == 0 {
		return Move{Pass: true}, nil
	}

	moves := botinternal.GetValidMoves(s.Hand, s.Target, s.HasTarget)
	if len(moves) == 0 {
		return Move{Pass: true}, nil
	}

	// Going out beats any saving.
	for _, m := range moves {
		if len(m.Cards) == len(s.Hand) {
			return Move{Cards: m.Cards}, nil
		}
	}

	sortByCost(s.Hand, moves, !s.HasTarget)
	threat := b.underThreat(s)
	if !s.HasTarget {
		if threat {
			if m, ok := b.safeLead(s.Hand, moves); ok {
				return Move{Cards: m.Cards}, nil
			}
		}
		return Move{Cards: moves[0].Cards}, nil
	}

	if !threat && b.Memory != nil && b.Memory.IsPartner(s.Seat, b.Memory.LastPlaySeat) {
		return Move{Pass: true}, nil
	}

	best := moves[0]
	if !threat && cost(s.Hand, best) > 0 {
		return Move{Pass: true}, nil
	}
	return Move{Cards: best.Cards}, nil
}

func (b *GoodBot) OnEvent(ev app.Event) {
	if b.Memory != nil {
		b.Memory.Observe(ev)
	}
}

// safeLead picks the cheapest lead that no unseen card can top, so an
// opponent close to going out cannot take the trick without a bomb.
func (b *GoodBot) safeLead(hand []domain.Card, moves []domain.Play) (domain.Play, bool) {
	if b.Memory == nil {
		return domain.Play{}, false
	}
	for _, m := range moves {
		if cost(hand, m) == 0 && b.Memory.Unbeaten(hand, m) {
			return m, true
		}
	}
	return domain.Play{}, false
}

func (b *GoodBot) underThreat(s Situation) bool {
	if b.Tuning.ThreatThreshold <= 0 {
		return false
	}
	for seat, size := range s.HandSizes {
		if s.opponent(seat) && size > 0 && size <= b.Tuning.ThreatThreshold {
			return true
		}
	}
	return false
}

// cost ranks how much of the hand's strength a play spends: 0 for ordinary
// plays, then plays that break a bomb, quad bombs and finally the rocket.
func cost(hand []domain.Card, play domain.Play) int {
	switch {
	case play.IsRocket():
		return 3
	case play.IsBomb():
		return 2
	case botinternal.BreaksBomb(hand, play):
		return 1
	default:
		return 0
	}
}

// sortByCost orders moves cheapest first. Leads prefer shedding more cards
// at the same anchor.
func sortByCost(hand []domain.Card, moves []domain.Play, lead bool) {
	type keyedPlay struct {
		play domain.Play
		cost int
	}
	keyed := make([]keyedPlay, len(moves))
	for i, m := range moves {
		keyed[i] = keyedPlay{play: m, cost: cost(hand, m)}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i], keyed[j]
		if a.cost != b.cost {
			return a.cost < b.cost
		}
		if a.play.Anchor != b.play.Anchor {
			return a.play.Anchor < b.play.Anchor
		}
		if lead {
			return len(a.play.Cards) > len(b.play.Cards)
		}
		return len(a.play.Cards) < len(b.play.Cards)
	})
	for i := range keyed {
		moves[i] = keyed[i].play
	}
}
