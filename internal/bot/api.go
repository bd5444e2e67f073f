package bot

import (
	"landlord/internal/app"
	"landlord/internal/domain"
)

// Move represents the decision made by the AI.
type Move struct {
	Pass  bool
	Cards []domain.Card
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	CalculateMove(s Situation) (Move, error)
	OnEvent(ev app.Event)
}

// Situation is what a seat can see when it is asked to act.
type Situation struct {
	Seat         int
	Hand         []domain.Card
	Target       domain.Play
	HasTarget    bool
	PassStreak   int
	HandSizes    [domain.PlayerCount]int
	LandlordSeat int
}

// SituationAt captures the round as seen from seat.
func SituationAt(round *app.Round, seat int) (Situation, error) {
	hand, err := round.Hand(seat)
	if err != nil {
		return Situation{}, err
	}
	view := round.View()
	return Situation{
		Seat:         seat,
		Hand:         hand,
		Target:       view.Target,
		HasTarget:    view.HasTarget,
		PassStreak:   view.PassStreak,
		HandSizes:    view.HandSizes,
		LandlordSeat: view.LandlordSeat,
	}, nil
}

// CanPass reports whether the seat may pass instead of playing.
func (s Situation) CanPass() bool {
	return s.PassStreak < 2
}

// opponent reports whether seat plays against s.Seat.
func (s Situation) opponent(seat int) bool {
	if seat == s.Seat {
		return false
	}
	if s.LandlordSeat < 0 {
		return true
	}
	return s.Seat == s.LandlordSeat || seat == s.LandlordSeat
}

// TimeoutMove is played for a seat whose turn clock ran out: a pass when
// allowed, otherwise the lowest card as a single.
func TimeoutMove(s Situation) Move {
	if s.CanPass() || len(s.Hand) == 0 {
		return Move{Pass: true}
	}
	hand := append([]domain.Card{}, s.Hand...)
	domain.SortHand(hand)
	return Move{Cards: hand[:1]}
}
