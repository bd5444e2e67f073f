package app

import "landlord/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventGameStarted      EventKind = "game_started"
	EventHandDealt        EventKind = "hand_dealt"
	EventLandlordAssigned EventKind = "landlord_assigned"
	EventCardPlayed       EventKind = "card_played"
	EventTurnPassed       EventKind = "turn_passed"
	EventGameEnded        EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	RoundID string
	Phase   domain.Phase
	Seats   [domain.PlayerCount]string
}

type HandDealtPayload struct {
	Seat int
	Hand []domain.Card
}

type LandlordAssignedPayload struct {
	Seat  int
	Kitty []domain.Card
}

type CardPlayedPayload struct {
	Seat           int
	Kind           domain.PlayKind
	Cards          []domain.Card
	CardsRemaining int
	NextTurnSeat   int
}

type TurnPassedPayload struct {
	Seat         int
	NextTurnSeat int
	// LeadRequired is set when the next seat holds a free lead and may not pass.
	LeadRequired bool
}

type GameEndedPayload struct {
	WinnerSeat   int
	LandlordSeat int
	LandlordWon  bool
}
