package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"landlord/internal/domain"

	uuid "github.com/satori/go.uuid"
)

// Service contains landlord use-cases operating on domain state.
type Service struct {
	rng *rand.Rand
}

// NewService constructs a Service with provided rng or a time-seeded default.
func NewService(rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{rng: rng}
}

var (
	ErrNotPlaying    = errors.New("round not in progress")
	ErrTooFewPlayers = errors.New("not enough players to start")
	ErrUnknownPlayer = errors.New("player not found")
)

// Round binds a domain game to the users seated at it. All access to the game
// goes through the round lock.
type Round struct {
	ID    string
	Seats [domain.PlayerCount]string

	mu   sync.Mutex
	game *domain.Game
}

// NewRound wraps an existing game, for example one built from a fixed deal.
func NewRound(id string, seats [domain.PlayerCount]string, game *domain.Game) *Round {
	return &Round{ID: id, Seats: seats, game: game}
}

// SeatOf returns the seat index of userID.
func (r *Round) SeatOf(userID string) (int, error) {
	for i, id := range r.Seats {
		if id != "" && id == userID {
			return i, nil
		}
	}
	return -1, ErrUnknownPlayer
}

// RoundView is a read-only snapshot of a round.
type RoundView struct {
	Phase        domain.Phase
	CurrentTurn  int
	PassStreak   int
	Target       domain.Play
	HasTarget    bool
	LandlordSeat int // -1 until assigned
	WinnerSeat   int // -1 until someone goes out
	HandSizes    [domain.PlayerCount]int
	KittySize    int
}

// View returns a snapshot of the round.
func (r *Round) View() RoundView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := RoundView{
		Phase:        r.game.Phase(),
		CurrentTurn:  r.game.CurrentTurn(),
		PassStreak:   r.game.PassStreak(),
		LandlordSeat: -1,
		WinnerSeat:   -1,
		KittySize:    len(r.game.Kitty()),
	}
	v.Target, v.HasTarget = r.game.Target()
	if seat, ok := r.game.Landlord(); ok {
		v.LandlordSeat = seat
	}
	if seat, ok := r.game.Winner(); ok {
		v.WinnerSeat = seat
	}
	for i := range v.HandSizes {
		hand, _ := r.game.Hand(i)
		v.HandSizes[i] = len(hand)
	}
	return v
}

// Hand returns a copy of the hand held at seat.
func (r *Round) Hand(seat int) ([]domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Hand(seat)
}

// StartGame deals a new round to the users in seat order.
func (s *Service) StartGame(seats []string) (*Round, []Event, error) {
	if len(seats) != domain.PlayerCount {
		return nil, nil, ErrTooFewPlayers
	}
	round := &Round{ID: uuid.NewV4().String()}
	for i, userID := range seats {
		if userID == "" {
			return nil, nil, ErrTooFewPlayers
		}
		round.Seats[i] = userID
	}
	round.game = domain.NewGame(s.rng)

	events := make([]Event, 0, domain.PlayerCount+1)
	for seat, userID := range round.Seats {
		hand, _ := round.game.Hand(seat)
		domain.SortHand(hand)
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{Seat: seat, Hand: hand},
			Recipients: []string{userID},
		})
	}
	events = append(events, Event{
		Kind: EventGameStarted,
		Payload: GameStartedPayload{
			RoundID: round.ID,
			Phase:   round.game.Phase(),
			Seats:   round.Seats,
		},
	})
	return round, events, nil
}

// ClaimLandlord makes seat the landlord and reveals the kitty.
func (s *Service) ClaimLandlord(round *Round, seat int) ([]Event, error) {
	if round == nil || round.game == nil {
		return nil, ErrNotPlaying
	}
	round.mu.Lock()
	defer round.mu.Unlock()

	kitty := round.game.Kitty()
	if err := round.game.AssignLandlord(seat); err != nil {
		return nil, err
	}
	return []Event{{
		Kind:    EventLandlordAssigned,
		Payload: LandlordAssignedPayload{Seat: seat, Kitty: kitty},
	}}, nil
}

// AssignRandomLandlord picks the landlord with the service rng. It is used
// when no seat claims the kitty in time.
func (s *Service) AssignRandomLandlord(round *Round) ([]Event, error) {
	return s.ClaimLandlord(round, s.rng.Intn(domain.PlayerCount))
}

// PlayCards processes a play action and emits resulting events.
func (s *Service) PlayCards(round *Round, seat int, cards []domain.Card) ([]Event, error) {
	if round == nil || round.game == nil {
		return nil, ErrNotPlaying
	}
	round.mu.Lock()
	defer round.mu.Unlock()

	game := round.game
	if err := game.Play(seat, cards); err != nil {
		return nil, err
	}

	history := game.History()
	play := history[len(history)-1]
	hand, _ := game.Hand(seat)
	events := []Event{{
		Kind: EventCardPlayed,
		Payload: CardPlayedPayload{
			Seat:           seat,
			Kind:           play.Kind,
			Cards:          play.Cards,
			CardsRemaining: len(hand),
			NextTurnSeat:   game.CurrentTurn(),
		},
	}}

	if winner, ok := game.Winner(); ok {
		landlord, _ := game.Landlord()
		events = append(events, Event{
			Kind: EventGameEnded,
			Payload: GameEndedPayload{
				WinnerSeat:   winner,
				LandlordSeat: landlord,
				LandlordWon:  winner == landlord,
			},
		})
	}
	return events, nil
}

// PassTurn processes a pass action.
func (s *Service) PassTurn(round *Round, seat int) ([]Event, error) {
	if round == nil || round.game == nil {
		return nil, ErrNotPlaying
	}
	round.mu.Lock()
	defer round.mu.Unlock()

	game := round.game
	if err := game.Pass(seat); err != nil {
		return nil, err
	}
	return []Event{{
		Kind: EventTurnPassed,
		Payload: TurnPassedPayload{
			Seat:         seat,
			NextTurnSeat: game.CurrentTurn(),
			LeadRequired: game.PassStreak() == 2,
		},
	}}, nil
}
