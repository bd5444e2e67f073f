package domain

import (
	"fmt"
	"math/rand"
)

// Phase represents the lifecycle stage of a landlord game.
type Phase string

const (
	// PhaseAwaitingLandlord is the state after the deal, before a landlord takes the kitty.
	PhaseAwaitingLandlord Phase = "awaiting_landlord"
	// PhasePlaying is the active game state where cards are played.
	PhasePlaying Phase = "playing"
	// PhaseFinished is the state after a player emptied their hand.
	PhaseFinished Phase = "finished"
)

// Game holds the authoritative state of one landlord round. It is not safe
// for concurrent use; callers serialize access.
type Game struct {
	hands       [PlayerCount][]Card
	kitty       []Card
	history     []Play
	currentTurn int
	passStreak  int
	landlord    int // -1 until assigned
	winner      int // -1 until someone goes out
	cardsPlayed int
}

// NewGame shuffles a fresh deck with rng and deals it.
func NewGame(rng *rand.Rand) *Game {
	hands, kitty := Deal(ShuffleDeck(NewDeck(), rng))
	return newGame(hands, kitty)
}

// NewGameFromDeal builds a game from an externally produced deal. The deal
// may be smaller than a full deck but must hold only deck cards, each once.
func NewGameFromDeal(hands [PlayerCount][]Card, kitty []Card) (*Game, error) {
	seen := make(map[Card]bool, DeckSize)
	check := func(cards []Card) error {
		for _, c := range cards {
			if !c.Valid() {
				return fmt.Errorf("%w: %s", ErrInvalidCard, c)
			}
			if seen[c] {
				return fmt.Errorf("%w: %s", ErrDuplicateCard, c)
			}
			seen[c] = true
		}
		return nil
	}
	for _, hand := range hands {
		if err := check(hand); err != nil {
			return nil, err
		}
	}
	if err := check(kitty); err != nil {
		return nil, err
	}

	var copied [PlayerCount][]Card
	for i, hand := range hands {
		copied[i] = append([]Card{}, hand...)
	}
	return newGame(copied, append([]Card{}, kitty...)), nil
}

func newGame(hands [PlayerCount][]Card, kitty []Card) *Game {
	return &Game{
		hands:    hands,
		kitty:    kitty,
		landlord: -1,
		winner:   -1,
	}
}

// Phase derives the lifecycle stage from the landlord and winner.
func (g *Game) Phase() Phase {
	switch {
	case g.winner >= 0:
		return PhaseFinished
	case g.landlord >= 0:
		return PhasePlaying
	default:
		return PhaseAwaitingLandlord
	}
}

// AssignLandlord hands the kitty to player and gives them the lead.
func (g *Game) AssignLandlord(player int) error {
	if !validPlayer(player) {
		return ErrInvalidPlayerIndex
	}
	if g.landlord >= 0 {
		return ErrLandlordAlreadyAssigned
	}
	if len(g.kitty) == 0 {
		return ErrEmptyKitty
	}

	g.hands[player] = append(g.hands[player], g.kitty...)
	g.kitty = nil
	g.currentTurn = player
	g.landlord = player
	return nil
}

// Play commits cards from player's hand as the next play of the trick. On
// any error the game is left untouched.
func (g *Game) Play(player int, cards []Card) error {
	if err := g.checkActor(player); err != nil {
		return err
	}
	if !HasCards(g.hands[player], cards) {
		return ErrCardsNotInHand
	}
	play, err := Classify(cards)
	if err != nil {
		return err
	}
	if _, err := Validate(g.history, g.passStreak, play); err != nil {
		return err
	}

	g.hands[player] = RemoveCards(g.hands[player], cards)
	g.history = append(g.history, play)
	g.cardsPlayed += len(play.Cards)
	g.passStreak = 0
	g.currentTurn = nextSeat(g.currentTurn)

	if len(g.hands[player]) == 0 {
		g.winner = player
	}
	return nil
}

// Pass skips player's turn. The third player after two passes must lead and
// cannot pass.
func (g *Game) Pass(player int) error {
	if err := g.checkActor(player); err != nil {
		return err
	}
	if g.passStreak >= 2 {
		return ErrCannotPassTwiceRunning
	}

	g.passStreak++
	g.currentTurn = nextSeat(g.currentTurn)
	return nil
}

func (g *Game) checkActor(player int) error {
	if g.winner >= 0 {
		return ErrGameAlreadyWon
	}
	if !validPlayer(player) {
		return ErrInvalidPlayerIndex
	}
	if g.landlord < 0 {
		return ErrLandlordNotAssigned
	}
	if player != g.currentTurn {
		return ErrNotPlayersTurn
	}
	return nil
}

// Hand returns a copy of player's hand.
func (g *Game) Hand(player int) ([]Card, error) {
	if !validPlayer(player) {
		return nil, ErrInvalidPlayerIndex
	}
	return append([]Card{}, g.hands[player]...), nil
}

// Kitty returns a copy of the undealt cards.
func (g *Game) Kitty() []Card {
	return append([]Card{}, g.kitty...)
}

// History returns a copy of the committed plays.
func (g *Game) History() []Play {
	out := make([]Play, len(g.history))
	for i, p := range g.history {
		p.Cards = append([]Card{}, p.Cards...)
		p.Kickers = append([]Card{}, p.Kickers...)
		out[i] = p
	}
	return out
}

// Target returns the play the current player must beat, if any.
func (g *Game) Target() (Play, bool) {
	return Target(g.history, g.passStreak)
}

// PassStreak returns the number of consecutive passes since the last play.
func (g *Game) PassStreak() int { return g.passStreak }

// CurrentTurn returns the seat expected to act next.
func (g *Game) CurrentTurn() int { return g.currentTurn }

// Landlord returns the landlord seat once assigned.
func (g *Game) Landlord() (int, bool) { return g.landlord, g.landlord >= 0 }

// Winner returns the seat that emptied their hand, if any.
func (g *Game) Winner() (int, bool) { return g.winner, g.winner >= 0 }

// CardsPlayed returns the number of cards committed to the trick history.
func (g *Game) CardsPlayed() int { return g.cardsPlayed }

func validPlayer(player int) bool {
	return player >= 0 && player < PlayerCount
}

func nextSeat(seat int) int {
	return (seat + 1) % PlayerCount
}
