package bot

import (
	"landlord/internal/app"
	"landlord/internal/config"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// NewAgent builds the agent for a bot user id, picking its strategy from the
// identity's difficulty.
func NewAgent(userID string) (*Agent, error) {
	identity, _ := GetBotConfig(userID)
	strategy, err := NewBrain(ParseLevel(identity.Difficulty), TuningFromConfig(config.GetGameConfig()))
	if err != nil {
		return nil, err
	}
	return &Agent{ID: userID, Name: GetBotDisplayName(userID), Strategy: strategy}, nil
}

// Play asks the agent to calculate its move for the round it is seated at.
func (a *Agent) Play(round *app.Round) (Move, error) {
	seat, err := round.SeatOf(a.ID)
	if err != nil {
		return Move{Pass: true}, err
	}
	s, err := SituationAt(round, seat)
	if err != nil {
		return Move{Pass: true}, err
	}
	return a.Strategy.CalculateMove(s)
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(ev app.Event) {
	a.Strategy.OnEvent(ev)
}
