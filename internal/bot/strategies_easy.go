package bot

import (
	"landlord/internal/app"
	botinternal "landlord/internal/bot/internal"
)

// EasyBot plays the first legal move it finds: the lowest single on a lead,
// otherwise the lowest play that beats the table, bombs included.
type EasyBot struct{}

func (b *EasyBot) CalculateMove(s Situation) (Move, error) {
	moves := botinternal.GetValidMoves(s.Hand, s.Target, s.HasTarget)
	if len(moves) == 0 {
		return Move{Pass: true}, nil
	}
	return Move{Cards: moves[0].Cards}, nil
}

func (b *EasyBot) OnEvent(app.Event) {}
