// Command selfplay seats three bots at a local table and plays seeded rounds
// through the app service, logging every action.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"landlord/internal/app"
	"landlord/internal/bot"
	"landlord/internal/config"
	"landlord/internal/domain"

	"github.com/lmittmann/tint"
)

// maxTurns bounds a round. Every three turns at least one card leaves a hand.
const maxTurns = 3 * domain.DeckSize

func main() {
	cfg, err := config.LoadSelfPlayConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: time.TimeOnly,
	})))

	if cfg.ConfigPath != "" {
		if err := config.LoadGameConfig(cfg.ConfigPath); err != nil {
			slog.Error("load game config", tint.Err(err))
			os.Exit(1)
		}
	}

	svc := app.NewService(rand.New(rand.NewSource(cfg.Seed)))
	landlordWins := 0
	for i := 0; i < cfg.Rounds; i++ {
		result, err := playRound(svc)
		if err != nil {
			slog.Error("round aborted", slog.Int("round", i+1), tint.Err(err))
			os.Exit(1)
		}
		if result.LandlordWon {
			landlordWins++
		}
		slog.Info("round finished",
			slog.Int("round", i+1),
			slog.Int("winner", result.WinnerSeat),
			slog.Int("landlord", result.LandlordSeat),
			slog.Bool("landlord_won", result.LandlordWon),
		)
	}
	slog.Info("self-play done",
		slog.Int64("seed", cfg.Seed),
		slog.Int("rounds", cfg.Rounds),
		slog.Int("landlord_wins", landlordWins),
	)
}

func playRound(svc *app.Service) (app.GameEndedPayload, error) {
	seats := make([]string, domain.PlayerCount)
	agents := make([]*bot.Agent, domain.PlayerCount)
	for i := range seats {
		seats[i] = bot.GetBotIdentity(i).UserID
		agent, err := bot.NewAgent(seats[i])
		if err != nil {
			return app.GameEndedPayload{}, err
		}
		agents[i] = agent
	}

	var result app.GameEndedPayload
	deliver := func(events []app.Event) {
		for _, ev := range events {
			for _, a := range agents {
				a.OnGameEvent(ev)
			}
			logEvent(ev)
			if p, ok := ev.Payload.(app.GameEndedPayload); ok {
				result = p
			}
		}
	}

	round, events, err := svc.StartGame(seats)
	if err != nil {
		return result, err
	}
	deliver(events)

	events, err = svc.AssignRandomLandlord(round)
	if err != nil {
		return result, err
	}
	deliver(events)

	for turn := 0; round.View().Phase != domain.PhaseFinished; turn++ {
		if turn >= maxTurns {
			return result, fmt.Errorf("round %s did not finish in %d turns", round.ID, maxTurns)
		}
		seat := round.View().CurrentTurn
		move, err := agents[seat].Play(round)
		if err != nil {
			return result, fmt.Errorf("seat %d: %w", seat, err)
		}
		if move.Pass {
			events, err = svc.PassTurn(round, seat)
		} else {
			events, err = svc.PlayCards(round, seat, move.Cards)
		}
		if err != nil {
			return result, fmt.Errorf("seat %d rejected %v: %w", seat, move.Cards, err)
		}
		deliver(events)
	}
	return result, nil
}

func logEvent(ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		slog.Debug("game started", slog.String("round_id", p.RoundID))
	case app.HandDealtPayload:
		slog.Debug("hand dealt", slog.Int("seat", p.Seat), slog.Any("hand", p.Hand))
	case app.LandlordAssignedPayload:
		slog.Info("landlord assigned", slog.Int("seat", p.Seat), slog.Any("kitty", p.Kitty))
	case app.CardPlayedPayload:
		slog.Info("play",
			slog.Int("seat", p.Seat),
			slog.String("kind", p.Kind.String()),
			slog.Any("cards", p.Cards),
			slog.Int("left", p.CardsRemaining),
		)
	case app.TurnPassedPayload:
		slog.Debug("pass", slog.Int("seat", p.Seat), slog.Bool("lead_required", p.LeadRequired))
	}
}
