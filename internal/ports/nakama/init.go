package nakama

import (
	"context"
	"database/sql"

	"landlord/internal/bot"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := bot.LoadIdentities(BotIdentitiesPath); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else {
		bot.ProvisionBots(ctx, nk, logger)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	ticketService = ticketServiceFromEnv(env)
	if !ticketService.Enabled() {
		logger.Warn("InitModule: %s not set, seat tickets are disabled.", EnvTicketSecret)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}
	if err := initializer.RegisterMatch(MatchNameLandlord, NewMatch); err != nil {
		return err
	}

	logger.Info("Landlord Go module loaded.")
	return nil
}
