package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"landlord/internal/app"
	"landlord/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ticketService signs the seat tickets handed out by quick match. It is set
// by InitModule.
var ticketService *app.TicketService

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	// Ticket must be passed as the "ticket" join metadata when tickets are enabled.
	Ticket string `json:"ticket,omitempty"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch)
}

func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}

	// Find a lobby of our game with a free seat.
	query := fmt.Sprintf("+label.game:%s +label.state:%s +label.open:>=1", GameLabel, labelStateLobby)

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := domain.PlayerCount - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	resp := QuickMatchResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
	} else {
		// Seat and owner assignment happens in MatchJoin.
		matchID, err := nk.MatchCreate(ctx, MatchNameLandlord, map[string]interface{}{})
		if err != nil {
			logger.Error("MatchCreate error: %v", err)
			return "", err
		}
		resp.MatchID, resp.IsNew = matchID, true
	}

	if ticketService.Enabled() {
		ticket, err := ticketService.Issue(userID, resp.MatchID)
		if err != nil {
			logger.Error("rpcQuickMatch [User:%s]: Failed to issue ticket: %v", userID, err)
			return "", runtime.NewError("Internal error", 13) // INTERNAL
		}
		resp.Ticket = ticket
	}

	logger.Info("rpcQuickMatch [User:%s]: match %s (new=%t)", userID, resp.MatchID, resp.IsNew)
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
