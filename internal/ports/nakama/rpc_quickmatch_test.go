package nakama

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"landlord/internal/app"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// mockNakama overrides the match registry calls quick match makes.
type mockNakama struct {
	runtime.NakamaModule
	matches   []*api.Match
	lastQuery string
	created   int
}

func (m *mockNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	m.lastQuery = query
	return m.matches, nil
}

func (m *mockNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	m.created++
	return "created-" + module, nil
}

func userContext(userID string) context.Context {
	return context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID)
}

func quickMatch(t *testing.T, nk runtime.NakamaModule, userID string) QuickMatchResponse {
	t.Helper()
	out, err := rpcQuickMatch(userContext(userID), noopLogger{}, nil, nk, "")
	if err != nil {
		t.Fatalf("rpcQuickMatch() error: %v", err)
	}
	var resp QuickMatchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", out, err)
	}
	return resp
}

func TestRpcQuickMatch_JoinsOpenLobby(t *testing.T) {
	nk := &mockNakama{matches: []*api.Match{{MatchId: "lobby-1"}, {MatchId: "lobby-2"}}}

	resp := quickMatch(t, nk, "user-1")
	if resp.MatchID != "lobby-1" || resp.IsNew {
		t.Fatalf("response = %+v, want existing lobby-1", resp)
	}
	if nk.created != 0 {
		t.Fatalf("MatchCreate called %d times", nk.created)
	}
	for _, term := range []string{"+label.game:" + GameLabel, "+label.state:" + labelStateLobby, "+label.open:>=1"} {
		if !strings.Contains(nk.lastQuery, term) {
			t.Fatalf("query %q missing %q", nk.lastQuery, term)
		}
	}
	if resp.Ticket != "" {
		t.Fatalf("ticket issued with tickets disabled")
	}
}

func TestRpcQuickMatch_CreatesMatch(t *testing.T) {
	nk := &mockNakama{}

	resp := quickMatch(t, nk, "user-1")
	if !resp.IsNew || resp.MatchID != "created-"+MatchNameLandlord {
		t.Fatalf("response = %+v, want new match", resp)
	}
}

func TestRpcQuickMatch_IssuesTicket(t *testing.T) {
	prev := ticketService
	ticketService = app.NewTicketService("secret", GameLabel, 0)
	t.Cleanup(func() { ticketService = prev })

	resp := quickMatch(t, &mockNakama{matches: []*api.Match{{MatchId: "lobby-1"}}}, "user-1")
	if resp.Ticket == "" {
		t.Fatal("expected a ticket")
	}
	if err := ticketService.Verify(resp.Ticket, "user-1", "lobby-1"); err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
}

func TestRpcQuickMatch_RequiresUser(t *testing.T) {
	if _, err := rpcQuickMatch(context.Background(), noopLogger{}, nil, &mockNakama{}, ""); err == nil {
		t.Fatal("expected error without a user id")
	}
}
