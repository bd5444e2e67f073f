package nakama

import (
	"context"
	"math/rand"
	"testing"

	"landlord/internal/app"
	"landlord/internal/bot"
	"landlord/internal/config"
	"landlord/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/structpb"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{
		opCode:    opCode,
		data:      append([]byte(nil), data...),
		presences: presences,
	})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

// withOp returns the recorded messages carrying opCode.
func (md *mockDispatcher) withOp(opCode int64) []sentMessage {
	var out []sentMessage
	for _, m := range md.messages {
		if m.opCode == opCode {
			out = append(out, m)
		}
	}
	return out
}

// mockPresence overrides the presence fields the handler reads. Other
// methods panic through the nil embedded interface.
type mockPresence struct {
	runtime.Presence
	userID string
}

func (p mockPresence) GetUserId() string   { return p.userID }
func (p mockPresence) GetUsername() string { return "name-" + p.userID }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m mockMatchData) GetOpCode() int64      { return m.opCode }
func (m mockMatchData) GetData() []byte       { return m.data }
func (m mockMatchData) GetReliable() bool     { return true }
func (m mockMatchData) GetReceiveTime() int64 { return 0 }

func message(userID string, opCode int64, data string) runtime.MatchData {
	return mockMatchData{mockPresence: mockPresence{userID: userID}, opCode: opCode, data: []byte(data)}
}

var quickConfig = config.GameConfig{
	TurnDurationSeconds:     1,
	LandlordClaimSeconds:    3,
	BotAutoFillDelaySeconds: 2,
	BotMinDelaySeconds:      0,
	BotMaxDelaySeconds:      0,
	BotThreatThreshold:      4,
}

func newTestState(seed int64) *MatchState {
	state := newMatchState(quickConfig)
	state.App = app.NewService(rand.New(rand.NewSource(seed)))
	state.rng = rand.New(rand.NewSource(seed))
	return state
}

func join(t *testing.T, mh *matchHandler, state *MatchState, dispatcher *mockDispatcher, users ...string) {
	t.Helper()
	presences := make([]runtime.Presence, len(users))
	for i, u := range users {
		presences[i] = mockPresence{userID: u}
		_, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick, state, presences[i], nil)
		if !ok {
			t.Fatalf("join attempt for %s rejected: %s", u, reason)
		}
	}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, state.Tick, state, presences)
}

func loop(mh *matchHandler, state *MatchState, dispatcher *mockDispatcher, tick int64, messages ...runtime.MatchData) interface{} {
	return mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, tick, state, messages)
}

func decoded(t *testing.T, data []byte) map[string]*structpb.Value {
	t.Helper()
	msg, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("decodeMessage() error: %v", err)
	}
	return msg.GetFields()
}

func TestFindFirstHumanSeat(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	bot2 := bot.GetBotIdentity(1).UserID

	tests := []struct {
		name  string
		seats []string
		want  int
	}{
		{name: "FirstHumanAfterBot", seats: []string{bot1, "user-1", ""}, want: 1},
		{name: "AllBots", seats: []string{bot1, bot2, ""}, want: -1},
		{name: "AllEmpty", seats: []string{"", "", ""}, want: -1},
		{name: "FirstHumanIsSeatZero", seats: []string{"user-1", bot1, "user-2"}, want: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := findFirstHumanSeat(test.seats); got != test.want {
				t.Fatalf("findFirstHumanSeat() = %d, want %d", got, test.want)
			}
		})
	}
}

func TestShouldTerminateNoHumans(t *testing.T) {
	bot1 := bot.GetBotIdentity(0).UserID
	connected := map[string]runtime.Presence{"user-1": mockPresence{userID: "user-1"}}

	tests := []struct {
		name  string
		seats []string
		want  bool
	}{
		{name: "BotsOnly", seats: []string{bot1, bot.GetBotIdentity(1).UserID, bot.GetBotIdentity(2).UserID}, want: true},
		{name: "HumanConnected", seats: []string{bot1, "user-1", ""}, want: false},
		{name: "HumanDisconnected", seats: []string{bot1, "user-2", ""}, want: true},
		{name: "AllEmpty", seats: []string{"", "", ""}, want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := shouldTerminateNoHumans(test.seats, connected); got != test.want {
				t.Fatalf("shouldTerminateNoHumans() = %t, want %t", got, test.want)
			}
		})
	}
}

func TestMatchJoin_SeatsPlayersAndOwner(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(1)

	join(t, mh, state, dispatcher, "user-1", "user-2")

	if state.Seats != [domain.PlayerCount]string{"user-1", "user-2", ""} {
		t.Fatalf("seats = %v", state.Seats)
	}
	if state.OwnerSeat != 0 {
		t.Fatalf("OwnerSeat = %d, want 0", state.OwnerSeat)
	}
	if dispatcher.labelUpdates == 0 || len(dispatcher.withOp(OpMatchState)) == 0 {
		t.Fatalf("expected label update and match state broadcast")
	}

	join(t, mh, state, dispatcher, "user-3")
	_, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 0, state, mockPresence{userID: "user-4"}, nil)
	if ok {
		t.Fatal("fourth human admitted to a full table")
	}
}

func TestMatchJoinAttempt_Tickets(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState(1)
	state.Tickets = app.NewTicketService("secret", GameLabel, 0)

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "match-1")
	ticket, err := state.Tickets.Issue("user-1", "match-1")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	otherMatch, err := state.Tickets.Issue("user-1", "match-2")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name     string
		metadata map[string]string
		want     bool
	}{
		{name: "valid", metadata: map[string]string{"ticket": ticket}, want: true},
		{name: "missing", metadata: nil, want: false},
		{name: "other match", metadata: map[string]string{"ticket": otherMatch}, want: false},
		{name: "garbage", metadata: map[string]string{"ticket": "not-a-jwt"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, &mockDispatcher{}, 0, state, mockPresence{userID: "user-1"}, tt.metadata)
			if ok != tt.want {
				t.Fatalf("MatchJoinAttempt() = %t, want %t", ok, tt.want)
			}
		})
	}
}

func TestMatchJoinAttempt_SeatedRejoinSkipsTicket(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(3)
	join(t, mh, state, dispatcher, "user-1", "user-2", "user-3")
	loop(mh, state, dispatcher, 1, message("user-1", OpStartGame, ""))
	if state.Round == nil {
		t.Fatal("round did not start")
	}

	mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.Presence{mockPresence{userID: "user-2"}})
	state.Tickets = app.NewTicketService("secret", GameLabel, 0)

	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_MATCH_ID, "match-1")
	_, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, mockPresence{userID: "user-2"}, nil)
	if !ok {
		t.Fatalf("seated player rejected on rejoin without ticket: %s", reason)
	}

	_, ok, _ = mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, mockPresence{userID: "user-4"}, nil)
	if ok {
		t.Fatal("unseated player admitted without ticket")
	}
}

func TestProcessBots_FillsOpenSeats(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(1)
	state.Seats = [domain.PlayerCount]string{"user-1", "", ""}
	state.AutoFillAt = 8
	state.Tick = 10

	mh.processBots(state, dispatcher, noopLogger{})

	botCount := 0
	for _, seat := range state.Seats {
		if isBotUserId(seat) {
			botCount++
		}
	}
	if botCount != 2 {
		t.Fatalf("Expected 2 bots, got %d", botCount)
	}
	if state.GetOpenSeatsCount() != 0 {
		t.Fatalf("Expected no open seat after auto-fill, got %d", state.GetOpenSeatsCount())
	}
	if state.AutoFillAt != noDeadline {
		t.Fatalf("Expected auto-fill timer reset, got %d", state.AutoFillAt)
	}
	if len(state.Bots) != 2 {
		t.Fatalf("Expected 2 agents, got %d", len(state.Bots))
	}
	if len(dispatcher.withOp(OpMatchState)) == 0 || dispatcher.labelUpdates == 0 {
		t.Fatalf("Expected match state broadcast and label update after auto-fill")
	}
}

func TestProcessBots_WaitsForDelay(t *testing.T) {
	mh := &matchHandler{}
	state := newTestState(1)
	state.Seats = [domain.PlayerCount]string{"user-1", "", ""}
	state.Tick = 10

	mh.processBots(state, &mockDispatcher{}, noopLogger{})
	if state.GetOpenSeatsCount() != 2 {
		t.Fatalf("bots joined before the auto-fill delay")
	}
	if state.AutoFillAt != 10+int64(quickConfig.BotAutoFillDelaySeconds) {
		t.Fatalf("AutoFillAt = %d", state.AutoFillAt)
	}
}

func TestStartGame_DealsPrivatelyAndClaims(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(3)
	join(t, mh, state, dispatcher, "user-1", "user-2", "user-3")

	// Only the owner may start.
	loop(mh, state, dispatcher, 1, message("user-2", OpStartGame, ""))
	if state.Round != nil {
		t.Fatal("non-owner started the game")
	}
	if len(dispatcher.withOp(OpGameError)) != 1 {
		t.Fatalf("expected an error for the non-owner")
	}

	loop(mh, state, dispatcher, 2, message("user-1", OpStartGame, ""))
	if state.Round == nil {
		t.Fatal("round not started")
	}
	hands := dispatcher.withOp(OpHandDealt)
	if len(hands) != domain.PlayerCount {
		t.Fatalf("HandDealt messages = %d, want %d", len(hands), domain.PlayerCount)
	}
	for _, m := range hands {
		if len(m.presences) != 1 {
			t.Fatalf("hand sent to %d presences, want exactly one", len(m.presences))
		}
		fields := decoded(t, m.data)
		seat := int(fields["seat"].GetNumberValue())
		if m.presences[0].GetUserId() != state.Seats[seat] {
			t.Fatalf("hand of seat %d sent to %s", seat, m.presences[0].GetUserId())
		}
		if n := len(fields["hand"].GetListValue().GetValues()); n != domain.HandSize {
			t.Fatalf("hand size = %d, want %d", n, domain.HandSize)
		}
	}
	if len(dispatcher.withOp(OpGameStarted)) != 1 {
		t.Fatal("GameStarted not broadcast")
	}
	if state.ClaimUntil != 2+int64(quickConfig.LandlordClaimSeconds) {
		t.Fatalf("ClaimUntil = %d", state.ClaimUntil)
	}

	loop(mh, state, dispatcher, 3, message("user-2", OpClaimLandlord, ""))
	assigned := dispatcher.withOp(OpLandlordAssigned)
	if len(assigned) != 1 {
		t.Fatalf("LandlordAssigned messages = %d, want 1", len(assigned))
	}
	fields := decoded(t, assigned[0].data)
	if seat := int(fields["seat"].GetNumberValue()); seat != 1 {
		t.Fatalf("landlord seat = %d, want 1", seat)
	}
	if n := len(fields["kitty"].GetListValue().GetValues()); n != domain.KittySize {
		t.Fatalf("kitty size = %d, want %d", n, domain.KittySize)
	}
	if state.ClaimUntil != noDeadline {
		t.Fatal("claim deadline still running after a claim")
	}

	// A second claim is rejected.
	loop(mh, state, dispatcher, 3, message("user-3", OpClaimLandlord, ""))
	if len(dispatcher.withOp(OpGameError)) != 2 {
		t.Fatalf("expected an error for the late claim")
	}
}

func TestPlayCards_ValidatesSenderAndPayload(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(5)
	state.Config.TurnDurationSeconds = 30
	join(t, mh, state, dispatcher, "user-1", "user-2", "user-3")
	loop(mh, state, dispatcher, 1, message("user-1", OpStartGame, ""))
	loop(mh, state, dispatcher, 1, message("user-1", OpClaimLandlord, ""))

	hand, err := state.Round.Hand(0)
	if err != nil {
		t.Fatalf("Hand() error: %v", err)
	}
	card := hand[0]
	payload, err := encodeMessage(map[string]interface{}{"cards": cardsToValues([]domain.Card{card})})
	if err != nil {
		t.Fatalf("encodeMessage() error: %v", err)
	}

	errorsBefore := len(dispatcher.withOp(OpGameError))
	loop(mh, state, dispatcher, 2, message("user-2", OpPlayCards, string(payload)))
	loop(mh, state, dispatcher, 2, message("user-1", OpPlayCards, `{"cards": [{"rank": 99, "suit": 0}]}`))
	loop(mh, state, dispatcher, 2, message("user-1", OpPlayCards, `not json`))
	if got := len(dispatcher.withOp(OpGameError)) - errorsBefore; got != 3 {
		t.Fatalf("GameError messages = %d, want 3", got)
	}
	if len(dispatcher.withOp(OpCardPlayed)) != 0 {
		t.Fatal("rejected plays must not be broadcast")
	}

	loop(mh, state, dispatcher, 2, message("user-1", OpPlayCards, string(payload)))
	played := dispatcher.withOp(OpCardPlayed)
	if len(played) != 1 {
		t.Fatalf("CardPlayed messages = %d, want 1", len(played))
	}
	fields := decoded(t, played[0].data)
	if fields["kind"].GetStringValue() != domain.Single.String() {
		t.Fatalf("kind = %q", fields["kind"].GetStringValue())
	}
	if next := int(fields["next_turn_seat"].GetNumberValue()); next != 1 {
		t.Fatalf("next_turn_seat = %d, want 1", next)
	}
	if state.TurnUntil != 2+int64(state.Config.TurnDurationSeconds) {
		t.Fatalf("TurnUntil = %d", state.TurnUntil)
	}

	loop(mh, state, dispatcher, 2, message("user-2", OpPassTurn, ""))
	if len(dispatcher.withOp(OpTurnPassed)) != 1 {
		t.Fatal("pass not broadcast")
	}
}

func TestTimers_DrawLandlordAndAutoPlay(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(7)
	join(t, mh, state, dispatcher, "user-1", "user-2", "user-3")
	loop(mh, state, dispatcher, 1, message("user-1", OpStartGame, ""))

	loop(mh, state, dispatcher, 2)
	if len(dispatcher.withOp(OpLandlordAssigned)) != 0 {
		t.Fatal("landlord drawn before the claim deadline")
	}
	loop(mh, state, dispatcher, 4)
	if len(dispatcher.withOp(OpLandlordAssigned)) != 1 {
		t.Fatal("landlord not drawn after the claim deadline")
	}

	// The landlord may pass on the empty table, so the turn clock passes.
	loop(mh, state, dispatcher, 5)
	if len(dispatcher.withOp(OpTurnPassed)) != 1 {
		t.Fatalf("TurnPassed messages = %d, want 1", len(dispatcher.withOp(OpTurnPassed)))
	}
	loop(mh, state, dispatcher, 6)
	loop(mh, state, dispatcher, 7)
	// Two passes leave the third seat a forced lead, so the clock plays.
	if len(dispatcher.withOp(OpCardPlayed)) != 1 {
		t.Fatalf("CardPlayed messages = %d, want 1", len(dispatcher.withOp(OpCardPlayed)))
	}
}

func TestMatchLoop_BotsFinishRound(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(11)
	state.BotsEnabled = true
	join(t, mh, state, dispatcher, "user-1")

	tick := int64(1)
	for ; state.GetOpenSeatsCount() > 0 && tick < 10; tick++ {
		loop(mh, state, dispatcher, tick)
	}
	if state.GetOpenSeatsCount() != 0 {
		t.Fatal("bots did not fill the table")
	}

	loop(mh, state, dispatcher, tick, message("user-1", OpStartGame, ""))
	for limit := tick + 2000; state.Round != nil && tick < limit; tick++ {
		loop(mh, state, dispatcher, tick)
	}
	if state.Round != nil {
		t.Fatal("round did not finish")
	}

	ended := dispatcher.withOp(OpGameEnded)
	if len(ended) != 1 {
		t.Fatalf("GameEnded messages = %d, want 1", len(ended))
	}
	fields := decoded(t, ended[0].data)
	winner := int(fields["winner_seat"].GetNumberValue())
	landlord := int(fields["landlord_seat"].GetNumberValue())
	if fields["landlord_won"].GetBoolValue() != (winner == landlord) {
		t.Fatalf("landlord_won inconsistent: %v", fields)
	}
	if dispatcher.lastLabel == "" {
		t.Fatal("label never updated")
	}
}

func TestMatchLeave_TerminatesWithoutHumans(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(1)
	join(t, mh, state, dispatcher, "user-1", "user-2")

	got := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{mockPresence{userID: "user-1"}})
	if got == nil {
		t.Fatal("match terminated while a human is still connected")
	}
	if state.Seats[0] != "" || state.OwnerSeat != 1 {
		t.Fatalf("seats = %v owner = %d", state.Seats, state.OwnerSeat)
	}

	got = mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.Presence{mockPresence{userID: "user-2"}})
	if got != nil {
		t.Fatal("match should terminate once no human is connected")
	}
}

func TestMatchLeave_KeepsSeatDuringRound(t *testing.T) {
	mh := &matchHandler{}
	dispatcher := &mockDispatcher{}
	state := newTestState(1)
	join(t, mh, state, dispatcher, "user-1", "user-2", "user-3")
	loop(mh, state, dispatcher, 1, message("user-1", OpStartGame, ""))

	mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.Presence{mockPresence{userID: "user-2"}})
	if state.Seats[1] != "user-2" {
		t.Fatal("seat freed during a running round")
	}

	// Coming back resends the hand privately.
	before := len(dispatcher.withOp(OpHandDealt))
	join(t, mh, state, dispatcher, "user-2")
	if got := len(dispatcher.withOp(OpHandDealt)) - before; got != 1 {
		t.Fatalf("hand resent %d times, want 1", got)
	}
}
