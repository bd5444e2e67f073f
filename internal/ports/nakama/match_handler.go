package nakama

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"landlord/internal/app"
	"landlord/internal/bot"
	"landlord/internal/config"
	"landlord/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noDeadline marks a timer that is not running.
const noDeadline int64 = -1

// tickRate is one tick per second, so every delay below is counted in ticks.
const tickRate = 1

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats        [domain.PlayerCount]string  `json:"seats"`      // user IDs, empty string means seat is empty
	OwnerSeat    int                         `json:"owner_seat"` // seat index of the match owner
	Tick         int64                       `json:"tick"`
	Presences    map[string]runtime.Presence `json:"-"` // connected humans by user ID
	App          *app.Service                `json:"-"`
	Round        *app.Round                  `json:"-"` // nil while in the lobby
	Tickets      *app.TicketService          `json:"-"`
	Config       config.GameConfig           `json:"config"`
	BotsEnabled  bool                        `json:"bots_enabled"`
	BotWaitUntil int64                       `json:"bot_wait_until"` // tick when the bot on turn acts
	AutoFillAt   int64                       `json:"auto_fill_at"`   // tick when empty seats get bots
	ClaimUntil   int64                       `json:"claim_until"`    // tick when the landlord is drawn at random
	TurnUntil    int64                       `json:"turn_until"`     // tick when the seat on turn is auto-played
	Bots         map[string]*bot.Agent       `json:"-"`

	rng *rand.Rand
}

func newMatchState(cfg config.GameConfig) *MatchState {
	return &MatchState{
		OwnerSeat:    -1,
		Presences:    make(map[string]runtime.Presence),
		App:          app.NewService(nil),
		Config:       cfg,
		BotWaitUntil: noDeadline,
		AutoFillAt:   noDeadline,
		ClaimUntil:   noDeadline,
		TurnUntil:    noDeadline,
		Bots:         make(map[string]*bot.Agent),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return len(ms.Seats) - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// seatOf returns the seat held by userID or -1.
func (ms *MatchState) seatOf(userID string) int {
	for i, seat := range ms.Seats {
		if seat != "" && seat == userID {
			return i
		}
	}
	return -1
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when no seated human is connected.
func shouldTerminateNoHumans(seats []string, presences map[string]runtime.Presence) bool {
	for _, userId := range seats {
		if _, ok := presences[userId]; ok && !isBotUserId(userId) {
			return false
		}
	}
	return true
}

// ticketServiceFromEnv builds the seat ticket service. Without a secret the
// service is disabled and joins are not checked.
func ticketServiceFromEnv(env map[string]string) *app.TicketService {
	issuer := env[EnvTicketIssuer]
	if issuer == "" {
		issuer = GameLabel
	}
	return app.NewTicketService(env[EnvTicketSecret], issuer, 0)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities(BotIdentitiesPath); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig(GameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config, using defaults: %v", err)
	}

	state := newMatchState(config.GetGameConfig())

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	state.BotsEnabled = env[EnvBotsEnabled] == "true"
	state.Tickets = ticketServiceFromEnv(env)

	label, err := encodeLabel(state.GetOpenSeatsCount(), labelStateLobby)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	userID := presence.GetUserId()

	// Seated players may always come back; tickets only guard new seats.
	if matchState.seatOf(userID) >= 0 {
		return state, true, ""
	}

	if matchState.Tickets.Enabled() {
		matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
		if err := matchState.Tickets.Verify(metadata["ticket"], userID, matchID); err != nil {
			logger.Warn("MatchJoinAttempt: Rejected %s: %v", userID, err)
			return state, false, "invalid seat ticket"
		}
	}
	if matchState.Round != nil {
		return state, false, "Game in progress"
	}

	// Allow join if there is an empty seat or a bot to replace.
	if matchState.GetOpenSeatsCount() <= 0 && matchState.GetHumanPlayerCount() == len(matchState.Seats) {
		return state, false, "Match full"
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if seat := matchState.seatOf(userID); seat >= 0 {
			logger.Info("MatchJoin: User %s rejoined seat %d.", userID, seat)
			mh.sendHand(matchState, dispatcher, logger, userID, seat)
			continue
		}

		if !mh.assignSeat(matchState, logger, userID) {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// assignSeat seats userID in the first empty seat, or in place of a bot while
// no round is running.
func (mh *matchHandler) assignSeat(state *MatchState, logger runtime.Logger, userID string) bool {
	for i, seatUserId := range state.Seats {
		if seatUserId == "" {
			state.Seats[i] = userID
			return true
		}
	}
	if state.Round != nil {
		return false
	}
	for i, seatUserId := range state.Seats {
		if isBotUserId(seatUserId) {
			logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, userID, i)
			delete(state.Bots, seatUserId)
			state.Seats[i] = userID
			return true
		}
	}
	return false
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		// A running round keeps the seat; the turn timer plays for it.
		if matchState.Round != nil {
			logger.Debug("MatchLeave: User %s disconnected from seat %d during a round.", userID, seat)
			continue
		}
		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	}

	if shouldTerminateNoHumans(matchState.Seats[:], matchState.Presences) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.reassignOwner(matchState, logger)
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)

	return matchState
}

// reassignOwner moves ownership to the first connected human.
func (mh *matchHandler) reassignOwner(state *MatchState, logger runtime.Logger) {
	owner := -1
	for i, userID := range state.Seats {
		if _, ok := state.Presences[userID]; ok && !isBotUserId(userID) {
			owner = i
			break
		}
	}
	if owner != state.OwnerSeat {
		state.OwnerSeat = owner
		logger.Debug("Owner set to seat %d.", owner)
	}
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(matchState, dispatcher, logger, msg)
		case OpClaimLandlord:
			mh.handleClaimLandlord(matchState, dispatcher, logger, msg)
		case OpPlayCards:
			mh.handlePlayCards(matchState, dispatcher, logger, msg)
		case OpPassTurn:
			mh.handlePassTurn(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(matchState, dispatcher, logger)
	}
	mh.processTimers(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) processBots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Round == nil {
		mh.autoFill(state, dispatcher, logger)
		return
	}

	view := state.Round.View()
	if view.Phase != domain.PhasePlaying {
		return
	}
	seat := view.CurrentTurn
	userID := state.Seats[seat]
	if !isBotUserId(userID) {
		state.BotWaitUntil = noDeadline
		return
	}

	if state.BotWaitUntil == noDeadline {
		minDelay, maxDelay := state.Config.BotMinDelaySeconds, state.Config.BotMaxDelaySeconds
		delay := minDelay
		if maxDelay > minDelay {
			delay += state.rng.Intn(maxDelay - minDelay + 1)
		}
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", userID, seat, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = noDeadline

	agent, err := state.agentFor(userID)
	if err != nil {
		logger.Error("processBots: Failed to create agent for %s: %v", userID, err)
		return
	}
	move, err := agent.Play(state.Round)
	if err != nil {
		logger.Error("processBots: Bot %s failed to calculate move: %v", userID, err)
		return
	}
	if err := mh.applyMove(state, dispatcher, logger, seat, move); err != nil {
		logger.Error("processBots: Bot %s (seat %d) made an illegal move %v: %v", userID, seat, move.Cards, err)
	}
}

// autoFill seats bots in every empty seat once a human has waited long enough.
func (mh *matchHandler) autoFill(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.GetHumanPlayerCount() == 0 || state.GetOpenSeatsCount() == 0 {
		state.AutoFillAt = noDeadline
		return
	}
	if state.AutoFillAt == noDeadline {
		state.AutoFillAt = state.Tick + int64(state.Config.BotAutoFillDelaySeconds)
		logger.Debug("processBots: Open seats detected, bots join at tick %d.", state.AutoFillAt)
	}
	if state.Tick < state.AutoFillAt {
		return
	}

	added := false
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity, ok := state.freeBotIdentity(i)
		if !ok {
			logger.Warn("processBots: No free bot identity for seat %d", i)
			continue
		}
		agent, err := bot.NewAgent(identity.UserID)
		if err != nil {
			logger.Error("processBots: Failed to create bot agent for %s: %v", identity.UserID, err)
			continue
		}
		state.Seats[i] = identity.UserID
		state.Bots[identity.UserID] = agent
		logger.Info("processBots: Added bot %s (%s) to seat %d", agent.Name, identity.UserID, i)
		added = true
	}
	state.AutoFillAt = noDeadline

	if added {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastMatchState(state, dispatcher, logger)
	}
}

// freeBotIdentity finds a bot identity not already seated, starting at the
// pool index for seat.
func (ms *MatchState) freeBotIdentity(seat int) (bot.BotIdentity, bool) {
	for offset := 0; offset < 2*len(ms.Seats); offset++ {
		identity := bot.GetBotIdentity(seat + offset)
		if ms.seatOf(identity.UserID) < 0 {
			return identity, true
		}
	}
	return bot.BotIdentity{}, false
}

func (ms *MatchState) agentFor(userID string) (*bot.Agent, error) {
	if agent, ok := ms.Bots[userID]; ok {
		return agent, nil
	}
	agent, err := bot.NewAgent(userID)
	if err != nil {
		return nil, err
	}
	ms.Bots[userID] = agent
	return agent, nil
}

// processTimers draws the landlord when nobody claims in time and plays for
// a seat whose turn clock ran out.
func (mh *matchHandler) processTimers(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Round == nil {
		return
	}

	view := state.Round.View()
	switch view.Phase {
	case domain.PhaseAwaitingLandlord:
		if state.ClaimUntil == noDeadline || state.Tick < state.ClaimUntil {
			return
		}
		events, err := state.App.AssignRandomLandlord(state.Round)
		if err != nil {
			logger.Error("processTimers: Failed to assign landlord: %v", err)
			return
		}
		logger.Info("processTimers: No landlord claim in time, drew one at random.")
		mh.commit(state, dispatcher, logger, events)

	case domain.PhasePlaying:
		if state.TurnUntil == noDeadline || state.Tick < state.TurnUntil {
			return
		}
		seat := view.CurrentTurn
		s, err := bot.SituationAt(state.Round, seat)
		if err != nil {
			logger.Error("processTimers: Failed to read seat %d: %v", seat, err)
			return
		}
		move := bot.TimeoutMove(s)
		logger.Info("processTimers: Turn timer expired for seat %d (pass=%t).", seat, move.Pass)
		if err := mh.applyMove(state, dispatcher, logger, seat, move); err != nil {
			logger.Error("processTimers: Auto move for seat %d rejected: %v", seat, err)
		}
	}
}

func (mh *matchHandler) handleStartGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if _, err := decodeMessage(msg.GetData()); err != nil {
		logger.Warn("StartGame: Invalid request from %s: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, err.Error())
		return
	}
	if state.Round != nil {
		logger.Warn("StartGame: Round already running.")
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, "round already in progress")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, "only the owner can start the game")
		return
	}
	if active := state.GetOccupiedSeatCount(); active < app.PlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", active, app.PlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, app.ErrTooFewPlayers.Error())
		return
	}

	round, events, err := state.App.StartGame(state.Seats[:])
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, err.Error())
		return
	}

	state.Round = round
	state.ClaimUntil = state.Tick + int64(state.Config.LandlordClaimSeconds)
	state.TurnUntil = noDeadline
	state.BotWaitUntil = noDeadline

	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(state, dispatcher, logger, events)
	mh.broadcastMatchState(state, dispatcher, logger)

	logger.Info("StartGame: Round %s started.", round.ID)
}

func (mh *matchHandler) handleClaimLandlord(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat, ok := mh.actingSeat(state, dispatcher, logger, senderID)
	if !ok {
		return
	}

	events, err := state.App.ClaimLandlord(state.Round, seat)
	if err != nil {
		logger.Warn("handleClaimLandlord: User %s (seat %d) failed to claim: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, err.Error())
		return
	}
	mh.commit(state, dispatcher, logger, events)
}

func (mh *matchHandler) handlePlayCards(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat, ok := mh.actingSeat(state, dispatcher, logger, senderID)
	if !ok {
		return
	}

	request, err := decodeMessage(msg.GetData())
	if err == nil {
		var cards []domain.Card
		if cards, err = cardsFromMessage(request); err == nil {
			err = mh.applyMove(state, dispatcher, logger, seat, bot.Move{Cards: cards})
		}
	}
	if err != nil {
		hand, _ := state.Round.Hand(seat)
		logger.Warn("handlePlayCards: User %s (seat %d) failed to play cards: %v. Hand: %v", senderID, seat, err, hand)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, err.Error())
	}
}

func (mh *matchHandler) handlePassTurn(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	seat, ok := mh.actingSeat(state, dispatcher, logger, senderID)
	if !ok {
		return
	}

	if err := mh.applyMove(state, dispatcher, logger, seat, bot.Move{Pass: true}); err != nil {
		logger.Warn("handlePassTurn: User %s (seat %d) failed to pass turn: %v", senderID, seat, err)
		mh.sendError(state, dispatcher, logger, senderID, errorCodeRejected, err.Error())
	}
}

// actingSeat resolves the seat of a sender who wants to act in the round,
// reporting the problem to them when there is none.
func (mh *matchHandler) actingSeat(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) (int, bool) {
	var err error
	seat := state.seatOf(userID)
	switch {
	case state.Round == nil:
		err = app.ErrNotPlaying
	case seat < 0:
		err = app.ErrUnknownPlayer
	}
	if err != nil {
		logger.Warn("Action from %s rejected: %v", userID, err)
		mh.sendError(state, dispatcher, logger, userID, errorCodeRejected, err.Error())
		return -1, false
	}
	return seat, true
}

// applyMove plays or passes for seat and publishes the outcome.
func (mh *matchHandler) applyMove(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, move bot.Move) error {
	if state.Round == nil {
		return app.ErrNotPlaying
	}

	var events []app.Event
	var err error
	if move.Pass {
		events, err = state.App.PassTurn(state.Round, seat)
	} else {
		events, err = state.App.PlayCards(state.Round, seat, move.Cards)
	}
	if err != nil {
		return err
	}
	mh.commit(state, dispatcher, logger, events)
	return nil
}

// commit publishes the events of an accepted action and restarts the turn
// clock for the next seat.
func (mh *matchHandler) commit(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	state.ClaimUntil = noDeadline
	state.TurnUntil = state.Tick + int64(state.Config.TurnDurationSeconds)
	state.BotWaitUntil = noDeadline
	mh.dispatchEvents(state, dispatcher, logger, events)
}

// dispatchEvents feeds events to the bots and the connected players.
func (mh *matchHandler) dispatchEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		for _, agent := range state.Bots {
			agent.OnGameEvent(ev)
		}
		mh.broadcastEvent(state, dispatcher, logger, ev)
		if ev.Kind == app.EventGameEnded {
			mh.endRound(state, dispatcher, logger)
		}
	}
}

// endRound returns the match to the lobby and frees the seats of players who
// disconnected during the round.
func (mh *matchHandler) endRound(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	state.Round = nil
	state.ClaimUntil = noDeadline
	state.TurnUntil = noDeadline
	state.BotWaitUntil = noDeadline

	for i, userID := range state.Seats {
		if userID == "" || isBotUserId(userID) {
			continue
		}
		if _, ok := state.Presences[userID]; !ok {
			logger.Debug("endRound: Freeing seat %d of disconnected user %s.", i, userID)
			state.Seats[i] = ""
		}
	}
	mh.reassignOwner(state, logger)
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	var view *app.RoundView
	if state.Round != nil {
		v := state.Round.View()
		view = &v
	}

	players := make([]interface{}, 0, len(state.Seats))
	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}

		displayName := userID
		_, connected := state.Presences[userID]
		if p, ok := state.Presences[userID]; ok {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userID); name != "" {
			displayName = name
		}

		cardsRemaining := 0
		if view != nil {
			cardsRemaining = view.HandSizes[i]
		}

		players = append(players, map[string]interface{}{
			"user_id":         userID,
			"seat":            i,
			"is_owner":        i == state.OwnerSeat,
			"is_bot":          isBotUserId(userID),
			"connected":       connected,
			"display_name":    displayName,
			"cards_remaining": cardsRemaining,
		})
	}

	fields := map[string]interface{}{
		"seats":      seatsToValues(state.Seats),
		"owner_seat": state.OwnerSeat,
		"tick":       state.Tick,
		"phase":      labelStateLobby,
		"players":    players,
	}
	if view != nil {
		fields["phase"] = string(view.Phase)
		fields["current_turn"] = view.CurrentTurn
		fields["pass_streak"] = view.PassStreak
		fields["landlord_seat"] = view.LandlordSeat
		fields["kitty_size"] = view.KittySize
	}

	data, err := encodeMessage(fields)
	if err != nil {
		logger.Error("Failed to marshal match state: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpMatchState, data, nil, nil, true)
}

// sendHand privately resends a seat's hand, for players rejoining a round.
func (mh *matchHandler) sendHand(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, seat int) {
	if state.Round == nil {
		return
	}
	hand, err := state.Round.Hand(seat)
	if err != nil {
		logger.Error("sendHand: %v", err)
		return
	}
	domain.SortHand(hand)
	mh.broadcastEvent(state, dispatcher, logger, app.Event{
		Kind:       app.EventHandDealt,
		Payload:    app.HandDealtPayload{Seat: seat, Hand: hand},
		Recipients: []string{userID},
	})
}

// eventMessage maps an app event to its op code and message fields.
func eventMessage(ev app.Event) (int64, map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		return OpGameStarted, map[string]interface{}{
			"round_id": p.RoundID,
			"phase":    string(p.Phase),
			"seats":    seatsToValues(p.Seats),
		}, nil
	case app.HandDealtPayload:
		return OpHandDealt, map[string]interface{}{
			"seat": p.Seat,
			"hand": cardsToValues(p.Hand),
		}, nil
	case app.LandlordAssignedPayload:
		return OpLandlordAssigned, map[string]interface{}{
			"seat":  p.Seat,
			"kitty": cardsToValues(p.Kitty),
		}, nil
	case app.CardPlayedPayload:
		return OpCardPlayed, map[string]interface{}{
			"seat":            p.Seat,
			"kind":            p.Kind.String(),
			"cards":           cardsToValues(p.Cards),
			"cards_remaining": p.CardsRemaining,
			"next_turn_seat":  p.NextTurnSeat,
		}, nil
	case app.TurnPassedPayload:
		return OpTurnPassed, map[string]interface{}{
			"seat":           p.Seat,
			"next_turn_seat": p.NextTurnSeat,
			"lead_required":  p.LeadRequired,
		}, nil
	case app.GameEndedPayload:
		return OpGameEnded, map[string]interface{}{
			"winner_seat":   p.WinnerSeat,
			"landlord_seat": p.LandlordSeat,
			"landlord_won":  p.LandlordWon,
		}, nil
	default:
		return 0, nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, fields, err := eventMessage(ev)
	if err != nil {
		logger.Warn("broadcastEvent: %v", err)
		return
	}
	data, err := encodeMessage(fields)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Private events for bots or disconnected players must not fall back
		// to a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, data, recipients, nil, true)
}

// sendError sends a game error event to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	data, err := encodeMessage(map[string]interface{}{
		"code":    code,
		"message": message,
	})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	labelState := labelStateLobby
	if state.Round != nil {
		labelState = labelStatePlaying
	}

	label, err := encodeLabel(state.GetOpenSeatsCount(), labelState)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
