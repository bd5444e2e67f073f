package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// MatchNameLandlord is the authoritative match handler name registered with Nakama.
	MatchNameLandlord = "landlord_match"

	// GameLabel is the value of the "game" key in every match label.
	GameLabel = "landlord"
)

// Runtime env keys read from RUNTIME_CTX_ENV.
const (
	EnvBotsEnabled  = "landlord_bots_enabled"
	EnvTicketSecret = "landlord_ticket_secret"
	EnvTicketIssuer = "landlord_ticket_issuer"
)

// Files loaded from the Nakama data folder.
const (
	BotIdentitiesPath = "data/bot_identities.json"
	GameConfigPath    = "data/game_config.json"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame     int64 = 1
	OpPlayCards     int64 = 2
	OpPassTurn      int64 = 3
	OpClaimLandlord int64 = 4

	// Server -> Client events
	OpMatchState       int64 = 101
	OpGameStarted      int64 = 103
	OpHandDealt        int64 = 104 // send privately
	OpCardPlayed       int64 = 105
	OpTurnPassed       int64 = 106
	OpGameEnded        int64 = 107
	OpLandlordAssigned int64 = 108
	OpGameError        int64 = 109 // send privately
)

const (
	labelStateLobby   = "lobby"
	labelStatePlaying = "playing"

	errorCodeRejected = 400
)
