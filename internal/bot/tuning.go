package bot

import "landlord/internal/config"

// Tuning holds the knobs the strategies read.
type Tuning struct {
	// ThreatThreshold is the opponent hand size at or below which a bot
	// spends bombs and stops yielding to its partner.
	ThreatThreshold int
}

// DefaultTuning matches the built-in game configuration.
var DefaultTuning = TuningFromConfig(config.Defaults)

// TuningFromConfig derives strategy tuning from the game configuration.
func TuningFromConfig(c config.GameConfig) Tuning {
	return Tuning{ThreatThreshold: c.BotThreatThreshold}
}
