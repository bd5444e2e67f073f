package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// LandlordClaimSeconds is how long seats may claim the kitty before the landlord is drawn at random.
	LandlordClaimSeconds int `json:"landlord_claim_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before filling empty seats with bots.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	BotMinDelaySeconds      int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int `json:"bot_max_delay_seconds"`
	// BotThreatThreshold is the opponent hand size at which bots start spending bombs.
	BotThreatThreshold int `json:"bot_threat_threshold"`
}

// Defaults applied when no config file was loaded or a field is left at zero.
var Defaults = GameConfig{
	TurnDurationSeconds:     20,
	LandlordClaimSeconds:    10,
	BotAutoFillDelaySeconds: 5,
	BotMinDelaySeconds:      1,
	BotMaxDelaySeconds:      3,
	BotThreatThreshold:      4,
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c, err := ParseGameConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// ParseGameConfig decodes a JSON config and fills zero fields from Defaults.
func ParseGameConfig(data []byte) (GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	c.applyDefaults()
	if c.BotMinDelaySeconds > c.BotMaxDelaySeconds {
		return GameConfig{}, fmt.Errorf("bot_min_delay_seconds (%d) exceeds bot_max_delay_seconds (%d)", c.BotMinDelaySeconds, c.BotMaxDelaySeconds)
	}
	return c, nil
}

func (c *GameConfig) applyDefaults() {
	if c.TurnDurationSeconds <= 0 {
		c.TurnDurationSeconds = Defaults.TurnDurationSeconds
	}
	if c.LandlordClaimSeconds <= 0 {
		c.LandlordClaimSeconds = Defaults.LandlordClaimSeconds
	}
	if c.BotAutoFillDelaySeconds <= 0 {
		c.BotAutoFillDelaySeconds = Defaults.BotAutoFillDelaySeconds
	}
	if c.BotMinDelaySeconds <= 0 {
		c.BotMinDelaySeconds = Defaults.BotMinDelaySeconds
	}
	if c.BotMaxDelaySeconds <= 0 {
		c.BotMaxDelaySeconds = Defaults.BotMaxDelaySeconds
	}
	if c.BotThreatThreshold <= 0 {
		c.BotThreatThreshold = Defaults.BotThreatThreshold
	}
}

// GetGameConfig returns the loaded configuration, or Defaults when none was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Defaults
	}
	return *cfg
}
