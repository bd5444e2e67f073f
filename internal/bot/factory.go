package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota + 1
	BotLevelGood
)

// ParseLevel maps an identity difficulty to a level. Unknown values get the
// good bot.
func ParseLevel(difficulty string) BotLevel {
	switch strings.ToLower(difficulty) {
	case "easy":
		return BotLevelEasy
	default:
		return BotLevelGood
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel, tuning Tuning) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return &EasyBot{}, nil
	case BotLevelGood:
		return NewGoodBot(tuning), nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
