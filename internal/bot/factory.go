package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects a strategy.
type BotLevel int

const (
	BotLevelEasy BotLevel = iota
	BotLevelGood
	BotLevelSmart
)

// ParseLevel maps an identity difficulty string to a level; unknown values
// fall back to BotLevelGood.
func ParseLevel(difficulty string) BotLevel {
	switch strings.ToLower(difficulty) {
	case "easy":
		return BotLevelEasy
	case "hard", "smart":
		return BotLevelSmart
	default:
		return BotLevelGood
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelEasy:
		return &EasyBot{}, nil
	case BotLevelGood:
		return &GoodBot{}, nil
	case BotLevelSmart:
		return &SmartBot{Tuning: DefaultTuning, Rules: DefaultRules()}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
