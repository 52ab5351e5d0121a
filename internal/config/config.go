package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"blockus/internal/domain"
)

// GameConfig holds tunables read from data/game_config.json.
type GameConfig struct {
	BoardSize           int `json:"board_size"`
	TurnDurationSeconds int `json:"turn_duration_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before filling a solo human lobby with bots.
	BotAutoFillDelaySeconds int    `json:"bot_auto_fill_delay_seconds"`
	BotMinDelaySeconds      int    `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds      int    `json:"bot_max_delay_seconds"`
	LeaderboardID           string `json:"leaderboard_id"`
	SeatTokenTTLSeconds     int    `json:"seat_token_ttl_seconds"`
}

// Defaults used when the config file is missing or leaves a field unset.
var Defaults = GameConfig{
	BoardSize:               domain.DefaultBoardSize,
	TurnDurationSeconds:     60,
	BotAutoFillDelaySeconds: 5,
	BotMinDelaySeconds:      1,
	BotMaxDelaySeconds:      3,
	LeaderboardID:           "blockus_scores",
	SeatTokenTTLSeconds:     3600,
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path. Only the
// first call reads the file.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := ReadGameConfig(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = &c
	})
	return loadErr
}

// ReadGameConfig parses a config file and fills unset fields from Defaults.
func ReadGameConfig(path string) (GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameConfig{}, fmt.Errorf("failed to read game config: %w", err)
	}

	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return GameConfig{}, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	c.fillDefaults()
	if err := c.Validate(); err != nil {
		return GameConfig{}, err
	}
	return c, nil
}

// GetGameConfig returns the loaded configuration, or Defaults when nothing
// was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Defaults
	}
	return *cfg
}

// Validate rejects values the game cannot run with.
func (c GameConfig) Validate() error {
	if c.BoardSize < domain.MinBoardSize {
		return fmt.Errorf("board_size %d below minimum %d", c.BoardSize, domain.MinBoardSize)
	}
	if c.BotMinDelaySeconds > c.BotMaxDelaySeconds {
		return fmt.Errorf("bot_min_delay_seconds %d exceeds bot_max_delay_seconds %d", c.BotMinDelaySeconds, c.BotMaxDelaySeconds)
	}
	return nil
}

// WithEnv overlays runtime environment values (blockus_* keys) on c.
// Malformed numbers are ignored.
func (c GameConfig) WithEnv(env map[string]string) GameConfig {
	setInt := func(key string, dst *int) {
		if val, ok := env[key]; ok {
			if i, err := strconv.Atoi(val); err == nil && i > 0 {
				*dst = i
			}
		}
	}
	setInt("blockus_turn_duration_sec", &c.TurnDurationSeconds)
	setInt("blockus_bot_min_delay_sec", &c.BotMinDelaySeconds)
	setInt("blockus_bot_max_delay_sec", &c.BotMaxDelaySeconds)
	setInt("blockus_bot_auto_fill_delay_sec", &c.BotAutoFillDelaySeconds)
	setInt("blockus_seat_token_ttl_sec", &c.SeatTokenTTLSeconds)
	if val, ok := env["blockus_leaderboard_id"]; ok && val != "" {
		c.LeaderboardID = val
	}
	if c.BotMinDelaySeconds > c.BotMaxDelaySeconds {
		c.BotMaxDelaySeconds = c.BotMinDelaySeconds
	}
	return c
}

func (c *GameConfig) fillDefaults() {
	if c.BoardSize == 0 {
		c.BoardSize = Defaults.BoardSize
	}
	if c.TurnDurationSeconds == 0 {
		c.TurnDurationSeconds = Defaults.TurnDurationSeconds
	}
	if c.BotAutoFillDelaySeconds == 0 {
		c.BotAutoFillDelaySeconds = Defaults.BotAutoFillDelaySeconds
	}
	if c.BotMinDelaySeconds == 0 {
		c.BotMinDelaySeconds = Defaults.BotMinDelaySeconds
	}
	if c.BotMaxDelaySeconds == 0 {
		c.BotMaxDelaySeconds = Defaults.BotMaxDelaySeconds
	}
	if c.LeaderboardID == "" {
		c.LeaderboardID = Defaults.LeaderboardID
	}
	if c.SeatTokenTTLSeconds == 0 {
		c.SeatTokenTTLSeconds = Defaults.SeatTokenTTLSeconds
	}
}
