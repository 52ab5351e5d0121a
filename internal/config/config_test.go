package config

import (
	"path/filepath"
	"testing"
)

func TestReadGameConfigFillsDefaults(t *testing.T) {
	c, err := ReadGameConfig(filepath.Join("testdata", "partial.json"))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if c.BoardSize != 14 || c.LeaderboardID != "duo_scores" {
		t.Fatalf("explicit values lost: %+v", c)
	}
	if c.TurnDurationSeconds != Defaults.TurnDurationSeconds || c.SeatTokenTTLSeconds != Defaults.SeatTokenTTLSeconds {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestReadGameConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "Missing", path: filepath.Join("testdata", "nope.json")},
		{name: "BadDelays", path: filepath.Join("testdata", "bad_delays.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadGameConfig(tt.path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGetGameConfigBeforeLoad(t *testing.T) {
	if cfg != nil {
		t.Skip("config already loaded by another test")
	}
	if got := GetGameConfig(); got != Defaults {
		t.Fatalf("GetGameConfig() = %+v, want defaults", got)
	}
}

func TestWithEnv(t *testing.T) {
	env := map[string]string{
		"blockus_turn_duration_sec":  "30",
		"blockus_bot_min_delay_sec":  "4",
		"blockus_bot_max_delay_sec":  "oops",
		"blockus_leaderboard_id":     "weekly",
		"blockus_seat_token_ttl_sec": "-5",
	}
	c := Defaults.WithEnv(env)
	if c.TurnDurationSeconds != 30 || c.LeaderboardID != "weekly" {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.SeatTokenTTLSeconds != Defaults.SeatTokenTTLSeconds {
		t.Fatalf("negative ttl accepted: %d", c.SeatTokenTTLSeconds)
	}
	if c.BotMinDelaySeconds != 4 || c.BotMaxDelaySeconds != 4 {
		t.Fatalf("delays = %d..%d, want 4..4", c.BotMinDelaySeconds, c.BotMaxDelaySeconds)
	}
}
