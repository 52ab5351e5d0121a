package ports

import "context"

// ScoreEntry is one seat's final result.
type ScoreEntry struct {
	UserID   string
	Username string
	Color    string
	Score    int64
	Won      bool
	Metadata map[string]interface{}
}

// PlayerStats accumulates a user's results across games.
type PlayerStats struct {
	GamesPlayed int   `json:"games_played"`
	Wins        int   `json:"wins"`
	BestScore   int64 `json:"best_score"`
	TotalScore  int64 `json:"total_score"`
}

// ScoreboardPort records finished games.
type ScoreboardPort interface {
	// RecordResults submits final scores. Callers filter out bots.
	RecordResults(ctx context.Context, entries []ScoreEntry) error

	// Stats returns the accumulated stats for a user; zero stats when none exist.
	Stats(ctx context.Context, userID string) (PlayerStats, error)
}
