package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"blockus/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// maxStatsWriteAttempts bounds retries when a concurrent write bumps the
// stats object version.
const maxStatsWriteAttempts = 3

// NakamaScoreboardAdapter implements ports.ScoreboardPort with a Nakama
// leaderboard for best scores and a storage object per user for totals.
type NakamaScoreboardAdapter struct {
	nk            runtime.NakamaModule
	leaderboardID string
}

// NewNakamaScoreboardAdapter creates a scoreboard adapter writing to leaderboardID.
func NewNakamaScoreboardAdapter(nk runtime.NakamaModule, leaderboardID string) *NakamaScoreboardAdapter {
	return &NakamaScoreboardAdapter{nk: nk, leaderboardID: leaderboardID}
}

// RecordResults writes every entry and keeps going past failures; the
// returned error joins all of them.
func (a *NakamaScoreboardAdapter) RecordResults(ctx context.Context, entries []ports.ScoreEntry) error {
	var errs []error
	for _, e := range entries {
		if e.UserID == "" {
			continue
		}
		if _, err := a.nk.LeaderboardRecordWrite(ctx, a.leaderboardID, e.UserID, e.Username, e.Score, 0, e.Metadata, nil); err != nil {
			errs = append(errs, fmt.Errorf("leaderboard write for %s: %w", e.UserID, err))
			continue
		}
		if err := a.updateStats(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("stats write for %s: %w", e.UserID, err))
		}
	}
	return errors.Join(errs...)
}

// Stats returns the stored totals for userID.
func (a *NakamaScoreboardAdapter) Stats(ctx context.Context, userID string) (ports.PlayerStats, error) {
	stats, _, err := a.readStats(ctx, userID)
	return stats, err
}

func (a *NakamaScoreboardAdapter) readStats(ctx context.Context, userID string) (ports.PlayerStats, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: statsCollection,
		Key:        statsKey,
		UserID:     userID,
	}})
	if err != nil {
		return ports.PlayerStats{}, "", err
	}
	if len(objects) == 0 {
		return ports.PlayerStats{}, "", nil
	}

	var stats ports.PlayerStats
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &stats); err != nil {
		return ports.PlayerStats{}, "", fmt.Errorf("decode stats: %w", err)
	}
	return stats, objects[0].GetVersion(), nil
}

func (a *NakamaScoreboardAdapter) updateStats(ctx context.Context, e ports.ScoreEntry) error {
	var lastErr error
	for attempt := 0; attempt < maxStatsWriteAttempts; attempt++ {
		stats, version, err := a.readStats(ctx, e.UserID)
		if err != nil {
			return err
		}
		if version == "" {
			version = "*" // only create when absent
		}

		if stats.GamesPlayed == 0 || e.Score > stats.BestScore {
			stats.BestScore = e.Score
		}
		stats.GamesPlayed++
		stats.TotalScore += e.Score
		if e.Won {
			stats.Wins++
		}

		value, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
			Collection:      statsCollection,
			Key:             statsKey,
			UserID:          e.UserID,
			Value:           string(value),
			Version:         version,
			PermissionRead:  1,
			PermissionWrite: 0,
		}})
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

var _ ports.ScoreboardPort = (*NakamaScoreboardAdapter)(nil)
