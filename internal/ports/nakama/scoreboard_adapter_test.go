package nakama

import (
	"context"
	"testing"

	"blockus/internal/ports"
)

func TestScoreboardAdapter_AccumulatesStats(t *testing.T) {
	nk := newFakeNakama()
	board := NewNakamaScoreboardAdapter(nk, "blockus_scores")
	ctx := context.Background()

	games := [][]ports.ScoreEntry{
		{{UserID: "alice", Username: "alice", Score: 12, Won: true}, {UserID: "bob", Score: 30}},
		{{UserID: "alice", Username: "alice", Score: 20}},
		{{UserID: "alice", Username: "alice", Score: 5}, {UserID: ""}},
	}
	for i, entries := range games {
		if err := board.RecordResults(ctx, entries); err != nil {
			t.Fatalf("game %d: %v", i, err)
		}
	}

	if len(nk.records) != 4 {
		t.Fatalf("leaderboard writes = %d, want 4", len(nk.records))
	}
	for _, rec := range nk.records {
		if rec.GetLeaderboardId() != "blockus_scores" {
			t.Fatalf("record written to %q", rec.GetLeaderboardId())
		}
	}

	stats, err := board.Stats(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	want := ports.PlayerStats{GamesPlayed: 3, Wins: 1, BestScore: 20, TotalScore: 37}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestScoreboardAdapter_UnknownUser(t *testing.T) {
	stats, err := NewNakamaScoreboardAdapter(newFakeNakama(), "lb").Stats(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if stats != (ports.PlayerStats{}) {
		t.Fatalf("stats = %+v, want zero", stats)
	}
}

func TestScoreboardAdapter_RetriesVersionConflicts(t *testing.T) {
	nk := newFakeNakama()
	board := NewNakamaScoreboardAdapter(nk, "lb")
	ctx := context.Background()

	nk.failWrites = maxStatsWriteAttempts - 1
	if err := board.RecordResults(ctx, []ports.ScoreEntry{{UserID: "alice", Score: 9}}); err != nil {
		t.Fatalf("write did not recover from conflicts: %v", err)
	}

	nk.failWrites = maxStatsWriteAttempts
	if err := board.RecordResults(ctx, []ports.ScoreEntry{{UserID: "alice", Score: 9}}); err == nil {
		t.Fatal("expected error once retries are exhausted")
	}
	stats, _ := board.Stats(ctx, "alice")
	if stats.GamesPlayed != 1 {
		t.Fatalf("games played = %d, want 1", stats.GamesPlayed)
	}
}
