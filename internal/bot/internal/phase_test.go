package internal

import (
	"testing"

	"blockus/internal/domain"
)

func placeFirst(t *testing.T, p *domain.Player, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		p.SetCurrentPiece(0)
		if _, err := p.PlaceCurrentPiece(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetectPhase(t *testing.T) {
	tests := []struct {
		name       string
		pieces     int
		placed     int
		candidates []domain.Point
		want       GamePhase
	}{
		{name: "Fresh", pieces: 21, placed: 0, want: PhaseOpening},
		{name: "EarlyGame", pieces: 21, placed: 3, want: PhaseOpening},
		{name: "Mid", pieces: 21, placed: 5, candidates: []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}, want: PhaseMid},
		{name: "ScarceCandidates", pieces: 21, placed: 5, candidates: []domain.Point{{X: 1, Y: 1}}, want: PhaseEnd},
		{name: "SmallPool", pieces: 10, placed: 5, candidates: []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}, want: PhaseEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := domain.NewPieceSet(domain.Yellow)[:tt.pieces]
			p := domain.NewPlayer("bot", domain.Yellow, domain.DefaultBoardSize, set)
			placeFirst(t, p, tt.placed)
			p.AddNewAvailableMoves(tt.candidates)
			if got := DetectPhase(p); got != tt.want {
				t.Fatalf("DetectPhase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectPhase_NilPlayer(t *testing.T) {
	if got := DetectPhase(nil); got != PhaseMid {
		t.Fatalf("DetectPhase(nil) = %v, want PhaseMid", got)
	}
}
