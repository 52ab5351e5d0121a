package internal

import (
	"testing"

	"blockus/internal/domain"
)

func TestScoreMove_SizeAndCorners(t *testing.T) {
	b := openedBoard()
	p := playerWith(domain.Blue, "I1", "I2", "I3")
	p.AddNewAvailableMoves([]domain.Point{{X: 1, Y: 18}})
	weights := PhaseWeights{PieceSizeWeight: 1, NewCornerWeight: 0.5}

	mono := domain.Move{Shape: "I1", Cells: []domain.Point{{X: 1, Y: 18}}}
	tri := domain.Move{Shape: "I3", Cells: []domain.Point{{X: 1, Y: 18}, {X: 2, Y: 18}, {X: 3, Y: 18}}}

	sm := ScoreMove(b, p, nil, mono, weights)
	st := ScoreMove(b, p, nil, tri, weights)
	if sm.NewCorners != 3 {
		t.Fatalf("monomino corners = %d, want 3", sm.NewCorners)
	}
	if st.Score <= sm.Score {
		t.Fatalf("tromino score %.2f not above monomino %.2f", st.Score, sm.Score)
	}
	if sm.Lost != 1 || st.Lost != 1 {
		t.Fatalf("lost = %d/%d, want 1/1", sm.Lost, st.Lost)
	}
}

func TestScoreMove_MonominoLast(t *testing.T) {
	b := openedBoard()
	weights := PhaseWeights{PieceSizeWeight: 1, MonominoPenalty: 3, FinishBonus: 10, MonominoLastBonus: 5}
	mono := domain.Move{Shape: "I1", Cells: []domain.Point{{X: 1, Y: 18}}}

	last := playerWith(domain.Blue, "I1")
	early := playerWith(domain.Blue, "I1", "I2")

	if got := ScoreMove(b, last, nil, mono, weights).Score; got != 16 {
		t.Fatalf("final monomino score = %.2f, want 16", got)
	}
	if got := ScoreMove(b, early, nil, mono, weights).Score; got != -2 {
		t.Fatalf("early monomino score = %.2f, want -2", got)
	}
}

func TestScoreMove_Denial(t *testing.T) {
	b := openedBoard()
	p := playerWith(domain.Blue, "I1", "I2")
	red := playerWith(domain.Red, "I1")
	red.AddNewAvailableMoves([]domain.Point{{X: 2, Y: 17}})
	weights := PhaseWeights{DenyCornerWeight: 2}

	mv := domain.Move{Shape: "I2", Cells: []domain.Point{{X: 1, Y: 18}, {X: 2, Y: 17}}}
	got := ScoreMove(b, p, []*domain.Player{red}, mv, weights)
	if got.Denied != 1 || got.Score != 2 {
		t.Fatalf("denial = %+v", got)
	}
}

func TestBotTuningForPhase(t *testing.T) {
	tuning := BotTuning{
		Opening: PhaseWeights{CenterWeight: 1},
		Mid:     PhaseWeights{CenterWeight: 2},
		End:     PhaseWeights{CenterWeight: 3},
	}
	for phase, want := range map[GamePhase]float64{PhaseOpening: 1, PhaseMid: 2, PhaseEnd: 3} {
		if got := tuning.ForPhase(phase).CenterWeight; got != want {
			t.Errorf("ForPhase(%v) center = %v, want %v", phase, got, want)
		}
	}
}
