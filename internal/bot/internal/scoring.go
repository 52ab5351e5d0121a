package internal

import (
	"math"

	"blockus/internal/domain"
)

// PhaseWeights tune move scoring for a specific phase.
type PhaseWeights struct {
	PieceSizeWeight   float64
	NewCornerWeight   float64
	LostCornerWeight  float64
	DenyCornerWeight  float64
	CenterWeight      float64
	MonominoPenalty   float64
	FinishBonus       float64
	MonominoLastBonus float64
}

// BotTuning defines phase weights for a bot difficulty.
type BotTuning struct {
	Opening PhaseWeights
	Mid     PhaseWeights
	End     PhaseWeights
}

// ForPhase returns the weights that match the supplied phase.
func (t BotTuning) ForPhase(phase GamePhase) PhaseWeights {
	switch phase {
	case PhaseOpening:
		return t.Opening
	case PhaseEnd:
		return t.End
	default:
		return t.Mid
	}
}

// ScoredMove holds a move with its computed score and supporting metadata.
type ScoredMove struct {
	Move       domain.Move
	Score      float64
	NewCorners int
	Lost       int
	Denied     int
}

// BuildScoredMoves scores each move for player against the opponents.
func BuildScoredMoves(board *domain.Board, player *domain.Player, opponents []*domain.Player, moves []domain.Move, weights PhaseWeights) []ScoredMove {
	scored := make([]ScoredMove, 0, len(moves))
	for _, mv := range moves {
		scored = append(scored, ScoreMove(board, player, opponents, mv, weights))
	}
	return scored
}

// ScoreMove evaluates a single placement.
func ScoreMove(board *domain.Board, player *domain.Player, opponents []*domain.Player, mv domain.Move, weights PhaseWeights) ScoredMove {
	size := len(mv.Cells)
	corners := len(NewCorners(board, player.Color(), mv.Cells))
	lost := LostCorners(player, mv.Cells)
	denied := DeniedCorners(opponents, mv.Cells)

	score := weights.PieceSizeWeight * float64(size)
	score += weights.NewCornerWeight * float64(corners)
	score -= weights.LostCornerWeight * float64(lost)
	score += weights.DenyCornerWeight * float64(denied)
	score -= weights.CenterWeight * centerDistance(board, mv.Cells)

	remaining := player.PoolSize() - 1
	if size == 1 && remaining > 0 {
		score -= weights.MonominoPenalty
	}
	if remaining == 0 {
		score += weights.FinishBonus
		if size == 1 {
			score += weights.MonominoLastBonus
		}
	}

	return ScoredMove{
		Move:       mv,
		Score:      score,
		NewCorners: corners,
		Lost:       lost,
		Denied:     denied,
	}
}

// centerDistance is the Euclidean distance from the placement's centroid to the
// middle of the board.
func centerDistance(board *domain.Board, cells []domain.Point) float64 {
	if len(cells) == 0 {
		return 0
	}
	var sx, sy float64
	for _, c := range cells {
		sx += float64(c.X)
		sy += float64(c.Y)
	}
	mid := float64(board.Size()-1) / 2
	dx := sx/float64(len(cells)) - mid
	dy := sy/float64(len(cells)) - mid
	return math.Hypot(dx, dy)
}
