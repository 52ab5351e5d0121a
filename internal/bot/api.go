package bot

import (
	"blockus/internal/app"
	"blockus/internal/domain"
)

// Move represents the decision made by the AI.
type Move struct {
	Resign    bool
	Placement domain.Move
}

// Brain is the interface that all bot strategies must implement.
type Brain interface {
	CalculateMove(game *app.Game, seat int) (Move, error)
	OnEvent(event app.Event)
}
