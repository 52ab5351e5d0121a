package internal

import "blockus/internal/domain"

// GamePhase describes the current strategic stage for one player.
type GamePhase int

const (
	// PhaseOpening covers the first few placements, spent racing for the centre.
	PhaseOpening GamePhase = iota
	// PhaseMid is everything between opening and end.
	PhaseMid
	// PhaseEnd starts once the pool is nearly spent or candidates are scarce.
	PhaseEnd
)

const (
	openingPlacements = 4
	endPoolSize       = 6
	endCandidates     = 3
)

// DetectPhase infers the phase from the player's own progress.
func DetectPhase(player *domain.Player) GamePhase {
	if player == nil {
		return PhaseMid
	}
	placed := len(player.Placed())
	switch {
	case placed < openingPlacements:
		return PhaseOpening
	case player.PoolSize() <= endPoolSize || player.AvailableMoveCount() <= endCandidates:
		return PhaseEnd
	default:
		return PhaseMid
	}
}
