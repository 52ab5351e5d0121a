package bot

import (
	"fmt"

	"blockus/internal/app"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// NewAgent builds an agent for a bot user, choosing the brain from its
// identity's difficulty.
func NewAgent(userID string) (*Agent, error) {
	identity, _ := GetBotConfig(userID)
	brain, err := NewBrain(ParseLevel(identity.Difficulty))
	if err != nil {
		return nil, err
	}
	name := GetBotDisplayName(userID)
	if name == "" {
		name = userID
	}
	return &Agent{ID: userID, Name: name, Strategy: brain}, nil
}

// Play asks the agent to calculate its move based on the current game state.
func (a *Agent) Play(game *app.Game) (Move, error) {
	seat := game.SeatOf(a.ID)
	if seat < 0 {
		return Move{}, fmt.Errorf("bot %s is not seated: %w", a.ID, app.ErrUnknownPlayer)
	}
	return a.Strategy.CalculateMove(game, seat)
}

// OnGameEvent notifies the agent of a game event.
func (a *Agent) OnGameEvent(event app.Event) {
	a.Strategy.OnEvent(event)
}
