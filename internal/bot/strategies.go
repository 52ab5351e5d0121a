package bot

import (
	"errors"
	"sort"

	"blockus/internal/app"
	botinternal "blockus/internal/bot/internal"
	"blockus/internal/domain"
)

var ErrNoGame = errors.New("bot has no game to play")

// seatContext resolves the bot's player and its still-active opponents.
func seatContext(game *app.Game, seat int) (*domain.Player, []*domain.Player, error) {
	if game == nil || game.Match == nil {
		return nil, nil, ErrNoGame
	}
	player, err := game.Player(seat)
	if err != nil {
		return nil, nil, err
	}
	var opponents []*domain.Player
	for _, p := range game.Match.Players() {
		if p != player && p.StillPlaying() {
			opponents = append(opponents, p)
		}
	}
	return player, opponents, nil
}

// EasyBot plays the first legal move the search finds, which favours the
// smallest pieces.
type EasyBot struct{}

func (b *EasyBot) CalculateMove(game *app.Game, seat int) (Move, error) {
	player, _, err := seatContext(game, seat)
	if err != nil {
		return Move{}, err
	}
	mv, ok := player.FindMove(game.Match.Board())
	if !ok {
		return Move{Resign: true}, nil
	}
	return Move{Placement: mv}, nil
}

func (b *EasyBot) OnEvent(event app.Event) {}

// GoodBot plays the biggest piece it can, breaking ties by corners gained.
type GoodBot struct{}

func (b *GoodBot) CalculateMove(game *app.Game, seat int) (Move, error) {
	player, _, err := seatContext(game, seat)
	if err != nil {
		return Move{}, err
	}
	board := game.Match.Board()
	moves := botinternal.GetValidMoves(board, player)
	if len(moves) == 0 {
		return Move{Resign: true}, nil
	}

	best, bestCorners := 0, -1
	for i, mv := range moves {
		if len(mv.Cells) < len(moves[0].Cells) {
			break
		}
		if c := len(botinternal.NewCorners(board, player.Color(), mv.Cells)); c > bestCorners {
			best, bestCorners = i, c
		}
	}
	return Move{Placement: moves[best]}, nil
}

func (b *GoodBot) OnEvent(event app.Event) {}

// SmartBot scores every legal move with phase weights and runs a tie-break
// pipeline over the leaders.
type SmartBot struct {
	Tuning botinternal.BotTuning
	Rules  []SelectionRule
	// Margin is the score window the rules may choose within.
	Margin float64
}

const defaultSmartMargin = 1.0

func (b *SmartBot) CalculateMove(game *app.Game, seat int) (Move, error) {
	player, opponents, err := seatContext(game, seat)
	if err != nil {
		return Move{}, err
	}
	board := game.Match.Board()
	moves := botinternal.GetValidMoves(board, player)
	if len(moves) == 0 {
		return Move{Resign: true}, nil
	}

	weights := b.Tuning.ForPhase(botinternal.DetectPhase(player))
	scored := botinternal.BuildScoredMoves(board, player, opponents, moves, weights)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	margin := b.Margin
	if margin == 0 {
		margin = defaultSmartMargin
	}
	ctx := &SelectionContext{Candidates: scored, Margin: margin}
	for _, rule := range b.Rules {
		rule.Apply(ctx)
	}
	return Move{Placement: ctx.Current().Move}, nil
}

func (b *SmartBot) OnEvent(event app.Event) {}
