package bot

import botinternal "blockus/internal/bot/internal"

// SelectionContext holds the state for the move tie-break pipeline.
// Candidates are sorted best first; rules may only pick among those whose
// score is within Margin of the top one.
type SelectionContext struct {
	Candidates    []botinternal.ScoredMove
	Margin        float64
	SelectedIndex int
}

// Current returns the selected candidate.
func (ctx *SelectionContext) Current() botinternal.ScoredMove {
	return ctx.Candidates[ctx.SelectedIndex]
}

func (ctx *SelectionContext) eligible(i int) bool {
	return ctx.Candidates[0].Score-ctx.Candidates[i].Score <= ctx.Margin
}

// SelectionRule represents a logic unit that can influence which move is chosen.
type SelectionRule interface {
	Name() string
	Apply(ctx *SelectionContext)
}

// DefaultRules is the pipeline used by SmartBot.
func DefaultRules() []SelectionRule {
	return []SelectionRule{&FavorCornersRule{}, &SaveMonominoRule{}}
}

// FavorCornersRule prefers near-equal moves that open more corners.
type FavorCornersRule struct{}

func (r *FavorCornersRule) Name() string { return "FavorCorners" }

func (r *FavorCornersRule) Apply(ctx *SelectionContext) {
	best := ctx.SelectedIndex
	for i := range ctx.Candidates {
		if ctx.eligible(i) && ctx.Candidates[i].NewCorners > ctx.Candidates[best].NewCorners {
			best = i
		}
	}
	ctx.SelectedIndex = best
}

// SaveMonominoRule keeps the monomino for last when a near-equal move with a
// bigger piece exists.
type SaveMonominoRule struct{}

func (r *SaveMonominoRule) Name() string { return "SaveMonomino" }

func (r *SaveMonominoRule) Apply(ctx *SelectionContext) {
	if len(ctx.Current().Move.Cells) != 1 {
		return
	}
	for i := range ctx.Candidates {
		if ctx.eligible(i) && len(ctx.Candidates[i].Move.Cells) > 1 {
			ctx.SelectedIndex = i
			return
		}
	}
}
