package bot

import botinternal "blockus/internal/bot/internal"

const finishBonus = 50.0

// DefaultTuning pushes toward the centre early, trades size for corners in the
// middle game and cashes in every square at the end.
var DefaultTuning = botinternal.BotTuning{
	Opening: botinternal.PhaseWeights{
		PieceSizeWeight:  2.0,
		NewCornerWeight:  1.0,
		LostCornerWeight: 0.5,
		DenyCornerWeight: 0.5,
		CenterWeight:     0.8,
		MonominoPenalty:  8.0,
		FinishBonus:      finishBonus,
	},
	Mid: botinternal.PhaseWeights{
		PieceSizeWeight:  2.0,
		NewCornerWeight:  1.5,
		LostCornerWeight: 0.8,
		DenyCornerWeight: 1.2,
		CenterWeight:     0.2,
		MonominoPenalty:  6.0,
		FinishBonus:      finishBonus,
	},
	End: botinternal.PhaseWeights{
		PieceSizeWeight:   3.0,
		NewCornerWeight:   2.0,
		LostCornerWeight:  1.0,
		DenyCornerWeight:  0.8,
		MonominoPenalty:   2.0,
		FinishBonus:       finishBonus,
		MonominoLastBonus: 20.0,
	},
}
