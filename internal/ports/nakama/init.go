package nakama

import (
	"context"
	"database/sql"
	"time"

	"blockus/internal/app"
	"blockus/internal/bot"
	"blockus/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	gameConfigPath     = "data/game_config.json"
	botIdentitiesPath  = "data/bot_identities.json"
	envSeatTokenSecret = "blockus_seat_token_secret"
)

// InitModule wires RPCs, hooks and match handlers for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Warn("InitModule: Using default game config: %v", err)
	}
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	cfg := config.GetGameConfig().WithEnv(env)

	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	}
	bot.ProvisionBots(ctx, nk, logger)

	if err := nk.LeaderboardCreate(ctx, cfg.LeaderboardID, true, "desc", "best", "", map[string]interface{}{"game": LabelGame}, true); err != nil {
		logger.Error("InitModule: Failed to create leaderboard %s: %v", cfg.LeaderboardID, err)
		return err
	}

	if secret := env[envSeatTokenSecret]; secret != "" {
		seatTokens = app.NewSeatTokenService(secret, LabelGame, time.Duration(cfg.SeatTokenTTLSeconds)*time.Second)
	} else {
		logger.Warn("InitModule: %s is not set; seats are reclaimed by user ID alone.", envSeatTokenSecret)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameBlockus, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	logger.Info("Blockus Go module loaded (board=%d, leaderboard=%s).", cfg.BoardSize, cfg.LeaderboardID)
	return nil
}
