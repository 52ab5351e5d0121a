package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"blockus/internal/app"
	"blockus/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used by RPC errors.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
	codeUnauthenticated    = 16
)

// seatTokens signs seat reclaim tokens; nil when no secret is configured.
var seatTokens *app.SeatTokenService

// SeatTokenResponse is returned by the seat token RPC.
type SeatTokenResponse struct {
	Token     string `json:"token"`
	Seat      int    `json:"seat"`
	ExpiresIn int    `json:"expires_in"`
}

type seatTokenRequest struct {
	MatchID string `json:"match_id"`
}

// rpcSeatToken issues a token for the caller's seat in a match. Clients pass
// it as join metadata to reclaim the seat after a disconnect.
func rpcSeatToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	if seatTokens == nil {
		return "", runtime.NewError("seat tokens are not configured", codeUnavailable)
	}

	var req seatTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.MatchID == "" {
		return "", runtime.NewError("match_id is required", codeInvalidArgument)
	}

	signal, err := encodeMessage(map[string]interface{}{"op": signalSeatOf, "user_id": userID})
	if err != nil {
		return "", runtime.NewError("failed to build signal", codeInternal)
	}
	reply, err := nk.MatchSignal(ctx, req.MatchID, string(signal))
	if err != nil {
		logger.Warn("rpcSeatToken: Signal to match %s failed: %v", req.MatchID, err)
		return "", runtime.NewError("match not found", codeNotFound)
	}
	decoded, err := decodeRequest([]byte(reply))
	if err != nil {
		return "", runtime.NewError("unexpected match reply", codeInternal)
	}
	seat, ok := intField(decoded, "seat")
	if !ok || seat < 0 {
		return "", runtime.NewError("caller holds no seat in this match", codeFailedPrecondition)
	}

	token, err := seatTokens.Issue(req.MatchID, userID, seat)
	if err != nil {
		logger.Error("rpcSeatToken: Failed to issue token for %s: %v", userID, err)
		return "", runtime.NewError("failed to issue token", codeInternal)
	}

	resp := SeatTokenResponse{
		Token:     token,
		Seat:      seat,
		ExpiresIn: int(seatTokens.TTL().Seconds()),
	}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

// rpcPlayerStats returns the caller's accumulated results.
func rpcPlayerStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}

	cfg := config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		cfg = cfg.WithEnv(env)
	}
	stats, err := NewNakamaScoreboardAdapter(nk, cfg.LeaderboardID).Stats(ctx, userID)
	if err != nil {
		logger.Error("rpcPlayerStats: Failed to read stats for %s: %v", userID, err)
		return "", runtime.NewError("failed to read stats", codeInternal)
	}
	b, _ := json.Marshal(stats)
	return string(b), nil
}
