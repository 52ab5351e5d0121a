package nakama

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"blockus/internal/app"
	"blockus/internal/bot"
	"blockus/internal/config"
	"blockus/internal/domain"
	"blockus/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	labelPhaseLobby   = "lobby"
	labelPhasePlaying = "playing"

	tickRate = 1 // ticks per second; turn timers count ticks
)

var errMissingCoordinates = errors.New("x and y are required")

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	MatchID   string                      `json:"match_id"`
	Seats     [domain.NumColors]string    `json:"seats"`      // user IDs by seat; empty string means open
	OwnerSeat int                         `json:"owner_seat"` // seat allowed to start the game
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"` // connected humans by user ID
	App       *app.Service                `json:"-"`
	Game      *app.Game                   `json:"-"` // nil while in the lobby
	Config    config.GameConfig           `json:"config"`

	BotWaitUntil   int64 `json:"bot_wait_until"`   // tick when the current bot acts
	LobbyWaitSince int64 `json:"lobby_wait_since"` // tick when the lobby started waiting for players
	TurnDeadline   int64 `json:"turn_deadline"`    // tick when a human turn is played for them
	LastWinnerSeat int   `json:"last_winner_seat"` // -1 when the last game tied or none was played
	GamesCompleted int   `json:"games_completed"`

	Bots       map[string]*bot.Agent `json:"-"`
	Accounts   ports.AccountPort     `json:"-"`
	Scoreboard ports.ScoreboardPort  `json:"-"`
	SeatTokens *app.SeatTokenService `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	return domain.NumColors - ms.GetOpenSeatsCount()
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !bot.IsBot(seat) {
			count++
		}
	}
	return count
}

func (ms *MatchState) seatOf(userID string) int {
	for i, id := range ms.Seats {
		if id != "" && id == userID {
			return i
		}
	}
	return -1
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userID := seats[seatIndex]
	return userID != "" && !bot.IsBot(userID)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i := range seats {
		if isHumanSeat(seats, i) {
			return i
		}
	}
	return -1
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	cfg := config.GetGameConfig()
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		cfg = cfg.WithEnv(env)
	}
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	state := &MatchState{
		MatchID:        matchID,
		OwnerSeat:      -1,
		LastWinnerSeat: app.NoWinner,
		Presences:      make(map[string]runtime.Presence),
		App:            app.NewService(cfg.BoardSize),
		Config:         cfg,
		Bots:           make(map[string]*bot.Agent),
		SeatTokens:     seatTokens,
	}
	if nk != nil {
		state.Accounts = NewNakamaAccountAdapter(nk)
		state.Scoreboard = NewNakamaScoreboardAdapter(nk, cfg.LeaderboardID)
	}

	label, err := matchLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: Match %s created (board=%d, turn=%ds).", matchID, cfg.BoardSize, cfg.TurnDurationSeconds)
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	userID := presence.GetUserId()

	// Once a game runs, only its seated players may come back.
	if matchState.Game != nil {
		seat := matchState.Game.SeatOf(userID)
		if seat < 0 {
			return state, false, "Game in progress"
		}
		if err := matchState.verifySeatToken(userID, seat, metadata[metadataSeatToken]); err != nil {
			logger.Warn("MatchJoinAttempt: User %s failed to reclaim seat %d: %v", userID, seat, err)
			return state, false, "Seat token rejected"
		}
		return state, true, ""
	}

	if matchState.seatOf(userID) >= 0 || matchState.GetOpenSeatsCount() > 0 {
		return state, true, ""
	}
	for _, seat := range matchState.Seats {
		if bot.IsBot(seat) {
			return state, true, ""
		}
	}
	return state, false, "Match full"
}

// verifySeatToken checks a reclaim token. Without a configured token service
// the authenticated user ID is enough.
func (ms *MatchState) verifySeatToken(userID string, seat int, token string) error {
	if ms.SeatTokens == nil {
		return nil
	}
	claims, err := ms.SeatTokens.Verify(token, ms.MatchID)
	if err != nil {
		return err
	}
	if claims.UserID != userID || claims.Seat != seat {
		return fmt.Errorf("token issued to %s for seat %d: %w", claims.UserID, claims.Seat, app.ErrSeatTokenInvalid)
	}
	return nil
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		if seat := matchState.seatOf(userID); seat >= 0 {
			logger.Info("MatchJoin: User %s reconnected to seat %d.", userID, seat)
			continue
		}

		// Assign seat: empty seats first, then bots while in the lobby.
		assigned := false
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = userID
				assigned = true
				break
			}
		}
		if !assigned && matchState.Game == nil {
			for i, seatUserID := range matchState.Seats {
				if bot.IsBot(seatUserID) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserID, userID, i)
					delete(matchState.Bots, seatUserID)
					matchState.Seats[i] = userID
					assigned = true
					break
				}
			}
		}
		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
		}
	}

	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match. Seats are
// freed in the lobby and kept during a game so the player can reclaim them.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		seat := matchState.seatOf(userID)
		if seat < 0 {
			continue
		}
		if matchState.Game != nil {
			logger.Info("MatchLeave: User %s disconnected, seat %d kept for the running game.", userID, seat)
			if matchState.Game.CurrentSeat() == seat {
				mh.armTurnTimer(matchState, seat)
			}
			continue
		}
		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", userID, seat)
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no connected players.")
		return nil
	}

	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpSelectPiece, OpRotateLeft, OpRotateRight, OpFlipPiece, OpPreviewMove, OpPlacePiece, OpResign:
			mh.handleGameMessage(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.processBots(ctx, matchState, dispatcher, logger)
	mh.processTurnTimeout(ctx, matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Fill the open seats of a waiting lobby with bots after a delay.
	if state.Game == nil {
		if state.GetHumanPlayerCount() == 0 || state.GetOpenSeatsCount() == 0 {
			state.LobbyWaitSince = 0
			return
		}
		if state.LobbyWaitSince == 0 {
			state.LobbyWaitSince = state.Tick
			logger.Debug("processBots: Lobby waiting for players, starting auto-fill timer.")
		}
		if state.Tick-state.LobbyWaitSince >= int64(state.Config.BotAutoFillDelaySeconds) {
			mh.fillWithBots(state, logger)
			state.LobbyWaitSince = 0
			mh.updateLabel(state, dispatcher, logger)
			mh.broadcastMatchState(state, dispatcher, logger)
		}
		return
	}

	// 2. Handle bot turns in-game.
	seat := state.Game.CurrentSeat()
	if seat < 0 {
		return
	}
	userID := state.Seats[seat]
	if !bot.IsBot(userID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		span := state.Config.BotMaxDelaySeconds - state.Config.BotMinDelaySeconds
		if span < 0 {
			span = 0
		}
		delay := rand.Intn(span+1) + state.Config.BotMinDelaySeconds
		state.BotWaitUntil = state.Tick + int64(delay)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", userID, seat, state.BotWaitUntil, state.Tick)
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[userID]
	if !exists {
		var err error
		agent, err = bot.NewAgent(userID)
		if err != nil {
			logger.Error("processBots: Failed to create agent for %s: %v", userID, err)
			return
		}
		state.Bots[userID] = agent
	}

	move, err := agent.Play(state.Game)
	if err != nil {
		logger.Error("processBots: Bot %s failed to calculate move: %v", userID, err)
		move = bot.Move{Resign: true}
	}
	mh.applyMove(ctx, state, dispatcher, logger, seat, move)
}

// fillWithBots seats a distinct bot in every open seat.
func (mh *matchHandler) fillWithBots(state *MatchState, logger runtime.Logger) {
	used := make(map[string]bool, domain.NumColors)
	for _, id := range state.Seats {
		used[id] = true
	}
	for i, seat := range state.Seats {
		if seat != "" {
			continue
		}
		identity := pickBotIdentity(used, i)
		used[identity.UserID] = true
		state.Seats[i] = identity.UserID

		agent, err := bot.NewAgent(identity.UserID)
		if err != nil {
			logger.Error("fillWithBots: Failed to create bot agent for %s: %v", identity.UserID, err)
		} else {
			state.Bots[identity.UserID] = agent
		}
		logger.Info("fillWithBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
	}
}

func pickBotIdentity(used map[string]bool, seat int) bot.BotIdentity {
	for i := 0; i < domain.NumColors*2; i++ {
		identity := bot.GetBotIdentity(seat + i)
		if !used[identity.UserID] {
			return identity
		}
	}
	return bot.BotIdentity{
		UserID:      fmt.Sprintf("%s%d", bot.FallbackIDPrefix, seat),
		DisplayName: fmt.Sprintf("AI %d", seat),
	}
}

// processTurnTimeout plays the cheapest legal move for a human whose turn
// timer ran out, or resigns them when none is left.
func (mh *matchHandler) processTurnTimeout(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil || state.TurnDeadline == 0 || state.Tick < state.TurnDeadline {
		return
	}
	state.TurnDeadline = 0

	seat := state.Game.CurrentSeat()
	if !isHumanSeat(state.Seats[:], seat) {
		return
	}
	logger.Info("processTurnTimeout: Turn timer expired for %s (seat %d).", state.Seats[seat], seat)

	move, err := (&bot.EasyBot{}).CalculateMove(state.Game, seat)
	if err != nil {
		logger.Error("processTurnTimeout: Failed to find a move for seat %d: %v", seat, err)
		move = bot.Move{Resign: true}
	}
	mh.applyMove(ctx, state, dispatcher, logger, seat, move)
}

// applyMove plays a searched move for seat. A move the game rejects turns
// into a resignation so the match cannot stall on it.
func (mh *matchHandler) applyMove(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, seat int, move bot.Move) {
	var (
		events []app.Event
		err    error
	)
	if !move.Resign {
		events, err = state.App.PlayMove(state.Game, seat, move.Placement)
		if err != nil {
			logger.Error("applyMove: Seat %d move %s at %v rejected: %v", seat, move.Placement.Shape, move.Placement.Anchor, err)
		}
	}
	if move.Resign || err != nil {
		events, err = state.App.Resign(state.Game, seat)
		if err != nil {
			logger.Error("applyMove: Seat %d failed to resign: %v", seat, err)
			return
		}
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

// armTurnTimer sets the deadline for a human turn. Disconnected players get
// the bot delay instead of the full turn.
func (mh *matchHandler) armTurnTimer(state *MatchState, seat int) {
	state.TurnDeadline = 0
	if !isHumanSeat(state.Seats[:], seat) {
		return
	}
	duration := state.Config.TurnDurationSeconds
	if _, online := state.Presences[state.Seats[seat]]; !online {
		duration = state.Config.BotMaxDelaySeconds
	}
	state.TurnDeadline = state.Tick + int64(duration)
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.seatOf(senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil {
		mh.sendError(state, dispatcher, logger, senderID, 409, "game already running")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the owner can start the game")
		return
	}
	if occupied := state.GetOccupiedSeatCount(); occupied < app.PlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need %d.", occupied, app.PlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, 409, app.ErrSeatsNotFilled.Error())
		return
	}

	game, events, err := state.App.StartGame(state.Seats, mh.seatNames(ctx, state, logger))
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}
	state.Game = game

	// Fresh agents so per-game memory does not leak between games.
	for _, userID := range state.Seats {
		if !bot.IsBot(userID) {
			continue
		}
		agent, err := bot.NewAgent(userID)
		if err != nil {
			logger.Error("StartGame: Failed to create bot agent for %s: %v", userID, err)
			continue
		}
		state.Bots[userID] = agent
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
	logger.Info("StartGame: Game started on a %dx%d board.", state.App.BoardSize(), state.App.BoardSize())
}

// seatNames resolves display names for every seat. Lookup failures fall back
// to presence usernames.
func (mh *matchHandler) seatNames(ctx context.Context, state *MatchState, logger runtime.Logger) [domain.NumColors]string {
	var names [domain.NumColors]string
	var humans []string
	for _, userID := range state.Seats {
		if userID != "" && !bot.IsBot(userID) {
			humans = append(humans, userID)
		}
	}

	var resolved map[string]string
	if state.Accounts != nil && len(humans) > 0 {
		var err error
		resolved, err = state.Accounts.DisplayNames(ctx, humans)
		if err != nil {
			logger.Warn("seatNames: Failed to fetch display names: %v", err)
		}
	}
	for i, userID := range state.Seats {
		if name := resolved[userID]; name != "" {
			names[i] = name
			continue
		}
		names[i] = displayName(state, userID)
	}
	return names
}

func displayName(state *MatchState, userID string) string {
	if p, ok := state.Presences[userID]; ok && p.GetUsername() != "" {
		return p.GetUsername()
	}
	if name := bot.GetBotDisplayName(userID); name != "" {
		return name
	}
	return userID
}

// handleGameMessage routes an in-game client request to the app service.
func (mh *matchHandler) handleGameMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Game == nil {
		logger.Warn("handleGameMessage: Op %d from %s before the game started.", msg.GetOpCode(), senderID)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(app.ErrNotPlaying), app.ErrNotPlaying.Error())
		return
	}
	seat := state.Game.SeatOf(senderID)

	req, err := decodeRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleGameMessage: Invalid payload for op %d from %s: %v", msg.GetOpCode(), senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid payload")
		return
	}

	var events []app.Event
	switch msg.GetOpCode() {
	case OpSelectPiece:
		index, ok := intField(req, "index")
		if !ok {
			err = app.ErrInvalidPiece
			break
		}
		events, err = state.App.SelectPiece(state.Game, seat, index)
	case OpRotateLeft:
		events, err = state.App.RotateLeft(state.Game, seat)
	case OpRotateRight:
		events, err = state.App.RotateRight(state.Game, seat)
	case OpFlipPiece:
		events, err = state.App.Flip(state.Game, seat)
	case OpPreviewMove:
		x, okX := numberField(req, "x")
		y, okY := numberField(req, "y")
		if !okX || !okY {
			err = errMissingCoordinates
			break
		}
		events, err = state.App.MovePreview(state.Game, seat, x, y)
	case OpPlacePiece:
		x, okX := intField(req, "x")
		y, okY := intField(req, "y")
		if !okX || !okY {
			err = errMissingCoordinates
			break
		}
		events, err = state.App.PlacePiece(state.Game, seat, x, y)
	case OpResign:
		events, err = state.App.Resign(state.Game, seat)
	}

	if err != nil {
		logger.Warn("handleGameMessage: User %s (seat %d) op %d failed: %v", senderID, seat, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, errorCode(err), err.Error())
		return
	}
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotYourTurn):
		return 403
	case errors.Is(err, app.ErrUnknownPlayer):
		return 404
	case errors.Is(err, app.ErrNotPlaying), errors.Is(err, domain.ErrMatchFinished):
		return 409
	default:
		return 400
	}
}

func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastEvent sends an app event to clients and applies its side effects
// on the match: bot memory, turn timers and end-of-game bookkeeping.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	for _, agent := range state.Bots {
		agent.OnGameEvent(ev)
	}

	opCode, fields, err := eventMessage(ev)
	if err != nil {
		logger.Warn("broadcastEvent: %v", err)
		return
	}
	bytes, err := encodeMessage(fields)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}
	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("broadcastEvent: Failed to send %v: %v", ev.Kind, err)
	}

	switch p := ev.Payload.(type) {
	case app.TurnChangedPayload:
		mh.armTurnTimer(state, p.Seat)
	case app.GameEndedPayload:
		mh.finishGame(ctx, state, dispatcher, logger, p)
	}
}

// finishGame records results and returns the match to the lobby. Seats of
// players who disconnected during the game are released.
func (mh *matchHandler) finishGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, result app.GameEndedPayload) {
	mh.recordResults(ctx, state, logger, result)

	state.LastWinnerSeat = result.WinnerSeat
	state.GamesCompleted++
	state.Game = nil
	state.TurnDeadline = 0
	state.BotWaitUntil = 0
	for i, userID := range state.Seats {
		if isHumanSeat(state.Seats[:], i) {
			if _, online := state.Presences[userID]; !online {
				state.Seats[i] = ""
			}
		}
	}
	if !isHumanSeat(state.Seats[:], state.OwnerSeat) {
		state.OwnerSeat = findFirstHumanSeat(state.Seats[:])
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastMatchState(state, dispatcher, logger)
}

func (mh *matchHandler) recordResults(ctx context.Context, state *MatchState, logger runtime.Logger, result app.GameEndedPayload) {
	if state.Scoreboard == nil {
		return
	}
	entries := make([]ports.ScoreEntry, 0, domain.NumColors)
	for seat, userID := range state.Seats {
		if !isHumanSeat(state.Seats[:], seat) {
			continue
		}
		color := domain.TurnOrder[seat].String()
		entries = append(entries, ports.ScoreEntry{
			UserID:   userID,
			Username: displayName(state, userID),
			Color:    color,
			Score:    int64(result.Scores[seat]),
			Won:      result.WinnerSeat == seat,
			Metadata: map[string]interface{}{
				"match_id": state.MatchID,
				"color":    color,
			},
		})
	}
	if len(entries) == 0 {
		return
	}
	if err := state.Scoreboard.RecordResults(ctx, entries); err != nil {
		logger.Error("recordResults: Failed to record %d results: %v", len(entries), err)
	}
}

func (mh *matchHandler) broadcastMatchState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	seats := make([]interface{}, 0, domain.NumColors)
	players := make([]interface{}, 0, domain.NumColors)
	for i, userID := range state.Seats {
		seats = append(seats, userID)
		if userID == "" {
			continue
		}
		_, connected := state.Presences[userID]
		player := map[string]interface{}{
			"user_id":      userID,
			"seat":         i,
			"color":        domain.TurnOrder[i].String(),
			"display_name": displayName(state, userID),
			"is_owner":     i == state.OwnerSeat,
			"is_bot":       bot.IsBot(userID),
			"connected":    connected,
		}
		if state.Game != nil {
			if pl, err := state.Game.Player(i); err == nil {
				player["score"] = pl.Score()
				player["pieces_left"] = pl.PoolSize()
				player["still_playing"] = pl.StillPlaying()
			}
		}
		players = append(players, player)
	}

	snapshot := map[string]interface{}{
		"seats":            seats,
		"owner_seat":       state.OwnerSeat,
		"tick":             state.Tick,
		"phase":            labelPhase(state),
		"players":          players,
		"last_winner_seat": state.LastWinnerSeat,
	}
	if state.Game != nil {
		snapshot["board"] = boardRows(state.Game.Match.Board())
		snapshot["current_seat"] = state.Game.CurrentSeat()
	}

	bytes, err := encodeMessage(snapshot)
	if err != nil {
		logger.Error("broadcastMatchState: Failed to marshal snapshot: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpMatchState, bytes, nil, nil, true); err != nil {
		logger.Error("broadcastMatchState: Failed to send snapshot: %v", err)
	}
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	bytes, err := encodeMessage(map[string]interface{}{"code": code, "message": message})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("sendError: Failed to send to %s: %v", userID, err)
	}
}

func labelPhase(state *MatchState) string {
	if state.Game != nil {
		return labelPhasePlaying
	}
	return labelPhaseLobby
}

func matchLabel(state *MatchState) (string, error) {
	label, err := structpb.NewStruct(map[string]interface{}{
		"game":  LabelGame,
		"open":  state.GetOpenSeatsCount(),
		"phase": labelPhase(state),
	})
	if err != nil {
		return "", err
	}
	bytes, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := matchLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

// MatchSignal answers seat lookups from the seat token RPC.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	req, err := decodeRequest([]byte(data))
	if err != nil || stringField(req, "op") != signalSeatOf {
		logger.Warn("MatchSignal: Unsupported signal %q", data)
		return state, ""
	}

	seat := matchState.seatOf(stringField(req, "user_id"))
	reply, err := encodeMessage(map[string]interface{}{
		"seat":    seat,
		"playing": matchState.Game != nil,
	})
	if err != nil {
		logger.Error("MatchSignal: Failed to marshal reply: %v", err)
		return state, ""
	}
	return state, string(reply)
}
