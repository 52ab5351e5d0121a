package app

import (
	"errors"
	"fmt"

	"blockus/internal/domain"
)

// Game binds a domain match to the users sitting at it. Seat i plays
// domain.TurnOrder[i].
type Game struct {
	Match *domain.Match
	Seats [domain.NumColors]string
}

// SeatOf returns the seat of a user or -1.
func (g *Game) SeatOf(userID string) int {
	for i, id := range g.Seats {
		if id != "" && id == userID {
			return i
		}
	}
	return -1
}

// CurrentSeat returns the seat whose turn it is, or -1 once finished.
func (g *Game) CurrentSeat() int {
	if g.Match.Finished() {
		return -1
	}
	return g.Match.CurrentPlayer().Color().Index()
}

// Player returns the domain player sitting at seat.
func (g *Game) Player(seat int) (*domain.Player, error) {
	if seat < 0 || seat >= domain.NumColors {
		return nil, ErrUnknownPlayer
	}
	return g.Match.Player(domain.TurnOrder[seat])
}

// Service contains Blockus use-cases operating on domain state.
type Service struct {
	boardSize int
}

// NewService constructs a Service for boards of the given size; zero selects
// domain.DefaultBoardSize.
func NewService(boardSize int) *Service {
	if boardSize <= 0 {
		boardSize = domain.DefaultBoardSize
	}
	return &Service{boardSize: boardSize}
}

var (
	ErrNotPlaying      = errors.New("match not in playing phase")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrUnknownPlayer   = errors.New("player not found")
	ErrSeatsNotFilled  = errors.New("every seat must be filled to start")
	ErrDuplicatePlayer = errors.New("player holds more than one seat")
	ErrInvalidPiece    = errors.New("piece index out of range")
)

// BoardSize reports the board dimension used for new games.
func (s *Service) BoardSize() int { return s.boardSize }

// StartGame creates a match for four seated users. names are display names by
// seat; an empty name falls back to the user ID.
func (s *Service) StartGame(seats, names [domain.NumColors]string) (*Game, []Event, error) {
	seen := make(map[string]bool, domain.NumColors)
	for i, userID := range seats {
		if userID == "" {
			return nil, nil, ErrSeatsNotFilled
		}
		if seen[userID] {
			return nil, nil, ErrDuplicatePlayer
		}
		seen[userID] = true
		if names[i] == "" {
			names[i] = userID
		}
	}

	game := &Game{
		Match: domain.NewMatch(names, s.boardSize),
		Seats: seats,
	}

	first := game.CurrentSeat()
	events := []Event{
		{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				BoardSize:     s.boardSize,
				Seats:         seats,
				FirstTurnSeat: first,
			},
		},
		s.turnChangedEvent(game),
	}
	return game, events, nil
}

// SelectPiece picks a piece from the actor's pool. domain.NoSelection clears
// the selection.
func (s *Service) SelectPiece(game *Game, seat, index int) ([]Event, error) {
	pl, err := s.actingPlayer(game, seat)
	if err != nil {
		return nil, err
	}
	if index != domain.NoSelection && (index < 0 || index >= pl.PoolSize()) {
		return nil, ErrInvalidPiece
	}
	pl.SetCurrentPiece(index)

	payload := PieceSelectedPayload{Seat: seat, Color: pl.Color(), Index: pl.CurrentIndex()}
	if pc := pl.CurrentPiece(); pc != nil {
		payload.Shape = pc.Shape()
		payload.Squares = pc.Squares()
	}
	return []Event{{Kind: EventPieceSelected, Payload: payload}}, nil
}

// RotateLeft turns the actor's selection counter-clockwise.
func (s *Service) RotateLeft(game *Game, seat int) ([]Event, error) {
	return s.transform(game, seat, (*domain.Player).RotateLeft)
}

// RotateRight turns the actor's selection clockwise.
func (s *Service) RotateRight(game *Game, seat int) ([]Event, error) {
	return s.transform(game, seat, (*domain.Player).RotateRight)
}

// Flip mirrors the actor's selection.
func (s *Service) Flip(game *Game, seat int) ([]Event, error) {
	return s.transform(game, seat, (*domain.Player).Flip)
}

func (s *Service) transform(game *Game, seat int, fn func(*domain.Player) bool) ([]Event, error) {
	pl, err := s.actingPlayer(game, seat)
	if err != nil {
		return nil, err
	}
	if !fn(pl) {
		return nil, domain.ErrNoPieceSelected
	}
	pc := pl.CurrentPiece()
	return []Event{{
		Kind: EventPieceTransformed,
		Payload: PieceTransformedPayload{
			Seat:     seat,
			Color:    pl.Color(),
			Index:    pl.CurrentIndex(),
			Rotation: pc.Rotation(),
			Flipped:  pc.Flipped(),
			Squares:  pc.Squares(),
		},
	}}, nil
}

// MovePreview snaps the selection under a cursor position given in board
// cells and reports where it would land and whether it could be placed there.
func (s *Service) MovePreview(game *Game, seat int, fx, fy float64) ([]Event, error) {
	pl, err := s.actingPlayer(game, seat)
	if err != nil {
		return nil, err
	}
	anchor, ok := pl.MoveCurrentPiece(fx, fy)
	if !ok {
		return nil, domain.ErrNoPieceSelected
	}
	pc := pl.CurrentPiece()
	return []Event{{
		Kind: EventPiecePreviewed,
		Payload: PiecePreviewedPayload{
			Seat:   seat,
			Color:  pl.Color(),
			Anchor: anchor,
			Cells:  pc.Cells(anchor),
			Legal:  game.Match.Board().CanPlacePiece(pc, anchor.X, anchor.Y),
		},
	}}, nil
}

// PlacePiece commits the actor's selection with its anchor at (x, y).
func (s *Service) PlacePiece(game *Game, seat, x, y int) ([]Event, error) {
	pl, err := s.actingPlayer(game, seat)
	if err != nil {
		return nil, err
	}
	placement, err := game.Match.Place(x, y)
	if err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventPiecePlaced,
		Payload: PiecePlacedPayload{
			Seat:       seat,
			Color:      placement.Color,
			Shape:      placement.Shape,
			Anchor:     placement.Anchor,
			Rotation:   placement.Rotation,
			Flipped:    placement.Flipped,
			Cells:      placement.Cells,
			Score:      placement.Score,
			PiecesLeft: pl.PoolSize(),
		},
	}}
	return append(events, s.turnEvents(game, placement.Turn)...), nil
}

// PlayMove selects, orients and places a move found by search, as bots and
// timed-out turns do.
func (s *Service) PlayMove(game *Game, seat int, mv domain.Move) ([]Event, error) {
	pl, err := s.actingPlayer(game, seat)
	if err != nil {
		return nil, err
	}
	if mv.PieceIndex < 0 || mv.PieceIndex >= pl.PoolSize() {
		return nil, ErrInvalidPiece
	}
	pl.SetCurrentPiece(mv.PieceIndex)
	if pc := pl.CurrentPiece(); pc.Shape() != mv.Shape {
		pl.SetCurrentPiece(domain.NoSelection)
		return nil, fmt.Errorf("move for %s does not match pool piece %s: %w", mv.Shape, pc.Shape(), ErrInvalidPiece)
	}
	pl.CurrentPiece().Orient(mv.Rotation, mv.Flipped)
	return s.PlacePiece(game, seat, mv.Anchor.X, mv.Anchor.Y)
}

// Resign concedes for seat. Resigning is allowed out of turn.
func (s *Service) Resign(game *Game, seat int) ([]Event, error) {
	if game.Match.Finished() {
		return nil, ErrNotPlaying
	}
	pl, err := game.Player(seat)
	if err != nil {
		return nil, err
	}
	if !pl.StillPlaying() {
		return nil, fmt.Errorf("seat %d resigning: %w", seat, ErrNotPlaying)
	}
	wasCurrent := game.CurrentSeat() == seat
	res, err := game.Match.Resign(pl.Color())
	if err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventPlayerEliminated,
		Payload: PlayerEliminatedPayload{
			Seat:     seat,
			Color:    pl.Color(),
			Score:    pl.Score(),
			Resigned: true,
		},
	}}
	if !wasCurrent {
		return events, nil
	}
	return append(events, s.turnEvents(game, res)...), nil
}

func (s *Service) actingPlayer(game *Game, seat int) (*domain.Player, error) {
	if game == nil || game.Match.Finished() {
		return nil, ErrNotPlaying
	}
	if seat < 0 || seat >= domain.NumColors {
		return nil, ErrUnknownPlayer
	}
	if game.CurrentSeat() != seat {
		return nil, ErrNotYourTurn
	}
	return game.Match.CurrentPlayer(), nil
}

func (s *Service) turnEvents(game *Game, res domain.TurnResult) []Event {
	events := make([]Event, 0, len(res.Eliminated)+1)
	for _, c := range res.Eliminated {
		pl, _ := game.Match.Player(c)
		events = append(events, Event{
			Kind: EventPlayerEliminated,
			Payload: PlayerEliminatedPayload{
				Seat:  c.Index(),
				Color: c,
				Score: pl.Score(),
			},
		})
	}
	if res.Finished {
		return append(events, gameEndedEvent(res.Result))
	}
	return append(events, s.turnChangedEvent(game))
}

func (s *Service) turnChangedEvent(game *Game) Event {
	pl := game.Match.CurrentPlayer()
	return Event{
		Kind: EventTurnChanged,
		Payload: TurnChangedPayload{
			Seat:           pl.Color().Index(),
			Color:          pl.Color(),
			AvailableMoves: pl.AvailableMoveCount(),
		},
	}
}

func gameEndedEvent(res *domain.Result) Event {
	payload := GameEndedPayload{WinnerSeat: NoWinner}
	if res.Winner != domain.NoColor {
		payload.WinnerSeat = res.Winner.Index()
	}
	for _, c := range res.Winners {
		payload.WinnerSeats = append(payload.WinnerSeats, c.Index())
	}
	for c, score := range res.Scores {
		payload.Scores[c.Index()] = score
	}
	return Event{Kind: EventGameEnded, Payload: payload}
}
