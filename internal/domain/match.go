package domain

import "errors"

// Phase represents the lifecycle stage of a match.
type Phase string

const (
	// PhaseInProgress indicates players are still taking turns.
	PhaseInProgress Phase = "in_progress"
	// PhaseFinished indicates no player can move anymore.
	PhaseFinished Phase = "finished"
)

var (
	ErrNoPieceSelected  = errors.New("no piece selected")
	ErrIllegalPlacement = errors.New("illegal placement")
	ErrMatchFinished    = errors.New("match already finished")
	ErrUnknownColor     = errors.New("unknown color")
)

// Placement describes a committed piece.
type Placement struct {
	Color    Color
	Shape    string
	Anchor   Point
	Rotation Rotation
	Flipped  bool
	Cells    []Point
	Score    int
	NewMoves []Point
	Turn     TurnResult
}

// TurnResult describes what happened while looking for the next player.
type TurnResult struct {
	Eliminated []Color
	Next       Color // NoColor once finished
	Finished   bool
	Result     *Result
}

// Result holds final standings.
type Result struct {
	// Winner is the unique top scorer, or NoColor when the top score is shared.
	Winner  Color
	Winners []Color
	Scores  map[Color]int
}

// Match drives the board and the four players through a game.
type Match struct {
	board   *Board
	players [NumColors]*Player
	current int
	phase   Phase
	result  *Result
}

// NewMatch creates a match on a boardSize board. names are in TurnOrder; each
// player starts with a full piece set and its first corner as the only
// candidate cell.
func NewMatch(names [NumColors]string, boardSize int) *Match {
	board := NewBoard(boardSize)
	m := &Match{board: board, phase: PhaseInProgress}
	for i, color := range TurnOrder {
		pl := NewPlayer(names[i], color, boardSize, NewPieceSet(color))
		pl.AddNewAvailableMoves([]Point{board.FirstCorner(color)})
		m.players[i] = pl
	}
	return m
}

func (m *Match) Board() *Board   { return m.board }
func (m *Match) Phase() Phase    { return m.phase }
func (m *Match) Result() *Result { return m.result }
func (m *Match) Finished() bool  { return m.phase == PhaseFinished }

// Players returns the players in turn order.
func (m *Match) Players() []*Player {
	return append([]*Player(nil), m.players[:]...)
}

// Player returns the player of a color.
func (m *Match) Player(c Color) (*Player, error) {
	idx := c.Index()
	if idx < 0 {
		return nil, ErrUnknownColor
	}
	return m.players[idx], nil
}

// CurrentPlayer returns the player whose turn it is.
func (m *Match) CurrentPlayer() *Player {
	return m.players[m.current]
}

// Place commits the current player's selected piece with its anchor at (x, y),
// refreshes candidate cells and advances the turn. A rejected placement leaves
// every piece of state untouched.
func (m *Match) Place(x, y int) (Placement, error) {
	if m.Finished() {
		return Placement{}, ErrMatchFinished
	}
	player := m.CurrentPlayer()
	piece := player.CurrentPiece()
	if piece == nil {
		return Placement{}, ErrNoPieceSelected
	}
	if !m.board.CanPlacePiece(piece, x, y) {
		return Placement{}, ErrIllegalPlacement
	}

	anchor := Point{x, y}
	color := player.Color()
	opening := !m.board.Started(color)
	piece.SetLocation(anchor)
	m.board.PlacePiece(piece, x, y)
	if opening {
		m.board.CommitFirstMove(color)
	}
	if _, err := player.PlaceCurrentPiece(); err != nil {
		panic(err)
	}

	cells := piece.Cells(anchor)
	for _, pl := range m.players {
		for _, c := range cells {
			pl.RemoveAvailableMove(c)
		}
	}
	for _, c := range cells {
		for _, d := range orthogonalOffsets {
			player.RemoveAvailableMove(c.Add(d))
		}
	}
	newMoves := m.board.DiscoverNewAvailableMoves(piece, x, y)
	player.AddNewAvailableMoves(newMoves)

	placement := Placement{
		Color:    color,
		Shape:    piece.Shape(),
		Anchor:   anchor,
		Rotation: piece.Rotation(),
		Flipped:  piece.Flipped(),
		Cells:    cells,
		Score:    player.Score(),
		NewMoves: newMoves,
	}
	placement.Turn = m.AdvanceTurn()
	return placement, nil
}

// AdvanceTurn hands the turn to the next player, in fixed color order, that
// can still move. Players already out are skipped; the others are checked on
// arrival and eliminated if stuck. When nobody can move the match finishes.
func (m *Match) AdvanceTurn() TurnResult {
	var res TurnResult
	if m.Finished() {
		res.Finished = true
		res.Result = m.result
		return res
	}
	for i := 1; i <= NumColors; i++ {
		idx := (m.current + i) % NumColors
		cand := m.players[idx]
		if !cand.StillPlaying() {
			continue
		}
		if cand.DetermineIfStillPlaying(m.board) {
			m.current = idx
			res.Next = cand.Color()
			return res
		}
		res.Eliminated = append(res.Eliminated, cand.Color())
	}
	m.finish()
	res.Finished = true
	res.Result = m.result
	return res
}

// Resign concedes for a color. If it was that color's turn, the turn advances.
func (m *Match) Resign(c Color) (TurnResult, error) {
	if m.Finished() {
		return TurnResult{}, ErrMatchFinished
	}
	pl, err := m.Player(c)
	if err != nil {
		return TurnResult{}, err
	}
	pl.Resign()
	if m.CurrentPlayer() != pl {
		return TurnResult{Next: m.CurrentPlayer().Color()}, nil
	}
	return m.AdvanceTurn(), nil
}

func (m *Match) finish() {
	m.phase = PhaseFinished
	res := &Result{Scores: make(map[Color]int, NumColors)}
	best := -1
	for _, pl := range m.players {
		res.Scores[pl.Color()] = pl.Score()
		switch {
		case pl.Score() > best:
			best = pl.Score()
			res.Winners = []Color{pl.Color()}
		case pl.Score() == best:
			res.Winners = append(res.Winners, pl.Color())
		}
	}
	if len(res.Winners) == 1 {
		res.Winner = res.Winners[0]
	}
	m.result = res
}
