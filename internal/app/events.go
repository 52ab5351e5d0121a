package app

import "blockus/internal/domain"

// EventKind identifies emitted domain events for transport dispatch.
type EventKind string

const (
	EventGameStarted      EventKind = "game_started"
	EventPieceSelected    EventKind = "piece_selected"
	EventPieceTransformed EventKind = "piece_transformed"
	EventPiecePreviewed   EventKind = "piece_previewed"
	EventPiecePlaced      EventKind = "piece_placed"
	EventPlayerEliminated EventKind = "player_eliminated"
	EventTurnChanged      EventKind = "turn_changed"
	EventGameEnded        EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

type GameStartedPayload struct {
	BoardSize     int                      `json:"board_size"`
	Seats         [domain.NumColors]string `json:"seats"`
	FirstTurnSeat int                      `json:"first_turn_seat"`
}

type PieceSelectedPayload struct {
	Seat    int            `json:"seat"`
	Color   domain.Color   `json:"color"`
	Index   int            `json:"index"` // domain.NoSelection when cleared
	Shape   string         `json:"shape"`
	Squares []domain.Point `json:"squares"`
}

type PieceTransformedPayload struct {
	Seat     int             `json:"seat"`
	Color    domain.Color    `json:"color"`
	Index    int             `json:"index"`
	Rotation domain.Rotation `json:"rotation"`
	Flipped  bool            `json:"flipped"`
	Squares  []domain.Point  `json:"squares"`
}

type PiecePreviewedPayload struct {
	Seat   int            `json:"seat"`
	Color  domain.Color   `json:"color"`
	Anchor domain.Point   `json:"anchor"`
	Cells  []domain.Point `json:"cells"`
	Legal  bool           `json:"legal"`
}

type PiecePlacedPayload struct {
	Seat       int             `json:"seat"`
	Color      domain.Color    `json:"color"`
	Shape      string          `json:"shape"`
	Anchor     domain.Point    `json:"anchor"`
	Rotation   domain.Rotation `json:"rotation"`
	Flipped    bool            `json:"flipped"`
	Cells      []domain.Point  `json:"cells"`
	Score      int             `json:"score"`
	PiecesLeft int             `json:"pieces_left"`
}

type PlayerEliminatedPayload struct {
	Seat     int          `json:"seat"`
	Color    domain.Color `json:"color"`
	Score    int          `json:"score"`
	Resigned bool         `json:"resigned"`
}

type TurnChangedPayload struct {
	Seat           int          `json:"seat"`
	Color          domain.Color `json:"color"`
	AvailableMoves int          `json:"available_moves"`
}

type GameEndedPayload struct {
	WinnerSeat  int                   `json:"winner_seat"` // -1 on a shared top score
	WinnerSeats []int                 `json:"winner_seats"`
	Scores      [domain.NumColors]int `json:"scores"`
}
