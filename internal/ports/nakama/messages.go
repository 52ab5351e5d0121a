package nakama

import (
	"fmt"

	"blockus/internal/app"
	"blockus/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire messages are JSON objects. They are built as structpb values so the
// same protojson codec serves labels, events and requests.

func pointsToList(pts []domain.Point) []interface{} {
	out := make([]interface{}, 0, len(pts))
	for _, p := range pts {
		out = append(out, pointToMap(p))
	}
	return out
}

func pointToMap(p domain.Point) map[string]interface{} {
	return map[string]interface{}{"x": p.X, "y": p.Y}
}

func intsToList(in []int) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}

// eventMessage maps an app event to its op code and wire fields.
func eventMessage(ev app.Event) (int64, map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.GameStartedPayload:
		seats := make([]interface{}, 0, len(p.Seats))
		for _, s := range p.Seats {
			seats = append(seats, s)
		}
		return OpGameStarted, map[string]interface{}{
			"board_size":      p.BoardSize,
			"seats":           seats,
			"first_turn_seat": p.FirstTurnSeat,
		}, nil
	case app.PieceSelectedPayload:
		return OpPieceSelected, map[string]interface{}{
			"seat":    p.Seat,
			"color":   p.Color.String(),
			"index":   p.Index,
			"shape":   p.Shape,
			"squares": pointsToList(p.Squares),
		}, nil
	case app.PieceTransformedPayload:
		return OpPieceTransformed, map[string]interface{}{
			"seat":     p.Seat,
			"color":    p.Color.String(),
			"index":    p.Index,
			"rotation": p.Rotation.Degrees(),
			"flipped":  p.Flipped,
			"squares":  pointsToList(p.Squares),
		}, nil
	case app.PiecePreviewedPayload:
		return OpPiecePreviewed, map[string]interface{}{
			"seat":   p.Seat,
			"color":  p.Color.String(),
			"anchor": pointToMap(p.Anchor),
			"cells":  pointsToList(p.Cells),
			"legal":  p.Legal,
		}, nil
	case app.PiecePlacedPayload:
		return OpPiecePlaced, map[string]interface{}{
			"seat":        p.Seat,
			"color":       p.Color.String(),
			"shape":       p.Shape,
			"anchor":      pointToMap(p.Anchor),
			"rotation":    p.Rotation.Degrees(),
			"flipped":     p.Flipped,
			"cells":       pointsToList(p.Cells),
			"score":       p.Score,
			"pieces_left": p.PiecesLeft,
		}, nil
	case app.PlayerEliminatedPayload:
		return OpPlayerEliminated, map[string]interface{}{
			"seat":     p.Seat,
			"color":    p.Color.String(),
			"score":    p.Score,
			"resigned": p.Resigned,
		}, nil
	case app.TurnChangedPayload:
		return OpTurnChanged, map[string]interface{}{
			"seat":            p.Seat,
			"color":           p.Color.String(),
			"available_moves": p.AvailableMoves,
		}, nil
	case app.GameEndedPayload:
		return OpGameEnded, map[string]interface{}{
			"winner_seat":  p.WinnerSeat,
			"winner_seats": intsToList(p.WinnerSeats),
			"scores":       intsToList(p.Scores[:]),
		}, nil
	}
	return 0, nil, fmt.Errorf("unknown event %q with payload %T", ev.Kind, ev.Payload)
}

func boardRows(b *domain.Board) []interface{} {
	rows := b.Rows()
	out := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	return out
}

func encodeMessage(fields map[string]interface{}) ([]byte, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(msg)
}

// decodeRequest parses a client payload. An empty payload is an empty request.
func decodeRequest(data []byte) (*structpb.Struct, error) {
	req := &structpb.Struct{}
	if len(data) == 0 {
		return req, nil
	}
	if err := protojson.Unmarshal(data, req); err != nil {
		return nil, err
	}
	return req, nil
}

func numberField(req *structpb.Struct, key string) (float64, bool) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return n.NumberValue, true
}

func intField(req *structpb.Struct, key string) (int, bool) {
	n, ok := numberField(req, key)
	if !ok || n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}
