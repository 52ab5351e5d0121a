package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"
	// RpcSeatToken issues a token that lets a disconnected player reclaim their seat.
	RpcSeatToken = "seat_token"
	// RpcPlayerStats returns the caller's accumulated results.
	RpcPlayerStats = "player_stats"

	// MatchNameBlockus is the authoritative match handler name registered with Nakama.
	MatchNameBlockus = "blockus_match"

	// LabelGame is the "game" value every match label carries.
	LabelGame = "blockus"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame   int64 = 1
	OpSelectPiece int64 = 2
	OpRotateLeft  int64 = 3
	OpRotateRight int64 = 4
	OpFlipPiece   int64 = 5
	OpPreviewMove int64 = 6
	OpPlacePiece  int64 = 7
	OpResign      int64 = 8

	// Server -> Client events
	OpMatchState       int64 = 100
	OpGameStarted      int64 = 101
	OpPieceSelected    int64 = 102
	OpPieceTransformed int64 = 103
	OpPiecePreviewed   int64 = 104
	OpPiecePlaced      int64 = 105
	OpPlayerEliminated int64 = 106
	OpTurnChanged      int64 = 107
	OpGameEnded        int64 = 108
	OpGameError        int64 = 109
)

// Match metadata and signal keys.
const (
	metadataSeatToken = "seat_token"
	signalSeatOf      = "seat_of"
)

// Storage layout for per-user stats.
const (
	statsCollection = "blockus_stats"
	statsKey        = "summary"
)
