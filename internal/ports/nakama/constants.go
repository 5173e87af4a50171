package nakama

const (
	// RpcQuickTable is the Nakama RPC id clients call to find or create an
	// open table.
	RpcQuickTable = "quick_table"

	// RpcTableToken is the Nakama RPC id clients call to mint a table
	// session token for rejoin or spectating.
	RpcTableToken = "table_token"

	// MatchNameUno is the authoritative match handler name registered with
	// Nakama.
	MatchNameUno = "uno_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpSeatRequest int64 = 1 // relay slot write (join/draw/leave/uno/challenge)
	OpPlayRequest int64 = 2 // optimistic card play
	OpStartMatch  int64 = 3
	OpResetMatch  int64 = 4

	// Server -> Client events
	OpSnapshot   int64 = 101
	OpSound      int64 = 102
	OpPlayDenied int64 = 103 // send privately
)
