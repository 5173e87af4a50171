package nakama

// SeatRequestMessage is the OpSeatRequest payload: one replicated relay
// slot targeting the sender's mailbox seat. The sequence number comes
// from the client and only has to be monotonic per seat occupant.
type SeatRequestMessage struct {
	Seat int   `json:"seat"`
	Seq  int64 `json:"seq"`
	Type int   `json:"type"`
}

// PlayRequestMessage is the OpPlayRequest payload.
type PlayRequestMessage struct {
	CardID int `json:"card_id"`
}

// SoundMessage is the OpSound payload.
type SoundMessage struct {
	Cue string `json:"cue"`
}

// PlayDeniedMessage is the OpPlayDenied payload, sent only to the
// requester so it can roll its optimistic play back.
type PlayDeniedMessage struct {
	CardID int `json:"card_id"`
	Seat   int `json:"seat"`
}

// MatchLabel is the JSON label attached to a match for listing queries.
type MatchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}
