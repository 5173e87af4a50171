package app

// EventKind identifies emitted table events for dispatch to clients.
type EventKind string

const (
	// EventStateChanged signals that canonical state mutated and a fresh
	// snapshot must be broadcast.
	EventStateChanged EventKind = "state_changed"
	// EventSound asks clients to play a one-shot cue.
	EventSound EventKind = "sound"
	// EventPlayDenied tells the requester their optimistic play was
	// rejected and must roll back.
	EventPlayDenied EventKind = "play_denied"
)

// SoundCue names the audio cues the presentation layer may play.
// Playback is entirely the collaborator's concern.
type SoundCue string

const (
	SoundDeal            SoundCue = "deal"
	SoundDraw            SoundCue = "draw"
	SoundPlaySuccess     SoundCue = "play-success"
	SoundPlayFail        SoundCue = "play-fail"
	SoundActionCountdown SoundCue = "action-countdown"
	SoundUnoCall         SoundCue = "uno-call"
	SoundUnoChallenge    SoundCue = "uno-challenge"
	SoundWin             SoundCue = "win"
)

// Event is a table event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // user IDs; empty means broadcast
}

// SoundPayload carries the cue for an EventSound.
type SoundPayload struct {
	Cue SoundCue `json:"cue"`
}

// PlayDeniedPayload carries the rejected card for an EventPlayDenied.
type PlayDeniedPayload struct {
	CardID int `json:"card_id"`
	Seat   int `json:"seat"`
}

func soundEvent(cue SoundCue, recipients ...string) Event {
	return Event{Kind: EventSound, Payload: SoundPayload{Cue: cue}, Recipients: recipients}
}

func stateChanged() Event {
	return Event{Kind: EventStateChanged}
}
