package domain

import (
	"math/rand"
	"time"
)

// Snapshot is the replicated state layout. It is broadcast verbatim
// after every authoritative mutation and must be identical on every
// participant; all client-side presentation derives from it. Deadlines
// travel as unix milliseconds.
type Snapshot struct {
	Seats     []string `json:"seats"`
	SeatNames []string `json:"seat_names"`
	Hands     []int    `json:"hands"` // seat*capacity+slot -> card id

	LastPlayed   int   `json:"last_played"`
	MatchStarted bool  `json:"match_started"`
	StateSeq     int64 `json:"state_seq"`

	CurrentTurnSeat int `json:"current_turn_seat"`
	TurnDirection   int `json:"turn_direction"`

	ActionPending     bool  `json:"action_pending"`
	PendingActionRank Rank  `json:"pending_action_rank"`
	PendingDrawCount  int   `json:"pending_draw_count"`
	ActionDeadlineMs  int64 `json:"action_deadline_ms"`

	UnoCalledSeat      int   `json:"uno_called_seat"`
	UnoChallengeActive bool  `json:"uno_challenge_active"`
	UnoVulnerableSeat  int   `json:"uno_vulnerable_seat"`
	UnoDeadlineMs      int64 `json:"uno_deadline_ms"`

	WinnerName string `json:"winner_name"`
}

// Snapshot captures the replicated view of the game.
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		Seats:              append([]string(nil), g.Seats[:]...),
		SeatNames:          append([]string(nil), g.SeatNames[:]...),
		Hands:              append([]int(nil), g.Hands...),
		LastPlayed:         g.LastPlayed,
		MatchStarted:       g.Phase == PhasePlaying,
		StateSeq:           g.StateSeq,
		CurrentTurnSeat:    g.CurrentTurnSeat,
		TurnDirection:      g.TurnDirection,
		ActionPending:      g.ActionPending,
		PendingActionRank:  g.PendingActionRank,
		PendingDrawCount:   g.PendingDrawCount,
		UnoCalledSeat:      g.UnoCalledSeat,
		UnoChallengeActive: g.UnoChallengeActive,
		UnoVulnerableSeat:  g.UnoVulnerableSeat,
		WinnerName:         g.WinnerName,
	}
	if !g.ActionDeadline.IsZero() {
		snap.ActionDeadlineMs = g.ActionDeadline.UnixMilli()
	}
	if !g.UnoDeadline.IsZero() {
		snap.UnoDeadlineMs = g.UnoDeadline.UnixMilli()
	}
	return snap
}

// ApplySnapshot overwrites the replicated fields from a broadcast.
// Used by non-authority participants to track canonical state.
func (g *Game) ApplySnapshot(snap Snapshot) {
	copy(g.Seats[:], snap.Seats)
	copy(g.SeatNames[:], snap.SeatNames)
	if len(snap.Hands) == len(g.Hands) {
		copy(g.Hands, snap.Hands)
	}
	g.LastPlayed = snap.LastPlayed
	if snap.MatchStarted {
		g.Phase = PhasePlaying
	} else if snap.WinnerName != "" {
		g.Phase = PhaseEnded
	} else {
		g.Phase = PhaseLobby
	}
	g.StateSeq = snap.StateSeq
	g.CurrentTurnSeat = snap.CurrentTurnSeat
	g.TurnDirection = snap.TurnDirection
	g.ActionPending = snap.ActionPending
	g.PendingActionRank = snap.PendingActionRank
	g.PendingDrawCount = snap.PendingDrawCount
	g.ActionDeadline = msToTime(snap.ActionDeadlineMs)
	g.UnoCalledSeat = snap.UnoCalledSeat
	g.UnoChallengeActive = snap.UnoChallengeActive
	g.UnoVulnerableSeat = snap.UnoVulnerableSeat
	g.UnoDeadline = msToTime(snap.UnoDeadlineMs)
	g.WinnerName = snap.WinnerName
}

// RestoreFromSnapshot rebuilds full authoritative state from the last
// broadcast, for a participant taking over authority. The deck is the
// complement of hands plus pile; its order is not replicated, so the
// undrawn range is freshly shuffled on takeover.
func (g *Game) RestoreFromSnapshot(rng *rand.Rand, snap Snapshot) {
	g.ApplySnapshot(snap)

	inPlay := make([]bool, len(g.Pool))
	if snap.LastPlayed != NoCard && snap.LastPlayed < len(g.Pool) {
		inPlay[snap.LastPlayed] = true
	}
	for _, id := range g.Hands {
		if id != NoCard && id < len(g.Pool) {
			inPlay[id] = true
		}
	}

	// Drawn cards occupy the front of the permutation, undrawn the rest.
	drawn := g.deckOrder[:0]
	for id := range g.Pool {
		if inPlay[id] {
			drawn = append(drawn, id)
		}
	}
	g.deckTop = len(drawn)
	for id := range g.Pool {
		if !inPlay[id] {
			drawn = append(drawn, id)
		}
	}
	for i := len(g.deckOrder) - 1; i > g.deckTop; i-- {
		j := g.deckTop + rng.Intn(i-g.deckTop+1)
		g.deckOrder[i], g.deckOrder[j] = g.deckOrder[j], g.deckOrder[i]
	}
	for i := range g.playRequested {
		g.playRequested[i] = false
	}
}

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
