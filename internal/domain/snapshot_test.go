package domain

import (
	"math/rand"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := newTestGame()
	g.Phase = PhasePlaying
	g.Seats[0] = "alice"
	g.Seats[2] = "bob"
	g.SeatNames[0] = "Alice"
	g.SeatNames[2] = "Bob"
	g.Hands[g.HandIndex(0, 0)] = 12
	g.Hands[g.HandIndex(2, 1)] = 40
	g.LastPlayed = 3
	g.StateSeq = 17
	g.CurrentTurnSeat = 2
	g.TurnDirection = -1
	g.ActionPending = true
	g.PendingActionRank = RankDrawTwo
	g.PendingDrawCount = 4
	g.ActionDeadline = time.UnixMilli(1_700_000_000_000)
	g.UnoCalledSeat = 0
	g.UnoChallengeActive = true
	g.UnoVulnerableSeat = 2
	g.UnoDeadline = time.UnixMilli(1_700_000_001_000)

	replica := newTestGame()
	replica.ApplySnapshot(g.Snapshot())

	if replica.Phase != PhasePlaying {
		t.Fatalf("replica phase = %v, want playing", replica.Phase)
	}
	if replica.Seats != g.Seats || replica.SeatNames != g.SeatNames {
		t.Fatal("seats not replicated")
	}
	for i := range g.Hands {
		if replica.Hands[i] != g.Hands[i] {
			t.Fatalf("hand slot %d = %d, want %d", i, replica.Hands[i], g.Hands[i])
		}
	}
	if replica.LastPlayed != 3 || replica.StateSeq != 17 {
		t.Fatalf("pile/seq = %d/%d, want 3/17", replica.LastPlayed, replica.StateSeq)
	}
	if replica.CurrentTurnSeat != 2 || replica.TurnDirection != -1 {
		t.Fatalf("turn = %d/%d, want 2/-1", replica.CurrentTurnSeat, replica.TurnDirection)
	}
	if !replica.ActionPending || replica.PendingActionRank != RankDrawTwo || replica.PendingDrawCount != 4 {
		t.Fatal("action window not replicated")
	}
	if !replica.ActionDeadline.Equal(g.ActionDeadline) || !replica.UnoDeadline.Equal(g.UnoDeadline) {
		t.Fatal("deadlines not replicated")
	}
	if !replica.UnoChallengeActive || replica.UnoVulnerableSeat != 2 || replica.UnoCalledSeat != 0 {
		t.Fatal("uno state not replicated")
	}
}

func TestApplySnapshotPhases(t *testing.T) {
	g := newTestGame()

	snap := g.Snapshot()
	snap.MatchStarted = false
	snap.WinnerName = "Alice"
	g.ApplySnapshot(snap)
	if g.Phase != PhaseEnded {
		t.Fatalf("phase = %v, want ended", g.Phase)
	}

	snap.WinnerName = ""
	g.ApplySnapshot(snap)
	if g.Phase != PhaseLobby {
		t.Fatalf("phase = %v, want lobby", g.Phase)
	}

	// Zero deadlines stay zero instead of becoming the unix epoch.
	if !g.ActionDeadline.IsZero() || !g.UnoDeadline.IsZero() {
		t.Fatal("zero deadline round-tripped to a non-zero time")
	}
}

func TestRestoreFromSnapshotRebuildsDeck(t *testing.T) {
	authority := newTestGame()
	authority.InitDeck(rand.New(rand.NewSource(3)))
	authority.Phase = PhasePlaying
	authority.Seats[0] = "alice"
	authority.Seats[1] = "bob"
	for seat := 0; seat < 2; seat++ {
		for slot := 0; slot < 7; slot++ {
			authority.Hands[authority.HandIndex(seat, slot)] = authority.DrawTopCard()
		}
	}
	authority.LastPlayed = authority.DrawTopCard()

	takeover := newTestGame()
	takeover.RequestPlay(9)
	takeover.RestoreFromSnapshot(rand.New(rand.NewSource(99)), authority.Snapshot())

	inPlay := make(map[int]bool)
	for _, id := range takeover.Hands {
		if id != NoCard {
			inPlay[id] = true
		}
	}
	inPlay[takeover.LastPlayed] = true
	if len(inPlay) != 15 {
		t.Fatalf("in-play count = %d, want 15", len(inPlay))
	}

	if got := takeover.DeckTop(); got != 15 {
		t.Fatalf("DeckTop() = %d, want 15", got)
	}
	order := takeover.DeckOrder()
	seen := make(map[int]bool)
	for i := takeover.DeckTop(); i < len(order); i++ {
		id := order[i]
		if inPlay[id] {
			t.Fatalf("in-play card %d left in undrawn deck", id)
		}
		if seen[id] {
			t.Fatalf("card %d duplicated in undrawn deck", id)
		}
		seen[id] = true
	}
	if len(seen) != len(takeover.Pool)-15 {
		t.Fatalf("undrawn count = %d, want %d", len(seen), len(takeover.Pool)-15)
	}

	if got := takeover.FirstPlayRequest(); got != NoCard {
		t.Fatalf("stale play request survived restore: %d", got)
	}
}
