package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSenderBumpsSequence(t *testing.T) {
	var s Sender

	first := s.Post(RequestJoin, "alice")
	require.Equal(t, int64(1), first.Seq)
	require.Equal(t, RequestJoin, first.Type)
	require.Equal(t, "alice", first.PlayerID)

	second := s.Post(RequestDraw, "alice")
	require.Equal(t, int64(2), second.Seq)
	require.Equal(t, RequestDraw, second.Type)
	require.Equal(t, second, s.Last())
}

func TestBoardPollReturnsEachWriteOnce(t *testing.T) {
	var s Sender
	b := NewBoard(4)

	b.Write(2, s.Post(RequestJoin, "alice"))

	slot, ok := b.Poll(2)
	require.True(t, ok)
	require.Equal(t, RequestJoin, slot.Type)
	require.Equal(t, "alice", slot.PlayerID)

	_, ok = b.Poll(2)
	require.False(t, ok, "same sequence polled twice")
}

func TestBoardDropsStaleSequence(t *testing.T) {
	var s Sender
	b := NewBoard(4)

	fresh := s.Post(RequestDraw, "alice")
	b.Write(1, fresh)
	_, ok := b.Poll(1)
	require.True(t, ok)

	// A retransmitted or reordered older write must stay inert.
	b.Write(1, Slot{Seq: fresh.Seq, Type: RequestLeave, PlayerID: "alice"})
	_, ok = b.Poll(1)
	require.False(t, ok)
}

func TestBoardLastRequestWins(t *testing.T) {
	var s Sender
	b := NewBoard(4)

	b.Write(0, s.Post(RequestDraw, "alice"))
	b.Write(0, s.Post(RequestDeclareUno, "alice"))

	slot, ok := b.Poll(0)
	require.True(t, ok)
	require.Equal(t, RequestDeclareUno, slot.Type, "overwritten request was delivered")

	_, ok = b.Poll(0)
	require.False(t, ok)
}

func TestBoardIgnoresOutOfRangeSeats(t *testing.T) {
	var s Sender
	b := NewBoard(2)

	b.Write(-1, s.Post(RequestJoin, "alice"))
	b.Write(2, s.Post(RequestJoin, "alice"))

	for _, seat := range []int{-1, 2} {
		_, ok := b.Poll(seat)
		require.False(t, ok, "seat %d", seat)
	}
}

func TestBoardZeroSlotNeverPolled(t *testing.T) {
	b := NewBoard(4)
	for seat := 0; seat < 4; seat++ {
		_, ok := b.Poll(seat)
		require.False(t, ok, "seat %d", seat)
	}
}

func TestBoardClearSeatForgetsOccupant(t *testing.T) {
	var first Sender
	b := NewBoard(4)

	for i := 0; i < 3; i++ {
		b.Write(0, first.Post(RequestDraw, "alice"))
		_, ok := b.Poll(0)
		require.True(t, ok)
	}

	b.ClearSeat(0)

	_, ok := b.Poll(0)
	require.False(t, ok, "cleared slot delivered")

	// The seat's next occupant starts a fresh sequence at 1; it must
	// not be shadowed by the previous occupant's higher sequence.
	var next Sender
	b.Write(0, next.Post(RequestJoin, "bob"))
	slot, ok := b.Poll(0)
	require.True(t, ok, "successor's first request dropped")
	require.Equal(t, "bob", slot.PlayerID)
}

func TestBoardReset(t *testing.T) {
	var s Sender
	b := NewBoard(4)

	b.Write(3, s.Post(RequestJoin, "alice"))
	_, ok := b.Poll(3)
	require.True(t, ok)

	b.Reset()

	// Sequences restart at 1 after a reset; a fresh sender must be heard.
	var fresh Sender
	b.Write(3, fresh.Post(RequestJoin, "bob"))
	slot, ok := b.Poll(3)
	require.True(t, ok)
	require.Equal(t, "bob", slot.PlayerID)
}
