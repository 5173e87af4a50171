// Package relay implements the per-seat request mailbox participants
// use to submit intents to the table authority. One slot exists per
// seat; only the seat's occupant writes it, and the authority polls
// every slot once per tick in ascending seat order. Delivery is
// last-request-wins: resending is harmless, and a request overwritten
// before the authority polls it is silently dropped.
package relay

// RequestType identifies a relay intent.
type RequestType int32

const (
	RequestNone RequestType = iota
	RequestJoin
	RequestDraw
	RequestLeave
	RequestDeclareUno
	RequestChallengeUno
)

// Slot is one seat's replicated mailbox: the last-sent sequence, the
// request type, and the requester's id.
type Slot struct {
	Seq      int64       `json:"seq"`
	Type     RequestType `json:"type"`
	PlayerID string      `json:"player_id"`
}

// Sender is the occupant-side half of a slot. Posting re-asserts
// ownership of the mailbox by overwriting it whole and bumps the
// sequence so the authority sees the write as new.
type Sender struct {
	slot Slot
}

// Post records an intent in the mailbox and returns the slot to
// replicate. A later Post before the authority polls overwrites the
// previous intent.
func (s *Sender) Post(t RequestType, playerID string) Slot {
	s.slot.Seq++
	s.slot.Type = t
	s.slot.PlayerID = playerID
	return s.slot
}

// Last returns the most recently posted slot.
func (s *Sender) Last() Slot { return s.slot }

// Board is the authority-side view of all seat mailboxes plus the
// last-processed sequence per seat, which is what makes duplicate or
// retransmitted sends inert.
type Board struct {
	slots         []Slot
	lastProcessed []int64
}

// NewBoard creates a board for the given seat count.
func NewBoard(seats int) *Board {
	// Zero-value slots carry Seq 0 and are never returned by Poll.
	return &Board{
		slots:         make([]Slot, seats),
		lastProcessed: make([]int64, seats),
	}
}

// Write stores a replicated slot for a seat, overwriting whatever was
// there. Out-of-range seats are ignored.
func (b *Board) Write(seat int, slot Slot) {
	if seat < 0 || seat >= len(b.slots) {
		return
	}
	b.slots[seat] = slot
}

// Poll returns the seat's pending request exactly once: only a slot
// whose sequence is strictly greater than the last processed sequence
// is returned, and polling records it as processed. Stale sequences
// report false.
func (b *Board) Poll(seat int) (Slot, bool) {
	if seat < 0 || seat >= len(b.slots) {
		return Slot{}, false
	}
	slot := b.slots[seat]
	if slot.Seq <= b.lastProcessed[seat] {
		return Slot{}, false
	}
	b.lastProcessed[seat] = slot.Seq
	return slot, true
}

// ClearSeat drops one seat's slot and processed marker. The authority
// calls this when the seat is vacated: sequence numbering belongs to
// the occupant, and the next occupant's Sender starts again at 1.
func (b *Board) ClearSeat(seat int) {
	if seat < 0 || seat >= len(b.slots) {
		return
	}
	b.slots[seat] = Slot{}
	b.lastProcessed[seat] = 0
}

// Reset clears all slots and processed markers, for a table reset.
func (b *Board) Reset() {
	for i := range b.slots {
		b.slots[i] = Slot{}
		b.lastProcessed[i] = 0
	}
}
