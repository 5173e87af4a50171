package domain

import "time"

// Phase represents the lifecycle stage of an UNO table.
type Phase string

const (
	// PhaseLobby is the pre-game state where players claim seats.
	PhaseLobby Phase = "lobby"
	// PhasePlaying is the active game state.
	PhasePlaying Phase = "playing"
	// PhaseEnded is the state after a hand has been won.
	PhaseEnded Phase = "ended"
)

// MaxSeats is the number of physical seats at the table.
const MaxSeats = 4

// NoSeat is the empty seat-index value.
const NoSeat = -1

// Game holds the authoritative state for one UNO table instance. It is
// mutated only through the app service running on the authority; every
// other participant rebuilds a read-only copy from broadcast snapshots.
type Game struct {
	Pool     []Card // fixed card catalog; card id = index
	Capacity int    // hand slots per seat

	Phase     Phase
	Seats     [MaxSeats]string // seat -> userID, "" when empty
	SeatNames [MaxSeats]string // seat -> display name for tags/winner text

	Hands      []int // seat*Capacity+slot -> card id, NoCard when empty
	LastPlayed int   // pile-top card id, NoCard when pile empty

	StateSeq int64 // bumped on every authoritative mutation

	// Turn state.
	CurrentTurnSeat int
	TurnDirection   int // +1 or -1

	// Action-card counter window.
	ActionPending     bool
	PendingActionRank Rank
	PendingDrawCount  int
	ActionDeadline    time.Time

	// UNO declare/challenge state.
	UnoCalledSeat      int
	UnoChallengeActive bool
	UnoVulnerableSeat  int
	UnoDeadline        time.Time

	WinnerName string

	// Deck: a permutation of all card ids plus a draw pointer. Ids at or
	// after deckTop are undrawn. Authority-local, not replicated.
	deckOrder []int
	deckTop   int

	// Pending play-request flags, one per card id. Authority-local.
	playRequested []bool
}

// NewGame constructs an empty table over the given card pool.
func NewGame(pool []Card, capacity int) *Game {
	if capacity < 1 {
		capacity = 1
	}
	g := &Game{
		Pool:              pool,
		Capacity:          capacity,
		Phase:             PhaseLobby,
		Hands:             make([]int, MaxSeats*capacity),
		LastPlayed:        NoCard,
		CurrentTurnSeat:   NoSeat,
		TurnDirection:     1,
		PendingActionRank: RankNone,
		UnoCalledSeat:     NoSeat,
		UnoVulnerableSeat: NoSeat,
		deckOrder:         make([]int, len(pool)),
		playRequested:     make([]bool, len(pool)),
	}
	for i := range g.Hands {
		g.Hands[i] = NoCard
	}
	for i := range g.deckOrder {
		g.deckOrder[i] = i
	}
	return g
}

// HandIndex maps (seat, slot) into the flat Hands array.
func (g *Game) HandIndex(seat, slot int) int { return seat*g.Capacity + slot }

// CardAt returns the card for an id, or false for NoCard / out of range.
func (g *Game) CardAt(id int) (Card, bool) {
	if id < 0 || id >= len(g.Pool) {
		return Card{}, false
	}
	return g.Pool[id], true
}

// SeatOf returns the seat occupied by userID, or NoSeat.
func (g *Game) SeatOf(userID string) int {
	if userID == "" {
		return NoSeat
	}
	for seat, uid := range g.Seats {
		if uid == userID {
			return seat
		}
	}
	return NoSeat
}

// SeatOccupied reports whether the seat index is valid and occupied.
func (g *Game) SeatOccupied(seat int) bool {
	return seat >= 0 && seat < MaxSeats && g.Seats[seat] != ""
}

// CardSlotInSeat returns the slot holding cardID in seat's hand, or -1.
func (g *Game) CardSlotInSeat(seat, cardID int) int {
	if seat < 0 || seat >= MaxSeats || cardID == NoCard {
		return -1
	}
	for slot := 0; slot < g.Capacity; slot++ {
		if g.Hands[g.HandIndex(seat, slot)] == cardID {
			return slot
		}
	}
	return -1
}

// HolderOf returns the seat whose hand contains cardID, or NoSeat.
func (g *Game) HolderOf(cardID int) int {
	for seat := 0; seat < MaxSeats; seat++ {
		if g.CardSlotInSeat(seat, cardID) >= 0 {
			return seat
		}
	}
	return NoSeat
}

// CountCardsInSeat returns the number of occupied hand slots for a seat.
func (g *Game) CountCardsInSeat(seat int) int {
	count := 0
	for slot := 0; slot < g.Capacity; slot++ {
		if g.Hands[g.HandIndex(seat, slot)] != NoCard {
			count++
		}
	}
	return count
}

// FirstEmptyHandSlot returns the first free slot in seat's hand, or -1.
func (g *Game) FirstEmptyHandSlot(seat int) int {
	for slot := 0; slot < g.Capacity; slot++ {
		if g.Hands[g.HandIndex(seat, slot)] == NoCard {
			return slot
		}
	}
	return -1
}

// RemoveCardFromHands clears every hand slot holding cardID. More than
// one hit indicates upstream corruption; clearing all of them restores
// the location partition.
func (g *Game) RemoveCardFromHands(cardID int) {
	for i := range g.Hands {
		if g.Hands[i] == cardID {
			g.Hands[i] = NoCard
		}
	}
}

// NextOccupiedSeat returns the nearest occupied seat from fromSeat in
// the current turn direction, wrapping and skipping empty seats, or
// NoSeat when no seat is occupied.
func (g *Game) NextOccupiedSeat(fromSeat int) int {
	for i := 1; i <= MaxSeats; i++ {
		seat := ((fromSeat+i*g.TurnDirection)%MaxSeats + MaxSeats) % MaxSeats
		if g.Seats[seat] != "" {
			return seat
		}
	}
	return NoSeat
}

// AdvanceTurn moves the turn to the next occupied seat. No-op when the
// turn is unassigned or no other seat is occupied.
func (g *Game) AdvanceTurn() {
	if g.CurrentTurnSeat < 0 {
		return
	}
	if next := g.NextOccupiedSeat(g.CurrentTurnSeat); next >= 0 {
		g.CurrentTurnSeat = next
	}
}

// OccupiedSeats returns the occupied seat indices in ascending order.
func (g *Game) OccupiedSeats() []int {
	var seats []int
	for seat := 0; seat < MaxSeats; seat++ {
		if g.Seats[seat] != "" {
			seats = append(seats, seat)
		}
	}
	return seats
}

// RequestPlay marks a card as pending authoritative play resolution.
// The flag is the per-card request channel; the authority consumes the
// first set flag in card order each tick.
func (g *Game) RequestPlay(cardID int) {
	if cardID >= 0 && cardID < len(g.playRequested) {
		g.playRequested[cardID] = true
	}
}

// ClearPlayRequest drops the pending flag for a card.
func (g *Game) ClearPlayRequest(cardID int) {
	if cardID >= 0 && cardID < len(g.playRequested) {
		g.playRequested[cardID] = false
	}
}

// FirstPlayRequest returns the lowest card id with a pending play
// request, or NoCard. Card-id order makes simultaneous submissions
// resolve deterministically.
func (g *Game) FirstPlayRequest() int {
	for id, pending := range g.playRequested {
		if pending {
			return id
		}
	}
	return NoCard
}

// PlayRequested reports whether a play request is pending for the card.
func (g *Game) PlayRequested(cardID int) bool {
	return cardID >= 0 && cardID < len(g.playRequested) && g.playRequested[cardID]
}
