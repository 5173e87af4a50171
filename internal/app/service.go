package app

import (
	"errors"
	"math/rand"
	"time"

	"uno/internal/config"
	"uno/internal/domain"
	"uno/internal/relay"
)

// Service contains the authoritative UNO use-cases operating on domain
// state. Every mutating entry point is gated on the authority flag:
// calls from a process that does not hold authority are silent no-ops,
// never errors. All processing is cooperative and driven by Tick.
type Service struct {
	game  *Table
	cfg   config.TableConfig
	rng   *rand.Rand
	now   func() time.Time
	board *relay.Board

	authoritative bool
}

// Table aliases the domain aggregate so callers touch one import.
type Table = domain.Game

var (
	ErrNotInLobby    = errors.New("match not in lobby")
	ErrTooFewPlayers = errors.New("not enough players to start")
)

// MinPlayersToStart defines the minimum occupied seats required to
// start a hand. Centralized so tests can reason about the rule.
const MinPlayersToStart = 2

// NewService constructs a Service with the provided rng or a
// time-seeded default.
func NewService(cfg config.TableConfig, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := domain.NewGame(domain.NewCardPool(), cfg.HandCapacity)
	g.InitDeck(rng)
	return &Service{
		game:  g,
		cfg:   cfg,
		rng:   rng,
		now:   time.Now,
		board: relay.NewBoard(domain.MaxSeats),
	}
}

// Game exposes the underlying aggregate for snapshotting and tests.
func (s *Service) Game() *Table { return s.game }

// Board exposes the relay board, written by the transport layer.
func (s *Service) Board() *relay.Board { return s.board }

// SetAuthority marks whether this process holds canonical truth.
func (s *Service) SetAuthority(authoritative bool) { s.authoritative = authoritative }

// Authority reports whether this process holds canonical truth.
func (s *Service) Authority() bool { return s.authoritative }

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// bump records one authoritative mutation on the state sequence.
func (s *Service) bump() { s.game.StateSeq++ }

// ---------------------------------------------------------------------------
// Match control
// ---------------------------------------------------------------------------

// CanStart reports whether a hand may begin right now. Used by the
// transport layer to answer a start request before mutating anything.
func (s *Service) CanStart() error {
	if s.game.Phase == domain.PhasePlaying {
		return ErrNotInLobby
	}
	if len(s.game.OccupiedSeats()) < MinPlayersToStart {
		return ErrTooFewPlayers
	}
	return nil
}

// StartMatch deals starting hands to every occupied seat, seeds the
// pile with one drawn card, and hands the first turn to a random
// occupied seat. No-op without authority or when already running.
func (s *Service) StartMatch() []Event {
	if !s.authoritative || s.game.Phase == domain.PhasePlaying {
		return nil
	}
	g := s.game

	g.Phase = domain.PhasePlaying
	g.TurnDirection = 1
	g.ActionPending = false
	g.PendingActionRank = domain.RankNone
	g.PendingDrawCount = 0
	g.ActionDeadline = time.Time{}
	g.UnoCalledSeat = domain.NoSeat
	g.UnoChallengeActive = false
	g.UnoVulnerableSeat = domain.NoSeat
	g.UnoDeadline = time.Time{}
	g.WinnerName = ""

	for _, seat := range g.OccupiedSeats() {
		for i := 0; i < s.cfg.StartingHandSize; i++ {
			s.drawCardToSeat(seat)
		}
	}

	// Seed the pile so the first play has something to match against.
	if g.LastPlayed == domain.NoCard {
		if first := g.DrawTopCard(); first != domain.NoCard {
			g.LastPlayed = first
			if card, ok := g.CardAt(first); ok && s.cfg.TurnAndCardValidation && card.Rank == domain.RankReverse {
				g.TurnDirection = -1
			}
		}
	}

	if s.cfg.TurnAndCardValidation {
		g.CurrentTurnSeat = s.randomOccupiedSeat()
	}

	s.bump()
	return []Event{stateChanged(), soundEvent(SoundDeal)}
}

// ResetMatch clears all seats, match/turn/UNO state and reshuffles the
// deck. No-op without authority.
func (s *Service) ResetMatch() []Event {
	if !s.authoritative {
		return nil
	}
	g := s.game

	for seat := 0; seat < domain.MaxSeats; seat++ {
		g.Seats[seat] = ""
		g.SeatNames[seat] = ""
	}
	g.Phase = domain.PhaseLobby
	g.CurrentTurnSeat = domain.NoSeat
	g.TurnDirection = 1
	g.ActionPending = false
	g.PendingActionRank = domain.RankNone
	g.PendingDrawCount = 0
	g.ActionDeadline = time.Time{}
	g.UnoCalledSeat = domain.NoSeat
	g.UnoChallengeActive = false
	g.UnoVulnerableSeat = domain.NoSeat
	g.UnoDeadline = time.Time{}
	g.WinnerName = ""
	g.LastPlayed = domain.NoCard
	for i := range g.Hands {
		g.Hands[i] = domain.NoCard
	}
	for id := range g.Pool {
		g.ClearPlayRequest(id)
	}
	g.InitDeck(s.rng)
	s.board.Reset()

	s.bump()
	return []Event{stateChanged()}
}

func (s *Service) randomOccupiedSeat() int {
	occupied := s.game.OccupiedSeats()
	if len(occupied) == 0 {
		return domain.NoSeat
	}
	return occupied[s.rng.Intn(len(occupied))]
}

// ---------------------------------------------------------------------------
// Session-level arrivals and departures
// ---------------------------------------------------------------------------

// SetSeatName records a seat occupant's display name for name tags and
// winner text.
func (s *Service) SetSeatName(userID, name string) []Event {
	if !s.authoritative {
		return nil
	}
	seat := s.game.SeatOf(userID)
	if seat == domain.NoSeat || s.game.SeatNames[seat] == name {
		return nil
	}
	s.game.SeatNames[seat] = name
	s.bump()
	return []Event{stateChanged()}
}

// PlayerLeft clears every seat occupied by the departing participant,
// advancing the turn first when it was theirs and dropping any UNO
// state that referenced them.
func (s *Service) PlayerLeft(userID string) []Event {
	if !s.authoritative {
		return nil
	}
	g := s.game
	changed := false
	for seat := 0; seat < domain.MaxSeats; seat++ {
		if g.Seats[seat] != userID {
			continue
		}
		s.vacateSeat(seat)
		changed = true
	}
	if !changed {
		return nil
	}
	s.bump()
	return []Event{stateChanged()}
}

// vacateSeat implements the Leave semantics for one seat: advance the
// turn off the seat if needed, clear UNO references, return the hand to
// the deck and free the seat.
func (s *Service) vacateSeat(seat int) {
	g := s.game

	if s.cfg.TurnAndCardValidation && g.Phase == domain.PhasePlaying && seat == g.CurrentTurnSeat {
		// Any open counter window dies with the leaving seat.
		g.ActionPending = false
		g.PendingActionRank = domain.RankNone
		g.PendingDrawCount = 0
		g.AdvanceTurn()
	}

	if g.UnoCalledSeat == seat {
		g.UnoCalledSeat = domain.NoSeat
	}
	if g.UnoVulnerableSeat == seat {
		g.UnoChallengeActive = false
		g.UnoVulnerableSeat = domain.NoSeat
	}

	for slot := 0; slot < g.Capacity; slot++ {
		if id := g.Hands[g.HandIndex(seat, slot)]; id != domain.NoCard {
			s.returnCardToDeck(id)
		}
	}
	g.Seats[seat] = ""
	g.SeatNames[seat] = ""
	s.board.ClearSeat(seat)
}

// ---------------------------------------------------------------------------
// Deck plumbing
// ---------------------------------------------------------------------------

// drawCardToSeat draws one card into the seat's first empty slot.
// Silent no-op on a full hand or exhausted deck.
func (s *Service) drawCardToSeat(seat int) bool {
	g := s.game
	if !g.SeatOccupied(seat) {
		return false
	}
	slot := g.FirstEmptyHandSlot(seat)
	if slot < 0 {
		return false
	}
	id := g.DrawTopCard()
	if id == domain.NoCard {
		return false
	}
	// A drawn card can never also live in a hand; clear stale slots.
	g.RemoveCardFromHands(id)
	g.Hands[g.HandIndex(seat, slot)] = id
	g.ClearPlayRequest(id)
	return true
}

// returnCardToDeck strips the card from all hands and reinserts it into
// the undrawn range.
func (s *Service) returnCardToDeck(cardID int) {
	g := s.game
	g.RemoveCardFromHands(cardID)
	g.ClearPlayRequest(cardID)
	g.ReturnCardToDeck(s.rng, cardID)
}

// ---------------------------------------------------------------------------
// Relay intake
// ---------------------------------------------------------------------------

// WriteRelay stores a replicated relay slot; it is polled on the next
// tick. Accepted from the transport even between ticks so that
// last-request-wins reflects arrival order.
func (s *Service) WriteRelay(seat int, slot relay.Slot) {
	if !s.authoritative {
		return
	}
	s.board.Write(seat, slot)
}

// MarkPlayRequested flags a card for play resolution on the next tick.
func (s *Service) MarkPlayRequested(cardID int) {
	if !s.authoritative {
		return
	}
	s.game.RequestPlay(cardID)
}

// ---------------------------------------------------------------------------
// The authority tick
// ---------------------------------------------------------------------------

// Tick runs one authority step: resolve expired timers, poll the seat
// relays in ascending seat order, then accept at most one pending play.
// Returns the events to dispatch; an EventStateChanged is present iff
// canonical state mutated.
func (s *Service) Tick() []Event {
	if !s.authoritative {
		return nil
	}
	now := s.now()
	var events []Event
	changed := false

	if evs, ch := s.expireTimers(now); ch {
		events = append(events, evs...)
		changed = true
	}
	if evs, ch := s.pollRelays(now); ch {
		events = append(events, evs...)
		changed = true
	}
	if evs, ch := s.processPlayRequests(now); ch {
		events = append(events, evs...)
		changed = true
	}

	if !changed {
		return events
	}
	s.bump()
	return append([]Event{stateChanged()}, events...)
}

// expireTimers closes the action and UNO windows whose deadlines have
// passed.
func (s *Service) expireTimers(now time.Time) ([]Event, bool) {
	g := s.game
	var events []Event
	changed := false

	// Counter window expired: the threatened seat draws the accumulated
	// penalty and is skipped.
	if g.ActionPending && !g.ActionDeadline.After(now) {
		g.ActionPending = false
		g.PendingActionRank = domain.RankNone
		g.ActionDeadline = time.Time{}
		for i := 0; i < g.PendingDrawCount; i++ {
			if s.drawCardToSeat(g.CurrentTurnSeat) {
				events = append(events, soundEvent(SoundDraw))
			}
		}
		g.PendingDrawCount = 0
		g.AdvanceTurn()
		changed = true
	}

	// Challenge window expired: the vulnerable seat is safe for this
	// hand size.
	if g.UnoChallengeActive && !g.UnoDeadline.After(now) {
		g.UnoChallengeActive = false
		g.UnoVulnerableSeat = domain.NoSeat
		g.UnoDeadline = time.Time{}
		changed = true
	}

	return events, changed
}

// pollRelays drains each seat's mailbox once, in ascending seat order.
func (s *Service) pollRelays(now time.Time) ([]Event, bool) {
	var events []Event
	changed := false
	for seat := 0; seat < domain.MaxSeats; seat++ {
		slot, ok := s.board.Poll(seat)
		if !ok || slot.PlayerID == "" {
			continue
		}
		if evs, ch := s.applyRelayRequest(seat, slot, now); ch {
			events = append(events, evs...)
			changed = true
		}
	}
	return events, changed
}

func (s *Service) applyRelayRequest(seat int, slot relay.Slot, now time.Time) ([]Event, bool) {
	g := s.game
	switch slot.Type {
	case relay.RequestJoin:
		return s.applyJoin(seat, slot.PlayerID)

	case relay.RequestDraw:
		if g.Phase != domain.PhasePlaying || g.Seats[seat] != slot.PlayerID {
			return nil, false
		}
		return s.applyManualDraw(seat)

	case relay.RequestLeave:
		if g.Seats[seat] != slot.PlayerID {
			return nil, false
		}
		s.vacateSeat(seat)
		return nil, true

	case relay.RequestDeclareUno:
		if g.Phase != domain.PhasePlaying || g.Seats[seat] != slot.PlayerID {
			return nil, false
		}
		g.UnoCalledSeat = seat
		return []Event{soundEvent(SoundUnoCall)}, true

	case relay.RequestChallengeUno:
		if g.Phase != domain.PhasePlaying || g.Seats[seat] != slot.PlayerID {
			return nil, false
		}
		if !g.UnoChallengeActive || seat == g.UnoVulnerableSeat {
			return nil, false
		}
		g.UnoChallengeActive = false
		var events []Event
		if g.SeatOccupied(g.UnoVulnerableSeat) {
			s.drawCardToSeat(g.UnoVulnerableSeat)
			s.drawCardToSeat(g.UnoVulnerableSeat)
			events = append(events, soundEvent(SoundDraw))
		}
		g.UnoVulnerableSeat = domain.NoSeat
		g.UnoDeadline = time.Time{}
		events = append(events, soundEvent(SoundUnoChallenge))
		return events, true

	default:
		// Unrecognized request types are ignored.
		return nil, false
	}
}

// applyJoin seats a player. Idempotent for the current occupant; a
// player already seated elsewhere is denied so that one participant
// never holds two seats. Joining a running match deals a starting hand.
func (s *Service) applyJoin(seat int, playerID string) ([]Event, bool) {
	g := s.game
	if g.Seats[seat] == playerID {
		return nil, false
	}
	if g.Seats[seat] != "" {
		return nil, false
	}
	if g.SeatOf(playerID) != domain.NoSeat {
		return nil, false
	}
	g.Seats[seat] = playerID
	var events []Event
	if g.Phase == domain.PhasePlaying {
		for i := 0; i < s.cfg.StartingHandSize; i++ {
			s.drawCardToSeat(seat)
		}
		events = append(events, soundEvent(SoundDeal))
	}
	return events, true
}

// applyManualDraw handles a relay Draw press. Drawing during an open
// counter window forfeits the counter: the manual draw counts as the
// first penalty card, the remainder is auto-drawn, and the turn moves
// on. Outside a window the draw ends the turn unless DrawUntilPlayable
// keeps it.
func (s *Service) applyManualDraw(seat int) ([]Event, bool) {
	g := s.game
	if s.cfg.TurnAndCardValidation && seat != g.CurrentTurnSeat {
		return nil, false
	}

	drew := s.drawCardToSeat(seat)
	var events []Event
	if drew {
		events = append(events, soundEvent(SoundDraw))
	}

	if !s.cfg.TurnAndCardValidation {
		return events, drew
	}

	if g.ActionPending {
		// The forfeit closes the window whether or not the manual draw
		// landed; the remaining penalty draws as far as capacity allows.
		g.ActionPending = false
		g.PendingActionRank = domain.RankNone
		g.ActionDeadline = time.Time{}
		remaining := g.PendingDrawCount
		if drew {
			remaining--
		}
		for i := 0; i < remaining; i++ {
			if s.drawCardToSeat(seat) {
				events = append(events, soundEvent(SoundDraw))
			}
		}
		g.PendingDrawCount = 0
		g.AdvanceTurn()
		return events, true
	}

	if !drew {
		// Hand full or deck exhausted: silent denial.
		return nil, false
	}
	if !s.cfg.DrawUntilPlayable {
		g.AdvanceTurn()
	}
	return events, true
}

// ---------------------------------------------------------------------------
// Play resolution
// ---------------------------------------------------------------------------

// processPlayRequests accepts at most one pending play per tick, in
// card-id order; the first invalid request found is denied instead, and
// both outcomes consume the tick's play budget.
func (s *Service) processPlayRequests(now time.Time) ([]Event, bool) {
	g := s.game
	if g.Phase != domain.PhasePlaying && s.cfg.TurnAndCardValidation {
		return nil, false
	}
	cardID := g.FirstPlayRequest()
	if cardID == domain.NoCard {
		return nil, false
	}
	g.ClearPlayRequest(cardID)

	if s.cfg.TurnAndCardValidation {
		if denial := g.ValidatePlay(cardID); denial != PlayAcceptedDenial {
			return s.denyPlay(cardID), true
		}
	}
	return s.acceptPlay(cardID, now), true
}

// PlayAcceptedDenial aliases the domain's acceptance value for
// readability at the call site.
const PlayAcceptedDenial = domain.PlayAccepted

// denyPlay rolls a rejected request back: hand membership was never
// touched, so only the requester's prediction has to unwind.
func (s *Service) denyPlay(cardID int) []Event {
	g := s.game
	seat := g.HolderOf(cardID)
	payload := PlayDeniedPayload{CardID: cardID, Seat: seat}
	var recipients []string
	if g.SeatOccupied(seat) {
		recipients = []string{g.Seats[seat]}
	}
	return []Event{
		{Kind: EventPlayDenied, Payload: payload, Recipients: recipients},
		soundEvent(SoundPlayFail, recipients...),
	}
}

// acceptPlay moves the card to the pile, recycles the previous pile
// top, and resolves turn, action, UNO and win effects.
func (s *Service) acceptPlay(cardID int, now time.Time) []Event {
	g := s.game
	playedSeat := g.HolderOf(cardID)

	playerName := ""
	if g.SeatOccupied(playedSeat) {
		playerName = g.SeatNames[playedSeat]
	}

	if g.LastPlayed != domain.NoCard && g.LastPlayed != cardID {
		s.returnCardToDeck(g.LastPlayed)
	}
	g.RemoveCardFromHands(cardID)
	g.LastPlayed = cardID

	events := []Event{soundEvent(SoundPlaySuccess)}

	card, _ := g.CardAt(cardID)
	if s.cfg.TurnAndCardValidation {
		if card.Rank == domain.RankReverse {
			g.TurnDirection *= -1
		}

		if card.IsAction() {
			penalty := card.DrawPenalty()
			if g.ActionPending {
				// Countering with the same kind stacks the penalty;
				// validation already refused everything else.
				if card.Rank == g.PendingActionRank {
					g.PendingDrawCount += penalty
				}
			} else {
				g.PendingDrawCount = penalty
				g.PendingActionRank = card.Rank
			}
			g.AdvanceTurn()
			g.ActionPending = true
			g.ActionDeadline = now.Add(s.actionWindow())
			events = append(events, soundEvent(SoundActionCountdown))
		} else {
			g.ActionPending = false
			g.PendingActionRank = domain.RankNone
			g.ActionDeadline = time.Time{}
			g.AdvanceTurn()
		}
	}

	if s.cfg.TurnAndCardValidation && playedSeat != domain.NoSeat {
		remaining := g.CountCardsInSeat(playedSeat)

		if remaining == 0 {
			return append(events, s.completeMatch(playedSeat, playerName)...)
		}

		if remaining == 1 {
			if g.UnoCalledSeat == playedSeat {
				// The declaration covered this play.
				g.UnoCalledSeat = domain.NoSeat
			} else {
				g.UnoChallengeActive = true
				g.UnoVulnerableSeat = playedSeat
				g.UnoDeadline = now.Add(s.challengeWindow())
			}
		} else if g.UnoCalledSeat == playedSeat {
			// Stale declaration, hand is not at one card.
			g.UnoCalledSeat = domain.NoSeat
		}
	}

	return events
}

// completeMatch ends the hand: the winner's name sticks, every other
// hand flushes back to the deck, seats stay occupied for a restart.
func (s *Service) completeMatch(winnerSeat int, winnerName string) []Event {
	g := s.game

	g.WinnerName = winnerName
	g.Phase = domain.PhaseEnded
	g.CurrentTurnSeat = domain.NoSeat
	g.ActionPending = false
	g.PendingActionRank = domain.RankNone
	g.PendingDrawCount = 0
	g.ActionDeadline = time.Time{}
	g.UnoCalledSeat = domain.NoSeat
	g.UnoChallengeActive = false
	g.UnoVulnerableSeat = domain.NoSeat
	g.UnoDeadline = time.Time{}

	for seat := 0; seat < domain.MaxSeats; seat++ {
		for slot := 0; slot < g.Capacity; slot++ {
			if id := g.Hands[g.HandIndex(seat, slot)]; id != domain.NoCard {
				s.returnCardToDeck(id)
			}
		}
	}

	return []Event{soundEvent(SoundWin)}
}

func (s *Service) actionWindow() time.Duration {
	return time.Duration(s.cfg.ActionCounterWindowSeconds * float64(time.Second))
}

func (s *Service) challengeWindow() time.Duration {
	return time.Duration(s.cfg.UnoChallengeWindowSeconds * float64(time.Second))
}
