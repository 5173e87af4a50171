package client

import (
	"errors"

	"github.com/google/uuid"

	"uno/internal/domain"
	"uno/internal/relay"
)

// Transport carries session output to the match: relay slot writes and
// optimistic play requests. The Nakama socket implements this in the
// real client; tests use a recorder.
type Transport interface {
	SendRelay(seat int, slot relay.Slot)
	SendPlayRequest(cardID int)
}

var (
	ErrNotSeated   = errors.New("not seated")
	ErrNotYourCard = errors.New("card not in local hand")
	ErrIllegalPlay = errors.New("play fails local validation")
)

// Session is one participant's view of the table: a read-only game
// replica rebuilt from snapshots, the seat relay sender, and the
// reconciler driving presentation. It never mutates canonical state.
type Session struct {
	ID       string
	PlayerID string

	game      *domain.Game
	sender    relay.Sender
	seat      int
	transport Transport
	rec       *Reconciler

	lastStateSeq int64
}

// NewSession creates a participant session. The player id is the
// Nakama user id; the session id is local only.
func NewSession(playerID string, capacity int, transport Transport, rec *Reconciler) *Session {
	return &Session{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		game:      domain.NewGame(domain.NewCardPool(), capacity),
		seat:      domain.NoSeat,
		transport: transport,
		rec:       rec,
	}
}

// Game exposes the local replica.
func (s *Session) Game() *domain.Game { return s.game }

// Seat returns the seat this session last requested, or NoSeat.
func (s *Session) Seat() int { return s.seat }

// ApplySnapshot folds an authoritative broadcast into the replica and
// forces a full reconciliation pass. Stale or duplicate snapshots are
// ignored; the state sequence is monotonic.
func (s *Session) ApplySnapshot(snap domain.Snapshot) bool {
	if snap.StateSeq != 0 && snap.StateSeq <= s.lastStateSeq {
		return false
	}
	s.lastStateSeq = snap.StateSeq
	s.game.ApplySnapshot(snap)

	// Confirmation path: a pending card that became pile top settles on
	// reconcile; a pending card no longer in our hand and not on the
	// pile was consumed elsewhere and also settles.
	if s.rec != nil {
		s.rec.Reconcile(s.game, s.PlayerID)
	}
	return true
}

// RequestSeat posts a Join intent for the seat.
func (s *Session) RequestSeat(seat int) {
	s.seat = seat
	s.post(seat, relay.RequestJoin)
}

// RequestDraw posts a Draw intent for the session's seat.
func (s *Session) RequestDraw() error {
	return s.postOwnSeat(relay.RequestDraw)
}

// RequestLeave posts a Leave intent and forgets the seat.
func (s *Session) RequestLeave() error {
	err := s.postOwnSeat(relay.RequestLeave)
	if err == nil {
		s.seat = domain.NoSeat
	}
	return err
}

// DeclareUno posts an UNO declaration.
func (s *Session) DeclareUno() error {
	return s.postOwnSeat(relay.RequestDeclareUno)
}

// ChallengeUno posts a challenge against the currently vulnerable seat.
func (s *Session) ChallengeUno() error {
	return s.postOwnSeat(relay.RequestChallengeUno)
}

func (s *Session) postOwnSeat(t relay.RequestType) error {
	seat := s.game.SeatOf(s.PlayerID)
	if seat == domain.NoSeat {
		// Fall back to the requested seat before the first snapshot
		// confirms it.
		seat = s.seat
	}
	if seat == domain.NoSeat {
		return ErrNotSeated
	}
	s.post(seat, t)
	return nil
}

func (s *Session) post(seat int, t relay.RequestType) {
	slot := s.sender.Post(t, s.PlayerID)
	s.transport.SendRelay(seat, slot)
}

// RequestPlay submits an optimistic play: local prevalidation, then
// the prediction animation, then the wire request. The same rules the
// authority applies run here first so obviously illegal optimism never
// leaves the hand.
func (s *Session) RequestPlay(cardID int) error {
	seat := s.game.SeatOf(s.PlayerID)
	if seat == domain.NoSeat {
		return ErrNotSeated
	}
	if s.game.CardSlotInSeat(seat, cardID) < 0 {
		return ErrNotYourCard
	}
	if !s.game.CanSeatPlay(seat, cardID) {
		return ErrIllegalPlay
	}

	if s.rec != nil {
		s.rec.BeginLocalPlay(cardID)
	}
	s.transport.SendPlayRequest(cardID)
	return nil
}

// HandlePlayDenied rolls the optimistic prediction for a card back.
// Called when the targeted denial event arrives.
func (s *Session) HandlePlayDenied(cardID int) {
	if s.rec != nil {
		s.rec.HandleDenial(s.game, cardID)
	}
}

// HandleSound forwards a server sound cue to the presentation layer.
func (s *Session) HandleSound(cue string) {
	if s.rec != nil {
		s.rec.PlaySound(cue)
	}
}
