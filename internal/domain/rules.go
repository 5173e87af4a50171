package domain

// PlayDenial classifies why a play request was refused. Denials are
// plain values, not errors: the authority clears the request and moves
// on, and the requester's client rolls its prediction back.
type PlayDenial int

const (
	PlayAccepted PlayDenial = iota
	DenyUnknownCard
	DenyNotInHand
	DenyNotYourTurn
	DenyNoMatch
	DenyWrongCounter
	DenyNotRunning
)

// MatchesPile reports whether the card may land on the current pile
// top: wild-class always, empty or wild-topped pile always, otherwise a
// color or rank match.
func (g *Game) MatchesPile(cardID int) bool {
	card, ok := g.CardAt(cardID)
	if !ok {
		return false
	}
	if card.IsWild() {
		return true
	}
	top, ok := g.CardAt(g.LastPlayed)
	if !ok {
		return true // empty pile, anything goes
	}
	if top.IsWild() {
		return true
	}
	return card.Color == top.Color || card.Rank == top.Rank
}

// ValidatePlay applies the full play-request validation for a card:
// match running, card held by the current-turn seat, pile match, and
// (while an action window is open) an exact pending-kind match.
func (g *Game) ValidatePlay(cardID int) PlayDenial {
	if g.Phase != PhasePlaying {
		return DenyNotRunning
	}
	card, ok := g.CardAt(cardID)
	if !ok {
		return DenyUnknownCard
	}
	holder := g.HolderOf(cardID)
	if holder == NoSeat {
		return DenyNotInHand
	}
	if holder != g.CurrentTurnSeat {
		return DenyNotYourTurn
	}
	if !g.MatchesPile(cardID) {
		return DenyNoMatch
	}
	if g.ActionPending {
		if !card.IsAction() || card.Rank != g.PendingActionRank {
			return DenyWrongCounter
		}
	}
	return PlayAccepted
}

// CanSeatPlay is the client-side prevalidation: the same rules as
// ValidatePlay evaluated for a specific seat, used to keep obviously
// illegal optimism from ever leaving the hand.
func (g *Game) CanSeatPlay(seat, cardID int) bool {
	if g.Phase != PhasePlaying {
		return false
	}
	if g.CardSlotInSeat(seat, cardID) < 0 {
		return false
	}
	if seat != g.CurrentTurnSeat {
		return false
	}
	if !g.MatchesPile(cardID) {
		return false
	}
	if g.ActionPending {
		card, ok := g.CardAt(cardID)
		if !ok || card.Rank != g.PendingActionRank {
			return false
		}
	}
	return true
}
