package client

import (
	"uno/internal/domain"
	"uno/internal/ports"
)

// Reconciler maps the replicated snapshot plus local prediction flags
// onto presentation state. Reconcile is pure with respect to game
// state: running it twice against the same snapshot produces the same
// presentation calls, so it is safe to force after every broadcast and
// repeat periodically for smoothing.
type Reconciler struct {
	layout ports.LayoutPort
	out    ports.PresentationPort

	cards map[int]*CardState

	animSeconds float64
	viewer      ports.Vec3
}

// NewReconciler builds card state machines for every card in the pool,
// all resting in the deck.
func NewReconciler(pool []domain.Card, layout ports.LayoutPort, out ports.PresentationPort, animSeconds float64) *Reconciler {
	r := &Reconciler{
		layout:      layout,
		out:         out,
		cards:       make(map[int]*CardState, len(pool)),
		animSeconds: animSeconds,
	}
	for id := range pool {
		r.cards[id] = NewCardState(id, layout.DeckPose())
	}
	return r
}

// Card exposes the state machine for one card, for pickup handling and
// tests.
func (r *Reconciler) Card(id int) *CardState { return r.cards[id] }

// SetViewer records the viewer position used for the pile-top
// billboard.
func (r *Reconciler) SetViewer(pos ports.Vec3) { r.viewer = pos }

// Reconcile performs one full derivation pass: authoritative placement
// for every card, then per-seat UI flags. localPlayerID selects which
// hand is face-up and pickupable.
func (r *Reconciler) Reconcile(g *domain.Game, localPlayerID string) {
	localSeat := g.SeatOf(localPlayerID)

	for seat := 0; seat < domain.MaxSeats; seat++ {
		r.out.SetSeatDisplayName(seat, g.SeatNames[seat])
	}

	for id, card := range r.cards {
		switch {
		case id == g.LastPlayed:
			r.reconcilePileTop(card)
		default:
			if seat := g.HolderOf(id); seat != domain.NoSeat {
				r.reconcileHandCard(g, card, seat, localSeat)
			} else {
				r.reconcileDeckCard(card)
			}
		}
	}

	r.reconcileUI(g, localSeat)
}

func (r *Reconciler) reconcilePileTop(card *CardState) {
	card.ConfirmPlayed(r.layout.PlayedPose(), r.animSeconds)
	r.out.SetCardVisible(card.ID, true)
	r.out.SetCardFaceUp(card.ID, true)
	r.out.SetCardPickupable(card.ID, false)
	r.out.MoveCardTo(card.ID, ports.Pose{
		Position: card.Current().Position,
		Rotation: billboardYaw(card.Current().Position, r.viewer),
		Scale:    card.Current().Scale,
	})
}

func (r *Reconciler) reconcileHandCard(g *domain.Game, card *CardState, seat, localSeat int) {
	// A card still optimistically flying to the pile keeps its
	// prediction until confirmation or denial.
	if card.Pending() {
		r.out.SetCardVisible(card.ID, true)
		r.out.SetCardFaceUp(card.ID, true)
		r.out.SetCardPickupable(card.ID, false)
		r.out.MoveCardTo(card.ID, card.Current())
		return
	}

	slot := g.CardSlotInSeat(seat, card.ID)
	index, count := handLayoutIndex(g, seat, slot)
	card.SetHandTarget(r.layout.HandPose(seat, index, count), r.animSeconds)

	local := seat == localSeat
	r.out.SetCardVisible(card.ID, true)
	r.out.SetCardFaceUp(card.ID, local)
	r.out.SetCardPickupable(card.ID, local)
	r.out.MoveCardTo(card.ID, card.Current())
}

func (r *Reconciler) reconcileDeckCard(card *CardState) {
	card.SetDeck(r.layout.DeckPose())
	r.out.SetCardVisible(card.ID, false)
	r.out.SetCardPickupable(card.ID, false)
}

// handLayoutIndex compacts a sparse hand slot into (fan index, fan
// count) over the occupied slots only, so gaps left by played cards do
// not leave holes in the fan.
func handLayoutIndex(g *domain.Game, seat, slot int) (int, int) {
	index, count := 0, 0
	for s := 0; s < g.Capacity; s++ {
		if g.Hands[g.HandIndex(seat, s)] == domain.NoCard {
			continue
		}
		if s < slot {
			index++
		}
		count++
	}
	return index, count
}

func (r *Reconciler) reconcileUI(g *domain.Game, localSeat int) {
	if g.Phase == domain.PhasePlaying {
		r.out.SetTurnIndicator(g.CurrentTurnSeat, g.TurnDirection)
	} else {
		r.out.SetTurnIndicator(domain.NoSeat, g.TurnDirection)
	}

	r.out.SetResultText(g.WinnerName)

	unoVisible := g.Phase == domain.PhasePlaying &&
		localSeat != domain.NoSeat &&
		g.CountCardsInSeat(localSeat) == 2 &&
		g.UnoCalledSeat != localSeat
	r.out.SetUnoButtonVisible(unoVisible)

	challengeVisible := g.UnoChallengeActive &&
		localSeat != domain.NoSeat &&
		localSeat != g.UnoVulnerableSeat
	r.out.SetChallengeButtonVisible(challengeVisible)
}

// PlaySound forwards a cue to the presentation layer.
func (r *Reconciler) PlaySound(cue string) { r.out.PlaySound(cue) }

// Step advances every card's animation by dt seconds. Presentation
// smoothing only; no placement decisions happen here.
func (r *Reconciler) Step(dt float64) {
	for _, card := range r.cards {
		card.Advance(dt)
	}
}

// BeginLocalPlay starts the optimistic fly-to-pile prediction for a
// card.
func (r *Reconciler) BeginLocalPlay(cardID int) {
	if card, ok := r.cards[cardID]; ok {
		card.BeginPendingPlay(r.layout.PlayedPose(), r.animSeconds)
	}
}

// HandleDenial rolls an optimistic play back. The next Reconcile pass
// reasserts the hand pose; the rollback animation starts immediately.
func (r *Reconciler) HandleDenial(g *domain.Game, cardID int) {
	card, ok := r.cards[cardID]
	if !ok || !card.Pending() {
		return
	}
	seat := g.HolderOf(cardID)
	if seat == domain.NoSeat {
		card.Deny(r.layout.DeckPose(), r.animSeconds)
		return
	}
	slot := g.CardSlotInSeat(seat, cardID)
	index, count := handLayoutIndex(g, seat, slot)
	card.Deny(r.layout.HandPose(seat, index, count), r.animSeconds)
	r.out.SetCardPickupable(cardID, true)
}
