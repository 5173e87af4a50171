package bot

import (
	"math/rand"

	"uno/internal/domain"
)

// Move represents the decision made by the agent on its turn.
type Move struct {
	CardID     int  // domain.NoCard when not playing
	Draw       bool
	DeclareUno bool
}

// Agent represents an autonomous bot occupying one seat.
type Agent struct {
	Identity BotIdentity
	rng      *rand.Rand
}

// NewAgent creates an agent for the given identity with the provided
// rng or a deterministic default.
func NewAgent(identity BotIdentity, rng *rand.Rand) *Agent {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Agent{Identity: identity, rng: rng}
}

// Play calculates the agent's move for its turn: declare when about to
// go down to one card, otherwise play a random legal card, otherwise
// draw.
func (a *Agent) Play(g *domain.Game, seat int) Move {
	playable := a.playableCards(g, seat)
	if len(playable) == 0 {
		return Move{CardID: domain.NoCard, Draw: true}
	}

	// Going down to one card undeclared invites a challenge; declare
	// first and play on the next turn pass.
	if g.CountCardsInSeat(seat) == 2 && g.UnoCalledSeat != seat {
		return Move{CardID: domain.NoCard, DeclareUno: true}
	}

	return Move{CardID: playable[a.rng.Intn(len(playable))]}
}

// ShouldChallenge reports whether the agent challenges an open UNO
// window. Agents always punish an undeclared UNO.
func (a *Agent) ShouldChallenge(g *domain.Game, seat int) bool {
	return g.UnoChallengeActive && g.UnoVulnerableSeat != seat
}

func (a *Agent) playableCards(g *domain.Game, seat int) []int {
	var playable []int
	for slot := 0; slot < g.Capacity; slot++ {
		id := g.Hands[g.HandIndex(seat, slot)]
		if id == domain.NoCard {
			continue
		}
		if g.CanSeatPlay(seat, id) {
			playable = append(playable, id)
		}
	}
	return playable
}
