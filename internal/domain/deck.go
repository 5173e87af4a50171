package domain

import "math/rand"

// InitDeck resets the deck to a uniform Fisher-Yates shuffle of the
// full pool with the draw pointer at 0.
func (g *Game) InitDeck(rng *rand.Rand) {
	for i := range g.deckOrder {
		g.deckOrder[i] = i
	}
	for i := len(g.deckOrder) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		g.deckOrder[i], g.deckOrder[j] = g.deckOrder[j], g.deckOrder[i]
	}
	g.deckTop = 0
}

// DeckRemaining returns the number of undrawn cards.
func (g *Game) DeckRemaining() int { return len(g.deckOrder) - g.deckTop }

// DrawTopCard removes and returns the next undrawn card id, or NoCard
// when the deck is exhausted. Deck exhaustion is a silent denial.
func (g *Game) DrawTopCard() int {
	if g.deckTop >= len(g.deckOrder) {
		return NoCard
	}
	id := g.deckOrder[g.deckTop]
	g.deckTop++
	return id
}

// ReturnCardToDeck reinserts a card at a uniformly random position
// within the currently undrawn range and decrements the draw pointer by
// one. The already-drawn history is intentionally not reshuffled; the
// operation stays O(1). A card already in the undrawn range is left
// where it is.
func (g *Game) ReturnCardToDeck(rng *rand.Rand, cardID int) {
	if len(g.deckOrder) == 0 || cardID < 0 || cardID >= len(g.Pool) {
		return
	}
	for i := g.deckTop; i < len(g.deckOrder); i++ {
		if g.deckOrder[i] == cardID {
			return
		}
	}
	if g.deckTop > 0 {
		g.deckTop--
	}
	insert := g.deckTop + rng.Intn(len(g.deckOrder)-g.deckTop)
	g.deckOrder[g.deckTop] = g.deckOrder[insert]
	g.deckOrder[insert] = cardID
}

// DeckOrder exposes a copy of the deck permutation for tests and
// authority-restore checks.
func (g *Game) DeckOrder() []int {
	out := make([]int, len(g.deckOrder))
	copy(out, g.deckOrder)
	return out
}

// DeckTop returns the current draw pointer.
func (g *Game) DeckTop() int { return g.deckTop }
