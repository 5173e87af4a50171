package domain

// Color identifies a card face color. Wild-class cards carry ColorWild
// until scored against the pile; they match any color.
type Color int32

const (
	ColorRed Color = iota
	ColorYellow
	ColorGreen
	ColorBlue
	ColorWild
)

// Rank identifies a card face value or action kind.
type Rank int32

const (
	RankZero Rank = iota
	RankOne
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankSkip
	RankReverse
	RankDrawTwo
	RankWild
	RankWildDrawFour

	// RankNone marks the absence of a pending action kind.
	RankNone Rank = -1
)

// Card is a single card in the table's fixed pool. Cards are addressed
// everywhere by their index into the pool (the card id); the struct only
// carries the immutable face.
type Card struct {
	Color Color `json:"color"`
	Rank  Rank  `json:"rank"`
}

// IsWild reports whether the card matches any pile color.
func (c Card) IsWild() bool {
	return c.Rank == RankWild || c.Rank == RankWildDrawFour
}

// IsAction reports whether playing the card opens (or stacks into) a
// timed counter window. Reverse is deliberately not an action card: its
// effect is immediate and cannot be countered.
func (c Card) IsAction() bool {
	return c.Rank == RankSkip || c.Rank == RankDrawTwo || c.Rank == RankWildDrawFour
}

// DrawPenalty returns the cards the threatened seat must draw if the
// card's window expires uncountered.
func (c Card) DrawPenalty() int {
	switch c.Rank {
	case RankDrawTwo:
		return 2
	case RankWildDrawFour:
		return 4
	default:
		return 0
	}
}

// NoCard is the empty card-id slot value.
const NoCard = -1

// NewCardPool returns the standard 108-card pool in catalog order:
// per color one zero, two of each 1-9, two Skip, two Reverse, two
// DrawTwo; then four Wild and four WildDrawFour.
func NewCardPool() []Card {
	pool := make([]Card, 0, 108)
	for color := ColorRed; color <= ColorBlue; color++ {
		pool = append(pool, Card{Color: color, Rank: RankZero})
		for rank := RankOne; rank <= RankDrawTwo; rank++ {
			pool = append(pool, Card{Color: color, Rank: rank}, Card{Color: color, Rank: rank})
		}
	}
	for i := 0; i < 4; i++ {
		pool = append(pool, Card{Color: ColorWild, Rank: RankWild})
	}
	for i := 0; i < 4; i++ {
		pool = append(pool, Card{Color: ColorWild, Rank: RankWildDrawFour})
	}
	return pool
}
