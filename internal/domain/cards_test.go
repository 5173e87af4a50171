package domain

import "testing"

func TestNewCardPoolComposition(t *testing.T) {
	pool := NewCardPool()

	if len(pool) != 108 {
		t.Fatalf("pool size = %d, want 108", len(pool))
	}

	rankCounts := make(map[Rank]int)
	colorCounts := make(map[Color]int)
	for _, card := range pool {
		rankCounts[card.Rank]++
		colorCounts[card.Color]++
	}

	tests := []struct {
		name string
		rank Rank
		want int
	}{
		{"Zeros", RankZero, 4},
		{"Ones", RankOne, 8},
		{"Nines", RankNine, 8},
		{"Skips", RankSkip, 8},
		{"Reverses", RankReverse, 8},
		{"DrawTwos", RankDrawTwo, 8},
		{"Wilds", RankWild, 4},
		{"WildDrawFours", RankWildDrawFour, 4},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := rankCounts[test.rank]; got != test.want {
				t.Fatalf("count(%v) = %d, want %d", test.rank, got, test.want)
			}
		})
	}

	for _, color := range []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue} {
		if got := colorCounts[color]; got != 25 {
			t.Fatalf("count(%v) = %d, want 25", color, got)
		}
	}
	if got := colorCounts[ColorWild]; got != 8 {
		t.Fatalf("count(wild) = %d, want 8", got)
	}
}

func TestCardClassification(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wild    bool
		action  bool
		penalty int
	}{
		{"Number", Card{Color: ColorRed, Rank: RankFive}, false, false, 0},
		{"Skip", Card{Color: ColorBlue, Rank: RankSkip}, false, true, 0},
		{"Reverse", Card{Color: ColorGreen, Rank: RankReverse}, false, false, 0},
		{"DrawTwo", Card{Color: ColorYellow, Rank: RankDrawTwo}, false, true, 2},
		{"Wild", Card{Color: ColorWild, Rank: RankWild}, true, false, 0},
		{"WildDrawFour", Card{Color: ColorWild, Rank: RankWildDrawFour}, true, true, 4},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := test.card.IsWild(); got != test.wild {
				t.Fatalf("IsWild() = %t, want %t", got, test.wild)
			}
			if got := test.card.IsAction(); got != test.action {
				t.Fatalf("IsAction() = %t, want %t", got, test.action)
			}
			if got := test.card.DrawPenalty(); got != test.penalty {
				t.Fatalf("DrawPenalty() = %d, want %d", got, test.penalty)
			}
		})
	}
}
