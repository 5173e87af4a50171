package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// TableConfig holds the tunable rules for an UNO table.
type TableConfig struct {
	// StartingHandSize is the number of cards dealt to a joining seat.
	StartingHandSize int `json:"starting_hand_size"`
	// HandCapacity is the maximum cards a seat can hold.
	HandCapacity int `json:"hand_capacity"`
	// ActionCounterWindowSeconds is how long the threatened seat has to
	// counter a Skip / +2 / +4 before the penalty lands.
	ActionCounterWindowSeconds float64 `json:"action_counter_window_seconds"`
	// UnoChallengeWindowSeconds is how long other seats have to challenge
	// a player who forgot to declare UNO.
	UnoChallengeWindowSeconds float64 `json:"uno_challenge_window_seconds"`
	// DrawUntilPlayable keeps the turn with a drawing player until they
	// hold a playable card.
	DrawUntilPlayable bool `json:"draw_until_playable"`
	// TurnAndCardValidation toggles rule enforcement; off means free play.
	TurnAndCardValidation bool `json:"turn_and_card_validation"`
	// ClientLayoutTickSeconds is the periodic reconciliation cadence on
	// each participant.
	ClientLayoutTickSeconds float64 `json:"client_layout_tick_seconds"`
	// BotAutoFillDelaySeconds configures how many seconds to wait before
	// seating bots at a solo human table.
	BotAutoFillDelaySeconds int `json:"bot_auto_fill_delay_seconds"`
	// BotMinDelaySeconds / BotMaxDelaySeconds bound a bot's think time.
	BotMinDelaySeconds int `json:"bot_min_delay_seconds"`
	BotMaxDelaySeconds int `json:"bot_max_delay_seconds"`
}

// DefaultTableConfig mirrors the table defaults used when no config
// file is present.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		StartingHandSize:           7,
		HandCapacity:               30,
		ActionCounterWindowSeconds: 5,
		UnoChallengeWindowSeconds:  5,
		DrawUntilPlayable:          false,
		TurnAndCardValidation:      true,
		ClientLayoutTickSeconds:    0.15,
		BotAutoFillDelaySeconds:    5,
		BotMinDelaySeconds:         1,
		BotMaxDelaySeconds:         3,
	}
}

var (
	cfg      *TableConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadTableConfig loads the table configuration from the given path.
// Missing fields keep their defaults.
func LoadTableConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read table config: %w", err)
			return
		}

		c := DefaultTableConfig()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal table config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetTableConfig returns the loaded configuration, or the defaults when
// no file has been loaded.
func GetTableConfig() TableConfig {
	if cfg == nil {
		return DefaultTableConfig()
	}
	return *cfg
}
