package bot

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// BotIdentity is the profile a bot seat presents to other participants.
type BotIdentity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

const botIDPrefix = "bot-"

var botDisplayNames = []string{
	"Card Shark",
	"Wildcat",
	"Stacker",
	"Reverse Ralph",
}

var (
	identityMu sync.Mutex
	identities = map[string]BotIdentity{}
)

// NewIdentity mints a fresh bot identity. The seat index only picks the
// display name; the user id is unique per match lifetime.
func NewIdentity(seat int) BotIdentity {
	identity := BotIdentity{
		UserID:      botIDPrefix + uuid.NewString(),
		DisplayName: botDisplayNames[((seat%len(botDisplayNames))+len(botDisplayNames))%len(botDisplayNames)],
	}
	identityMu.Lock()
	identities[identity.UserID] = identity
	identityMu.Unlock()
	return identity
}

// IsBot reports whether the given user id belongs to a bot seat.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, botIDPrefix)
}

// DisplayName returns the display name for a bot id, or an empty string
// for unknown or human ids.
func DisplayName(userID string) string {
	identityMu.Lock()
	defer identityMu.Unlock()
	return identities[userID].DisplayName
}
