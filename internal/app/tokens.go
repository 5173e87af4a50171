package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// TableTokenService mints short-lived table session tokens. Clients
// present one when opening the spectator stream or rejoining a seat so
// the transport can admit them without another account round trip.
type TableTokenService struct {
	tokenSecret string
	tokenIssuer string
	tokenTTL    time.Duration
}

const (
	TableTokenActionJoin     = "join"
	TableTokenActionSpectate = "spectate"
)

func NewTableTokenService(secret, issuer string, ttl time.Duration) *TableTokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TableTokenService{
		tokenSecret: secret,
		tokenIssuer: issuer,
		tokenTTL:    ttl,
	}
}

// GenerateToken mints a signed token binding a user to an action on a
// specific match. Seat is only meaningful for join tokens; spectators
// pass NoSeat.
func (s *TableTokenService) GenerateToken(user, action, matchID string, seat int) (string, error) {
	if s == nil {
		return "", fmt.Errorf("token service is nil")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}
	if matchID == "" {
		return "", fmt.Errorf("match id is required")
	}
	if s.tokenSecret == "" || s.tokenIssuer == "" {
		return "", fmt.Errorf("token config is incomplete")
	}

	switch action {
	case TableTokenActionJoin:
		if seat < 0 {
			return "", fmt.Errorf("seat is required for join tokens")
		}
	case TableTokenActionSpectate:
		seat = -1
	default:
		return "", fmt.Errorf("unsupported token action: %s", action)
	}

	claims := jwt.MapClaims{
		"iss":   s.tokenIssuer,
		"sub":   user,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
		"act":   action,
		"match": matchID,
		"seat":  seat,
		"jti":   fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Int63()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.tokenSecret))
}

// VerifyToken parses and validates a table token, returning its claims.
func (s *TableTokenService) VerifyToken(tokenString string) (jwt.MapClaims, error) {
	if s == nil || s.tokenSecret == "" {
		return nil, fmt.Errorf("token config is incomplete")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.tokenSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims are not map claims")
	}
	if iss, _ := claims["iss"].(string); iss != s.tokenIssuer {
		return nil, fmt.Errorf("unexpected issuer")
	}
	return claims, nil
}
