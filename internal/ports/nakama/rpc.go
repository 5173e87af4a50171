package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"uno/internal/app"
	"uno/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickTableResponse is the payload returned to clients when requesting
// an open table.
type QuickTableResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// TableTokenRequest asks for a session token tied to a match.
type TableTokenRequest struct {
	MatchID string `json:"match_id"`
	Action  string `json:"action"` // "join" or "spectate"
	Seat    int    `json:"seat"`
}

// TableTokenResponse carries the minted token.
type TableTokenResponse struct {
	Token string `json:"token"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickTable, rpcQuickTable); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcTableToken, rpcTableToken)
}

func rpcQuickTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	// Find any open table still in the lobby.
	query := `+label.open:>=1 +label.game:uno +label.phase:lobby`

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := domain.MaxSeats

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}

	if len(matches) > 0 {
		resp := QuickTableResponse{MatchID: matches[0].MatchId, IsNew: false}
		b, _ := json.Marshal(resp)
		return string(b), nil
	}

	// Create a new table; seating happens through the relay once joined.
	matchID, err := nk.MatchCreate(ctx, MatchNameUno, map[string]interface{}{})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := QuickTableResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}

func rpcTableToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", fmt.Errorf("no user session")
	}

	var req TableTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	secret := env["uno_token_secret"]
	issuer := env["uno_token_issuer"]
	if issuer == "" {
		issuer = "uno-server"
	}

	svc := app.NewTableTokenService(secret, issuer, time.Hour)
	token, err := svc.GenerateToken(userID, req.Action, req.MatchID, req.Seat)
	if err != nil {
		logger.Warn("rpcTableToken: User %s token request failed: %v", userID, err)
		return "", err
	}

	resp := TableTokenResponse{Token: token}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
