package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"uno/internal/bot"
	"uno/internal/domain"
	"uno/internal/relay"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
	lastLabel      string
	opCodes        []int64
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	md.opCodes = append(md.opCodes, opCode)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) sawOpCode(opCode int64) bool {
	for _, op := range md.opCodes {
		if op == opCode {
			return true
		}
	}
	return false
}

// testPresence implements runtime.Presence.
type testPresence struct {
	userID   string
	username string
}

func (p testPresence) GetUserId() string                  { return p.userID }
func (p testPresence) GetSessionId() string               { return "session-" + p.userID }
func (p testPresence) GetNodeId() string                  { return "node" }
func (p testPresence) GetHidden() bool                    { return false }
func (p testPresence) GetPersistence() bool               { return false }
func (p testPresence) GetUsername() string                { return p.username }
func (p testPresence) GetStatus() string                  { return "" }
func (p testPresence) GetReason() runtime.PresenceReason  { return runtime.PresenceReasonUnknown }

// testMatchData implements runtime.MatchData.
type testMatchData struct {
	testPresence
	opCode int64
	data   []byte
}

func (m testMatchData) GetOpCode() int64      { return m.opCode }
func (m testMatchData) GetData() []byte       { return m.data }
func (m testMatchData) GetReliable() bool     { return true }
func (m testMatchData) GetReceiveTime() int64 { return 0 }

func seatRequestData(t *testing.T, seat int, seq int64, reqType relay.RequestType) []byte {
	t.Helper()
	b, err := json.Marshal(SeatRequestMessage{Seat: seat, Seq: seq, Type: int(reqType)})
	if err != nil {
		t.Fatalf("marshal seat request: %v", err)
	}
	return b
}

func playRequestData(t *testing.T, cardID int) []byte {
	t.Helper()
	b, err := json.Marshal(PlayRequestMessage{CardID: cardID})
	if err != nil {
		t.Fatalf("marshal play request: %v", err)
	}
	return b
}

func initTestMatch(t *testing.T, env map[string]string) (*matchHandler, *MatchState) {
	t.Helper()
	if env == nil {
		env = map[string]string{}
	}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)

	handler := &matchHandler{}
	stateIface, tickRate, label := handler.MatchInit(ctx, noopLogger{}, nil, nil, nil)
	if stateIface == nil {
		t.Fatal("MatchInit returned nil state")
	}
	if tickRate != matchTickRate {
		t.Fatalf("tick rate = %d, want %d", tickRate, matchTickRate)
	}
	if label == "" {
		t.Fatal("MatchInit returned empty label")
	}

	state, ok := stateIface.(*MatchState)
	if !ok {
		t.Fatalf("state has type %T", stateIface)
	}
	return handler, state
}

// joinAndSeat connects a presence and claims a seat through the relay.
func joinAndSeat(t *testing.T, handler *matchHandler, state *MatchState, dispatcher *mockDispatcher, tick int64, seat int, userID, username string) {
	t.Helper()
	ctx := context.Background()
	p := testPresence{userID: userID, username: username}
	handler.MatchJoin(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, []runtime.Presence{p})

	msg := testMatchData{
		testPresence: p,
		opCode:       OpSeatRequest,
		data:         seatRequestData(t, seat, 1, relay.RequestJoin),
	}
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, []runtime.MatchData{msg})

	if got := state.App.Game().Seats[seat]; got != userID {
		t.Fatalf("seat %d = %q, want %q", seat, got, userID)
	}
}

func TestMatchInitLobbyLabel(t *testing.T) {
	_, state := initTestMatch(t, nil)

	if state.LastLabel.Phase != string(domain.PhaseLobby) {
		t.Fatalf("label phase = %s, want lobby", state.LastLabel.Phase)
	}
	if state.LastLabel.Open != domain.MaxSeats {
		t.Fatalf("label open = %d, want %d", state.LastLabel.Open, domain.MaxSeats)
	}
	if !state.App.Authority() {
		t.Fatal("match loop must hold authority")
	}
}

func TestSeatClaimThroughRelay(t *testing.T) {
	handler, state := initTestMatch(t, nil)
	dispatcher := &mockDispatcher{}

	joinAndSeat(t, handler, state, dispatcher, 1, 0, "user-1", "Alice")

	if !dispatcher.sawOpCode(OpSnapshot) {
		t.Fatal("expected a snapshot broadcast after seating")
	}
	if dispatcher.labelUpdates == 0 {
		t.Fatal("expected a label update after seating")
	}
	if got := state.App.Game().SeatNames[0]; got != "Alice" {
		t.Fatalf("seat name = %q, want Alice", got)
	}
}

func TestStartMatchOwnerGate(t *testing.T) {
	handler, state := initTestMatch(t, nil)
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	joinAndSeat(t, handler, state, dispatcher, 1, 0, "user-1", "Alice")
	joinAndSeat(t, handler, state, dispatcher, 2, 1, "user-2", "Bob")

	// Seat 1 is not the owner; the start request is refused.
	start := testMatchData{
		testPresence: testPresence{userID: "user-2", username: "Bob"},
		opCode:       OpStartMatch,
	}
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{start})
	if state.App.Game().Phase != domain.PhaseLobby {
		t.Fatal("non-owner started the match")
	}

	start.testPresence = testPresence{userID: "user-1", username: "Alice"}
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{start})

	g := state.App.Game()
	if g.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %s, want playing", g.Phase)
	}
	if g.CountCardsInSeat(0) != 7 || g.CountCardsInSeat(1) != 7 {
		t.Fatalf("hands = %d/%d, want 7/7", g.CountCardsInSeat(0), g.CountCardsInSeat(1))
	}
	if state.LastLabel.Phase != string(domain.PhasePlaying) {
		t.Fatalf("label phase = %s, want playing", state.LastLabel.Phase)
	}
}

func TestPlayRequestOwnershipGuard(t *testing.T) {
	handler, state := initTestMatch(t, nil)
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	joinAndSeat(t, handler, state, dispatcher, 1, 0, "user-1", "Alice")
	joinAndSeat(t, handler, state, dispatcher, 2, 1, "user-2", "Bob")

	start := testMatchData{
		testPresence: testPresence{userID: "user-1", username: "Alice"},
		opCode:       OpStartMatch,
	}
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{start})

	g := state.App.Game()
	bobCard := g.Hands[g.HandIndex(1, 0)]
	if bobCard == domain.NoCard {
		t.Fatal("seat 1 has no cards after start")
	}

	// Alice requesting Bob's card never reaches the rules engine.
	play := testMatchData{
		testPresence: testPresence{userID: "user-1", username: "Alice"},
		opCode:       OpPlayRequest,
		data:         playRequestData(t, bobCard),
	}
	handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{play})

	if g.HolderOf(bobCard) != 1 {
		t.Fatalf("card %d left seat 1", bobCard)
	}
}

func TestBotAutoFill(t *testing.T) {
	handler, state := initTestMatch(t, map[string]string{
		"uno_bots_enabled":            "true",
		"uno_bot_auto_fill_delay_sec": "1",
	})
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	joinAndSeat(t, handler, state, dispatcher, 1, 0, "user-1", "Alice")

	// Auto-fill triggers after the delay and the join relays land on the
	// following tick.
	for tick := int64(2); tick <= 2+int64(state.BotAutoFillDelay*matchTickRate)+2; tick++ {
		handler.MatchLoop(ctx, noopLogger{}, nil, nil, dispatcher, tick, state, nil)
	}

	g := state.App.Game()
	botCount := 0
	for _, uid := range g.Seats {
		if bot.IsBot(uid) {
			botCount++
		}
	}
	if botCount != domain.MaxSeats-1 {
		t.Fatalf("bot seats = %d, want %d", botCount, domain.MaxSeats-1)
	}
	for seat, uid := range g.Seats {
		if bot.IsBot(uid) && g.SeatNames[seat] == "" {
			t.Fatalf("bot seat %d has no display name", seat)
		}
	}
}

func TestMatchLeaveClearsSeatAndTerminatesWhenEmpty(t *testing.T) {
	handler, state := initTestMatch(t, nil)
	dispatcher := &mockDispatcher{}
	ctx := context.Background()

	joinAndSeat(t, handler, state, dispatcher, 1, 0, "user-1", "Alice")
	joinAndSeat(t, handler, state, dispatcher, 2, 1, "user-2", "Bob")

	result := handler.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{
		testPresence{userID: "user-2", username: "Bob"},
	})
	if result == nil {
		t.Fatal("match terminated with a participant still connected")
	}
	if state.App.Game().Seats[1] != "" {
		t.Fatal("seat 1 not freed on leave")
	}

	result = handler.MatchLeave(ctx, noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{
		testPresence{userID: "user-1", username: "Alice"},
	})
	if result != nil {
		t.Fatal("expected termination with no participants left")
	}
}
