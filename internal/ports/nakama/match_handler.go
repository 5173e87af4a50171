package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"

	"uno/internal/app"
	"uno/internal/bot"
	"uno/internal/config"
	"uno/internal/domain"
	"uno/internal/relay"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match
// handler. The app service owns game truth; this struct carries the
// transport-side bookkeeping around it.
type MatchState struct {
	Tick      int64                       `json:"tick"`
	OwnerSeat int                         `json:"owner_seat"`
	Presences map[string]runtime.Presence `json:"-"` // UserID -> Presence for targeted messaging
	App       *app.Service                `json:"-"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`
	BotSeqs              [domain.MaxSeats]int64 `json:"bot_seqs"` // relay sequence counters for bot seats

	LastLabel MatchLabel `json:"-"`
}

// matchTickRate is the authority loop frequency. The counter and UNO
// windows are wall-clock deadlines, so the rate only bounds request
// latency.
const matchTickRate = 5

func (ms *MatchState) gameSeats() [domain.MaxSeats]string {
	return ms.App.Game().Seats
}

func (ms *MatchState) openSeatCount() int {
	count := 0
	for _, uid := range ms.gameSeats() {
		if uid == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) humanSeatCount() int {
	count := 0
	for _, uid := range ms.gameSeats() {
		if uid != "" && !bot.IsBot(uid) {
			count++
		}
	}
	return count
}

// firstHumanSeat returns the lowest seat with a human occupant, or -1.
func firstHumanSeat(seats [domain.MaxSeats]string) int {
	for i, uid := range seats {
		if uid != "" && !bot.IsBot(uid) {
			return i
		}
	}
	return -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadTableConfig("data/table_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load table config: %v", err)
	}
	cfg := config.GetTableConfig()

	state := &MatchState{
		OwnerSeat: -1,
		Presences: make(map[string]runtime.Presence),
		Bots:      make(map[string]*bot.Agent),
	}

	// Environment overrides.
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["uno_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["uno_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["uno_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["uno_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}
	if val, ok := env["uno_draw_until_playable"]; ok {
		cfg.DrawUntilPlayable = val == "true"
	}
	if val, ok := env["uno_disable_validation"]; ok && val == "true" {
		cfg.TurnAndCardValidation = false
	}

	if state.BotMinDelay == 0 {
		state.BotMinDelay = cfg.BotMinDelaySeconds
	}
	if state.BotMaxDelay == 0 {
		state.BotMaxDelay = cfg.BotMaxDelaySeconds
	}
	if state.BotAutoFillDelay == 0 {
		state.BotAutoFillDelay = cfg.BotAutoFillDelaySeconds
	}

	state.App = app.NewService(cfg, nil)
	// The Nakama match loop is the single authority for this table.
	state.App.SetAuthority(true)

	label := MatchLabel{Open: domain.MaxSeats, Game: "uno", Phase: string(domain.PhaseLobby)}
	state.LastLabel = label
	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, matchTickRate, string(labelBytes)
}

// MatchJoinAttempt admits everyone: spectators watch without a seat and
// seats are claimed through the relay, not through presence join.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	if _, ok := state.(*MatchState); !ok {
		return state, false, "state not found"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		logger.Debug("MatchJoin: %s connected.", p.GetUserId())
	}

	// Late joiners and rejoining seat holders catch up from a full
	// snapshot.
	mh.broadcastSnapshot(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more participants disconnect.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		events := matchState.App.PlayerLeft(p.GetUserId())
		for _, ev := range events {
			mh.broadcastEvent(matchState, dispatcher, logger, ev)
		}
		logger.Debug("MatchLeave: %s disconnected.", p.GetUserId())
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating match with no participants.")
		return nil
	}

	mh.refreshOwner(matchState, logger)
	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpSeatRequest:
			mh.handleSeatRequest(matchState, logger, msg)
		case OpPlayRequest:
			mh.handlePlayRequest(matchState, logger, msg)
		case OpStartMatch:
			mh.handleStartMatch(matchState, dispatcher, logger, msg)
		case OpResetMatch:
			mh.handleResetMatch(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if matchState.BotsEnabled {
		mh.processBots(matchState, logger)
	}

	events := matchState.App.Tick()
	events = append(events, mh.syncSeatNames(matchState)...)
	for _, ev := range events {
		mh.broadcastEvent(matchState, dispatcher, logger, ev)
	}

	mh.refreshOwner(matchState, logger)
	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) handleSeatRequest(state *MatchState, logger runtime.Logger, msg runtime.MatchData) {
	var req SeatRequestMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handleSeatRequest: Invalid payload from %s: %v", msg.GetUserId(), err)
		return
	}
	if req.Seat < 0 || req.Seat >= domain.MaxSeats {
		logger.Warn("handleSeatRequest: Seat %d out of range from %s", req.Seat, msg.GetUserId())
		return
	}
	reqType := relay.RequestType(req.Type)
	if reqType <= relay.RequestNone || reqType > relay.RequestChallengeUno {
		logger.Warn("handleSeatRequest: Unknown request type %d from %s", req.Type, msg.GetUserId())
		return
	}

	// The sender identity comes from the session, never from the payload.
	state.App.WriteRelay(req.Seat, relay.Slot{
		Seq:      req.Seq,
		Type:     reqType,
		PlayerID: msg.GetUserId(),
	})
}

func (mh *matchHandler) handlePlayRequest(state *MatchState, logger runtime.Logger, msg runtime.MatchData) {
	var req PlayRequestMessage
	if err := json.Unmarshal(msg.GetData(), &req); err != nil {
		logger.Warn("handlePlayRequest: Invalid payload from %s: %v", msg.GetUserId(), err)
		return
	}

	g := state.App.Game()
	if _, ok := g.CardAt(req.CardID); !ok {
		logger.Warn("handlePlayRequest: Unknown card %d from %s", req.CardID, msg.GetUserId())
		return
	}

	// Only the seat holding a card may request its play; the full rule
	// validation happens on the tick.
	seat := g.SeatOf(msg.GetUserId())
	if seat == domain.NoSeat || g.HolderOf(req.CardID) != seat {
		logger.Warn("handlePlayRequest: %s requested card %d it does not hold.", msg.GetUserId(), req.CardID)
		return
	}

	state.App.MarkPlayRequested(req.CardID)
}

func (mh *matchHandler) handleStartMatch(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := state.App.Game().SeatOf(senderID)

	logger.Info("StartMatch: Request received from %s (seat=%d, owner_seat=%d)", senderID, senderSeat, state.OwnerSeat)

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartMatch: User %s tried to start but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}
	if err := state.App.CanStart(); err != nil {
		logger.Warn("StartMatch: Cannot start: %v", err)
		return
	}

	for _, ev := range state.App.StartMatch() {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	logger.Info("StartMatch: Hand started with %d players.", domain.MaxSeats-state.openSeatCount())
}

func (mh *matchHandler) handleResetMatch(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.App.Game().SeatOf(senderID) != state.OwnerSeat {
		logger.Warn("ResetMatch: User %s tried to reset but is not owner.", senderID)
		return
	}

	state.Bots = make(map[string]*bot.Agent)
	for _, ev := range state.App.ResetMatch() {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	logger.Info("ResetMatch: Table reset by %s.", senderID)
}

func (mh *matchHandler) processBots(state *MatchState, logger runtime.Logger) {
	g := state.App.Game()

	// 1. Auto-fill the lobby with bots when a single human has been
	// waiting past the delay.
	if g.Phase == domain.PhaseLobby {
		if state.humanSeatCount() == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}
			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay*matchTickRate) {
				for seat, uid := range g.Seats {
					if uid != "" {
						continue
					}
					identity := bot.NewIdentity(seat)
					agent := bot.NewAgent(identity, nil)
					state.Bots[identity.UserID] = agent
					state.BotSeqs[seat]++
					state.App.WriteRelay(seat, relay.Slot{
						Seq:      state.BotSeqs[seat],
						Type:     relay.RequestJoin,
						PlayerID: identity.UserID,
					})
					logger.Info("processBots: Added bot %s (%s) to seat %d", identity.DisplayName, identity.UserID, seat)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
	}

	if g.Phase != domain.PhasePlaying {
		return
	}

	// 2. Off-turn reactions: bots always punish an undeclared UNO.
	for seat, uid := range g.Seats {
		agent, isBot := state.Bots[uid]
		if !isBot {
			continue
		}
		if agent.ShouldChallenge(g, seat) {
			state.BotSeqs[seat]++
			state.App.WriteRelay(seat, relay.Slot{
				Seq:      state.BotSeqs[seat],
				Type:     relay.RequestChallengeUno,
				PlayerID: uid,
			})
		}
	}

	// 3. Turn actions, after a humanizing delay.
	currentSeat := g.CurrentTurnSeat
	if currentSeat < 0 || currentSeat >= domain.MaxSeats {
		return
	}
	currentUID := g.Seats[currentSeat]
	agent, isBot := state.Bots[currentUID]
	if !isBot {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 {
		delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay*matchTickRate)
		logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", currentUID, currentSeat, state.BotWaitUntil, state.Tick)
		return
	}
	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	move := agent.Play(g, currentSeat)
	switch {
	case move.DeclareUno:
		state.BotSeqs[currentSeat]++
		state.App.WriteRelay(currentSeat, relay.Slot{
			Seq:      state.BotSeqs[currentSeat],
			Type:     relay.RequestDeclareUno,
			PlayerID: currentUID,
		})
	case move.Draw:
		state.BotSeqs[currentSeat]++
		state.App.WriteRelay(currentSeat, relay.Slot{
			Seq:      state.BotSeqs[currentSeat],
			Type:     relay.RequestDraw,
			PlayerID: currentUID,
		})
	default:
		state.App.MarkPlayRequested(move.CardID)
	}
}

// syncSeatNames pushes display names for freshly seated occupants into
// the game so name tags and winner text resolve.
func (mh *matchHandler) syncSeatNames(state *MatchState) []app.Event {
	var events []app.Event
	g := state.App.Game()
	for _, uid := range g.Seats {
		if uid == "" {
			continue
		}
		name := ""
		if p, ok := state.Presences[uid]; ok {
			name = p.GetUsername()
		} else if botName := bot.DisplayName(uid); botName != "" {
			name = botName
		}
		if name == "" {
			name = uid
		}
		events = append(events, state.App.SetSeatName(uid, name)...)
	}
	return events
}

func (mh *matchHandler) refreshOwner(state *MatchState, logger runtime.Logger) {
	newOwner := firstHumanSeat(state.gameSeats())
	if newOwner != state.OwnerSeat {
		state.OwnerSeat = newOwner
		if newOwner >= 0 {
			logger.Debug("Owner set to human seat %d.", newOwner)
		}
	}
}

func (mh *matchHandler) broadcastSnapshot(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	snapshot := state.App.Game().Snapshot()
	bytes, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("broadcastSnapshot: Failed to marshal snapshot: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSnapshot, bytes, nil, nil, true)
}

// broadcastEvent converts one app event into a Nakama broadcast.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var bytes []byte
	var err error

	switch ev.Kind {
	case app.EventStateChanged:
		mh.broadcastSnapshot(state, dispatcher, logger)
		return
	case app.EventSound:
		opCode = OpSound
		p := ev.Payload.(app.SoundPayload)
		bytes, err = json.Marshal(SoundMessage{Cue: string(p.Cue)})
	case app.EventPlayDenied:
		opCode = OpPlayDenied
		p := ev.Payload.(app.PlayDeniedPayload)
		bytes, err = json.Marshal(PlayDeniedMessage{CardID: p.CardID, Seat: p.Seat})
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Default to broadcast; targeted events go only to connected
	// recipients and are dropped when none are connected.
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label := MatchLabel{
		Open:  state.openSeatCount(),
		Game:  "uno",
		Phase: string(state.App.Game().Phase),
	}
	if label == state.LastLabel {
		return
	}
	state.LastLabel = label

	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
