package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/core"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/store"
)

// IdentityResolver validates a credential and yields identity facts.
// Owned by the auth package; consumed here.
type IdentityResolver interface {
	Resolve(token string) (*domain.User, error)
}

// Coordinator owns all live session state for active rooms and turns
// client intents into consistent broadcasts. It is constructed once at
// startup and injected into every adapter; there is no package-level
// mutable state.
type Coordinator struct {
	Registry *Registry
	Rooms    core.RoomDirectory
	Pipeline *Pipeline
	Engine   *Engine
	Scores   *Aggregator
	Resolver IdentityResolver
	Policy   Policy

	// mu serializes every participant mutation with every roster
	// marshal: intent handlers run on concurrent read pumps, and a
	// userList/userStatusUpdated encode must never observe a half-applied
	// status write.
	mu sync.Mutex
}

// Options collects the coordinator's collaborators and tunables.
type Options struct {
	Store           store.Store
	Resolver        IdentityResolver
	HistoryLimit    int
	DefaultTimerSec int
	TickInterval    time.Duration
	ScoreConfig     *ScoreConfig
	Policy          Policy
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	cfg := DefaultScoreConfig()
	if opts.ScoreConfig != nil {
		cfg = *opts.ScoreConfig
	}
	if opts.Policy == nil {
		opts.Policy = SimplePolicy{}
	}
	c := &Coordinator{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(),
		Pipeline: NewPipeline(opts.Store, opts.HistoryLimit),
		Scores:   NewAggregator(opts.Store, cfg),
		Resolver: opts.Resolver,
		Policy:   opts.Policy,
	}
	c.Engine = NewEngineWithInterval(opts.DefaultTimerSec, opts.TickInterval, c.BroadcastRoom)
	return c
}

// Connect registers an anonymous session for a fresh transport
// connection. Nothing is visible to other participants yet.
func (c *Coordinator) Connect(conn core.SignalConnection, cancel context.CancelFunc) core.SessionID {
	return c.Registry.Register(core.NewParticipantSession(conn), cancel)
}

// Disconnect tears the session down: leaves its room (with the usual
// presence broadcast) and removes the registry entry. Idempotent.
func (c *Coordinator) Disconnect(sid core.SessionID) {
	c.Leave(sid)
	c.Registry.Unregister(sid)
}

// Join resolves the credential, binds a participant to the session,
// admits the connection to the room and announces the updated roster.
func (c *Coordinator) Join(sid core.SessionID, token string, roomID domain.RoomID, country string) (*domain.Participant, error) {
	if roomID == "" {
		return nil, domain.ValidationError("room is required")
	}
	sess, ok := c.Registry.Get(sid)
	if !ok {
		return nil, domain.NotFoundError("unknown session")
	}
	user, err := c.Resolver.Resolve(token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Rejoining from the same connection moves the participant.
	if sess.Participant() != nil {
		c.leaveLocked(sid)
	}

	p := domain.NewParticipant(user, roomID, country)
	sess.Bind(p)
	room := c.Rooms.GetOrCreate(roomID)
	room.AddMember(sid, sess)
	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("room", string(roomID)).Str("user", p.Username).Msg("participant joined")

	c.BroadcastRoom(roomID, NewSystemEvent(roomID, fmt.Sprintf("%s joined the room", p.Username)))
	c.broadcastRosterLocked(roomID)
	return p, nil
}

// Leave removes the connection from its room, deleting the room entry
// when it drains, and announces the updated roster. No-op for sessions
// that never joined.
func (c *Coordinator) Leave(sid core.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked(sid)
}

func (c *Coordinator) leaveLocked(sid core.SessionID) {
	sess, ok := c.Registry.Get(sid)
	if !ok {
		return
	}
	p := sess.Participant()
	if p == nil {
		return
	}
	roomID := p.RoomID
	sess.Bind(nil)
	room, ok := c.Rooms.Get(roomID)
	if !ok {
		return
	}
	room.RemoveMember(sid)
	if room.MemberCount() == 0 {
		c.Rooms.Remove(roomID)
		return
	}
	c.BroadcastRoom(roomID, NewSystemEvent(roomID, fmt.Sprintf("%s left the room", p.Username)))
	c.broadcastRosterLocked(roomID)
}

// participant resolves the joined participant behind a session, or the
// auth error every pre-join intent gets.
func (c *Coordinator) participant(sid core.SessionID) (*domain.Participant, error) {
	sess, ok := c.Registry.Get(sid)
	if !ok {
		return nil, domain.NotFoundError("unknown session")
	}
	p := sess.Participant()
	if p == nil {
		return nil, domain.AuthError("join a room first")
	}
	return p, nil
}

// Chat sends a group text message to the whole room, sender included.
func (c *Coordinator) Chat(sid core.SessionID, text, quoteID string) (*domain.ChatMessage, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	msg, err := c.Pipeline.Send(p, SendInput{Text: text, QuoteID: quoteID})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	p.LastSpeakTime = msg.Timestamp
	c.mu.Unlock()
	c.BroadcastRoom(p.RoomID, ChatEvent{Type: "chat", ChatMessage: msg})
	return msg, nil
}

// Image sends a structured image message to the whole room.
func (c *Coordinator) Image(sid core.SessionID, img *domain.ImagePayload) (*domain.ChatMessage, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, domain.ValidationError("image payload is required")
	}
	msg, err := c.Pipeline.Send(p, SendInput{Image: img})
	if err != nil {
		return nil, err
	}
	c.BroadcastRoom(p.RoomID, ChatEvent{Type: "image", ChatMessage: msg})
	return msg, nil
}

// Private sends a direct message: persisted like any other, delivered
// only to the recipient and echoed to the sender.
func (c *Coordinator) Private(sid core.SessionID, to domain.UserID, text string) (*domain.ChatMessage, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	if to == "" {
		return nil, domain.ValidationError("recipient is required")
	}
	msg, err := c.Pipeline.Send(p, SendInput{Text: text, To: to})
	if err != nil {
		return nil, err
	}
	event := ChatEvent{Type: "private", ChatMessage: msg}
	if room, ok := c.Rooms.Get(p.RoomID); ok {
		room.SendTo(to, c.marshal(event))
	}
	if sess, ok := c.Registry.Get(sid); ok {
		_ = sess.Signal().TrySend(c.marshal(event))
	}
	return msg, nil
}

// EditMessage rewrites a message's content and broadcasts a
// messageEdited event distinct from the original send.
func (c *Coordinator) EditMessage(sid core.SessionID, messageID, content string) (*domain.ChatMessage, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	msg, err := c.Pipeline.Edit(p, messageID, content)
	if err != nil {
		return nil, err
	}
	c.BroadcastRoom(p.RoomID, ChatEvent{Type: "messageEdited", ChatMessage: msg})
	return msg, nil
}

// RevokeMessage is deliberately two-channel: the revoking actor gets the
// original content back (so their input box can be restored), the room
// gets a content-free notice.
func (c *Coordinator) RevokeMessage(sid core.SessionID, messageID string) error {
	p, err := c.participant(sid)
	if err != nil {
		return err
	}
	orig, err := c.Pipeline.Revoke(p, messageID)
	if err != nil {
		return err
	}
	notice := MessageRevokedEvent{
		Type:      "messageRevoked",
		ID:        orig.ID,
		Username:  orig.Username,
		RevokedBy: p.Username,
		Timestamp: nowISO(),
	}
	restore := notice
	restore.Content = orig.Text
	if sess, ok := c.Registry.Get(sid); ok {
		_ = sess.Signal().TrySend(c.marshal(restore))
	}
	if room, ok := c.Rooms.Get(p.RoomID); ok {
		room.BroadcastExcept(sid, c.marshal(notice))
	}
	return nil
}

// History serves the getHistory intent: group mode is the persisted room
// history, private mode the thread between the caller and another user.
func (c *Coordinator) History(sid core.SessionID, mode string, with domain.UserID) ([]*domain.ChatMessage, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	switch mode {
	case "", "group":
		return c.Pipeline.History(p.RoomID, 0, 0)
	case "private":
		if with == "" {
			return nil, domain.ValidationError("private history needs a counterpart user")
		}
		return c.Pipeline.Thread(p.RoomID, p.UserID, with)
	default:
		return nil, domain.ValidationError("unknown history mode %q", mode)
	}
}

// RaiseHand toggles (or sets) the caller's own hand flag.
func (c *Coordinator) RaiseHand(sid core.SessionID, raised *bool) (*domain.Participant, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if raised != nil {
		p.IsRaisingHand = *raised
	} else {
		p.IsRaisingHand = !p.IsRaisingHand
	}
	c.announceStatusLocked(p.RoomID, ActionRaiseHand, p.Username, p)
	return p, nil
}

// UpdateStatus applies a role-gated status mutation to a participant in
// the actor's room. Self-service actions bypass the capability table.
func (c *Coordinator) UpdateStatus(sid core.SessionID, target domain.UserID, action Action, value any) (*domain.Participant, error) {
	actor, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.Rooms.Get(actor.RoomID)
	if !ok {
		return nil, domain.NotFoundError("room %s not found", actor.RoomID)
	}
	targetSess, ok := room.ByUserID(target)
	if !ok {
		return nil, domain.NotFoundError("user %s not in room", target)
	}
	tp := targetSess.Participant()
	self := actor.UserID == target
	if !AllowedOn(action, actor.Role, self) {
		return nil, domain.PermissionError("role %s may not perform %s", actor.Role, action)
	}

	switch action {
	case ActionToggleSpeak:
		if b, ok := value.(bool); ok {
			tp.CanSpeak = b
		} else {
			tp.CanSpeak = !tp.CanSpeak
		}
	case ActionSetSpeaking:
		b, _ := value.(bool)
		tp.IsSpeaking = b
		if b {
			tp.LastSpeakTime = nowISO()
		}
	case ActionSetSpeakTimeLimit:
		sec, ok := toInt(value)
		if !ok || sec < 0 {
			return nil, domain.ValidationError("speak time limit must be a non-negative number")
		}
		tp.SpeakTimeLimit = sec
	case ActionSetScore:
		f, ok := toFloat(value)
		if !ok {
			return nil, domain.ValidationError("score must be a number")
		}
		tp.Score = f
	case ActionRaiseHand:
		if b, ok := value.(bool); ok {
			tp.IsRaisingHand = b
		} else {
			tp.IsRaisingHand = !tp.IsRaisingHand
		}
	default:
		return nil, domain.ValidationError("unknown status action %q", action)
	}

	c.announceStatusLocked(actor.RoomID, action, actor.Username, tp)
	return tp, nil
}

// Timer routes a timer control intent to the room's countdown engine.
func (c *Coordinator) Timer(sid core.SessionID, action string, seconds int) error {
	p, err := c.participant(sid)
	if err != nil {
		return err
	}
	if !Allowed(ActionTimerControl, p.Role) {
		return domain.PermissionError("role %s may not control the timer", p.Role)
	}
	switch action {
	case "start":
		c.Engine.Start(p.RoomID, seconds)
	case "pause":
		c.Engine.Pause(p.RoomID)
	case "resume":
		c.Engine.Resume(p.RoomID)
	case "reset":
		c.Engine.Reset(p.RoomID, seconds)
	case "set":
		c.Engine.Set(p.RoomID, seconds)
	default:
		return domain.ValidationError("unknown timer action %q", action)
	}
	return nil
}

// SubmitScore accepts a live-channel score submission.
func (c *Coordinator) SubmitScore(sid core.SessionID, target domain.UserID, dims map[string]float64, comments string) (*domain.ScoreEntry, error) {
	p, err := c.participant(sid)
	if err != nil {
		return nil, err
	}
	return c.submitScoreFor(p, target, dims, comments)
}

// SubmitScoreAs is the REST path: same authorization and aggregation
// semantics without a live connection.
func (c *Coordinator) SubmitScoreAs(user *domain.User, roomID domain.RoomID, target domain.UserID, dims map[string]float64, comments string) (*domain.ScoreEntry, error) {
	if roomID == "" {
		return nil, domain.ValidationError("room is required")
	}
	p := &domain.Participant{UserID: user.ID, Username: user.Username, Role: user.Role, RoomID: roomID}
	return c.submitScoreFor(p, target, dims, comments)
}

func (c *Coordinator) submitScoreFor(p *domain.Participant, target domain.UserID, dims map[string]float64, comments string) (*domain.ScoreEntry, error) {
	if !Allowed(ActionSubmitScore, p.Role) {
		return nil, domain.PermissionError("role %s may not submit scores", p.Role)
	}
	return c.Scores.Submit(p, target, dims, comments)
}

// Audio relays an opaque audio chunk to everyone else in the room.
func (c *Coordinator) Audio(sid core.SessionID, data string) error {
	p, err := c.participant(sid)
	if err != nil {
		return err
	}
	if room, ok := c.Rooms.Get(p.RoomID); ok {
		res := room.BroadcastExcept(sid, c.marshal(AudioEvent{Type: "audio", From: p.UserID, Data: data}))
		c.applyBackpressure(room, res)
	}
	return nil
}

// Roster snapshots the room's joined participants.
func (c *Coordinator) Roster(roomID domain.RoomID) []*domain.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rosterLocked(roomID)
}

func (c *Coordinator) rosterLocked(roomID domain.RoomID) []*domain.Participant {
	if room, ok := c.Rooms.Get(roomID); ok {
		return room.Roster()
	}
	return []*domain.Participant{}
}

// RecentHistory is the bounded buffer served to fresh joiners.
func (c *Coordinator) RecentHistory(roomID domain.RoomID) []*domain.ChatMessage {
	return c.Pipeline.Recent(roomID)
}

// BroadcastRoom fans one event out to every connection in a room, in
// registration order. Slow consumers go through the backpressure policy.
func (c *Coordinator) BroadcastRoom(roomID domain.RoomID, v any) {
	room, ok := c.Rooms.Get(roomID)
	if !ok {
		return
	}
	res := room.Broadcast(c.marshal(v))
	c.applyBackpressure(room, res)
}

func (c *Coordinator) applyBackpressure(room core.RoomService, res core.PublishResult) {
	for _, sid := range res.Dropped {
		switch c.Policy.OnBackPressure(room, sid) {
		case KickMember:
			log.Warn().Str("module", "app.coordinator").Str("sid", string(sid)).Msg("kicking slow consumer")
			c.Registry.Cancel(sid)
		case MarkSlow, DropFrame, NoAction:
		}
	}
}

// broadcastRosterLocked sends the full current roster, not a delta.
// Bandwidth for simplicity: clients never reconcile. Callers hold c.mu
// so the marshal sees a stable view of every participant.
func (c *Coordinator) broadcastRosterLocked(roomID domain.RoomID) {
	c.BroadcastRoom(roomID, UserListEvent{Type: "userList", Room: roomID, Users: c.rosterLocked(roomID)})
}

func (c *Coordinator) announceStatusLocked(roomID domain.RoomID, action Action, by string, p *domain.Participant) {
	c.BroadcastRoom(roomID, UserStatusUpdatedEvent{
		Type:        "userStatusUpdated",
		Room:        roomID,
		Action:      action,
		UpdatedBy:   by,
		Participant: p,
	})
	c.broadcastRosterLocked(roomID)
}

func (c *Coordinator) marshal(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("marshal event")
		return nil
	}
	return b
}

// Reset drops all live state; a lifecycle hook for tests.
func (c *Coordinator) Reset() {
	c.Engine.StopAll()
	for _, info := range c.Rooms.List() {
		c.Rooms.Remove(info.ID)
	}
	c.Pipeline.Clear()
	c.Registry = NewRegistry()
}

// Shutdown stops tick sources and cancels every live session.
func (c *Coordinator) Shutdown() {
	c.Engine.StopAll()
	c.Registry.CancelAll()
	for _, info := range c.Rooms.List() {
		c.Rooms.Remove(info.ID)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
