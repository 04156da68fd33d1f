package app

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/store"
)

// Pipeline validates, enriches, persists and records chat/image events.
// Persistence is best-effort: a storage failure is logged and the
// enriched message still flows to the broadcast path.
type Pipeline struct {
	mu     sync.Mutex
	store  store.Store
	recent map[domain.RoomID][]*domain.ChatMessage
	limit  int
}

func NewPipeline(st store.Store, historyLimit int) *Pipeline {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Pipeline{
		store:  st,
		recent: make(map[domain.RoomID][]*domain.ChatMessage),
		limit:  historyLimit,
	}
}

// SendInput carries the client payload of a chat/private/image intent.
type SendInput struct {
	Text    string
	Image   *domain.ImagePayload
	QuoteID string
	To      domain.UserID
}

// Send validates and enriches the payload into a persisted ChatMessage.
// An unresolvable QuoteID is not an error; the message goes out unquoted.
func (p *Pipeline) Send(actor *domain.Participant, in SendInput) (*domain.ChatMessage, error) {
	msg := &domain.ChatMessage{
		ID:        uuid.NewString(),
		Room:      actor.RoomID,
		SenderID:  actor.UserID,
		Username:  actor.Username,
		Role:      actor.Role,
		Country:   actor.Country,
		Recipient: in.To,
		Timestamp: nowISO(),
	}

	switch {
	case in.Image != nil:
		if strings.TrimSpace(in.Image.URL) == "" {
			return nil, domain.ValidationError("image payload missing url")
		}
		img := *in.Image
		msg.Image = &img
	default:
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, domain.ValidationError("message content is empty")
		}
		msg.Text = text
	}

	if in.QuoteID != "" {
		if quoted, err := p.store.FindMessageByID(actor.RoomID, in.QuoteID); err == nil && !quoted.Revoked {
			text := quoted.Text
			if quoted.Image != nil {
				text = "[image]"
			}
			msg.Quote = &domain.Quote{ID: quoted.ID, Username: quoted.Username, Text: text}
		}
	}

	if err := p.store.AddMessage(msg); err != nil {
		log.Error().Err(err).Str("module", "app.pipeline").Str("id", msg.ID).Msg("persist message failed, broadcasting anyway")
	}
	if !msg.Private() {
		p.remember(msg)
	}
	return msg, nil
}

// Edit re-runs send normalization on the new content. Only the author
// or a moderator role may edit.
func (p *Pipeline) Edit(actor *domain.Participant, messageID, newContent string) (*domain.ChatMessage, error) {
	text := strings.TrimSpace(newContent)
	if text == "" {
		return nil, domain.ValidationError("message content is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg, err := p.store.FindMessageByID(actor.RoomID, messageID)
	if err != nil {
		return nil, domain.NotFoundError("message %s not found", messageID)
	}
	if msg.Revoked {
		return nil, domain.ValidationError("message already revoked")
	}
	if msg.SenderID != actor.UserID && !Allowed(ActionModerateMessage, actor.Role) {
		return nil, domain.PermissionError("not allowed to edit this message")
	}

	msg.Text = text
	msg.Image = nil
	msg.Edited = true
	msg.EditTime = nowISO()
	msg.EditBy = actor.Username

	if err := p.store.UpdateMessage(msg); err != nil {
		log.Error().Err(err).Str("module", "app.pipeline").Str("id", msg.ID).Msg("persist edit failed, broadcasting anyway")
	}
	p.refresh(msg)
	return msg, nil
}

// Revoke soft-deletes a message and returns its pre-revoke state so the
// caller can restore content to the revoking actor. Revoked messages
// stay in the lookup index; a second revoke is rejected and leaves
// revokeTime/revokedBy untouched.
func (p *Pipeline) Revoke(actor *domain.Participant, messageID string) (original *domain.ChatMessage, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg, err := p.store.FindMessageByID(actor.RoomID, messageID)
	if err != nil {
		return nil, domain.NotFoundError("message %s not found", messageID)
	}
	if msg.Revoked {
		return nil, domain.ValidationError("message already revoked")
	}
	if msg.SenderID != actor.UserID && !Allowed(ActionModerateMessage, actor.Role) {
		return nil, domain.PermissionError("not allowed to revoke this message")
	}

	orig := *msg
	msg.Revoked = true
	msg.RevokeTime = nowISO()
	msg.RevokedBy = actor.Username

	if err := p.store.UpdateMessage(msg); err != nil {
		log.Error().Err(err).Str("module", "app.pipeline").Str("id", msg.ID).Msg("persist revoke failed, broadcasting anyway")
	}
	p.refresh(msg)
	return &orig, nil
}

// History returns the persisted group history of a room with revoked
// messages excluded. limit<=0 means everything.
func (p *Pipeline) History(room domain.RoomID, limit, offset int) ([]*domain.ChatMessage, error) {
	all, err := p.store.GetMessages(room, 0, 0)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	live := make([]*domain.ChatMessage, 0, len(all))
	for _, m := range all {
		if !m.Revoked {
			live = append(live, m)
		}
	}
	if offset >= len(live) {
		return []*domain.ChatMessage{}, nil
	}
	live = live[offset:]
	if limit > 0 && len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

// Thread returns the bidirectional private history between two users.
func (p *Pipeline) Thread(room domain.RoomID, a, b domain.UserID) ([]*domain.ChatMessage, error) {
	msgs, err := p.store.GetThread(room, a, b)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	live := make([]*domain.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if !m.Revoked {
			live = append(live, m)
		}
	}
	return live, nil
}

func (p *Pipeline) Search(room domain.RoomID, keyword string) ([]*domain.ChatMessage, error) {
	msgs, err := p.store.SearchMessages(room, keyword)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return msgs, nil
}

// UserSummary counts live group messages per username.
func (p *Pipeline) UserSummary(room domain.RoomID) (map[string]int, error) {
	msgs, err := p.History(room, 0, 0)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, m := range msgs {
		out[m.Username]++
	}
	return out, nil
}

// Recent returns the bounded in-memory buffer, independent of the
// persisted record. Served to joiners so they see context immediately.
func (p *Pipeline) Recent(room domain.RoomID) []*domain.ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := p.recent[room]
	out := make([]*domain.ChatMessage, 0, len(buf))
	for _, m := range buf {
		if !m.Revoked {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

// Clear drops every room's recent buffer. The persisted record is
// untouched.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recent = make(map[domain.RoomID][]*domain.ChatMessage)
}

func (p *Pipeline) remember(msg *domain.ChatMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := *msg
	buf := append(p.recent[msg.Room], &c)
	if len(buf) > p.limit {
		buf = buf[len(buf)-p.limit:]
	}
	p.recent[msg.Room] = buf
}

// refresh mirrors an edit/revoke into the buffered copy, if present.
// Caller holds p.mu.
func (p *Pipeline) refresh(msg *domain.ChatMessage) {
	for i, m := range p.recent[msg.Room] {
		if m.ID == msg.ID {
			c := *msg
			p.recent[msg.Room][i] = &c
			return
		}
	}
}
