package store

import (
	"strings"
	"sync"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

// MemoryStore is the default volatile backend. Insertion order is
// preserved per room so history reads come back in send order.
type MemoryStore struct {
	mu       sync.RWMutex
	messages []*domain.ChatMessage
	byID     map[string]*domain.ChatMessage
	scores   []*domain.ScoreEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*domain.ChatMessage)}
}

func copyMessage(m *domain.ChatMessage) *domain.ChatMessage {
	c := *m
	if m.Quote != nil {
		q := *m.Quote
		c.Quote = &q
	}
	if m.Image != nil {
		img := *m.Image
		c.Image = &img
	}
	return &c
}

func (s *MemoryStore) AddMessage(m *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyMessage(m)
	s.messages = append(s.messages, c)
	s.byID[c.ID] = c
	return nil
}

func (s *MemoryStore) UpdateMessage(m *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[m.ID]
	if !ok || old.Room != m.Room {
		return ErrNotFound
	}
	*old = *copyMessage(m)
	return nil
}

func (s *MemoryStore) FindMessageByID(room domain.RoomID, id string) (*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok || m.Room != room {
		return nil, ErrNotFound
	}
	return copyMessage(m), nil
}

func (s *MemoryStore) GetMessages(room domain.RoomID, limit, offset int) ([]*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.ChatMessage, 0)
	skipped := 0
	for _, m := range s.messages {
		if m.Room != room || m.Private() {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, copyMessage(m))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) GetThread(room domain.RoomID, a, b domain.UserID) ([]*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.ChatMessage, 0)
	for _, m := range s.messages {
		if m.Room != room || !m.Private() {
			continue
		}
		if (m.SenderID == a && m.Recipient == b) || (m.SenderID == b && m.Recipient == a) {
			out = append(out, copyMessage(m))
		}
	}
	return out, nil
}

func (s *MemoryStore) SearchMessages(room domain.RoomID, keyword string) ([]*domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.ChatMessage, 0)
	for _, m := range s.messages {
		if m.Room != room || m.Private() || m.Revoked {
			continue
		}
		if strings.Contains(m.Text, keyword) {
			out = append(out, copyMessage(m))
		}
	}
	return out, nil
}

func copyScore(e *domain.ScoreEntry) *domain.ScoreEntry {
	c := *e
	c.DimensionScores = make(map[string]float64, len(e.DimensionScores))
	for k, v := range e.DimensionScores {
		c.DimensionScores[k] = v
	}
	return &c
}

func (s *MemoryStore) UpsertScore(e *domain.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, old := range s.scores {
		if old.Room == e.Room && old.JudgeID == e.JudgeID && old.TargetUserID == e.TargetUserID {
			s.scores[i] = copyScore(e)
			return nil
		}
	}
	s.scores = append(s.scores, copyScore(e))
	return nil
}

func (s *MemoryStore) GetScores(room domain.RoomID) ([]*domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.ScoreEntry, 0)
	for _, e := range s.scores {
		if e.Room == room {
			out = append(out, copyScore(e))
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
