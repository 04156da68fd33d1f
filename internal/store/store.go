// Package store is the durable persistence collaborator of the
// coordinator. Backends must never lose an acknowledged write; callers
// treat failures as best-effort (live delivery proceeds regardless).
package store

import (
	"errors"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// Store persists chat messages and score entries keyed by room.
// Implementations return copies; callers mutate and write back via
// UpdateMessage so an in-flight edit never aliases stored state.
type Store interface {
	AddMessage(m *domain.ChatMessage) error
	UpdateMessage(m *domain.ChatMessage) error
	FindMessageByID(room domain.RoomID, id string) (*domain.ChatMessage, error)
	GetMessages(room domain.RoomID, limit, offset int) ([]*domain.ChatMessage, error)
	GetThread(room domain.RoomID, a, b domain.UserID) ([]*domain.ChatMessage, error)
	SearchMessages(room domain.RoomID, keyword string) ([]*domain.ChatMessage, error)

	UpsertScore(e *domain.ScoreEntry) error
	GetScores(room domain.RoomID) ([]*domain.ScoreEntry, error)

	Close() error
}
