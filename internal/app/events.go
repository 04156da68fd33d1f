package app

import (
	"time"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

// Outbound envelope types. Every frame on the live channel carries a
// "type" discriminator; these structs are the single source of truth
// for their shapes.

type SystemEvent struct {
	Type      string        `json:"type"`
	Room      domain.RoomID `json:"room,omitempty"`
	Message   string        `json:"message"`
	Timestamp string        `json:"timestamp"`
}

func NewSystemEvent(room domain.RoomID, message string) SystemEvent {
	return SystemEvent{Type: "system", Room: room, Message: message, Timestamp: nowISO()}
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}

type UserListEvent struct {
	Type  string                `json:"type"`
	Room  domain.RoomID         `json:"room"`
	Users []*domain.Participant `json:"users"`
}

type ChatEvent struct {
	Type string `json:"type"`
	*domain.ChatMessage
}

type HistoryEvent struct {
	Type     string                `json:"type"`
	Mode     string                `json:"mode"`
	Room     domain.RoomID         `json:"room"`
	Messages []*domain.ChatMessage `json:"messages"`
}

type TimerEvent struct {
	Type    string        `json:"type"`
	Room    domain.RoomID `json:"room"`
	Time    int           `json:"time"`
	Running bool          `json:"running"`
}

type MessageRevokedEvent struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Username  string `json:"username"`
	RevokedBy string `json:"revokedBy"`
	// Content is only set on the copy sent back to the revoking actor,
	// so their input box can be restored without leaking retracted
	// content to the room.
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp"`
}

type UserStatusUpdatedEvent struct {
	Type        string              `json:"type"`
	Room        domain.RoomID       `json:"room"`
	Action      Action              `json:"action"`
	UpdatedBy   string              `json:"updatedBy"`
	Participant *domain.Participant `json:"user"`
}

type AudioEvent struct {
	Type string        `json:"type"`
	From domain.UserID `json:"from"`
	Data string        `json:"data"`
}

type PongEvent struct {
	Type string `json:"type"`
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
