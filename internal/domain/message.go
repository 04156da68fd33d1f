package domain

// Quote is a snapshot of a prior message attached to a reply. It is copied
// at send time so later edits of the quoted message do not rewrite it.
type Quote struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ImagePayload is the structured content of an image message. The blob
// itself lives in external storage; only the reference travels here.
type ImagePayload struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ChatMessage is the durable record of one chat or image event.
// Revoked messages are excluded from history reads but kept for audit.
type ChatMessage struct {
	ID         string        `json:"id"`
	Room       RoomID        `json:"room"`
	SenderID   UserID        `json:"senderUserId"`
	Username   string        `json:"username"`
	Role       Role          `json:"role"`
	Country    string        `json:"country,omitempty"`
	Recipient  UserID        `json:"recipient,omitempty"`
	Text       string        `json:"text,omitempty"`
	Image      *ImagePayload `json:"image,omitempty"`
	Quote      *Quote        `json:"quote,omitempty"`
	Timestamp  string        `json:"timestamp"`
	Edited     bool          `json:"edited,omitempty"`
	EditTime   string        `json:"editTime,omitempty"`
	EditBy     string        `json:"editBy,omitempty"`
	Revoked    bool          `json:"revoked,omitempty"`
	RevokeTime string        `json:"revokeTime,omitempty"`
	RevokedBy  string        `json:"revokedBy,omitempty"`
}

// Private reports whether the message belongs to a direct thread rather
// than the room's group channel.
func (m *ChatMessage) Private() bool { return m.Recipient != "" }
