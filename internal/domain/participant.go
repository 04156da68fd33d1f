package domain

import "time"

// Participant is the authenticated identity plus the mutable per-session
// attributes bound to a live connection after a completed join.
type Participant struct {
	UserID         UserID    `json:"userId"`
	Username       string    `json:"username"`
	Role           Role      `json:"role"`
	Country        string    `json:"country"`
	RoomID         RoomID    `json:"room"`
	CanSpeak       bool      `json:"canSpeak"`
	IsSpeaking     bool      `json:"isSpeaking"`
	IsRaisingHand  bool      `json:"isRaisingHand"`
	LastSpeakTime  string    `json:"lastSpeakTime,omitempty"`
	SpeakTimeLimit int       `json:"speakTimeLimit"`
	Score          float64   `json:"score"`
	JoinTime       time.Time `json:"joinTime"`
}

// NewParticipant binds a resolved identity to a room with default status.
func NewParticipant(user *User, room RoomID, country string) *Participant {
	return &Participant{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Country:  country,
		RoomID:   room,
		CanSpeak: true,
		JoinTime: time.Now(),
	}
}
