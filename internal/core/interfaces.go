package core

import "github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"

// Frame is a raw payload delivered over the live channel (JSON envelope
// or an opaque audio chunk).
type Frame []byte

type SessionID string

// SignalConnection abstracts the messaging transport of one session.
// Owned by the adapter. Close must be idempotent: the adapter closes it
// on pump teardown and the registry closes it when a session is
// canceled, and either may fire first.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ParticipantSession binds a live transport endpoint to the participant
// identity resolved on join. Participant() is nil until a join completes;
// before that only join/ping intents are accepted.
type ParticipantSession interface {
	Participant() *domain.Participant
	Bind(*domain.Participant)
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the coordinator.
type PublishResult struct {
	SentTo  int
	Dropped []SessionID
}

// RoomService is the core-facing API of a room. It owns the membership
// set but never touches transport resources. Fan-out visits members in
// registration order.
type RoomService interface {
	Room() *domain.Room
	MemberCount() int
	Roster() []*domain.Participant

	AddMember(sid SessionID, ps ParticipantSession)
	RemoveMember(sid SessionID)
	Member(sid SessionID) (ParticipantSession, bool)
	ByUserID(uid domain.UserID) (ParticipantSession, bool)

	Broadcast(data Frame) PublishResult
	BroadcastExcept(from SessionID, data Frame) PublishResult
	SendTo(uid domain.UserID, data Frame) bool
}

type RoomInfo struct {
	ID          domain.RoomID `json:"room"`
	MemberCount int           `json:"memberCount"`
}

// RoomDirectory maps room ids to live rooms. Entries are created lazily
// on first join and removed when the membership set drains.
type RoomDirectory interface {
	GetOrCreate(id domain.RoomID) RoomService
	Get(id domain.RoomID) (RoomService, bool)
	List() []RoomInfo
	Remove(id domain.RoomID)
}
