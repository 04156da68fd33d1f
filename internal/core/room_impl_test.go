package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

type stubConn struct {
	mu     sync.Mutex
	frames []Frame
	fail   bool
}

func (c *stubConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("buffer full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *stubConn) Close() {}

func (c *stubConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func member(room RoomService, sid SessionID, p *domain.Participant) *stubConn {
	conn := &stubConn{}
	sess := NewParticipantSession(conn)
	sess.Bind(p)
	room.AddMember(sid, sess)
	return conn
}

func TestRoomMembership(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	assert.Equal(t, 0, r.MemberCount())

	member(r, "s1", &domain.Participant{UserID: "u1", Username: "u1", Role: domain.RoleDelegate})
	member(r, "s2", &domain.Participant{UserID: "u2", Username: "u2", Role: domain.RoleDelegate})
	assert.Equal(t, 2, r.MemberCount())

	_, ok := r.Member("s1")
	assert.True(t, ok)
	_, ok = r.ByUserID("u2")
	assert.True(t, ok)
	_, ok = r.ByUserID("ghost")
	assert.False(t, ok)

	r.RemoveMember("s1")
	r.RemoveMember("s1") // idempotent
	assert.Equal(t, 1, r.MemberCount())
	_, ok = r.Member("s1")
	assert.False(t, ok)
}

func TestRoomBroadcastVisitsRegistrationOrder(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	conns := make([]*stubConn, 0, 3)
	for _, sid := range []SessionID{"s1", "s2", "s3"} {
		conns = append(conns, member(r, sid, &domain.Participant{UserID: domain.UserID(sid), Role: domain.RoleDelegate}))
	}

	res := r.Broadcast(Frame("hello"))
	assert.Equal(t, 3, res.SentTo)
	assert.Empty(t, res.Dropped)
	for _, c := range conns {
		assert.Equal(t, 1, c.count())
	}
}

func TestRoomBroadcastReportsDropped(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	member(r, "s1", &domain.Participant{UserID: "u1", Role: domain.RoleDelegate})

	slow := &stubConn{fail: true}
	sess := NewParticipantSession(slow)
	sess.Bind(&domain.Participant{UserID: "u2", Role: domain.RoleDelegate})
	r.AddMember("s2", sess)

	res := r.Broadcast(Frame("hello"))
	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, []SessionID{"s2"}, res.Dropped)
}

func TestRoomBroadcastExceptSkipsSender(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	c1 := member(r, "s1", &domain.Participant{UserID: "u1", Role: domain.RoleDelegate})
	c2 := member(r, "s2", &domain.Participant{UserID: "u2", Role: domain.RoleDelegate})

	res := r.BroadcastExcept("s1", Frame("to the rest"))
	assert.Equal(t, 1, res.SentTo)
	assert.Equal(t, 0, c1.count())
	assert.Equal(t, 1, c2.count())
}

func TestRoomSendTo(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	c1 := member(r, "s1", &domain.Participant{UserID: "u1", Role: domain.RoleDelegate})

	assert.True(t, r.SendTo("u1", Frame("direct")))
	assert.Equal(t, 1, c1.count())
	assert.False(t, r.SendTo("ghost", Frame("direct")))
}

func TestRosterSortsByRoleThenJoinTime(t *testing.T) {
	r := NewRoomService(&domain.Room{ID: "r1"})
	base := time.Now()

	member(r, "s1", &domain.Participant{UserID: "d2", Username: "d2", Role: domain.RoleDelegate, JoinTime: base.Add(2 * time.Second)})
	member(r, "s2", &domain.Participant{UserID: "h1", Username: "h1", Role: domain.RoleHost, JoinTime: base.Add(3 * time.Second)})
	member(r, "s3", &domain.Participant{UserID: "d1", Username: "d1", Role: domain.RoleDelegate, JoinTime: base.Add(time.Second)})

	// An anonymous session is invisible in the roster.
	r.AddMember("s4", NewParticipantSession(&stubConn{}))

	roster := r.Roster()
	require.Len(t, roster, 3)
	assert.Equal(t, "h1", roster[0].Username)
	assert.Equal(t, "d1", roster[1].Username)
	assert.Equal(t, "d2", roster[2].Username)
}
