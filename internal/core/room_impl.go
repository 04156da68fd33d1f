package core

import (
	"sort"
	"sync"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room. It never closes adapter-owned
// resources. The order slice preserves registration order so fan-out is
// deterministic for every broadcast.
type roomImpl struct {
	room  *domain.Room
	mu    sync.RWMutex
	bySID map[SessionID]ParticipantSession
	order []SessionID
}

func NewRoomService(room *domain.Room) RoomService {
	return &roomImpl{
		room:  room,
		bySID: make(map[SessionID]ParticipantSession),
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *roomImpl) AddMember(sid SessionID, ps ParticipantSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		r.order = append(r.order, sid)
	}
	r.bySID[sid] = ps
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return
	}
	delete(r.bySID, sid)
	for i, s := range r.order {
		if s == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member removed")
}

func (r *roomImpl) Member(sid SessionID) (ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps, ok := r.bySID[sid]
	return ps, ok
}

func (r *roomImpl) ByUserID(uid domain.UserID) (ParticipantSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sid := range r.order {
		ps := r.bySID[sid]
		if p := ps.Participant(); p != nil && p.UserID == uid {
			return ps, true
		}
	}
	return nil, false
}

// Roster returns joined participants sorted by role rank, then join time.
// Sessions that have not completed join are excluded.
func (r *roomImpl) Roster() []*domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Participant, 0, len(r.bySID))
	for _, sid := range r.order {
		if p := r.bySID[sid].Participant(); p != nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role.Order() != out[j].Role.Order() {
			return out[i].Role.Order() < out[j].Role.Order()
		}
		return out[i].JoinTime.Before(out[j].JoinTime)
	})
	return out
}

func (r *roomImpl) Broadcast(data Frame) PublishResult {
	return r.fanOut("", data)
}

func (r *roomImpl) BroadcastExcept(from SessionID, data Frame) PublishResult {
	return r.fanOut(from, data)
}

func (r *roomImpl) fanOut(skip SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, sid := range r.order {
		if sid == skip {
			continue
		}
		m := r.bySID[sid]
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.room.ID)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) SendTo(uid domain.UserID, data Frame) bool {
	ps, ok := r.ByUserID(uid)
	if !ok {
		return false
	}
	return ps.Signal().TrySend(data) == nil
}
