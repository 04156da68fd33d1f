package core

import (
	"sync"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

// participantSession pairs the transport endpoint with the participant
// bound on join. The pointer is nil before join and after leave; all
// flips happen under the mutex.
type participantSession struct {
	mu   sync.RWMutex
	p    *domain.Participant
	conn SignalConnection
}

func NewParticipantSession(conn SignalConnection) ParticipantSession {
	return &participantSession{conn: conn}
}

func (s *participantSession) Participant() *domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

func (s *participantSession) Bind(p *domain.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p = p
}

func (s *participantSession) Signal() SignalConnection { return s.conn }
