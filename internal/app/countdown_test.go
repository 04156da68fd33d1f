package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

// recorder collects everything the engine broadcasts.
type recorder struct {
	mu     sync.Mutex
	events []any
}

func (r *recorder) broadcast(_ domain.RoomID, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v)
}

func (r *recorder) timerEvents() []TimerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TimerEvent, 0, len(r.events))
	for _, e := range r.events {
		if te, ok := e.(TimerEvent); ok {
			out = append(out, te)
		}
	}
	return out
}

func (r *recorder) systemMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		if se, ok := e.(SystemEvent); ok {
			out = append(out, se.Message)
		}
	}
	return out
}

func newTestEngine(rec *recorder) *Engine {
	return NewEngineWithInterval(300, 5*time.Millisecond, rec.broadcast)
}

func TestEngineStartTicksDownToZero(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(rec)
	defer e.StopAll()

	e.Start("r1", 3)

	require.Eventually(t, func() bool {
		return len(rec.systemMessages()) > 0
	}, time.Second, time.Millisecond)

	ticks := rec.timerEvents()
	require.NotEmpty(t, ticks)
	assert.Equal(t, 3, ticks[0].Time)
	assert.True(t, ticks[0].Running)

	// Values decrease monotonically and finish at a terminal zero.
	for i := 1; i < len(ticks); i++ {
		assert.Less(t, ticks[i].Time, ticks[i-1].Time)
	}
	last := ticks[len(ticks)-1]
	assert.Equal(t, 0, last.Time)
	assert.False(t, last.Running)

	// Exactly one expiry notice.
	assert.Equal(t, []string{"time's up"}, rec.systemMessages())

	// The timer is gone after expiry.
	_, ok := e.State("r1")
	assert.False(t, ok)
}

func TestEnginePauseFreezesRemaining(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(rec)
	defer e.StopAll()

	e.Start("r1", 1000)
	require.Eventually(t, func() bool {
		s, ok := e.State("r1")
		return ok && s.RemainingTime < 1000
	}, time.Second, time.Millisecond)

	e.Pause("r1")
	s1, ok := e.State("r1")
	require.True(t, ok)
	assert.False(t, s1.Running)

	time.Sleep(30 * time.Millisecond)
	s2, ok := e.State("r1")
	require.True(t, ok)
	assert.Equal(t, s1.RemainingTime, s2.RemainingTime)
}

func TestEngineResumeContinuesFromFrozenValue(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(rec)
	defer e.StopAll()

	e.Start("r1", 1000)
	require.Eventually(t, func() bool {
		s, ok := e.State("r1")
		return ok && s.RemainingTime < 998
	}, time.Second, time.Millisecond)
	e.Pause("r1")
	frozen, _ := e.State("r1")

	e.Resume("r1")
	require.Eventually(t, func() bool {
		s, ok := e.State("r1")
		return ok && s.RemainingTime < frozen.RemainingTime
	}, time.Second, time.Millisecond)

	s, ok := e.State("r1")
	require.True(t, ok)
	assert.True(t, s.Running)
	assert.Equal(t, 1000, s.InitialTime)
}

func TestEnginePauseResumeNoops(t *testing.T) {
	rec := &recorder{}
	e := NewEngineWithInterval(300, time.Hour, rec.broadcast)
	defer e.StopAll()

	// No timer at all.
	e.Pause("r1")
	e.Resume("r1")
	assert.Empty(t, rec.timerEvents())

	// Resume while running is a no-op too.
	e.Start("r1", 1000)
	before := len(rec.timerEvents())
	e.Resume("r1")
	assert.Equal(t, before, len(rec.timerEvents()))
}

func TestEngineSetIsIdle(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(rec)
	defer e.StopAll()

	e.Set("r1", 120)
	s, ok := e.State("r1")
	require.True(t, ok)
	assert.Equal(t, 120, s.RemainingTime)
	assert.False(t, s.Running)

	time.Sleep(30 * time.Millisecond)
	s, _ = e.State("r1")
	assert.Equal(t, 120, s.RemainingTime)
}

func TestEngineResetBroadcastsTarget(t *testing.T) {
	rec := &recorder{}
	e := NewEngineWithInterval(300, time.Hour, rec.broadcast)
	defer e.StopAll()

	e.Start("r1", 1000)
	e.Reset("r1", 0)

	_, ok := e.State("r1")
	assert.False(t, ok)

	ticks := rec.timerEvents()
	require.NotEmpty(t, ticks)
	last := ticks[len(ticks)-1]
	// Reset without an explicit value falls back to the initial duration.
	assert.Equal(t, 1000, last.Time)
	assert.False(t, last.Running)
}

func TestEngineSanitizesDuration(t *testing.T) {
	rec := &recorder{}
	e := NewEngineWithInterval(300, time.Hour, rec.broadcast)
	defer e.StopAll()

	e.Start("r1", 0)
	s, ok := e.State("r1")
	require.True(t, ok)
	assert.Equal(t, 300, s.RemainingTime)
}

func TestEngineRestartSupersedesOldTicker(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine(rec)
	defer e.StopAll()

	e.Start("r1", 1000)
	e.Start("r1", 500)

	require.Eventually(t, func() bool {
		s, ok := e.State("r1")
		return ok && s.RemainingTime < 500
	}, time.Second, time.Millisecond)

	s, ok := e.State("r1")
	require.True(t, ok)
	assert.Equal(t, 500, s.InitialTime)
	assert.Less(t, s.RemainingTime, 500)
	assert.Greater(t, s.RemainingTime, 400)
}
