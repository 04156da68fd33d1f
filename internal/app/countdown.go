package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

// Broadcaster fans an event out to every connection in a room.
type Broadcaster func(room domain.RoomID, v any)

// roomTimer is the mutable countdown state of one room. The stop channel
// identifies the live tick source: a tick only applies while the timer
// is still registered and its stop channel matches, so a cancelled
// source can never race a fresh one on the same state.
type roomTimer struct {
	remaining int
	initial   int
	running   bool
	stop      chan struct{}
}

// Engine drives per-room countdowns through
// idle -> running -> paused -> running -> (expired -> idle).
type Engine struct {
	mu        sync.Mutex
	timers    map[domain.RoomID]*roomTimer
	interval  time.Duration
	defSec    int
	broadcast Broadcaster
}

func NewEngine(defaultSec int, broadcast Broadcaster) *Engine {
	return NewEngineWithInterval(defaultSec, time.Second, broadcast)
}

// NewEngineWithInterval exists so tests can tick fast.
func NewEngineWithInterval(defaultSec int, interval time.Duration, broadcast Broadcaster) *Engine {
	if defaultSec <= 0 {
		defaultSec = 300
	}
	return &Engine{
		timers:    make(map[domain.RoomID]*roomTimer),
		interval:  interval,
		defSec:    defaultSec,
		broadcast: broadcast,
	}
}

// sanitize replaces non-positive durations with the configured default.
func (e *Engine) sanitize(sec int) int {
	if sec <= 0 {
		return e.defSec
	}
	return sec
}

// Start creates or overwrites the room's timer and begins ticking.
// Any existing tick source is cancelled first.
func (e *Engine) Start(room domain.RoomID, sec int) {
	sec = e.sanitize(sec)
	e.mu.Lock()
	e.cancelLocked(room)
	t := &roomTimer{remaining: sec, initial: sec, running: true, stop: make(chan struct{})}
	e.timers[room] = t
	e.mu.Unlock()

	e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: sec, Running: true})
	go e.run(room, t.stop)
}

// Pause freezes the remaining value. No-op if not running.
func (e *Engine) Pause(room domain.RoomID) {
	e.mu.Lock()
	t, ok := e.timers[room]
	if !ok || !t.running {
		e.mu.Unlock()
		return
	}
	close(t.stop)
	t.running = false
	frozen := t.remaining
	e.mu.Unlock()

	e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: frozen, Running: false})
}

// Resume continues from the frozen value. No-op if already running or
// nothing remains.
func (e *Engine) Resume(room domain.RoomID) {
	e.mu.Lock()
	t, ok := e.timers[room]
	if !ok || t.running || t.remaining <= 0 {
		e.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	remaining := t.remaining
	e.mu.Unlock()

	e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: remaining, Running: true})
	go e.run(room, stop)
}

// Reset discards the timer and broadcasts the reset target: the explicit
// value if given, else the timer's original duration, else the default.
func (e *Engine) Reset(room domain.RoomID, sec int) {
	e.mu.Lock()
	target := sec
	if target <= 0 {
		if t, ok := e.timers[room]; ok {
			target = t.initial
		}
	}
	target = e.sanitize(target)
	e.cancelLocked(room)
	delete(e.timers, room)
	e.mu.Unlock()

	e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: target, Running: false})
}

// Set replaces the timer with a fresh idle value; it does not start.
func (e *Engine) Set(room domain.RoomID, sec int) {
	sec = e.sanitize(sec)
	e.mu.Lock()
	e.cancelLocked(room)
	e.timers[room] = &roomTimer{remaining: sec, initial: sec}
	e.mu.Unlock()

	e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: sec, Running: false})
}

// State snapshots the room's timer, if any.
func (e *Engine) State(room domain.RoomID) (domain.TimerState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.timers[room]
	if !ok {
		return domain.TimerState{}, false
	}
	return domain.TimerState{Room: room, RemainingTime: t.remaining, InitialTime: t.initial, Running: t.running}, true
}

// StopAll cancels every tick source; used on shutdown and test reset.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for room := range e.timers {
		e.cancelLocked(room)
		delete(e.timers, room)
	}
}

// cancelLocked stops the room's live tick source. Caller holds e.mu.
func (e *Engine) cancelLocked(room domain.RoomID) {
	if t, ok := e.timers[room]; ok && t.running {
		close(t.stop)
		t.running = false
	}
}

func (e *Engine) run(room domain.RoomID, stop chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !e.tick(room, stop) {
				return
			}
		}
	}
}

// tick applies one decrement. Returns false when this source must die:
// either it was superseded or the timer expired.
func (e *Engine) tick(room domain.RoomID, stop chan struct{}) bool {
	e.mu.Lock()
	t, ok := e.timers[room]
	if !ok || t.stop != stop || !t.running {
		e.mu.Unlock()
		return false
	}
	t.remaining--
	remaining := t.remaining
	if remaining <= 0 {
		delete(e.timers, room)
		e.mu.Unlock()
		e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: 0, Running: false})
		e.broadcast(room, NewSystemEvent(room, "time's up"))
		log.Info().Str("module", "app.countdown").Str("room", string(room)).Msg("timer expired")
		return false
	}
	e.mu.Unlock()

	e.broadcast(room, TimerEvent{Type: "timer", Room: room, Time: remaining, Running: true})
	return true
}
