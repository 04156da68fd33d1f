// Package signal is the live-channel adapter: it owns the WebSocket
// transport and translates inbound frames into coordinator intents.
// State-machine logic lives in internal/app; nothing here mutates
// session state directly.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/config"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Coord   *app.Coordinator
	Cfg     *config.Config
	limiter *RoomRateLimiter
}

func NewSignalWSController(coord *app.Coordinator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Coord:   coord,
		Cfg:     cfg,
		limiter: NewRoomRateLimiter(20, 10*time.Second),
	}
}

// WsSignalConn implements core.SignalConnection over gorilla/websocket.
// cookieToken carries an out-of-band credential picked up at upgrade
// time, used when the join envelope omits one.
type WsSignalConn struct {
	conn        *websocket.Conn
	send        chan core.Frame
	cookieToken string

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and registers an anonymous session.
// Presence becomes visible to the room only after a join intent.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	cookieToken, _ := c.Cookie("token")
	conn := &WsSignalConn{
		conn:        ws,
		send:        make(chan core.Frame, 64),
		cookieToken: cookieToken,
	}

	ctx, cancel := context.WithCancel(ctx)
	sid := ctl.Coord.Connect(conn, cancel)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
