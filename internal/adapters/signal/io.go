package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/core"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	pinger := time.NewTicker(ctl.Cfg.PingPeriod)
	defer pinger.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-pinger.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Coord.Disconnect(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleFrame(sid, c, data)
		}
	}
}

// handleFrame dispatches one inbound envelope. Client-facing failures
// become error envelopes for this connection only; they never abort the
// loop for anyone else.
func (ctl *SignalWSController) handleFrame(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "message processing error")
		return
	}

	var err error
	switch env.Type {
	case "join":
		err = ctl.handleJoin(sid, c, data)
	case "chat":
		err = ctl.handleChat(sid, c, data)
	case "private":
		err = ctl.handlePrivate(sid, data)
	case "getHistory":
		err = ctl.handleGetHistory(sid, c, data)
	case "raiseHand":
		err = ctl.handleRaiseHand(sid, data)
	case "timer":
		err = ctl.handleTimer(sid, data)
	case "editMessage":
		err = ctl.handleEditMessage(sid, data)
	case "revokeMessage":
		err = ctl.handleRevokeMessage(sid, data)
	case "updateUserStatus":
		err = ctl.handleUpdateUserStatus(sid, data)
	case "submitScore":
		err = ctl.handleSubmitScore(sid, data)
	case "image":
		err = ctl.handleImage(sid, data)
	case "audio":
		err = ctl.handleAudio(sid, data)
	case "ping":
		ctl.sendJSON(c, app.PongEvent{Type: "pong"})
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown intent")
		ctl.sendError(c, "unknown message type")
	}
	if err != nil {
		if domain.KindOf(err) == domain.KindStorage {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("storage failure")
			ctl.sendError(c, "temporary storage problem, please retry")
			return
		}
		ctl.sendError(c, err.Error())
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, message string) {
	ctl.sendJSON(c, app.NewErrorEvent(message))
}
