package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/core"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

func (ctl *SignalWSController) handleJoin(sid core.SessionID, c *WsSignalConn, data []byte) error {
	var p struct {
		Token   string `json:"token"`
		Room    string `json:"room"`
		Country string `json:"country"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad join payload")
	}
	token := p.Token
	if token == "" {
		token = c.cookieToken
	}

	participant, err := ctl.Coord.Join(sid, token, domain.RoomID(p.Room), p.Country)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.Room).Str("user", participant.Username).Msg("join")

	// Catch the joiner up on recent context before new traffic lands.
	ctl.sendJSON(c, app.HistoryEvent{
		Type:     "history",
		Mode:     "group",
		Room:     participant.RoomID,
		Messages: ctl.Coord.RecentHistory(participant.RoomID),
	})
	return nil
}

func (ctl *SignalWSController) handleGetHistory(sid core.SessionID, c *WsSignalConn, data []byte) error {
	var p struct {
		Mode string `json:"mode"`
		With string `json:"with"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad history payload")
	}
	msgs, err := ctl.Coord.History(sid, p.Mode, domain.UserID(p.With))
	if err != nil {
		return err
	}
	mode := p.Mode
	if mode == "" {
		mode = "group"
	}
	ctl.sendJSON(c, app.HistoryEvent{Type: "history", Mode: mode, Messages: msgs})
	return nil
}
