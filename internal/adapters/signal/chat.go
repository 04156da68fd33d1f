package signal

import (
	"encoding/json"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/core"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

func (ctl *SignalWSController) handleChat(sid core.SessionID, c *WsSignalConn, data []byte) error {
	var p struct {
		Content string `json:"content"`
		QuoteID string `json:"quoteId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad chat payload")
	}
	if !ctl.allowSend(sid) {
		return domain.ValidationError("sending too fast, slow down")
	}
	_, err := ctl.Coord.Chat(sid, p.Content, p.QuoteID)
	return err
}

func (ctl *SignalWSController) handlePrivate(sid core.SessionID, data []byte) error {
	var p struct {
		To      string `json:"to"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad private payload")
	}
	if !ctl.allowSend(sid) {
		return domain.ValidationError("sending too fast, slow down")
	}
	_, err := ctl.Coord.Private(sid, domain.UserID(p.To), p.Content)
	return err
}

func (ctl *SignalWSController) handleImage(sid core.SessionID, data []byte) error {
	var p struct {
		URL  string `json:"url"`
		Name string `json:"name"`
		Size int64  `json:"size"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad image payload")
	}
	_, err := ctl.Coord.Image(sid, &domain.ImagePayload{URL: p.URL, Name: p.Name, Size: p.Size})
	return err
}

func (ctl *SignalWSController) handleEditMessage(sid core.SessionID, data []byte) error {
	var p struct {
		MessageID string `json:"messageId"`
		Content   string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad edit payload")
	}
	_, err := ctl.Coord.EditMessage(sid, p.MessageID, p.Content)
	return err
}

func (ctl *SignalWSController) handleRevokeMessage(sid core.SessionID, data []byte) error {
	var p struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad revoke payload")
	}
	return ctl.Coord.RevokeMessage(sid, p.MessageID)
}

// allowSend applies the per-user flood limit; anonymous sessions are
// rejected later by the coordinator anyway.
func (ctl *SignalWSController) allowSend(sid core.SessionID) bool {
	sess, ok := ctl.Coord.Registry.Get(sid)
	if !ok {
		return true
	}
	p := sess.Participant()
	if p == nil {
		return true
	}
	return ctl.limiter.Allow(p.UserID)
}
