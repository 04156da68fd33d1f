package signal

import (
	"encoding/json"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/core"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/domain"
)

func (ctl *SignalWSController) handleRaiseHand(sid core.SessionID, data []byte) error {
	var p struct {
		Raised *bool `json:"raised"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad raiseHand payload")
	}
	_, err := ctl.Coord.RaiseHand(sid, p.Raised)
	return err
}

func (ctl *SignalWSController) handleTimer(sid core.SessionID, data []byte) error {
	var p struct {
		Action  string `json:"action"`
		Seconds int    `json:"seconds"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad timer payload")
	}
	return ctl.Coord.Timer(sid, p.Action, p.Seconds)
}

func (ctl *SignalWSController) handleUpdateUserStatus(sid core.SessionID, data []byte) error {
	var p struct {
		TargetUserID string `json:"targetUserId"`
		Action       string `json:"action"`
		Value        any    `json:"value"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad status payload")
	}
	_, err := ctl.Coord.UpdateStatus(sid, domain.UserID(p.TargetUserID), app.Action(p.Action), p.Value)
	return err
}

func (ctl *SignalWSController) handleSubmitScore(sid core.SessionID, data []byte) error {
	var p struct {
		TargetUserID string             `json:"targetUserId"`
		Scores       map[string]float64 `json:"scores"`
		Comments     string             `json:"comments"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad score payload")
	}
	_, err := ctl.Coord.SubmitScore(sid, domain.UserID(p.TargetUserID), p.Scores, p.Comments)
	return err
}

func (ctl *SignalWSController) handleAudio(sid core.SessionID, data []byte) error {
	var p struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.ValidationError("bad audio payload")
	}
	if p.Data == "" {
		return domain.ValidationError("audio payload is empty")
	}
	return ctl.Coord.Audio(sid, p.Data)
}
