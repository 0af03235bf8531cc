package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/chat"
)

func timeNow() time.Time { return time.Now().UTC() }

func (d *Deps) newChats(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		NewChats []chat.Draft `json:"newChats"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.NewChats == nil {
		return errBadPayload
	}
	return d.Chats.Submit(ctx, senderID, body.NewChats)
}

func (d *Deps) updateChatsStatus(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		UpdatedChats []chat.StatusUpdate `json:"updatedChats"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.UpdatedChats == nil {
		return errBadPayload
	}
	return d.Chats.UpdateStatuses(ctx, senderID, body.UpdatedChats)
}

func (d *Deps) deleteChats(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomIDs []string `json:"customIDs"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomIDs == nil {
		return errBadPayload
	}
	return d.Chats.DeleteChats(ctx, senderID, body.CustomIDs)
}

func (d *Deps) chattingIndicator(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		ToUserID  string `json:"toUserId"`
		ToGroupID string `json:"toGroupId"`
		State     string `json:"state"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return errBadPayload
	}
	d.Chats.Indicator(ctx, senderID, body.ToUserID, body.ToGroupID, body.State)
	return nil
}
