package handlers

import (
	"context"
	"encoding/json"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

func (d *Deps) newBroadcast(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		BroadcastInfo models.Broadcast `json:"broadcastInfo"`
		MemberIDs     []string         `json:"memberIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return errBadPayload
	}
	return d.Members.CreateBroadcast(ctx, senderID, body.BroadcastInfo, body.MemberIDs)
}

func (d *Deps) addBroadcastMembers(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		BroadcastID string   `json:"broadcastId"`
		MemberIDs   []string `json:"memberIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.BroadcastID == "" || body.MemberIDs == nil {
		return errBadPayload
	}
	return d.Members.AddBroadcastMembers(ctx, senderID, body.BroadcastID, body.MemberIDs)
}

func (d *Deps) removeBroadcastMember(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		BroadcastID  string `json:"broadcastId"`
		TargetUserID string `json:"targetUserId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.BroadcastID == "" || body.TargetUserID == "" {
		return errBadPayload
	}
	return d.Members.RemoveBroadcastMember(ctx, senderID, body.BroadcastID, body.TargetUserID)
}

func (d *Deps) broadcastProfileChange(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		BroadcastID string `json:"broadcastId"`
		Name        string `json:"name"`
		Picture     string `json:"picture"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.BroadcastID == "" {
		return errBadPayload
	}
	return d.Members.SetBroadcastProfile(ctx, senderID, body.BroadcastID, body.Name, body.Picture)
}

func (d *Deps) deleteBroadcast(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		BroadcastID string `json:"broadcastId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.BroadcastID == "" {
		return errBadPayload
	}
	return d.Members.DeleteBroadcast(ctx, senderID, body.BroadcastID)
}
