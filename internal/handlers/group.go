package handlers

import (
	"context"
	"encoding/json"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

func (d *Deps) newGroup(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupInfo models.Group `json:"groupInfo"`
		MemberIDs []string     `json:"memberIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return errBadPayload
	}
	return d.Members.CreateGroup(ctx, senderID, body.GroupInfo, body.MemberIDs)
}

func (d *Deps) addGroupMembers(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID   string   `json:"groupId"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" || body.MemberIDs == nil {
		return errBadPayload
	}
	return d.Members.AddMembers(ctx, senderID, body.GroupID, body.MemberIDs)
}

func (d *Deps) joinGroup(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" {
		return errBadPayload
	}
	return d.Members.Join(ctx, senderID, body.GroupID)
}

func (d *Deps) removeGroupMember(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID      string `json:"groupId"`
		TargetUserID string `json:"targetUserId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" || body.TargetUserID == "" {
		return errBadPayload
	}
	return d.Members.Remove(ctx, senderID, body.GroupID, body.TargetUserID)
}

func (d *Deps) promoteAdmins(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID   string   `json:"groupId"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" || body.MemberIDs == nil {
		return errBadPayload
	}
	return d.Members.Promote(ctx, senderID, body.GroupID, body.MemberIDs)
}

func (d *Deps) demoteAdmins(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID   string   `json:"groupId"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" || body.MemberIDs == nil {
		return errBadPayload
	}
	return d.Members.Demote(ctx, senderID, body.GroupID, body.MemberIDs)
}

func (d *Deps) groupProfileChange(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID     string `json:"groupId"`
		Name        string `json:"name"`
		Picture     string `json:"picture"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" {
		return errBadPayload
	}
	return d.Members.SetProfile(ctx, senderID, body.GroupID, body.Name, body.Picture, body.Description)
}

func (d *Deps) groupPermissionChange(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID    string `json:"groupId"`
		Permission string `json:"permission"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" {
		return errBadPayload
	}
	switch body.Permission {
	case models.MessagePermissionEveryone, models.MessagePermissionAdmins:
	default:
		return errBadPayload
	}
	return d.Members.SetMessagePermission(ctx, senderID, body.GroupID, body.Permission)
}

func (d *Deps) deleteGroup(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.GroupID == "" {
		return errBadPayload
	}
	return d.Members.DeleteGroup(ctx, senderID, body.GroupID)
}
