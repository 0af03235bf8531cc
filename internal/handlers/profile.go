package handlers

import (
	"context"
	"encoding/json"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/fanout"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/visibility"
)

// policyForProfileField maps a mutable profile field to the visibility
// policy gating who observes its changes. Fields without a dedicated policy
// fan out to all accepted connections.
func policyForProfileField(u *models.User, field string) models.FieldPolicy {
	switch field {
	case "picture":
		return u.Visibility.ProfilePic
	case "about":
		return u.Visibility.About
	case "activeStatus":
		return u.Visibility.ActiveStatus
	}
	return models.FieldPolicy{Mode: models.VisibilityPublic}
}

// profileInfoChange persists one field change and pushes it to the policy
// audience.
func (d *Deps) profileInfoChange(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Field == "" {
		return errBadPayload
	}
	switch body.Field {
	case "name", "picture", "backgroundColor", "about", "activeStatus":
	default:
		return errBadPayload
	}
	if err := d.Store.Users.SetProfileField(ctx, senderID, body.Field, body.Value); err != nil {
		return err
	}
	u, err := d.Store.Users.Get(ctx, senderID)
	if err != nil {
		return err
	}
	audience := visibility.Audience(policyForProfileField(u, body.Field), u.ID, u.Connections, u.BlockedUsers)
	change := map[string]any{"userId": senderID, body.Field: body.Value}
	fanout.Broadcast(d.Reg, audience, events.UserProfileInfoChange, "profileInfo", change)
	d.Reg.SendTo(senderID, events.UserProfileInfoChange, "profileInfo", change)
	return nil
}

// visibilityChange replaces one field policy.
func (d *Deps) visibilityChange(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		Field  string             `json:"field"`
		Policy models.FieldPolicy `json:"policy"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Field == "" {
		return errBadPayload
	}
	switch body.Policy.Mode {
	case models.VisibilityPublic, models.VisibilityConnections, models.VisibilityPrivate,
		models.VisibilityIncluded, models.VisibilityExcluded:
	default:
		return errBadPayload
	}
	if err := d.Store.Users.SetVisibilityPolicy(ctx, senderID, body.Field, body.Policy); err != nil {
		return err
	}
	d.Reg.SendTo(senderID, events.UserVisibilityChange, "visibility",
		map[string]any{"field": body.Field, "policy": body.Policy})
	return nil
}

func (d *Deps) blockUser(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		TargetUserID string `json:"targetUserId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.TargetUserID == "" {
		return errBadPayload
	}
	if err := d.Store.Users.Block(ctx, senderID, body.TargetUserID); err != nil {
		return err
	}
	d.Reg.SendTo(senderID, events.UserBlock, "blockedUserId", body.TargetUserID)
	return nil
}

func (d *Deps) unblockUser(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		TargetUserID string `json:"targetUserId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.TargetUserID == "" {
		return errBadPayload
	}
	if err := d.Store.Users.Unblock(ctx, senderID, body.TargetUserID); err != nil {
		return err
	}
	d.Reg.SendTo(senderID, events.UserUnblock, "unblockedUserId", body.TargetUserID)
	return nil
}

// deleteAccount removes the user and their footprint: edges, group and
// broadcast membership, chat participation. Connections are told to drop
// local state.
func (d *Deps) deleteAccount(ctx context.Context, senderID string, _ json.RawMessage) error {
	u, err := d.Store.Users.Get(ctx, senderID)
	if err != nil {
		return err
	}
	var peers []string
	for _, c := range u.Connections {
		peers = append(peers, c.PeerOf(senderID))
	}

	now := timeNow()
	if err := d.Store.Chats.SoftDeleteAllForUser(ctx, senderID); err != nil {
		d.Log.Errorw("account delete chat cascade", "user", senderID, "err", err)
	}
	if err := d.Stories.RemoveAll(ctx, senderID); err != nil {
		d.Log.Errorw("account delete stories", "user", senderID, "err", err)
	}
	if err := d.Store.Groups.RemoveUserEverywhere(ctx, senderID, now); err != nil {
		d.Log.Errorw("account delete groups", "user", senderID, "err", err)
	}
	if err := d.Store.Broadcasts.RemoveUserEverywhere(ctx, senderID); err != nil {
		d.Log.Errorw("account delete broadcasts", "user", senderID, "err", err)
	}
	if err := d.Store.Users.RemoveEdgesWith(ctx, senderID); err != nil {
		d.Log.Errorw("account delete edges", "user", senderID, "err", err)
	}
	if err := d.Store.Users.Delete(ctx, senderID); err != nil {
		return err
	}
	fanout.Broadcast(d.Reg, peers, events.DeleteUserAccount, "userId", senderID)
	d.Reg.SendTo(senderID, events.DeleteUserAccount, "userId", senderID)
	return nil
}
