// Package membership mutates group and broadcast rosters and computes who
// must be notified of each change.
package membership

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/fanout"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/visibility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Manager struct {
	store *repository.Store
	reg   *registry.Registry
	log   *zap.SugaredLogger
}

func NewManager(store *repository.Store, reg *registry.Registry, log *zap.SugaredLogger) *Manager {
	return &Manager{store: store, reg: reg, log: log}
}

// mayAdd evaluates the target's addingToGroup policy against the actor,
// plus mutual blocking. Disallowed targets fall back to invitations.
func (m *Manager) mayAdd(actor, target *models.User) bool {
	if actor.HasBlocked(target.ID) || target.HasBlocked(actor.ID) {
		return false
	}
	return visibility.IsVisible(target.Visibility.AddingToGroup, actor.ID, target.BlockedUsers)
}

// systemChat persists an announcement chat addressed to the group and pushes
// it to every current member.
func (m *Manager) systemChat(ctx context.Context, g *models.Group, actorID, chatType, text string) {
	now := time.Now().UTC()
	c := &models.Chat{
		CustomID: uuid.NewString(),
		SenderID: actorID,
		GroupID:  g.ID,
		ChatType: chatType,
		Text:     text,
		SentTime: now,
	}
	for _, member := range g.Members {
		if member == actorID {
			continue
		}
		c.ReceiversInfo = append(c.ReceiversInfo, models.ReceiverInfo{
			ReceiverID: member,
			Status:     models.ChatStatusSent,
		})
	}
	if _, err := m.store.Chats.Insert(ctx, c); err != nil {
		m.log.Errorw("system chat insert", "group", g.ID, "err", err)
		return
	}
	fanout.Broadcast(m.reg, g.Members, events.NewChats, "newChats", []models.Chat{*c})
}

// invitationChat sends a direct group-invitation chat to one user.
func (m *Manager) invitationChat(ctx context.Context, actorID, targetID string, g *models.Group) {
	c := &models.Chat{
		CustomID: uuid.NewString(),
		SenderID: actorID,
		ChatType: models.ChatTypeGroupInvitation,
		Text:     g.Name,
		GroupID:  g.ID,
		SentTime: time.Now().UTC(),
		ReceiversInfo: []models.ReceiverInfo{{
			ReceiverID: targetID,
			Status:     models.ChatStatusSent,
		}},
	}
	if _, err := m.store.Chats.Insert(ctx, c); err != nil {
		m.log.Errorw("invitation chat insert", "group", g.ID, "err", err)
		return
	}
	m.reg.SendTo(targetID, events.NewChats, "newChats", []models.Chat{c.ReceiverProjection(targetID)})
}

func (m *Manager) notifyRoster(ctx context.Context, groupID, eventType string) {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return
	}
	audience := append([]string{}, g.Members...)
	audience = append(audience, g.InvitedUsers...)
	fanout.Broadcast(m.reg, audience, eventType, "group", g)
}

// CreateGroup validates each proposed member against that member's own
// addingToGroup policy; allowed members join directly, the rest are invited.
// The creator is always a member and admin.
func (m *Manager) CreateGroup(ctx context.Context, creatorID string, g models.Group, proposed []string) error {
	creator, err := m.store.Users.Get(ctx, creatorID)
	if err != nil {
		return err
	}
	g.CreatedBy = creatorID
	g.Members = []string{creatorID}
	g.Admins = []string{creatorID}
	g.InvitedUsers = nil
	g.PastMembers = nil
	if g.MessagePermission == "" {
		g.MessagePermission = models.MessagePermissionEveryone
	}

	targets, err := m.store.Users.GetMany(ctx, proposed)
	if err != nil {
		return err
	}
	var invited []string
	for _, t := range targets {
		if t.ID == creatorID {
			continue
		}
		if m.mayAdd(creator, t) {
			g.Members = append(g.Members, t.ID)
		} else if !creator.HasBlocked(t.ID) && !t.HasBlocked(creatorID) {
			invited = append(invited, t.ID)
			g.InvitedUsers = append(g.InvitedUsers, t.ID)
		}
		// blocked pairs are silently dropped
	}

	if _, err := m.store.Groups.Create(ctx, &g); err != nil {
		return err
	}
	fanout.Broadcast(m.reg, g.Members, events.NewGroup, "group", &g)
	for _, uid := range invited {
		m.invitationChat(ctx, creatorID, uid, &g)
	}
	return nil
}

// Invite adds users to invitedUsers, idempotently, skipping members.
func (m *Manager) Invite(ctx context.Context, actorID, groupID string, userIDs []string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsMember(actorID) {
		return nil
	}
	changed := false
	for _, uid := range userIDs {
		added, err := m.store.Groups.AddInvited(ctx, groupID, uid)
		if err != nil {
			m.log.Errorw("add invited", "group", groupID, "user", uid, "err", err)
			continue
		}
		changed = changed || added
	}
	if changed {
		m.notifyRoster(ctx, groupID, events.AddMemberToGroup)
	}
	return nil
}

// Join moves an invited or past member into the roster. The original creator
// rejoining regains admin automatically.
func (m *Manager) Join(ctx context.Context, userID, groupID string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsInvited(userID) && !g.IsPastMember(userID) {
		return nil
	}
	asAdmin := g.CreatedBy == userID
	joined, err := m.store.Groups.AddMember(ctx, groupID, userID, asAdmin)
	if err != nil {
		return err
	}
	if !joined {
		return nil
	}
	g, err = m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	m.systemChat(ctx, g, userID, models.ChatTypeSystemJoin, "joined the group")
	m.notifyRoster(ctx, groupID, events.JoinToGroup)
	return nil
}

// AddMembers adds users directly when their policy allows the actor to do
// so; disallowed adds fall back to invitations.
func (m *Manager) AddMembers(ctx context.Context, actorID, groupID string, userIDs []string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsMember(actorID) {
		return nil
	}
	actor, err := m.store.Users.Get(ctx, actorID)
	if err != nil {
		return err
	}
	targets, err := m.store.Users.GetMany(ctx, userIDs)
	if err != nil {
		return err
	}
	changed := false
	for _, t := range targets {
		if !m.mayAdd(actor, t) {
			if !actor.HasBlocked(t.ID) && !t.HasBlocked(actorID) {
				if added, _ := m.store.Groups.AddInvited(ctx, groupID, t.ID); added {
					m.invitationChat(ctx, actorID, t.ID, g)
					changed = true
				}
			}
			continue
		}
		asAdmin := g.CreatedBy == t.ID
		added, err := m.store.Groups.AddMember(ctx, groupID, t.ID, asAdmin)
		if err != nil {
			m.log.Errorw("add member", "group", groupID, "user", t.ID, "err", err)
			continue
		}
		if added {
			changed = true
			fresh, err := m.store.Groups.Get(ctx, groupID)
			if err == nil {
				m.systemChat(ctx, fresh, actorID, models.ChatTypeSystemAdded, t.Name+" was added")
			}
		}
	}
	if changed {
		m.notifyRoster(ctx, groupID, events.AddMemberToGroup)
	}
	return nil
}

// Remove exits a member: pulls from members/admins, records the past-member
// entry, snapshots the group onto the removed user, and auto-promotes the
// first remaining member when the admin set empties.
func (m *Manager) Remove(ctx context.Context, actorID, groupID, targetID string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if actorID != targetID && !g.IsAdmin(actorID) {
		return nil
	}
	now := time.Now().UTC()
	removed, err := m.store.Groups.RemoveMember(ctx, groupID, targetID, now)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	if err := m.store.Users.AddPastGroup(ctx, targetID, g.Snapshot(now)); err != nil {
		m.log.Errorw("past group snapshot", "group", groupID, "user", targetID, "err", err)
	}

	fresh, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	m.systemChat(ctx, fresh, actorID, models.ChatTypeSystemRemoved, "left the group")
	if len(fresh.Admins) == 0 && len(fresh.Members) > 0 {
		promotee := fresh.Members[0]
		if ok, _ := m.store.Groups.PromoteAdmin(ctx, groupID, promotee); ok {
			fresh, err = m.store.Groups.Get(ctx, groupID)
			if err == nil {
				m.systemChat(ctx, fresh, promotee, models.ChatTypeSystemPromote, "is now an admin")
			}
		}
	}
	m.notifyRoster(ctx, groupID, events.RemoveGroupMember)
	m.reg.SendTo(targetID, events.RemoveGroupMember, "group", fresh)
	return nil
}

// Promote grants admin to current members only; already-admin targets are
// no-ops.
func (m *Manager) Promote(ctx context.Context, actorID, groupID string, userIDs []string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return nil
	}
	changed := false
	for _, uid := range userIDs {
		ok, err := m.store.Groups.PromoteAdmin(ctx, groupID, uid)
		if err != nil {
			m.log.Errorw("promote", "group", groupID, "user", uid, "err", err)
			continue
		}
		changed = changed || ok
	}
	if changed {
		m.notifyRoster(ctx, groupID, events.PromoteMembersToAdmins)
	}
	return nil
}

// Demote pulls users from the admin set.
func (m *Manager) Demote(ctx context.Context, actorID, groupID string, userIDs []string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return nil
	}
	for _, uid := range userIDs {
		if err := m.store.Groups.DemoteAdmin(ctx, groupID, uid); err != nil {
			m.log.Errorw("demote", "group", groupID, "user", uid, "err", err)
		}
	}
	m.notifyRoster(ctx, groupID, events.DemoteMembersFromAdmins)
	return nil
}

// SetProfile persists group profile fields and pushes the change.
func (m *Manager) SetProfile(ctx context.Context, actorID, groupID, name, picture, description string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return nil
	}
	if err := m.store.Groups.SetProfile(ctx, groupID, name, picture, description); err != nil {
		return err
	}
	m.notifyRoster(ctx, groupID, events.GroupProfileInfoChange)
	return nil
}

// SetMessagePermission updates who may post to the group.
func (m *Manager) SetMessagePermission(ctx context.Context, actorID, groupID, permission string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return nil
	}
	if permission != models.MessagePermissionEveryone && permission != models.MessagePermissionAdmins {
		return nil
	}
	if err := m.store.Groups.SetMessagePermission(ctx, groupID, permission); err != nil {
		return err
	}
	m.notifyRoster(ctx, groupID, events.GroupMessagePermissionChange)
	return nil
}

// DeleteGroup cascades a per-member soft-delete of every chat addressed to
// the group, hard-deletes the group record, and tells members and still-
// invited users to drop local group state.
func (m *Manager) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	g, err := m.store.Groups.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsAdmin(actorID) {
		return nil
	}
	participants := append([]string{}, g.Members...)
	for _, p := range g.PastMembers {
		participants = append(participants, p.MemberID)
	}
	if err := m.store.Chats.SoftDeleteAllForGroup(ctx, groupID, participants); err != nil {
		m.log.Errorw("group chat cascade", "group", groupID, "err", err)
		return err
	}
	if err := m.store.Groups.Delete(ctx, groupID); err != nil {
		return err
	}
	audience := append([]string{}, g.Members...)
	audience = append(audience, g.InvitedUsers...)
	fanout.Broadcast(m.reg, audience, events.GroupDeletePermanently, "groupId", groupID)
	return nil
}
