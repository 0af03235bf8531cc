package membership

import (
	"context"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/models"
)

// Broadcast membership is add/remove only; there is no admin or invitation
// path, and only the creator receives roster-change notifications.

func (m *Manager) CreateBroadcast(ctx context.Context, creatorID string, b models.Broadcast, memberIDs []string) error {
	creator, err := m.store.Users.Get(ctx, creatorID)
	if err != nil {
		return err
	}
	b.CreatedBy = creatorID
	b.Members = nil
	targets, err := m.store.Users.GetMany(ctx, memberIDs)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if t.ID == creatorID || creator.HasBlocked(t.ID) || t.HasBlocked(creatorID) {
			continue
		}
		b.Members = append(b.Members, t.ID)
	}
	if _, err := m.store.Broadcasts.Create(ctx, &b); err != nil {
		return err
	}
	m.reg.SendTo(creatorID, events.NewBroadcast, "broadcast", &b)
	return nil
}

func (m *Manager) AddBroadcastMembers(ctx context.Context, actorID, broadcastID string, userIDs []string) error {
	b, err := m.store.Broadcasts.Get(ctx, broadcastID)
	if err != nil {
		return err
	}
	if b.CreatedBy != actorID {
		return nil
	}
	changed := false
	for _, uid := range userIDs {
		added, err := m.store.Broadcasts.AddMember(ctx, broadcastID, uid)
		if err != nil {
			m.log.Errorw("broadcast add member", "broadcast", broadcastID, "user", uid, "err", err)
			continue
		}
		changed = changed || added
	}
	if changed {
		if fresh, err := m.store.Broadcasts.Get(ctx, broadcastID); err == nil {
			m.reg.SendTo(actorID, events.AddMemberToBroadcast, "broadcast", fresh)
		}
	}
	return nil
}

func (m *Manager) RemoveBroadcastMember(ctx context.Context, actorID, broadcastID, targetID string) error {
	b, err := m.store.Broadcasts.Get(ctx, broadcastID)
	if err != nil {
		return err
	}
	if b.CreatedBy != actorID {
		return nil
	}
	if err := m.store.Broadcasts.RemoveMember(ctx, broadcastID, targetID); err != nil {
		return err
	}
	if fresh, err := m.store.Broadcasts.Get(ctx, broadcastID); err == nil {
		m.reg.SendTo(actorID, events.RemoveBroadcastMember, "broadcast", fresh)
	}
	return nil
}

func (m *Manager) SetBroadcastProfile(ctx context.Context, actorID, broadcastID, name, picture string) error {
	b, err := m.store.Broadcasts.Get(ctx, broadcastID)
	if err != nil {
		return err
	}
	if b.CreatedBy != actorID {
		return nil
	}
	if err := m.store.Broadcasts.SetProfile(ctx, broadcastID, name, picture); err != nil {
		return err
	}
	if fresh, err := m.store.Broadcasts.Get(ctx, broadcastID); err == nil {
		m.reg.SendTo(actorID, events.BroadcastProfileInfoChange, "broadcast", fresh)
	}
	return nil
}

func (m *Manager) DeleteBroadcast(ctx context.Context, actorID, broadcastID string) error {
	b, err := m.store.Broadcasts.Get(ctx, broadcastID)
	if err != nil {
		return err
	}
	if b.CreatedBy != actorID {
		return nil
	}
	if err := m.store.Broadcasts.Delete(ctx, broadcastID); err != nil {
		return err
	}
	m.reg.SendTo(actorID, events.BroadcastDeletePermanently, "broadcastId", broadcastID)
	return nil
}
