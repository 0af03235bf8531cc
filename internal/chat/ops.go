package chat

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/models"
)

// StatusUpdate marks one chat delivered or seen for the acting receiver.
type StatusUpdate struct {
	CustomID string `json:"customID"`
	Status   string `json:"status"`
}

// UpdateStatuses persists delivered/seen transitions and echoes each one to
// the chat's sender when the receiver's policy allows the sender to see it.
func (p *Pipeline) UpdateStatuses(ctx context.Context, actorID string, updates []StatusUpdate) error {
	now := time.Now().UTC()
	for _, u := range updates {
		if u.Status != models.ChatStatusDelivered && u.Status != models.ChatStatusSeen {
			continue
		}
		c, err := p.store.Chats.GetByCustomID(ctx, u.CustomID)
		if err != nil {
			p.log.Debugw("status update for unknown chat", "customId", u.CustomID)
			continue
		}
		var entry *models.ReceiverInfo
		for i := range c.ReceiversInfo {
			if c.ReceiversInfo[i].ReceiverID == actorID {
				entry = &c.ReceiversInfo[i]
				break
			}
		}
		if entry == nil {
			continue
		}
		if err := p.store.Chats.SetReceiverStatus(ctx, u.CustomID, actorID, u.Status, now); err != nil {
			p.log.Errorw("set receiver status", "customId", u.CustomID, "err", err)
			continue
		}
		allowed := entry.IsDeliveredStatusAllowed
		if u.Status == models.ChatStatusSeen {
			allowed = entry.IsSeenStatusAllowed
		}
		if allowed && !c.DeletedBy(c.SenderID) {
			p.reg.SendTo(c.SenderID, events.UpdateChatsStatus, "updatedChats", []map[string]any{{
				"customID":   u.CustomID,
				"receiverId": actorID,
				"status":     u.Status,
				"time":       now,
			}})
		}
	}
	return nil
}

// DeleteChats soft-deletes each chat for the actor, then runs the scoped
// convergence check: once every participant has deleted the chat it is
// erased for good, along with its blob.
func (p *Pipeline) DeleteChats(ctx context.Context, actorID string, customIDs []string) error {
	for _, id := range customIDs {
		if err := p.store.Chats.SoftDelete(ctx, id, actorID); err != nil {
			p.log.Debugw("soft delete", "customId", id, "err", err)
			continue
		}
		c, erased, err := p.store.Chats.DeleteIfAllParticipantsDeleted(ctx, id)
		if err != nil {
			p.log.Errorw("delete convergence", "customId", id, "err", err)
			continue
		}
		if erased && c.File != nil && c.File.Key != "" {
			if err := p.blobs.Delete(ctx, c.File.Key); err != nil {
				p.log.Warnw("blob cascade delete", "key", c.File.Key, "err", err)
			}
		}
		p.reg.SendTo(actorID, events.DeleteChats, "deletedChats", []string{id})
	}
	return nil
}

// Indicator relays a typing indicator to the peer, or to every other group
// member. Never persisted.
func (p *Pipeline) Indicator(ctx context.Context, actorID, toUserID, toGroupID, state string) {
	payload := map[string]any{"userId": actorID, "state": state}
	if toGroupID != "" {
		g, err := p.store.Groups.Get(ctx, toGroupID)
		if err != nil || !g.IsMember(actorID) {
			return
		}
		payload["toGroupId"] = toGroupID
		for _, m := range g.Members {
			if m != actorID {
				p.reg.SendTo(m, events.ChattingIndicator, "indicator", payload)
			}
		}
		return
	}
	if toUserID == "" {
		return
	}
	actor, err := p.store.Users.Get(ctx, actorID)
	if err != nil {
		return
	}
	peer, err := p.store.Users.Get(ctx, toUserID)
	if err != nil {
		return
	}
	if actor.HasBlocked(toUserID) || peer.HasBlocked(actorID) {
		return
	}
	p.reg.SendTo(toUserID, events.ChattingIndicator, "indicator", payload)
}
