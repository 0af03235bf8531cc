// Package chat implements the chat fan-out pipeline: persist one message
// unit, compute per-receiver delivery eligibility, and push it only to
// eligible, non-blocked, legal recipients.
package chat

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/fanout"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/storage"
	"github.com/fathima-sithara/realtime-service/internal/visibility"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher is the audit-event sink (kafka in production). May be nil.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// GroupInviter is the membership manager's invite path, triggered as a side
// effect by group-invitation chats.
type GroupInviter interface {
	Invite(ctx context.Context, actorID, groupID string, userIDs []string) error
}

// Responder synthesizes assistant replies.
type Responder interface {
	Reply(ctx context.Context, prompt string) string
}

// StaticResponder is the default Responder.
type StaticResponder struct{}

func (StaticResponder) Reply(_ context.Context, _ string) string {
	return "I'm here. How can I help?"
}

// Draft is one inbound chat unit plus its transport-only attachment fields.
type Draft struct {
	models.Chat
	IsEdited       bool   `json:"isEdited"`
	FileData       []byte `json:"fileData,omitempty"`
	ForwardFromKey string `json:"forwardFromKey,omitempty"`
}

type Pipeline struct {
	store       *repository.Store
	blobs       storage.BlobStore
	reg         *registry.Registry
	producer    Publisher
	preview     *Previewer
	inviter     GroupInviter
	responder   Responder
	assistantID string
	log         *zap.SugaredLogger
}

func NewPipeline(store *repository.Store, blobs storage.BlobStore, reg *registry.Registry,
	producer Publisher, preview *Previewer, assistantID string, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		store:       store,
		blobs:       blobs,
		reg:         reg,
		producer:    producer,
		preview:     preview,
		responder:   StaticResponder{},
		assistantID: assistantID,
		log:         log,
	}
}

// SetInviter breaks the construction cycle with the membership manager.
func (p *Pipeline) SetInviter(inv GroupInviter) { p.inviter = inv }

// SetResponder overrides the assistant responder.
func (p *Pipeline) SetResponder(r Responder) { p.responder = r }

// Submit runs each draft through the pipeline. Drafts are independent: a
// failed draft never blocks the rest of the batch.
func (p *Pipeline) Submit(ctx context.Context, senderID string, drafts []Draft) error {
	sender, err := p.store.Users.Get(ctx, senderID)
	if err != nil {
		return err
	}
	for i := range drafts {
		p.processDraft(ctx, sender, &drafts[i])
	}
	return nil
}

func (p *Pipeline) processDraft(ctx context.Context, sender *models.User, d *Draft) {
	c := &d.Chat
	c.SenderID = sender.ID
	if c.CustomID == "" {
		c.CustomID = uuid.NewString()
	}
	if c.SentTime.IsZero() {
		c.SentTime = time.Now().UTC()
	}

	receiverIDs, ok := p.resolveReceivers(ctx, sender, c)
	if !ok {
		return
	}

	// group invitations run the membership invite path before fan-out
	if c.ChatType == models.ChatTypeGroupInvitation && c.GroupID != "" && p.inviter != nil {
		if err := p.inviter.Invite(ctx, sender.ID, c.GroupID, receiverIDs); err != nil {
			p.log.Warnw("group invite from chat failed", "group", c.GroupID, "err", err)
		}
	}

	if c.ChatType == models.ChatTypeText && p.preview != nil && c.LinkPreview == nil {
		c.LinkPreview = p.preview.Resolve(ctx, c.Text)
	}

	if !p.resolveAttachment(ctx, sender.ID, d) {
		return // failure already surfaced to the sender
	}

	receivers, err := p.store.Users.GetMany(ctx, receiverIDs)
	if err != nil {
		p.log.Errorw("load receivers", "customId", c.CustomID, "err", err)
		return
	}

	now := time.Now().UTC()
	selfChat := len(receivers) == 1 && receivers[0].ID == sender.ID
	c.ReceiversInfo = c.ReceiversInfo[:0]
	for _, rcv := range receivers {
		c.ReceiversInfo = append(c.ReceiversInfo, p.receiverEntry(sender, rcv, c, selfChat, now))
	}

	if d.IsEdited {
		if err := p.store.Chats.Update(ctx, c); err != nil {
			p.log.Errorw("chat update", "customId", c.CustomID, "err", err)
			return
		}
	} else {
		created, err := p.store.Chats.Insert(ctx, c)
		if err != nil {
			p.log.Errorw("chat insert", "customId", c.CustomID, "err", err)
			return
		}
		if !created {
			// duplicate customID: retried create, nothing more to do
			return
		}
	}

	p.bumpRecentTabs(ctx, sender.ID, c, now)

	if p.producer != nil {
		if err := p.producer.Publish(ctx, c.CustomID, map[string]any{
			"event":    "chat.stored",
			"customId": c.CustomID,
			"senderId": c.SenderID,
			"chatType": c.ChatType,
			"sentTime": c.SentTime,
		}); err != nil {
			p.log.Warnw("kafka publish", "customId", c.CustomID, "err", err)
		}
	}

	// full echo to the sender, receiver-shaped projection to everyone else
	p.reg.SendTo(sender.ID, events.NewChats, "newChats", []models.Chat{*c})
	fanout.Push(p.reg, receiverIDs, func(rid string) (string, string, any, bool) {
		if rid == sender.ID || c.DeletedBy(rid) {
			return "", "", nil, false
		}
		return events.NewChats, "newChats", []models.Chat{c.ReceiverProjection(rid)}, true
	})

	p.maybeAssistantReply(ctx, sender, c)
}

// resolveReceivers expands the declared target into receiver IDs and applies
// the group message-permission gate. A denied draft is silently dropped.
func (p *Pipeline) resolveReceivers(ctx context.Context, sender *models.User, c *models.Chat) ([]string, bool) {
	switch {
	case c.GroupID != "":
		g, err := p.store.Groups.Get(ctx, c.GroupID)
		if err != nil {
			p.log.Warnw("chat to unknown group", "group", c.GroupID, "err", err)
			return nil, false
		}
		if !g.IsMember(sender.ID) {
			return nil, false
		}
		if g.MessagePermission == models.MessagePermissionAdmins && !g.IsAdmin(sender.ID) &&
			c.ChatType != models.ChatTypeGroupInvitation {
			return nil, false
		}
		var out []string
		for _, m := range g.Members {
			if m != sender.ID {
				out = append(out, m)
			}
		}
		if c.ChatType == models.ChatTypeGroupInvitation {
			// invitation chats address the invitees declared on the draft
			out = out[:0]
			for _, ri := range c.ReceiversInfo {
				out = append(out, ri.ReceiverID)
			}
		}
		return out, true
	case c.BroadcastID != "":
		b, err := p.store.Broadcasts.Get(ctx, c.BroadcastID)
		if err != nil || b.CreatedBy != sender.ID {
			return nil, false
		}
		return b.Members, true
	default:
		var out []string
		for _, ri := range c.ReceiversInfo {
			out = append(out, ri.ReceiverID)
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	}
}

// resolveAttachment uploads, copies or replaces the blob behind the draft.
// Returns false when the draft must be aborted.
func (p *Pipeline) resolveAttachment(ctx context.Context, senderID string, d *Draft) bool {
	c := &d.Chat
	switch {
	case len(d.FileData) > 0:
		if d.IsEdited && c.File != nil && c.File.Key != "" {
			// superseded blob is dropped before the new upload takes its place
			if err := p.blobs.Delete(ctx, c.File.Key); err != nil {
				p.log.Warnw("delete superseded blob", "key", c.File.Key, "err", err)
			}
		}
		name := ""
		contentType := "application/octet-stream"
		if c.File != nil {
			name = c.File.Name
			if c.File.ContentType != "" {
				contentType = c.File.ContentType
			}
		}
		key := uuid.NewString()
		url, err := p.blobs.Upload(ctx, key, contentType, d.FileData)
		if err != nil {
			p.log.Warnw("attachment upload", "customId", c.CustomID, "err", err)
			// transient marker to the sender only, never persisted
			p.reg.SendTo(senderID, events.ChatSendFailed, "failedChat",
				map[string]any{"customID": c.CustomID, "isFailed": true})
			return false
		}
		c.File = &models.FileInfo{Key: key, Name: name, ContentType: contentType,
			Size: int64(len(d.FileData)), PublicURL: url}
	case d.ForwardFromKey != "":
		// forwarded files always get a fresh key so deletion stays per-message
		key := uuid.NewString()
		if err := p.blobs.CopyUnderNewKey(ctx, d.ForwardFromKey, key); err != nil {
			p.log.Warnw("attachment copy", "customId", c.CustomID, "err", err)
			p.reg.SendTo(senderID, events.ChatSendFailed, "failedChat",
				map[string]any{"customID": c.CustomID, "isFailed": true})
			return false
		}
		if c.File == nil {
			c.File = &models.FileInfo{}
		}
		c.File.Key = key
		c.IsForwarded = true
	}
	return true
}

// receiverEntry computes one receiver's delivery record. A blocking
// relationship records the receiver as deleted at creation time; the message
// exists but is invisible to that party.
func (p *Pipeline) receiverEntry(sender, rcv *models.User, c *models.Chat, selfChat bool, now time.Time) models.ReceiverInfo {
	ri := models.ReceiverInfo{
		ReceiverID:               rcv.ID,
		IsDeliveredStatusAllowed: visibility.IsVisible(rcv.Visibility.ChatDeliveryStatus, sender.ID, rcv.BlockedUsers),
		IsSeenStatusAllowed:      visibility.IsVisible(rcv.Visibility.ChatSeenStatus, sender.ID, rcv.BlockedUsers),
	}
	blocked := sender.HasBlocked(rcv.ID) || rcv.HasBlocked(sender.ID)
	switch {
	case selfChat:
		ri.Status = models.ChatStatusSeen
		ri.SeenTime = &now
	case blocked && rcv.ID != sender.ID:
		ri.Status = models.ChatStatusSent
		c.DeletedByUsers = append(c.DeletedByUsers, rcv.ID)
	case p.reg.IsOnline(rcv.ID) && ri.IsDeliveredStatusAllowed:
		ri.Status = models.ChatStatusDelivered
		ri.DeliveredTime = &now
	default:
		ri.Status = models.ChatStatusSent
	}
	return ri
}

// bumpRecentTabs refreshes the recency index for the sender and for every
// receiver whose copy already exists (including blocked ones, whose tab keeps
// its clearing time current).
func (p *Pipeline) bumpRecentTabs(ctx context.Context, senderID string, c *models.Chat, now time.Time) {
	tabID := c.GroupID
	if tabID == "" {
		tabID = c.BroadcastID
	}
	isGroup := tabID != ""
	for _, ri := range c.ReceiversInfo {
		peerTab := tabID
		if peerTab == "" {
			peerTab = c.SenderID
		}
		tab := models.RecentTab{TabID: peerTab, IsGroup: isGroup, RecentTime: now}
		if c.DeletedBy(ri.ReceiverID) {
			tab.ClearingTime = now
		}
		if err := p.store.Users.UpsertRecentTab(ctx, ri.ReceiverID, tab); err != nil {
			p.log.Debugw("recent tab", "user", ri.ReceiverID, "err", err)
		}
	}
	senderTab := tabID
	if senderTab == "" && len(c.ReceiversInfo) > 0 {
		senderTab = c.ReceiversInfo[0].ReceiverID
	}
	if senderTab != "" {
		_ = p.store.Users.UpsertRecentTab(ctx, senderID,
			models.RecentTab{TabID: senderTab, IsGroup: isGroup, RecentTime: now})
	}
}

// maybeAssistantReply synthesizes a reply when the chat addresses the
// assistant identity, feeding it back through the same pipeline. The reply
// is self-deleted for the assistant so it never shows in assistant history.
func (p *Pipeline) maybeAssistantReply(ctx context.Context, sender *models.User, c *models.Chat) {
	if p.assistantID == "" || sender.ID == p.assistantID {
		return
	}
	addressed := false
	for _, ri := range c.ReceiversInfo {
		if ri.ReceiverID == p.assistantID {
			addressed = true
			break
		}
	}
	if !addressed {
		return
	}

	now := time.Now().UTC()
	// the assistant has read the inbound chat by definition
	_ = p.store.Chats.SetReceiverStatus(ctx, c.CustomID, p.assistantID, models.ChatStatusSeen, now)

	assistant, err := p.store.Users.Get(ctx, p.assistantID)
	if err != nil {
		p.log.Warnw("assistant identity missing", "err", err)
		return
	}
	reply := Draft{Chat: models.Chat{
		CustomID:       uuid.NewString(),
		ChatType:       models.ChatTypeText,
		Text:           p.responder.Reply(ctx, c.Text),
		ReceiversInfo:  []models.ReceiverInfo{{ReceiverID: sender.ID}},
		DeletedByUsers: []string{p.assistantID},
		SentTime:       now,
	}}
	p.processDraft(ctx, assistant, &reply)
}
