package models

import "time"

// Chat types carried on the wire.
const (
	ChatTypeText            = "text"
	ChatTypeFile            = "file"
	ChatTypeCall            = "call"
	ChatTypeGroupInvitation = "group-invitation"
	ChatTypeUnsent          = "unsent"

	// system chats announce membership changes inside a group
	ChatTypeSystemJoin    = "system-member-joined"
	ChatTypeSystemAdded   = "system-member-added"
	ChatTypeSystemRemoved = "system-member-removed"
	ChatTypeSystemPromote = "system-member-promoted"
)

// Per-receiver delivery statuses.
const (
	ChatStatusSending   = "sending"
	ChatStatusSent      = "sent"
	ChatStatusDelivered = "delivered"
	ChatStatusSeen      = "seen"
)

// ReceiverInfo tracks one receiver's delivery state for a chat. The allowed
// flags record whether that receiver's policy lets the sender observe the
// corresponding status at all.
type ReceiverInfo struct {
	ReceiverID               string     `bson:"receiverId" json:"receiverId"`
	Status                   string     `bson:"status" json:"status"`
	DeliveredTime            *time.Time `bson:"deliveredTime,omitempty" json:"deliveredTime,omitempty"`
	SeenTime                 *time.Time `bson:"seenTime,omitempty" json:"seenTime,omitempty"`
	IsDeliveredStatusAllowed bool       `bson:"isDeliveredStatusAllowed" json:"isDeliveredStatusAllowed"`
	IsSeenStatusAllowed      bool       `bson:"isSeenStatusAllowed" json:"isSeenStatusAllowed"`
}

// FileInfo describes an attachment stored in the blob store.
type FileInfo struct {
	Key         string `bson:"key" json:"key"`
	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	ContentType string `bson:"contentType,omitempty" json:"contentType,omitempty"`
	Size        int64  `bson:"size,omitempty" json:"size,omitempty"`
	PublicURL   string `bson:"publicUrl,omitempty" json:"publicUrl,omitempty"`
}

// LinkPreview is resolved metadata for the first link token in a text chat.
type LinkPreview struct {
	URL   string `bson:"url" json:"url"`
	Title string `bson:"title,omitempty" json:"title,omitempty"`
}

// RepliedToInfo references the chat this one replies to.
type RepliedToInfo struct {
	CustomID string `bson:"customId" json:"customId"`
	SenderID string `bson:"senderId" json:"senderId"`
	Summary  string `bson:"summary,omitempty" json:"summary,omitempty"`
}

// Chat is one message unit. CustomID is a client-generated idempotency key.
// A chat is hard-deleted only once the sender and every receiver appear in
// DeletedByUsers.
type Chat struct {
	ID               string         `bson:"_id,omitempty" json:"id,omitempty"`
	CustomID         string         `bson:"customId" json:"customID"`
	SenderID         string         `bson:"senderId" json:"senderID"`
	GroupID          string         `bson:"groupId,omitempty" json:"toGroupID,omitempty"`
	BroadcastID      string         `bson:"broadcastId,omitempty" json:"toBroadcastID,omitempty"`
	ChatType         string         `bson:"chatType" json:"chatType"`
	Text             string         `bson:"text,omitempty" json:"text,omitempty"`
	File             *FileInfo      `bson:"file,omitempty" json:"file,omitempty"`
	LinkPreview      *LinkPreview   `bson:"linkPreview,omitempty" json:"linkPreview,omitempty"`
	DisappearingTime string         `bson:"disappearingTime,omitempty" json:"disappearingTime,omitempty"`
	ReceiversInfo    []ReceiverInfo `bson:"receiversInfo" json:"receiversInfo"`
	StarredByUsers   []string       `bson:"starredByUsers,omitempty" json:"starredByUsers,omitempty"`
	KeptByUsers      []string       `bson:"keptByUsers,omitempty" json:"keptByUsers,omitempty"`
	DeletedByUsers   []string       `bson:"deletedByUsers,omitempty" json:"deletedByUsers,omitempty"`
	RepliedToInfo    *RepliedToInfo `bson:"repliedToInfo,omitempty" json:"repliedToInfo,omitempty"`
	IsForwarded      bool           `bson:"isForwarded,omitempty" json:"isForwarded,omitempty"`
	SentTime         time.Time      `bson:"sentTime" json:"sentTime"`
	UpdatedAt        time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Participants returns sender plus every declared receiver, de-duplicated.
func (c *Chat) Participants() []string {
	seen := map[string]bool{c.SenderID: true}
	out := []string{c.SenderID}
	for _, ri := range c.ReceiversInfo {
		if !seen[ri.ReceiverID] {
			seen[ri.ReceiverID] = true
			out = append(out, ri.ReceiverID)
		}
	}
	return out
}

// DeletedBy reports whether userID soft-deleted this chat.
func (c *Chat) DeletedBy(userID string) bool {
	for _, d := range c.DeletedByUsers {
		if d == userID {
			return true
		}
	}
	return false
}

// ReceiverProjection returns a copy with receiversInfo narrowed to one
// receiver, the shape pushed to that receiver.
func (c *Chat) ReceiverProjection(receiverID string) Chat {
	cp := *c
	cp.ReceiversInfo = nil
	for _, ri := range c.ReceiversInfo {
		if ri.ReceiverID == receiverID {
			cp.ReceiversInfo = []ReceiverInfo{ri}
			break
		}
	}
	return cp
}
