package models

import "time"

// StoryReceiverInfo tracks one receiver's seen state for a story.
type StoryReceiverInfo struct {
	ReceiverID          string     `bson:"receiverId" json:"receiverId"`
	SeenTime            *time.Time `bson:"seenTime,omitempty" json:"seenTime,omitempty"`
	IsSeenStatusAllowed bool       `bson:"isSeenStatusAllowed" json:"isSeenStatusAllowed"`
}

// Story mirrors Chat's per-user deletion and visibility filtering but has no
// group or broadcast variant; its audience is derived from the sender's
// story visibility policy at send time.
type Story struct {
	ID              string              `bson:"_id,omitempty" json:"id,omitempty"`
	CustomID        string              `bson:"customId" json:"customID"`
	SenderID        string              `bson:"senderId" json:"senderID"`
	StoryType       string              `bson:"storyType" json:"storyType"` // text or file
	Text            string              `bson:"text,omitempty" json:"text,omitempty"`
	File            *FileInfo           `bson:"file,omitempty" json:"file,omitempty"`
	LinkPreview     *LinkPreview        `bson:"linkPreview,omitempty" json:"linkPreview,omitempty"`
	ReceiversInfo   []StoryReceiverInfo `bson:"receiversInfo" json:"receiversInfo"`
	StatusForSender string              `bson:"statusForSender" json:"statusForSender"`
	DeletedByUsers  []string            `bson:"deletedByUsers,omitempty" json:"deletedByUsers,omitempty"`
	SentTime        time.Time           `bson:"sentTime" json:"sentTime"`
}

// Participants returns sender plus every receiver, de-duplicated.
func (s *Story) Participants() []string {
	seen := map[string]bool{s.SenderID: true}
	out := []string{s.SenderID}
	for _, ri := range s.ReceiversInfo {
		if !seen[ri.ReceiverID] {
			seen[ri.ReceiverID] = true
			out = append(out, ri.ReceiverID)
		}
	}
	return out
}

// ReceiverProjection narrows receiversInfo to one receiver for push.
func (s *Story) ReceiverProjection(receiverID string) Story {
	cp := *s
	cp.ReceiversInfo = nil
	for _, ri := range s.ReceiversInfo {
		if ri.ReceiverID == receiverID {
			cp.ReceiversInfo = []StoryReceiverInfo{ri}
			break
		}
	}
	return cp
}
