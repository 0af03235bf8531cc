package models

import "time"

// Visibility policy modes. "connections" is treated as allow at the policy
// layer; call sites restrict the candidate audience to accepted connections.
const (
	VisibilityPublic      = "public"
	VisibilityConnections = "connections"
	VisibilityPrivate     = "private"
	VisibilityIncluded    = "included"
	VisibilityExcluded    = "excluded"
)

// Connection edge statuses.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
)

// ActionedTo is a per-user override inside a field policy.
type ActionedTo struct {
	TargetUserID string `bson:"targetUserId" json:"targetUserId"`
	IsIncluded   bool   `bson:"isIncluded" json:"isIncluded"`
	IsExcluded   bool   `bson:"isExcluded" json:"isExcluded"`
}

// FieldPolicy controls who may observe one profile field.
type FieldPolicy struct {
	Mode       string       `bson:"mode" json:"mode"`
	ActionedTo []ActionedTo `bson:"actionedTo,omitempty" json:"actionedTo,omitempty"`
}

// Visibility field keys, used on the wire in *:visibility:change payloads.
const (
	FieldProfilePic         = "profilePic"
	FieldAbout              = "about"
	FieldActiveStatus       = "activeStatus"
	FieldStory              = "story"
	FieldChatDeliveryStatus = "chatDeliveryStatus"
	FieldChatSeenStatus     = "chatSeenStatus"
	FieldStorySeenStatus    = "storySeenStatus"
	FieldAddingToGroup      = "addingToGroup"
)

// Visibility holds one policy per observable field.
type Visibility struct {
	ProfilePic         FieldPolicy `bson:"profilePic" json:"profilePic"`
	About              FieldPolicy `bson:"about" json:"about"`
	ActiveStatus       FieldPolicy `bson:"activeStatus" json:"activeStatus"`
	Story              FieldPolicy `bson:"story" json:"story"`
	ChatDeliveryStatus FieldPolicy `bson:"chatDeliveryStatus" json:"chatDeliveryStatus"`
	ChatSeenStatus     FieldPolicy `bson:"chatSeenStatus" json:"chatSeenStatus"`
	StorySeenStatus    FieldPolicy `bson:"storySeenStatus" json:"storySeenStatus"`
	AddingToGroup      FieldPolicy `bson:"addingToGroup" json:"addingToGroup"`
}

// Policy returns the policy for a wire field key. Unknown keys default to
// public so a stale client cannot lock a user out of their own data.
func (v Visibility) Policy(field string) FieldPolicy {
	switch field {
	case FieldProfilePic:
		return v.ProfilePic
	case FieldAbout:
		return v.About
	case FieldActiveStatus:
		return v.ActiveStatus
	case FieldStory:
		return v.Story
	case FieldChatDeliveryStatus:
		return v.ChatDeliveryStatus
	case FieldChatSeenStatus:
		return v.ChatSeenStatus
	case FieldStorySeenStatus:
		return v.StorySeenStatus
	case FieldAddingToGroup:
		return v.AddingToGroup
	}
	return FieldPolicy{Mode: VisibilityPublic}
}

// Connection is a social-graph edge. The edge is stored on both user
// documents; it is unique per user pair regardless of direction.
type Connection struct {
	ConnectionID    string `bson:"connectionId" json:"connectionId"`
	InitiatorUserID string `bson:"initiatorUserId" json:"initiatorUserId"`
	TargetUserID    string `bson:"targetUserId" json:"targetUserId"`
	Status          string `bson:"status" json:"status"`
}

// PeerOf returns the other side of the edge for the given user.
func (c Connection) PeerOf(userID string) string {
	if c.InitiatorUserID == userID {
		return c.TargetUserID
	}
	return c.InitiatorUserID
}

// RecentTab is per-user UI bookkeeping of a chat peer or group.
type RecentTab struct {
	TabID            string    `bson:"tabId" json:"tabId"` // peer user id or group/broadcast id
	IsGroup          bool      `bson:"isGroup" json:"isGroup"`
	RecentTime       time.Time `bson:"recentTime" json:"recentTime"`
	ClearingTime     time.Time `bson:"clearingTime,omitempty" json:"clearingTime,omitempty"`
	Archived         bool      `bson:"archived" json:"archived"`
	Pinned           bool      `bson:"pinned" json:"pinned"`
	DisappearingTime string    `bson:"disappearingTime,omitempty" json:"disappearingTime,omitempty"`
}

// PastGroup is a denormalized snapshot retained after the user leaves a group.
type PastGroup struct {
	GroupID  string    `bson:"groupId" json:"groupId"`
	Name     string    `bson:"name" json:"name"`
	Picture  string    `bson:"picture,omitempty" json:"picture,omitempty"`
	ExitedAt time.Time `bson:"exitedAt" json:"exitedAt"`
}

// ActiveStatusOnline is the sentinel stored while at least one socket is live.
// On disconnect the presence sweep replaces it with a last-seen timestamp.
const ActiveStatusOnline = "online"

// User is the durable user document.
type User struct {
	ID              string       `bson:"_id" json:"userId"`
	Name            string       `bson:"name" json:"name"`
	Picture         string       `bson:"picture,omitempty" json:"picture,omitempty"` // blob key
	BackgroundColor string       `bson:"backgroundColor,omitempty" json:"backgroundColor,omitempty"`
	About           string       `bson:"about,omitempty" json:"about,omitempty"`
	ActiveStatus    string       `bson:"activeStatus" json:"activeStatus"`
	Connections     []Connection `bson:"connections,omitempty" json:"connections,omitempty"`
	Visibility      Visibility   `bson:"visibility" json:"visibility"`
	BlockedUsers    []string     `bson:"blockedUsers,omitempty" json:"blockedUsers,omitempty"`
	RecentChatsTabs []RecentTab  `bson:"recentChatsTabs,omitempty" json:"recentChatsTabs,omitempty"`
	PastGroups      []PastGroup  `bson:"pastGroups,omitempty" json:"pastGroups,omitempty"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
}

// HasBlocked reports whether the user blocked target.
func (u *User) HasBlocked(target string) bool {
	for _, b := range u.BlockedUsers {
		if b == target {
			return true
		}
	}
	return false
}

// ConnectionWith returns the edge shared with peer, if any.
func (u *User) ConnectionWith(peer string) (Connection, bool) {
	for _, c := range u.Connections {
		if c.InitiatorUserID == peer || c.TargetUserID == peer {
			return c, true
		}
	}
	return Connection{}, false
}
