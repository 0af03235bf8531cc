package models

import "time"

// Group message permission values.
const (
	MessagePermissionEveryone = "everyone"
	MessagePermissionAdmins   = "admins"
)

// PastMember records a user who exited the group.
type PastMember struct {
	MemberID string    `bson:"memberId" json:"memberId"`
	ExitedAt time.Time `bson:"exitedAt" json:"exitedAt"`
}

// Group document. Admins is always a subset of Members; a user is never in
// Members and PastMembers (or InvitedUsers) at the same time.
type Group struct {
	ID                string       `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string       `bson:"name" json:"name"`
	Picture           string       `bson:"picture,omitempty" json:"picture,omitempty"`
	Description       string       `bson:"description,omitempty" json:"description,omitempty"`
	MessagePermission string       `bson:"messagePermission" json:"messagePermission"`
	CreatedBy         string       `bson:"createdBy" json:"createdBy"`
	Members           []string     `bson:"members" json:"members"`
	InvitedUsers      []string     `bson:"invitedUsers,omitempty" json:"invitedUsers,omitempty"`
	Admins            []string     `bson:"admins" json:"admins"`
	PastMembers       []PastMember `bson:"pastMembers,omitempty" json:"pastMembers,omitempty"`
	CreatedAt         time.Time    `bson:"createdAt" json:"createdAt"`
}

// IsMember reports current membership.
func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// IsAdmin reports admin membership.
func (g *Group) IsAdmin(userID string) bool {
	for _, a := range g.Admins {
		if a == userID {
			return true
		}
	}
	return false
}

// IsPastMember reports whether userID previously exited.
func (g *Group) IsPastMember(userID string) bool {
	for _, p := range g.PastMembers {
		if p.MemberID == userID {
			return true
		}
	}
	return false
}

// IsInvited reports a pending invitation.
func (g *Group) IsInvited(userID string) bool {
	for _, i := range g.InvitedUsers {
		if i == userID {
			return true
		}
	}
	return false
}

// Snapshot returns the denormalized record kept on a removed member's user
// document.
func (g *Group) Snapshot(exitedAt time.Time) PastGroup {
	return PastGroup{GroupID: g.ID, Name: g.Name, Picture: g.Picture, ExitedAt: exitedAt}
}
