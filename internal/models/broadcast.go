package models

import "time"

// Broadcast has no admin or invitation concept; only the creator is notified
// of roster changes.
type Broadcast struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string    `bson:"name" json:"name"`
	Picture   string    `bson:"picture,omitempty" json:"picture,omitempty"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	Members   []string  `bson:"members" json:"members"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// IsMember reports membership.
func (b *Broadcast) IsMember(userID string) bool {
	for _, m := range b.Members {
		if m == userID {
			return true
		}
	}
	return false
}
