package models

import "time"

// Call statuses.
const (
	CallStatusCalling    = "calling"
	CallStatusRinging    = "ringing"
	CallStatusAccepted   = "accepted"
	CallStatusRejected   = "rejected"
	CallStatusMissedCall = "missed_call"
	CallStatusEnded      = "ended"
)

// Call records one call between two parties. Durations are stamped when the
// call reaches a terminal status, either by explicit signaling or by the
// presence sweep force-resolving a stuck call.
type Call struct {
	ID             string        `bson:"_id,omitempty" json:"id,omitempty"`
	CustomID       string        `bson:"customId" json:"customID"`
	CallerID       string        `bson:"callerId" json:"callerID"`
	CalleeID       string        `bson:"calleeId" json:"calleeID"`
	CallType       string        `bson:"callType" json:"callType"` // audio or video
	Status         string        `bson:"status" json:"status"`
	CallingTime    time.Time     `bson:"callingTime" json:"callingTime"`
	CallDuration   time.Duration `bson:"callDuration,omitempty" json:"callDuration,omitempty"`
	RingDuration   time.Duration `bson:"ringDuration,omitempty" json:"ringDuration,omitempty"`
	SeenByCallee   bool          `bson:"seenByCallee" json:"seenByCallee"`
	DeletedByUsers []string      `bson:"deletedByUsers,omitempty" json:"deletedByUsers,omitempty"`
	UpdatedAt      time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// PeerOf returns the counterpart of userID on this call.
func (c *Call) PeerOf(userID string) string {
	if c.CallerID == userID {
		return c.CalleeID
	}
	return c.CallerID
}

// DeletedBy reports whether userID soft-deleted this call from history.
func (c *Call) DeletedBy(userID string) bool {
	for _, d := range c.DeletedByUsers {
		if d == userID {
			return true
		}
	}
	return false
}
