package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// UserStore persists user documents. Array mutations are expressed as single
// conditional filter+update operations; the store is the serialization point
// for conflicting writes.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetMany(ctx context.Context, ids []string) ([]*models.User, error)
	// FindOnline lists users whose stored activeStatus still reads online;
	// the presence sweep reconciles them against the live registry.
	FindOnline(ctx context.Context) ([]*models.User, error)
	SetProfileField(ctx context.Context, id, field string, value any) error
	SetActiveStatus(ctx context.Context, id, status string) error
	SetVisibilityPolicy(ctx context.Context, id, field string, policy models.FieldPolicy) error

	// AddConnection adds the edge to both user documents; ErrDuplicate when
	// an edge between the pair already exists in either direction.
	AddConnection(ctx context.Context, edge models.Connection) error
	AcceptConnection(ctx context.Context, connectionID string) error
	// RemoveConnection pulls the edge from both sides and returns it, so the
	// caller can route notifications by initiator tag.
	RemoveConnection(ctx context.Context, connectionID string) (models.Connection, error)
	RemoveEdgesWith(ctx context.Context, userID string) error

	Block(ctx context.Context, ownerID, targetID string) error
	Unblock(ctx context.Context, ownerID, targetID string) error
	UpsertRecentTab(ctx context.Context, ownerID string, tab models.RecentTab) error
	AddPastGroup(ctx context.Context, userID string, pg models.PastGroup) error
	Delete(ctx context.Context, id string) error
}

// ChatStore persists chat documents keyed by client-generated customID.
type ChatStore interface {
	// Insert is an upsert on customID: a retried create finds the existing
	// document and reports created=false without modifying it.
	Insert(ctx context.Context, c *models.Chat) (created bool, err error)
	Update(ctx context.Context, c *models.Chat) error
	GetByCustomID(ctx context.Context, customID string) (*models.Chat, error)
	SetReceiverStatus(ctx context.Context, customID, receiverID, status string, at time.Time) error
	SoftDelete(ctx context.Context, customID, userID string) error
	// DeleteIfAllParticipantsDeleted hard-deletes the chat when the sender and
	// every receiver appear in deletedByUsers. Returns the chat and whether it
	// was erased.
	DeleteIfAllParticipantsDeleted(ctx context.Context, customID string) (*models.Chat, bool, error)
	SoftDeleteAllForGroup(ctx context.Context, groupID string, userIDs []string) error
	SoftDeleteAllForUser(ctx context.Context, userID string) error
}

// StoryStore persists stories.
type StoryStore interface {
	Insert(ctx context.Context, s *models.Story) (created bool, err error)
	GetByCustomID(ctx context.Context, customID string) (*models.Story, error)
	ListBySender(ctx context.Context, senderID string) ([]*models.Story, error)
	MarkSeen(ctx context.Context, customID, receiverID string, at time.Time) error
	SoftDelete(ctx context.Context, customID, userID string) error
	DeleteIfAllParticipantsDeleted(ctx context.Context, customID string) (*models.Story, bool, error)
	Delete(ctx context.Context, customID string) error
}

// GroupStore persists group documents. Membership transitions are single
// conditional updates; each reports whether the document matched so callers
// can treat a non-match as a silent no-op.
type GroupStore interface {
	Create(ctx context.Context, g *models.Group) (string, error)
	Get(ctx context.Context, id string) (*models.Group, error)
	AddInvited(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, groupID, userID string, asAdmin bool) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID string, exitedAt time.Time) (bool, error)
	PromoteAdmin(ctx context.Context, groupID, userID string) (bool, error)
	DemoteAdmin(ctx context.Context, groupID, userID string) error
	SetProfile(ctx context.Context, groupID, name, picture, description string) error
	SetMessagePermission(ctx context.Context, groupID, permission string) error
	Delete(ctx context.Context, groupID string) error
	RemoveUserEverywhere(ctx context.Context, userID string, exitedAt time.Time) error
}

// BroadcastStore persists broadcast lists.
type BroadcastStore interface {
	Create(ctx context.Context, b *models.Broadcast) (string, error)
	Get(ctx context.Context, id string) (*models.Broadcast, error)
	AddMember(ctx context.Context, broadcastID, userID string) (bool, error)
	RemoveMember(ctx context.Context, broadcastID, userID string) error
	SetProfile(ctx context.Context, broadcastID, name, picture string) error
	Delete(ctx context.Context, broadcastID string) error
	RemoveUserEverywhere(ctx context.Context, userID string) error
}

// CallStore persists call records.
type CallStore interface {
	Insert(ctx context.Context, c *models.Call) error
	GetByCustomID(ctx context.Context, customID string) (*models.Call, error)
	SetStatus(ctx context.Context, customID, status string, callDur, ringDur time.Duration, at time.Time) error
	SetSeenByCallee(ctx context.Context, customID string) error
	SoftDelete(ctx context.Context, customID, userID string) error
	DeleteIfAllPartiesDeleted(ctx context.Context, customID string) (bool, error)
	// FindUnresolved returns calls in calling/ringing, plus accepted calls
	// with no duration stamped yet. Scanned by the presence sweep.
	FindUnresolved(ctx context.Context) ([]*models.Call, error)
}

// Store aggregates every collection the service touches.
type Store struct {
	Users      UserStore
	Chats      ChatStore
	Stories    StoryStore
	Groups     GroupStore
	Broadcasts BroadcastStore
	Calls      CallStore
}
