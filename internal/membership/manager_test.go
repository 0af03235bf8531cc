package membership

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/repository/memory"
)

type recSink struct {
	userID string
	frames [][]byte
}

func (s *recSink) UserID() string { return s.userID }

func (s *recSink) Send(frame []byte) bool {
	s.frames = append(s.frames, frame)
	return true
}

func (s *recSink) types(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, f := range s.frames {
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env.Type)
	}
	return out
}

func newTestManager() (*Manager, *memory.Store, *registry.Registry) {
	ms := memory.New()
	reg := registry.New(nil, "test")
	return NewManager(ms.Stores(), reg, zap.NewNop().Sugar()), ms, reg
}

func TestCreateGroupSplitsMembersAndInvited(t *testing.T) {
	m, ms, reg := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	ms.SeedUser(&models.User{ID: "carol", Visibility: models.Visibility{
		AddingToGroup: models.FieldPolicy{Mode: models.VisibilityPrivate},
	}})
	ms.SeedUser(&models.User{ID: "dave", BlockedUsers: []string{"alice"}})
	carol := &recSink{userID: "carol"}
	reg.Register(carol)

	require.NoError(t, m.CreateGroup(context.Background(), "alice",
		models.Group{ID: "g1", Name: "team"}, []string{"bob", "carol", "dave"}))

	g, err := ms.Stores().Groups.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, g.Members)
	assert.Equal(t, []string{"alice"}, g.Admins)
	assert.Equal(t, []string{"carol"}, g.InvitedUsers)
	assert.Equal(t, "alice", g.CreatedBy)
	assert.Equal(t, models.MessagePermissionEveryone, g.MessagePermission)

	// the disallowed add became an invitation chat
	require.Len(t, carol.frames, 1)
	var body struct {
		NewChats []models.Chat `json:"newChats"`
	}
	require.NoError(t, json.Unmarshal(carol.frames[0], &body))
	require.Len(t, body.NewChats, 1)
	assert.Equal(t, models.ChatTypeGroupInvitation, body.NewChats[0].ChatType)
	assert.Equal(t, "g1", body.NewChats[0].GroupID)
}

func TestJoinRequiresInvitationOrPastMembership(t *testing.T) {
	m, ms, _ := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "carol"})
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:           "g1",
		CreatedBy:    "alice",
		Members:      []string{"alice"},
		Admins:       []string{"alice"},
		InvitedUsers: []string{"carol"},
	})
	require.NoError(t, err)

	require.NoError(t, m.Join(context.Background(), "stranger", "g1"))
	g, _ := ms.Stores().Groups.Get(context.Background(), "g1")
	assert.False(t, g.IsMember("stranger"))

	require.NoError(t, m.Join(context.Background(), "carol", "g1"))
	g, _ = ms.Stores().Groups.Get(context.Background(), "g1")
	assert.True(t, g.IsMember("carol"))
	assert.False(t, g.IsInvited("carol"))
	assert.False(t, g.IsAdmin("carol"))
}

func TestCreatorRejoinRegainsAdmin(t *testing.T) {
	m, ms, _ := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:          "g1",
		CreatedBy:   "alice",
		Members:     []string{"bob"},
		Admins:      []string{"bob"},
		PastMembers: []models.PastMember{{MemberID: "alice"}},
	})
	require.NoError(t, err)

	require.NoError(t, m.Join(context.Background(), "alice", "g1"))
	g, _ := ms.Stores().Groups.Get(context.Background(), "g1")
	assert.True(t, g.IsMember("alice"))
	assert.True(t, g.IsAdmin("alice"))
	assert.False(t, g.IsPastMember("alice"))
}

func TestRemoveLastAdminPromotesOneMember(t *testing.T) {
	m, ms, _ := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	ms.SeedUser(&models.User{ID: "carol"})
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:        "g1",
		Name:      "team",
		CreatedBy: "alice",
		Members:   []string{"alice", "bob", "carol"},
		Admins:    []string{"alice"},
	})
	require.NoError(t, err)

	require.NoError(t, m.Remove(context.Background(), "alice", "g1", "alice"))

	g, err := ms.Stores().Groups.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, g.IsPastMember("alice"))
	assert.Equal(t, []string{"bob", "carol"}, g.Members)
	assert.Equal(t, []string{"bob"}, g.Admins, "exactly one member promoted")

	// the removed user keeps a snapshot of the group
	alice, err := ms.Stores().Users.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, alice.PastGroups, 1)
	assert.Equal(t, "g1", alice.PastGroups[0].GroupID)
	assert.Equal(t, "team", alice.PastGroups[0].Name)
}

func TestRemoveByNonAdminDenied(t *testing.T) {
	m, ms, _ := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:      "g1",
		Members: []string{"alice", "bob"},
		Admins:  []string{"alice"},
	})
	require.NoError(t, err)

	require.NoError(t, m.Remove(context.Background(), "bob", "g1", "alice"))
	g, _ := ms.Stores().Groups.Get(context.Background(), "g1")
	assert.True(t, g.IsMember("alice"))
}

func TestAddMembersFallsBackToInvite(t *testing.T) {
	m, ms, _ := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	ms.SeedUser(&models.User{ID: "carol", Visibility: models.Visibility{
		AddingToGroup: models.FieldPolicy{Mode: models.VisibilityPrivate},
	}})
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:      "g1",
		Members: []string{"alice"},
		Admins:  []string{"alice"},
	})
	require.NoError(t, err)

	require.NoError(t, m.AddMembers(context.Background(), "alice", "g1", []string{"bob", "carol"}))
	g, _ := ms.Stores().Groups.Get(context.Background(), "g1")
	assert.True(t, g.IsMember("bob"))
	assert.False(t, g.IsMember("carol"))
	assert.True(t, g.IsInvited("carol"))
}

func TestPromoteRequiresMembership(t *testing.T) {
	m, ms, _ := newTestManager()
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:      "g1",
		Members: []string{"alice", "bob"},
		Admins:  []string{"alice"},
	})
	require.NoError(t, err)

	require.NoError(t, m.Promote(context.Background(), "alice", "g1", []string{"bob", "stranger"}))
	g, _ := ms.Stores().Groups.Get(context.Background(), "g1")
	assert.True(t, g.IsAdmin("bob"))
	assert.False(t, g.IsAdmin("stranger"))
}

func TestDeleteGroupCascades(t *testing.T) {
	m, ms, reg := newTestManager()
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:          "g1",
		Members:     []string{"alice", "bob"},
		Admins:      []string{"alice"},
		PastMembers: []models.PastMember{{MemberID: "carol"}},
	})
	require.NoError(t, err)
	_, err = ms.Stores().Chats.Insert(context.Background(), &models.Chat{
		CustomID: "c1",
		SenderID: "alice",
		GroupID:  "g1",
		ChatType: models.ChatTypeText,
		ReceiversInfo: []models.ReceiverInfo{
			{ReceiverID: "bob"}, {ReceiverID: "carol"},
		},
	})
	require.NoError(t, err)
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	require.NoError(t, m.DeleteGroup(context.Background(), "alice", "g1"))

	_, err = ms.Stores().Groups.Get(context.Background(), "g1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// per-member soft delete covers past members too
	c, err := ms.Stores().Chats.GetByCustomID(context.Background(), "c1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, c.DeletedByUsers)

	assert.Contains(t, bob.types(t), "group:delete:permanently")
}

func TestBroadcastCreatorOnly(t *testing.T) {
	m, ms, _ := newTestManager()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	ms.SeedUser(&models.User{ID: "carol"})

	require.NoError(t, m.CreateBroadcast(context.Background(), "alice",
		models.Broadcast{ID: "b1", Name: "news"}, []string{"bob", "carol"}))

	b, err := ms.Stores().Broadcasts.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, b.Members)

	// only the creator may change the roster
	require.NoError(t, m.RemoveBroadcastMember(context.Background(), "bob", "b1", "carol"))
	b, _ = ms.Stores().Broadcasts.Get(context.Background(), "b1")
	assert.True(t, b.IsMember("carol"))

	require.NoError(t, m.RemoveBroadcastMember(context.Background(), "alice", "b1", "carol"))
	b, _ = ms.Stores().Broadcasts.Get(context.Background(), "b1")
	assert.False(t, b.IsMember("carol"))

	require.NoError(t, m.DeleteBroadcast(context.Background(), "bob", "b1"))
	_, err = ms.Stores().Broadcasts.Get(context.Background(), "b1")
	assert.NoError(t, err)

	require.NoError(t, m.DeleteBroadcast(context.Background(), "alice", "b1"))
	_, err = ms.Stores().Broadcasts.Get(context.Background(), "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
