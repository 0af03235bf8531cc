package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/call"
	"github.com/fathima-sithara/realtime-service/internal/chat"
	"github.com/fathima-sithara/realtime-service/internal/membership"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/repository/memory"
	"github.com/fathima-sithara/realtime-service/internal/router"
	"github.com/fathima-sithara/realtime-service/internal/story"
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

type nopBlobs struct{}

func (nopBlobs) Upload(context.Context, string, string, []byte) (string, error) { return "", nil }
func (nopBlobs) CopyUnderNewKey(context.Context, string, string) error          { return nil }
func (nopBlobs) Delete(context.Context, string) error                           { return nil }

func newTestDeps() (*Deps, *memory.Store, *registry.Registry) {
	ms := memory.New()
	reg := registry.New(nil, "test")
	log := zap.NewNop().Sugar()
	chats := chat.NewPipeline(ms.Stores(), nopBlobs{}, reg, nil, nil, "", log)
	stories := story.NewPipeline(ms.Stores(), nopBlobs{}, reg, nil, log)
	members := membership.NewManager(ms.Stores(), reg, log)
	chats.SetInviter(members)
	return &Deps{
		Store:   ms.Stores(),
		Reg:     reg,
		Chats:   chats,
		Stories: stories,
		Members: members,
		Calls:   call.NewSignaler(ms.Stores(), reg, log),
		Log:     log,
	}, ms, reg
}

func frame(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestConnectionLifecycle(t *testing.T) {
	d, ms, reg := newTestDeps()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	ms.SeedUser(&models.User{ID: "mallory"})
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	require.NoError(t, d.connectionRequests(context.Background(), "alice", frame(t, map[string]any{
		"connectionInfos": []models.Connection{{ConnectionID: "c1", TargetUserID: "bob"}},
	})))

	bobUser, err := ms.Stores().Users.Get(context.Background(), "bob")
	require.NoError(t, err)
	edge, ok := bobUser.ConnectionWith("alice")
	require.True(t, ok)
	assert.Equal(t, models.ConnectionPending, edge.Status)
	assert.Equal(t, "alice", edge.InitiatorUserID)
	assert.Contains(t, bob.types(t), "connections:requests")

	// the initiator cannot accept their own request
	require.NoError(t, d.connectionsAccepted(context.Background(), "alice", frame(t, map[string]any{
		"connectionIds": []string{"c1"},
	})))
	bobUser, _ = ms.Stores().Users.Get(context.Background(), "bob")
	edge, _ = bobUser.ConnectionWith("alice")
	assert.Equal(t, models.ConnectionPending, edge.Status)

	require.NoError(t, d.connectionsAccepted(context.Background(), "bob", frame(t, map[string]any{
		"connectionIds": []string{"c1"},
	})))
	bobUser, _ = ms.Stores().Users.Get(context.Background(), "bob")
	edge, _ = bobUser.ConnectionWith("alice")
	assert.Equal(t, models.ConnectionAccepted, edge.Status)

	// an outsider cannot remove an edge they do not hold
	require.NoError(t, d.removeConnections(context.Background(), "mallory", frame(t, map[string]any{
		"connectionIds": []string{"c1"},
	})))
	bobUser, _ = ms.Stores().Users.Get(context.Background(), "bob")
	_, ok = bobUser.ConnectionWith("alice")
	require.True(t, ok, "mallory must have been rejected")

	require.NoError(t, d.removeConnections(context.Background(), "bob", frame(t, map[string]any{
		"connectionIds": []string{"c1"},
	})))
	bobUser, _ = ms.Stores().Users.Get(context.Background(), "bob")
	_, ok = bobUser.ConnectionWith("alice")
	assert.False(t, ok)
	aliceUser, _ := ms.Stores().Users.Get(context.Background(), "alice")
	_, ok = aliceUser.ConnectionWith("bob")
	assert.False(t, ok)
}

func TestConnectionRequestAcrossBlockDropped(t *testing.T) {
	d, ms, reg := newTestDeps()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob", BlockedUsers: []string{"alice"}})
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	require.NoError(t, d.connectionRequests(context.Background(), "alice", frame(t, map[string]any{
		"connectionInfos": []models.Connection{{ConnectionID: "c1", TargetUserID: "bob"}},
	})))

	bobUser, _ := ms.Stores().Users.Get(context.Background(), "bob")
	_, ok := bobUser.ConnectionWith("alice")
	assert.False(t, ok)
	assert.Empty(t, bob.frames)
}

func TestDuplicateConnectionRequestIgnored(t *testing.T) {
	d, ms, _ := newTestDeps()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})

	body := frame(t, map[string]any{
		"connectionInfos": []models.Connection{{ConnectionID: "c1", TargetUserID: "bob"}},
	})
	require.NoError(t, d.connectionRequests(context.Background(), "alice", body))
	require.NoError(t, d.connectionRequests(context.Background(), "alice", body))

	aliceUser, _ := ms.Stores().Users.Get(context.Background(), "alice")
	assert.Len(t, aliceUser.Connections, 1)
}

func TestBlockUnblock(t *testing.T) {
	d, ms, _ := newTestDeps()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})

	require.NoError(t, d.blockUser(context.Background(), "alice", frame(t, map[string]any{
		"targetUserId": "bob",
	})))
	u, _ := ms.Stores().Users.Get(context.Background(), "alice")
	assert.True(t, u.HasBlocked("bob"))

	require.NoError(t, d.unblockUser(context.Background(), "alice", frame(t, map[string]any{
		"targetUserId": "bob",
	})))
	u, _ = ms.Stores().Users.Get(context.Background(), "alice")
	assert.False(t, u.HasBlocked("bob"))
}

func TestProfileInfoChangePushesToAudience(t *testing.T) {
	d, ms, reg := newTestDeps()
	ms.SeedUser(&models.User{
		ID: "alice",
		Connections: []models.Connection{{
			ConnectionID:    "c1",
			InitiatorUserID: "alice",
			TargetUserID:    "bob",
			Status:          models.ConnectionAccepted,
		}},
	})
	ms.SeedUser(&models.User{ID: "bob"})
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	require.NoError(t, d.profileInfoChange(context.Background(), "alice", frame(t, map[string]any{
		"field": "about",
		"value": "hello world",
	})))

	u, _ := ms.Stores().Users.Get(context.Background(), "alice")
	assert.Equal(t, "hello world", u.About)
	require.Len(t, bob.frames, 1)
	assert.Equal(t, []string{"user:profileInfo:change"}, bob.types(t))
}

func TestVisibilityChangeValidatesMode(t *testing.T) {
	d, ms, _ := newTestDeps()
	ms.SeedUser(&models.User{ID: "alice"})

	err := d.visibilityChange(context.Background(), "alice", frame(t, map[string]any{
		"field":  models.FieldStory,
		"policy": map[string]any{"mode": "bogus"},
	}))
	assert.ErrorIs(t, err, errBadPayload)

	require.NoError(t, d.visibilityChange(context.Background(), "alice", frame(t, map[string]any{
		"field":  models.FieldStory,
		"policy": map[string]any{"mode": models.VisibilityPrivate},
	})))
	u, _ := ms.Stores().Users.Get(context.Background(), "alice")
	assert.Equal(t, models.VisibilityPrivate, u.Visibility.Story.Mode)
}

func TestDeleteAccountCascades(t *testing.T) {
	d, ms, reg := newTestDeps()
	ms.SeedUser(&models.User{
		ID: "alice",
		Connections: []models.Connection{{
			ConnectionID:    "c1",
			InitiatorUserID: "alice",
			TargetUserID:    "bob",
			Status:          models.ConnectionAccepted,
		}},
	})
	ms.SeedUser(&models.User{
		ID: "bob",
		Connections: []models.Connection{{
			ConnectionID:    "c1",
			InitiatorUserID: "alice",
			TargetUserID:    "bob",
			Status:          models.ConnectionAccepted,
		}},
	})
	_, err := ms.Stores().Groups.Create(context.Background(), &models.Group{
		ID:      "g1",
		Members: []string{"alice", "bob"},
		Admins:  []string{"alice", "bob"},
	})
	require.NoError(t, err)
	_, err = ms.Stores().Chats.Insert(context.Background(), &models.Chat{
		CustomID:      "c1",
		SenderID:      "alice",
		ChatType:      models.ChatTypeText,
		ReceiversInfo: []models.ReceiverInfo{{ReceiverID: "bob"}},
	})
	require.NoError(t, err)
	_, err = ms.Stores().Stories.Insert(context.Background(), &models.Story{CustomID: "s1", SenderID: "alice"})
	require.NoError(t, err)
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	require.NoError(t, d.deleteAccount(context.Background(), "alice", nil))

	_, err = ms.Stores().Users.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bobUser, _ := ms.Stores().Users.Get(context.Background(), "bob")
	_, ok := bobUser.ConnectionWith("alice")
	assert.False(t, ok)

	g, _ := ms.Stores().Groups.Get(context.Background(), "g1")
	assert.False(t, g.IsMember("alice"))
	assert.True(t, g.IsPastMember("alice"))

	c, _ := ms.Stores().Chats.GetByCustomID(context.Background(), "c1")
	assert.Contains(t, c.DeletedByUsers, "alice")

	_, err = ms.Stores().Stories.GetByCustomID(context.Background(), "s1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Contains(t, bob.types(t), "delete:user:account")
}

func TestRegisterDispatchEndToEnd(t *testing.T) {
	d, ms, reg := newTestDeps()
	ms.SeedUser(&models.User{ID: "alice"})
	ms.SeedUser(&models.User{ID: "bob"})
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	r := router.New(zap.NewNop().Sugar())
	Register(r, d)

	r.Dispatch(context.Background(), "alice", frame(t, map[string]any{
		"type": "new:chats",
		"newChats": []map[string]any{{
			"customID":      "c1",
			"chatType":      models.ChatTypeText,
			"text":          "hi",
			"receiversInfo": []map[string]any{{"receiverId": "bob"}},
		}},
	}))

	c, err := ms.Stores().Chats.GetByCustomID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", c.SenderID)
	assert.Len(t, bob.frames, 1)
}
