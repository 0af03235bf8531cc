package call

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository/memory"
)

func TestSweepStampsStaleActiveStatus(t *testing.T) {
	ms := memory.New()
	reg := registry.New(nil, "test")
	sw := NewSweeper(ms.Stores(), reg, zap.NewNop().Sugar())

	ms.SeedUser(&models.User{
		ID:           "alice", // stored online, but no live socket
		ActiveStatus: models.ActiveStatusOnline,
		Connections: []models.Connection{{
			ConnectionID:    "c1",
			InitiatorUserID: "alice",
			TargetUserID:    "bob",
			Status:          models.ConnectionAccepted,
		}},
	})
	ms.SeedUser(&models.User{ID: "bob", ActiveStatus: models.ActiveStatusOnline})
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	sw.Run(context.Background())

	alice, err := ms.Stores().Users.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, models.ActiveStatusOnline, alice.ActiveStatus)
	_, err = time.Parse(time.RFC3339, alice.ActiveStatus)
	assert.NoError(t, err, "stale status replaced with a last-seen timestamp")

	// bob still has a socket, his status stays online
	bobUser, err := ms.Stores().Users.Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, models.ActiveStatusOnline, bobUser.ActiveStatus)

	// the change reached the policy audience
	require.Len(t, bob.frames, 1)
	frame := bob.lastFrame(t)
	assert.Equal(t, "user:profileInfo:change", frame["type"])
}

func TestSweepRespectsActiveStatusPolicy(t *testing.T) {
	ms := memory.New()
	reg := registry.New(nil, "test")
	sw := NewSweeper(ms.Stores(), reg, zap.NewNop().Sugar())

	ms.SeedUser(&models.User{
		ID:           "alice",
		ActiveStatus: models.ActiveStatusOnline,
		Connections: []models.Connection{{
			ConnectionID:    "c1",
			InitiatorUserID: "alice",
			TargetUserID:    "bob",
			Status:          models.ConnectionAccepted,
		}},
		Visibility: models.Visibility{
			ActiveStatus: models.FieldPolicy{Mode: models.VisibilityPrivate},
		},
	})
	ms.SeedUser(&models.User{ID: "bob"})
	bob := &recSink{userID: "bob"}
	reg.Register(bob)

	sw.Run(context.Background())

	alice, err := ms.Stores().Users.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, models.ActiveStatusOnline, alice.ActiveStatus)
	assert.Empty(t, bob.frames, "private policy hides the last-seen stamp")
}
