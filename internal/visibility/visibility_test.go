package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fathima-sithara/realtime-service/internal/models"
)

func TestIsVisibleModes(t *testing.T) {
	tests := []struct {
		name   string
		policy models.FieldPolicy
		viewer string
		want   bool
	}{
		{"public allows anyone", models.FieldPolicy{Mode: models.VisibilityPublic}, "bob", true},
		{"connections allows at policy layer", models.FieldPolicy{Mode: models.VisibilityConnections}, "bob", true},
		{"private denies everyone", models.FieldPolicy{Mode: models.VisibilityPrivate}, "bob", false},
		{"empty mode defaults to allow", models.FieldPolicy{}, "bob", true},
		{
			"included denies unlisted viewer",
			models.FieldPolicy{Mode: models.VisibilityIncluded, ActionedTo: []models.ActionedTo{
				{TargetUserID: "carol", IsIncluded: true},
			}},
			"bob", false,
		},
		{
			"included allows listed viewer",
			models.FieldPolicy{Mode: models.VisibilityIncluded, ActionedTo: []models.ActionedTo{
				{TargetUserID: "bob", IsIncluded: true},
			}},
			"bob", true,
		},
		{
			"included denies listed viewer without flag",
			models.FieldPolicy{Mode: models.VisibilityIncluded, ActionedTo: []models.ActionedTo{
				{TargetUserID: "bob"},
			}},
			"bob", false,
		},
		{
			"excluded allows unlisted viewer",
			models.FieldPolicy{Mode: models.VisibilityExcluded, ActionedTo: []models.ActionedTo{
				{TargetUserID: "carol", IsExcluded: true},
			}},
			"bob", true,
		},
		{
			"excluded denies listed viewer",
			models.FieldPolicy{Mode: models.VisibilityExcluded, ActionedTo: []models.ActionedTo{
				{TargetUserID: "bob", IsExcluded: true},
			}},
			"bob", false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVisible(tt.policy, tt.viewer, nil))
		})
	}
}

func TestIsVisibleBlockedAlwaysDenied(t *testing.T) {
	blocked := []string{"bob"}
	for _, mode := range []string{
		models.VisibilityPublic,
		models.VisibilityConnections,
		models.VisibilityPrivate,
		models.VisibilityIncluded,
		models.VisibilityExcluded,
	} {
		policy := models.FieldPolicy{Mode: mode, ActionedTo: []models.ActionedTo{
			{TargetUserID: "bob", IsIncluded: true},
		}}
		assert.False(t, IsVisible(policy, "bob", blocked), "mode %s", mode)
	}
}

func TestAudience(t *testing.T) {
	conns := []models.Connection{
		{ConnectionID: "c1", InitiatorUserID: "alice", TargetUserID: "bob", Status: models.ConnectionAccepted},
		{ConnectionID: "c2", InitiatorUserID: "carol", TargetUserID: "alice", Status: models.ConnectionAccepted},
		{ConnectionID: "c3", InitiatorUserID: "alice", TargetUserID: "dave", Status: models.ConnectionPending},
	}

	t.Run("pending edges excluded", func(t *testing.T) {
		got := Audience(models.FieldPolicy{Mode: models.VisibilityPublic}, "alice", conns, nil)
		assert.ElementsMatch(t, []string{"bob", "carol"}, got)
	})

	t.Run("blocked peer excluded", func(t *testing.T) {
		got := Audience(models.FieldPolicy{Mode: models.VisibilityPublic}, "alice", conns, []string{"bob"})
		assert.Equal(t, []string{"carol"}, got)
	})

	t.Run("included narrows to listed peers", func(t *testing.T) {
		policy := models.FieldPolicy{Mode: models.VisibilityIncluded, ActionedTo: []models.ActionedTo{
			{TargetUserID: "carol", IsIncluded: true},
		}}
		got := Audience(policy, "alice", conns, nil)
		assert.Equal(t, []string{"carol"}, got)
	})

	t.Run("agrees with IsVisible for every candidate", func(t *testing.T) {
		policy := models.FieldPolicy{Mode: models.VisibilityExcluded, ActionedTo: []models.ActionedTo{
			{TargetUserID: "bob", IsExcluded: true},
		}}
		got := Audience(policy, "alice", conns, nil)
		for _, peer := range got {
			assert.True(t, IsVisible(policy, peer, nil))
		}
		assert.NotContains(t, got, "bob")
	})
}
