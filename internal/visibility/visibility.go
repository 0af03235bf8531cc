// Package visibility evaluates per-field privacy policy. It is a pure
// function of (policy, actionedTo, blockedUsers, viewer); all I/O stays at
// the call sites.
package visibility

import "github.com/fathima-sithara/realtime-service/internal/models"

// IsVisible decides whether a single viewer may observe the owner's field.
// A blocked viewer is always denied regardless of mode. "connections" is
// treated as allow here; call sites restrict the candidate audience to
// accepted connections where the mode requires it.
func IsVisible(policy models.FieldPolicy, viewerID string, ownerBlocked []string) bool {
	for _, b := range ownerBlocked {
		if b == viewerID {
			return false
		}
	}
	switch policy.Mode {
	case models.VisibilityPrivate:
		return false
	case models.VisibilityIncluded:
		for _, a := range policy.ActionedTo {
			if a.TargetUserID == viewerID {
				return a.IsIncluded
			}
		}
		return false
	case models.VisibilityExcluded:
		for _, a := range policy.ActionedTo {
			if a.TargetUserID == viewerID {
				return !a.IsExcluded
			}
		}
		return true
	default: // public, connections
		return true
	}
}

// Audience enumerates the accepted connection peers allowed to observe the
// field. Used by the push fan-out after a profile field changes; for any
// candidate peer the result agrees with IsVisible by construction.
func Audience(policy models.FieldPolicy, ownerID string, ownerConnections []models.Connection, ownerBlocked []string) []string {
	var out []string
	for _, c := range ownerConnections {
		if c.Status != models.ConnectionAccepted {
			continue
		}
		peer := c.PeerOf(ownerID)
		if peer == ownerID {
			continue
		}
		if IsVisible(policy, peer, ownerBlocked) {
			out = append(out, peer)
		}
	}
	return out
}
