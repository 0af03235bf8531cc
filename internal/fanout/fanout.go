// Package fanout is the shared eligibility+push primitive used by the chat,
// story and profile-change notification paths.
package fanout

import "github.com/fathima-sithara/realtime-service/internal/registry"

// Shaper produces the per-receiver outbound frame. Returning ok=false skips
// the receiver silently; a skipped receiver is indistinguishable from one
// that does not exist.
type Shaper func(receiverID string) (eventType, dataName string, payload any, ok bool)

// Push shapes and delivers one logical event to each receiver. Receivers are
// independent: one skip never affects the rest of the batch.
func Push(reg *registry.Registry, receiverIDs []string, shape Shaper) {
	seen := make(map[string]bool, len(receiverIDs))
	for _, rid := range receiverIDs {
		if seen[rid] {
			continue
		}
		seen[rid] = true
		eventType, dataName, payload, ok := shape(rid)
		if !ok {
			continue
		}
		reg.SendTo(rid, eventType, dataName, payload)
	}
}

// Broadcast pushes the same frame to every receiver.
func Broadcast(reg *registry.Registry, receiverIDs []string, eventType, dataName string, payload any) {
	Push(reg, receiverIDs, func(string) (string, string, any, bool) {
		return eventType, dataName, payload, true
	})
}
