// Package registry tracks live websocket connections. State is ephemeral
// and rebuilt from scratch on process start; presence is derived from live
// sockets, never from storage.
package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Sink receives marshaled frames for one socket. Implemented by the ws
// client's buffered send channel.
type Sink interface {
	UserID() string
	Send(frame []byte) bool
}

// Registry maps a user to zero or more live sockets (multi-device).
type Registry struct {
	mu      sync.RWMutex
	clients map[string]map[Sink]bool // userID -> live sinks
	rdb     *redis.Client            // optional presence mirror, may be nil
	prefix  string
}

func New(rdb *redis.Client, prefix string) *Registry {
	return &Registry{
		clients: make(map[string]map[Sink]bool),
		rdb:     rdb,
		prefix:  prefix,
	}
}

func (r *Registry) presenceKey(userID string) string {
	return r.prefix + ":presence:" + userID
}

// Register adds a socket for the user.
func (r *Registry) Register(c Sink) {
	r.mu.Lock()
	if r.clients[c.UserID()] == nil {
		r.clients[c.UserID()] = make(map[Sink]bool)
	}
	r.clients[c.UserID()][c] = true
	r.mu.Unlock()

	metrics.ConnectionsGauge.Inc()
	if r.rdb != nil {
		_ = r.rdb.Set(context.Background(), r.presenceKey(c.UserID()), "online", 60*time.Second).Err()
	}
}

// Unregister drops a socket. The presence mirror key is cleared once the
// user has no sockets left.
func (r *Registry) Unregister(c Sink) {
	r.mu.Lock()
	if sinks, ok := r.clients[c.UserID()]; ok {
		delete(sinks, c)
		if len(sinks) == 0 {
			delete(r.clients, c.UserID())
		}
	}
	gone := r.clients[c.UserID()] == nil
	r.mu.Unlock()

	metrics.ConnectionsGauge.Dec()
	if gone && r.rdb != nil {
		_ = r.rdb.Del(context.Background(), r.presenceKey(c.UserID())).Err()
	}
}

// IsOnline reports whether the user has at least one live socket.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients[userID]) > 0
}

// OnlineUserIDs returns the de-duplicated set of registered user IDs.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for uid := range r.clients {
		out = append(out, uid)
	}
	return out
}

// SendTo pushes one event to every live socket of the user. The outbound
// frame is {"type": eventType, dataName: payload}; dataName may be empty
// when the event carries no payload. A user with no sockets is a no-op.
func (r *Registry) SendTo(userID, eventType, dataName string, payload any) {
	frame := map[string]any{"type": eventType}
	if dataName != "" {
		frame[dataName] = payload
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}

	r.mu.RLock()
	sinks := make([]Sink, 0, len(r.clients[userID]))
	for c := range r.clients[userID] {
		sinks = append(sinks, c)
	}
	r.mu.RUnlock()

	for _, c := range sinks {
		if c.Send(b) {
			metrics.PushesTotal.WithLabelValues(eventType).Inc()
		}
	}
}
