// Package router dispatches inbound event envelopes to their handlers: a
// flat table keyed by event type. Unknown types are logged and dropped;
// handler panics are contained at this boundary and never take down the
// connection or the process.
package router

import (
	"context"
	"encoding/json"

	"github.com/fathima-sithara/realtime-service/internal/metrics"
	"go.uber.org/zap"
)

// HandlerFunc processes one decoded event for the authenticated sender.
type HandlerFunc func(ctx context.Context, senderID string, payload json.RawMessage) error

type Router struct {
	handlers map[string]HandlerFunc
	log      *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Router {
	return &Router{handlers: make(map[string]HandlerFunc), log: log}
}

// Handle registers the handler for one event type. Exactly one handler per
// type; a second registration replaces the first.
func (r *Router) Handle(eventType string, h HandlerFunc) {
	r.handlers[eventType] = h
}

type envelope struct {
	Type string `json:"type"`
}

// Dispatch routes one raw frame. It runs the handler to completion before
// returning, so each connection processes its events strictly in order.
func (r *Router) Dispatch(ctx context.Context, senderID string, frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil || env.Type == "" {
		r.log.Debugw("malformed frame dropped", "user", senderID)
		return
	}
	h, ok := r.handlers[env.Type]
	if !ok {
		r.log.Warnw("unknown event type dropped", "type", env.Type, "user", senderID)
		return
	}
	metrics.EventsTotal.WithLabelValues(env.Type).Inc()

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("handler panic", "type", env.Type, "user", senderID, "panic", rec)
		}
	}()
	if err := h(ctx, senderID, frame); err != nil {
		r.log.Errorw("handler error", "type", env.Type, "user", senderID, "err", err)
	}
}
