// Package call manages the lifecycle of a single call between two parties
// and relays WebRTC negotiation events.
package call

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Signaler struct {
	store *repository.Store
	reg   *registry.Registry
	log   *zap.SugaredLogger
}

func NewSignaler(store *repository.Store, reg *registry.Registry, log *zap.SugaredLogger) *Signaler {
	return &Signaler{store: store, reg: reg, log: log}
}

// NewCall records the call and rings the callee when possible. A call across
// a blocking relationship stays in the caller's history but is never
// delivered to the blocked callee.
func (s *Signaler) NewCall(ctx context.Context, callerID string, c models.Call) error {
	c.CallerID = callerID
	if c.CustomID == "" {
		c.CustomID = uuid.NewString()
	}
	if c.CallingTime.IsZero() {
		c.CallingTime = time.Now().UTC()
	}

	caller, err := s.store.Users.Get(ctx, callerID)
	if err != nil {
		return err
	}
	callee, err := s.store.Users.Get(ctx, c.CalleeID)
	if err != nil {
		return err
	}

	blocked := caller.HasBlocked(callee.ID) || callee.HasBlocked(caller.ID)
	switch {
	case blocked:
		c.Status = models.CallStatusCalling
		c.DeletedByUsers = []string{callee.ID}
	case s.reg.IsOnline(callee.ID):
		c.Status = models.CallStatusRinging
	default:
		c.Status = models.CallStatusCalling
	}

	if err := s.store.Calls.Insert(ctx, &c); err != nil {
		return err
	}
	s.reg.SendTo(callerID, events.MakeNewCall, "call", &c)
	if c.Status == models.CallStatusRinging {
		s.reg.SendTo(callee.ID, events.MakeNewCall, "call", &c)
	}
	return nil
}

// Accept transitions ringing -> accepted and relays to the caller.
func (s *Signaler) Accept(ctx context.Context, actorID, customID string) error {
	c, err := s.store.Calls.GetByCustomID(ctx, customID)
	if err != nil {
		return err
	}
	if c.CalleeID != actorID || c.Status != models.CallStatusRinging {
		return nil
	}
	now := time.Now().UTC()
	if err := s.store.Calls.SetStatus(ctx, customID, models.CallStatusAccepted, 0, 0, now); err != nil {
		return err
	}
	_ = s.store.Calls.SetSeenByCallee(ctx, customID)
	s.reg.SendTo(c.CallerID, events.CallAccepted, "call", map[string]any{"customID": customID})
	return nil
}

// Reject persists the terminal status with ring timing and relays to the
// caller only.
func (s *Signaler) Reject(ctx context.Context, actorID, customID string) error {
	c, err := s.store.Calls.GetByCustomID(ctx, customID)
	if err != nil {
		return err
	}
	if c.CalleeID != actorID {
		return nil
	}
	now := time.Now().UTC()
	ring := now.Sub(c.CallingTime)
	if err := s.store.Calls.SetStatus(ctx, customID, models.CallStatusRejected, 0, ring, now); err != nil {
		return err
	}
	_ = s.store.Calls.SetSeenByCallee(ctx, customID)
	s.reg.SendTo(c.CallerID, events.CallRejected, "call", map[string]any{
		"customID":     customID,
		"ringDuration": ring,
	})
	return nil
}

// End persists call and ring durations and relays to the counterpart. The
// accept transition stamped updatedAt, so callDuration = now - lastUpdate
// and ringDuration = lastUpdate - callingTime.
func (s *Signaler) End(ctx context.Context, actorID, customID string) error {
	c, err := s.store.Calls.GetByCustomID(ctx, customID)
	if err != nil {
		return err
	}
	if c.CallerID != actorID && c.CalleeID != actorID {
		return nil
	}
	now := time.Now().UTC()
	var callDur, ringDur time.Duration
	if c.Status == models.CallStatusAccepted {
		callDur = now.Sub(c.UpdatedAt)
		ringDur = c.UpdatedAt.Sub(c.CallingTime)
	} else {
		ringDur = now.Sub(c.CallingTime)
	}
	if err := s.store.Calls.SetStatus(ctx, customID, models.CallStatusEnded, callDur, ringDur, now); err != nil {
		return err
	}
	peer := c.PeerOf(actorID)
	if !c.DeletedBy(peer) {
		s.reg.SendTo(peer, events.CallEnded, "call", map[string]any{
			"customID":     customID,
			"status":       models.CallStatusEnded,
			"callDuration": callDur,
			"ringDuration": ringDur,
		})
	}
	return nil
}

// Relay passes a signaling event to the counterpart without touching call
// state. Used for audio/video toggles, renegotiation and busy signals.
func (s *Signaler) Relay(ctx context.Context, actorID, eventType, customID string, payload map[string]any) error {
	c, err := s.store.Calls.GetByCustomID(ctx, customID)
	if err != nil {
		return err
	}
	if c.CallerID != actorID && c.CalleeID != actorID {
		return nil
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["customID"] = customID
	payload["from"] = actorID
	s.reg.SendTo(c.PeerOf(actorID), eventType, "signal", payload)
	return nil
}

// DeleteCalls soft-deletes each call from the actor's history, erasing the
// record once both parties have deleted it.
func (s *Signaler) DeleteCalls(ctx context.Context, actorID string, customIDs []string) error {
	for _, id := range customIDs {
		if err := s.store.Calls.SoftDelete(ctx, id, actorID); err != nil {
			s.log.Debugw("call soft delete", "customId", id, "err", err)
			continue
		}
		if _, err := s.store.Calls.DeleteIfAllPartiesDeleted(ctx, id); err != nil {
			s.log.Errorw("call delete convergence", "customId", id, "err", err)
			continue
		}
		s.reg.SendTo(actorID, events.DeleteCalls, "deletedCalls", []string{id})
	}
	return nil
}
