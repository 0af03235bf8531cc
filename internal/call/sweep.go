package call

import (
	"context"
	"time"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/fanout"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/registry"
	"github.com/fathima-sithara/realtime-service/internal/repository"
	"github.com/fathima-sithara/realtime-service/internal/visibility"
	"go.uber.org/zap"
)

// Sweeper reconciles presence-derived state after a connection closes:
// stale activeStatus values and calls stuck by a vanished party.
type Sweeper struct {
	store *repository.Store
	reg   *registry.Registry
	log   *zap.SugaredLogger
}

func NewSweeper(store *repository.Store, reg *registry.Registry, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{store: store, reg: reg, log: log}
}

// Run executes one sweep. Called synchronously on every connection close.
func (s *Sweeper) Run(ctx context.Context) {
	online := make(map[string]bool)
	for _, uid := range s.reg.OnlineUserIDs() {
		online[uid] = true
	}
	now := time.Now().UTC()
	s.reconcileActiveStatus(ctx, online, now)
	s.resolveStuckCalls(ctx, online, now)
}

// reconcileActiveStatus stamps a last-seen time on every user whose stored
// status still reads online but who has no live socket, and publishes the
// change through the activeStatus policy audience.
func (s *Sweeper) reconcileActiveStatus(ctx context.Context, online map[string]bool, now time.Time) {
	stale, err := s.store.Users.FindOnline(ctx)
	if err != nil {
		s.log.Errorw("find online users", "err", err)
		return
	}
	for _, u := range stale {
		if online[u.ID] {
			continue
		}
		stamp := now.Format(time.RFC3339)
		if err := s.store.Users.SetActiveStatus(ctx, u.ID, stamp); err != nil {
			s.log.Errorw("stamp active status", "user", u.ID, "err", err)
			continue
		}
		audience := visibility.Audience(u.Visibility.ActiveStatus, u.ID, u.Connections, u.BlockedUsers)
		fanout.Broadcast(s.reg, audience, events.UserProfileInfoChange, "profileInfo",
			map[string]any{"userId": u.ID, "activeStatus": stamp})
	}
}

// resolveStuckCalls force-resolves calls whose progress depends on a party
// that went offline.
func (s *Sweeper) resolveStuckCalls(ctx context.Context, online map[string]bool, now time.Time) {
	calls, err := s.store.Calls.FindUnresolved(ctx)
	if err != nil {
		s.log.Errorw("find unresolved calls", "err", err)
		return
	}
	for _, c := range calls {
		switch c.Status {
		case models.CallStatusCalling, models.CallStatusRinging:
			if online[c.CallerID] {
				continue
			}
			ring := now.Sub(c.CallingTime)
			if err := s.store.Calls.SetStatus(ctx, c.CustomID, models.CallStatusMissedCall, 0, ring, now); err != nil {
				s.log.Errorw("force missed call", "customId", c.CustomID, "err", err)
				continue
			}
			if !c.DeletedBy(c.CalleeID) {
				s.reg.SendTo(c.CalleeID, events.CallEnded, "call", map[string]any{
					"customID":     c.CustomID,
					"status":       models.CallStatusMissedCall,
					"ringDuration": ring,
				})
			}
		case models.CallStatusAccepted:
			if online[c.CallerID] && online[c.CalleeID] {
				continue
			}
			callDur := now.Sub(c.UpdatedAt)
			ringDur := c.UpdatedAt.Sub(c.CallingTime)
			if err := s.store.Calls.SetStatus(ctx, c.CustomID, models.CallStatusEnded, callDur, ringDur, now); err != nil {
				s.log.Errorw("force ended call", "customId", c.CustomID, "err", err)
				continue
			}
			payload := map[string]any{
				"customID":     c.CustomID,
				"status":       models.CallStatusEnded,
				"callDuration": callDur,
				"ringDuration": ringDur,
			}
			// whichever party is still around learns the call is over
			for _, uid := range []string{c.CallerID, c.CalleeID} {
				if online[uid] && !c.DeletedBy(uid) {
					s.reg.SendTo(uid, events.CallEnded, "call", payload)
				}
			}
		}
	}
}
