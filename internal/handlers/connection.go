package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fathima-sithara/realtime-service/internal/events"
	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/google/uuid"
)

var errBadPayload = errors.New("malformed payload")

// connectionRequests creates pending edges initiated by the sender and
// notifies each target.
func (d *Deps) connectionRequests(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		ConnectionInfos []models.Connection `json:"connectionInfos"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.ConnectionInfos == nil {
		return errBadPayload
	}
	for _, edge := range body.ConnectionInfos {
		edge.InitiatorUserID = senderID
		edge.Status = models.ConnectionPending
		if edge.ConnectionID == "" {
			edge.ConnectionID = uuid.NewString()
		}
		if edge.TargetUserID == "" || edge.TargetUserID == senderID {
			continue
		}
		target, err := d.Store.Users.Get(ctx, edge.TargetUserID)
		if err != nil {
			continue
		}
		sender, err := d.Store.Users.Get(ctx, senderID)
		if err != nil {
			return err
		}
		// a blocked pair never learns a request was attempted
		if sender.HasBlocked(target.ID) || target.HasBlocked(senderID) {
			continue
		}
		if err := d.Store.Users.AddConnection(ctx, edge); err != nil {
			d.Log.Debugw("connection request rejected", "connectionId", edge.ConnectionID, "err", err)
			continue
		}
		d.Reg.SendTo(edge.TargetUserID, events.ConnectionsRequests, "connectionInfos", []models.Connection{edge})
		d.Reg.SendTo(senderID, events.ConnectionsRequests, "connectionInfos", []models.Connection{edge})
	}
	return nil
}

// connectionsAccepted flips pending edges to accepted and notifies the
// initiator.
func (d *Deps) connectionsAccepted(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		ConnectionIDs []string `json:"connectionIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.ConnectionIDs == nil {
		return errBadPayload
	}
	sender, err := d.Store.Users.Get(ctx, senderID)
	if err != nil {
		return err
	}
	for _, id := range body.ConnectionIDs {
		var edge *models.Connection
		for i := range sender.Connections {
			if sender.Connections[i].ConnectionID == id {
				edge = &sender.Connections[i]
				break
			}
		}
		// only the target of a pending request may accept it
		if edge == nil || edge.TargetUserID != senderID || edge.Status != models.ConnectionPending {
			continue
		}
		if err := d.Store.Users.AcceptConnection(ctx, id); err != nil {
			d.Log.Errorw("accept connection", "connectionId", id, "err", err)
			continue
		}
		accepted := *edge
		accepted.Status = models.ConnectionAccepted
		d.Reg.SendTo(edge.InitiatorUserID, events.ConnectionsAccepted, "connectionInfos", []models.Connection{accepted})
		d.Reg.SendTo(senderID, events.ConnectionsAccepted, "connectionInfos", []models.Connection{accepted})
	}
	return nil
}

// removeConnections drops edges; the notification goes to the counterpart,
// routed by the preserved initiator tag.
func (d *Deps) removeConnections(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		ConnectionIDs []string `json:"connectionIds"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.ConnectionIDs == nil {
		return errBadPayload
	}
	sender, err := d.Store.Users.Get(ctx, senderID)
	if err != nil {
		return err
	}
	for _, id := range body.ConnectionIDs {
		held := false
		for _, c := range sender.Connections {
			if c.ConnectionID == id {
				held = true
				break
			}
		}
		if !held {
			continue
		}
		edge, err := d.Store.Users.RemoveConnection(ctx, id)
		if err != nil {
			d.Log.Debugw("remove connection", "connectionId", id, "err", err)
			continue
		}
		d.Reg.SendTo(edge.PeerOf(senderID), events.RemoveConnections, "connectionInfos", []models.Connection{edge})
		d.Reg.SendTo(senderID, events.RemoveConnections, "connectionInfos", []models.Connection{edge})
	}
	return nil
}
