package handlers

import (
	"context"
	"encoding/json"

	"github.com/fathima-sithara/realtime-service/internal/models"
	"github.com/fathima-sithara/realtime-service/internal/router"
)

func (d *Deps) makeNewCall(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CallInfo models.Call `json:"callInfo"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CallInfo.CalleeID == "" {
		return errBadPayload
	}
	return d.Calls.NewCall(ctx, senderID, body.CallInfo)
}

func (d *Deps) callAccepted(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomID string `json:"customID"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomID == "" {
		return errBadPayload
	}
	return d.Calls.Accept(ctx, senderID, body.CustomID)
}

func (d *Deps) callRejected(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomID string `json:"customID"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomID == "" {
		return errBadPayload
	}
	return d.Calls.Reject(ctx, senderID, body.CustomID)
}

func (d *Deps) callEnded(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomID string `json:"customID"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomID == "" {
		return errBadPayload
	}
	return d.Calls.End(ctx, senderID, body.CustomID)
}

// callRelay builds a pass-through handler for in-call control events. The
// signaler forwards the payload untouched to the peer.
func (d *Deps) callRelay(eventType string) router.HandlerFunc {
	return func(ctx context.Context, senderID string, payload json.RawMessage) error {
		var body map[string]any
		if err := json.Unmarshal(payload, &body); err != nil {
			return errBadPayload
		}
		customID, _ := body["customID"].(string)
		if customID == "" {
			return errBadPayload
		}
		delete(body, "type")
		return d.Calls.Relay(ctx, senderID, eventType, customID, body)
	}
}

func (d *Deps) deleteCalls(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomIDs []string `json:"customIDs"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomIDs == nil {
		return errBadPayload
	}
	return d.Calls.DeleteCalls(ctx, senderID, body.CustomIDs)
}
