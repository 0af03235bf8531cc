package handlers

import (
	"context"
	"encoding/json"

	"github.com/fathima-sithara/realtime-service/internal/story"
)

func (d *Deps) newStories(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		NewStories []story.Draft `json:"newStories"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.NewStories == nil {
		return errBadPayload
	}
	return d.Stories.Submit(ctx, senderID, body.NewStories)
}

func (d *Deps) storyWatching(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomID string `json:"customID"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomID == "" {
		return errBadPayload
	}
	return d.Stories.Watch(ctx, senderID, body.CustomID)
}

func (d *Deps) removeStoriesSome(ctx context.Context, senderID string, payload json.RawMessage) error {
	var body struct {
		CustomIDs []string `json:"customIDs"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.CustomIDs == nil {
		return errBadPayload
	}
	return d.Stories.RemoveSome(ctx, senderID, body.CustomIDs)
}

func (d *Deps) removeStoriesAll(ctx context.Context, senderID string, _ json.RawMessage) error {
	return d.Stories.RemoveAll(ctx, senderID)
}
