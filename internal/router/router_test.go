package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatchRoutesByType(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	var gotSender string
	var gotPayload []byte
	r.Handle("new:chats", func(_ context.Context, senderID string, payload json.RawMessage) error {
		gotSender = senderID
		gotPayload = payload
		return nil
	})

	frame := []byte(`{"type":"new:chats","newChats":[]}`)
	r.Dispatch(context.Background(), "alice", frame)

	assert.Equal(t, "alice", gotSender)
	assert.JSONEq(t, string(frame), string(gotPayload))
}

func TestDispatchDropsMalformedAndUnknown(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	called := false
	r.Handle("new:chats", func(context.Context, string, json.RawMessage) error {
		called = true
		return nil
	})

	r.Dispatch(context.Background(), "alice", []byte(`not json`))
	r.Dispatch(context.Background(), "alice", []byte(`{"no":"type"}`))
	r.Dispatch(context.Background(), "alice", []byte(`{"type":"no:such:event"}`))

	assert.False(t, called)
}

func TestDispatchContainsPanic(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	r.Handle("boom", func(context.Context, string, json.RawMessage) error {
		panic("handler exploded")
	})

	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), "alice", []byte(`{"type":"boom"}`))
	})
}

func TestDispatchSwallowsHandlerError(t *testing.T) {
	r := New(zap.NewNop().Sugar())
	r.Handle("fail", func(context.Context, string, json.RawMessage) error {
		return errors.New("nope")
	})
	r.Dispatch(context.Background(), "alice", []byte(`{"type":"fail"}`))
}
