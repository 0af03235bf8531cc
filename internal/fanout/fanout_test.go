package fanout

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fathima-sithara/realtime-service/internal/registry"
)

type fakeSink struct {
	userID string
	mu     sync.Mutex
	frames [][]byte
}

func (s *fakeSink) UserID() string { return s.userID }

func (s *fakeSink) Send(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return true
}

func TestPushDeduplicatesReceivers(t *testing.T) {
	reg := registry.New(nil, "test")
	a := &fakeSink{userID: "alice"}
	reg.Register(a)

	Push(reg, []string{"alice", "alice", "alice"}, func(string) (string, string, any, bool) {
		return "new:chats", "newChats", nil, true
	})
	assert.Len(t, a.frames, 1)
}

func TestPushSkipsNotOK(t *testing.T) {
	reg := registry.New(nil, "test")
	a := &fakeSink{userID: "alice"}
	b := &fakeSink{userID: "bob"}
	reg.Register(a)
	reg.Register(b)

	Push(reg, []string{"alice", "bob"}, func(rid string) (string, string, any, bool) {
		if rid == "alice" {
			return "", "", nil, false
		}
		return "new:chats", "newChats", nil, true
	})
	assert.Empty(t, a.frames)
	assert.Len(t, b.frames, 1)
}

func TestBroadcast(t *testing.T) {
	reg := registry.New(nil, "test")
	a := &fakeSink{userID: "alice"}
	b := &fakeSink{userID: "bob"}
	reg.Register(a)
	reg.Register(b)

	Broadcast(reg, []string{"alice", "bob", "offline"}, "user:block", "blockedUserId", "x")
	assert.Len(t, a.frames, 1)
	assert.Len(t, b.frames, 1)
}
