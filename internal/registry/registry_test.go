package registry

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestRegisterUnregister(t *testing.T) {
	r := New(nil, "test")
	a := &fakeSink{userID: "alice"}

	assert.False(t, r.IsOnline("alice"))
	r.Register(a)
	assert.True(t, r.IsOnline("alice"))
	r.Unregister(a)
	assert.False(t, r.IsOnline("alice"))
}

func TestMultiDevice(t *testing.T) {
	r := New(nil, "test")
	phone := &fakeSink{userID: "alice"}
	laptop := &fakeSink{userID: "alice"}
	r.Register(phone)
	r.Register(laptop)

	r.SendTo("alice", "new:chats", "newChats", []string{"x"})
	assert.Equal(t, 1, phone.count())
	assert.Equal(t, 1, laptop.count())

	// user stays online until the last socket drops
	r.Unregister(phone)
	assert.True(t, r.IsOnline("alice"))
	r.Unregister(laptop)
	assert.False(t, r.IsOnline("alice"))
}

func TestOnlineUserIDsDeduplicated(t *testing.T) {
	r := New(nil, "test")
	r.Register(&fakeSink{userID: "alice"})
	r.Register(&fakeSink{userID: "alice"})
	r.Register(&fakeSink{userID: "bob"})

	assert.ElementsMatch(t, []string{"alice", "bob"}, r.OnlineUserIDs())
}

func TestSendToFrameShape(t *testing.T) {
	r := New(nil, "test")
	a := &fakeSink{userID: "alice"}
	r.Register(a)

	r.SendTo("alice", "user:block", "blockedUserId", "bob")
	require.Equal(t, 1, a.count())

	var frame map[string]any
	require.NoError(t, json.Unmarshal(a.frames[0], &frame))
	assert.Equal(t, "user:block", frame["type"])
	assert.Equal(t, "bob", frame["blockedUserId"])
}

func TestSendToEmptyDataName(t *testing.T) {
	r := New(nil, "test")
	a := &fakeSink{userID: "alice"}
	r.Register(a)

	r.SendTo("alice", "remove:stories:all", "", nil)
	require.Equal(t, 1, a.count())

	var frame map[string]any
	require.NoError(t, json.Unmarshal(a.frames[0], &frame))
	assert.Len(t, frame, 1)
	assert.Equal(t, "remove:stories:all", frame["type"])
}

func TestSendToOfflineUserIsNoop(t *testing.T) {
	r := New(nil, "test")
	r.SendTo("ghost", "new:chats", "newChats", nil)
}
