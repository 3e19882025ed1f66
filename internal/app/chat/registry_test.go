package chat

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relayhub/internal/app/user"
	"relayhub/internal/protocol"
)

// newIdleSession builds a session whose pumps never run; registry tests only
// need the struct.
func newIdleSession(t *testing.T, h *Hub) *Session {
	t.Helper()

	serverEnd, clientEnd := net.Pipe()
	t.Cleanup(func() {
		_ = serverEnd.Close()
		_ = clientEnd.Close()
	})

	return NewSession(h, protocol.NewStreamConn(serverEnd, 0))
}

func newBareHub() *Hub {
	return NewHub(Config{NameLimit: 16, ContentLimit: 128, SendInterval: time.Millisecond})
}

func TestRegistryAddRemoveLen(t *testing.T) {
	h := newBareHub()
	r := NewRegistry()

	a := newIdleSession(t, h)
	b := newIdleSession(t, h)

	r.Add(a)
	r.Add(b)
	assert.Equal(t, 2, r.Len())

	assert.True(t, r.Remove(a))
	assert.False(t, r.Remove(a))
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySnapshotPreservesInsertionOrder(t *testing.T) {
	h := newBareHub()
	r := NewRegistry()

	sessions := make([]*Session, 5)
	for i := range sessions {
		sessions[i] = newIdleSession(t, h)
		r.Add(sessions[i])
	}

	snapshot := r.Snapshot()
	require.Len(t, snapshot, len(sessions))
	for i, s := range sessions {
		assert.Same(t, s, snapshot[i])
	}

	// mutating the snapshot must not touch the registry
	snapshot[0] = nil
	assert.Same(t, sessions[0], r.Snapshot()[0])
}

func TestRegistryFindByID(t *testing.T) {
	h := newBareHub()
	r := NewRegistry()

	anon := newIdleSession(t, h)
	named := newIdleSession(t, h)
	named.setUser(user.User{ID: 1234567890, Name: "Alice"})

	r.Add(anon)
	r.Add(named)

	found, ok := r.FindByID(1234567890)
	require.True(t, ok)
	assert.Same(t, named, found)

	_, ok = r.FindByID(42)
	assert.False(t, ok)
}

func TestRegistryRegisteredUsersSkipsUnidentified(t *testing.T) {
	h := newBareHub()
	r := NewRegistry()

	r.Add(newIdleSession(t, h))

	named := newIdleSession(t, h)
	named.setUser(user.User{ID: 1000000001, Name: "Alice"})
	r.Add(named)

	users := r.RegisteredUsers()
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)
}

func TestRegistryConcurrentMutationWithSnapshots(t *testing.T) {
	h := newBareHub()
	r := NewRegistry()

	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			for j := 0; j < 50; j++ {
				s := newIdleSession(t, h)
				s.setUser(user.User{ID: int64(worker*1000 + j), Name: fmt.Sprintf("u%d-%d", worker, j)})

				r.Add(s)
				_ = r.Snapshot()
				_, _ = r.FindByID(int64(worker*1000 + j))
				r.Remove(s)
			}
		}(i)
	}

	wg.Wait()
	assert.Zero(t, r.Len())
}
