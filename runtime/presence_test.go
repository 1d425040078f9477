package runtime

import (
	"sync"
	"testing"

	"pairchat/domain/event"
	"pairchat/errors"

	"github.com/stretchr/testify/require"
)

// fakeConn records delivered events for assertions.
type fakeConn struct {
	mu     sync.Mutex
	events []event.Outbound
}

func (c *fakeConn) Deliver(e event.Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *fakeConn) delivered() []event.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Outbound(nil), c.events...)
}

func TestPresence_Join_Returns_Members(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	members, err := presence.Join("room-1", "alice", &fakeConn{})
	req.NoError(err)
	req.Equal([]string{"alice"}, members)

	members, err = presence.Join("room-1", "bob", &fakeConn{})
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, members)
}

func TestPresence_Third_User_Rejected(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	_, err := presence.Join("room-1", "alice", &fakeConn{})
	req.NoError(err)
	_, err = presence.Join("room-1", "bob", &fakeConn{})
	req.NoError(err)

	_, err = presence.Join("room-1", "carol", &fakeConn{})
	req.ErrorIs(err, errors.ErrRoomFull)
	req.Equal([]string{"alice", "bob"}, presence.Members("room-1"))
}

func TestPresence_Reconnect_Replaces_Connection(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	oldConn := &fakeConn{}
	newConn := &fakeConn{}
	_, err := presence.Join("room-1", "alice", oldConn)
	req.NoError(err)
	_, err = presence.Join("room-1", "alice", newConn)
	req.NoError(err)

	// The stale disconnect of the replaced connection must be a no-op.
	req.False(presence.Leave("room-1", "alice", oldConn))
	req.Equal([]string{"alice"}, presence.Members("room-1"))

	// The current connection still disconnects normally.
	req.True(presence.Leave("room-1", "alice", newConn))
	req.Empty(presence.Members("room-1"))
}

func TestPresence_Concurrent_Joins_Respect_Cap(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	users := []string{"u1", "u2", "u3", "u4", "u5"}
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, _ = presence.Join("room-1", u, &fakeConn{})
		}(u)
	}
	wg.Wait()

	req.LessOrEqual(len(presence.Members("room-1")), 2)
}

func TestPresence_Rooms_Are_Independent(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceRegistry()

	_, err := presence.Join("room-1", "alice", &fakeConn{})
	req.NoError(err)
	_, err = presence.Join("room-2", "alice", &fakeConn{})
	req.NoError(err)

	req.Equal([]string{"alice"}, presence.Members("room-1"))
	req.Equal([]string{"alice"}, presence.Members("room-2"))
}
