package hub

import (
	"sync"
	"testing"

	"pairchat/domain/event"

	"github.com/stretchr/testify/require"
)

func TestDeliver_After_Shutdown_Drops_Event(t *testing.T) {
	req := require.New(t)
	session := testSession("room-1", "bob")
	session.shutdown()

	req.NotPanics(func() {
		session.Deliver(event.TypingUpdate{Room: "room-1", UserID: "alice", IsTyping: true})
	})
}

func TestDeliver_Concurrent_With_Shutdown(t *testing.T) {
	req := require.New(t)
	session := testSession("room-1", "bob")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Deliver(event.TypingUpdate{Room: "room-1", UserID: "alice", IsTyping: true})
		}()
	}
	req.NotPanics(session.shutdown)
	wg.Wait()
}

func TestShutdown_Releases_Write_Pump(t *testing.T) {
	req := require.New(t)
	session := testSession("room-1", "bob")
	session.Deliver(event.TypingUpdate{Room: "room-1", UserID: "alice", IsTyping: true})
	session.shutdown()

	// Queued frames stay readable, then the closed channel ends the range.
	count := 0
	for range session.send {
		count++
	}
	req.Equal(1, count)
}
