package repositories

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"pairchat/errors"

	"github.com/stretchr/testify/require"
)

func Test_EnsureRoom_Creates_Once(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	at := time.Now().UTC()
	room, err := repository.EnsureRoom("room-1", at)
	req.NoError(err)
	req.Equal("room-1", room.RoomID)

	later, err := repository.EnsureRoom("room-1", at.Add(time.Hour))
	req.NoError(err)
	req.Equal(room.CreatedAt, later.CreatedAt)
}

func Test_AddParticipant_Caps_At_Two(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	at := time.Now().UTC()
	_, err := repository.EnsureRoom("room-1", at)
	req.NoError(err)

	_, err = repository.AddParticipant("room-1", "alice", "Alice", at)
	req.NoError(err)
	room, err := repository.AddParticipant("room-1", "bob", "Bob", at)
	req.NoError(err)
	req.Len(room.Participants, 2)

	_, err = repository.AddParticipant("room-1", "carol", "Carol", at)
	req.ErrorIs(err, errors.ErrRoomFull)

	// Re-adding an existing member stays a no-op.
	room, err = repository.AddParticipant("room-1", "alice", "Alice", at)
	req.NoError(err)
	req.Len(room.Participants, 2)
}

func Test_AddParticipant_Concurrent_Joins_Never_Exceed_Cap(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	at := time.Now().UTC()
	_, err := repository.EnsureRoom("room-1", at)
	req.NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			_, _ = repository.AddParticipant("room-1", userID, userID, at)
		}(i)
	}
	wg.Wait()

	room, err := repository.GetRoom("room-1")
	req.NoError(err)
	req.Len(room.Participants, 2)
}

func Test_GetRoom_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	_, err := repository.GetRoom("missing")
	req.ErrorIs(err, errors.ErrNotFound)
}
