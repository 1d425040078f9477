package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testMessage(roomID, senderID, content string, at time.Time) domain.Message {
	return domain.Message{
		MessageID:  uuid.NewString(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderID,
		Content:    content,
		Type:       domain.TypeText,
		Status:     domain.StatusDelivered,
		Timestamp:  at,
	}
}

func Test_Store_And_Get_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	message := testMessage("room-1", "alice", "hello", time.Now().UTC())
	req.NoError(repository.StoreMessage(message))

	fetched, err := repository.GetMessage("room-1", message.MessageID)
	req.NoError(err)
	req.Equal(message.Content, fetched.Content)
	req.Equal(domain.StatusDelivered, fetched.Status)
}

func Test_Get_Message_Unknown_Id(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	_, err := repository.GetMessage("room-1", uuid.NewString())
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_List_Messages_Chronological_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	var ids []string
	for i := 0; i < 5; i++ {
		message := testMessage("room-1", "alice", fmt.Sprintf("msg %d", i), at.Add(time.Duration(i)*time.Minute))
		ids = append(ids, message.MessageID)
		req.NoError(repository.StoreMessage(message))
	}
	// A message in another room must not leak into the listing.
	req.NoError(repository.StoreMessage(testMessage("room-2", "bob", "elsewhere", at)))

	messages, total, err := repository.ListMessages("room-1", 0, 100)
	req.NoError(err)
	req.Equal(5, total)
	req.Len(messages, 5)
	for i, message := range messages {
		req.Equal(ids[i], message.MessageID)
	}
}

func Test_List_Messages_Offset_And_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	for i := 0; i < 10; i++ {
		req.NoError(repository.StoreMessage(
			testMessage("room-1", "alice", fmt.Sprintf("msg %d", i), at.Add(time.Duration(i)*time.Second))))
	}

	messages, total, err := repository.ListMessages("room-1", 4, 3)
	req.NoError(err)
	req.Equal(10, total)
	req.Len(messages, 3)
	req.Equal("msg 4", messages[0].Content)
	req.Equal("msg 6", messages[2].Content)
}

func Test_List_Messages_Excludes_Hard_Deleted(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	kept := testMessage("room-1", "alice", "kept", at)
	gone := testMessage("room-1", "alice", "gone", at.Add(time.Second))
	req.NoError(repository.StoreMessage(kept))
	req.NoError(repository.StoreMessage(gone))

	_, err := repository.UpdateMessage("room-1", gone.MessageID, func(m *domain.Message) error {
		m.IsDeletedForEveryone = true
		m.Content = domain.DeletedPlaceholder
		return nil
	})
	req.NoError(err)

	messages, total, err := repository.ListMessages("room-1", 0, 100)
	req.NoError(err)
	req.Equal(1, total)
	req.Len(messages, 1)
	req.Equal(kept.MessageID, messages[0].MessageID)
}

func Test_Update_Message_Applies_Mutation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	message := testMessage("room-1", "alice", "hello", time.Now().UTC())
	req.NoError(repository.StoreMessage(message))

	updated, err := repository.UpdateMessage("room-1", message.MessageID, func(m *domain.Message) error {
		m.ReadBy = append(m.ReadBy, "bob")
		m.Status = domain.StatusRead
		return nil
	})
	req.NoError(err)
	req.Equal([]string{"bob"}, updated.ReadBy)

	fetched, err := repository.GetMessage("room-1", message.MessageID)
	req.NoError(err)
	req.Equal(domain.StatusRead, fetched.Status)
}

func Test_Update_Message_Error_Leaves_Record_Untouched(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	message := testMessage("room-1", "alice", "hello", time.Now().UTC())
	req.NoError(repository.StoreMessage(message))

	_, err := repository.UpdateMessage("room-1", message.MessageID, func(m *domain.Message) error {
		m.Content = "should never be stored"
		return errors.ErrUnauthorized
	})
	req.ErrorIs(err, errors.ErrUnauthorized)

	fetched, err := repository.GetMessage("room-1", message.MessageID)
	req.NoError(err)
	req.Equal("hello", fetched.Content)
}

func Test_Concurrent_Updates_Do_Not_Clobber(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	message := testMessage("room-1", "alice", "hello", time.Now().UTC())
	req.NoError(repository.StoreMessage(message))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reader := fmt.Sprintf("reader-%d", i)
			_, err := repository.UpdateMessage("room-1", message.MessageID, func(m *domain.Message) error {
				m.ReadBy = append(m.ReadBy, reader)
				return nil
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	fetched, err := repository.GetMessage("room-1", message.MessageID)
	req.NoError(err)
	req.Len(fetched.ReadBy, writers)
}
