//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IRoomRepository interface {
	EnsureRoom(roomID string, at time.Time) (domain.ChatRoom, error)
	GetRoom(roomID string) (domain.ChatRoom, error)
	AddParticipant(roomID, userID, displayName string, at time.Time) (domain.ChatRoom, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

func roomKey(roomID string) []byte {
	return []byte("room:" + roomID)
}

// EnsureRoom creates the room on first use and returns it. The create is
// transactional, so two concurrent first logins produce a single record.
func (r RoomRepository) EnsureRoom(roomID string, at time.Time) (domain.ChatRoom, error) {
	var room domain.ChatRoom
	for {
		err := r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(roomKey(roomID))
			if err == nil {
				return item.Value(func(val []byte) error {
					return json.Unmarshal(val, &room)
				})
			}
			if err != badger.ErrKeyNotFound {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			room = domain.ChatRoom{RoomID: roomID, CreatedAt: at}
			bytes, err := json.Marshal(room)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			return txn.Set(roomKey(roomID), bytes)
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return domain.ChatRoom{}, err
		}
		return room, nil
	}
}

func (r RoomRepository) GetRoom(roomID string) (domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &room)
		})
	})
	if err != nil {
		return domain.ChatRoom{}, err
	}
	return room, nil
}

// AddParticipant adds userID to the room membership. The two-participant
// cap is checked inside the transaction, so interleaved joins can never
// commit a third member.
func (r RoomRepository) AddParticipant(roomID, userID, displayName string, at time.Time) (domain.ChatRoom, error) {
	var room domain.ChatRoom
	for {
		err := r.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(roomKey(roomID))
			if err == badger.ErrKeyNotFound {
				return errors.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			room = domain.ChatRoom{}
			if err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &room)
			}); err != nil {
				return err
			}
			if !room.AddParticipant(userID, displayName, at) {
				return errors.ErrRoomFull
			}
			bytes, err := json.Marshal(room)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			return txn.Set(roomKey(roomID), bytes)
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return domain.ChatRoom{}, err
		}
		return room, nil
	}
}
