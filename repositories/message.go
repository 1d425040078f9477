//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessage(roomID, messageID string) (domain.Message, error)
	UpdateMessage(roomID, messageID string, fn func(*domain.Message) error) (domain.Message, error)
	ListMessages(roomID string, offset, limit int) ([]domain.Message, int, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// Primary keys are formatted as "msg:{room_id}:{timestamp_padded}:{message_id}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the message id as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// A secondary index "msgid:{room_id}:{message_id}" points at the primary key so
// lifecycle operations can locate a message by (roomID, messageID) alone.
func primaryKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.RoomID, m.Timestamp.UnixNano(), m.MessageID))
}

func indexKey(roomID, messageID string) []byte {
	return []byte(fmt.Sprintf("msgid:%s:%s", roomID, messageID))
}

// StoreMessage persists a new message and its lookup index entry in one
// transaction. Message ids are never reused, so a blind write is safe here.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	bytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	pk := primaryKey(message)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(pk, bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(message.RoomID, message.MessageID), pk)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// GetMessage resolves (roomID, messageID) through the index.
func (m MessageRepository) GetMessage(roomID, messageID string) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		return loadMessage(txn, roomID, messageID, &message)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// UpdateMessage applies fn to the stored record inside a single serializable
// Badger transaction. Two concurrent updates to the same message cannot
// clobber each other: the loser commits against the new version or is
// retried on the engine's conflict error. This is the field-targeted
// add/remove-from-set contract every non-create mutation goes through.
func (m MessageRepository) UpdateMessage(roomID, messageID string, fn func(*domain.Message) error) (domain.Message, error) {
	var message domain.Message
	for {
		err := m.db.Update(func(txn *badger.Txn) error {
			message = domain.Message{}
			if err := loadMessage(txn, roomID, messageID, &message); err != nil {
				return err
			}
			if err := fn(&message); err != nil {
				return err
			}
			bytes, err := json.Marshal(message)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			return txn.Set(primaryKey(message), bytes)
		})
		if err == badger.ErrConflict {
			m.log.Debug("Concurrent message update, replaying transaction",
				"room", roomID, "message", messageID)
			continue
		}
		if err != nil {
			return domain.Message{}, err
		}
		return message, nil
	}
}

// ListMessages returns the room's messages in chronological ascending order,
// excluding messages deleted for everyone, plus the total count after that
// filter. Offset and limit are applied after filtering, mirroring the
// request/response fetch contract.
func (m MessageRepository) ListMessages(roomID string, offset, limit int) ([]domain.Message, int, error) {
	var page []domain.Message
	total := 0
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", roomID))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}
			if message.IsDeletedForEveryone {
				continue
			}
			if total >= offset && (limit <= 0 || len(page) < limit) {
				page = append(page, message)
			}
			total++
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return page, total, nil
}

// loadMessage follows index -> primary key -> record within txn.
func loadMessage(txn *badger.Txn, roomID, messageID string, out *domain.Message) error {
	item, err := txn.Get(indexKey(roomID, messageID))
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	var pk []byte
	if err = item.Value(func(val []byte) error {
		pk = append([]byte(nil), val...)
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	item, err = txn.Get(pk)
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return item.Value(func(value []byte) error {
		return json.Unmarshal(value, out)
	})
}
