//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"pairchat/domain"
	"pairchat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	UpsertUser(userID, displayName string, at time.Time) (domain.User, error)
	GetUser(userID string) (domain.User, error)
	SetPresence(userID string, online bool, at time.Time) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func userKey(userID string) []byte {
	return []byte("user:" + userID)
}

// UpsertUser lazily creates the user on first authenticated join and
// refreshes displayName and lastSeen on subsequent logins.
func (u UserRepository) UpsertUser(userID, displayName string, at time.Time) (domain.User, error) {
	var user domain.User
	for {
		err := u.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(userKey(userID))
			switch err {
			case nil:
				if err = item.Value(func(val []byte) error {
					return json.Unmarshal(val, &user)
				}); err != nil {
					return err
				}
				user.DisplayName = displayName
			case badger.ErrKeyNotFound:
				user = domain.User{
					UserID:      userID,
					DisplayName: displayName,
					CreatedAt:   at,
				}
			default:
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			user.IsOnline = true
			user.LastSeen = at
			bytes, err := json.Marshal(user)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			return txn.Set(userKey(userID), bytes)
		})
		if err == badger.ErrConflict {
			continue
		}
		if err != nil {
			return domain.User{}, err
		}
		return user, nil
	}
}

func (u UserRepository) GetUser(userID string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SetPresence records connect/disconnect transitions. Unknown users are a
// no-op: presence is transient and rebuilt from live connections anyway.
func (u UserRepository) SetPresence(userID string, online bool, at time.Time) error {
	for {
		err := u.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(userKey(userID))
			if err == badger.ErrKeyNotFound {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			var user domain.User
			if err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return err
			}
			user.IsOnline = online
			user.LastSeen = at
			bytes, err := json.Marshal(user)
			if err != nil {
				return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			return txn.Set(userKey(userID), bytes)
		})
		if err == badger.ErrConflict {
			continue
		}
		return err
	}
}
