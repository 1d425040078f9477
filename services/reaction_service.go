package services

import (
	"log/slog"

	"pairchat/domain"
	"pairchat/repositories"

	"github.com/samber/lo"
)

type IReactionService interface {
	Toggle(roomID, messageID, userID, emoji string) (map[string][]string, error)
}

// ReactionService keeps the per-message emoji ledger. Emojis are
// independent: a user may hold reactions under several emojis on the same
// message at once.
type ReactionService struct {
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func NewReactionService(messages repositories.IMessageRepository, log *slog.Logger) *ReactionService {
	return &ReactionService{messages: messages, log: log}
}

// Toggle flips userID's membership in the reactor set of emoji and returns
// the full updated mapping for broadcast. The add/remove runs inside a
// single store transaction, so two recipients toggling concurrently never
// clobber each other, and a toggle pair is always its own inverse.
func (s *ReactionService) Toggle(roomID, messageID, userID, emoji string) (map[string][]string, error) {
	updated, err := s.messages.UpdateMessage(roomID, messageID, func(m *domain.Message) error {
		if m.Reactions == nil {
			m.Reactions = make(map[string][]string)
		}
		reactors := m.Reactions[emoji]
		if lo.Contains(reactors, userID) {
			reactors = lo.Without(reactors, userID)
		} else {
			reactors = append(reactors, userID)
		}
		if len(reactors) == 0 {
			delete(m.Reactions, emoji)
		} else {
			m.Reactions[emoji] = reactors
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.Reactions == nil {
		return map[string][]string{}, nil
	}
	return updated.Reactions, nil
}
