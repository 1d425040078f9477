package services

import (
	"fmt"
	"log/slog"
	"time"

	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IPollService interface {
	CreatePoll(roomID, creatorID, creatorName, question string, options []string) (domain.Message, error)
	Vote(roomID, messageID, voterID string, optionIndex int) (*domain.Poll, error)
}

// PollService embeds polls into messages and enforces the single active
// vote per user.
type PollService struct {
	messages repositories.IMessageRepository
	log      *slog.Logger
}

func NewPollService(messages repositories.IMessageRepository, log *slog.Logger) *PollService {
	return &PollService{messages: messages, log: log}
}

// CreatePoll builds a poll message with empty vote sets. A question and at
// least two options are required.
func (s *PollService) CreatePoll(roomID, creatorID, creatorName, question string, options []string) (domain.Message, error) {
	if question == "" || len(options) < 2 {
		return domain.Message{}, fmt.Errorf("%w: poll needs a question and at least 2 options", errors.ErrValidation)
	}
	now := time.Now().UTC()
	poll := &domain.Poll{
		PollID:   uuid.NewString(),
		Question: question,
		Options: lo.Map(options, func(text string, _ int) domain.PollOption {
			return domain.PollOption{Text: text, Votes: []string{}}
		}),
		CreatedBy: creatorID,
		CreatedAt: now,
	}
	message := domain.Message{
		MessageID:  uuid.NewString(),
		RoomID:     roomID,
		SenderID:   creatorID,
		SenderName: lo.CoalesceOrEmpty(creatorName, creatorID),
		Content:    question,
		Type:       domain.TypePoll,
		Poll:       poll,
		Status:     domain.StatusDelivered,
		ReadBy:     []string{},
		Timestamp:  now,
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	s.log.Debug("Poll created", "room", roomID, "poll", poll.PollID)
	return message, nil
}

// Vote reassigns voterID to the option at optionIndex. The removal from
// every other option and the addition to the target run as one store
// transaction, so a rapid double vote can never leave two memberships.
func (s *PollService) Vote(roomID, messageID, voterID string, optionIndex int) (*domain.Poll, error) {
	updated, err := s.messages.UpdateMessage(roomID, messageID, func(m *domain.Message) error {
		if m.Type != domain.TypePoll || m.Poll == nil {
			return fmt.Errorf("%w: poll", errors.ErrNotFound)
		}
		if !m.Poll.CastVote(voterID, optionIndex) {
			return fmt.Errorf("%w: option index %d out of range", errors.ErrValidation, optionIndex)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Poll, nil
}
