// Package services implements the message lifecycle engine: every mutation
// of persisted chat state, from the socket layer or the REST layer, goes
// through exactly one of these operations. There is no parallel code path.
package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// CreateMessageCommand carries everything needed to accept a new message.
type CreateMessageCommand struct {
	RoomID     string
	SenderID   string
	SenderName string
	Type       domain.MessageType
	Content    string
	Duration   int    // seconds, voice/audio only
	MediaURL   string // original filename, attachments only
	ReplyToID  string // messageID being replied to, optional
}

type IChatService interface {
	CreateMessage(cmd CreateMessageCommand) (domain.Message, error)
	MarkRead(roomID, readerID string, messageIDs []string) error
	EditMessage(roomID, messageID, editorID, newContent string) (domain.Message, error)
	DeleteForSelf(roomID, messageID, requesterID string) (domain.Message, error)
	DeleteForEveryone(roomID, messageID, requesterID string) (domain.Message, error)
	ListMessages(roomID string, offset, limit int) ([]domain.Message, int, error)
	Room(roomID string) (domain.ChatRoom, error)
}

type ChatService struct {
	messages repositories.IMessageRepository
	rooms    repositories.IRoomRepository
	log      *slog.Logger
}

func NewChatService(messages repositories.IMessageRepository,
	rooms repositories.IRoomRepository, log *slog.Logger) *ChatService {
	return &ChatService{messages: messages, rooms: rooms, log: log}
}

// CreateMessage validates the payload, assigns a fresh id and timestamp,
// resolves the reply snapshot once, and persists with status Delivered:
// in a two-party room, delivery means accepted and persisted by the
// server, not acknowledged by the peer's network.
func (s *ChatService) CreateMessage(cmd CreateMessageCommand) (domain.Message, error) {
	content := cmd.Content
	if cmd.Type == domain.TypeText || cmd.Type == "" {
		content = strings.TrimSpace(content)
	}
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: message content cannot be empty", errors.ErrValidation)
	}

	messageType := cmd.Type
	if messageType == "" {
		messageType = domain.TypeText
	}

	message := domain.Message{
		MessageID:  uuid.NewString(),
		RoomID:     cmd.RoomID,
		SenderID:   cmd.SenderID,
		SenderName: lo.CoalesceOrEmpty(cmd.SenderName, cmd.SenderID),
		Content:    content,
		Type:       messageType,
		Duration:   cmd.Duration,
		MediaURL:   cmd.MediaURL,
		Status:     domain.StatusDelivered,
		ReadBy:     []string{},
		Timestamp:  time.Now().UTC(),
	}

	// The reply reference is a snapshot captured now; later edits or
	// deletions of the quoted message never rewrite it.
	if cmd.ReplyToID != "" {
		if original, err := s.messages.GetMessage(cmd.RoomID, cmd.ReplyToID); err == nil {
			message.ReplyTo = &domain.ReplyRef{
				MessageID:  original.MessageID,
				Content:    original.Content,
				SenderName: lo.CoalesceOrEmpty(original.SenderName, original.SenderID),
			}
		}
	}

	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	s.log.Debug("Message accepted", "room", cmd.RoomID, "message", message.MessageID, "type", messageType)
	return message, nil
}

// MarkRead adds readerID to the readBy set of each listed message and
// promotes the status to Read once readBy is non-empty. A sender cannot
// mark their own message read; ids that no longer resolve are skipped, as
// is an empty batch.
func (s *ChatService) MarkRead(roomID, readerID string, messageIDs []string) error {
	for _, messageID := range messageIDs {
		_, err := s.messages.UpdateMessage(roomID, messageID, func(m *domain.Message) error {
			if m.SenderID == readerID {
				return nil
			}
			if !lo.Contains(m.ReadBy, readerID) {
				m.ReadBy = append(m.ReadBy, readerID)
			}
			if len(m.ReadBy) > 0 {
				m.Status = domain.StatusRead
			}
			return nil
		})
		if err == errors.ErrNotFound {
			s.log.Debug("Read receipt for unknown message, skipping", "room", roomID, "message", messageID)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EditMessage replaces the content, archiving the current version first.
// Only the sender may edit; there is no time limit and no edit count cap.
func (s *ChatService) EditMessage(roomID, messageID, editorID, newContent string) (domain.Message, error) {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return domain.Message{}, fmt.Errorf("%w: new content cannot be empty", errors.ErrValidation)
	}
	return s.messages.UpdateMessage(roomID, messageID, func(m *domain.Message) error {
		if m.SenderID != editorID {
			return fmt.Errorf("%w: only the sender can edit a message", errors.ErrUnauthorized)
		}
		if m.IsDeletedForEveryone {
			return fmt.Errorf("%w: message was deleted", errors.ErrValidation)
		}
		now := time.Now().UTC()
		m.EditHistory = append(m.EditHistory, domain.EditRecord{Content: m.Content, EditedAt: now})
		m.Content = newContent
		m.IsEdited = true
		m.EditedAt = &now
		return nil
	})
}

// DeleteForSelf hides the message from the requester's own view only.
// Repeat calls are no-ops.
func (s *ChatService) DeleteForSelf(roomID, messageID, requesterID string) (domain.Message, error) {
	return s.messages.UpdateMessage(roomID, messageID, func(m *domain.Message) error {
		if m.SenderID != requesterID {
			return fmt.Errorf("%w: only the sender can delete a message", errors.ErrUnauthorized)
		}
		if !lo.Contains(m.DeletedFor, requesterID) {
			m.DeletedFor = append(m.DeletedFor, requesterID)
		}
		return nil
	})
}

// DeleteForEveryone irreversibly scrubs the content down to the fixed
// placeholder. The original content, including the edit history that
// carries prior versions of it, is discarded for good.
func (s *ChatService) DeleteForEveryone(roomID, messageID, requesterID string) (domain.Message, error) {
	return s.messages.UpdateMessage(roomID, messageID, func(m *domain.Message) error {
		if m.SenderID != requesterID {
			return fmt.Errorf("%w: only the sender can delete a message", errors.ErrUnauthorized)
		}
		m.IsDeletedForEveryone = true
		m.Content = domain.DeletedPlaceholder
		m.EditHistory = nil
		return nil
	})
}

// ListMessages is the paginated chronological fetch backing the REST
// surface: ascending by timestamp, hard-deleted messages excluded.
func (s *ChatService) ListMessages(roomID string, offset, limit int) ([]domain.Message, int, error) {
	if _, err := s.rooms.GetRoom(roomID); err != nil {
		return nil, 0, err
	}
	return s.messages.ListMessages(roomID, offset, limit)
}

func (s *ChatService) Room(roomID string) (domain.ChatRoom, error) {
	return s.rooms.GetRoom(roomID)
}
