// Package event defines the typed outbound events fanned out to the live
// connections of a room. Each event knows its wire name and origin room.
package event

import (
	"time"

	"pairchat/domain"
)

// Outbound is a server-to-client event routed by the broadcast router.
type Outbound interface {
	Name() string
	RoomID() string
}

// UserOnline announces a participant holding a live connection.
type UserOnline struct {
	Room     string `json:"-"`
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

func (e UserOnline) Name() string   { return "user:online" }
func (e UserOnline) RoomID() string { return e.Room }

// UserOffline announces a participant whose last connection closed.
type UserOffline struct {
	Room     string `json:"-"`
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

func (e UserOffline) Name() string   { return "user:offline" }
func (e UserOffline) RoomID() string { return e.Room }

// MessageReceived carries a freshly persisted message. The originator
// receives it too; it doubles as the send confirmation.
type MessageReceived struct {
	Room    string         `json:"-"`
	Message domain.Message `json:"message"`
	Status  domain.Status  `json:"status"`

	// Attachment metadata, echoed back for file messages only.
	Filename string `json:"filename,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

func (e MessageReceived) Name() string   { return "message:received" }
func (e MessageReceived) RoomID() string { return e.Room }

// PollUpdated carries the whole poll after a vote.
type PollUpdated struct {
	Room      string       `json:"-"`
	MessageID string       `json:"messageId"`
	Poll      *domain.Poll `json:"poll"`
}

func (e PollUpdated) Name() string   { return "poll:updated" }
func (e PollUpdated) RoomID() string { return e.Room }

// TypingUpdate is the only exclusive fan-out: everyone but the typist.
type TypingUpdate struct {
	Room     string `json:"-"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func (e TypingUpdate) Name() string   { return "typing:update" }
func (e TypingUpdate) RoomID() string { return e.Room }

// ReactionUpdated carries the full reactions mapping after a toggle.
type ReactionUpdated struct {
	Room      string              `json:"-"`
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
	Emoji     string              `json:"emoji"`
	UserID    string              `json:"userId"`
}

func (e ReactionUpdated) Name() string   { return "reaction:updated" }
func (e ReactionUpdated) RoomID() string { return e.Room }

// MessagesRead is the read receipt for a batch of messages.
type MessagesRead struct {
	Room       string   `json:"-"`
	UserID     string   `json:"userId"`
	MessageIDs []string `json:"messageIds"`
}

func (e MessagesRead) Name() string   { return "message:read" }
func (e MessagesRead) RoomID() string { return e.Room }

// MessageEdited carries the new content of an edited message.
type MessageEdited struct {
	Room      string    `json:"-"`
	MessageID string    `json:"messageId"`
	Content   string    `json:"content"`
	IsEdited  bool      `json:"isEdited"`
	EditedAt  time.Time `json:"editedAt"`
}

func (e MessageEdited) Name() string   { return "message:edited" }
func (e MessageEdited) RoomID() string { return e.Room }

// MessageDeleted announces a deletion. DeletedFor is either "everyone" or
// the userID that soft-deleted; Message is set for hard deletes only so
// clients can render the placeholder.
type MessageDeleted struct {
	Room       string          `json:"-"`
	MessageID  string          `json:"messageId"`
	DeletedFor string          `json:"deletedFor"`
	Message    *domain.Message `json:"message,omitempty"`
}

func (e MessageDeleted) Name() string   { return "message:deleted" }
func (e MessageDeleted) RoomID() string { return e.Room }

// Error is sent only to the originating connection, never fanned out.
type Error struct {
	Room    string `json:"-"`
	Message string `json:"message"`
}

func (e Error) Name() string   { return "error" }
func (e Error) RoomID() string { return e.Room }
