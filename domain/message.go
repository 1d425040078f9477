// Package domain contains core concepts of the chat system.
// This file defines Message records and the rules governing their lifecycle.
// Transitions are applied by the services layer through atomic store operations.
package domain

import (
	"strings"
	"time"
)

// MessageType discriminates the payload carried by a message.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeVideo MessageType = "video"
	TypeAudio MessageType = "audio"
	TypeVoice MessageType = "voice"
	TypeFile  MessageType = "file"
	TypePoll  MessageType = "poll"
)

// Status is the single scalar delivery stage of a message.
// It only ever moves forward: Sent -> Delivered -> Read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// DeletedPlaceholder replaces the content of a message deleted for everyone.
// The original content is discarded and never recoverable.
const DeletedPlaceholder = "[This message was deleted]"

// ReplyRef is an immutable snapshot of the replied-to message,
// captured once at send time and never re-resolved.
type ReplyRef struct {
	MessageID  string `json:"messageId"`
	Content    string `json:"content"`
	SenderName string `json:"senderName"`
}

// EditRecord is one prior version of an edited message.
type EditRecord struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"editedAt"`
}

// Message is a persisted chat event. Reactions map an emoji to the set of
// userIDs holding it; an emoji disappears from the map once its set empties.
type Message struct {
	MessageID  string      `json:"messageId"`
	RoomID     string      `json:"roomId"`
	SenderID   string      `json:"senderId"`
	SenderName string      `json:"senderName"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`

	// Duration in seconds, voice and audio messages only.
	Duration int `json:"duration,omitempty"`
	// MediaURL holds the original filename for attachments.
	MediaURL string `json:"mediaUrl,omitempty"`

	Poll    *Poll     `json:"poll,omitempty"`
	ReplyTo *ReplyRef `json:"replyTo,omitempty"`

	Status    Status              `json:"status"`
	ReadBy    []string            `json:"readBy"`
	Reactions map[string][]string `json:"reactions,omitempty"`

	DeletedFor           []string `json:"deletedFor,omitempty"`
	IsDeletedForEveryone bool     `json:"isDeletedForEveryone"`

	IsEdited    bool         `json:"isEdited"`
	EditedAt    *time.Time   `json:"editedAt,omitempty"`
	EditHistory []EditRecord `json:"editHistory,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// InferAttachmentType maps a MIME content type onto the message type used
// for attachments. Anything that is not image/video/audio is a plain file.
func InferAttachmentType(contentType string) MessageType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return TypeImage
	case strings.HasPrefix(contentType, "video/"):
		return TypeVideo
	case strings.HasPrefix(contentType, "audio/"):
		return TypeAudio
	default:
		return TypeFile
	}
}
