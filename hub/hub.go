// Package hub is the live-connection surface: it upgrades WebSockets,
// binds each connection to a (roomId, userId) session, and routes the
// inbound event protocol into the lifecycle engine. Broadcasts happen
// only after the corresponding persistence write fully succeeded.
package hub

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/repositories"
	"pairchat/services"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

var validate = validator.New()

type Hub struct {
	presence  contract.IPresence
	router    contract.IRouter
	chat      services.IChatService
	reactions services.IReactionService
	polls     services.IPollService
	users     repositories.IUserRepository
	upgrader  websocket.Upgrader
	log       *slog.Logger
}

func NewHub(presence contract.IPresence, router contract.IRouter,
	chat services.IChatService, reactions services.IReactionService,
	polls services.IPollService, users repositories.IUserRepository,
	log *slog.Logger) *Hub {
	return &Hub{
		presence:  presence,
		router:    router,
		chat:      chat,
		reactions: reactions,
		polls:     polls,
		users:     users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeWS is the connection handshake. Both roomId and userId are
// required; a request missing either is terminated before any event is
// exchanged.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	userID := r.URL.Query().Get("userId")
	if roomID == "" || userID == "" {
		http.Error(w, "roomId and userId are required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "err", err)
		return
	}

	session := newSession(h, conn, roomID, userID, h.log)
	members, err := h.presence.Join(roomID, userID, session)
	if err != nil {
		h.log.Info("Join rejected", "room", roomID, "user", userID, "err", err)
		_ = conn.WriteJSON(Envelope{Event: "error", Data: mustJSON(event.Error{Message: err.Error()})})
		_ = conn.Close()
		return
	}

	if err := h.users.SetPresence(userID, true, time.Now().UTC()); err != nil {
		h.log.Warn("Failed to persist online status", "user", userID, "err", err)
	}

	// Everyone currently in the room is announced, not just the joiner,
	// so a late-connecting peer learns about both sides at once.
	for _, member := range members {
		h.router.Broadcast(event.UserOnline{Room: roomID, UserID: member, IsOnline: true})
	}

	h.log.Info("Connection established", "room", roomID, "user", userID, "members", len(members))
	go session.writePump()
	go session.readPump()
}

// disconnect runs when a session's read loop ends. Presence is cleared
// only if this exact connection is still the registered one; a stale
// disconnect after a reconnect must not mark the user offline.
func (h *Hub) disconnect(s *Session) {
	if !h.presence.Leave(s.RoomID, s.UserID, s) {
		h.log.Debug("Stale disconnect ignored", "room", s.RoomID, "user", s.UserID)
		return
	}
	if err := h.users.SetPresence(s.UserID, false, time.Now().UTC()); err != nil {
		h.log.Warn("Failed to persist offline status", "user", s.UserID, "err", err)
	}
	h.router.Broadcast(event.UserOffline{Room: s.RoomID, UserID: s.UserID})
	h.log.Info("Connection closed", "room", s.RoomID, "user", s.UserID)
}

// dispatch routes one inbound frame. Failures of any kind are terminal
// for that single request and reported to the originator only.
func (h *Hub) dispatch(s *Session, envelope Envelope) {
	var err error
	switch envelope.Event {
	case "message:send":
		err = h.handleSendMessage(s, envelope.Data)
	case "voice:send":
		err = h.handleSendVoice(s, envelope.Data)
	case "attachment:send":
		err = h.handleSendAttachment(s, envelope.Data)
	case "poll:create":
		err = h.handleCreatePoll(s, envelope.Data)
	case "poll:vote":
		err = h.handleVotePoll(s, envelope.Data)
	case "typing:update":
		err = h.handleTyping(s, envelope.Data)
	case "reaction:add":
		err = h.handleReaction(s, envelope.Data)
	case "message:read":
		err = h.handleRead(s, envelope.Data)
	case "message:edit":
		err = h.handleEdit(s, envelope.Data)
	case "message:delete":
		err = h.handleDelete(s, envelope.Data)
	default:
		err = fmt.Errorf("unknown event: %s", envelope.Event)
	}
	if err != nil {
		h.log.Debug("Request failed", "event", envelope.Event, "user", s.UserID, "err", err)
		s.deliverError(err.Error())
	}
}

func (h *Hub) handleSendMessage(s *Session, data json.RawMessage) error {
	var payload sendMessagePayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	cmd := services.CreateMessageCommand{
		RoomID:     s.RoomID,
		SenderID:   s.UserID,
		SenderName: payload.SenderName,
		Type:       domain.MessageType(payload.Type),
		Content:    payload.Content,
	}
	if payload.ReplyTo != nil {
		cmd.ReplyToID = payload.ReplyTo.MessageID
	}
	message, err := h.chat.CreateMessage(cmd)
	if err != nil {
		return err
	}
	h.router.Broadcast(event.MessageReceived{Room: s.RoomID, Message: message, Status: message.Status})
	return nil
}

func (h *Hub) handleSendVoice(s *Session, data json.RawMessage) error {
	var payload sendVoicePayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	message, err := h.chat.CreateMessage(services.CreateMessageCommand{
		RoomID:     s.RoomID,
		SenderID:   s.UserID,
		SenderName: payload.SenderName,
		Type:       domain.TypeVoice,
		Content:    payload.AudioBase64,
		Duration:   payload.Duration,
	})
	if err != nil {
		return err
	}
	h.router.Broadcast(event.MessageReceived{Room: s.RoomID, Message: message, Status: message.Status})
	return nil
}

func (h *Hub) handleSendAttachment(s *Session, data json.RawMessage) error {
	var payload sendAttachmentPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	message, err := h.chat.CreateMessage(services.CreateMessageCommand{
		RoomID:     s.RoomID,
		SenderID:   s.UserID,
		SenderName: payload.SenderName,
		Type:       attachmentType(payload.FileType, payload.FileBase64),
		Content:    payload.FileBase64,
		MediaURL:   payload.Filename,
	})
	if err != nil {
		return err
	}
	h.router.Broadcast(event.MessageReceived{
		Room:     s.RoomID,
		Message:  message,
		Status:   message.Status,
		Filename: payload.Filename,
		FileType: payload.FileType,
		FileSize: payload.FileSize,
	})
	return nil
}

func (h *Hub) handleCreatePoll(s *Session, data json.RawMessage) error {
	var payload createPollPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	message, err := h.polls.CreatePoll(s.RoomID, s.UserID, "", payload.Question, payload.Options)
	if err != nil {
		return err
	}
	h.router.Broadcast(event.MessageReceived{Room: s.RoomID, Message: message, Status: message.Status})
	return nil
}

func (h *Hub) handleVotePoll(s *Session, data json.RawMessage) error {
	var payload votePollPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	poll, err := h.polls.Vote(s.RoomID, payload.MessageID, s.UserID, payload.OptionIndex)
	if err != nil {
		return err
	}
	h.router.Broadcast(event.PollUpdated{Room: s.RoomID, MessageID: payload.MessageID, Poll: poll})
	return nil
}

func (h *Hub) handleTyping(s *Session, data json.RawMessage) error {
	var payload typingPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	// Typing is transient and the only exclusive fan-out: the typist
	// never hears their own indicator.
	h.router.BroadcastExcept(event.TypingUpdate{
		Room: s.RoomID, UserID: s.UserID, IsTyping: payload.IsTyping,
	}, s.UserID)
	return nil
}

func (h *Hub) handleReaction(s *Session, data json.RawMessage) error {
	var payload addReactionPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	reactions, err := h.reactions.Toggle(s.RoomID, payload.MessageID, s.UserID, payload.Emoji)
	if err != nil {
		return err
	}
	h.router.Broadcast(event.ReactionUpdated{
		Room:      s.RoomID,
		MessageID: payload.MessageID,
		Reactions: reactions,
		Emoji:     payload.Emoji,
		UserID:    s.UserID,
	})
	return nil
}

func (h *Hub) handleRead(s *Session, data json.RawMessage) error {
	var payload readPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	if len(payload.MessageIDs) == 0 {
		return nil
	}
	if err := h.chat.MarkRead(s.RoomID, s.UserID, payload.MessageIDs); err != nil {
		return err
	}
	h.router.Broadcast(event.MessagesRead{Room: s.RoomID, UserID: s.UserID, MessageIDs: payload.MessageIDs})
	return nil
}

func (h *Hub) handleEdit(s *Session, data json.RawMessage) error {
	var payload editMessagePayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	message, err := h.chat.EditMessage(s.RoomID, payload.MessageID, s.UserID, payload.NewContent)
	if err != nil {
		return err
	}
	h.router.Broadcast(event.MessageEdited{
		Room:      s.RoomID,
		MessageID: message.MessageID,
		Content:   message.Content,
		IsEdited:  message.IsEdited,
		EditedAt:  *message.EditedAt,
	})
	return nil
}

func (h *Hub) handleDelete(s *Session, data json.RawMessage) error {
	var payload deleteMessagePayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	if payload.DeleteForEveryone {
		message, err := h.chat.DeleteForEveryone(s.RoomID, payload.MessageID, s.UserID)
		if err != nil {
			return err
		}
		h.router.Broadcast(event.MessageDeleted{
			Room:       s.RoomID,
			MessageID:  payload.MessageID,
			DeletedFor: "everyone",
			Message:    &message,
		})
		return nil
	}
	if _, err := h.chat.DeleteForSelf(s.RoomID, payload.MessageID, s.UserID); err != nil {
		return err
	}
	h.router.Broadcast(event.MessageDeleted{
		Room:       s.RoomID,
		MessageID:  payload.MessageID,
		DeletedFor: s.UserID,
	})
	return nil
}

// decode unmarshals and validates an inbound payload.
func decode(data json.RawMessage, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// attachmentType infers the message type from the declared MIME type, or
// sniffs the decoded bytes when the client did not declare one.
func attachmentType(fileType, fileBase64 string) domain.MessageType {
	if fileType != "" {
		return domain.InferAttachmentType(fileType)
	}
	raw := fileBase64
	if idx := strings.Index(raw, ","); idx != -1 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+1:]
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return domain.TypeFile
	}
	return domain.InferAttachmentType(mimetype.Detect(decoded).String())
}

func mustJSON(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
