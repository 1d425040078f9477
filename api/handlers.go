package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/services"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
)

var validate = validator.New()

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sendMessagePayload struct {
	Content    string `json:"content" validate:"required"`
	Type       string `json:"type"`
	SenderName string `json:"senderName"`
	ReplyToID  string `json:"replyToId"`
}

type reactionPayload struct {
	Emoji string `json:"emoji" validate:"required"`
}

// handleHealth reports liveness plus self stats for the process, so a
// probe can tell a wedged instance from a healthy one.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			body["ramBytes"] = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			body["cpuPercent"] = cpuPercent
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.authSvc.Login(payload.Username, payload.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  result.Token,
		"user":   result.User,
		"room":   result.Room,
		"roomId": result.RoomID,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.authorizeRoom(w, r)
	if !ok {
		return
	}
	room, err := s.chat.Room(roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Presence is read per participant so the response carries current
	// online flags, not the values frozen at join time.
	members := make([]domain.User, 0, len(room.Participants))
	for _, participant := range room.Participants {
		if user, err := s.users.GetUser(participant.UserID); err == nil {
			members = append(members, user)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"room": room, "members": members})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.authorizeRoom(w, r)
	if !ok {
		return
	}
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 100)
	// A zero limit would lift the cap entirely at the store level.
	if limit < 1 {
		limit = 100
	}
	messages, total, err := s.chat.ListMessages(roomID, offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"total":    total,
		"offset":   offset,
		"limit":    limit,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.authorizeRoom(w, r)
	if !ok {
		return
	}
	var payload sendMessagePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	claims := claimsFrom(r)
	message, err := s.chat.CreateMessage(services.CreateMessageCommand{
		RoomID:     roomID,
		SenderID:   claims.UserID,
		SenderName: payload.SenderName,
		Type:       domain.MessageType(payload.Type),
		Content:    payload.Content,
		ReplyToID:  payload.ReplyToID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcast.Broadcast(event.MessageReceived{Room: roomID, Message: message, Status: message.Status})
	writeJSON(w, http.StatusCreated, map[string]any{"message": message})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.authorizeRoom(w, r)
	if !ok {
		return
	}
	messageID := mux.Vars(r)["messageId"]
	claims := claimsFrom(r)

	if r.URL.Query().Get("deleteForEveryone") == "true" {
		message, err := s.chat.DeleteForEveryone(roomID, messageID, claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.broadcast.Broadcast(event.MessageDeleted{
			Room:       roomID,
			MessageID:  messageID,
			DeletedFor: "everyone",
			Message:    &message,
		})
		writeJSON(w, http.StatusOK, map[string]any{"message": message})
		return
	}

	if _, err := s.chat.DeleteForSelf(roomID, messageID, claims.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcast.Broadcast(event.MessageDeleted{
		Room:       roomID,
		MessageID:  messageID,
		DeletedFor: claims.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleUpdateReactions(w http.ResponseWriter, r *http.Request) {
	roomID, ok := s.authorizeRoom(w, r)
	if !ok {
		return
	}
	var payload reactionPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	messageID := mux.Vars(r)["messageId"]
	claims := claimsFrom(r)
	reactions, err := s.reactions.Toggle(roomID, messageID, claims.UserID, payload.Emoji)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcast.Broadcast(event.ReactionUpdated{
		Room:      roomID,
		MessageID: messageID,
		Reactions: reactions,
		Emoji:     payload.Emoji,
		UserID:    claims.UserID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"reactions": reactions})
}

// authorizeRoom checks the token was issued for the room in the path. A
// valid token for another room gets 403, not 404, so a misconfigured
// client can tell the difference.
func (s *Server) authorizeRoom(w http.ResponseWriter, r *http.Request) (string, bool) {
	roomID := mux.Vars(r)["roomId"]
	claims := claimsFrom(r)
	if claims == nil || claims.RoomID != roomID {
		writeError(w, http.StatusForbidden, "token not valid for this room")
		return "", false
	}
	return roomID, true
}

func decodeBody(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return err
	}
	return validate.Struct(out)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
