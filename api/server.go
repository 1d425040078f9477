// Package api is the request/response surface. Every mutation goes
// through the same service operations as the live socket path; the REST
// layer adds routing, auth, and response shaping on top.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pairchat/auth"
	"pairchat/contract"
	"pairchat/errors"
	"pairchat/hub"
	"pairchat/repositories"
	"pairchat/services"

	"github.com/gorilla/mux"
)

type contextKey string

const claimsKey contextKey = "claims"

type Server struct {
	router    *mux.Router
	authSvc   services.IAuthService
	chat      services.IChatService
	reactions services.IReactionService
	users     repositories.IUserRepository
	broadcast contract.IRouter
	started   time.Time
	log       *slog.Logger
}

func NewServer(authSvc services.IAuthService, chat services.IChatService,
	reactions services.IReactionService, users repositories.IUserRepository,
	broadcast contract.IRouter, ws *hub.Hub, log *slog.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		authSvc:   authSvc,
		chat:      chat,
		reactions: reactions,
		users:     users,
		broadcast: broadcast,
		started:   time.Now().UTC(),
		log:       log,
	}

	s.router.Use(privacyHeaders)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", ws.ServeWS)

	chatRoutes := s.router.PathPrefix("/api/chat").Subrouter()
	chatRoutes.Use(s.requireToken)
	chatRoutes.HandleFunc("/{roomId}", s.handleGetRoom).Methods(http.MethodGet)
	chatRoutes.HandleFunc("/{roomId}/messages", s.handleGetMessages).Methods(http.MethodGet)
	chatRoutes.HandleFunc("/{roomId}/messages", s.handleSendMessage).Methods(http.MethodPost)
	chatRoutes.HandleFunc("/{roomId}/messages/{messageId}", s.handleDeleteMessage).Methods(http.MethodDelete)
	chatRoutes.HandleFunc("/{roomId}/messages/{messageId}/reactions", s.handleUpdateReactions).Methods(http.MethodPut)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// privacyHeaders prevents intermediaries and browsers from storing chat
// history.
func privacyHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// requireToken rejects chat requests without a valid Bearer token and
// exposes the claims to handlers.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func claimsFrom(r *http.Request) *auth.CustomClaims {
	claims, _ := r.Context().Value(claimsKey).(*auth.CustomClaims)
	return claims
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func isKind(err, target error) bool {
	return stderrors.Is(err, target)
}

// writeServiceError maps the engine's error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case isKind(err, errors.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case isKind(err, errors.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case isKind(err, errors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case isKind(err, errors.ErrRoomFull):
		writeError(w, http.StatusConflict, err.Error())
	case isKind(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
