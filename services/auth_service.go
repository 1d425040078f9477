package services

import (
	"log/slog"
	"time"

	"pairchat/auth"
	"pairchat/domain"
	"pairchat/errors"
	"pairchat/repositories"
)

// CredentialVerifier turns a username/password pair into an identity.
// The engine never depends on a concrete user list.
type CredentialVerifier interface {
	Verify(username, password string) (auth.Credential, error)
}

type IAuthService interface {
	Login(username, password string) (LoginResult, error)
}

type LoginResult struct {
	Token  string
	User   domain.User
	Room   domain.ChatRoom
	RoomID string
}

// AuthService performs the whole authenticated join: verify credentials,
// lazily create the room and the user, attach the user to the room, and
// issue the session token.
type AuthService struct {
	verifier      CredentialVerifier
	users         repositories.IUserRepository
	rooms         repositories.IRoomRepository
	tokenDuration time.Duration
	log           *slog.Logger
}

func NewAuthService(verifier CredentialVerifier, users repositories.IUserRepository,
	rooms repositories.IRoomRepository, tokenDuration time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		verifier:      verifier,
		users:         users,
		rooms:         rooms,
		tokenDuration: tokenDuration,
		log:           log,
	}
}

func (s *AuthService) Login(username, password string) (LoginResult, error) {
	credential, err := s.verifier.Verify(username, password)
	if err != nil {
		return LoginResult{}, err
	}

	now := time.Now().UTC()

	room, err := s.rooms.EnsureRoom(credential.RoomID, now)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.UpsertUser(credential.UserID, credential.DisplayName, now)
	if err != nil {
		return LoginResult{}, err
	}

	if !room.HasParticipant(user.UserID) {
		room, err = s.rooms.AddParticipant(room.RoomID, user.UserID, user.DisplayName, now)
		if err != nil {
			return LoginResult{}, err
		}
	}

	token, err := auth.GenerateToken(user.UserID, room.RoomID, s.tokenDuration)
	if err != nil {
		return LoginResult{}, errors.ErrTokenGeneration
	}

	s.log.Info("User authenticated", "user", user.UserID, "room", room.RoomID)
	return LoginResult{Token: token, User: user, Room: room, RoomID: room.RoomID}, nil
}
