package services

import (
	"log/slog"
	"testing"
	"time"

	"pairchat/auth"
	"pairchat/errors"
	"pairchat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hash := func(password string) string {
		h, err := auth.HashPassword(password)
		require.NoError(t, err)
		return h
	}
	verifier := auth.NewStaticVerifier(map[string]auth.StaticEntry{
		"alice": {PasswordHash: hash("S3cret!alice"), UserID: "alice", DisplayName: "Alice", RoomID: "room-1"},
		"bob":   {PasswordHash: hash("S3cret!bob"), UserID: "bob", DisplayName: "Bob", RoomID: "room-1"},
		"carol": {PasswordHash: hash("S3cret!carol"), UserID: "carol", DisplayName: "Carol", RoomID: "room-1"},
	})

	log := logs.GetLoggerFromLevel(slog.LevelError)
	return NewAuthService(verifier,
		repositories.NewUserRepository(db),
		repositories.NewRoomRepository(db),
		time.Hour, log)
}

func TestLogin_Creates_Room_And_User_Lazily(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	result, err := service.Login("alice", "S3cret!alice")
	req.NoError(err)
	req.NotEmpty(result.Token)
	req.Equal("room-1", result.RoomID)
	req.True(result.User.IsOnline)
	req.Len(result.Room.Participants, 1)

	claims, err := auth.ValidateToken(result.Token)
	req.NoError(err)
	req.Equal("alice", claims.UserID)
	req.Equal("room-1", claims.RoomID)
}

func TestLogin_Second_User_Joins_Same_Room(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, err := service.Login("alice", "S3cret!alice")
	req.NoError(err)
	result, err := service.Login("bob", "S3cret!bob")
	req.NoError(err)
	req.Len(result.Room.Participants, 2)
}

func TestLogin_Third_User_Hits_Capacity(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, err := service.Login("alice", "S3cret!alice")
	req.NoError(err)
	_, err = service.Login("bob", "S3cret!bob")
	req.NoError(err)
	_, err = service.Login("carol", "S3cret!carol")
	req.ErrorIs(err, errors.ErrRoomFull)
}

func TestLogin_Repeat_Login_Is_Stable(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, err := service.Login("alice", "S3cret!alice")
	req.NoError(err)
	result, err := service.Login("alice", "S3cret!alice")
	req.NoError(err)
	req.Len(result.Room.Participants, 1)
}

func TestLogin_Wrong_Password(t *testing.T) {
	req := require.New(t)
	service := newTestAuthService(t)

	_, err := service.Login("alice", "wrong")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, err = service.Login("nobody", "whatever")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
