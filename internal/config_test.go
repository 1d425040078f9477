package internal

import (
	"testing"

	"pairchat/auth"

	"github.com/stretchr/testify/require"
)

func TestParseUsers(t *testing.T) {
	req := require.New(t)
	config := Config{
		RoomID: "room-1",
		Users:  "alice:alice-pass:Alice, bob:bob-pass:Bob",
	}

	entries, err := config.ParseUsers()
	req.NoError(err)
	req.Len(entries, 2)
	req.Equal("Alice", entries["alice"].DisplayName)
	req.Equal("room-1", entries["bob"].RoomID)

	match, err := auth.ComparePassword("bob-pass", entries["bob"].PasswordHash)
	req.NoError(err)
	req.True(match)
}

func TestParseUsers_Rejects_Malformed_Entry(t *testing.T) {
	req := require.New(t)
	config := Config{RoomID: "room-1", Users: "alice:alice-pass"}

	_, err := config.ParseUsers()
	req.Error(err)
}
