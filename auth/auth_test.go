package auth

import (
	"testing"
	"time"

	"pairchat/errors"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_Roundtrip(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("s3cret")
	req.NoError(err)

	match, err := ComparePassword("s3cret", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong", hash)
	req.NoError(err)
	req.False(match)
}

func TestHashPassword_Salts_Differ(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("same")
	req.NoError(err)
	second, err := HashPassword("same")
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestComparePassword_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	req.Error(err)

	_, err = ComparePassword("whatever", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA")
	req.Error(err)
}

func TestToken_Roundtrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", "room-1", time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("alice", claims.UserID)
	req.Equal("room-1", claims.RoomID)
}

func TestToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", "room-1", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func TestStaticVerifier_Collapses_Failures(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("alice-pass")
	req.NoError(err)
	verifier := NewStaticVerifier(map[string]StaticEntry{
		"alice": {PasswordHash: hash, UserID: "alice", DisplayName: "Alice", RoomID: "room-1"},
	})

	credential, err := verifier.Verify("alice", "alice-pass")
	req.NoError(err)
	req.Equal("alice", credential.UserID)
	req.Equal("room-1", credential.RoomID)

	_, wrongPassword := verifier.Verify("alice", "nope")
	_, unknownUser := verifier.Verify("mallory", "nope")
	req.ErrorIs(wrongPassword, errors.ErrInvalidCredentials)
	req.ErrorIs(unknownUser, errors.ErrInvalidCredentials)
	req.Equal(wrongPassword.Error(), unknownUser.Error())
}
