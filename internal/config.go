package internal

import (
	"fmt"
	"strings"
	"time"

	"pairchat/auth"
)

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	RoomID            string        `env:"ROOM_ID,default=main"`

	// Users is the static credential table, one entry per user:
	// "username:password:DisplayName", comma separated.
	Users string `env:"USERS,required=true"`
}

// ParseUsers turns the USERS spec into verifier entries. Passwords are
// hashed here so plain text never leaves the boot path.
func (c Config) ParseUsers() (map[string]auth.StaticEntry, error) {
	entries := make(map[string]auth.StaticEntry)
	for _, spec := range strings.Split(c.Users, ",") {
		parts := strings.SplitN(strings.TrimSpace(spec), ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("USERS entry must be username:password:DisplayName, got %q", spec)
		}
		hash, err := auth.HashPassword(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %q: %w", parts[0], err)
		}
		entries[parts[0]] = auth.StaticEntry{
			PasswordHash: hash,
			UserID:       parts[0],
			DisplayName:  parts[2],
			RoomID:       c.RoomID,
		}
	}
	return entries, nil
}
