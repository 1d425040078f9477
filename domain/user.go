package domain

import "time"

// User is created lazily on first authenticated join.
// Presence fields are updated on connect and disconnect.
type User struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	IsOnline    bool      `json:"isOnline"`
	LastSeen    time.Time `json:"lastSeen"`
	CreatedAt   time.Time `json:"createdAt"`
}
