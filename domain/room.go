package domain

import (
	"time"

	"github.com/samber/lo"
)

// MaxParticipants is the hard cap on room membership.
const MaxParticipants = 2

// Participant is a member of a room, recorded at join time.
type Participant struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// ChatRoom is a persistent two-party channel. Apart from membership it is
// immutable after creation.
type ChatRoom struct {
	RoomID       string        `json:"roomId"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// HasParticipant reports whether userID is already a member.
func (r *ChatRoom) HasParticipant(userID string) bool {
	return lo.ContainsBy(r.Participants, func(p Participant) bool {
		return p.UserID == userID
	})
}

// AddParticipant appends a member, enforcing the two-participant cap.
// Adding an existing member is a no-op. Reports whether the user is a
// member after the call.
func (r *ChatRoom) AddParticipant(userID, displayName string, at time.Time) bool {
	if r.HasParticipant(userID) {
		return true
	}
	if len(r.Participants) >= MaxParticipants {
		return false
	}
	r.Participants = append(r.Participants, Participant{
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    at,
	})
	return true
}
