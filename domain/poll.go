package domain

import (
	"time"

	"github.com/samber/lo"
)

// PollOption is one votable answer. Votes holds the userIDs currently
// assigned to this option.
type PollOption struct {
	Text  string   `json:"text"`
	Votes []string `json:"votes"`
}

// Poll is embedded in a message of type poll.
// Invariant: a given userID appears in at most one option's vote set.
type Poll struct {
	PollID    string       `json:"pollId"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	CreatedBy string       `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
}

// CastVote moves voterID to the option at index, clearing any previous
// vote first so the single-active-vote invariant holds. It reports
// whether index addressed a valid option.
func (p *Poll) CastVote(voterID string, index int) bool {
	if index < 0 || index >= len(p.Options) {
		return false
	}
	for i := range p.Options {
		p.Options[i].Votes = lo.Without(p.Options[i].Votes, voterID)
	}
	p.Options[index].Votes = append(p.Options[index].Votes, voterID)
	return true
}
