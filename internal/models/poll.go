package models

import "time"

// Poll type constants, matching the values the dashboard submits.
const (
	PollTypeYesNo        = "yesno"
	PollTypeSingleChoice = "single choice"
	PollTypeRating       = "rating"
	PollTypeImageBased   = "imagebased"
	PollTypeOpenEnded    = "open ended"
)

// ValidPollType reports whether t is one of the supported poll types.
func ValidPollType(t string) bool {
	switch t {
	case PollTypeYesNo, PollTypeSingleChoice, PollTypeRating, PollTypeImageBased, PollTypeOpenEnded:
		return true
	}
	return false
}

// Option is a single answer option with its running vote count.
type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Comment is a free-text response on an open ended poll.
type Comment struct {
	UserID   string `json:"user"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// Creator is the public identity embedded in poll listings.
type Creator struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Poll represents a poll together with its options, attachments and voters.
type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	PollType  string    `json:"pollType"`
	Options   []Option  `json:"options"`
	Images    []string  `json:"images"`
	Comments  []Comment `json:"comments"`
	CreatedBy Creator   `json:"createdBy"`
	Voters    []string  `json:"voters"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TotalVotes sums the vote counts across all options.
func (p Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}
	return total
}

// VoteResult is the outcome of a vote attempt.
type VoteResult struct {
	AlreadyVoted bool `json:"alreadyVoted"`
	Poll         Poll `json:"poll"`
}
