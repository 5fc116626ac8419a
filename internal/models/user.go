package models

import "time"

// User represents a user account in the system.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Fullname        string    `json:"fullname"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Never expose this to the client
	ProfileImageURL string    `json:"profileImageUrl"`
	VotedPolls      []string  `json:"votedPolls"`
	BookmarkedPolls []string  `json:"bookmarkedPolls"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
