package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hg9336099029/survey-be/internal/models"
	"github.com/hg9336099029/survey-be/internal/websocket"
)

// TrendingLimit is how many polls the trending listing returns.
const TrendingLimit = 5

// PollServiceProvider defines the interface for poll services.
type PollServiceProvider interface {
	CreatePoll(userID, question, pollType string, options, images []string) (models.Poll, error)
	GetAllPolls() ([]models.Poll, error)
	GetPollByID(id string) (models.Poll, error)
	GetPollsByCreator(userID string) ([]models.Poll, error)
	GetVotedPolls(userID string) ([]models.Poll, error)
	GetBookmarkedPolls(userID string) ([]models.Poll, error)
	GetTrendingPolls() ([]models.Poll, error)
	DeletePoll(id, requesterID string) error
	Vote(pollID, userID string, optionIndex *int, comment string) (models.VoteResult, error)
	Bookmark(userID, pollID string) error
}

// PollService provides business logic for poll management and voting.
type PollService struct {
	db           *sql.DB
	eventService EventServiceProvider
	hub          *websocket.Hub
}

// NewPollService creates a new PollService.
func NewPollService(db *sql.DB, eventService EventServiceProvider, hub *websocket.Hub) *PollService {
	return &PollService{db: db, eventService: eventService, hub: hub}
}

// CreatePoll persists a new poll owned by userID. For imagebased polls the
// images are the option set; for open ended polls there are neither options
// nor images; every other type seeds the given option labels with zero votes.
func (s *PollService) CreatePoll(userID, question, pollType string, options, images []string) (models.Poll, error) {
	if question == "" || pollType == "" {
		return models.Poll{}, fmt.Errorf("%w: question and poll type are required", ErrValidation)
	}
	if !models.ValidPollType(pollType) {
		return models.Poll{}, fmt.Errorf("%w: unknown poll type %q", ErrValidation, pollType)
	}
	switch pollType {
	case models.PollTypeImageBased:
		if len(images) == 0 {
			return models.Poll{}, fmt.Errorf("%w: image based polls need at least one image", ErrValidation)
		}
	case models.PollTypeOpenEnded:
		// Free-text collection mode, no options.
	default:
		if len(options) < 2 {
			return models.Poll{}, fmt.Errorf("%w: at least two options are required", ErrValidation)
		}
	}

	pollID := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return models.Poll{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT INTO polls(id, question, poll_type, created_by) VALUES(?, ?, ?, ?)",
		pollID, question, pollType, userID); err != nil {
		return models.Poll{}, err
	}

	// Image based polls are voted on by image index, so each image doubles
	// as an option row.
	optionTexts := options
	if pollType == models.PollTypeImageBased {
		optionTexts = images
	}
	if pollType != models.PollTypeOpenEnded {
		for i, text := range optionTexts {
			if _, err := tx.Exec("INSERT INTO poll_options(poll_id, idx, text, votes) VALUES(?, ?, ?, 0)",
				pollID, i, text); err != nil {
				return models.Poll{}, err
			}
		}
	}
	for i, url := range images {
		if _, err := tx.Exec("INSERT INTO poll_images(poll_id, idx, url) VALUES(?, ?, ?)",
			pollID, i, url); err != nil {
			return models.Poll{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Poll{}, err
	}

	if s.eventService != nil {
		_ = s.eventService.CreateEvent("poll.create", "info", fmt.Sprintf("Poll %q created.", question), &pollID)
	}

	return s.GetPollByID(pollID)
}

const pollSelect = `
	SELECT p.id, p.question, p.poll_type, p.created_at, p.updated_at,
	       u.id, u.username, u.profile_image_url
	FROM polls p
	JOIN users u ON u.id = p.created_by`

// GetAllPolls returns every poll, newest first, with the creator embedded.
func (s *PollService) GetAllPolls() ([]models.Poll, error) {
	return s.queryPolls(pollSelect + " ORDER BY p.created_at DESC, p.id DESC")
}

// GetPollsByCreator returns the polls owned by userID, newest first.
func (s *PollService) GetPollsByCreator(userID string) ([]models.Poll, error) {
	return s.queryPolls(pollSelect+" WHERE p.created_by = ? ORDER BY p.created_at DESC, p.id DESC", userID)
}

// GetVotedPolls returns the polls userID has voted on, most recent vote first.
func (s *PollService) GetVotedPolls(userID string) ([]models.Poll, error) {
	return s.queryPolls(pollSelect+`
		JOIN votes v ON v.poll_id = p.id
		WHERE v.user_id = ? ORDER BY v.created_at DESC`, userID)
}

// GetBookmarkedPolls returns the polls userID has bookmarked, most recent first.
func (s *PollService) GetBookmarkedPolls(userID string) ([]models.Poll, error) {
	return s.queryPolls(pollSelect+`
		JOIN bookmarks b ON b.poll_id = p.id
		WHERE b.user_id = ? ORDER BY b.created_at DESC`, userID)
}

// GetTrendingPolls returns the top polls ranked by total votes across all
// options, recomputed on each call.
func (s *PollService) GetTrendingPolls() ([]models.Poll, error) {
	return s.queryPolls(pollSelect+`
		LEFT JOIN poll_options o ON o.poll_id = p.id
		GROUP BY p.id
		ORDER BY COALESCE(SUM(o.votes), 0) DESC, p.created_at DESC
		LIMIT ?`, TrendingLimit)
}

// GetPollByID retrieves a single poll with options, images, comments and voters.
func (s *PollService) GetPollByID(id string) (models.Poll, error) {
	polls, err := s.queryPolls(pollSelect+" WHERE p.id = ?", id)
	if err != nil {
		return models.Poll{}, err
	}
	if len(polls) == 0 {
		return models.Poll{}, fmt.Errorf("%w: poll %s", ErrNotFound, id)
	}
	return polls[0], nil
}

// queryPolls runs a poll listing query and hydrates each row's child records.
func (s *PollService) queryPolls(query string, args ...interface{}) ([]models.Poll, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.PollType, &p.CreatedAt, &p.UpdatedAt,
			&p.CreatedBy.ID, &p.CreatedBy.Username, &p.CreatedBy.ProfileImageURL); err != nil {
			return nil, err
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range polls {
		if err := s.loadPollChildren(&polls[i]); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// loadPollChildren fills in a poll's options, images, voters and comments.
func (s *PollService) loadPollChildren(p *models.Poll) error {
	p.Options = []models.Option{}
	p.Images = []string{}
	p.Comments = []models.Comment{}
	p.Voters = []string{}

	rows, err := s.db.Query("SELECT text, votes FROM poll_options WHERE poll_id = ? ORDER BY idx", p.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.Text, &o.Votes); err != nil {
			rows.Close()
			return err
		}
		p.Options = append(p.Options, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query("SELECT url FROM poll_images WHERE poll_id = ? ORDER BY idx", p.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return err
		}
		p.Images = append(p.Images, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query(`
		SELECT v.user_id, u.username, v.comment
		FROM votes v JOIN users u ON u.id = v.user_id
		WHERE v.poll_id = ? ORDER BY v.created_at`, p.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var userID, username string
		var comment sql.NullString
		if err := rows.Scan(&userID, &username, &comment); err != nil {
			rows.Close()
			return err
		}
		p.Voters = append(p.Voters, userID)
		if comment.Valid && comment.String != "" {
			p.Comments = append(p.Comments, models.Comment{UserID: userID, Username: username, Text: comment.String})
		}
	}
	rows.Close()
	return rows.Err()
}

// DeletePoll removes a poll. Only the creator may delete their poll; vote,
// option and bookmark rows cascade with it.
func (s *PollService) DeletePoll(id, requesterID string) error {
	var createdBy string
	row := s.db.QueryRow("SELECT created_by FROM polls WHERE id = ?", id)
	if err := row.Scan(&createdBy); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: poll %s", ErrNotFound, id)
		}
		return err
	}
	if createdBy != requesterID {
		return fmt.Errorf("%w: only the creator can delete this poll", ErrForbidden)
	}

	if _, err := s.db.Exec("DELETE FROM polls WHERE id = ?", id); err != nil {
		return err
	}

	if s.eventService != nil {
		_ = s.eventService.CreateEvent("poll.delete", "info", fmt.Sprintf("Poll %s deleted.", id), nil)
	}
	return nil
}

// Vote records a one-time vote by userID on pollID. For open ended polls the
// vote carries a comment; for every other type it selects an option index.
// The vote row insert and the counter increment run in one transaction, and
// the (poll_id, user_id) primary key rejects duplicates at the storage level.
func (s *PollService) Vote(pollID, userID string, optionIndex *int, comment string) (models.VoteResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.VoteResult{}, err
	}
	defer tx.Rollback()

	var pollType string
	var optionCount int
	row := tx.QueryRow(`
		SELECT poll_type, (SELECT COUNT(*) FROM poll_options WHERE poll_id = polls.id)
		FROM polls WHERE id = ?`, pollID)
	if err := row.Scan(&pollType, &optionCount); err != nil {
		if err == sql.ErrNoRows {
			return models.VoteResult{}, fmt.Errorf("%w: poll %s", ErrNotFound, pollID)
		}
		return models.VoteResult{}, err
	}

	if pollType == models.PollTypeOpenEnded && comment != "" {
		// One comment per user; a duplicate is a conflict rather than a
		// silent no-op so the client can tell the user.
		if _, err := tx.Exec("INSERT INTO votes(poll_id, user_id, comment) VALUES(?, ?, ?)",
			pollID, userID, comment); err != nil {
			if isUniqueViolation(err) {
				return models.VoteResult{}, fmt.Errorf("%w: you have already responded to this poll", ErrConflict)
			}
			return models.VoteResult{}, err
		}
	} else {
		if optionIndex == nil {
			return models.VoteResult{}, fmt.Errorf("%w: optionIndex is required", ErrValidation)
		}
		if *optionIndex < 0 || *optionIndex >= optionCount {
			return models.VoteResult{}, fmt.Errorf("%w: optionIndex %d out of range", ErrValidation, *optionIndex)
		}

		// INSERT OR IGNORE makes the duplicate check and the insert a single
		// conditional write; the counter increment below only runs when the
		// vote row actually landed.
		res, err := tx.Exec("INSERT OR IGNORE INTO votes(poll_id, user_id, option_idx) VALUES(?, ?, ?)",
			pollID, userID, *optionIndex)
		if err != nil {
			return models.VoteResult{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return models.VoteResult{}, err
		}
		if n == 0 {
			tx.Rollback()
			poll, err := s.GetPollByID(pollID)
			if err != nil {
				return models.VoteResult{}, err
			}
			return models.VoteResult{AlreadyVoted: true, Poll: poll}, nil
		}

		if _, err := tx.Exec("UPDATE poll_options SET votes = votes + 1 WHERE poll_id = ? AND idx = ?",
			pollID, *optionIndex); err != nil {
			return models.VoteResult{}, err
		}
	}

	if _, err := tx.Exec("UPDATE polls SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", pollID); err != nil {
		return models.VoteResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.VoteResult{}, err
	}

	poll, err := s.GetPollByID(pollID)
	if err != nil {
		return models.VoteResult{}, err
	}

	if s.eventService != nil {
		_ = s.eventService.CreateEvent("poll.vote", "info", fmt.Sprintf("Vote recorded on poll %s.", pollID), &pollID)
	}
	if s.hub != nil {
		s.hub.BroadcastTo(pollID, websocket.NewPollUpdateMessage(poll))
	}

	return models.VoteResult{Poll: poll}, nil
}

// Bookmark adds pollID to userID's bookmarks. Bookmarking twice is a conflict.
func (s *PollService) Bookmark(userID, pollID string) error {
	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM polls WHERE id = ?)", pollID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: poll %s", ErrNotFound, pollID)
	}

	res, err := s.db.Exec("INSERT OR IGNORE INTO bookmarks(user_id, poll_id) VALUES(?, ?)", userID, pollID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: poll already bookmarked", ErrConflict)
	}

	if s.eventService != nil {
		_ = s.eventService.CreateEvent("poll.bookmark", "info", fmt.Sprintf("Poll %s bookmarked.", pollID), &pollID)
	}
	return nil
}
