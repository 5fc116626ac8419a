package services

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/hg9336099029/survey-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor the service has always hashed with.
const bcryptCost = 12

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(username, fullname, email, password, profileImageURL string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetUserByID(id string) (models.User, error)
	UpdateProfile(id, fullname, username, profileImageURL string) (models.User, error)
	UpdatePassword(id, currentPassword, newPassword string) error
}

// UserService provides business logic for user management.
type UserService struct {
	db           *sql.DB
	eventService EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, eventService EventServiceProvider) *UserService {
	return &UserService{db: db, eventService: eventService}
}

// ValidatePassword enforces the password policy: at least 6 characters with
// one lowercase letter, one uppercase letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters long", ErrValidation)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return fmt.Errorf("%w: password must contain a lowercase letter, an uppercase letter and a digit", ErrValidation)
	}
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(username, fullname, email, password, profileImageURL string) (models.User, error) {
	if username == "" || fullname == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: please fill in all fields", ErrValidation)
	}
	if err := ValidatePassword(password); err != nil {
		return models.User{}, err
	}

	var taken bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ? OR email = ?)", username, email).Scan(&taken)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, fmt.Errorf("%w: username or email already in use", ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:              uuid.New().String(),
		Username:        username,
		Fullname:        fullname,
		Email:           email,
		PasswordHash:    string(hashedPassword),
		ProfileImageURL: profileImageURL,
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, username, fullname, email, password_hash, profile_image_url) VALUES(?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(user.ID, user.Username, user.Fullname, user.Email, user.PasswordHash, user.ProfileImageURL)
	if err != nil {
		// The existence pre-check races with concurrent registrations; the
		// UNIQUE constraints are the real guarantee.
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: username or email already in use", ErrConflict)
		}
		return models.User{}, err
	}

	if s.eventService != nil {
		_ = s.eventService.CreateEvent("user.register", "info", fmt.Sprintf("User '%s' registered.", username), nil)
	}

	return s.GetUserByID(user.ID)
}

// Authenticate verifies a user's credentials. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: please fill in all fields", ErrValidation)
	}

	var user models.User
	row := s.db.QueryRow("SELECT id, password_hash FROM users WHERE email = ?", email)
	if err := row.Scan(&user.ID, &user.PasswordHash); err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	return s.GetUserByID(user.ID)
}

// GetUserByID retrieves a single user by their ID, with their voted and
// bookmarked poll id lists attached.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, fullname, email, profile_image_url, created_at, updated_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Username, &user.Fullname, &user.Email, &user.ProfileImageURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return models.User{}, err
	}

	if user.VotedPolls, err = s.pollRefs("SELECT poll_id FROM votes WHERE user_id = ? ORDER BY created_at", id); err != nil {
		return models.User{}, err
	}
	if user.BookmarkedPolls, err = s.pollRefs("SELECT poll_id FROM bookmarks WHERE user_id = ? ORDER BY created_at", id); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// pollRefs collects a user's poll id list from the votes or bookmarks table.
func (s *UserService) pollRefs(query, userID string) ([]string, error) {
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateProfile updates a user's non-sensitive information. The username must
// not be taken by a different user.
func (s *UserService) UpdateProfile(id, fullname, username, profileImageURL string) (models.User, error) {
	if fullname == "" || username == "" {
		return models.User{}, fmt.Errorf("%w: fullname and username are required", ErrValidation)
	}

	var taken bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ? AND id != ?)", username, id).Scan(&taken)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, fmt.Errorf("%w: username already in use", ErrConflict)
	}

	res, err := s.db.Exec("UPDATE users SET fullname = ?, username = ?, profile_image_url = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		fullname, username, profileImageURL, id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: username already in use", ErrConflict)
		}
		return models.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return s.GetUserByID(id)
}

// UpdatePassword verifies the current password, then hashes and sets a new
// password for a user.
func (s *UserService) UpdatePassword(id, currentPassword, newPassword string) error {
	var hash string
	row := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", id)
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrUnauthorized)
	}
	if currentPassword == newPassword {
		return fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", string(hashedPassword), id)
	return err
}
