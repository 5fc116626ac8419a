// Package testutil holds shared helpers for service and handler tests.
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/hg9336099029/survey-be/internal/auth"
	"github.com/hg9336099029/survey-be/internal/database"
	"github.com/hg9336099029/survey-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// TestJWTSecret is the signing secret tests run with.
const TestJWTSecret = "test-secret"

// SetupTestDB creates a fresh on-disk SQLite database with the full schema.
// The file lives in the test's temp dir and is cleaned up automatically.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	auth.Init(TestJWTSecret)

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CreateTestUser inserts a user with a real bcrypt hash and returns it.
func CreateTestUser(t *testing.T, db *sql.DB, username, email, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}

	user := models.User{
		ID:       uuid.New().String(),
		Username: username,
		Fullname: username + " Test",
		Email:    email,
	}
	_, err = db.Exec("INSERT INTO users(id, username, fullname, email, password_hash) VALUES(?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Fullname, user.Email, string(hash))
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestPoll inserts a poll with the given option labels and returns its ID.
func CreateTestPoll(t *testing.T, db *sql.DB, creatorID, question, pollType string, options []string) string {
	t.Helper()

	pollID := uuid.New().String()
	if _, err := db.Exec("INSERT INTO polls(id, question, poll_type, created_by) VALUES(?, ?, ?, ?)",
		pollID, question, pollType, creatorID); err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}
	for i, text := range options {
		if _, err := db.Exec("INSERT INTO poll_options(poll_id, idx, text, votes) VALUES(?, ?, ?, 0)",
			pollID, i, text); err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}
	return pollID
}

// TokenFor issues a valid JWT for a test user.
func TokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user)
	if err != nil {
		t.Fatalf("Failed to generate test token: %v", err)
	}
	return token
}

// MakeRequest creates an HTTP test request with an optional JSON body.
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct.
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
