package services_test

import (
	"errors"
	"testing"

	"github.com/hg9336099029/survey-be/internal/services"
	"github.com/hg9336099029/survey-be/internal/testutil"
)

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(db, nil)

	tests := []struct {
		name     string
		username string
		fullname string
		email    string
		password string
		wantErr  error
	}{
		{"valid", "alice", "Alice Example", "alice@x.com", "Passw0rd", nil},
		{"duplicate username", "alice", "Other Alice", "other@x.com", "Passw0rd", services.ErrConflict},
		{"duplicate email", "alice2", "Other Alice", "alice@x.com", "Passw0rd", services.ErrConflict},
		{"missing fields", "", "Bob", "bob@x.com", "Passw0rd", services.ErrValidation},
		{"short password", "bob", "Bob", "bob@x.com", "Ab1", services.ErrValidation},
		{"no uppercase", "bob", "Bob", "bob@x.com", "passw0rd", services.ErrValidation},
		{"no digit", "bob", "Bob", "bob@x.com", "Password", services.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Register(tt.username, tt.fullname, tt.email, tt.password, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.PasswordHash != "" {
				t.Error("password hash leaked on the returned user")
			}

			// The stored credential must never equal the plaintext password.
			var stored string
			if err := db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&stored); err != nil {
				t.Fatalf("read stored hash: %v", err)
			}
			if stored == tt.password {
				t.Error("password stored in plaintext")
			}
			if stored == "" {
				t.Error("no credential stored")
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(db, nil)

	if _, err := svc.Register("alice", "Alice Example", "alice@x.com", "Passw0rd", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate("alice@x.com", "Passw0rd"); err != nil {
		t.Errorf("valid login failed: %v", err)
	}

	// Wrong password and unknown email must be indistinguishable.
	_, wrongPw := svc.Authenticate("alice@x.com", "WrongPw1")
	_, unknown := svc.Authenticate("nobody@x.com", "Passw0rd")
	if !errors.Is(wrongPw, services.ErrUnauthorized) {
		t.Errorf("wrong password: expected ErrUnauthorized, got %v", wrongPw)
	}
	if !errors.Is(unknown, services.ErrUnauthorized) {
		t.Errorf("unknown email: expected ErrUnauthorized, got %v", unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Errorf("login failures are distinguishable: %q vs %q", wrongPw, unknown)
	}
}

func TestUpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(db, nil)

	alice, err := svc.Register("alice", "Alice Example", "alice@x.com", "Passw0rd", "")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, err := svc.Register("bob", "Bob Example", "bob@x.com", "Passw0rd", ""); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// Taking bob's username is a conflict.
	if _, err := svc.UpdateProfile(alice.ID, "Alice E.", "bob", ""); !errors.Is(err, services.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// Keeping your own username is fine.
	updated, err := svc.UpdateProfile(alice.ID, "Alice E.", "alice", "http://x/uploads/p.png")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Fullname != "Alice E." || updated.ProfileImageURL != "http://x/uploads/p.png" {
		t.Errorf("profile not updated: %+v", updated)
	}

	if _, err := svc.UpdateProfile("no-such-user", "X", "xname", ""); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("unknown user: expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := services.NewUserService(db, nil)

	alice, err := svc.Register("alice", "Alice Example", "alice@x.com", "Passw0rd", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name    string
		current string
		next    string
		wantErr error
	}{
		{"wrong current password", "Nope1234", "NewPassw0rd", services.ErrUnauthorized},
		{"reused password", "Passw0rd", "Passw0rd", services.ErrValidation},
		{"weak new password", "Passw0rd", "weak", services.ErrValidation},
		{"valid rotation", "Passw0rd", "NewPassw0rd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdatePassword(alice.ID, tt.current, tt.next)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	// Old password no longer works, new one does.
	if _, err := svc.Authenticate("alice@x.com", "Passw0rd"); !errors.Is(err, services.ErrUnauthorized) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := svc.Authenticate("alice@x.com", "NewPassw0rd"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestVotedAndBookmarkedListsOnUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userSvc := services.NewUserService(db, nil)
	pollSvc := services.NewPollService(db, nil, nil)

	alice, err := userSvc.Register("alice", "Alice Example", "alice@x.com", "Passw0rd", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	poll, err := pollSvc.CreatePoll(alice.ID, "Coffee or tea?", "yesno", []string{"Yes", "No"}, nil)
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}

	if _, err := pollSvc.Vote(poll.ID, alice.ID, intPtr(0), ""); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := pollSvc.Bookmark(alice.ID, poll.ID); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	got, err := userSvc.GetUserByID(alice.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(got.VotedPolls) != 1 || got.VotedPolls[0] != poll.ID {
		t.Errorf("votedPolls = %v, want [%s]", got.VotedPolls, poll.ID)
	}
	if len(got.BookmarkedPolls) != 1 || got.BookmarkedPolls[0] != poll.ID {
		t.Errorf("bookmarkedPolls = %v, want [%s]", got.BookmarkedPolls, poll.ID)
	}
}
