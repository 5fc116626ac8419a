package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		fullname TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		profile_image_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS polls (
		id TEXT NOT NULL PRIMARY KEY,
		question TEXT NOT NULL,
		poll_type TEXT NOT NULL CHECK (poll_type IN ('yesno', 'single choice', 'rating', 'imagebased', 'open ended')),
		created_by TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_polls_created_by ON polls(created_by);

	CREATE TABLE IF NOT EXISTS poll_options (
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		votes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (poll_id, idx)
	);

	CREATE TABLE IF NOT EXISTS poll_images (
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		url TEXT NOT NULL,
		PRIMARY KEY (poll_id, idx)
	);

	-- One row per (poll, user). The primary key is the one-vote-per-user
	-- guarantee; option_idx is NULL for open ended polls, comment is NULL
	-- for everything else.
	CREATE TABLE IF NOT EXISTS votes (
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		option_idx INTEGER,
		comment TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (poll_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_votes_user ON votes(user_id);

	CREATE TABLE IF NOT EXISTS bookmarks (
		user_id TEXT NOT NULL REFERENCES users(id),
		poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, poll_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		poll_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
