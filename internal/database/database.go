package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lessons (
		seq INTEGER PRIMARY KEY AUTOINCREMENT, -- storage order
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		tutor_id TEXT NOT NULL,
		format TEXT NOT NULL, -- video, text, quiz
		created_at TEXT NOT NULL,
		-- Format specific fields are stored as JSON text
		payload_json TEXT NOT NULL,
		file_data BLOB,
		views INTEGER,
		completions INTEGER,
		rating REAL,
		status TEXT,
		duration TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_lessons_tutor ON lessons (tutor_id);
	CREATE INDEX IF NOT EXISTS idx_lessons_category ON lessons (category);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		subject TEXT,
		created_at TEXT NOT NULL
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
