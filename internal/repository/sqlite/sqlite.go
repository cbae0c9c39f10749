// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. One
// logical transaction per request is exactly the concurrency model this app
// needs, and WAL mode lets reads proceed while a write is in flight.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
//
// EDGE TABLES:
// The two many-to-many relations (group_members, follows) carry composite
// primary keys, so uniqueness is enforced by the database itself. Mutations
// use INSERT OR IGNORE: re-adding an existing edge is a no-op at the SQL
// level, which is what makes concurrent duplicate inserts safe without any
// application-side locking.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The per-entity repositories (Users,
// Groups, Events, Relationships) are thin views over the same pool, so
// cross-entity transactions — cascade deletes, the add-members trust gate —
// all run against one database.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository view of this database.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// Groups returns the group repository view of this database.
func (db *DB) Groups() *GroupDB { return &GroupDB{conn: db.conn} }

// Events returns the event repository view of this database.
func (db *DB) Events() *EventDB { return &EventDB{conn: db.conn} }

// Relationships returns the edge-table repository view of this database.
func (db *DB) Relationships() *RelationshipDB { return &RelationshipDB{conn: db.conn} }

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/mypeople.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows one writer at a time, and a ":memory:" database exists
	// per connection — a second pooled connection would see empty tables. One
	// connection serves both cases.
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works. Without this, a bad path
	// or permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The edge tables and the
	// event→group reference depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so it is safe to run on every startup.
func (db *DB) migrate() error {
	// username is nullable so the UNIQUE index allows any number of users
	// without a handle (SQLite treats NULLs as distinct).
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			email             TEXT NOT NULL UNIQUE,
			username          TEXT UNIQUE,
			display_name      TEXT NOT NULL DEFAULT '',
			password_hash     TEXT NOT NULL,
			profile_image_url TEXT NOT NULL DEFAULT '',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS groups (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			author_id       TEXT NOT NULL REFERENCES users(id),
			cover_image_url TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_groups_author_id ON groups(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating groups table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			location        TEXT NOT NULL DEFAULT '',
			start_at        DATETIME NOT NULL,
			end_at          DATETIME NOT NULL,
			group_id        TEXT NOT NULL REFERENCES groups(id),
			cover_image_url TEXT NOT NULL DEFAULT '',
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_group_id ON events(group_id);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	// Composite primary keys make the edges unique per pair — re-inserting
	// an existing edge hits the index, and INSERT OR IGNORE turns that into
	// a no-op instead of an error.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS group_members (
			group_id   TEXT NOT NULL REFERENCES groups(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (group_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating group_members table: %w", err)
	}

	// The CHECK mirrors the application-level self-follow rule so the
	// constraint holds even if a future code path forgets it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL REFERENCES users(id),
			followee_id TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (follower_id, followee_id),
			CHECK (follower_id <> followee_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_followee_id ON follows(followee_id);
	`)
	if err != nil {
		return fmt.Errorf("creating follows table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
// modernc.org/sqlite has no exported error type for this, so we match the
// stable constraint message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullIfEmpty converts the empty string to NULL for nullable unique columns
// (users.username). Without this, two users without a handle would collide
// on the unique index.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
