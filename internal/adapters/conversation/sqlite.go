// Package conversation persists chat sessions and their message log in SQLite.
// Clean Architecture: Adapter implementing ports.SessionStore and ports.MessageStore.
package conversation

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_sessions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key TEXT NOT NULL UNIQUE,
	user_id     INTEGER,
	channel     TEXT NOT NULL DEFAULT 'web',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS messages (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    INTEGER NOT NULL REFERENCES conversation_sessions(id),
	sender        TEXT NOT NULL CHECK(sender IN ('user', 'bot')),
	message_text  TEXT NOT NULL,
	intent        TEXT,
	confidence    REAL,
	metadata_json TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
`

// Store owns the conversation database. Session creation is the only
// contended write path; messages are pure inserts ordered per session by
// their autoincrement id.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the conversation database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening conversation db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging conversation db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// GetOrCreate resolves a session key to its durable session row.
//
// The UNIQUE(session_key) constraint plus ON CONFLICT DO NOTHING keeps the
// create path idempotent under concurrent first requests: both callers end
// up reading the one surviving row. A login after the fact attaches the
// user exactly once; the guarded UPDATE never replaces or clears a user id
// that is already set.
func (s *Store) GetOrCreate(ctx context.Context, sessionKey string, userID *int64) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_sessions (session_key, user_id, channel)
		 VALUES (?, ?, 'web')
		 ON CONFLICT(session_key) DO NOTHING`,
		sessionKey, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating session: %w", err)
	}

	var id int64
	var existing sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id FROM conversation_sessions WHERE session_key = ?`,
		sessionKey,
	).Scan(&id, &existing)
	if err != nil {
		return 0, fmt.Errorf("loading session: %w", err)
	}

	if userID != nil && !existing.Valid {
		_, err = s.db.ExecContext(ctx,
			`UPDATE conversation_sessions SET user_id = ? WHERE id = ? AND user_id IS NULL`,
			*userID, id,
		)
		if err != nil {
			return 0, fmt.Errorf("attaching user: %w", err)
		}
	}
	return id, nil
}

// Append inserts one conversation turn. No updates, no deletes.
func (s *Store) Append(ctx context.Context, msg entities.Message) error {
	var intent any
	if msg.Intent != "" {
		intent = msg.Intent
	}
	var meta any
	if len(msg.Metadata) > 0 {
		meta = string(msg.Metadata)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, sender, message_text, intent, confidence, metadata_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.SessionID, string(msg.Sender), msg.Text, intent, msg.Confidence, meta,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// BySessionKey loads a session row, mostly for diagnostics.
func (s *Store) BySessionKey(ctx context.Context, sessionKey string) (*entities.ConversationSession, error) {
	var sess entities.ConversationSession
	var userID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_key, user_id, channel, created_at
		 FROM conversation_sessions WHERE session_key = ?`,
		sessionKey,
	).Scan(&sess.ID, &sess.SessionKey, &userID, &sess.Channel, &sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if userID.Valid {
		sess.UserID = &userID.Int64
	}
	return &sess, nil
}

// History returns a session's turns in chronological order.
func (s *Store) History(ctx context.Context, sessionID int64) ([]entities.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, sender, message_text, intent, confidence, metadata_json, created_at
		 FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []entities.Message
	for rows.Next() {
		var m entities.Message
		var sender string
		var intent, meta sql.NullString
		var confidence sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Text, &intent, &confidence, &meta, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Sender = entities.Sender(sender)
		m.Intent = intent.String
		if confidence.Valid {
			m.Confidence = &confidence.Float64
		}
		if meta.Valid {
			m.Metadata = []byte(meta.String)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountSessions reports how many session rows exist for a key.
func (s *Store) CountSessions(ctx context.Context, sessionKey string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_sessions WHERE session_key = ?`,
		sessionKey,
	).Scan(&n)
	return n, err
}

// DB exposes the handle so collaborator subsystems (auth) can share the file.
func (s *Store) DB() *sql.DB { return s.db }
