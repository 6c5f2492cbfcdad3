package transcript

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps a local record of onboarding dialogues using SQLite:
// every normalized turn, submitted answer and confirmation outcome,
// plus diagnostics for payloads the normalizers discarded. The remote
// session is authoritative; this is an operator-side audit trail.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Turn is one recorded dialogue turn.
type Turn struct {
	ID        int64
	BoardID   string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Event is a non-turn record: answer, confirm, discard.
type Event struct {
	ID        int64
	BoardID   string
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// NewStore opens (or creates) the transcript database at the given path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id    TEXT NOT NULL,
			role        TEXT NOT NULL,
			content     TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id    TEXT NOT NULL,
			kind        TEXT NOT NULL,
			detail      TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_turns_board ON turns(board_id);
		CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
		CREATE INDEX IF NOT EXISTS idx_events_board ON events(board_id);
		CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
	`)
	return err
}

// RecordTurn appends one dialogue turn for a board.
func (s *Store) RecordTurn(boardID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO turns (board_id, role, content, created_at)
		VALUES (?, ?, ?, ?)
	`, boardID, role, content, time.Now().Format(time.RFC3339))
	return err
}

// RecordEvent appends a non-turn record (answer, confirm, discard).
func (s *Store) RecordEvent(boardID, kind, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO events (board_id, kind, detail, created_at)
		VALUES (?, ?, ?, ?)
	`, boardID, kind, detail, time.Now().Format(time.RFC3339))
	return err
}

// Turns returns the recorded turns for a board, oldest first. A limit
// of 0 returns everything.
func (s *Store) Turns(boardID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, board_id, role, content, created_at FROM turns WHERE board_id = ? ORDER BY id`
	args := []any{boardID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.BoardID, &t.Role, &t.Content, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Events returns the recorded events for a board, oldest first.
func (s *Store) Events(boardID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, board_id, kind, detail, created_at FROM events WHERE board_id = ? ORDER BY id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt string
		if err := rows.Scan(&e.ID, &e.BoardID, &e.Kind, &e.Detail, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// PruneOlderThan deletes turns and events created before the cutoff and
// reports how many rows were removed.
func (s *Store) PruneOlderThan(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := cutoff.Format(time.RFC3339)
	var total int64

	res, err := s.db.Exec(`DELETE FROM turns WHERE created_at < ?`, limit)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = s.db.Exec(`DELETE FROM events WHERE created_at < ?`, limit)
	if err != nil {
		return total, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
