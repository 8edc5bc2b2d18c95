package session

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a sqlite file shared by every session; rows
// are namespaced by session ID.
type SQLite struct {
	readDB  *sql.DB
	writeDB *sql.DB
	session string
}

func Open(dbPath, sessionID string) (*SQLite, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	s := &SQLite{writeDB: writeDB, session: sessionID}
	// Schema must exist before a read-only handle can see the table.
	if err := s.init(); err != nil {
		writeDB.Close()
		return nil, err
	}

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}
	s.readDB = readDB
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS session_values (
			session    TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (session, key)
		);
		CREATE INDEX IF NOT EXISTS idx_session_values_updated ON session_values(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// SessionID returns the namespace this handle reads and writes.
func (s *SQLite) SessionID() string {
	return s.session
}

func (s *SQLite) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.readDB.QueryRow(
		"SELECT value FROM session_values WHERE session = ? AND key = ?", s.session, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLite) Put(values map[string]string) error {
	tx, err := s.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO session_values (session, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for k, v := range values {
		if _, err := stmt.Exec(s.session, k, v, now); err != nil {
			return fmt.Errorf("writing %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// Clear removes every value of the current session.
func (s *SQLite) Clear() (int64, error) {
	res, err := s.writeDB.Exec("DELETE FROM session_values WHERE session = ?", s.session)
	if err != nil {
		return 0, fmt.Errorf("clearing session: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes sessions (of any ID) that were not written within
// olderThan and reports how many values went away.
func (s *SQLite) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.writeDB.Exec(`
		DELETE FROM session_values WHERE session IN (
			SELECT session FROM session_values
			GROUP BY session
			HAVING MAX(updated_at) < ?
		)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	if _, err := s.writeDB.Exec("VACUUM"); err != nil {
		return 0, fmt.Errorf("vacuuming: %w", err)
	}
	return n, nil
}

type Stats struct {
	Sessions int
	Values   int
	Size     int64
}

func (s *SQLite) Stats(dbPath string) (Stats, error) {
	var st Stats
	err := s.readDB.QueryRow(
		"SELECT COUNT(DISTINCT session), COUNT(*) FROM session_values",
	).Scan(&st.Sessions, &st.Values)
	if err != nil {
		return st, fmt.Errorf("counting values: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return st, err
	}
	st.Size = info.Size()
	return st, nil
}
