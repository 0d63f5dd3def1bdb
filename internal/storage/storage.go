// Package storage provides a SQLite-backed journal of dispatched alerts.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/L1bertine/football-statbot/internal/models"
)

// Storage wraps a SQLite database holding the alert journal.
type Storage struct {
	db        *sql.DB
	maxAlerts int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/statbot/statbot.db.
func New(maxAlerts int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "statbot", "statbot.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to set WAL mode")
	}
	s := &Storage{db: db, maxAlerts: maxAlerts}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id          TEXT PRIMARY KEY,
			fixture_id  INTEGER NOT NULL,
			home_goals  INTEGER NOT NULL,
			away_goals  INTEGER NOT NULL,
			home_team   TEXT NOT NULL,
			away_team   TEXT NOT NULL,
			message     TEXT NOT NULL,
			sent        INTEGER NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_fixture ON alerts(fixture_id, home_goals, away_goals)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddAlert appends one journal entry and trims the journal to maxAlerts rows.
func (s *Storage) AddAlert(entry *models.JournalEntry) error {
	if entry.ID == "" {
		return errors.New("invalid alert: empty id")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts
			(id, fixture_id, home_goals, away_goals, home_team, away_team, message, sent, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		entry.ID, entry.FixtureID, entry.HomeGoals, entry.AwayGoals,
		entry.HomeTeam, entry.AwayTeam, entry.Message,
		boolToInt(entry.Sent), entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert alert")
	}

	if s.maxAlerts > 0 {
		if _, err = tx.Exec(rotateAlertsSQL, s.maxAlerts); err != nil {
			return errors.Wrap(err, "failed to enforce alert cap")
		}
	}

	return tx.Commit()
}

const alertCols = `id, fixture_id, home_goals, away_goals, home_team, away_team, message, sent, created_at`

// RecentAlerts returns up to k entries, newest first.
func (s *Storage) RecentAlerts(k int) ([]models.JournalEntry, error) {
	rows, err := s.db.Query(`SELECT `+alertCols+` FROM alerts ORDER BY created_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alerts")
	}
	return collectAlerts(rows)
}

// FixtureAlerts returns every entry for one fixture in the order it was written.
func (s *Storage) FixtureAlerts(fixtureID int64) ([]models.JournalEntry, error) {
	rows, err := s.db.Query(`SELECT `+alertCols+` FROM alerts WHERE fixture_id = ? ORDER BY created_at`, fixtureID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query alerts")
	}
	return collectAlerts(rows)
}

// Count returns the number of journal rows.
func (s *Storage) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count alerts")
	}
	return n, nil
}

const rotateAlertsSQL = `
	DELETE FROM alerts WHERE id NOT IN (
		SELECT id FROM alerts ORDER BY created_at DESC LIMIT ?
	)`

// RotateAlerts keeps at most maxAlerts newest entries by created_at.
func (s *Storage) RotateAlerts() error {
	if s.maxAlerts <= 0 {
		return nil
	}
	if _, err := s.db.Exec(rotateAlertsSQL, s.maxAlerts); err != nil {
		return errors.Wrap(err, "failed to rotate alerts")
	}
	return nil
}

func collectAlerts(rows *sql.Rows) ([]models.JournalEntry, error) {
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var createdAtNano int64
		var sent int

		err := rows.Scan(
			&e.ID, &e.FixtureID, &e.HomeGoals, &e.AwayGoals,
			&e.HomeTeam, &e.AwayTeam, &e.Message,
			&sent, &createdAtNano,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan alert")
		}

		e.Sent = sent != 0
		e.CreatedAt = time.Unix(0, createdAtNano)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
