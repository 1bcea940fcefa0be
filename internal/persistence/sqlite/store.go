// Package sqlite implements the snapshot gateway on SQLite. The whole
// scheduling state is small (a dozen courts, a short waitlist), so the store
// persists it as one versioned snapshot and applies mutations in a single
// compare-and-swap transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/courtboard/internal/domain"
	"github.com/example/courtboard/internal/persistence"
	"github.com/example/courtboard/internal/roster"
)

// Store persists the snapshot and the club roster.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database identified by the DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows one writer; serialize access instead of surfacing busy
	// errors from the pool.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id      INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS courts (
	number  INTEGER PRIMARY KEY,
	id      TEXT NOT NULL,
	current TEXT,
	history TEXT
);
CREATE TABLE IF NOT EXISTS blocks (
	id           TEXT PRIMARY KEY,
	court_number INTEGER NOT NULL,
	start_time   TEXT NOT NULL,
	end_time     TEXT NOT NULL,
	reason       TEXT NOT NULL,
	wet_court    INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS waitlist (
	id        TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	players   TEXT,
	guests    INTEGER NOT NULL DEFAULT 0,
	joined_at TEXT NOT NULL,
	deferred  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS recently_cleared (
	court_number  INTEGER NOT NULL,
	cleared_at    TEXT NOT NULL,
	original_end  TEXT NOT NULL,
	players       TEXT,
	source        TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS roster (
	member_id   TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	club_number TEXT
);
`

// Migrate creates the schema and seeds the court rows and version row.
func (s *Store) Migrate(ctx context.Context, courtCount int, idGenerator func() string) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO snapshot_meta (id, version) VALUES (1, 0)`); err != nil {
			return err
		}
		for number := 1; number <= courtCount; number++ {
			id := ""
			if idGenerator != nil {
				id = idGenerator()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO courts (number, id, current, history) VALUES (?, ?, NULL, NULL)`,
				number, id,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot loads the complete shared state at its current version.
func (s *Store) Snapshot(ctx context.Context) (persistence.Snapshot, error) {
	var snap persistence.Snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT version FROM snapshot_meta WHERE id = 1`).Scan(&snap.Version); err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return err
		}
		var err error
		if snap.Courts, err = s.loadCourts(ctx, tx); err != nil {
			return err
		}
		if snap.Blocks, err = s.loadBlocks(ctx, tx); err != nil {
			return err
		}
		if snap.Waitlist, err = s.loadWaitlist(ctx, tx); err != nil {
			return err
		}
		snap.RecentlyCleared, err = s.loadRecentlyCleared(ctx, tx)
		return err
	})
	if err != nil {
		return persistence.Snapshot{}, err
	}
	return snap, nil
}

// Apply writes the next snapshot if and only if the stored version still
// equals base. A mismatch means a concurrent writer won; the caller gets
// ErrConflict and nothing is modified.
func (s *Store) Apply(ctx context.Context, base int64, next persistence.Snapshot) (int64, error) {
	newVersion := base + 1
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE snapshot_meta SET version = ? WHERE id = 1 AND version = ?`, newVersion, base)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrConflict
		}

		for _, table := range []string{"courts", "blocks", "waitlist", "recently_cleared"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		if err := s.saveCourts(ctx, tx, next.Courts); err != nil {
			return err
		}
		if err := s.saveBlocks(ctx, tx, next.Blocks); err != nil {
			return err
		}
		if err := s.saveWaitlist(ctx, tx, next.Waitlist); err != nil {
			return err
		}
		return s.saveRecentlyCleared(ctx, tx, next.RecentlyCleared)
	})
	if err != nil {
		return 0, err
	}
	return newVersion, nil
}

// ListMembers returns the club directory ordered by member id.
func (s *Store) ListMembers(ctx context.Context) ([]roster.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member_id, name, COALESCE(club_number, '') FROM roster ORDER BY member_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]roster.Member, 0)
	for rows.Next() {
		var member roster.Member
		if err := rows.Scan(&member.MemberID, &member.Name, &member.ClubNumber); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// AddMember inserts a directory entry.
func (s *Store) AddMember(ctx context.Context, member roster.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO roster (member_id, name, club_number) VALUES (?, ?, ?)`,
		member.MemberID, member.Name, member.ClubNumber)
	if err != nil && isUniqueViolation(err) {
		return persistence.ErrDuplicate
	}
	return err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// courtRecord is the stored shape of a court's session columns. Older data
// stored the session object directly in the current column; decodeSession
// tolerates both shapes.
type courtRecord struct {
	Current *domain.Session         `json:"current"`
	History []domain.ClearedSession `json:"history"`
}

func decodeSession(raw sql.NullString) (*domain.Session, []domain.ClearedSession, error) {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil, nil, nil
	}
	var record courtRecord
	if err := json.Unmarshal([]byte(raw.String), &record); err == nil && (record.Current != nil || record.History != nil) {
		return record.Current, record.History, nil
	}
	// Legacy flat shape: the column holds the bare session object.
	var session domain.Session
	if err := json.Unmarshal([]byte(raw.String), &session); err != nil {
		return nil, nil, err
	}
	if session.ID == "" {
		return nil, nil, nil
	}
	return &session, nil, nil
}

func (s *Store) loadCourts(ctx context.Context, tx *sql.Tx) ([]domain.Court, error) {
	rows, err := tx.QueryContext(ctx, `SELECT number, id, current, history FROM courts ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]domain.Court, 0)
	for rows.Next() {
		var (
			court   domain.Court
			current sql.NullString
			history sql.NullString
		)
		if err := rows.Scan(&court.Number, &court.ID, &current, &history); err != nil {
			return nil, err
		}
		session, embedded, err := decodeSession(current)
		if err != nil {
			return nil, fmt.Errorf("sqlite: court %d session: %w", court.Number, err)
		}
		court.Session = session
		court.History = embedded
		if court.History == nil && history.Valid && history.String != "" {
			if err := json.Unmarshal([]byte(history.String), &court.History); err != nil {
				return nil, fmt.Errorf("sqlite: court %d history: %w", court.Number, err)
			}
		}
		if court.History == nil {
			court.History = []domain.ClearedSession{}
		}
		courts = append(courts, court)
	}
	return courts, rows.Err()
}

func (s *Store) saveCourts(ctx context.Context, tx *sql.Tx, courts []domain.Court) error {
	for _, court := range courts {
		var current any
		if court.Session != nil {
			encoded, err := json.Marshal(court.Session)
			if err != nil {
				return err
			}
			current = string(encoded)
		}
		history, err := json.Marshal(court.History)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courts (number, id, current, history) VALUES (?, ?, ?, ?)`,
			court.Number, court.ID, current, string(history),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadBlocks(ctx context.Context, tx *sql.Tx) ([]domain.Block, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, court_number, start_time, end_time, reason, wet_court, created_at FROM blocks ORDER BY start_time, created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blks := make([]domain.Block, 0)
	for rows.Next() {
		var (
			block                 domain.Block
			start, end, createdAt string
			wet                   int
		)
		if err := rows.Scan(&block.ID, &block.CourtNumber, &start, &end, &block.Reason, &wet, &createdAt); err != nil {
			return nil, err
		}
		if block.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if block.End, err = parseTime(end); err != nil {
			return nil, err
		}
		if block.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		block.WetCourt = wet != 0
		blks = append(blks, block)
	}
	return blks, rows.Err()
}

func (s *Store) saveBlocks(ctx context.Context, tx *sql.Tx, blks []domain.Block) error {
	for _, block := range blks {
		wet := 0
		if block.WetCourt {
			wet = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO blocks (id, court_number, start_time, end_time, reason, wet_court, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			block.ID, block.CourtNumber, formatTime(block.Start), formatTime(block.End), block.Reason, wet, formatTime(block.CreatedAt),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadWaitlist(ctx context.Context, tx *sql.Tx) ([]domain.WaitlistEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, players, guests, joined_at, deferred FROM waitlist ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.WaitlistEntry, 0)
	for rows.Next() {
		var (
			entry    domain.WaitlistEntry
			players  sql.NullString
			joinedAt string
			deferred int
		)
		if err := rows.Scan(&entry.ID, &players, &entry.Guests, &joinedAt, &deferred); err != nil {
			return nil, err
		}
		if entry.Players, err = decodePlayers(players); err != nil {
			return nil, err
		}
		if entry.JoinedAt, err = parseTime(joinedAt); err != nil {
			return nil, err
		}
		entry.Deferred = deferred != 0
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) saveWaitlist(ctx context.Context, tx *sql.Tx, entries []domain.WaitlistEntry) error {
	for position, entry := range entries {
		players, err := json.Marshal(entry.Players)
		if err != nil {
			return err
		}
		deferred := 0
		if entry.Deferred {
			deferred = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO waitlist (id, position, players, guests, joined_at, deferred) VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID, position+1, string(players), entry.Guests, formatTime(entry.JoinedAt), deferred,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadRecentlyCleared(ctx context.Context, tx *sql.Tx) ([]domain.RecentlyClearedEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT court_number, cleared_at, original_end, players, source FROM recently_cleared ORDER BY cleared_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.RecentlyClearedEntry, 0)
	for rows.Next() {
		var (
			entry                  domain.RecentlyClearedEntry
			clearedAt, originalEnd string
			players                sql.NullString
		)
		if err := rows.Scan(&entry.CourtNumber, &clearedAt, &originalEnd, &players, &entry.Source); err != nil {
			return nil, err
		}
		if entry.ClearedAt, err = parseTime(clearedAt); err != nil {
			return nil, err
		}
		if entry.OriginalEnd, err = parseTime(originalEnd); err != nil {
			return nil, err
		}
		if entry.Players, err = decodePlayers(players); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) saveRecentlyCleared(ctx context.Context, tx *sql.Tx, entries []domain.RecentlyClearedEntry) error {
	for _, entry := range entries {
		players, err := json.Marshal(entry.Players)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recently_cleared (court_number, cleared_at, original_end, players, source) VALUES (?, ?, ?, ?, ?)`,
			entry.CourtNumber, formatTime(entry.ClearedAt), formatTime(entry.OriginalEnd), string(players), entry.Source,
		); err != nil {
			return err
		}
	}
	return nil
}

func decodePlayers(raw sql.NullString) ([]domain.Player, error) {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return []domain.Player{}, nil
	}
	var players []domain.Player
	if err := json.Unmarshal([]byte(raw.String), &players); err != nil {
		return nil, err
	}
	if players == nil {
		players = []domain.Player{}
	}
	return players, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
