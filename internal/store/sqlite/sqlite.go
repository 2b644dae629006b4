package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/interview-coach/internal/interview"
)

const DefaultTTL = 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	candidate_name TEXT NOT NULL DEFAULT '',
	position       TEXT NOT NULL DEFAULT '',
	payload        TEXT NOT NULL,
	started_at     INTEGER NOT NULL,
	updated_at     INTEGER NOT NULL,
	expires_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
`

// Repository stores sessions as JSON documents in SQLite. Every Put extends
// the session lifetime by the configured TTL; expired rows read as missing
// and are deleted by Sweep.
type Repository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens (or creates) the database at path. Use ":memory:" for tests.
func Open(path string, ttl time.Duration) (*Repository, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	r := &Repository{db: db, ttl: ttl, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate() error {
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Get(ctx context.Context, id string) (*interview.Session, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE id = ? AND expires_at > ?`,
		id, r.now().Unix(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", interview.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session %q: %w", id, err)
	}

	var s interview.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("decoding session %q: %w", id, err)
	}
	return &s, nil
}

func (r *Repository) Put(ctx context.Context, s *interview.Session) error {
	if s == nil {
		return errors.New("session is nil")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", s.ID, err)
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, status, candidate_name, position, payload, started_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			candidate_name = excluded.candidate_name,
			position = excluded.position,
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		s.ID, string(s.Status), s.CandidateName, s.Position, string(payload),
		s.StartedAt.Unix(), now.Unix(), now.Add(r.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", s.ID, err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %q: %w", id, err)
	}
	return nil
}

// Sweep deletes expired sessions and reports how many were removed.
func (r *Repository) Sweep(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	return n, nil
}

// CountByStatus reports live sessions grouped by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[interview.Status]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM sessions WHERE expires_at > ? GROUP BY status`,
		r.now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[interview.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning session count: %w", err)
		}
		counts[interview.Status(status)] = n
	}
	return counts, rows.Err()
}
