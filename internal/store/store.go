package store

import (
	"context"
	"fmt"
	"time"

	"github.com/andresmejia3/sightline/internal/events"
	"github.com/jackc/pgx/v5"
)

// Store manages the PostgreSQL connection used to keep a history of completed reps.
// A Store is used by one goroutine at a time (the event dispatcher, or a CLI command).
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the necessary tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS rep_events (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			exercise TEXT NOT NULL,
			rep_count INT NOT NULL,
			angle DOUBLE PRECISION NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS rep_events_exercise_idx ON rep_events (exercise);
		CREATE INDEX IF NOT EXISTS rep_events_occurred_at_idx ON rep_events (occurred_at DESC);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// InsertRepEvent saves one completed rep.
func (s *Store) InsertRepEvent(ctx context.Context, ev events.RepEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.conn.Exec(ctx, `
		INSERT INTO rep_events (run_id, exercise, rep_count, angle, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.RunID, ev.Exercise, ev.Count, ev.Angle, at)
	return err
}

// Name implements events.Sink.
func (s *Store) Name() string { return "postgres" }

// WriteRepEvent implements events.Sink.
func (s *Store) WriteRepEvent(ctx context.Context, ev events.RepEvent) error {
	return s.InsertRepEvent(ctx, ev)
}

// RecentReps returns the newest events first. A limit below 1 returns nothing.
func (s *Store) RecentReps(ctx context.Context, limit int) ([]events.RepEvent, error) {
	if limit < 1 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, `
		SELECT run_id, exercise, rep_count, angle, occurred_at
		FROM rep_events
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.RepEvent
	for rows.Next() {
		var ev events.RepEvent
		if err := rows.Scan(&ev.RunID, &ev.Exercise, &ev.Count, &ev.Angle, &ev.At); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RepTotal summarizes one exercise across every run.
type RepTotal struct {
	Exercise string
	Reps     int
	Runs     int
	Last     time.Time
}

// RepTotals returns one row per exercise, ordered by name.
func (s *Store) RepTotals(ctx context.Context) ([]RepTotal, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT exercise, COUNT(*), COUNT(DISTINCT run_id), MAX(occurred_at)
		FROM rep_events
		GROUP BY exercise
		ORDER BY exercise
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RepTotal
	for rows.Next() {
		var t RepTotal
		if err := rows.Scan(&t.Exercise, &t.Reps, &t.Runs, &t.Last); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Reset drops all application tables to clear the database state.
// The next New recreates them.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS rep_events CASCADE;
	`)
	return err
}

var _ events.Sink = (*Store)(nil)
