// Package sqlite persists health events so operators can inspect model
// failures after the fact. The proxy itself never reads this on the
// request path; health state is process-local.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rkilchmn/openrouter-free-scanner/internal/health"
)

//go:embed migrations/*.sql
var fs embed.FS

type Journal struct {
	db *sqlx.DB
}

func NewJournal(dsn string) (*Journal, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends one health event.
func (j *Journal) Record(ctx context.Context, ev health.Event) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO health_events (model, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		ev.Model, ev.Kind, ev.Detail, ev.At.Unix())
	return err
}

// FailureCount is a per-model failure tally over a recent window.
type FailureCount struct {
	Model string `db:"model" json:"model"`
	Count int    `db:"count" json:"count"`
}

// RecentFailures returns failure counts per model within the window,
// most failures first.
func (j *Journal) RecentFailures(ctx context.Context, window time.Duration) ([]FailureCount, error) {
	since := time.Now().Add(-window).Unix()
	var out []FailureCount
	err := j.db.SelectContext(ctx, &out,
		`SELECT model, COUNT(*) AS count
		 FROM health_events
		 WHERE kind = 'failure' AND created_at >= ?
		 GROUP BY model
		 ORDER BY count DESC`, since)
	return out, err
}

func runMigrations(db *sqlx.DB) error {
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return err
	}

	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
