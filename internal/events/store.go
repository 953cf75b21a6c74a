// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package events

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/rs/zerolog"
)

// Event is one behavioral record: a user session touching an item.
type Event struct {
	UserID          string    `json:"user_id"`
	SessionDuration float64   `json:"session_duration"`
	PagesViewed     int       `json:"pages_viewed"`
	Actions         int       `json:"actions"`
	ItemID          string    `json:"item_id"`
	ItemCategory    string    `json:"item_category"`
	Timestamp       time.Time `json:"timestamp"`
}

// Config holds event store configuration.
type Config struct {
	// Path is the DuckDB database file; ":memory:" for tests.
	Path string

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string

	// Threads is the DuckDB worker thread count; 0 uses NumCPU.
	Threads int
}

const schemaDDL = `
CREATE SEQUENCE IF NOT EXISTS behavior_events_id_seq;
CREATE TABLE IF NOT EXISTS behavior_events (
    id               BIGINT PRIMARY KEY DEFAULT nextval('behavior_events_id_seq'),
    user_id          VARCHAR NOT NULL,
    session_duration DOUBLE  NOT NULL,
    pages_viewed     INTEGER NOT NULL,
    actions          INTEGER NOT NULL,
    item_id          VARCHAR NOT NULL,
    item_category    VARCHAR NOT NULL,
    ts               TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_behavior_events_ts ON behavior_events (ts);
`

// Store is a DuckDB-backed behavioral event store. Safe for concurrent
// use; writes come from the ingest consumer, reads from the feature
// layer.
type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if necessary) the event store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = ":memory:"
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = "1GB"
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	// Auto-install/auto-load disabled so a restricted-network host
	// cannot hang on extension downloads.
	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory,
	)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}

	// DuckDB is embedded; a single writer connection avoids write-write
	// conflicts while reads multiplex freely.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(0)

	s := &Store{
		conn:   conn,
		logger: logger.With().Str("component", "events").Logger(),
	}
	if _, err := conn.Exec(schemaDDL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize event schema: %w", err)
	}

	s.logger.Info().Str("path", cfg.Path).Msg("event store opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Insert writes a batch of events in one transaction.
func (s *Store) Insert(ctx context.Context, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO behavior_events (user_id, session_duration, pages_viewed, actions, item_id, item_category, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range batch {
		e := &batch[i]
		if _, err := stmt.ExecContext(ctx,
			e.UserID, e.SessionDuration, e.PagesViewed, e.Actions,
			e.ItemID, e.ItemCategory, e.Timestamp,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM behavior_events`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Events returns all stored events ordered by timestamp then id, the
// stable order the feature layer builds datasets from.
func (s *Store) Events(ctx context.Context) ([]Event, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT user_id, session_duration, pages_viewed, actions, item_id, item_category, ts
		FROM behavior_events
		ORDER BY ts, id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.UserID, &e.SessionDuration, &e.PagesViewed, &e.Actions,
			&e.ItemID, &e.ItemCategory, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Categories returns the distinct item categories in sorted order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT DISTINCT item_category FROM behavior_events ORDER BY item_category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
