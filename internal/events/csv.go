// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package events

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// csvColumns is the required header of an import file.
var csvColumns = []string{"user_id", "session_duration", "pages_viewed", "actions", "item_id", "item_category", "timestamp"}

// ImportCSV loads behavioral events from a CSV file with the standard
// header. Returns the number of imported rows.
func (s *Store) ImportCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range csvColumns {
		if _, ok := col[name]; !ok {
			return 0, fmt.Errorf("csv missing column %q", name)
		}
	}

	const batchSize = 1000
	batch := make([]Event, 0, batchSize)
	imported := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Insert(ctx, batch); err != nil {
			return err
		}
		imported += len(batch)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read csv row: %w", err)
		}

		e, err := parseCSVRow(record, col)
		if err != nil {
			return imported, err
		}
		batch = append(batch, e)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return imported, err
			}
		}
	}
	if err := flush(); err != nil {
		return imported, err
	}

	s.logger.Info().Str("path", path).Int("events", imported).Msg("csv import complete")
	return imported, nil
}

func parseCSVRow(record []string, col map[string]int) (Event, error) {
	var e Event
	e.UserID = record[col["user_id"]]
	e.ItemID = record[col["item_id"]]
	e.ItemCategory = record[col["item_category"]]

	var err error
	if e.SessionDuration, err = strconv.ParseFloat(record[col["session_duration"]], 64); err != nil {
		return e, fmt.Errorf("parse session_duration: %w", err)
	}
	if e.PagesViewed, err = strconv.Atoi(record[col["pages_viewed"]]); err != nil {
		return e, fmt.Errorf("parse pages_viewed: %w", err)
	}
	if e.Actions, err = strconv.Atoi(record[col["actions"]]); err != nil {
		return e, fmt.Errorf("parse actions: %w", err)
	}

	ts := record[col["timestamp"]]
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"} {
		if e.Timestamp, err = time.Parse(layout, ts); err == nil {
			return e, nil
		}
	}
	return e, fmt.Errorf("parse timestamp %q: %w", ts, err)
}
