// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver

	"github.com/tomtom215/ratingrec/internal/logging"
	"github.com/tomtom215/ratingrec/internal/recommend"
)

const duckDBQueryTimeout = 30 * time.Second

const createRatingsTable = `CREATE TABLE IF NOT EXISTS ratings (
	split   VARCHAR NOT NULL,
	user_id VARCHAR NOT NULL,
	item_id VARCHAR NOT NULL,
	rating  TINYINT NOT NULL,
	PRIMARY KEY (split, user_id, item_id)
)`

// DuckDBProvider stores a split in a DuckDB ratings table.
type DuckDBProvider struct {
	conn *sql.DB
	path string
}

// OpenDuckDBProvider opens the database at path and creates the ratings
// table if needed. An empty path opens an in-memory database.
func OpenDuckDBProvider(path string) (*DuckDBProvider, error) {
	if path == "" {
		path = ":memory:"
	}
	connStr := path + "?autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives as long as its single connection.
	conn.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), duckDBQueryTimeout)
	defer cancel()
	if _, err := conn.ExecContext(ctx, createRatingsTable); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create ratings table: %w", err)
	}
	return &DuckDBProvider{conn: conn, path: path}, nil
}

// Name implements Provider.
func (p *DuckDBProvider) Name() string { return string(KindDuckDB) }

// Load reads the ratings table. An empty table is reported as not found.
func (p *DuckDBProvider) Load(ctx context.Context) (ds *recommend.Dataset, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, duckDBQueryTimeout)
	defer cancel()

	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Error().Err(rbErr).Msg("DuckDB read transaction rollback failed")
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT split, user_id, item_id, rating FROM ratings`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ds = recommend.NewDataset()
	n := 0
	for rows.Next() {
		var (
			split, user, item string
			rating            int
		)
		if err := rows.Scan(&split, &user, &item, &rating); err != nil {
			return nil, false, fmt.Errorf("failed to scan rating: %w", err)
		}
		if err := put(ds, split, recommend.UserID(user), recommend.ItemID(item), recommend.Rating(rating)); err != nil {
			return nil, false, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	if n == 0 {
		return nil, false, nil
	}
	return ds, true, nil
}

// Save replaces the table contents with ds in a single transaction.
func (p *DuckDBProvider) Save(ctx context.Context, ds *recommend.Dataset) (err error) {
	if ds == nil {
		return recommend.ErrInvalidDataset
	}
	ctx, cancel := context.WithTimeout(ctx, duckDBQueryTimeout)
	defer cancel()

	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	// Recreate rather than DELETE so that re-inserting existing keys in the
	// same transaction cannot trip the primary key.
	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS ratings`); err != nil {
		return fmt.Errorf("failed to clear ratings: %w", err)
	}
	if _, err = tx.ExecContext(ctx, createRatingsTable); err != nil {
		return fmt.Errorf("failed to create ratings table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ratings (split, user_id, item_id, rating) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, split := range []string{SplitTrain, SplitTest} {
		ratings := ratingsFor(ds, split)
		for _, user := range ratings.Users() {
			for item, r := range ratings[user] {
				if _, err = stmt.ExecContext(ctx, split, string(user), string(item), int8(r)); err != nil {
					return fmt.Errorf("failed to insert rating for user %q item %q: %w", user, item, err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ratings: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *DuckDBProvider) Close() error {
	return p.conn.Close()
}
