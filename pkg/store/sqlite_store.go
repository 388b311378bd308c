/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

const (
	dbOperationTimeout = 5 * time.Second

	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS detectors (
		detector_type TEXT NOT NULL,
		address TEXT NOT NULL,
		port INTEGER NOT NULL,
		host TEXT NOT NULL,
		aliases TEXT NOT NULL DEFAULT '[]',
		addresses TEXT NOT NULL DEFAULT '[]',
		version TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		first_seen TIMESTAMP NOT NULL,
		last_seen TIMESTAMP NOT NULL,
		PRIMARY KEY (detector_type, address, port)
	);

	CREATE INDEX IF NOT EXISTS idx_detectors_last_seen
		ON detectors(last_seen);
	`
)

// SQLiteStore keeps identities in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" gives
// a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errOpenDB, err)
	}

	// one connection: an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %w", errOpenDB, err)
		}
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", errInitSchema, err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDetector(ctx context.Context, id *models.Identity) error {
	if id == nil || id.DetectorType == "" || id.Address == "" {
		return errInvalidItem
	}

	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	const query = `
        INSERT INTO detectors (
            detector_type, address, port, host, aliases, addresses, version, metadata, first_seen, last_seen
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(detector_type, address, port) DO UPDATE SET
            host = excluded.host,
            aliases = excluded.aliases,
            addresses = excluded.addresses,
            version = excluded.version,
            metadata = excluded.metadata,
            last_seen = excluded.last_seen
    `

	aliases, addresses, metadata, err := encodeLists(id)
	if err != nil {
		return fmt.Errorf("%w: %w", errSave, err)
	}

	seen := id.SeenAt
	if seen.IsZero() {
		seen = time.Now()
	}

	seen = seen.UTC()

	_, err = s.db.ExecContext(ctx, query,
		id.DetectorType, id.Address, id.Port, id.Host,
		aliases, addresses, id.Version, metadata,
		seen, seen,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errSave, err)
	}

	return nil
}

func encodeLists(id *models.Identity) (aliases, addresses, metadata string, err error) {
	a, err := json.Marshal(nonNil(id.Aliases))
	if err != nil {
		return "", "", "", err
	}

	b, err := json.Marshal(nonNil(id.Addresses))
	if err != nil {
		return "", "", "", err
	}

	m := id.Metadata
	if m == nil {
		m = map[string]string{}
	}

	c, err := json.Marshal(m)
	if err != nil {
		return "", "", "", err
	}

	return string(a), string(b), string(c), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

// queryBuilder helps construct SQL queries with parameters.
type queryBuilder struct {
	query string
	args  []interface{}
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		query: `
            SELECT detector_type, address, port, host, aliases, addresses, version, metadata, last_seen
            FROM detectors
            WHERE 1=1
        `,
	}
}

func (qb *queryBuilder) addTypeFilter(detectorType string) {
	if detectorType != "" {
		qb.query += " AND detector_type = ?"
		qb.args = append(qb.args, detectorType)
	}
}

func (qb *queryBuilder) addHostFilter(host string) {
	if host != "" {
		qb.query += " AND (host = ? OR address = ?)"
		qb.args = append(qb.args, host, host)
	}
}

func (qb *queryBuilder) addSinceFilter(since time.Time) {
	if !since.IsZero() {
		qb.query += " AND last_seen >= ?"
		qb.args = append(qb.args, since.UTC())
	}
}

func (qb *queryBuilder) finalize() (queryString string, queryArgs []interface{}) {
	qb.query += " ORDER BY detector_type, address, port"
	return qb.query, qb.args
}

func scanRow(rows *sql.Rows) (*models.Identity, error) {
	var (
		id                           models.Identity
		aliases, addresses, metadata string
	)

	err := rows.Scan(&id.DetectorType, &id.Address, &id.Port, &id.Host,
		&aliases, &addresses, &id.Version, &metadata, &id.SeenAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errScanRow, err)
	}

	if err := json.Unmarshal([]byte(aliases), &id.Aliases); err != nil {
		return nil, fmt.Errorf("%w: %w", errScanRow, err)
	}

	if err := json.Unmarshal([]byte(addresses), &id.Addresses); err != nil {
		return nil, fmt.Errorf("%w: %w", errScanRow, err)
	}

	if err := json.Unmarshal([]byte(metadata), &id.Metadata); err != nil {
		return nil, fmt.Errorf("%w: %w", errScanRow, err)
	}

	if len(id.Aliases) == 0 {
		id.Aliases = nil
	}

	if len(id.Metadata) == 0 {
		id.Metadata = nil
	}

	return &id, nil
}

func (s *SQLiteStore) ListDetectors(ctx context.Context, filter *models.DetectorFilter) ([]models.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	if filter == nil {
		filter = &models.DetectorFilter{}
	}

	qb := newQueryBuilder()
	qb.addTypeFilter(filter.DetectorType)
	qb.addHostFilter(filter.Host)
	qb.addSinceFilter(filter.Since)
	query, args := qb.finalize()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errQuery, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.S().Warnw("error closing rows", "error", err)
		}
	}(rows)

	var ids []models.Identity

	for rows.Next() {
		id, err := scanRow(rows)
		if err != nil {
			return nil, err
		}

		ids = append(ids, *id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errQuery, err)
	}

	return ids, nil
}

// PruneDetectors removes detectors not seen for age and returns how many
// were removed.
func (s *SQLiteStore) PruneDetectors(ctx context.Context, age time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbOperationTimeout)
	defer cancel()

	cutoff := time.Now().Add(-age).UTC()

	res, err := s.db.ExecContext(ctx, "DELETE FROM detectors WHERE last_seen < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errPrune, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errPrune, err)
	}

	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
