// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abelzeko/people-counter/internal/entities"
)

// ErrStoreUnavailable is returned when the store cannot be reached or a
// statement cannot be executed or committed.
var ErrStoreUnavailable = errors.New("store unavailable")

// ObservationRepository defines the append-only observation log.
// Read methods return observations ordered by time descending unless noted.
type ObservationRepository interface {
	// Append writes a new observation; the store assigns its time.
	Append(ctx context.Context, nbPeople int32, source *string) (entities.Observation, error)
	// QueryLatest returns at most limit observations. limit <= 0 yields none.
	QueryLatest(ctx context.Context, limit int) ([]entities.Observation, error)
	// QueryRange returns every observation with start <= time < end.
	QueryRange(ctx context.Context, start, end time.Time) ([]entities.Observation, error)
	// QueryHourBuckets sums nb_people per hour of loc over [start, end),
	// ordered by hour ascending. Hours without observations are omitted.
	QueryHourBuckets(ctx context.Context, start, end time.Time, loc *time.Location) ([]entities.HourBucket, error)
	// Now returns the store's current instant.
	Now(ctx context.Context) (time.Time, error)
	Close() error
}

const defaultSQLitePath = "data/people.db"

// Open opens the connection pool described by dsn and returns the matching
// repository. postgres:// and postgresql:// URLs select PostgreSQL, anything
// else is treated as a SQLite file path.
func Open(dsn string) (ObservationRepository, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Printf("Opening PostgreSQL database")
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, storeError("failed to open database", err)
		}
		repo, err := NewPostgresObservationRepository(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil
	}

	if dsn == "" {
		// Set default path if not specified
		dsn = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("Opening SQLite database at %s", dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, storeError("failed to open database", err)
	}
	repo, err := NewSQLiteObservationRepository(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func storeError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrStoreUnavailable, err)
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func nullableSource(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func collectObservations(rows *sql.Rows, scan func(scanner) (entities.Observation, error)) ([]entities.Observation, error) {
	defer rows.Close()

	result := []entities.Observation{}
	for rows.Next() {
		obs, err := scan(rows)
		if err != nil {
			return nil, storeError("failed to scan row", err)
		}
		result = append(result, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error during row iteration", err)
	}
	return result, nil
}
