package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/abelzeko/people-counter/internal/entities"
	_ "github.com/lib/pq"
)

// PostgresObservationRepository implements ObservationRepository using PostgreSQL
type PostgresObservationRepository struct {
	db *sql.DB
}

// NewPostgresObservationRepository prepares the schema on db and wraps it
func NewPostgresObservationRepository(db *sql.DB) (*PostgresObservationRepository, error) {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS line (
		time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		nb_people INTEGER NOT NULL,
		source TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_line_time ON line(time);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, storeError("failed to create tables", err)
	}

	return &PostgresObservationRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresObservationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func scanPostgresObservation(s scanner) (entities.Observation, error) {
	var (
		ts     time.Time
		nb     int32
		source sql.NullString
	)
	if err := s.Scan(&ts, &nb, &source); err != nil {
		return entities.Observation{}, err
	}
	return entities.Observation{
		Time:     ts.UTC(),
		NbPeople: nb,
		Source:   nullableSource(source),
	}, nil
}

// Append stores a new observation stamped with NOW()
func (r *PostgresObservationRepository) Append(ctx context.Context, nbPeople int32, source *string) (entities.Observation, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO line (time, nb_people, source)
		VALUES (NOW(), $1, $2)
		RETURNING time, nb_people, source`,
		nbPeople, source,
	)

	obs, err := scanPostgresObservation(row)
	if err != nil {
		return entities.Observation{}, storeError("failed to insert observation", err)
	}
	return obs, nil
}

// QueryLatest returns the most recent observations
func (r *PostgresObservationRepository) QueryLatest(ctx context.Context, limit int) ([]entities.Observation, error) {
	if limit <= 0 {
		return []entities.Observation{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT time, nb_people, source
		FROM line
		ORDER BY time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, storeError("failed to query latest observations", err)
	}
	return collectObservations(rows, scanPostgresObservation)
}

// QueryRange returns observations within [start, end)
func (r *PostgresObservationRepository) QueryRange(ctx context.Context, start, end time.Time) ([]entities.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT time, nb_people, source
		FROM line
		WHERE time >= $1 AND time < $2
		ORDER BY time DESC`,
		start, end)
	if err != nil {
		return nil, storeError("failed to query observations in range", err)
	}
	return collectObservations(rows, scanPostgresObservation)
}

// QueryHourBuckets groups observations within [start, end) by hour of loc.
// loc must carry an IANA name PostgreSQL understands.
func (r *PostgresObservationRepository) QueryHourBuckets(ctx context.Context, start, end time.Time, loc *time.Location) ([]entities.HourBucket, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('hour', time, $3) AS bucket, SUM(nb_people)
		FROM line
		WHERE time >= $1 AND time < $2
		GROUP BY bucket
		ORDER BY bucket ASC`,
		start, end, loc.String())
	if err != nil {
		return nil, storeError("failed to query hour buckets", err)
	}
	defer rows.Close()

	buckets := []entities.HourBucket{}
	for rows.Next() {
		var (
			bucket time.Time
			total  int64
		)
		if err := rows.Scan(&bucket, &total); err != nil {
			return nil, storeError("failed to scan row", err)
		}
		buckets = append(buckets, entities.HourBucket{Start: bucket.UTC(), Total: total})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error during row iteration", err)
	}
	return buckets, nil
}

// Now returns the database clock
func (r *PostgresObservationRepository) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := r.db.QueryRowContext(ctx, `SELECT NOW()`).Scan(&now); err != nil {
		return time.Time{}, storeError("failed to read store clock", err)
	}
	return now.UTC(), nil
}
