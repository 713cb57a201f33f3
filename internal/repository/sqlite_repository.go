package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/abelzeko/people-counter/internal/entities"
	_ "github.com/mattn/go-sqlite3"
)

// Times are stored as unix microseconds. SQLite has no sub-second clock
// function older than unixepoch('subsec'), so julianday is converted instead.
const sqliteNowMicros = `CAST((julianday('now') - 2440587.5) * 86400000000 AS INTEGER)`

const microsPerHour = int64(time.Hour / time.Microsecond)

// SQLiteObservationRepository implements ObservationRepository using SQLite
type SQLiteObservationRepository struct {
	db *sql.DB
}

// NewSQLiteObservationRepository prepares the schema on db and wraps it
func NewSQLiteObservationRepository(db *sql.DB) (*SQLiteObservationRepository, error) {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS line (
		time INTEGER NOT NULL,
		nb_people INTEGER NOT NULL,
		source TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_line_time ON line(time);`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, storeError("failed to create tables", err)
	}

	return &SQLiteObservationRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteObservationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func scanSQLiteObservation(s scanner) (entities.Observation, error) {
	var (
		micros int64
		nb     int32
		source sql.NullString
	)
	if err := s.Scan(&micros, &nb, &source); err != nil {
		return entities.Observation{}, err
	}
	return entities.Observation{
		Time:     time.UnixMicro(micros).UTC(),
		NbPeople: nb,
		Source:   nullableSource(source),
	}, nil
}

// Append stores a new observation stamped with the database clock
func (r *SQLiteObservationRepository) Append(ctx context.Context, nbPeople int32, source *string) (entities.Observation, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO line (time, nb_people, source)
		VALUES (`+sqliteNowMicros+`, ?, ?)
		RETURNING time, nb_people, source`,
		nbPeople, source,
	)

	obs, err := scanSQLiteObservation(row)
	if err != nil {
		return entities.Observation{}, storeError("failed to insert observation", err)
	}
	return obs, nil
}

// QueryLatest returns the most recent observations
func (r *SQLiteObservationRepository) QueryLatest(ctx context.Context, limit int) ([]entities.Observation, error) {
	if limit <= 0 {
		return []entities.Observation{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT time, nb_people, source
		FROM line
		ORDER BY time DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storeError("failed to query latest observations", err)
	}
	return collectObservations(rows, scanSQLiteObservation)
}

// QueryRange returns observations within [start, end)
func (r *SQLiteObservationRepository) QueryRange(ctx context.Context, start, end time.Time) ([]entities.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT time, nb_people, source
		FROM line
		WHERE time >= ? AND time < ?
		ORDER BY time DESC, rowid DESC`,
		start.UnixMicro(), end.UnixMicro())
	if err != nil {
		return nil, storeError("failed to query observations in range", err)
	}
	return collectObservations(rows, scanSQLiteObservation)
}

// QueryHourBuckets groups observations within [start, end) by hour of loc.
// The UTC offset of loc at start is used for the whole window.
func (r *SQLiteObservationRepository) QueryHourBuckets(ctx context.Context, start, end time.Time, loc *time.Location) ([]entities.HourBucket, error) {
	_, offset := start.In(loc).Zone()
	offsetMicros := int64(offset) * int64(time.Second/time.Microsecond)

	rows, err := r.db.QueryContext(ctx, `
		SELECT ((time + ?) / ?) * ? - ? AS bucket, SUM(nb_people)
		FROM line
		WHERE time >= ? AND time < ?
		GROUP BY bucket
		ORDER BY bucket ASC`,
		offsetMicros, microsPerHour, microsPerHour, offsetMicros,
		start.UnixMicro(), end.UnixMicro())
	if err != nil {
		return nil, storeError("failed to query hour buckets", err)
	}
	defer rows.Close()

	buckets := []entities.HourBucket{}
	for rows.Next() {
		var bucket, total int64
		if err := rows.Scan(&bucket, &total); err != nil {
			return nil, storeError("failed to scan row", err)
		}
		buckets = append(buckets, entities.HourBucket{
			Start: time.UnixMicro(bucket).UTC(),
			Total: total,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("error during row iteration", err)
	}
	return buckets, nil
}

// Now returns the database clock
func (r *SQLiteObservationRepository) Now(ctx context.Context) (time.Time, error) {
	var micros int64
	if err := r.db.QueryRowContext(ctx, `SELECT `+sqliteNowMicros).Scan(&micros); err != nil {
		return time.Time{}, storeError("failed to read store clock", err)
	}
	return time.UnixMicro(micros).UTC(), nil
}
