package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/tango/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Keys of the two state documents.
const (
	LedgerKey = "srs_v3"
	DailyKey  = "daily_v3"
)

// ErrNotFound is returned by Get when no blob is stored under a key.
var ErrNotFound = errors.New("storage: not found")

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
// Use ":memory:" for a throwaway database.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Get returns the blob stored under key, or ErrNotFound.
func (db *DB) Get(key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blob %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the blob stored under key.
func (db *DB) Put(key string, value []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put blob %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// InsertReview appends a grade event to the review history.
func (db *DB) InsertReview(r domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO reviews (card_no, day, rating, interval, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		r.CardNo,
		r.Day,
		r.Rating,
		r.Interval,
		r.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert review for card %d: %w", r.CardNo, err)
	}
	return nil
}

// ReviewsOnDay returns the grade events recorded on a day number, oldest first.
func (db *DB) ReviewsOnDay(day int) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_no, day, rating, interval, reviewed_at
		FROM reviews WHERE day = ?
		ORDER BY id
	`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for day %d: %w", day, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var r domain.ReviewLog
		if err := rows.Scan(&r.CardNo, &r.Day, &r.Rating, &r.Interval, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan review row for day %d: %w", day, err)
		}
		logs = append(logs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reviews for day %d: %w", day, err)
	}
	return logs, nil
}

// CardHistory returns every grade event for one card, oldest first.
func (db *DB) CardHistory(cardNo int) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_no, day, rating, interval, reviewed_at
		FROM reviews WHERE card_no = ?
		ORDER BY id
	`, cardNo)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for card %d: %w", cardNo, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var r domain.ReviewLog
		if err := rows.Scan(&r.CardNo, &r.Day, &r.Rating, &r.Interval, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row for card %d: %w", cardNo, err)
		}
		logs = append(logs, r)
	}
	return logs, rows.Err()
}
