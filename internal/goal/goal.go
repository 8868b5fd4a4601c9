// Package goal tracks the number of successful reviews against a daily target.
package goal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/conorfennell/tango/internal/domain"
	"github.com/conorfennell/tango/internal/storage"
)

// DefaultGoal is the daily target used when none has been configured.
const DefaultGoal = 10

// ErrInvalidGoal is returned when a goal below one is requested.
var ErrInvalidGoal = errors.New("goal: goal must be at least 1")

// BlobStore persists opaque documents by key.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// DecodeError reports a stored record that could not be read.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("goal: corrupt blob: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Progress is the daily record as shown to the user.
type Progress struct {
	Done    int // clamped to Goal
	Goal    int
	Percent int // clamped to 100
}

// Tracker owns the daily goal record.
type Tracker struct {
	store       BlobStore
	key         string
	defaultGoal int
	rec         domain.DailyGoal
}

// Load reads the daily record from store. Like ledger.Load, the returned
// Tracker is always usable and a non-nil error only informs the caller.
// Without a stored record the tracker starts at today with defaultGoal.
func Load(store BlobStore, defaultGoal, today int) (*Tracker, error) {
	if defaultGoal < 1 {
		defaultGoal = DefaultGoal
	}
	t := &Tracker{
		store:       store,
		key:         storage.DailyKey,
		defaultGoal: defaultGoal,
		rec:         domain.DailyGoal{Day: today, Goal: defaultGoal},
	}

	data, err := store.Get(t.key)
	if errors.Is(err, storage.ErrNotFound) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("failed to read daily goal: %w", err)
	}

	var rec domain.DailyGoal
	if err := json.Unmarshal(data, &rec); err != nil {
		return t, &DecodeError{Err: err}
	}
	if rec.GoodCount < 0 {
		rec.GoodCount = 0
	}
	t.rec = rec
	return t, nil
}

// EnsureCurrent starts a new day if the record is stale. The good count
// resets and the goal carries over. It reports whether a rollover happened.
func (t *Tracker) EnsureCurrent(today int) (bool, error) {
	if t.rec.Day == today {
		return false, nil
	}
	g := t.rec.Goal
	if g < 1 {
		g = t.defaultGoal
	}
	t.rec = domain.DailyGoal{Day: today, GoodCount: 0, Goal: g}
	return true, t.save()
}

// RecordGood counts one successful review for today.
func (t *Tracker) RecordGood(today int) (domain.DailyGoal, error) {
	if _, err := t.EnsureCurrent(today); err != nil {
		return t.rec, err
	}
	t.rec.GoodCount++
	return t.rec, t.save()
}

// SetGoal changes the daily target.
func (t *Tracker) SetGoal(n, today int) (domain.DailyGoal, error) {
	if n < 1 {
		return t.rec, ErrInvalidGoal
	}
	if _, err := t.EnsureCurrent(today); err != nil {
		return t.rec, err
	}
	t.rec.Goal = n
	return t.rec, t.save()
}

// Snapshot returns today's record, rolling it over first if needed.
func (t *Tracker) Snapshot(today int) (domain.DailyGoal, error) {
	_, err := t.EnsureCurrent(today)
	return t.rec, err
}

// Progress returns today's display values.
func (t *Tracker) Progress(today int) (Progress, error) {
	rec, err := t.Snapshot(today)
	return ProgressOf(rec), err
}

// ProgressOf converts a record into display values.
func ProgressOf(rec domain.DailyGoal) Progress {
	g := rec.Goal
	if g < 1 {
		g = DefaultGoal
	}
	done := rec.GoodCount
	if done > g {
		done = g
	}
	pct := int(math.Round(float64(rec.GoodCount) / float64(g) * 100))
	if pct > 100 {
		pct = 100
	}
	return Progress{Done: done, Goal: g, Percent: pct}
}

func (t *Tracker) save() error {
	data, err := json.Marshal(t.rec)
	if err != nil {
		return fmt.Errorf("failed to encode daily goal: %w", err)
	}
	if err := t.store.Put(t.key, data); err != nil {
		return fmt.Errorf("failed to save daily goal: %w", err)
	}
	return nil
}
