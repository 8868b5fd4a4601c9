// Package ledger keeps the per-card review state and writes it through to a
// blob store after every change.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/conorfennell/tango/internal/domain"
	"github.com/conorfennell/tango/internal/srs"
	"github.com/conorfennell/tango/internal/storage"
)

// BlobStore persists opaque documents by key.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// DecodeError reports a stored ledger that could not be read.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ledger: corrupt blob: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Ledger maps card numbers to their review state.
type Ledger struct {
	store  BlobStore
	key    string
	states map[int]domain.ReviewState
}

// Load reads the ledger from store. The returned Ledger is always usable:
// a missing blob gives an empty ledger, and a blob that cannot be read gives
// an empty ledger together with a *DecodeError for the caller to report.
func Load(store BlobStore) (*Ledger, error) {
	l := &Ledger{
		store:  store,
		key:    storage.LedgerKey,
		states: make(map[int]domain.ReviewState),
	}

	data, err := store.Get(l.key)
	if errors.Is(err, storage.ErrNotFound) {
		return l, nil
	}
	if err != nil {
		return l, fmt.Errorf("failed to read ledger: %w", err)
	}

	states, err := Decode(data)
	if err != nil {
		return l, err
	}
	l.states = states
	return l, nil
}

// Decode parses a ledger blob of the form {"5":{"interval":2,"due":20000}}.
// Negative intervals are clamped to zero.
func Decode(data []byte) (map[int]domain.ReviewState, error) {
	var raw map[string]domain.ReviewState
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}

	states := make(map[int]domain.ReviewState, len(raw))
	for k, s := range raw {
		no, err := strconv.Atoi(k)
		if err != nil {
			return nil, &DecodeError{Err: fmt.Errorf("card key %q: %w", k, err)}
		}
		if s.Interval < 0 {
			s.Interval = 0
		}
		states[no] = s
	}
	return states, nil
}

// Encode serialises states in the same shape Decode reads.
func Encode(states map[int]domain.ReviewState) ([]byte, error) {
	raw := make(map[string]domain.ReviewState, len(states))
	for no, s := range states {
		raw[strconv.Itoa(no)] = s
	}
	return json.Marshal(raw)
}

// Get returns the state of a card, or false if it has never been graded.
func (l *Ledger) Get(no int) (domain.ReviewState, bool) {
	s, ok := l.states[no]
	return s, ok
}

// Len returns the number of graded cards.
func (l *Ledger) Len() int {
	return len(l.states)
}

// Numbers returns the graded card numbers in ascending order.
func (l *Ledger) Numbers() []int {
	nos := make([]int, 0, len(l.states))
	for no := range l.states {
		nos = append(nos, no)
	}
	sort.Ints(nos)
	return nos
}

// Learned reports whether a card has passed at least once since its last failure.
func (l *Ledger) Learned(no int) bool {
	s, ok := l.states[no]
	return ok && s.Interval > 0
}

// Due reports whether a graded card is scheduled on or before today.
// Cards that were never graded are never due.
func (l *Ledger) Due(no, today int) bool {
	s, ok := l.states[no]
	return ok && s.Due <= today
}

// RecordAgain resets a card to interval 0, due today.
func (l *Ledger) RecordAgain(no, today int) (domain.ReviewState, error) {
	return l.record(no, srs.Again, today)
}

// RecordGood grows a card's interval and schedules it that many days out.
func (l *Ledger) RecordGood(no, today int) (domain.ReviewState, error) {
	return l.record(no, srs.Good, today)
}

// record updates memory first, so a failed write still leaves the new state
// visible for this process.
func (l *Ledger) record(no int, rating srs.Rating, today int) (domain.ReviewState, error) {
	var prev *domain.ReviewState
	if s, ok := l.states[no]; ok {
		prev = &s
	}
	next := srs.Next(prev, rating, today)
	l.states[no] = next
	return next, l.Flush()
}

// Flush writes the whole ledger to the store.
func (l *Ledger) Flush() error {
	data, err := Encode(l.states)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := l.store.Put(l.key, data); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}
