package ledger

import (
	"errors"
	"testing"

	"github.com/conorfennell/tango/internal/domain"
	"github.com/conorfennell/tango/internal/srs"
	"github.com/conorfennell/tango/internal/storage"
)

type memStore struct {
	blobs  map[string][]byte
	puts   int
	putErr error
	getErr error
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Get(key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Put(key string, value []byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.blobs[key] = append([]byte(nil), value...)
	return nil
}

const today = 20000

func mustLoad(t *testing.T, store BlobStore) *Ledger {
	t.Helper()
	l, err := Load(store)
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	return l
}

func TestLoad(t *testing.T) {
	t.Run("missing blob gives an empty ledger", func(t *testing.T) {
		l := mustLoad(t, newMemStore())
		if l.Len() != 0 {
			t.Errorf("Expected an empty ledger, but got %d entries", l.Len())
		}
	})

	t.Run("stored blob is read", func(t *testing.T) {
		store := newMemStore()
		store.blobs[storage.LedgerKey] = []byte(`{"5":{"interval":4,"due":20003},"7":{"interval":-2,"due":1}}`)
		l := mustLoad(t, store)

		s, ok := l.Get(5)
		if !ok || s.Interval != 4 || s.Due != 20003 {
			t.Errorf("Unexpected state for card 5: %+v (found %v)", s, ok)
		}
		s, _ = l.Get(7)
		if s.Interval != 0 {
			t.Errorf("Expected a negative interval to be clamped to 0, but got %d", s.Interval)
		}
	})

	t.Run("corrupt blob degrades to empty", func(t *testing.T) {
		store := newMemStore()
		store.blobs[storage.LedgerKey] = []byte(`{not json`)
		l, err := Load(store)

		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("Expected a *DecodeError, but got %v", err)
		}
		if l == nil || l.Len() != 0 {
			t.Fatal("Expected a usable empty ledger alongside the error")
		}
		if _, err := l.RecordGood(1, today); err != nil {
			t.Errorf("Expected the degraded ledger to accept writes, but got %v", err)
		}
	})

	t.Run("non-numeric key is corrupt", func(t *testing.T) {
		store := newMemStore()
		store.blobs[storage.LedgerKey] = []byte(`{"abc":{"interval":1,"due":1}}`)
		_, err := Load(store)
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Errorf("Expected a *DecodeError, but got %v", err)
		}
	})

	t.Run("read failure degrades to empty", func(t *testing.T) {
		store := newMemStore()
		store.getErr = errors.New("disk on fire")
		l, err := Load(store)
		if err == nil {
			t.Error("Expected the read failure to be reported")
		}
		if l == nil || l.Len() != 0 {
			t.Error("Expected a usable empty ledger alongside the error")
		}
	})
}

func TestRecordGood(t *testing.T) {
	store := newMemStore()
	l := mustLoad(t, store)

	expected := []int{1, 2, 4, 7, 15, 30, 60, 120, 120}
	for i, interval := range expected {
		s, err := l.RecordGood(3, today)
		if err != nil {
			t.Fatalf("RecordGood() returned an unexpected error: %v", err)
		}
		if s.Interval != interval || s.Due != today+interval {
			t.Fatalf("Step %d: expected {%d %d}, but got %+v", i, interval, today+interval, s)
		}
		got, _ := l.Get(3)
		if got != s {
			t.Fatalf("Step %d: expected Get to return %+v, but got %+v", i, s, got)
		}
	}
	if store.puts != len(expected) {
		t.Errorf("Expected one write per grade (%d), but got %d", len(expected), store.puts)
	}
}

func TestRecordAgain(t *testing.T) {
	l := mustLoad(t, newMemStore())
	for i := 0; i < 4; i++ {
		if _, err := l.RecordGood(9, today); err != nil {
			t.Fatalf("RecordGood() returned an unexpected error: %v", err)
		}
	}

	s, err := l.RecordAgain(9, today+10)
	if err != nil {
		t.Fatalf("RecordAgain() returned an unexpected error: %v", err)
	}
	if s.Interval != 0 || s.Due != today+10 {
		t.Errorf("Expected {0 %d}, but got %+v", today+10, s)
	}
	if l.Learned(9) {
		t.Error("Expected a failed card not to count as learned")
	}

	s, err = l.RecordAgain(10, today)
	if err != nil || s.Interval != 0 || s.Due != today {
		t.Errorf("Expected an unseen card to be recorded as {0 %d}, but got %+v (%v)", today, s, err)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := newMemStore()
	l := mustLoad(t, store)
	if _, err := l.RecordGood(1, today); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RecordAgain(2, today); err != nil {
		t.Fatal(err)
	}

	reloaded := mustLoad(t, store)
	if got := reloaded.Numbers(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected cards [1 2] after reload, but got %v", got)
	}
	s, _ := reloaded.Get(1)
	if s != (domain.ReviewState{Interval: 1, Due: today + 1}) {
		t.Errorf("Unexpected reloaded state: %+v", s)
	}
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	store := newMemStore()
	l := mustLoad(t, store)
	store.putErr = errors.New("read-only")

	if _, err := l.RecordGood(4, today); err == nil {
		t.Error("Expected the write failure to be reported")
	}
	if !l.Learned(4) {
		t.Error("Expected the in-memory state to be updated despite the write failure")
	}
}

func TestLearnedAndDue(t *testing.T) {
	l := mustLoad(t, newMemStore())
	if _, err := l.RecordGood(1, today); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RecordAgain(2, today); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		no      int
		learned bool
		dueNow  bool
		dueNext bool
	}{
		{no: 1, learned: true, dueNow: false, dueNext: true},
		{no: 2, learned: false, dueNow: true, dueNext: true},
		{no: 3, learned: false, dueNow: false, dueNext: false},
	}
	for _, tc := range testCases {
		if got := l.Learned(tc.no); got != tc.learned {
			t.Errorf("Card %d: expected Learned %v, but got %v", tc.no, tc.learned, got)
		}
		if got := l.Due(tc.no, today); got != tc.dueNow {
			t.Errorf("Card %d: expected Due today %v, but got %v", tc.no, tc.dueNow, got)
		}
		if got := l.Due(tc.no, today+1); got != tc.dueNext {
			t.Errorf("Card %d: expected Due tomorrow %v, but got %v", tc.no, tc.dueNext, got)
		}
	}
}

func TestRecordMatchesSchedule(t *testing.T) {
	l := mustLoad(t, newMemStore())
	for prev := 0; prev < 5; prev++ {
		before, _ := l.Get(8)
		s, err := l.RecordGood(8, today)
		if err != nil {
			t.Fatal(err)
		}
		if want := srs.Growth(before.Interval); s.Interval != want || s.Due != today+want {
			t.Errorf("Expected {%d %d}, but got %+v", want, today+want, s)
		}
	}
}
