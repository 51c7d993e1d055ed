package market

import "sync"

// Store holds the opening/current pair per key for the life of a session.
// Records are never deleted mid-session; only a session boundary clears
// state (by constructing a fresh Store).
//
// The stream consumer is the single writer, but the HTTP snapshot reader may
// race it, so access is mutex-guarded. Opening-immutability is the one
// invariant that must never race.
type Store struct {
	mu      sync.RWMutex
	records map[Key]*Record
}

func NewStore() *Store {
	return &Store{records: map[Key]*Record{}}
}

// Apply records a change and returns the resulting record by value. The
// first change seen for a key becomes the write-once opening; every later
// change replaces current, including arrivals whose timestamp is older than
// the stored one. The feed gives no ordering guarantee and is authoritative
// for "current state", so latest-arrival wins over latest-timestamp.
func (s *Store) Apply(change LineChange) Record {
	key := change.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		rec = &Record{Opening: change, Current: change}
		s.records[key] = rec
		return *rec
	}
	rec.Current = change
	return *rec
}

func (s *Store) Get(key Key) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// All returns a copy of every record for snapshotting.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
