package pipeline

import (
	"slices"
	"strings"
	"sync"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
)

// WindowStore keeps the trailing window of daily records per region. It is
// safe for concurrent use; the HTTP API reads while the pipeline writes.
type WindowStore struct {
	mu      sync.RWMutex
	size    int
	windows map[string][]domain.DailyRecord
}

// NewWindowStore creates a store that keeps at most size records per region.
func NewWindowStore(size int) *WindowStore {
	return &WindowStore{size: size, windows: make(map[string][]domain.DailyRecord)}
}

// Merge folds records into code's window and returns a copy of the result,
// newest first. A record for a date already held replaces it.
func (s *WindowStore) Merge(code string, records []domain.DailyRecord) []domain.DailyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := domain.TrailingWindow(domain.MergeRecords(s.windows[code], records), s.size)
	s.windows[code] = window
	return slices.Clone(window)
}

// Get returns a copy of code's window.
func (s *WindowStore) Get(code string) []domain.DailyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.windows[code])
}

// History returns a copy of every window keyed by region code.
func (s *WindowStore) History() map[string][]domain.DailyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]domain.DailyRecord, len(s.windows))
	for code, w := range s.windows {
		out[code] = slices.Clone(w)
	}
	return out
}

// Len returns the number of regions with a window.
func (s *WindowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows)
}

// SnapshotStore holds the latest snapshot per region.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.RegionSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]domain.RegionSnapshot)}
}

// Put replaces the stored snapshot for each snapshot's region.
func (s *SnapshotStore) Put(snapshots ...domain.RegionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snapshots {
		s.snapshots[snap.Region] = snap
	}
}

// Get returns the latest snapshot for code.
func (s *SnapshotStore) Get(code string) (domain.RegionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[strings.ToUpper(code)]
	return snap, ok
}

// All returns every snapshot ordered by region code.
func (s *SnapshotStore) All() []domain.RegionSnapshot {
	s.mu.RLock()
	out := make([]domain.RegionSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.RegionSnapshot) int {
		return strings.Compare(a.Region, b.Region)
	})
	return out
}
