// Package store caches the latest diagnostic report per module, so new
// WebSocket clients can catch up without resubmitting scans.
package store

import (
	"sync"

	"pv_diagnostics/internal/model"
)

// Store holds module reports in memory, keyed by module ID. Insertion order
// is preserved for snapshots.
type Store struct {
	mu      sync.RWMutex
	reports map[string]model.ModuleReport
	order   []string
}

func New() *Store {
	return &Store{
		reports: make(map[string]model.ModuleReport),
	}
}

// Put stores or replaces the report for a module.
func (s *Store) Put(report model.ModuleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[report.ID]; !exists {
		s.order = append(s.order, report.ID)
	}
	s.reports[report.ID] = report
}

// Get returns the latest report for a module.
func (s *Store) Get(id string) (model.ModuleReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	return r, ok
}

// Len returns the number of cached reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Snapshot returns all cached reports in first-seen order.
func (s *Store) Snapshot() []model.ModuleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ModuleReport, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id])
	}
	return out
}
