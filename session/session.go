// Package session implements the per-scan streaming sink: a bounded,
// oldest-dropped log ring buffer and a replaced-on-write result snapshot,
// evicted after a post-completion TTL. External observers poll it; each
// call returns a full copy so observers diff on their own side.
package session

import (
	"sync"
	"time"

	"github.com/grantelam/webscan/scan"
)

// entry is one session's mutable state.
type entry struct {
	mu          sync.Mutex
	logs        []scan.Log
	results     []scan.Result
	maxLogs     int
	completedAt time.Time
	retention   time.Duration
	done        bool
}

// Store is the process-wide scanId -> session registry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// Open creates a new session for scanID with the given log buffer capacity
// and post-completion retention window.
func (s *Store) Open(scanID string, maxLogEntries int, retention time.Duration) {
	if maxLogEntries <= 0 {
		maxLogEntries = 500
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[scanID] = &entry{maxLogs: maxLogEntries, retention: retention}
}

// AppendLog adds a log event to scanID's ring buffer, dropping the oldest
// entry if it is full (P7: the buffer never exceeds maxLogEntries).
func (s *Store) AppendLog(scanID string, log scan.Log) {
	e := s.get(scanID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logs = append(e.logs, log)
	if len(e.logs) > e.maxLogs {
		e.logs = e.logs[len(e.logs)-e.maxLogs:]
	}
}

// SetResults replaces scanID's result snapshot wholesale.
func (s *Store) SetResults(scanID string, results []scan.Result) {
	e := s.get(scanID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = results
}

// Logs returns a copy of scanID's current log buffer.
func (s *Store) Logs(scanID string) []scan.Log {
	e := s.get(scanID)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]scan.Log, len(e.logs))
	copy(out, e.logs)
	return out
}

// Results returns a copy of scanID's current result snapshot.
func (s *Store) Results(scanID string) []scan.Result {
	e := s.get(scanID)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]scan.Result, len(e.results))
	copy(out, e.results)
	return out
}

// MarkComplete records the time scanID's crawl finished; Sweep uses this to
// decide when the session's TTL has elapsed.
func (s *Store) MarkComplete(scanID string) {
	e := s.get(scanID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = true
	e.completedAt = time.Now()
}

// Sweep evicts every session whose retention window has elapsed since
// completion. The engine does not call it; it evicts each finished scan
// with a one-shot timer that calls Cleanup.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, e := range s.sessions {
		e.mu.Lock()
		expired := e.done && now.Sub(e.completedAt) >= e.retention
		e.mu.Unlock()
		if expired {
			delete(s.sessions, id)
		}
	}
}

// Cleanup immediately removes scanID regardless of TTL.
func (s *Store) Cleanup(scanID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, scanID)
}

func (s *Store) get(scanID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[scanID]
}
