package history

import (
	"errors"
	"sync"
	"time"

	"github.com/nxneeraj/hx-sentry/pkg/types"
)

var (
	// ErrDuplicateID means a session with the same scan ID is already stored.
	ErrDuplicateID = errors.New("scan id already present")
	// ErrNotFound means no session with the given scan ID exists.
	ErrNotFound = errors.New("scan not found")
)

// Store is the ordered scan history, newest first. It owns its sessions
// exclusively: callers get copies and mutate in-flight sessions only through
// the Begin/Complete/Fail methods below.
type Store struct {
	mu       sync.RWMutex
	sessions []*types.ScanSession
	byID     map[string]*types.ScanSession
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*types.ScanSession)}
}

// Add prepends a session to the history. Scan IDs are unique across the
// store; a collision returns ErrDuplicateID.
func (st *Store) Add(s *types.ScanSession) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.byID[s.ScanID]; exists {
		return ErrDuplicateID
	}
	st.sessions = append([]*types.ScanSession{s}, st.sessions...)
	st.byID[s.ScanID] = s
	return nil
}

// Remove deletes a session by ID. Removing an absent ID is a no-op, since
// deletions race with stale UI state.
func (st *Store) Remove(scanID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.byID[scanID]; !exists {
		return
	}
	delete(st.byID, scanID)
	for i, s := range st.sessions {
		if s.ScanID == scanID {
			st.sessions = append(st.sessions[:i], st.sessions[i+1:]...)
			break
		}
	}
}

// Find returns a copy of the session with the given ID.
func (st *Store) Find(scanID string) (types.ScanSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, exists := st.byID[scanID]
	if !exists {
		return types.ScanSession{}, false
	}
	return *s, true
}

// List returns a snapshot of the history, newest first.
func (st *Store) List() []types.ScanSession {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]types.ScanSession, len(st.sessions))
	for i, s := range st.sessions {
		out[i] = *s
	}
	return out
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Replace swaps the whole history for a freshly fetched one, e.g. after a
// reconcile against the backend. Later duplicates of the same ID are dropped.
func (st *Store) Replace(sessions []types.ScanSession) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sessions = st.sessions[:0]
	st.byID = make(map[string]*types.ScanSession, len(sessions))
	for i := range sessions {
		s := sessions[i]
		if _, exists := st.byID[s.ScanID]; exists {
			continue
		}
		st.sessions = append(st.sessions, &s)
		st.byID[s.ScanID] = &s
	}
}

// Begin marks a stored pending session as running.
func (st *Store) Begin(scanID string) error {
	return st.transition(scanID, func(s *types.ScanSession) error { return s.Begin() })
}

// Complete finishes a stored running session with its findings.
func (st *Store) Complete(scanID string, vulns []types.Vulnerability) error {
	return st.transition(scanID, func(s *types.ScanSession) error { return s.Complete(vulns) })
}

// Fail finishes a stored running session with an error message.
func (st *Store) Fail(scanID, msg string) error {
	return st.transition(scanID, func(s *types.ScanSession) error { return s.Fail(msg) })
}

func (st *Store) transition(scanID string, fn func(*types.ScanSession) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.byID[scanID]
	if !exists {
		return ErrNotFound
	}
	return fn(s)
}

// Stats folds the current history into the dashboard counters using the
// local clock for the "today" bucket.
func (st *Store) Stats() types.Stats {
	return st.StatsAt(time.Now())
}

// StatsAt recomputes the aggregate counters from scratch relative to the
// given instant. A fresh fold every call keeps the counters honest after
// deletions; history is dashboard-scale, not high-throughput.
func (st *Store) StatsAt(now time.Time) types.Stats {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var stats types.Stats
	for _, s := range st.sessions {
		stats.TotalScans++
		if sameDay(s.StartedAt.In(now.Location()), now) {
			stats.ScansToday++
		}
		if s.Summary == nil {
			continue
		}
		stats.TotalVulnerabilities += s.Summary.Total
		if s.Summary.Counts[types.RiskCritical] > 0 {
			stats.CriticalCount++
		}
		if s.Summary.Counts[types.RiskHigh] > 0 {
			stats.HighCount++
		}
	}
	return stats
}

// sameDay compares local calendar dates; the boundary is local midnight.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
