package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScanStatus is the lifecycle state of a scan session.
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
)

var (
	// ErrNotPending is returned when Begin is called on a session that
	// already left the pending state.
	ErrNotPending = errors.New("session is not pending")
	// ErrNotRunning is returned when a terminal transition is attempted on
	// a session that is not running. Terminal transitions happen at most
	// once; a finished session is immutable.
	ErrNotRunning = errors.New("session is not running")
)

// ScanSession is one end-to-end scan of a single target. It moves through
// pending -> running -> completed|failed and never changes again after
// reaching a terminal state. There is no cancellation: a submitted scan
// either completes or fails.
type ScanSession struct {
	ScanID          string          `json:"scan_id"`
	Target          string          `json:"target"`
	ScanType        ScanType        `json:"scan_type"`
	Status          ScanStatus      `json:"status"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Summary         *Summary        `json:"summary,omitempty"`
	ErrorMessage    string          `json:"error,omitempty"`
}

// NewSession creates a pending session for the given target. Scan IDs are
// random UUIDs; timestamp-derived IDs collide under a fast double submit.
func NewSession(target string, scanType ScanType) *ScanSession {
	return &ScanSession{
		ScanID:          uuid.NewString(),
		Target:          target,
		ScanType:        scanType,
		Status:          StatusPending,
		StartedAt:       time.Now(),
		Vulnerabilities: []Vulnerability{},
	}
}

// Terminal reports whether the session reached completed or failed.
func (s *ScanSession) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Begin moves a pending session to running.
func (s *ScanSession) Begin() error {
	if s.Status != StatusPending {
		return ErrNotPending
	}
	s.Status = StatusRunning
	return nil
}

// Complete finishes a running session. The vulnerability list and its
// derived summary are set together; there is no observable state where one
// is present without the other.
func (s *ScanSession) Complete(vulns []Vulnerability) error {
	if s.Status != StatusRunning {
		return ErrNotRunning
	}
	if vulns == nil {
		vulns = []Vulnerability{}
	}
	sum := Summarize(vulns)
	now := time.Now()
	s.Vulnerabilities = vulns
	s.Summary = &sum
	s.CompletedAt = &now
	s.Status = StatusCompleted
	return nil
}

// Fail finishes a running session with an error message. Vulnerabilities
// and summary stay absent.
func (s *ScanSession) Fail(msg string) error {
	if s.Status != StatusRunning {
		return ErrNotRunning
	}
	now := time.Now()
	s.ErrorMessage = msg
	s.CompletedAt = &now
	s.Status = StatusFailed
	return nil
}
