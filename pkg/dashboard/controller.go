// Package dashboard holds the controller that drives all dashboard state:
// scan submission, selection, deletion and reconciliation with the scanning
// backend. The presentation layer only ever reads snapshots from here and
// never touches the store directly.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nxneeraj/hx-sentry/pkg/history"
	"github.com/nxneeraj/hx-sentry/pkg/types"
)

var (
	// ErrEmptyTarget rejects a blank scan target before any backend call.
	ErrEmptyTarget = errors.New("scan target is empty")
	// ErrScanInFlight rejects a submission while another one is outstanding.
	ErrScanInFlight = errors.New("a scan is already in flight")
)

// Collaborator is the scanning backend as seen from the controller.
type Collaborator interface {
	QuickScan(ctx context.Context, target string, scanType types.ScanType) ([]types.Vulnerability, error)
	ListScans(ctx context.Context, limit int) ([]types.ScanSession, error)
	Stats(ctx context.Context) (types.Stats, error)
	DeleteScan(ctx context.Context, scanID string) error
}

// State is one consistent snapshot of everything the presentation layer
// renders. All spec'd UI state lives in this single object instead of a
// handful of loose flags.
type State struct {
	Sessions     []types.ScanSession
	Stats        types.Stats
	Selected     *types.ScanSession
	SelectedVuln *types.Vulnerability
	Scanning     bool
	ErrorMessage string
}

// Controller owns the dashboard session. A single logical actor drives all
// mutation; the mutex only guards against the async stats refresh.
type Controller struct {
	mu      sync.Mutex
	store   *history.Store
	backend Collaborator
	timeout time.Duration

	selectedID   string
	selectedVuln *types.Vulnerability
	scanning     bool
	stats        types.Stats
	errMsg       string
}

// NewController wires a controller to its store and backend. The timeout
// bounds every collaborator call; a hung scan fails instead of leaving the
// scanning flag stuck forever.
func NewController(store *history.Store, backend Collaborator, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Controller{store: store, backend: backend, timeout: timeout}
}

// SubmitScan runs one scan end to end. The target must be non-empty after
// trimming; submissions are single-flight while one is outstanding. Backend
// failures are not returned to the caller: they surface as the snapshot's
// ErrorMessage, leave no trace in history, and clear the scanning flag.
func (c *Controller) SubmitScan(ctx context.Context, target string, scanType types.ScanType) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return ErrEmptyTarget
	}

	c.mu.Lock()
	if c.scanning {
		c.mu.Unlock()
		return ErrScanInFlight
	}
	c.scanning = true
	c.errMsg = ""
	c.mu.Unlock()

	sess := types.NewSession(target, scanType)
	_ = sess.Begin()

	scanCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	vulns, err := c.backend.QuickScan(scanCtx, target, scanType)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scanning = false

	if err != nil {
		_ = sess.Fail(err.Error())
		c.errMsg = "scan failed: " + err.Error()
		logrus.WithFields(logrus.Fields{"target": target, "scan_type": scanType}).
			WithError(err).Error("scan submission failed")
		return nil
	}

	_ = sess.Complete(vulns)
	if addErr := c.store.Add(sess); addErr != nil {
		// A UUID collision is a defect, not an operator problem.
		logrus.WithError(addErr).Error("could not store completed scan")
		c.errMsg = "scan completed but could not be stored"
		return nil
	}
	c.selectedID = sess.ScanID
	c.selectedVuln = nil
	c.stats = c.store.Stats()
	go c.refreshStatsAsync()
	return nil
}

// SelectSession sets the currently viewed session. No side effects on the
// store; selecting an unknown ID returns history.ErrNotFound.
func (c *Controller) SelectSession(scanID string) error {
	if _, ok := c.store.Find(scanID); !ok {
		return history.ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = scanID
	c.selectedVuln = nil
	return nil
}

// SelectVulnerability opens the detail view for one finding. Purely a UI
// projection, never persisted.
func (c *Controller) SelectVulnerability(v types.Vulnerability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vv := v
	c.selectedVuln = &vv
}

// ClearVulnerabilitySelection closes the detail view.
func (c *Controller) ClearVulnerabilitySelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedVuln = nil
}

// DeleteSession removes a scan locally and, best-effort, from the backend.
// The local removal is optimistic: a failed remote delete is logged and not
// rolled back. If the deleted session was selected the selection clears.
func (c *Controller) DeleteSession(ctx context.Context, scanID string) {
	delCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.backend.DeleteScan(delCtx, scanID); err != nil {
		logrus.WithField("scan_id", scanID).WithError(err).Warn("remote delete failed")
	}

	c.store.Remove(scanID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedID == scanID {
		c.selectedID = ""
		c.selectedVuln = nil
	}
	c.stats = c.store.Stats()
	go c.refreshStatsAsync()
}

// RefreshHistory re-pulls the scan history from the backend. Idempotent; on
// failure the last known good history stays visible and the error is only
// logged.
func (c *Controller) RefreshHistory(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	sessions, err := c.backend.ListScans(fetchCtx, 0)
	if err != nil {
		logrus.WithError(err).Warn("history refresh failed, keeping last known state")
		return
	}
	c.store.Replace(sessions)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedID != "" {
		if _, ok := c.store.Find(c.selectedID); !ok {
			c.selectedID = ""
			c.selectedVuln = nil
		}
	}
	c.stats = c.store.Stats()
}

// RefreshStats re-pulls the aggregate counters from the backend. Idempotent
// and safe to call redundantly; failures are logged, not surfaced.
func (c *Controller) RefreshStats(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	stats, err := c.backend.Stats(fetchCtx)
	if err != nil {
		logrus.WithError(err).Warn("stats refresh failed, keeping last known state")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = stats
}

func (c *Controller) refreshStatsAsync() {
	c.RefreshStats(context.Background())
}

// State builds a consistent snapshot for one render.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Sessions:     c.store.List(),
		Stats:        c.stats,
		Scanning:     c.scanning,
		ErrorMessage: c.errMsg,
	}
	if c.selectedID != "" {
		if sess, ok := c.store.Find(c.selectedID); ok {
			st.Selected = &sess
		}
	}
	if c.selectedVuln != nil {
		v := *c.selectedVuln
		st.SelectedVuln = &v
	}
	return st
}
