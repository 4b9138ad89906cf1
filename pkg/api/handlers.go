package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/nxneeraj/hx-sentry/pkg/history"
	"github.com/nxneeraj/hx-sentry/pkg/types"
)

// Engine is the external detection collaborator. The server never inspects
// tool manifests itself; it hands targets to the engine and stores whatever
// comes back.
type Engine interface {
	QuickScan(ctx context.Context, target string, scanType types.ScanType) ([]types.Vulnerability, error)
}

const defaultListLimit = 20

// Handler serves the dashboard REST surface over an in-memory history store.
type Handler struct {
	Store   *history.Store
	Engine  Engine
	Timeout time.Duration
}

// NewHandler creates a handler. The timeout bounds every engine call.
func NewHandler(store *history.Store, engine Engine, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{Store: store, Engine: engine, Timeout: timeout}
}

type scanRequest struct {
	Target   string `json:"target"`
	ScanType string `json:"scan_type"`
}

// parseScanRequest decodes and validates the shared request body of the
// scan endpoints.
func parseScanRequest(w http.ResponseWriter, r *http.Request) (string, types.ScanType, bool) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return "", "", false
	}
	defer r.Body.Close()

	target := strings.TrimSpace(req.Target)
	if target == "" {
		http.Error(w, "target cannot be empty", http.StatusBadRequest)
		return "", "", false
	}
	scanType := types.ScanTypeURL
	if req.ScanType != "" {
		parsed, err := types.ParseScanType(req.ScanType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return "", "", false
		}
		scanType = parsed
	}
	return target, scanType, true
}

// HealthHandler answers the liveness probe.
// GET /
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "hx-sentry dashboard",
	})
}

// QuickScanHandler runs a synchronous scan and returns the findings in one
// round trip. Only completed scans land in history; a failed engine call
// answers non-2xx so the dashboard treats it as a scan failure. Async scans
// via StartScanHandler keep their failed sessions for polling instead.
// POST /api/quick-scan
func (h *Handler) QuickScanHandler(w http.ResponseWriter, r *http.Request) {
	target, scanType, ok := parseScanRequest(w, r)
	if !ok {
		return
	}

	sess := types.NewSession(target, scanType)
	_ = sess.Begin()

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()
	vulns, err := h.Engine.QuickScan(ctx, target, scanType)
	if err != nil {
		logrus.WithField("target", target).WithError(err).Error("[API] quick scan failed")
		http.Error(w, "scan failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	_ = sess.Complete(vulns)
	if addErr := h.Store.Add(sess); addErr != nil {
		logrus.WithError(addErr).Error("could not store completed scan")
		http.Error(w, "could not store scan", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "completed",
		"scan_id":         sess.ScanID,
		"target":          target,
		"vulnerabilities": sess.Vulnerabilities,
		"summary":         sess.Summary,
	})
}

// StartScanHandler kicks off an asynchronous scan and returns the scan ID
// for polling. The session is visible as pending/running until the engine
// answers.
// POST /api/scan
func (h *Handler) StartScanHandler(w http.ResponseWriter, r *http.Request) {
	target, scanType, ok := parseScanRequest(w, r)
	if !ok {
		return
	}

	sess := types.NewSession(target, scanType)
	if err := h.Store.Add(sess); err != nil {
		logrus.WithError(err).Error("could not store pending scan")
		http.Error(w, "could not store scan", http.StatusInternalServerError)
		return
	}
	scanID := sess.ScanID
	logrus.WithFields(logrus.Fields{"scan_id": scanID, "target": target}).Info("[API] scan started")

	go h.runScan(scanID, target, scanType)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"scan_id": scanID,
		"status":  string(types.StatusRunning),
		"message": "Scan started for " + target,
	})
}

// runScan drives a stored session through its lifecycle in the background.
func (h *Handler) runScan(scanID, target string, scanType types.ScanType) {
	if err := h.Store.Begin(scanID); err != nil {
		// The session was deleted before the scan ran; nothing to report into.
		logrus.WithField("scan_id", scanID).WithError(err).Warn("[API] scan job orphaned")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()
	vulns, err := h.Engine.QuickScan(ctx, target, scanType)
	if err != nil {
		if failErr := h.Store.Fail(scanID, err.Error()); failErr != nil {
			logrus.WithField("scan_id", scanID).WithError(failErr).Warn("[API] could not record scan failure")
		}
		return
	}
	if compErr := h.Store.Complete(scanID, vulns); compErr != nil {
		logrus.WithField("scan_id", scanID).WithError(compErr).Warn("[API] could not record scan result")
	}
}

// GetScanHandler returns one scan session by ID.
// GET /api/scan/{scanId}
func (h *Handler) GetScanHandler(w http.ResponseWriter, r *http.Request) {
	scanID := mux.Vars(r)["scanId"]
	sess, ok := h.Store.Find(scanID)
	if !ok {
		http.Error(w, "scan not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ListScansHandler returns the scan history, newest first.
// GET /api/scans?limit=20
func (h *Handler) ListScansHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	sessions := h.Store.List()
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	writeJSON(w, http.StatusOK, sessions)
}

// DeleteScanHandler removes a scan from history.
// DELETE /api/scan/{scanId}
func (h *Handler) DeleteScanHandler(w http.ResponseWriter, r *http.Request) {
	scanID := mux.Vars(r)["scanId"]
	if _, ok := h.Store.Find(scanID); !ok {
		http.Error(w, "scan not found", http.StatusNotFound)
		return
	}
	h.Store.Remove(scanID)
	logrus.WithField("scan_id", scanID).Info("[API] scan deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "scan_id": scanID})
}

// StatsHandler returns the aggregate dashboard counters, recomputed fresh
// on every request.
// GET /api/stats
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("[API] could not encode response")
	}
}
