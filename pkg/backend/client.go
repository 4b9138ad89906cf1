// Package backend is the HTTP/JSON client for the scanning collaborator.
// The collaborator performs the actual vulnerability detection; this side
// only submits targets and consumes results.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nxneeraj/hx-sentry/pkg/types"
)

const maxErrorBody = 512 // limit of response body echoed into error messages

// Client talks to one scanning backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with tuned transport settings.
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Wire DTOs. Decoding is deliberately lenient: unknown fields are ignored
// and missing ones degrade (see toVulnerability).

type wireVulnerability struct {
	ID                string `json:"id"`
	ToolName          string `json:"tool_name"`
	VulnerabilityType string `json:"vulnerability_type"`
	RiskLevel         string `json:"risk_level"`
	Description       string `json:"description"`
	Evidence          string `json:"evidence"`
	OWASPMapping      string `json:"owasp_mapping"`
	Remediation       string `json:"remediation"`
}

// wireSummary accepts both the nested counts shape and the flat
// critical/high/medium/low legacy shape.
type wireSummary struct {
	Total    int            `json:"total"`
	Counts   map[string]int `json:"counts"`
	Critical int            `json:"critical"`
	High     int            `json:"high"`
	Medium   int            `json:"medium"`
	Low      int            `json:"low"`
	Info     int            `json:"info"`
}

type wireSession struct {
	ScanID          string              `json:"scan_id"`
	Target          string              `json:"target"`
	ScanType        string              `json:"scan_type"`
	Status          string              `json:"status"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     *time.Time          `json:"completed_at"`
	Vulnerabilities []wireVulnerability `json:"vulnerabilities"`
	Summary         *wireSummary        `json:"summary"`
	Error           string              `json:"error"`
}

type scanRequest struct {
	Target   string `json:"target"`
	ScanType string `json:"scan_type"`
}

type quickScanResponse struct {
	Status          string              `json:"status"`
	Target          string              `json:"target"`
	Vulnerabilities []wireVulnerability `json:"vulnerabilities"`
}

type startScanResponse struct {
	ScanID  string `json:"scan_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// toVulnerability converts a wire record. An absent id falls back to the
// position within the scan; an absent or unknown risk level becomes INFO.
func toVulnerability(w wireVulnerability, idx int) types.Vulnerability {
	id := w.ID
	if id == "" {
		id = fmt.Sprintf("vuln-%d", idx+1)
	}
	return types.Vulnerability{
		ID:                id,
		ToolName:          w.ToolName,
		VulnerabilityType: w.VulnerabilityType,
		RiskLevel:         types.ParseRiskLevel(w.RiskLevel),
		Description:       w.Description,
		Evidence:          w.Evidence,
		OWASPMapping:      w.OWASPMapping,
		Remediation:       w.Remediation,
	}
}

func toSummary(w *wireSummary) *types.Summary {
	if w == nil {
		return nil
	}
	sum := types.Summary{Counts: make(map[types.RiskLevel]int, len(types.Levels))}
	for _, lvl := range types.Levels {
		sum.Counts[lvl] = 0
	}
	if len(w.Counts) > 0 {
		for k, v := range w.Counts {
			sum.Counts[types.ParseRiskLevel(k)] += v
		}
	} else {
		sum.Counts[types.RiskCritical] = w.Critical
		sum.Counts[types.RiskHigh] = w.High
		sum.Counts[types.RiskMedium] = w.Medium
		sum.Counts[types.RiskLow] = w.Low
		sum.Counts[types.RiskInfo] = w.Info
	}
	sum.Total = w.Total
	return &sum
}

func toSession(w wireSession) types.ScanSession {
	vulns := make([]types.Vulnerability, 0, len(w.Vulnerabilities))
	for i, wv := range w.Vulnerabilities {
		vulns = append(vulns, toVulnerability(wv, i))
	}
	s := types.ScanSession{
		ScanID:          w.ScanID,
		Target:          w.Target,
		ScanType:        types.ScanType(w.ScanType),
		Status:          types.ScanStatus(w.Status),
		StartedAt:       w.StartedAt,
		CompletedAt:     w.CompletedAt,
		Vulnerabilities: vulns,
		ErrorMessage:    w.Error,
	}
	// Prefer a summary derived from the actual records when we have them;
	// the wire summary stands in for list responses that omit the findings.
	if len(vulns) > 0 {
		sum := types.Summarize(vulns)
		s.Summary = &sum
	} else {
		s.Summary = toSummary(w.Summary)
	}
	return s
}

// QuickScan submits a target for a synchronous scan and returns the
// discovered vulnerabilities. Any non-2xx response is a scan failure.
func (c *Client) QuickScan(ctx context.Context, target string, scanType types.ScanType) ([]types.Vulnerability, error) {
	var out quickScanResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/quick-scan", scanRequest{Target: target, ScanType: string(scanType)}, &out)
	if err != nil {
		return nil, err
	}
	vulns := make([]types.Vulnerability, 0, len(out.Vulnerabilities))
	for i, wv := range out.Vulnerabilities {
		vulns = append(vulns, toVulnerability(wv, i))
	}
	return vulns, nil
}

// StartScan submits a target for an asynchronous scan and returns the scan
// ID to poll with GetScan.
func (c *Client) StartScan(ctx context.Context, target string, scanType types.ScanType) (string, error) {
	var out startScanResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/scan", scanRequest{Target: target, ScanType: string(scanType)}, &out)
	if err != nil {
		return "", err
	}
	return out.ScanID, nil
}

// GetScan fetches a single scan session by ID.
func (c *Client) GetScan(ctx context.Context, scanID string) (types.ScanSession, error) {
	var out wireSession
	if err := c.doJSON(ctx, http.MethodGet, "/api/scan/"+scanID, nil, &out); err != nil {
		return types.ScanSession{}, err
	}
	return toSession(out), nil
}

// ListScans fetches the scan history, newest first. A limit of 0 leaves the
// page size to the backend.
func (c *Client) ListScans(ctx context.Context, limit int) ([]types.ScanSession, error) {
	path := "/api/scans"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out []wireSession
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	sessions := make([]types.ScanSession, 0, len(out))
	for _, w := range out {
		sessions = append(sessions, toSession(w))
	}
	return sessions, nil
}

// Stats fetches the aggregate dashboard counters.
func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	var out types.Stats
	err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out, err
}

// DeleteScan removes a scan from the backend's history. Best-effort: the
// caller treats failures as log-only.
func (c *Client) DeleteScan(ctx context.Context, scanID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/scan/"+scanID, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Hx-S.E.N.T.R.Y Dashboard (github.com/nxneeraj/hx-sentry)")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: backend returned %d: %s", method, path, resp.StatusCode, string(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
