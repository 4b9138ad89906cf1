package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nxneeraj/hx-sentry/pkg/types"
)

func TestQuickScanDecodesLeniently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/quick-scan" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		// Second record has no id and no risk_level, plus a field we do not know.
		w.Write([]byte(`{
			"status": "completed",
			"target": "https://api.example.com/mcp",
			"vulnerabilities": [
				{"id": "vuln-abc", "tool_name": "sendEmail", "vulnerability_type": "tool_poisoning", "risk_level": "CRITICAL", "description": "hidden instructions"},
				{"tool_name": "readFile", "vulnerability_type": "prompt_injection", "description": "override attempt", "confidence": 0.9}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	vulns, err := c.QuickScan(context.Background(), "https://api.example.com/mcp", types.ScanTypeURL)
	if err != nil {
		t.Fatalf("QuickScan failed: %v", err)
	}
	if len(vulns) != 2 {
		t.Fatalf("expected 2 vulnerabilities, got %d", len(vulns))
	}

	if vulns[0].ID != "vuln-abc" {
		t.Errorf("expected wire id kept, got %q", vulns[0].ID)
	}
	if vulns[0].RiskLevel != types.RiskCritical {
		t.Errorf("expected CRITICAL, got %s", vulns[0].RiskLevel)
	}

	// Absent id falls back to the position within the scan; absent
	// risk_level defaults to INFO.
	if vulns[1].ID != "vuln-2" {
		t.Errorf("expected positional id vuln-2, got %q", vulns[1].ID)
	}
	if vulns[1].RiskLevel != types.RiskInfo {
		t.Errorf("expected INFO for missing risk_level, got %s", vulns[1].RiskLevel)
	}
}

func TestQuickScanNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scanner exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.QuickScan(context.Background(), "target", types.ScanTypeURL)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestListScansConvertsSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scans" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("expected limit=5, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		// History entries omit the findings but carry a flat legacy summary.
		w.Write([]byte(`[
			{"scan_id": "s1", "target": "https://a/mcp", "scan_type": "url", "status": "completed",
			 "started_at": "2025-01-05T10:30:00Z", "vulnerabilities": [],
			 "summary": {"total": 3, "critical": 1, "high": 1, "medium": 1, "low": 0}},
			{"scan_id": "s2", "target": "npx weather", "scan_type": "stdio", "status": "failed",
			 "started_at": "2025-01-05T09:00:00Z", "error": "connection refused"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	sessions, err := c.ListScans(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListScans failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	s1 := sessions[0]
	if s1.Status != types.StatusCompleted {
		t.Errorf("expected completed, got %s", s1.Status)
	}
	if s1.Summary == nil {
		t.Fatal("expected summary from flat legacy shape")
	}
	if s1.Summary.Total != 3 || s1.Summary.Counts[types.RiskCritical] != 1 {
		t.Errorf("unexpected summary %+v", s1.Summary)
	}

	s2 := sessions[1]
	if s2.Status != types.StatusFailed || s2.ErrorMessage != "connection refused" {
		t.Errorf("unexpected failed session %+v", s2)
	}
	if s2.Summary != nil {
		t.Error("failed session should have no summary")
	}
}

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_scans": 7, "scans_today": 2, "total_vulnerabilities": 12, "critical_count": 1, "high_count": 3}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalScans != 7 || stats.ScansToday != 2 || stats.CriticalCount != 1 || stats.HighCount != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDeleteScan(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "deleted"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	if err := c.DeleteScan(context.Background(), "scan-42"); err != nil {
		t.Fatalf("DeleteScan failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/scan/scan-42" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
}
