package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nxneeraj/hx-sentry/pkg/types"
)

func reportSession(t *testing.T) types.ScanSession {
	t.Helper()
	s := types.NewSession("https://api.example.com/mcp", types.ScanTypeURL)
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	err := s.Complete([]types.Vulnerability{
		{ID: "v1", ToolName: "sendEmail", VulnerabilityType: "tool_poisoning", RiskLevel: types.RiskCritical, Description: "hidden instructions", Remediation: "review descriptions"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return *s
}

func TestWriteReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	sess := reportSession(t)

	if err := WriteReportJSON(path, sess); err != nil {
		t.Fatalf("WriteReportJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded types.ScanSession
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.ScanID != sess.ScanID || len(decoded.Vulnerabilities) != 1 {
		t.Errorf("round-tripped report mismatch: %+v", decoded)
	}
}

func TestWriteReportText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	sess := reportSession(t)

	if err := WriteReportText(path, sess); err != nil {
		t.Fatalf("WriteReportText failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{sess.ScanID, "https://api.example.com/mcp", "CRITICAL", "Tool Poisoning", "1 CRITICAL"} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q:\n%s", want, text)
		}
	}
}
