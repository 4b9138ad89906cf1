package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/nxneeraj/hx-sentry/pkg/types"
)

// WriteReportJSON writes one scan session as an indented JSON report.
func WriteReportJSON(path string, s types.ScanSession) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// WriteReportText writes one scan session as a plain-text report, findings
// ordered as returned by the scanner.
func WriteReportText(path string, s types.ScanSession) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "MCP Security Scan Report\n")
	fmt.Fprintf(w, "========================\n\n")
	fmt.Fprintf(w, "Scan ID:   %s\n", s.ScanID)
	fmt.Fprintf(w, "Target:    %s (%s)\n", s.Target, s.ScanType)
	fmt.Fprintf(w, "Status:    %s\n", s.Status)
	fmt.Fprintf(w, "Started:   %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	if s.CompletedAt != nil {
		fmt.Fprintf(w, "Completed: %s\n", s.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if s.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:     %s\n", s.ErrorMessage)
	}
	if s.Summary != nil {
		fmt.Fprintf(w, "\nSummary: %d findings", s.Summary.Total)
		parts := make([]string, 0, len(types.Levels))
		for _, lvl := range types.Levels {
			if n := s.Summary.Counts[lvl]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, lvl))
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(parts, ", "))
		}
		fmt.Fprintln(w)
	}

	for i, v := range s.Vulnerabilities {
		fmt.Fprintf(w, "\n%d. [%s] %s - %s\n", i+1, v.RiskLevel, v.ToolName, FormatVulnType(v.VulnerabilityType))
		fmt.Fprintf(w, "   %s\n", v.Description)
		if v.Evidence != "" {
			fmt.Fprintf(w, "   Evidence: %s\n", v.Evidence)
		}
		if v.Remediation != "" {
			fmt.Fprintf(w, "   Remediation: %s\n", v.Remediation)
		}
	}

	return w.Flush()
}
