package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/nxneeraj/hx-sentry/pkg/dashboard"
	"github.com/nxneeraj/hx-sentry/pkg/types"
)

const maxDescriptionLength = 80 // table cell truncation, full text in detail view

// FormatVulnType renders a categorical tag like "tool_poisoning" as
// "Tool Poisoning". A missing type renders as nothing.
func FormatVulnType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "_", " ")
	raw = strings.ReplaceAll(raw, "-", " ")
	words := strings.Fields(raw)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RenderDashboard writes the full dashboard view: stat cards, scan history,
// and (when a scan or finding is selected) the vulnerability table and the
// detail panel. Pure function of the snapshot.
func RenderDashboard(w io.Writer, st dashboard.State) {
	RenderStats(w, st.Stats)
	RenderHistory(w, st.Sessions, st.Selected)
	if st.Selected != nil {
		RenderVulnerabilities(w, *st.Selected)
	}
	if st.SelectedVuln != nil {
		RenderDetail(w, *st.SelectedVuln)
	}
	if st.Scanning {
		fmt.Fprintf(w, "[%s] Scan in progress...\n", ColorYellow("SCANNING"))
	}
	if st.ErrorMessage != "" {
		fmt.Fprintf(w, "[%s] %s\n", ColorRed("ERROR"), st.ErrorMessage)
	}
}

// RenderStats prints the stat card row.
func RenderStats(w io.Writer, stats types.Stats) {
	fmt.Fprintf(w, "  Total Scans: %s   Today: %s   Critical: %s   High: %s   Findings: %s\n\n",
		ColorWhite(stats.TotalScans),
		ColorCyan(stats.ScansToday),
		ColorBoldRed(stats.CriticalCount),
		ColorRed(stats.HighCount),
		ColorMagenta(stats.TotalVulnerabilities),
	)
}

// RenderHistory prints the scan list, newest first. The selected session is
// marked with an arrow.
func RenderHistory(w io.Writer, sessions []types.ScanSession, selected *types.ScanSession) {
	fmt.Fprintf(w, "  %s\n", ColorWhite("Scan History"))
	if len(sessions) == 0 {
		fmt.Fprintln(w, "  (no scans yet)")
		fmt.Fprintln(w)
		return
	}
	for i, s := range sessions {
		marker := " "
		if selected != nil && selected.ScanID == s.ScanID {
			marker = ">"
		}
		statusFn := StatusColor(s.Status)
		line := fmt.Sprintf("%s %2d. [%s] %s (%s) %s",
			marker, i+1, statusFn(strings.ToUpper(string(s.Status))), s.Target, s.ScanType,
			s.StartedAt.Format("2006-01-02 15:04:05"))
		if s.Summary != nil {
			line += fmt.Sprintf("  %s findings", ColorMagenta(s.Summary.Total))
			if n := s.Summary.Counts[types.RiskCritical]; n > 0 {
				line += fmt.Sprintf(" (%s critical)", ColorBoldRed(n))
			}
		}
		if s.Status == types.StatusFailed && s.ErrorMessage != "" {
			line += fmt.Sprintf("  %s", ColorRed(s.ErrorMessage))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// RenderVulnerabilities prints the finding table of one scan.
func RenderVulnerabilities(w io.Writer, s types.ScanSession) {
	fmt.Fprintf(w, "  %s %s\n", ColorWhite("Findings for"), ColorCyan(s.Target))
	if len(s.Vulnerabilities) == 0 {
		fmt.Fprintf(w, "  [%s] No vulnerabilities found.\n\n", ColorGreen("CLEAN"))
		return
	}
	for i, v := range s.Vulnerabilities {
		riskFn := RiskColor(v.RiskLevel)
		desc := v.Description
		if len(desc) > maxDescriptionLength {
			desc = desc[:maxDescriptionLength] + "..."
		}
		fmt.Fprintf(w, "  %2d. [%s] %s - %s\n      %s\n",
			i+1, riskFn(string(v.RiskLevel)), ColorMagenta(v.ToolName),
			FormatVulnType(v.VulnerabilityType), desc)
	}
	fmt.Fprintln(w)
}

// RenderDetail prints the detail panel for one finding.
func RenderDetail(w io.Writer, v types.Vulnerability) {
	riskFn := RiskColor(v.RiskLevel)
	fmt.Fprintf(w, "  %s\n", ColorWhite("Finding Detail"))
	fmt.Fprintf(w, "  ID:          %s\n", v.ID)
	fmt.Fprintf(w, "  Tool:        %s\n", ColorMagenta(v.ToolName))
	fmt.Fprintf(w, "  Type:        %s\n", FormatVulnType(v.VulnerabilityType))
	fmt.Fprintf(w, "  Risk:        %s\n", riskFn(string(v.RiskLevel)))
	fmt.Fprintf(w, "  Description: %s\n", v.Description)
	if v.Evidence != "" {
		fmt.Fprintf(w, "  Evidence:    %s\n", ColorYellow(v.Evidence))
	}
	if v.OWASPMapping != "" {
		fmt.Fprintf(w, "  OWASP:       %s\n", v.OWASPMapping)
	}
	if v.Remediation != "" {
		fmt.Fprintf(w, "  Remediation: %s\n", ColorGreen(v.Remediation))
	}
	fmt.Fprintln(w)
}
