package types

import (
	"fmt"
	"strings"
)

// RiskLevel classifies the severity of a finding.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
	RiskInfo     RiskLevel = "INFO"
)

// Levels lists every known risk level, most severe first.
var Levels = []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskInfo}

// ParseRiskLevel maps a wire value onto a known risk level. Unknown, empty,
// or oddly cased values degrade to INFO instead of failing, so a backend
// that grows new severities never breaks rendering.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskCritical:
		return RiskCritical
	case RiskHigh:
		return RiskHigh
	case RiskMedium:
		return RiskMedium
	case RiskLow:
		return RiskLow
	default:
		return RiskInfo
	}
}

// Rank returns the position of the level in the severity order, 0 being
// CRITICAL. Unrecognized levels rank alongside INFO.
func (r RiskLevel) Rank() int {
	for i, lvl := range Levels {
		if r == lvl {
			return i
		}
	}
	return len(Levels) - 1
}

// ScanType identifies how a target is reached.
type ScanType string

const (
	ScanTypeURL    ScanType = "url"    // HTTP/SSE MCP server
	ScanTypeStdio  ScanType = "stdio"  // local stdio server command
	ScanTypeConfig ScanType = "config" // client config file (Claude Desktop etc.)
)

// ParseScanType validates a raw scan type string.
func ParseScanType(s string) (ScanType, error) {
	switch ScanType(strings.ToLower(strings.TrimSpace(s))) {
	case ScanTypeURL:
		return ScanTypeURL, nil
	case ScanTypeStdio:
		return ScanTypeStdio, nil
	case ScanTypeConfig:
		return ScanTypeConfig, nil
	default:
		return "", fmt.Errorf("unknown scan type %q (want url, stdio or config)", s)
	}
}

// Vulnerability is a single finding reported against one MCP tool.
type Vulnerability struct {
	ID                string    `json:"id,omitempty"`
	ToolName          string    `json:"tool_name"`
	VulnerabilityType string    `json:"vulnerability_type"` // open-ended set, preserved verbatim
	RiskLevel         RiskLevel `json:"risk_level"`
	Description       string    `json:"description"`
	Evidence          string    `json:"evidence,omitempty"`
	OWASPMapping      string    `json:"owasp_mapping,omitempty"`
	Remediation       string    `json:"remediation,omitempty"`
}

// Summary holds per-level counts derived from a vulnerability list. It is
// always recomputed from the owning session's records via Summarize, never
// mutated on its own.
type Summary struct {
	Total  int               `json:"total"`
	Counts map[RiskLevel]int `json:"counts"`
}

// Summarize folds a vulnerability list into a Summary. It is total: a nil or
// empty list yields zero counts for every known level, and findings carrying
// an unrecognized level are counted under INFO.
func Summarize(vulns []Vulnerability) Summary {
	s := Summary{Counts: make(map[RiskLevel]int, len(Levels))}
	for _, lvl := range Levels {
		s.Counts[lvl] = 0
	}
	for _, v := range vulns {
		s.Counts[ParseRiskLevel(string(v.RiskLevel))]++
		s.Total++
	}
	return s
}

// Stats are the dashboard-wide aggregate counters shown on the stat cards.
type Stats struct {
	TotalScans           int `json:"total_scans"`
	ScansToday           int `json:"scans_today"`
	TotalVulnerabilities int `json:"total_vulnerabilities"`
	CriticalCount        int `json:"critical_count"` // scans with at least one CRITICAL finding
	HighCount            int `json:"high_count"`     // scans with at least one HIGH finding
}
