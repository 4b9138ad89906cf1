package output

import (
	"github.com/fatih/color"

	"github.com/nxneeraj/hx-sentry/pkg/types"
)

// Terminal color functions shared by the renderers.
var (
	ColorRed     = color.New(color.FgRed).SprintFunc()
	ColorBoldRed = color.New(color.FgRed, color.Bold).SprintFunc()
	ColorGreen   = color.New(color.FgGreen).SprintFunc()
	ColorYellow  = color.New(color.FgYellow).SprintFunc()
	ColorBlue    = color.New(color.FgBlue).SprintFunc()
	ColorCyan    = color.New(color.FgCyan).SprintFunc()
	ColorMagenta = color.New(color.FgMagenta).SprintFunc()
	ColorWhite   = color.New(color.FgWhite).SprintFunc()
)

// RiskColor maps a risk level onto its terminal style. Total over the five
// known levels; anything unrecognized takes the INFO style rather than
// failing.
func RiskColor(lvl types.RiskLevel) func(a ...interface{}) string {
	switch lvl {
	case types.RiskCritical:
		return ColorBoldRed
	case types.RiskHigh:
		return ColorRed
	case types.RiskMedium:
		return ColorYellow
	case types.RiskLow:
		return ColorBlue
	case types.RiskInfo:
		return ColorCyan
	default:
		return ColorCyan
	}
}

// StatusColor maps a session status onto its terminal style.
func StatusColor(status types.ScanStatus) func(a ...interface{}) string {
	switch status {
	case types.StatusCompleted:
		return ColorGreen
	case types.StatusFailed:
		return ColorRed
	case types.StatusRunning:
		return ColorYellow
	default:
		return ColorWhite
	}
}
