package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/nxneeraj/hx-sentry/pkg/api"
	"github.com/nxneeraj/hx-sentry/pkg/backend"
	"github.com/nxneeraj/hx-sentry/pkg/config"
	"github.com/nxneeraj/hx-sentry/pkg/dashboard"
	"github.com/nxneeraj/hx-sentry/pkg/history"
	"github.com/nxneeraj/hx-sentry/pkg/logging"
	"github.com/nxneeraj/hx-sentry/pkg/output"
	"github.com/nxneeraj/hx-sentry/pkg/types"
)

func main() {
	fmt.Println(`
    Hx-S.E.N.T.R.Y - MCP Server Security Dashboard
    ----------------------------------------------
    `)

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFile)
	if cfg.NoColor {
		color.NoColor = true
	}

	// --- Serve Mode ---
	if cfg.Serve {
		store := history.NewStore()
		engine := backend.NewClient(cfg.EngineURL, cfg.Timeout())
		api.StartServer(cfg.Port, api.NewHandler(store, engine, cfg.Timeout()))
		return
	}

	// --- Dashboard Mode ---
	store := history.NewStore()
	client := backend.NewClient(cfg.BackendURL, cfg.Timeout())
	ctl := dashboard.NewController(store, client, cfg.Timeout())
	ctx := context.Background()

	switch {
	case cfg.ScanTarget != "":
		runOneShotScan(ctx, ctl, cfg)
	case cfg.ShowStats:
		ctl.RefreshStats(ctx)
		output.RenderStats(os.Stdout, ctl.State().Stats)
	case cfg.ShowHistory:
		ctl.RefreshHistory(ctx)
		st := ctl.State()
		output.RenderHistory(os.Stdout, st.Sessions, st.Selected)
	default:
		runInteractive(ctx, ctl, cfg)
	}
}

// runOneShotScan submits one scan, renders the result, and optionally
// exports the report.
func runOneShotScan(ctx context.Context, ctl *dashboard.Controller, cfg *config.Config) {
	scanType, err := types.ParseScanType(cfg.ScanTypeRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("[+] Scanning %s (%s)...\n\n", cfg.ScanTarget, scanType)
	if err := ctl.SubmitScan(ctx, cfg.ScanTarget, scanType); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}

	st := ctl.State()
	if st.ErrorMessage != "" {
		fmt.Printf("[%s] %s\n", output.ColorRed("FAILED"), st.ErrorMessage)
		os.Exit(1)
	}
	if st.Selected != nil {
		output.RenderVulnerabilities(os.Stdout, *st.Selected)
		if cfg.ExportPath != "" {
			if err := exportReport(cfg.ExportPath, *st.Selected); err != nil {
				fmt.Fprintf(os.Stderr, "[-] export failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("[+] Report written to %s\n", cfg.ExportPath)
		}
	}
}

// runInteractive drives the terminal dashboard until quit.
func runInteractive(ctx context.Context, ctl *dashboard.Controller, cfg *config.Config) {
	fmt.Printf("[+] Connected to backend %s. Type 'help' for commands.\n\n", cfg.BackendURL)
	ctl.RefreshHistory(ctx)
	ctl.RefreshStats(ctx)
	output.RenderDashboard(os.Stdout, ctl.State())

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("hx-sentry> ")
		if !in.Scan() {
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit", "q":
			return
		case "help", "h":
			printHelp()
			continue
		case "scan":
			doScan(ctx, ctl, args)
		case "open", "o":
			doOpen(ctl, args)
		case "vuln", "v":
			doVuln(ctl, args)
		case "back", "b":
			ctl.ClearVulnerabilitySelection()
		case "delete", "del", "rm":
			doDelete(ctx, ctl, args)
		case "refresh", "r":
			ctl.RefreshHistory(ctx)
			ctl.RefreshStats(ctx)
		case "export":
			doExport(ctl, args)
			continue
		default:
			fmt.Printf("[!] Unknown command %q, try 'help'\n", cmd)
			continue
		}

		fmt.Println()
		output.RenderDashboard(os.Stdout, ctl.State())
	}
}

func printHelp() {
	fmt.Println(`  scan [url|stdio|config] <target>  submit a scan
  open <n|scan-id>                  select a scan from the history list
  vuln <n>                          open finding n of the selected scan
  back                              close the finding detail view
  delete <n|scan-id>                delete a scan
  refresh                           re-pull history and stats
  export <file>                     write selected scan report (.json or text)
  quit                              leave`)
}

func doScan(ctx context.Context, ctl *dashboard.Controller, args []string) {
	scanType := types.ScanTypeURL
	if len(args) >= 2 {
		parsed, err := types.ParseScanType(args[0])
		if err == nil {
			scanType = parsed
			args = args[1:]
		}
	}
	if len(args) == 0 {
		fmt.Println("[!] Usage: scan [url|stdio|config] <target>")
		return
	}
	target := strings.Join(args, " ") // stdio commands may contain spaces
	if err := ctl.SubmitScan(ctx, target, scanType); err != nil {
		fmt.Printf("[!] %v\n", err)
	}
}

func doOpen(ctl *dashboard.Controller, args []string) {
	if len(args) != 1 {
		fmt.Println("[!] Usage: open <n|scan-id>")
		return
	}
	scanID, ok := resolveScanID(ctl, args[0])
	if !ok {
		return
	}
	if err := ctl.SelectSession(scanID); err != nil {
		fmt.Printf("[!] %v\n", err)
	}
}

func doVuln(ctl *dashboard.Controller, args []string) {
	st := ctl.State()
	if st.Selected == nil {
		fmt.Println("[!] No scan selected, use 'open' first")
		return
	}
	if len(args) != 1 {
		fmt.Println("[!] Usage: vuln <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(st.Selected.Vulnerabilities) {
		fmt.Printf("[!] Finding number must be 1-%d\n", len(st.Selected.Vulnerabilities))
		return
	}
	ctl.SelectVulnerability(st.Selected.Vulnerabilities[n-1])
}

func doDelete(ctx context.Context, ctl *dashboard.Controller, args []string) {
	if len(args) != 1 {
		fmt.Println("[!] Usage: delete <n|scan-id>")
		return
	}
	scanID, ok := resolveScanID(ctl, args[0])
	if !ok {
		return
	}
	ctl.DeleteSession(ctx, scanID)
}

func doExport(ctl *dashboard.Controller, args []string) {
	st := ctl.State()
	if st.Selected == nil {
		fmt.Println("[!] No scan selected, use 'open' first")
		return
	}
	if len(args) != 1 {
		fmt.Println("[!] Usage: export <file>")
		return
	}
	if err := exportReport(args[0], *st.Selected); err != nil {
		fmt.Printf("[!] export failed: %v\n", err)
		return
	}
	fmt.Printf("[+] Report written to %s\n", args[0])
}

func exportReport(path string, s types.ScanSession) error {
	if strings.HasSuffix(path, ".json") {
		return output.WriteReportJSON(path, s)
	}
	return output.WriteReportText(path, s)
}

// resolveScanID accepts either a 1-based history index or a raw scan ID.
func resolveScanID(ctl *dashboard.Controller, arg string) (string, bool) {
	sessions := ctl.State().Sessions
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(sessions) {
			fmt.Printf("[!] Scan number must be 1-%d\n", len(sessions))
			return "", false
		}
		return sessions[n-1].ScanID, true
	}
	return arg, true
}
