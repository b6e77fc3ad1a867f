// Command jsenum performs passive reconnaissance of a web page's
// JavaScript: it collects the page's scripts, extracts endpoints,
// parameter names and token-like literals, probes the endpoints for
// accepted parameters and writes a JSON report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/waftester/jsenum/pkg/config"
	"github.com/waftester/jsenum/pkg/defaults"
	"github.com/waftester/jsenum/pkg/scanner"
	"github.com/waftester/jsenum/pkg/ui"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	restore := ui.SetOutput(stderr)
	defer restore()

	if len(args) > 0 && args[0] == "mcp" {
		return runMCP(ctx, args[1:], stderr)
	}

	cfg, err := config.Parse(defaults.ToolName, args, stderr)
	switch {
	case errors.Is(err, config.ErrVersion):
		fmt.Fprintf(stdout, "%s %s (%s, %s)\n", defaults.ToolName, ui.Version, ui.Commit, ui.BuildDate)
		return defaults.ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return defaults.ExitSuccess
	case err != nil:
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintError(err.Error())
		ui.PrintHelp("run '" + defaults.ToolName + " -h' for usage")
		return defaults.ExitUserError
	}

	ui.SetSilent(cfg.Silent)
	ui.SetNoColor(cfg.NoColor)
	logger := newLogger(stderr, cfg)

	ui.PrintBanner()
	printManifest(cfg)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitUserError
	}
	defer a.close()

	stop := ui.StartSpinner("Scanning " + cfg.Target)
	rep, err := a.scanner.Scan(ctx, cfg.Target, cfg.ScanOptions())
	stop()
	if err != nil {
		ui.PrintError(err.Error())
		if errors.Is(err, scanner.ErrPageFetch) {
			return defaults.ExitFatal
		}
		if errors.Is(err, scanner.ErrInvalidTarget) {
			return defaults.ExitUserError
		}
		return defaults.ExitInternalError
	}
	if rep.Partial {
		ui.PrintWarning("Scan stopped early; the report holds partial results")
	}

	if err := writeOutputs(cfg, rep, stdout); err != nil {
		ui.PrintError(err.Error())
		return defaults.ExitOutputError
	}
	return defaults.ExitSuccess
}

func printManifest(cfg *config.Config) {
	fuzz := "enabled"
	if cfg.NoFuzz {
		fuzz = "disabled"
	}
	ui.NewScanManifest(defaults.ToolName+" scan").
		AddEmphasis("Target", cfg.Target).
		Add("Preset", cfg.Preset).
		Add("Config", cfg.ConfigFile).
		Add("Threads", strconv.Itoa(cfg.Threads)).
		Add("Fuzzing", fuzz).
		AddList("Extra tokens", cfg.ExtraTokens, 5).
		AddList("Extra params", cfg.ExtraParams, 5).
		Add("Proxy", cfg.Proxy).
		Add("Render", boolLabel(cfg.Render)).
		Add("Output", cfg.OutputDir).
		Print()
}

func boolLabel(b bool) string {
	if b {
		return "headless chrome"
	}
	return ""
}
