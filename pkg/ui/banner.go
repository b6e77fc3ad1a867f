package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/waftester/jsenum/pkg/defaults"
)

// Build information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/waftester/jsenum/pkg/ui.Commit=abc123"
var (
	Version   = defaults.Version
	BuildDate = "2026-10-01"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	stderr      io.Writer = os.Stderr
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses most output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// SetOutput redirects status output and returns a function restoring the
// previous writer.
func SetOutput(w io.Writer) (restore func()) {
	uiMu.Lock()
	defer uiMu.Unlock()
	prev := stderr
	stderr = w
	return func() {
		uiMu.Lock()
		defer uiMu.Unlock()
		stderr = prev
	}
}

func out() io.Writer {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return stderr
}

const bannerArt = `
       _
      (_)________  ____  __  ______ ___
     / / ___/ _ \/ __ \/ / / / __ '__ \
    / (__  )  __/ / / / /_/ / / / / / /
 __/ /____/\___/_/ /_/\__,_/_/ /_/ /_/
/___/
`

// Separator line
const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info
func PrintBanner() {
	if IsSilent() {
		return
	}
	w := out()
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(w, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(w, "                    v%s\n", VersionStyle.Render(Version))
	fmt.Fprintf(w, "\n\tpassive JavaScript recon\n\n")
}

// PrintDivider prints a stylized divider (to stderr)
func PrintDivider() {
	if IsSilent() {
		return
	}
	fmt.Fprintln(out(), DividerStyle.Render(strings.Repeat("-", 75)))
}

// PrintSection prints a section header (to stderr)
func PrintSection(title string) {
	if IsSilent() {
		return
	}
	w := out()
	fmt.Fprintln(w)
	fmt.Fprintln(w, SectionStyle.Render("> "+title))
	PrintDivider()
}

// PrintConfigLine prints a single config line in ffuf style
// Format:  :: Option              : Value
func PrintConfigLine(key, value string) {
	if IsSilent() || value == "" {
		return
	}
	fmt.Fprintf(out(), " :: %-20s : %s\n",
		ConfigLabelStyle.Render(key),
		ConfigValueStyle.Render(value),
	)
}

// PrintConfigEnd closes a block of config lines.
func PrintConfigEnd() {
	if IsSilent() {
		return
	}
	fmt.Fprintf(out(), "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// PrintHelp prints contextual help
func PrintHelp(text string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(out(), HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message (to stderr)
func PrintSuccess(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(out(), PassStyle.Render("  [+] "+SanitizeString(message)))
}

// PrintError prints an error message (to stderr). Errors are shown even
// in silent mode.
func PrintError(message string) {
	fmt.Fprintln(out(), FailStyle.Render("  [X] "+SanitizeString(message)))
}

// PrintWarning prints a warning message (to stderr)
func PrintWarning(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(out(), WarnStyle.Render("  [!] "+SanitizeString(message)))
}

// PrintInfo prints an info message (to stderr)
func PrintInfo(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(out(), "  %s %s\n", SpinnerStyle.Render("*"), SanitizeString(message))
}
