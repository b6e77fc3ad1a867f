package ui

import (
	"fmt"
	"io"
	"strings"
)

// ManifestItem represents a single item in the scan manifest
type ManifestItem struct {
	Label    string
	Value    string
	Emphasis bool
}

// ScanManifest displays what a scan will do before it starts
type ScanManifest struct {
	Title string
	Items []ManifestItem
}

// NewScanManifest creates an empty manifest
func NewScanManifest(title string) *ScanManifest {
	return &ScanManifest{Title: title}
}

// Add adds an item to the manifest. Empty values are skipped.
func (m *ScanManifest) Add(label, value string) *ScanManifest {
	if value != "" {
		m.Items = append(m.Items, ManifestItem{Label: label, Value: value})
	}
	return m
}

// AddEmphasis adds a highlighted item
func (m *ScanManifest) AddEmphasis(label, value string) *ScanManifest {
	if value != "" {
		m.Items = append(m.Items, ManifestItem{Label: label, Value: value, Emphasis: true})
	}
	return m
}

// AddList adds a comma separated list, truncated after limit entries.
func (m *ScanManifest) AddList(label string, values []string, limit int) *ScanManifest {
	if len(values) == 0 {
		return m
	}
	shown := values
	suffix := ""
	if limit > 0 && len(values) > limit {
		shown = values[:limit]
		suffix = fmt.Sprintf(" (+%d more)", len(values)-limit)
	}
	return m.Add(label, strings.Join(shown, ", ")+suffix)
}

// Print writes the manifest to stderr unless silent mode is on.
func (m *ScanManifest) Print() {
	if IsSilent() {
		return
	}
	m.WriteTo(out())
}

// WriteTo renders the manifest as an ASCII box.
func (m *ScanManifest) WriteTo(w io.Writer) (int64, error) {
	width := len(m.Title) + 4
	for _, item := range m.Items {
		if n := len(item.Label) + len(item.Value) + 6; n > width {
			width = n
		}
	}
	width = min(max(width, 50), 90)

	var b strings.Builder
	border := "  +" + strings.Repeat("=", width) + "+\n"
	b.WriteString("\n")
	b.WriteString(border)
	pad := (width - len(m.Title)) / 2
	fmt.Fprintf(&b, "  |%s%s%s|\n",
		strings.Repeat(" ", pad), m.Title, strings.Repeat(" ", max(width-pad-len(m.Title), 0)))
	b.WriteString(border)
	for _, item := range m.Items {
		value := item.Value
		if len(item.Label)+len(value)+6 > width {
			value = value[:max(width-len(item.Label)-9, 0)] + "..."
		}
		gap := max(width-len(item.Label)-len(value)-5, 1)
		rendered := value
		if item.Emphasis {
			rendered = StatValueStyle.Render(value)
		}
		fmt.Fprintf(&b, "  |  %s:%s%s  |\n", item.Label, strings.Repeat(" ", gap), rendered)
	}
	b.WriteString(border)
	b.WriteString("\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
