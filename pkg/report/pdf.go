package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	gofpdf "github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/waftester/jsenum/pkg/defaults"
)

// WritePDF renders r as a PDF document to w.
func WritePDF(w io.Writer, r *Report) error {
	if r == nil {
		return ErrNilReport
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("JS recon report: "+r.URL, true)
	pdf.SetAuthor(defaults.ToolName, true)
	pdf.SetCreator(defaults.ToolName+" "+defaults.Version, true)
	pdf.SetCreationDate(r.CreatedAt)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(140, 140, 140)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := cases.Title(language.English)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(125, 86, 244)
	pdf.CellFormat(0, 12, "JS Recon Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.MultiCell(0, 5, tr(r.URL), "", "L", false)
	pdf.Ln(4)

	addSummary(pdf, r)

	sections := []struct {
		name  string
		items []string
	}{
		{"endpoints", r.Endpoints},
		{"parameters", r.Parameters},
		{"tokens", r.Tokens},
	}
	for _, s := range sections {
		addList(pdf, tr, title.String(s.name), s.items)
	}
	if len(r.Fuzzed) > 0 {
		addFuzzed(pdf, tr, r.Fuzzed)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("report: build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: write pdf: %w", err)
	}
	return nil
}

// WritePDFFile writes r as a PDF next to its JSON report.
func WritePDFFile(dir string, r *Report) (string, error) {
	if r == nil {
		return "", ErrNilReport
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, r); err != nil {
		return "", err
	}
	return writeFile(dir, siblingName(r.CreatedAt, ".pdf"), buf.Bytes())
}

func addSummary(pdf *gofpdf.Fpdf, r *Report) {
	rows := [][2]string{
		{"Scan ID", valueOr(r.ScanID, "n/a")},
		{"Created", r.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
		{"GraphQL", yesNo(r.GraphQLUsed)},
		{"Endpoints", fmt.Sprint(len(r.Endpoints))},
		{"Parameters", fmt.Sprint(len(r.Parameters))},
		{"Tokens", fmt.Sprint(len(r.Tokens))},
	}
	if r.PageStatus != 0 {
		rows = append(rows, [2]string{"Page status", fmt.Sprint(r.PageStatus)})
	}
	if s := r.Stats; s != nil {
		rows = append(rows,
			[2]string{"Scripts", fmt.Sprintf("%d discovered, %d fetched, %d failed, %d ignored",
				s.ScriptsDiscovered, s.ScriptsFetched, s.ScriptsFailed, s.ScriptsIgnored)},
			[2]string{"Probes", fmt.Sprintf("%d sent, %d accepted", s.ProbesSent, s.ProbesAccepted)},
		)
	}
	if r.Partial {
		rows = append(rows, [2]string{"Status", "partial (deadline reached)"})
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(45, 8, "Field", "1", 0, "L", true, 0, "")
	pdf.CellFormat(0, 8, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(248, 250, 252)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.CellFormat(45, 7, row[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(0, 7, row[1], "1", 1, "L", true, 0, "")
	}
	pdf.Ln(6)
}

func addList(pdf *gofpdf.Fpdf, tr func(string) string, heading string, items []string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 9, fmt.Sprintf("%s (%d)", heading, len(items)), "", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "", 8)
	pdf.SetTextColor(60, 60, 60)
	if len(items) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, "None found.", "", 1, "L", false, 0, "")
	}
	for _, item := range items {
		pdf.MultiCell(0, 4.5, tr("- "+item), "", "L", false)
	}
	pdf.Ln(4)
}

func addFuzzed(pdf *gofpdf.Fpdf, tr func(string) string, fuzzed map[string][]string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 9, "Fuzzed Parameters", "", 1, "L", false, 0, "")

	for _, ep := range sortedKeys(fuzzed) {
		pdf.SetFont("Courier", "B", 8)
		pdf.SetTextColor(60, 60, 60)
		pdf.MultiCell(0, 4.5, tr(ep), "", "L", false)
		pdf.SetFont("Courier", "", 8)
		pdf.SetTextColor(22, 163, 74)
		pdf.MultiCell(0, 4.5, tr("  "+strings.Join(fuzzed[ep], ", ")), "", "L", false)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
