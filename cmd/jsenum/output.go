package main

import (
	"fmt"
	"io"

	"github.com/waftester/jsenum/pkg/config"
	"github.com/waftester/jsenum/pkg/report"
	"github.com/waftester/jsenum/pkg/ui"
)

// writeOutputs persists the JSON report and every optional rendition,
// then prints the findings. The JSON file is always written first.
func writeOutputs(cfg *config.Config, rep *report.Report, stdout io.Writer) error {
	path, err := report.Write(cfg.OutputDir, rep)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if cfg.JSON {
		data, err := rep.JSON()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if _, err := fmt.Fprintln(stdout, string(data)); err != nil {
			return err
		}
	} else if !cfg.Silent {
		ui.PrintSection("Findings")
		ui.PrintReport(stdout, rep)
	}

	if cfg.Template != "" {
		tpath, err := report.WriteTemplate(cfg.OutputDir, cfg.Template, rep)
		if err != nil {
			return fmt.Errorf("rendering template %s: %w", cfg.Template, err)
		}
		ui.PrintSuccess("Template report saved to " + tpath)
	}
	if cfg.PDF {
		ppath, err := report.WritePDFFile(cfg.OutputDir, rep)
		if err != nil {
			return fmt.Errorf("writing pdf: %w", err)
		}
		ui.PrintSuccess("PDF report saved to " + ppath)
	}

	ui.PrintSuccess("Report saved to " + path)
	return nil
}
