// Package report builds the scan snapshot and writes it out.
//
// The package is organized by logical concern across multiple files:
//
// # Core Report (report.go)
//
// Report, Stats, New, Write, Read. The JSON file is the persisted result
// of a scan: scan_report_<YYYYMMDD_HHMMSS>.json with sorted endpoint,
// parameter and token lists plus the GraphQL flag.
//
// # Text Templates (template.go)
//
// Render, WriteTemplate, Templates. Built-in summary and markdown
// templates, or any text/template file, with sprig functions available.
//
// # PDF (pdf.go)
//
// WritePDF, WritePDFFile. A printable rendition of the same report.
package report
