package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/myrjola/fitplan/internal/errors"
)

// cspViolationReport is the legacy report-uri body browsers send.
type cspViolationReport struct {
	CSPReport struct {
		DocumentURI        string `json:"document-uri"`
		ViolatedDirective  string `json:"violated-directive"`
		EffectiveDirective string `json:"effective-directive"`
		BlockedURI         string `json:"blocked-uri"`
		SourceFile         string `json:"source-file"`
		LineNumber         int    `json:"line-number"`
	} `json:"csp-report"`
}

const maxCSPReportBytes = 16 * 1024

// cspViolation logs reports sent by browsers rendering the printable plan.
func (app *application) cspViolation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCSPReportBytes))
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "read CSP violation report",
			errors.SlogError(errors.Wrap(err, "read body")))
		app.clientError(w, r, http.StatusBadRequest, "unreadable report")
		return
	}

	var report cspViolationReport
	if err = json.Unmarshal(body, &report); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "parse CSP violation report",
			errors.SlogError(errors.Wrap(err, "unmarshal report")), slog.Int("body_bytes", len(body)))
		app.clientError(w, r, http.StatusBadRequest, "invalid report")
		return
	}

	app.logger.LogAttrs(ctx, slog.LevelWarn, "CSP violation detected",
		slog.String("document_uri", report.CSPReport.DocumentURI),
		slog.String("violated_directive", report.CSPReport.ViolatedDirective),
		slog.String("effective_directive", report.CSPReport.EffectiveDirective),
		slog.String("blocked_uri", report.CSPReport.BlockedURI),
		slog.String("source_file", report.CSPReport.SourceFile),
		slog.Int("line_number", report.CSPReport.LineNumber))
	w.WriteHeader(http.StatusNoContent)
}
