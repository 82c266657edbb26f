package gates

import (
	"fmt"
	"strings"

	"github.com/abhisek/nudgekit/internal/nudge"
)

// ExportFormat is a data export target.
type ExportFormat string

const (
	ExportCSV    ExportFormat = "csv"
	ExportSheets ExportFormat = "sheets"
	ExportPDF    ExportFormat = "pdf"
)

// ParseExportFormat parses a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportCSV, ExportSheets, ExportPDF:
		return f, nil
	default:
		return "", fmt.Errorf("invalid export format %q: must be csv, sheets or pdf", s)
	}
}

// RequiredTier returns the lowest tier allowed to export in format.
func RequiredTier(format ExportFormat) nudge.Tier {
	if format == ExportPDF {
		return nudge.TierTop
	}
	return nudge.TierMid
}

// CheckExport returns a nudge request when tier may not export in format.
// feature names the report being exported and is only used for PDF.
func CheckExport(tier nudge.Tier, format ExportFormat, feature string) (Request, bool) {
	if tier.AtLeast(RequiredTier(format)) {
		return Request{}, false
	}
	if format == ExportPDF {
		ctx := nudge.Context{"exportType": string(format)}
		if feature != "" {
			ctx["featureName"] = feature
		}
		return Request{Type: nudge.TriggerPDFExport, Context: ctx}, true
	}
	return Request{
		Type:    nudge.TriggerExport,
		Context: nudge.Context{"exportType": string(format)},
	}, true
}
