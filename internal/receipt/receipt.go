// Package receipt wraps the receipt content the terminal produces and
// exports it for display, storage, or archival.
package receipt

import (
	"fmt"
	"strings"
	"time"
)

const exportTimestampLayout = "2006-01-02 15:04:05"

// Receipt is the content of one printed or electronic receipt.
type Receipt struct {
	Type        string
	PlainText   string
	HTML        string
	CashierName string
	GeneratedAt time.Time
}

// Valid reports whether the receipt carries any content.
func (r *Receipt) Valid() bool {
	return strings.TrimSpace(r.PlainText) != "" || strings.TrimSpace(r.HTML) != ""
}

// PreferredContent returns HTML when present, plain text otherwise.
func (r *Receipt) PreferredContent() string {
	if strings.TrimSpace(r.HTML) != "" {
		return r.HTML
	}
	return r.PlainText
}

// ExportForDisplay renders the receipt with the fixed metadata banner.
// With includeMetadata false only the bare content is returned.
func (r *Receipt) ExportForDisplay(includeMetadata bool) string {
	content := r.PreferredContent()
	if !includeMetadata {
		return content
	}

	var b strings.Builder
	b.WriteString("=== RECEIPT ===\n")
	fmt.Fprintf(&b, "Type: %s\n", r.Type)
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format(exportTimestampLayout))
	if strings.TrimSpace(r.CashierName) != "" {
		fmt.Fprintf(&b, "Cashier: %s\n", r.CashierName)
	}
	b.WriteString("--- CONTENT ---\n")
	b.WriteString(content)
	b.WriteString("\n--- END RECEIPT ---")
	return b.String()
}

// ValidationResult collects the outcome of a receipt content check.
type ValidationResult struct {
	Valid    bool
	Summary  string
	Issues   []string
	Warnings []string
}

// Validate checks the receipt for structural problems. Empty content is
// an issue; a missing type or cashier name is only a warning.
func (r *Receipt) Validate() ValidationResult {
	var issues, warnings []string

	if !r.Valid() {
		issues = append(issues, "receipt has no plain text or HTML content")
	}
	if strings.TrimSpace(r.Type) == "" {
		warnings = append(warnings, "receipt type is not set")
	}
	if r.GeneratedAt.IsZero() {
		warnings = append(warnings, "generation timestamp is not set")
	}

	res := ValidationResult{
		Valid:    len(issues) == 0,
		Issues:   issues,
		Warnings: warnings,
	}
	if res.Valid {
		res.Summary = fmt.Sprintf("receipt ok, %d warning(s)", len(warnings))
	} else {
		res.Summary = fmt.Sprintf("receipt invalid: %d issue(s), %d warning(s)", len(issues), len(warnings))
	}
	return res
}
