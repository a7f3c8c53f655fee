// package formatter renders admin settings for the terminal and for export (plain text, JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/shared"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format names an output format accepted by [Render].
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Formats lists every supported format in display order.
func Formats() []Format { return []Format{Text, JSON, CSV, Markdown} }

var printer = message.NewPrinter(language.English)

// ParseFormat accepts a format name case-insensitively; "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, CSV, Markdown:
		return f, nil
	case "md":
		return Markdown, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, csv or markdown)", shared.ErrInvalidFlag, s)
	}
}

// Amount formats a price with digit grouping, e.g. 1500 -> "1,500".
func Amount(n int) string {
	return printer.Sprintf("%d", n)
}

// YesNo renders a boolean for people.
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Render converts settings to the requested format. pretty only affects JSON.
func Render(s models.AdminSettings, f Format, pretty bool) ([]byte, error) {
	switch f {
	case Text, "":
		return ExportToText(s)
	case JSON:
		return ExportToJSON(s, pretty)
	case CSV:
		return ExportToCSV(s)
	case Markdown:
		return ExportToMarkdown(s)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToText renders the heading, the charge choice and one aligned row per category.
func ExportToText(s models.AdminSettings) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(s.Heading() + "\n")
	buf.WriteString(fmt.Sprintf("Admin ID: %d\n", s.ID))
	buf.WriteString(fmt.Sprintf("Charge customers: %s\n\n", YesNo(s.ChargeCustomers)))

	width := 0
	for _, spec := range models.Categories() {
		width = max(width, len(spec.Label))
	}
	for _, spec := range models.Categories() {
		buf.WriteString(fmt.Sprintf("%-*s  %8s  (min %s)\n", width, spec.Label, Amount(s.Amounts.Get(spec.Category)), Amount(spec.Floor)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the settings with their wire field names.
func ExportToJSON(s models.AdminSettings, pretty bool) ([]byte, error) {
	data, err := shared.MarshalJSON(s, pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts the amounts to CSV with columns: Key, Wire Key, Label, Floor, Amount
func ExportToCSV(s models.AdminSettings) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Key", "Wire Key", "Label", "Floor", "Amount"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, spec := range models.Categories() {
		record := []string{
			spec.Key,
			spec.WireKey,
			spec.Label,
			strconv.Itoa(spec.Floor),
			strconv.Itoa(s.Amounts.Get(spec.Category)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, the charge choice and a price table.
func ExportToMarkdown(s models.AdminSettings) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", s.Heading()))
	buf.WriteString(fmt.Sprintf("**Charge customers**: %s\n\n", YesNo(s.ChargeCustomers)))

	buf.WriteString("## Song request prices\n\n")
	buf.WriteString("| Category | Field | Minimum | Amount |\n")
	buf.WriteString("| --- | --- | ---: | ---: |\n")
	for _, spec := range models.Categories() {
		buf.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n", spec.Label, spec.WireKey, Amount(spec.Floor), Amount(s.Amounts.Get(spec.Category))))
	}

	return buf.Bytes(), nil
}
