// Package extract pulls text out of uploaded certificates and parses the key
// fields (institution, student, course, issue date) from that text.
package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	pdf "github.com/ledongthuc/pdf"
)

// TextFromPDF reads PDF bytes and returns plain text page by page.
func TextFromPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return strings.TrimSpace(builder.String()), nil
}

// Fields are the best-effort labels parsed from certificate text. Parsing
// never fails; absent labels simply stay empty.
type Fields struct {
	Institution string
	Student     string
	Course      string
	IssueDate   *time.Time
}

var (
	institutionRe = regexp.MustCompile(`(?i)(?:institution|college|university)\s*[:\-]?\s*(.+)`)
	studentRe     = regexp.MustCompile(`(?i)(?:student\s*name|name)\s*[:\-]?\s*(.+)`)
	courseRe      = regexp.MustCompile(`(?i)(?:course\s*name|course|program|degree)\s*[:\-]?\s*(.+)`)
	dateRe        = regexp.MustCompile(`(?i)(?:issue\s*date|date\s*of\s*issue|issued\s*on|date)\s*[:\-]?\s*([0-9]{1,2}[\-/ ]?[A-Za-z]{3,9}[\-/ ]?[0-9]{2,4}|[0-9]{4}[\-/][0-9]{2}[\-/][0-9]{2})`)
)

var dateLayouts = []string{
	"2-Jan-2006",
	"2 January 2006",
	"2/1/2006",
	"2006-01-02",
	"2-1-2006",
	"1/2/2006",
}

// ParseFields scans certificate text for common labels.
func ParseFields(text string) Fields {
	var f Fields
	if m := institutionRe.FindStringSubmatch(text); m != nil {
		f.Institution = strings.TrimSpace(m[1])
	}
	if m := studentRe.FindStringSubmatch(text); m != nil {
		f.Student = strings.TrimSpace(m[1])
	}
	if m := courseRe.FindStringSubmatch(text); m != nil {
		f.Course = strings.TrimSpace(m[1])
	}
	if m := dateRe.FindStringSubmatch(text); m != nil {
		if parsed, ok := parseDate(strings.TrimSpace(m[1])); ok {
			f.IssueDate = &parsed
		}
	}
	return f
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Truncate shortens extracted text for the upload response, appending an
// ellipsis when anything was cut. The cut backs up to a rune boundary so the
// result stays valid UTF-8.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
