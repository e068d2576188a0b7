// Package format turns assistant answers written in a small markdown dialect
// into HTML.
package format

import (
	"regexp"
	"strings"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)

	h4Pattern   = regexp.MustCompile(`(?m)^### (.+)$`)
	h3Pattern   = regexp.MustCompile(`(?m)^## (.+)$`)
	h2Pattern   = regexp.MustCompile(`(?m)^# (.+)$`)
	boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

	numberedItem = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)
	bulletItem   = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)
	listItemRun  = regexp.MustCompile(`(?:<li>.*</li>\s*)+`)

	paragraphBreak = regexp.MustCompile(`\n\n+`)
	emptyParagraph = regexp.MustCompile(`<p>\s*</p>`)
)

// FormatText converts the answer dialect (headers, bold, lists, tables and
// paragraphs) into HTML. Each stage runs on the output of the previous one.
// Input is not escaped; callers embedding the result in a page should pass
// it through Sanitize.
func FormatText(text string) string {
	formatted := excessNewlines.ReplaceAllString(text, "\n\n")

	// Tables go first so cell text is never read as a header or list item.
	formatted = ParseTables(formatted)

	formatted = h4Pattern.ReplaceAllString(formatted, "<h4>$1</h4>")
	formatted = h3Pattern.ReplaceAllString(formatted, "<h3>$1</h3>")
	formatted = h2Pattern.ReplaceAllString(formatted, "<h2>$1</h2>")

	formatted = boldPattern.ReplaceAllString(formatted, "<strong>$1</strong>")

	formatted = numberedItem.ReplaceAllString(formatted, "<li>$1</li>")
	formatted = bulletItem.ReplaceAllString(formatted, "<li>$1</li>")

	// Numbered and bullet items both end up in <ul>.
	formatted = listItemRun.ReplaceAllStringFunc(formatted, func(run string) string {
		return "<ul>" + run + "</ul>"
	})

	formatted = paragraphBreak.ReplaceAllString(formatted, "</p><p>")
	formatted = lineBreaks(formatted)

	formatted = "<p>" + formatted + "</p>"
	return emptyParagraph.ReplaceAllString(formatted, "")
}

// lineBreaks replaces each single newline with <br> unless it sits next to a
// tag boundary: preceded by '>' or followed by '<'. Newlines at either end of
// the text are left alone.
func lineBreaks(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' && i > 0 && i+1 < len(s) && s[i-1] != '>' && s[i+1] != '<' {
			b.WriteString("<br>")
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
