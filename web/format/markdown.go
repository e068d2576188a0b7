package format

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var numberedListPrefix = regexp.MustCompile(`^\d+\.\s`)

// Markdown renders text as CommonMark with tables through gomarkdown.
func Markdown(text string) string {
	// Parsers keep state, so each render gets its own.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})

	doc := p.Parse([]byte(normalizeMarkdownLists(text)))
	return string(markdown.Render(doc, renderer))
}

// normalizeMarkdownLists ensures list items have proper spacing for markdown parsing.
// Markdown requires a blank line before lists, but LLMs often forget this.
func normalizeMarkdownLists(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i, line := range lines {
		if i > 0 && isListLine(line) {
			prevLine := strings.TrimSpace(lines[i-1])
			if prevLine != "" && !isListLine(prevLine) {
				result = append(result, "")
			}
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

func isListLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "- ") ||
		strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "+ ") ||
		numberedListPrefix.MatchString(trimmed)
}
