package format

import (
	"regexp"
	"strings"
)

// TableClass is set on every table produced by ParseTables.
const TableClass = "markdown-table"

var separatorRow = regexp.MustCompile(`^\|[\s:|-]+\|$`)

// ParseTables replaces every run of two or more pipe-delimited lines with an
// HTML table. Shorter runs and all other lines are kept as they are.
func ParseTables(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))

	for i := 0; i < len(lines); {
		if !isTableLine(lines[i]) {
			result = append(result, lines[i])
			i++
			continue
		}

		start := i
		for i < len(lines) && isTableLine(lines[i]) {
			i++
		}
		block := lines[start:i]

		if len(block) < 2 {
			result = append(result, block...)
			continue
		}
		result = append(result, tableToHTML(block))
	}

	return strings.Join(result, "\n")
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

func isSeparatorRow(line string) bool {
	return separatorRow.MatchString(strings.TrimSpace(line))
}

// splitCells strips the outer pipes and returns the trimmed cells.
func splitCells(line string) []string {
	inner := ""
	if len(line) >= 2 {
		inner = line[1 : len(line)-1]
	}
	cells := strings.Split(inner, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// tableToHTML renders one candidate table. The first data row is a header
// only when the raw line right after it is a separator. Separator rows are
// dropped, and <tbody> is only written when there is at least one body row.
func tableToHTML(lines []string) string {
	var b strings.Builder
	b.WriteString(`<table class="` + TableClass + `">`)

	seenFirstRow := false
	bodyOpen := false

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if isSeparatorRow(line) {
			continue
		}
		cells := splitCells(line)

		if !seenFirstRow {
			seenFirstRow = true
			if i+1 < len(lines) && isSeparatorRow(lines[i+1]) {
				b.WriteString("<thead>")
				writeRow(&b, "th", cells)
				b.WriteString("</thead>")
				continue
			}
		}

		if !bodyOpen {
			b.WriteString("<tbody>")
			bodyOpen = true
		}
		writeRow(&b, "td", cells)
	}

	if bodyOpen {
		b.WriteString("</tbody>")
	}
	b.WriteString("</table>")
	return b.String()
}

func writeRow(b *strings.Builder, cellTag string, cells []string) {
	b.WriteString("<tr>")
	for _, cell := range cells {
		b.WriteString("<" + cellTag + ">")
		b.WriteString(cell)
		b.WriteString("</" + cellTag + ">")
	}
	b.WriteString("</tr>")
}
