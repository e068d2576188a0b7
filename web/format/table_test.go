package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTables(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "one_line_candidate_passes_through",
			input: "text\n| only |\nmore",
			want:  "text\n| only |\nmore",
		},
		{
			name:  "no_table_lines",
			input: "just\ntext",
			want:  "just\ntext",
		},
		{
			name:  "indented_lines_are_trimmed",
			input: "  | a |  \n  |:---:|  ",
			want:  `<table class="markdown-table"><thead><tr><th>a</th></tr></thead></table>`,
		},
		{
			name:  "rows_without_separator_are_body_rows",
			input: "| a |\n| b |",
			want:  `<table class="markdown-table"><tbody><tr><td>a</td></tr><tr><td>b</td></tr></tbody></table>`,
		},
		{
			name:  "separator_only_table_has_no_wrappers",
			input: "|---|\n| - |",
			want:  `<table class="markdown-table"></table>`,
		},
		{
			name:  "body_wrapped_once",
			input: "| h1 | h2 |\n| --- | :-: |\n|  1 |  2 |\n| 3 | 4 |",
			want:  `<table class="markdown-table"><thead><tr><th>h1</th><th>h2</th></tr></thead><tbody><tr><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></tbody></table>`,
		},
		{
			name:  "later_separator_rows_are_dropped",
			input: "| h |\n|---|\n| 1 |\n|---|\n| 2 |",
			want:  `<table class="markdown-table"><thead><tr><th>h</th></tr></thead><tbody><tr><td>1</td></tr><tr><td>2</td></tr></tbody></table>`,
		},
		{
			name:  "two_tables_split_by_text",
			input: "| a |\n| b |\nmid\n| c |\n| d |",
			want: `<table class="markdown-table"><tbody><tr><td>a</td></tr><tr><td>b</td></tr></tbody></table>` +
				"\nmid\n" +
				`<table class="markdown-table"><tbody><tr><td>c</td></tr><tr><td>d</td></tr></tbody></table>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTables(tt.input))
		})
	}
}

func TestSplitCells(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, splitCells("| a |b ||"))
	assert.Equal(t, []string{""}, splitCells("|"))
}

func TestIsSeparatorRow(t *testing.T) {
	assert.True(t, isSeparatorRow("|---|---|"))
	assert.True(t, isSeparatorRow("  | :-- | --: |  "))
	assert.False(t, isSeparatorRow("| a |"))
	assert.False(t, isSeparatorRow("||"))
}
