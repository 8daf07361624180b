package pdfmd

// table.go: Markdown table renderer for detected tables.

import "strings"

// RenderTable converts a table matrix into a GitHub-Flavored Markdown table.
// The first row is always the header. The column count is that of the widest
// row, not the header: a data row longer than the header widens the header
// with empty cells so no cell is dropped, and shorter rows are padded with
// empty cells. Newlines inside cells become <br>. A matrix with no cells
// renders as "".
func RenderTable(rows Table) string {
	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols == 0 {
		return ""
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return escapeCell(row[col])
		}
		return ""
	}
	writeRow := func(sb *strings.Builder, row []string) {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			sb.WriteString(" " + cell(row, i) + " |")
		}
		sb.WriteByte('\n')
	}

	var sb strings.Builder
	writeRow(&sb, rows[0])

	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteByte('\n')

	for _, row := range rows[1:] {
		writeRow(&sb, row)
	}
	return sb.String()
}

var cellReplacer = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
)

// escapeCell keeps a cell value on one line without breaking the table syntax.
func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}
