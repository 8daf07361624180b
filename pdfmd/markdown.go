package pdfmd

import (
	"strconv"
	"strings"
)

// pageDelimiter closes every page section.
var pageDelimiter = strings.Repeat("$", 40) + "\n\n"

// Some Word-exported PDFs carry Symbol-font bullets as private-use glyphs.
var bulletReplacer = strings.NewReplacer(
	"\uf0d8", "- ",
	"\uf0b7", "\t- ",
)

// ToMarkdown assembles page records into one Markdown document. Each page
// gets a "## Page N" heading, its text, its lattice tables and its stream
// tables, and ends with a delimiter line.
func ToMarkdown(pages []PageRecord) string {
	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString("\n\n## Page " + strconv.Itoa(p.PageNumber))
		sb.WriteString("\n\n" + p.Text)

		sb.WriteString("\n\n Lattice Tables:\n\n")
		writeTables(&sb, p.LatticeTables)

		sb.WriteString("\n\n Stream Tables:\n")
		writeTables(&sb, p.StreamTables)

		sb.WriteString(pageDelimiter)
	}
	return bulletReplacer.Replace(sb.String())
}

func writeTables(sb *strings.Builder, tables []Table) {
	for i, t := range tables {
		sb.WriteString("\n\n Table " + strconv.Itoa(i+1) + ":\n\n")
		sb.WriteString(RenderTable(t) + "\n\n")
	}
}
