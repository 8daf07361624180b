package pdfmd

import (
	"math"
	"sort"
	"strings"
)

// span is a run of words inside one table cell of a stream row.
type span struct {
	x0, x1 float64
	text   string
}

func (s span) center() float64 { return (s.x0 + s.x1) / 2 }

// splitSpans cuts a line at gaps wider than one em.
func splitSpans(l line) []span {
	var spans []span
	for _, w := range l.words {
		if n := len(spans); n > 0 && w.x0-spans[n-1].x1 <= math.Max(w.size, 1) {
			spans[n-1].x1 = w.x1
			spans[n-1].text += " " + w.text
			continue
		}
		spans = append(spans, span{x0: w.x0, x1: w.x1, text: w.text})
	}
	return spans
}

// detectStream finds whitespace-aligned tables: runs of at least two
// consecutive lines that each split into two or more spans. Columns are the
// union of overlapping span extents across the run.
func detectStream(glyphs []glyph) []Table {
	var (
		tables []Table
		run    [][]span
		prev   *line
	)
	flush := func() {
		if len(run) >= 2 {
			if t, ok := alignColumns(run); ok {
				tables = append(tables, t)
			}
		}
		run = nil
	}

	lines := buildLines(glyphs)
	for i := range lines {
		l := &lines[i]
		spans := splitSpans(*l)
		if len(spans) < 2 {
			flush()
			prev = l
			continue
		}
		if prev != nil && len(run) > 0 && prev.y-l.y > 2.5*math.Max(l.size, prev.size) {
			flush()
		}
		run = append(run, spans)
		prev = l
	}
	flush()
	return tables
}

// alignColumns assigns every span of the run to a column.
func alignColumns(run [][]span) (Table, bool) {
	var all []span
	for _, spans := range run {
		all = append(all, spans...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].x0 < all[j].x0 })

	var cols []span
	for _, s := range all {
		if n := len(cols); n > 0 && s.x0 <= cols[n-1].x1 {
			cols[n-1].x1 = math.Max(cols[n-1].x1, s.x1)
			continue
		}
		cols = append(cols, span{x0: s.x0, x1: s.x1})
	}
	if len(cols) < 2 {
		return nil, false
	}

	t := make(Table, len(run))
	for r, spans := range run {
		row := make([]string, len(cols))
		for _, s := range spans {
			c := sort.Search(len(cols), func(i int) bool { return cols[i].x1 >= s.center() })
			if c == len(cols) {
				c = len(cols) - 1
			}
			row[c] = strings.TrimSpace(row[c] + " " + s.text)
		}
		t[r] = row
	}
	return t, true
}
