package pdfmd

// geometry.go: page layout primitives shared by the native detectors.
//
// Coordinates are PDF user space: x grows to the right, y grows upwards.

import (
	"math"
	"sort"
	"strings"
)

// glyph is one positioned text run, usually a single character.
type glyph struct {
	x, y, w, size float64
	s             string
}

func (g glyph) right() float64 { return g.x + g.w }

// word is a run of glyphs on one baseline without a visible gap.
type word struct {
	x0, x1, y, size float64
	text            string
}

// line is a set of words sharing a baseline, ordered left to right.
type line struct {
	y     float64
	size  float64
	words []word
}

// text joins the words of l with single spaces.
func (l line) text() string {
	parts := make([]string, len(l.words))
	for i, w := range l.words {
		parts[i] = w.text
	}
	return strings.Join(parts, " ")
}

// baselineTol is how far two glyphs may drift vertically and still share a line.
func baselineTol(size float64) float64 {
	return math.Max(size*0.4, 1)
}

// buildLines groups glyphs into lines (top to bottom) and words.
func buildLines(glyphs []glyph) []line {
	if len(glyphs) == 0 {
		return nil
	}
	gs := append([]glyph(nil), glyphs...)
	sort.SliceStable(gs, func(i, j int) bool {
		if gs[i].y != gs[j].y {
			return gs[i].y > gs[j].y
		}
		return gs[i].x < gs[j].x
	})

	var (
		lines []line
		row   []glyph
	)
	flush := func() {
		if len(row) == 0 {
			return
		}
		sort.SliceStable(row, func(i, j int) bool { return row[i].x < row[j].x })
		l := line{y: row[0].y}
		for _, g := range row {
			l.size = math.Max(l.size, g.size)
		}
		l.words = buildWords(row)
		if len(l.words) > 0 {
			lines = append(lines, l)
		}
		row = nil
	}
	for _, g := range gs {
		if len(row) > 0 && math.Abs(g.y-row[0].y) > baselineTol(math.Max(g.size, row[0].size)) {
			flush()
		}
		row = append(row, g)
	}
	flush()
	return lines
}

// buildWords merges a left-to-right glyph row into words. A gap wider than
// a quarter of the font size, or a whitespace glyph, ends a word.
func buildWords(row []glyph) []word {
	var (
		words []word
		cur   *word
		sb    strings.Builder
	)
	end := func() {
		if cur != nil {
			cur.text = strings.TrimSpace(sb.String())
			if cur.text != "" {
				words = append(words, *cur)
			}
		}
		cur = nil
		sb.Reset()
	}
	for _, g := range row {
		if strings.TrimSpace(g.s) == "" {
			end()
			continue
		}
		if cur != nil && g.x-cur.x1 > math.Max(g.size, 1)*0.25 {
			end()
		}
		if cur == nil {
			cur = &word{x0: g.x, x1: g.right(), y: g.y, size: g.size}
		}
		// Multi-character runs may carry their own inner spaces.
		sb.WriteString(g.s)
		cur.x1 = math.Max(cur.x1, g.right())
		cur.size = math.Max(cur.size, g.size)
	}
	end()
	return words
}

// rule is a horizontal or vertical ruling segment.
type rule struct {
	horizontal bool
	pos        float64 // y for horizontal rules, x for vertical ones
	from, to   float64 // extent along the other axis
}

// ruleThickness is the widest a filled rectangle may be to count as a line.
const ruleThickness = 2.0

// rulesFromRect turns a rectangle into rules: thin rectangles are lines,
// others contribute their four edges.
func rulesFromRect(x0, y0, x1, y1 float64) []rule {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	w, h := x1-x0, y1-y0
	switch {
	case w <= ruleThickness && h <= ruleThickness:
		return nil
	case h <= ruleThickness:
		return []rule{{horizontal: true, pos: (y0 + y1) / 2, from: x0, to: x1}}
	case w <= ruleThickness:
		return []rule{{horizontal: false, pos: (x0 + x1) / 2, from: y0, to: y1}}
	}
	return []rule{
		{horizontal: true, pos: y0, from: x0, to: x1},
		{horizontal: true, pos: y1, from: x0, to: x1},
		{horizontal: false, pos: x0, from: y0, to: y1},
		{horizontal: false, pos: x1, from: y0, to: y1},
	}
}

// clusterPositions chains positions no further than tol apart and returns
// the smallest value of each chain, ascending.
func clusterPositions(vals []float64, tol float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	vs := append([]float64(nil), vals...)
	sort.Float64s(vs)
	out := []float64{vs[0]}
	for i := 1; i < len(vs); i++ {
		if vs[i]-vs[i-1] > tol {
			out = append(out, vs[i])
		}
	}
	return out
}
