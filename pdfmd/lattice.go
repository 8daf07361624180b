package pdfmd

import (
	"math"
	"sort"
	"strings"
)

// joinTol is how close two rules must come to be considered connected.
const joinTol = 2.0

// grid is a table skeleton: column boundaries left to right, row
// boundaries top to bottom.
type grid struct {
	xs []float64
	ys []float64
}

func (g grid) contains(x, y float64) bool {
	return x >= g.xs[0] && x <= g.xs[len(g.xs)-1] && y <= g.ys[0] && y >= g.ys[len(g.ys)-1]
}

// cell returns the row and column of the point, which must be inside g.
func (g grid) cell(x, y float64) (row, col int) {
	col = sort.Search(len(g.xs)-1, func(i int) bool { return g.xs[i+1] >= x })
	row = sort.Search(len(g.ys)-1, func(i int) bool { return g.ys[i+1] <= y })
	return min(row, len(g.ys)-2), min(col, len(g.xs)-2)
}

// detectLattice finds ruled tables: connected groups of horizontal and
// vertical rules that form at least two cells. Text is assigned to cells by
// glyph center. Tables without any text are dropped.
func detectLattice(rules []rule, glyphs []glyph) []Table {
	var grids []grid
	for _, group := range connectRules(rules) {
		if g, ok := gridOf(group); ok {
			grids = append(grids, g)
		}
	}
	sort.SliceStable(grids, func(i, j int) bool {
		if grids[i].ys[0] != grids[j].ys[0] {
			return grids[i].ys[0] > grids[j].ys[0]
		}
		return grids[i].xs[0] < grids[j].xs[0]
	})

	var tables []Table
	for _, g := range grids {
		if t, ok := fillGrid(g, glyphs); ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// connectRules partitions rules into connected components.
func connectRules(rules []rule) [][]rule {
	parent := make([]int, len(rules))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range rules {
		for j := i + 1; j < len(rules); j++ {
			if touches(rules[i], rules[j]) {
				parent[find(i)] = find(j)
			}
		}
	}

	byRoot := make(map[int][]rule)
	var order []int
	for i, r := range rules {
		root := find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], r)
	}
	groups := make([][]rule, 0, len(order))
	for _, root := range order {
		groups = append(groups, byRoot[root])
	}
	return groups
}

func touches(a, b rule) bool {
	if a.horizontal == b.horizontal {
		return math.Abs(a.pos-b.pos) <= joinTol && a.from <= b.to+joinTol && b.from <= a.to+joinTol
	}
	return a.pos >= b.from-joinTol && a.pos <= b.to+joinTol &&
		b.pos >= a.from-joinTol && b.pos <= a.to+joinTol
}

func gridOf(group []rule) (grid, bool) {
	var xs, ys []float64
	for _, r := range group {
		if r.horizontal {
			ys = append(ys, r.pos)
		} else {
			xs = append(xs, r.pos)
		}
	}
	xs = clusterPositions(xs, joinTol)
	ys = clusterPositions(ys, joinTol)
	if len(xs) < 2 || len(ys) < 2 || (len(xs)-1)*(len(ys)-1) < 2 {
		return grid{}, false
	}
	for i, j := 0, len(ys)-1; i < j; i, j = i+1, j-1 {
		ys[i], ys[j] = ys[j], ys[i]
	}
	return grid{xs: xs, ys: ys}, true
}

func fillGrid(g grid, glyphs []glyph) (Table, bool) {
	rows, cols := len(g.ys)-1, len(g.xs)-1
	buckets := make([][]glyph, rows*cols)
	hasText := false
	for _, gl := range glyphs {
		cx, cy := gl.x+gl.w/2, gl.y+gl.size*0.3
		if !g.contains(cx, cy) {
			continue
		}
		r, c := g.cell(cx, cy)
		buckets[r*cols+c] = append(buckets[r*cols+c], gl)
		hasText = hasText || strings.TrimSpace(gl.s) != ""
	}
	if !hasText {
		return nil, false
	}

	t := make(Table, rows)
	for r := range t {
		t[r] = make([]string, cols)
		for c := range t[r] {
			t[r][c] = cellText(buckets[r*cols+c])
		}
	}
	return t, true
}

// cellText lays out the glyphs of one cell as lines joined by newlines.
func cellText(glyphs []glyph) string {
	lines := buildLines(glyphs)
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text()
	}
	return strings.Join(parts, "\n")
}
