package kind

import (
	"fmt"
	"time"
)

// Version is the only supported grid version.
const Version = "3.0"

// Col is a grid column definition. An empty Meta means no column meta.
type Col struct {
	Name string
	Meta Dict
}

// Grid is a two-dimensional table: grid meta, ordered columns, and rows of
// sparse dicts keyed by column name.
//
// INVARIANTS (enforced by NewGrid):
//   - meta["ver"] == "3.0" and ver is the first meta tag
//   - column names are valid tag names and unique
//   - every row tag names a declared column
type Grid struct {
	meta Dict
	cols []Col
	rows []Dict
}

func (Grid) kind() {}

// NewGrid creates a Grid, validating its invariants. A missing ver tag is
// added; a ver other than "3.0" is rejected.
func NewGrid(meta Dict, cols []Col, rows []Dict) (Grid, error) {
	if v, ok := meta.Get("ver"); ok {
		if s, isStr := v.(Str); !isStr || string(s) != Version {
			return Grid{}, &ValidationError{Field: "meta.ver", Message: fmt.Sprintf("unsupported grid version %s", ToString(v))}
		}
	}
	meta = NewDict(E("ver", Str(Version))).Merge(meta)

	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if !ValidName(c.Name) {
			return Grid{}, &ValidationError{Field: fmt.Sprintf("cols[%d].name", i), Message: fmt.Sprintf("invalid column name %q", c.Name)}
		}
		if seen[c.Name] {
			return Grid{}, &ValidationError{Field: fmt.Sprintf("cols[%d].name", i), Message: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		seen[c.Name] = true
	}
	for i, r := range rows {
		for _, name := range r.Keys() {
			if !seen[name] {
				return Grid{}, &ValidationError{Field: fmt.Sprintf("rows[%d].%s", i, name), Message: "tag is not a declared column"}
			}
		}
	}

	g := Grid{
		meta: meta,
		cols: make([]Col, len(cols)),
		rows: make([]Dict, len(rows)),
	}
	copy(g.cols, cols)
	copy(g.rows, rows)
	return g, nil
}

// MustGrid is like NewGrid but panics on error. Intended for fixtures.
func MustGrid(meta Dict, cols []Col, rows []Dict) Grid {
	g, err := NewGrid(meta, cols, rows)
	if err != nil {
		panic(err)
	}
	return g
}

// GridFromRows creates a Grid whose columns are the union of the row tags in
// first-seen order. extraMeta is merged after ver.
//
// When the first and last rows both carry a DateTime "ts" tag, hisStart is
// set to the first and hisEnd to the last plus one minute.
func GridFromRows(rows []Dict, extraMeta Dict) (Grid, error) {
	var cols []Col
	seen := map[string]bool{}
	for _, r := range rows {
		for _, name := range r.Keys() {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, Col{Name: name})
			}
		}
	}

	meta := extraMeta
	if len(rows) > 0 {
		first, okFirst := rows[0].Get("ts")
		last, okLast := rows[len(rows)-1].Get("ts")
		start, isStart := first.(DateTime)
		end, isEnd := last.(DateTime)
		if okFirst && okLast && isStart && isEnd {
			meta = meta.
				With("hisStart", start).
				With("hisEnd", NewDateTime(end.Time().Add(time.Minute)))
		}
	}
	return NewGrid(meta, cols, rows)
}

// Meta returns the grid meta.
func (g Grid) Meta() Dict { return g.meta }

// NumCols returns the number of columns.
func (g Grid) NumCols() int { return len(g.cols) }

// Cols returns a copy of the column definitions.
func (g Grid) Cols() []Col {
	out := make([]Col, len(g.cols))
	copy(out, g.cols)
	return out
}

// Col returns the column with the given name.
func (g Grid) Col(name string) (Col, bool) {
	for _, c := range g.cols {
		if c.Name == name {
			return c, true
		}
	}
	return Col{}, false
}

// ColNames returns the column names in order.
func (g Grid) ColNames() []string {
	names := make([]string, len(g.cols))
	for i, c := range g.cols {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the number of rows.
func (g Grid) NumRows() int { return len(g.rows) }

// Row returns row i.
func (g Grid) Row(i int) Dict { return g.rows[i] }

// Rows returns a copy of the rows.
func (g Grid) Rows() []Dict {
	out := make([]Dict, len(g.rows))
	copy(out, g.rows)
	return out
}

func (g Grid) String() string {
	return fmt.Sprintf("Grid(%d cols, %d rows)", len(g.cols), len(g.rows))
}
