package kind

import "math"

// Equal reports whether a and b are structurally equal.
//
// Numbers compare NaN equal to NaN so that round trips of special values
// hold. DateTimes compare the instant and the IANA zone id. Dicts compare
// as maps; Lists, columns and rows compare in order.
func Equal(a, b Kind) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case Marker, NA, Remove, Bool, Str, Ref, Symbol, Uri, Coord, XStr, Date, Time:
		return a == b
	case Number:
		y, ok := b.(Number)
		if !ok || x.Unit != y.Unit {
			return false
		}
		if math.IsNaN(x.Val) || math.IsNaN(y.Val) {
			return math.IsNaN(x.Val) && math.IsNaN(y.Val)
		}
		return x.Val == y.Val
	case DateTime:
		y, ok := b.(DateTime)
		return ok && x.val.Equal(y.val) && x.Tz() == y.Tz()
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Dict:
		y, ok := b.(Dict)
		return ok && x.Equal(y)
	case Grid:
		y, ok := b.(Grid)
		return ok && x.Equal(y)
	}
	return false
}

// Equal reports whether d and other hold the same tags and values.
func (d Dict) Equal(other Dict) bool {
	if len(d.entries) != len(other.entries) {
		return false
	}
	for _, e := range d.entries {
		v, ok := other.Get(e.Name)
		if !ok || !Equal(e.Val, v) {
			return false
		}
	}
	return true
}

// Equal reports whether g and other have equal meta, columns and rows.
func (g Grid) Equal(other Grid) bool {
	if !g.meta.Equal(other.meta) || len(g.cols) != len(other.cols) || len(g.rows) != len(other.rows) {
		return false
	}
	for i := range g.cols {
		if g.cols[i].Name != other.cols[i].Name || !g.cols[i].Meta.Equal(other.cols[i].Meta) {
			return false
		}
	}
	for i := range g.rows {
		if !g.rows[i].Equal(other.rows[i]) {
			return false
		}
	}
	return true
}
