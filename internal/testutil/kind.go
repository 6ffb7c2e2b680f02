package testutil

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/haystack/kind"
)

// KindDiff returns a human-readable diff between two kind values, or ""
// when they are structurally equal per kind.Equal.
//
// Usage:
//
//	if diff := testutil.KindDiff(want, got); diff != "" {
//	    t.Errorf("mismatch (-want +got):\n%s", diff)
//	}
func KindDiff(want, got kind.Kind) string {
	if kind.Equal(want, got) {
		return ""
	}
	diff := cmp.Diff(snapshot(want), snapshot(got))
	if diff == "" {
		// Equal renderings of unequal values, e.g. the same instant in
		// two zones that share an offset.
		diff = fmt.Sprintf("-%s\n+%s", kind.ToString(want), kind.ToString(got))
	}
	return diff
}

// snapshot renders v as plain maps and slices so cmp can walk it.
func snapshot(v kind.Kind) any {
	switch x := v.(type) {
	case nil:
		return nil
	case kind.List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = snapshot(e)
		}
		return out
	case kind.Dict:
		out := make(map[string]any, x.Len())
		for _, e := range x.Entries() {
			out[e.Name] = snapshot(e.Val)
		}
		return out
	case kind.Grid:
		cols := make([]any, 0, x.NumCols())
		for _, c := range x.Cols() {
			cols = append(cols, map[string]any{"name": c.Name, "meta": snapshot(c.Meta)})
		}
		rows := make([]any, 0, x.NumRows())
		for _, r := range x.Rows() {
			rows = append(rows, snapshot(r))
		}
		return map[string]any{"meta": snapshot(x.Meta()), "cols": cols, "rows": rows}
	case kind.DateTime:
		return fmt.Sprintf("DateTime(%s %s)", x.ISO(), x.Tz())
	}
	return fmt.Sprintf("%T(%s)", v, kind.ToString(v))
}
