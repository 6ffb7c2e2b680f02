package kind

import (
	"strings"
)

// Entry is a single name/value pair of a Dict.
type Entry struct {
	Name string
	Val  Kind
}

// E is a shorthand for Entry for ergonomic construction.
// Example: NewDict(E("site", Marker{}), E("area", NewNumber(120, "m²")))
func E(name string, val Kind) Entry {
	return Entry{Name: name, Val: val}
}

// Dict is an ordered, immutable map of tag name to value.
//
// Insertion order is preserved so that writers are deterministic. Equality
// ignores order. Null values are never stored: constructing or setting a
// tag to nil leaves it absent.
type Dict struct {
	entries []Entry
	byName  map[string]int // position of each name in entries
}

func (Dict) kind() {}

// NewDict creates a Dict from entries. Nil values are dropped and a repeated
// name replaces the earlier value in its original position.
func NewDict(entries ...Entry) Dict {
	out := make([]Entry, 0, len(entries))
	pos := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := pos[e.Name]; ok {
			out[i].Val = e.Val
			continue
		}
		if e.Val == nil {
			continue
		}
		pos[e.Name] = len(out)
		out = append(out, e)
	}
	return fromEntries(out)
}

// fromEntries indexes entries, dropping nil values. It takes ownership of
// the slice.
func fromEntries(entries []Entry) Dict {
	n := 0
	for _, e := range entries {
		if e.Val != nil {
			entries[n] = e
			n++
		}
	}
	if n == 0 {
		return Dict{}
	}
	entries = entries[:n]
	byName := make(map[string]int, n)
	for i, e := range entries {
		byName[e.Name] = i
	}
	return Dict{entries: entries, byName: byName}
}

// DictFromMap creates a Dict from a map with keys in the given order. Keys
// not present in the map are skipped.
func DictFromMap(m map[string]Kind, order []string) Dict {
	entries := make([]Entry, 0, len(order))
	for _, k := range order {
		if v, ok := m[k]; ok {
			entries = append(entries, Entry{Name: k, Val: v})
		}
	}
	return NewDict(entries...)
}

func (d Dict) index(name string) int {
	if i, ok := d.byName[name]; ok {
		return i
	}
	return -1
}

// set returns a copy of d with name set. d is never mutated.
func (d Dict) set(name string, val Kind) Dict {
	i := d.index(name)
	if val == nil && i < 0 {
		return d
	}
	out := make([]Entry, len(d.entries), len(d.entries)+1)
	copy(out, d.entries)
	if i >= 0 {
		out[i].Val = val
	} else {
		out = append(out, Entry{Name: name, Val: val})
	}
	return fromEntries(out)
}

// Len returns the number of tags.
func (d Dict) Len() int { return len(d.entries) }

// IsEmpty reports whether the dict has no tags.
func (d Dict) IsEmpty() bool { return len(d.entries) == 0 }

// Get returns the value for name and whether it is present.
func (d Dict) Get(name string) (Kind, bool) {
	if i := d.index(name); i >= 0 {
		return d.entries[i].Val, true
	}
	return nil, false
}

// Has reports whether name is present.
func (d Dict) Has(name string) bool { return d.index(name) >= 0 }

// Keys returns tag names in insertion order.
func (d Dict) Keys() []string {
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Name
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (d Dict) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// With returns a copy of d with name set to val. A nil val removes the tag.
func (d Dict) With(name string, val Kind) Dict { return d.set(name, val) }

// Without returns a copy of d with name removed.
func (d Dict) Without(name string) Dict { return d.set(name, nil) }

// Merge returns a copy of d with every tag of other applied on top.
func (d Dict) Merge(other Dict) Dict {
	if other.IsEmpty() {
		return d
	}
	entries := make([]Entry, 0, len(d.entries)+len(other.entries))
	entries = append(entries, d.entries...)
	entries = append(entries, other.entries...)
	return NewDict(entries...)
}

func (d Dict) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Name)
		sb.WriteString(": ")
		sb.WriteString(ToString(e.Val))
	}
	sb.WriteByte('}')
	return sb.String()
}
