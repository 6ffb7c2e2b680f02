package zinc

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/tz"
)

// Writer renders kind values as Zinc text.
//
// Each call to Write encodes into memory first, so nothing reaches the
// underlying io.Writer when the value cannot be encoded.
type Writer struct {
	w      io.Writer
	mapper *tz.Mapper
}

// NewWriter creates a Writer over w. Only WithMapper applies.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	cfg := newConfig(opts)
	return &Writer{w: w, mapper: cfg.mapper}
}

// Marshal encodes v as Zinc.
func Marshal(v kind.Kind, opts ...Option) ([]byte, error) {
	s, err := MarshalString(v, opts...)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// MarshalString encodes v as a Zinc string.
func MarshalString(v kind.Kind, opts ...Option) (string, error) {
	e := encoder{mapper: newConfig(opts).mapper}
	if err := e.top(v); err != nil {
		return "", err
	}
	return e.sb.String(), nil
}

// Write encodes v and writes it to the underlying writer.
func (w *Writer) Write(v kind.Kind) error {
	e := encoder{mapper: w.mapper}
	if err := e.top(v); err != nil {
		return err
	}
	_, err := io.WriteString(w.w, e.sb.String())
	return err
}

type encoder struct {
	sb     strings.Builder
	mapper *tz.Mapper
}

func (e *encoder) top(v kind.Kind) error {
	if g, ok := v.(kind.Grid); ok {
		return e.grid(g, "")
	}
	return e.val(v, "")
}

func (e *encoder) fail(path, format string, args ...any) error {
	return &EncodeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func (e *encoder) val(v kind.Kind, path string) error {
	switch x := v.(type) {
	case nil:
		e.sb.WriteString("N")
	case kind.Marker:
		e.sb.WriteString("M")
	case kind.NA:
		e.sb.WriteString("NA")
	case kind.Remove:
		e.sb.WriteString("R")
	case kind.Bool:
		if x {
			e.sb.WriteString("T")
		} else {
			e.sb.WriteString("F")
		}
	case kind.Str:
		writeStr(&e.sb, string(x))
	case kind.Number:
		if !x.IsFinite() && x.Unit != "" {
			return e.fail(path, "non-finite number %s cannot carry unit %q", kind.FormatFloat(x.Val), x.Unit)
		}
		e.sb.WriteString(kind.FormatFloat(x.Val))
		e.sb.WriteString(x.Unit)
	case kind.Ref:
		if err := e.id("@", x.Val, path); err != nil {
			return err
		}
		if x.Dis != "" {
			e.sb.WriteByte(' ')
			writeStr(&e.sb, x.Dis)
		}
	case kind.Symbol:
		return e.id("^", x.Val, path)
	case kind.Uri:
		writeUri(&e.sb, x.Val)
	case kind.Coord:
		e.sb.WriteString("C(")
		e.sb.WriteString(kind.FormatFloat(x.Lat))
		e.sb.WriteByte(',')
		e.sb.WriteString(kind.FormatFloat(x.Lng))
		e.sb.WriteByte(')')
	case kind.XStr:
		if !kind.ValidXStrType(x.Type) {
			return e.fail(path, "invalid XStr type %q", x.Type)
		}
		e.sb.WriteString(x.Type)
		e.sb.WriteByte('(')
		writeStr(&e.sb, x.Val)
		e.sb.WriteByte(')')
	case kind.Date:
		e.sb.WriteString(x.String())
	case kind.Time:
		e.sb.WriteString(x.String())
	case kind.DateTime:
		return e.dateTime(x, path)
	case kind.List:
		return e.list(x, path)
	case kind.Dict:
		e.sb.WriteByte('{')
		if err := e.tags(x, path, false); err != nil {
			return err
		}
		e.sb.WriteByte('}')
	case kind.Grid:
		e.sb.WriteString("<<\n")
		if err := e.grid(x, path); err != nil {
			return err
		}
		e.sb.WriteString(">>")
	default:
		return e.fail(path, "unsupported kind %T", v)
	}
	return nil
}

func (e *encoder) id(prefix, id, path string) error {
	if id == "" {
		return e.fail(path, "empty %s id", prefix)
	}
	for _, c := range id {
		if !kind.ValidRefChar(c) {
			return e.fail(path, "invalid char %q in id %q", c, id)
		}
	}
	e.sb.WriteString(prefix)
	e.sb.WriteString(id)
	return nil
}

func (e *encoder) dateTime(dt kind.DateTime, path string) error {
	name := dt.HaystackTz()
	if _, err := e.mapper.IANA(name); err != nil {
		return &EncodeError{Path: path, Msg: "time zone has no Haystack name", Cause: err}
	}
	e.sb.WriteString(dt.ISO())
	if name != tz.UTC {
		e.sb.WriteByte(' ')
		e.sb.WriteString(name)
	}
	return nil
}

func (e *encoder) list(l kind.List, path string) error {
	e.sb.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			e.sb.WriteByte(',')
		}
		if err := e.val(v, path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}
	e.sb.WriteByte(']')
	return nil
}

// tags writes name[:val] pairs separated by spaces. Marker values use the
// bare form.
func (e *encoder) tags(d kind.Dict, path string, leadingSpace bool) error {
	for i, entry := range d.Entries() {
		if !kind.ValidName(entry.Name) {
			return e.fail(join(path, entry.Name), "invalid tag name")
		}
		if i > 0 || leadingSpace {
			e.sb.WriteByte(' ')
		}
		e.sb.WriteString(entry.Name)
		if _, ok := entry.Val.(kind.Marker); ok {
			continue
		}
		e.sb.WriteByte(':')
		if err := e.val(entry.Val, join(path, entry.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) grid(g kind.Grid, path string) error {
	e.sb.WriteString(`ver:"` + kind.Version + `"`)
	if err := e.tags(g.Meta().Without("ver"), join(path, "meta"), true); err != nil {
		return err
	}
	e.sb.WriteByte('\n')

	cols := g.Cols()
	if len(cols) == 0 {
		e.sb.WriteString("noCols\n")
	}
	for i, col := range cols {
		if !kind.ValidName(col.Name) {
			return e.fail(join(path, "cols"), "invalid column name %q", col.Name)
		}
		if i > 0 {
			e.sb.WriteByte(',')
		}
		e.sb.WriteString(col.Name)
		if err := e.tags(col.Meta, join(path, col.Name), true); err != nil {
			return err
		}
	}
	if len(cols) > 0 {
		e.sb.WriteByte('\n')
	}

	for r, row := range g.Rows() {
		rowPath := join(path, "rows["+strconv.Itoa(r)+"]")
		for i, col := range cols {
			if i > 0 {
				e.sb.WriteByte(',')
			}
			v, ok := row.Get(col.Name)
			if !ok {
				if len(cols) == 1 {
					e.sb.WriteString("N")
				}
				continue
			}
			if err := e.val(v, join(rowPath, col.Name)); err != nil {
				return err
			}
		}
		e.sb.WriteByte('\n')
	}
	e.sb.WriteByte('\n')
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func writeStr(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			writeRune(sb, c)
		}
	}
	sb.WriteByte('"')
}

func writeUri(sb *strings.Builder, s string) {
	sb.WriteByte('`')
	for i := 0; i < len(s); {
		c, size := utf8.DecodeRuneInString(s[i:])
		switch c {
		case '`':
			sb.WriteString("\\`")
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\':
			// The reader keeps \ plus a reserved char as a pair, so the
			// pair is copied through verbatim.
			if i+1 < len(s) && strings.IndexByte(uriKeep, s[i+1]) >= 0 {
				sb.WriteString(s[i : i+2])
				i += 2
				continue
			}
			sb.WriteString(`\u005c`)
		default:
			writeRune(sb, c)
		}
		i += size
	}
	sb.WriteByte('`')
}

// writeRune writes c, escaping control chars and anything beyond ASCII
// as \uXXXX. Supplementary code points become a surrogate pair.
func writeRune(sb *strings.Builder, c rune) {
	switch {
	case c < 0x20 || c > 0x7e:
		if c > 0xffff {
			hi, lo := utf16.EncodeRune(c)
			fmt.Fprintf(sb, `\u%04x\u%04x`, hi, lo)
			return
		}
		fmt.Fprintf(sb, `\u%04x`, c)
	default:
		sb.WriteRune(c)
	}
}
