package hsjson

import (
	"bytes"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/tz"
)

// Option configures an Encoder or Decoder.
type Option func(*config)

type config struct {
	mapper *tz.Mapper
	prefix string
	indent string
}

func newConfig(opts []Option) config {
	c := config{mapper: tz.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithMapper sets the time zone mapper used for DateTime values.
func WithMapper(m *tz.Mapper) Option {
	return func(c *config) {
		if m != nil {
			c.mapper = m
		}
	}
}

// WithIndent makes the Encoder emit indented output. Ignored by Decoder.
func WithIndent(prefix, indent string) Option {
	return func(c *config) {
		c.prefix = prefix
		c.indent = indent
	}
}

// Encoder writes kind values as JSON, one per line.
type Encoder struct {
	w   io.Writer
	cfg config
}

// NewEncoder creates an Encoder over w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, cfg: newConfig(opts)}
}

// Marshal encodes v as JSON.
func Marshal(v kind.Kind, opts ...Option) ([]byte, error) {
	return marshal(v, newConfig(opts))
}

// Encode writes v followed by a newline. Nothing is written when v cannot
// be encoded.
func (e *Encoder) Encode(v kind.Kind) error {
	out, err := marshal(v, e.cfg)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(out, '\n'))
	return err
}

func marshal(v kind.Kind, cfg config) ([]byte, error) {
	enc := newEncoder(cfg.mapper)
	if err := enc.val(v, ""); err != nil {
		return nil, err
	}
	if cfg.prefix == "" && cfg.indent == "" {
		return enc.buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := j.Indent(&out, enc.buf.Bytes(), cfg.prefix, cfg.indent); err != nil {
		return nil, &EncodeError{Msg: "indenting output", Cause: err}
	}
	return out.Bytes(), nil
}

// encoder writes objects by hand so that dict key order survives; only
// string escaping is delegated to go-json.
type encoder struct {
	buf    bytes.Buffer
	str    *j.Encoder
	mapper *tz.Mapper
}

func newEncoder(m *tz.Mapper) *encoder {
	e := &encoder{mapper: m}
	e.str = j.NewEncoder(&e.buf)
	e.str.SetEscapeHTML(false)
	return e
}

func (e *encoder) fail(path, format string, args ...any) error {
	return &EncodeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func (e *encoder) writeString(s string) {
	// Encoding a string cannot fail. Encode appends a newline; drop it.
	_ = e.str.Encode(s)
	if b := e.buf.Bytes(); len(b) > 0 && b[len(b)-1] == '\n' {
		e.buf.Truncate(len(b) - 1)
	}
}

// tagged opens an object with its _kind discriminator. The caller closes
// it.
func (e *encoder) tagged(k string) {
	e.buf.WriteString(`{"_kind":`)
	e.writeString(k)
}

func (e *encoder) field(name string) {
	e.buf.WriteByte(',')
	e.writeString(name)
	e.buf.WriteByte(':')
}

func (e *encoder) strField(name, val string) {
	e.field(name)
	e.writeString(val)
}

func (e *encoder) val(v kind.Kind, path string) error {
	switch x := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case kind.Bool:
		if x {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case kind.Str:
		e.writeString(string(x))
	case kind.Number:
		e.number(x)
	case kind.Marker:
		e.tagged("marker")
		e.buf.WriteByte('}')
	case kind.NA:
		e.tagged("na")
		e.buf.WriteByte('}')
	case kind.Remove:
		e.tagged("remove")
		e.buf.WriteByte('}')
	case kind.Ref:
		if x.Val == "" {
			return e.fail(path, "empty ref id")
		}
		e.tagged("ref")
		e.strField("val", x.Val)
		if x.Dis != "" {
			e.strField("dis", x.Dis)
		}
		e.buf.WriteByte('}')
	case kind.Symbol:
		if x.Val == "" {
			return e.fail(path, "empty symbol")
		}
		e.tagged("symbol")
		e.strField("val", x.Val)
		e.buf.WriteByte('}')
	case kind.Uri:
		e.tagged("uri")
		e.strField("val", x.Val)
		e.buf.WriteByte('}')
	case kind.Coord:
		e.tagged("coord")
		e.field("lat")
		e.buf.WriteString(kind.FormatFloat(x.Lat))
		e.field("lng")
		e.buf.WriteString(kind.FormatFloat(x.Lng))
		e.buf.WriteByte('}')
	case kind.XStr:
		if !kind.ValidXStrType(x.Type) {
			return e.fail(path, "invalid XStr type %q", x.Type)
		}
		e.tagged("xstr")
		e.strField("type", x.Type)
		e.strField("val", x.Val)
		e.buf.WriteByte('}')
	case kind.Date:
		e.tagged("date")
		e.strField("val", x.String())
		e.buf.WriteByte('}')
	case kind.Time:
		e.tagged("time")
		e.strField("val", x.String())
		e.buf.WriteByte('}')
	case kind.DateTime:
		name := x.HaystackTz()
		if _, err := e.mapper.IANA(name); err != nil {
			return &EncodeError{Path: path, Msg: "time zone has no Haystack name", Cause: err}
		}
		e.tagged("dateTime")
		e.strField("val", x.ISO())
		e.strField("tz", name)
		e.buf.WriteByte('}')
	case kind.List:
		e.buf.WriteByte('[')
		for i, elem := range x {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.val(elem, index(path, i)); err != nil {
				return err
			}
		}
		e.buf.WriteByte(']')
	case kind.Dict:
		return e.dict(x, path)
	case kind.Grid:
		return e.grid(x, path)
	default:
		return e.fail(path, "unsupported kind %T", v)
	}
	return nil
}

// number writes unitless finite values as plain JSON numbers. JSON has no
// literal for INF, -INF or NaN, so those travel as strings.
func (e *encoder) number(n kind.Number) {
	if n.Unit == "" && n.IsFinite() {
		e.buf.WriteString(kind.FormatFloat(n.Val))
		return
	}
	e.tagged("number")
	if n.IsFinite() {
		e.field("val")
		e.buf.WriteString(kind.FormatFloat(n.Val))
	} else {
		e.strField("val", kind.FormatFloat(n.Val))
	}
	if n.Unit != "" {
		e.strField("unit", n.Unit)
	}
	e.buf.WriteByte('}')
}

// dict writes a plain object. A tag named _kind would be read back as a
// discriminator, so it is rejected.
func (e *encoder) dict(d kind.Dict, path string) error {
	e.buf.WriteByte('{')
	for i, entry := range d.Entries() {
		p := join(path, entry.Name)
		if entry.Name == "_kind" || !kind.ValidName(entry.Name) {
			return e.fail(p, "invalid tag name")
		}
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.writeString(entry.Name)
		e.buf.WriteByte(':')
		if err := e.val(entry.Val, p); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) grid(g kind.Grid, path string) error {
	e.tagged("grid")
	e.field("meta")
	if err := e.dict(g.Meta(), join(path, "meta")); err != nil {
		return err
	}

	e.field("cols")
	e.buf.WriteByte('[')
	for i, col := range g.Cols() {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.buf.WriteString(`{"name":`)
		e.writeString(col.Name)
		if !col.Meta.IsEmpty() {
			e.field("meta")
			if err := e.dict(col.Meta, join(index(join(path, "cols"), i), "meta")); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
	}
	e.buf.WriteByte(']')

	e.field("rows")
	e.buf.WriteByte('[')
	for i, row := range g.Rows() {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.dict(row, index(join(path, "rows"), i)); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')
	e.buf.WriteByte('}')
	return nil
}
