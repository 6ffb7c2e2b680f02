package hsjson

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	j "github.com/goccy/go-json"

	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/tz"
)

// Decoder reads kind values from a stream of JSON documents.
type Decoder struct {
	dec    *j.Decoder
	mapper *tz.Mapper
}

// NewDecoder creates a Decoder over r. Only WithMapper applies.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec, mapper: newConfig(opts).mapper}
}

// Unmarshal decodes a single JSON document. Trailing data is an error.
func Unmarshal(data []byte, opts ...Option) (kind.Kind, error) {
	d := NewDecoder(bytes.NewReader(data), opts...)
	v, err := d.Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Msg: "empty input"}
		}
		return nil, err
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Msg: "trailing data after value", Cause: err}
	}
	return v, nil
}

// UnmarshalString decodes a JSON document held in a string.
func UnmarshalString(s string, opts ...Option) (kind.Kind, error) {
	return Unmarshal([]byte(s), opts...)
}

// UnmarshalGrid decodes a JSON document that must be a grid.
func UnmarshalGrid(data []byte, opts ...Option) (kind.Grid, error) {
	v, err := Unmarshal(data, opts...)
	if err != nil {
		return kind.Grid{}, err
	}
	g, ok := v.(kind.Grid)
	if !ok {
		return kind.Grid{}, &DecodeError{Msg: "expected grid, got " + describe(v)}
	}
	return g, nil
}

// Decode reads the next value. It returns io.EOF when the stream holds no
// further values.
func (d *Decoder) Decode() (kind.Kind, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &DecodeError{Msg: "malformed JSON", Cause: err}
	}
	n, err := d.node(tok)
	if err != nil {
		return nil, err
	}
	return d.toKind(n, "")
}

// member and object keep JSON object members in document order.
type member struct {
	key string
	val any
}

type object []member

func (o object) get(key string) (any, bool) {
	for _, m := range o {
		if m.key == key {
			return m.val, true
		}
	}
	return nil, false
}

func (d *Decoder) next() (j.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Msg: "unexpected end of JSON input"}
		}
		return nil, &DecodeError{Msg: "malformed JSON", Cause: err}
	}
	return tok, nil
}

// node assembles the JSON value starting at tok into object, []any,
// string, j.Number, bool or nil.
func (d *Decoder) node(tok j.Token) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			var obj object
			for {
				tok, err := d.next()
				if err != nil {
					return nil, err
				}
				if tok == j.Delim('}') {
					return obj, nil
				}
				key, ok := tok.(string)
				if !ok {
					return nil, &DecodeError{Msg: "object key is not a string"}
				}
				key = strings.Clone(key)
				tok, err = d.next()
				if err != nil {
					return nil, err
				}
				val, err := d.node(tok)
				if err != nil {
					return nil, err
				}
				obj = append(obj, member{key: key, val: val})
			}
		case '[':
			arr := []any{}
			for {
				tok, err := d.next()
				if err != nil {
					return nil, err
				}
				if tok == j.Delim(']') {
					return arr, nil
				}
				val, err := d.node(tok)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
		}
		return nil, &DecodeError{Msg: "unexpected " + string(rune(v))}
	case float64:
		return j.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	// Token may alias its read buffer.
	case string:
		return strings.Clone(v), nil
	case j.Number:
		return j.Number(strings.Clone(string(v))), nil
	case bool, nil:
		return v, nil
	}
	return nil, &DecodeError{Msg: "unsupported JSON token"}
}

func (d *Decoder) toKind(n any, path string) (kind.Kind, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case bool:
		return kind.Bool(v), nil
	case string:
		return kind.Str(v), nil
	case j.Number:
		f, err := parseNumber(string(v))
		if err != nil {
			return nil, &DecodeError{Path: path, Msg: "invalid number " + string(v), Cause: err}
		}
		return kind.NewNumber(f), nil
	case []any:
		list := make(kind.List, len(v))
		for i, elem := range v {
			k, err := d.toKind(elem, index(path, i))
			if err != nil {
				return nil, err
			}
			list[i] = k
		}
		return list, nil
	case object:
		return d.tagged(v, path)
	}
	return nil, &DecodeError{Path: path, Msg: "unsupported JSON value"}
}

func (d *Decoder) tagged(obj object, path string) (kind.Kind, error) {
	raw, ok := obj.get("_kind")
	if !ok {
		return d.dict(obj, path)
	}
	k, ok := raw.(string)
	if !ok {
		return nil, &DecodeError{Path: path, Field: "_kind", Msg: "expected string"}
	}
	f := fields{obj: obj, kind: k, path: path}

	switch k {
	case "dict":
		return d.dict(obj, path)
	case "marker":
		return kind.Marker{}, nil
	case "na":
		return kind.NA{}, nil
	case "remove":
		return kind.Remove{}, nil
	case "number":
		val, err := f.number("val")
		if err != nil {
			return nil, err
		}
		unit, err := f.optString("unit")
		if err != nil {
			return nil, err
		}
		return kind.NewNumber(val, unit), nil
	case "ref":
		val, err := f.str("val")
		if err != nil {
			return nil, err
		}
		if val == "" {
			return nil, f.fail("val", "empty ref id", nil)
		}
		dis, err := f.optString("dis")
		if err != nil {
			return nil, err
		}
		return kind.NewRef(val, dis), nil
	case "symbol":
		val, err := f.str("val")
		if err != nil {
			return nil, err
		}
		return kind.Symbol{Val: val}, nil
	case "uri":
		val, err := f.str("val")
		if err != nil {
			return nil, err
		}
		return kind.Uri{Val: val}, nil
	case "date":
		val, err := f.str("val")
		if err != nil {
			return nil, err
		}
		date, err := kind.ParseDate(val)
		if err != nil {
			return nil, f.fail("val", "invalid date "+strconv.Quote(val), err)
		}
		return date, nil
	case "time":
		val, err := f.str("val")
		if err != nil {
			return nil, err
		}
		t, err := kind.ParseTime(val)
		if err != nil {
			return nil, f.fail("val", "invalid time "+strconv.Quote(val), err)
		}
		return t, nil
	case "dateTime":
		return d.dateTime(f)
	case "coord":
		lat, err := f.number("lat")
		if err != nil {
			return nil, err
		}
		lng, err := f.number("lng")
		if err != nil {
			return nil, err
		}
		return kind.NewCoord(lat, lng), nil
	case "xstr":
		typ, err := f.str("type")
		if err != nil {
			return nil, err
		}
		if !kind.ValidXStrType(typ) {
			return nil, f.fail("type", "invalid XStr type "+strconv.Quote(typ), nil)
		}
		val, err := f.str("val")
		if err != nil {
			return nil, err
		}
		return kind.XStr{Type: typ, Val: val}, nil
	case "grid":
		return d.grid(f)
	}
	return nil, &DecodeError{Path: path, Kind: k, Msg: "unknown _kind"}
}

func (d *Decoder) dateTime(f fields) (kind.Kind, error) {
	val, err := f.str("val")
	if err != nil {
		return nil, err
	}
	name, err := f.str("tz")
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, f.fail("val", "invalid dateTime "+strconv.Quote(val), err)
	}
	loc, err := d.mapper.Location(name)
	if err != nil {
		return nil, f.fail("tz", "unknown time zone", err)
	}
	return kind.NewDateTime(ts.In(loc)), nil
}

// dict decodes a plain object, skipping a "dict" discriminator. Null
// values are dropped.
func (d *Decoder) dict(obj object, path string) (kind.Dict, error) {
	entries := make([]kind.Entry, 0, len(obj))
	for _, m := range obj {
		p := join(path, m.key)
		if m.key == "_kind" {
			continue
		}
		if !kind.ValidName(m.key) {
			return kind.Dict{}, &DecodeError{Path: p, Msg: "invalid tag name"}
		}
		v, err := d.toKind(m.val, p)
		if err != nil {
			return kind.Dict{}, err
		}
		entries = append(entries, kind.E(m.key, v))
	}
	return kind.NewDict(entries...), nil
}

// dictField decodes a nested object that must be a dict.
func (d *Decoder) dictField(n any, path string) (kind.Dict, error) {
	v, err := d.toKind(n, path)
	if err != nil {
		return kind.Dict{}, err
	}
	dict, ok := v.(kind.Dict)
	if !ok {
		return kind.Dict{}, &DecodeError{Path: path, Msg: "expected dict, got " + describe(v)}
	}
	return dict, nil
}

func (d *Decoder) grid(f fields) (kind.Kind, error) {
	rawMeta, err := f.require("meta")
	if err != nil {
		return nil, err
	}
	meta, err := d.dictField(rawMeta, join(f.path, "meta"))
	if err != nil {
		return nil, err
	}

	rawCols, err := f.array("cols")
	if err != nil {
		return nil, err
	}
	cols := make([]kind.Col, 0, len(rawCols))
	for i, rc := range rawCols {
		p := index(join(f.path, "cols"), i)
		obj, ok := rc.(object)
		if !ok {
			return nil, &DecodeError{Path: p, Kind: "grid", Field: "cols", Msg: "column must be an object"}
		}
		cf := fields{obj: obj, kind: "col", path: p}
		name, err := cf.str("name")
		if err != nil {
			return nil, err
		}
		col := kind.Col{Name: name}
		if rm, ok := obj.get("meta"); ok && rm != nil {
			if col.Meta, err = d.dictField(rm, join(p, "meta")); err != nil {
				return nil, err
			}
		}
		cols = append(cols, col)
	}

	rawRows, err := f.array("rows")
	if err != nil {
		return nil, err
	}
	rows := make([]kind.Dict, 0, len(rawRows))
	for i, rr := range rawRows {
		row, err := d.dictField(rr, index(join(f.path, "rows"), i))
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	g, err := kind.NewGrid(meta, cols, rows)
	if err != nil {
		return nil, &DecodeError{Path: f.path, Kind: "grid", Msg: "invalid grid", Cause: err}
	}
	return g, nil
}

// fields reads the members of a tagged object, reporting missing or
// mistyped fields against its _kind.
type fields struct {
	obj  object
	kind string
	path string
}

func (f fields) fail(field, msg string, cause error) error {
	return &DecodeError{Path: f.path, Kind: f.kind, Field: field, Msg: msg, Cause: cause}
}

func (f fields) require(name string) (any, error) {
	v, ok := f.obj.get(name)
	if !ok || v == nil {
		return nil, f.fail(name, "missing required field", nil)
	}
	return v, nil
}

func (f fields) str(name string) (string, error) {
	v, err := f.require(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", f.fail(name, "expected string", nil)
	}
	return s, nil
}

func (f fields) optString(name string) (string, error) {
	v, ok := f.obj.get(name)
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", f.fail(name, "expected string", nil)
	}
	return s, nil
}

func (f fields) array(name string) ([]any, error) {
	v, err := f.require(name)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, f.fail(name, "expected array", nil)
	}
	return arr, nil
}

// number accepts a JSON number or its string form, including the INF, -INF
// and NaN keywords.
func (f fields) number(name string) (float64, error) {
	v, err := f.require(name)
	if err != nil {
		return 0, err
	}
	var s string
	switch x := v.(type) {
	case j.Number:
		s = string(x)
	case string:
		s = x
	default:
		return 0, f.fail(name, "expected number", nil)
	}
	n, err := parseNumber(s)
	if err != nil {
		return 0, f.fail(name, "invalid number "+strconv.Quote(s), err)
	}
	return n, nil
}

var errNotFinite = errors.New("only INF, -INF and NaN may be non-finite")

func parseNumber(s string) (float64, error) {
	switch s {
	case "INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals saturate to +/-Inf like the Zinc tokenizer.
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return n, nil
		}
		return 0, err
	}
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, errNotFinite
	}
	return n, nil
}

func describe(v kind.Kind) string {
	switch v.(type) {
	case nil:
		return "null"
	case kind.Dict:
		return "dict"
	case kind.List:
		return "list"
	case kind.Grid:
		return "grid"
	}
	return "scalar " + strings.TrimSpace(kind.ToString(v))
}
