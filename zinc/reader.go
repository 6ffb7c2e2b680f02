package zinc

import (
	"bytes"
	"io"
	"math"
	"strings"

	"github.com/roach88/haystack/kind"
)

// Reader parses one Zinc document into a kind value.
//
// A document whose first identifier is ver is a grid; anything else is a
// single value. Tokenizer-only options (WithComments, WithKeywords) are
// ignored.
type Reader struct {
	tok  *Tokenizer
	cur  Token
	peek Token
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{tok: NewTokenizer(r, opts...)}
	rd.tok.cfg.keepComments = false
	rd.tok.cfg.keywords = nil
	return rd
}

// Unmarshal parses a Zinc document.
func Unmarshal(data []byte, opts ...Option) (kind.Kind, error) {
	return NewReader(bytes.NewReader(data), opts...).Read()
}

// UnmarshalString parses a Zinc document held in a string.
func UnmarshalString(s string, opts ...Option) (kind.Kind, error) {
	return NewReader(strings.NewReader(s), opts...).Read()
}

// UnmarshalGrid parses a Zinc document that must be a grid.
func UnmarshalGrid(data []byte, opts ...Option) (kind.Grid, error) {
	v, err := Unmarshal(data, opts...)
	if err != nil {
		return kind.Grid{}, err
	}
	g, ok := v.(kind.Grid)
	if !ok {
		return kind.Grid{}, &ParseError{Line: 1, Expected: "grid", Actual: kindName(v)}
	}
	return g, nil
}

// Read parses the whole input. Trailing blank lines are allowed; any other
// trailing token is a ParseError.
func (r *Reader) Read() (kind.Kind, error) {
	if err := r.advance(); err != nil {
		return nil, err
	}
	if err := r.advance(); err != nil {
		return nil, err
	}

	var (
		v   kind.Kind
		err error
	)
	if r.cur.Type == ID && r.cur.Text == "ver" {
		v, err = r.grid()
	} else {
		v, err = r.val()
	}
	if err != nil {
		return nil, err
	}

	for r.cur.Type == NL {
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	if err := r.verify(EOF); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Reader) advance() error {
	r.cur = r.peek
	tok, err := r.tok.Next()
	if err != nil {
		return err
	}
	r.peek = tok
	return nil
}

func (r *Reader) verify(expected TokenType) error {
	if r.cur.Type != expected {
		return r.unexpected(expected.String())
	}
	return nil
}

func (r *Reader) consume(expected TokenType) error {
	if err := r.verify(expected); err != nil {
		return err
	}
	return r.advance()
}

func (r *Reader) unexpected(expected string) error {
	return &ParseError{Line: r.cur.Line, Expected: expected, Actual: r.cur.String()}
}

func (r *Reader) failf(msg string) error {
	return &ParseError{Line: r.cur.Line, Msg: msg}
}

// val parses one value.
func (r *Reader) val() (kind.Kind, error) {
	switch {
	case r.cur.Type == ID:
		return r.idVal()
	case r.cur.Type == KEYWORD:
		v := r.cur.Val
		return v, r.advance()
	case r.cur.Type.IsLiteral():
		return r.literal()
	case r.cur.Type == MINUS && r.peek.Type == ID && r.peek.Text == "INF":
		if err := r.advance(); err != nil {
			return nil, err
		}
		return kind.NewNumber(math.Inf(-1)), r.advance()
	case r.cur.Type == LBRACKET:
		return r.list()
	case r.cur.Type == LBRACE:
		return r.dict(true)
	case r.cur.Type == LT2:
		return r.grid()
	}
	return nil, r.unexpected("value")
}

func (r *Reader) idVal() (kind.Kind, error) {
	id := r.cur.Text
	if err := r.advance(); err != nil {
		return nil, err
	}
	if r.cur.Type == LPAREN {
		if r.peek.Type == NUM {
			return r.coord(id)
		}
		return r.xstr(id)
	}

	var v kind.Kind
	switch id {
	case "T":
		v = kind.Bool(true)
	case "F":
		v = kind.Bool(false)
	case "N":
		v = nil
	case "M":
		v = kind.Marker{}
	case "NA":
		v = kind.NA{}
	case "R":
		v = kind.Remove{}
	case "NaN":
		v = kind.NewNumber(math.NaN())
	case "INF":
		v = kind.NewNumber(math.Inf(1))
	default:
		return nil, r.failf("unexpected identifier " + id)
	}
	return v, nil
}

func (r *Reader) literal() (kind.Kind, error) {
	v := r.cur.Val
	if r.cur.Type == REF && r.peek.Type == STR {
		ref := v.(kind.Ref)
		ref.Dis = string(r.peek.Val.(kind.Str))
		v = ref
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	return v, r.advance()
}

func (r *Reader) number() (kind.Number, error) {
	if err := r.verify(NUM); err != nil {
		return kind.Number{}, err
	}
	n := r.cur.Val.(kind.Number)
	return n, r.advance()
}

func (r *Reader) str() (string, error) {
	if err := r.verify(STR); err != nil {
		return "", err
	}
	s := string(r.cur.Val.(kind.Str))
	return s, r.advance()
}

// coord parses C(lat,lng). The current token is the open paren.
func (r *Reader) coord(id string) (kind.Kind, error) {
	if id != "C" {
		return nil, r.failf("expecting C for coord, not " + id)
	}
	if err := r.consume(LPAREN); err != nil {
		return nil, err
	}
	lat, err := r.number()
	if err != nil {
		return nil, err
	}
	if err := r.consume(COMMA); err != nil {
		return nil, err
	}
	lng, err := r.number()
	if err != nil {
		return nil, err
	}
	if err := r.consume(RPAREN); err != nil {
		return nil, err
	}
	return kind.NewCoord(lat.Val, lng.Val), nil
}

// xstr parses Type("value"). The current token is the open paren.
func (r *Reader) xstr(typ string) (kind.Kind, error) {
	if !kind.ValidXStrType(typ) {
		return nil, r.failf("invalid XStr type " + typ)
	}
	if err := r.consume(LPAREN); err != nil {
		return nil, err
	}
	val, err := r.str()
	if err != nil {
		return nil, err
	}
	if err := r.consume(RPAREN); err != nil {
		return nil, err
	}
	return kind.XStr{Type: typ, Val: val}, nil
}

func (r *Reader) list() (kind.Kind, error) {
	if err := r.consume(LBRACKET); err != nil {
		return nil, err
	}
	list := kind.List{}
	for r.cur.Type != RBRACKET && r.cur.Type != EOF {
		v, err := r.val()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		if r.cur.Type != COMMA {
			break
		}
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	if err := r.consume(RBRACKET); err != nil {
		return nil, err
	}
	return list, nil
}

// dict parses tag pairs with or without a brace wrapper.
func (r *Reader) dict(allowComma bool) (kind.Dict, error) {
	braces := r.cur.Type == LBRACE
	if braces {
		if err := r.advance(); err != nil {
			return kind.Dict{}, err
		}
	}

	var entries []kind.Entry
	for r.cur.Type == ID {
		name, err := r.tagName()
		if err != nil {
			return kind.Dict{}, err
		}
		var v kind.Kind = kind.Marker{}
		if r.cur.Type == COLON {
			if err := r.advance(); err != nil {
				return kind.Dict{}, err
			}
			if v, err = r.val(); err != nil {
				return kind.Dict{}, err
			}
		}
		entries = append(entries, kind.E(name, v))
		if allowComma && r.cur.Type == COMMA {
			if err := r.advance(); err != nil {
				return kind.Dict{}, err
			}
		}
	}

	if braces {
		if err := r.consume(RBRACE); err != nil {
			return kind.Dict{}, err
		}
	}
	return kind.NewDict(entries...), nil
}

func (r *Reader) tagName() (string, error) {
	if err := r.verify(ID); err != nil {
		return "", err
	}
	name := r.cur.Text
	if !kind.ValidName(name) {
		return "", r.failf("invalid name " + name)
	}
	return name, r.advance()
}

func (r *Reader) grid() (kind.Kind, error) {
	nested := r.cur.Type == LT2
	if nested {
		if err := r.advance(); err != nil {
			return nil, err
		}
		if r.cur.Type == NL {
			if err := r.advance(); err != nil {
				return nil, err
			}
		}
	}

	if r.cur.Type != ID || r.cur.Text != "ver" {
		return nil, r.unexpected(`"ver"`)
	}
	if err := r.advance(); err != nil {
		return nil, err
	}
	if err := r.consume(COLON); err != nil {
		return nil, err
	}
	ver, err := r.str()
	if err != nil {
		return nil, err
	}
	if ver != kind.Version {
		return nil, r.failf(`unsupported grid version "` + ver + `"`)
	}

	var meta kind.Dict
	if r.cur.Type == ID {
		if meta, err = r.dict(false); err != nil {
			return nil, err
		}
	}
	if err := r.consume(NL); err != nil {
		return nil, err
	}

	var cols []kind.Col
	seen := map[string]bool{}
	for r.cur.Type == ID {
		if seen[r.cur.Text] {
			return nil, r.failf("duplicate column " + r.cur.Text)
		}
		name, err := r.tagName()
		if err != nil {
			return nil, err
		}
		seen[name] = true
		var colMeta kind.Dict
		if r.cur.Type == ID {
			if colMeta, err = r.dict(false); err != nil {
				return nil, err
			}
		}
		cols = append(cols, kind.Col{Name: name, Meta: colMeta})
		if r.cur.Type != COMMA {
			break
		}
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	if len(cols) == 0 {
		return nil, r.unexpected("column name")
	}
	if err := r.consume(NL); err != nil {
		return nil, err
	}

	var rows []kind.Dict
	for r.cur.Type != NL && r.cur.Type != EOF && !(nested && r.cur.Type == GT2) {
		row, err := r.row(cols, nested)
		if err != nil {
			return nil, err
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}

	if r.cur.Type == NL {
		if err := r.advance(); err != nil {
			return nil, err
		}
	}
	if nested {
		if err := r.consume(GT2); err != nil {
			return nil, err
		}
	}

	g, err := kind.NewGrid(meta, cols, rows)
	if err != nil {
		return nil, &ParseError{Line: r.cur.Line, Msg: err.Error(), Cause: err}
	}
	return g, nil
}

func (r *Reader) row(cols []kind.Col, nested bool) (kind.Dict, error) {
	entries := make([]kind.Entry, 0, len(cols))
	for i, col := range cols {
		switch r.cur.Type {
		case COMMA, NL, EOF:
		default:
			if nested && r.cur.Type == GT2 {
				break
			}
			v, err := r.val()
			if err != nil {
				return kind.Dict{}, err
			}
			entries = append(entries, kind.E(col.Name, v))
		}
		if i+1 < len(cols) {
			if err := r.consume(COMMA); err != nil {
				return kind.Dict{}, err
			}
		}
	}
	switch {
	case r.cur.Type == NL:
		if err := r.advance(); err != nil {
			return kind.Dict{}, err
		}
	case r.cur.Type == EOF, nested && r.cur.Type == GT2:
	default:
		return kind.Dict{}, r.unexpected("newline")
	}
	return kind.NewDict(entries...), nil
}

func kindName(v kind.Kind) string {
	switch v.(type) {
	case nil:
		return "null"
	case kind.Dict:
		return "dict"
	case kind.List:
		return "list"
	}
	return "scalar " + kind.ToString(v)
}
