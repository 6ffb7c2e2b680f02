package zinc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/tz"
)

const eof rune = -1

// Option configures a Tokenizer or Reader.
type Option func(*config)

type config struct {
	keepComments bool
	keywords     map[string]kind.Kind
	mapper       *tz.Mapper
}

func newConfig(opts []Option) config {
	c := config{mapper: tz.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithComments makes the Tokenizer emit // comments as COMMENT tokens
// instead of skipping them. Ignored by the Reader.
func WithComments() Option {
	return func(c *config) { c.keepComments = true }
}

// WithKeywords maps identifiers to KEYWORD tokens carrying the given value.
// Ignored by the Reader.
func WithKeywords(keywords map[string]kind.Kind) Option {
	return func(c *config) { c.keywords = keywords }
}

// WithMapper sets the time zone mapper used for DateTime literals.
func WithMapper(m *tz.Mapper) Option {
	return func(c *config) {
		if m != nil {
			c.mapper = m
		}
	}
}

// Tokenizer splits Zinc text into tokens using one character of lookahead.
//
// Thread-safety: a Tokenizer must not be used concurrently.
type Tokenizer struct {
	in   io.RuneReader
	cfg  config
	cur  rune
	peek rune
	line int
	err  error // first non-EOF read error
}

// NewTokenizer creates a Tokenizer reading from r.
func NewTokenizer(r io.Reader, opts ...Option) *Tokenizer {
	rr, ok := r.(io.RuneReader)
	if !ok {
		rr = bufio.NewReader(r)
	}
	t := &Tokenizer{in: rr, cfg: newConfig(opts), cur: eof, peek: eof, line: 1}
	t.consume()
	t.consume()
	return t
}

func (t *Tokenizer) consume() {
	t.cur = t.peek
	if t.err != nil {
		t.peek = eof
		return
	}
	c, _, err := t.in.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			t.err = err
		}
		t.peek = eof
		return
	}
	t.peek = c
}

// Next returns the next token. At end of input it returns an EOF token
// on every call.
func (t *Tokenizer) Next() (Token, error) {
	for {
		if t.cur == ' ' || t.cur == '\t' || t.cur == '\u00a0' {
			t.consume()
			continue
		}
		if t.cur == '/' && t.peek == '/' && !t.cfg.keepComments {
			t.skipLineComment()
			continue
		}
		if t.cur == '/' && t.peek == '*' {
			if err := t.skipBlockComment(); err != nil {
				return Token{}, err
			}
			continue
		}
		break
	}

	line := t.line
	tok, err := t.token()
	if t.err != nil {
		return Token{}, fmt.Errorf("zinc: reading input: %w", t.err)
	}
	if err != nil {
		return Token{}, err
	}
	tok.Line = line
	return tok, nil
}

func (t *Tokenizer) token() (Token, error) {
	c := t.cur
	switch {
	case c == '\n' || c == '\r':
		if c == '\r' && t.peek == '\n' {
			t.consume()
		}
		t.consume()
		t.line++
		return Token{Type: NL}, nil
	case c == '/' && t.peek == '/':
		return t.comment(), nil
	case isAlpha(c) || c == '_':
		return t.id(), nil
	case c == '"':
		return t.str()
	case c == '@':
		return t.ref()
	case c == '^':
		return t.symbol()
	case c == '`':
		return t.uri()
	case isDigit(c) || (c == '-' && isDigit(t.peek)):
		return t.num()
	}
	return t.operator()
}

func (t *Tokenizer) fail(text, format string, args ...any) error {
	return &TokenizeError{Line: t.line, Text: text, Msg: fmt.Sprintf(format, args...)}
}

func (t *Tokenizer) id() Token {
	var sb strings.Builder
	for isAlnum(t.cur) || t.cur == '_' {
		sb.WriteRune(t.cur)
		t.consume()
	}
	s := sb.String()
	if v, ok := t.cfg.keywords[s]; ok {
		return Token{Type: KEYWORD, Text: s, Val: v}
	}
	return Token{Type: ID, Text: s}
}

func (t *Tokenizer) comment() Token {
	t.consume()
	t.consume()
	var sb strings.Builder
	for t.cur != '\n' && t.cur != '\r' && t.cur != eof {
		sb.WriteRune(t.cur)
		t.consume()
	}
	text := strings.TrimPrefix(strings.TrimRight(sb.String(), " \t"), " ")
	return Token{Type: COMMENT, Text: text}
}

func (t *Tokenizer) skipLineComment() {
	for t.cur != '\n' && t.cur != '\r' && t.cur != eof {
		t.consume()
	}
}

// skipBlockComment skips a /* */ comment. Comments nest.
func (t *Tokenizer) skipBlockComment() error {
	t.consume()
	t.consume()
	depth := 1
	for depth > 0 {
		switch {
		case t.cur == eof:
			return t.fail("", "unterminated block comment")
		case t.cur == '*' && t.peek == '/':
			t.consume()
			depth--
		case t.cur == '/' && t.peek == '*':
			t.consume()
			depth++
		case t.cur == '\n':
			t.line++
		case t.cur == '\r':
			if t.peek != '\n' {
				t.line++
			}
		}
		t.consume()
	}
	return nil
}

func (t *Tokenizer) str() (Token, error) {
	start := t.line
	t.consume()
	triple := t.cur == '"' && t.peek == '"'
	if triple {
		t.consume()
		t.consume()
	}

	var sb strings.Builder
	for {
		c := t.cur
		switch c {
		case eof:
			return Token{}, &TokenizeError{Line: start, Text: `"` + sb.String(), Msg: "unexpected end of str"}
		case '"':
			t.consume()
			if !triple {
				return Token{Type: STR, Val: kind.Str(sb.String())}, nil
			}
			if t.cur == '"' && t.peek == '"' {
				t.consume()
				t.consume()
				return Token{Type: STR, Val: kind.Str(sb.String())}, nil
			}
			sb.WriteRune('"')
		case '\\':
			if err := t.unescape(&sb); err != nil {
				return Token{}, err
			}
		default:
			if c == '\n' {
				t.line++
			}
			sb.WriteRune(c)
			t.consume()
		}
	}
}

// unescape decodes an escape into sb, joining a \uXXXX surrogate pair
// into one code point.
func (t *Tokenizer) unescape(sb *strings.Builder) error {
	r, err := t.escape()
	if err != nil {
		return err
	}
	if utf16.IsSurrogate(r) && r < 0xdc00 && t.cur == '\\' && t.peek == 'u' {
		low, err := t.escape()
		if err != nil {
			return err
		}
		if pair := utf16.DecodeRune(r, low); pair != unicode.ReplacementChar {
			sb.WriteRune(pair)
			return nil
		}
		sb.WriteRune(r)
		r = low
	}
	sb.WriteRune(r)
	return nil
}

// escape decodes one backslash escape. The current char is the backslash.
func (t *Tokenizer) escape() (rune, error) {
	t.consume()
	c := t.cur
	switch c {
	case 'b':
		t.consume()
		return '\b', nil
	case 'f':
		t.consume()
		return '\f', nil
	case 'n':
		t.consume()
		return '\n', nil
	case 'r':
		t.consume()
		return '\r', nil
	case 't':
		t.consume()
		return '\t', nil
	case '"', '$', '\'', '`', '\\':
		t.consume()
		return c, nil
	case 'u':
		t.consume()
		var hex strings.Builder
		for range 4 {
			if !isHex(t.cur) {
				if t.cur != eof {
					hex.WriteRune(t.cur)
				}
				return 0, t.fail(`\u`+hex.String(), "invalid unicode escape")
			}
			hex.WriteRune(t.cur)
			t.consume()
		}
		n, _ := strconv.ParseUint(hex.String(), 16, 32)
		return rune(n), nil
	}
	if c == eof {
		return 0, t.fail(`\`, "unexpected end of escape")
	}
	return 0, t.fail(`\`+string(c), "invalid escape sequence")
}

func (t *Tokenizer) ref() (Token, error) {
	t.consume()
	id := t.refID()
	if id == "" {
		return Token{}, t.fail("@", "invalid empty Ref")
	}
	return Token{Type: REF, Val: kind.NewRef(id)}, nil
}

func (t *Tokenizer) symbol() (Token, error) {
	t.consume()
	id := t.refID()
	if id == "" {
		return Token{}, t.fail("^", "invalid empty Symbol")
	}
	return Token{Type: SYMBOL, Val: kind.Symbol{Val: id}}, nil
}

func (t *Tokenizer) refID() string {
	var sb strings.Builder
	for kind.ValidRefChar(t.cur) {
		sb.WriteRune(t.cur)
		t.consume()
	}
	return sb.String()
}

// uriKeep lists the chars whose escapes are kept verbatim in a Uri,
// backslash included.
const uriKeep = `:/?#[]@\&=;`

func (t *Tokenizer) uri() (Token, error) {
	t.consume()
	var sb strings.Builder
	for {
		c := t.cur
		switch {
		case c == '`':
			t.consume()
			return Token{Type: URI, Val: kind.Uri{Val: sb.String()}}, nil
		case c == eof || c == '\n':
			return Token{}, t.fail("`"+sb.String(), "unexpected end of uri")
		case c == '\\' && t.peek != eof && strings.ContainsRune(uriKeep, t.peek):
			sb.WriteRune(c)
			sb.WriteRune(t.peek)
			t.consume()
			t.consume()
		case c == '\\':
			if err := t.unescape(&sb); err != nil {
				return Token{}, err
			}
		default:
			sb.WriteRune(c)
			t.consume()
		}
	}
}

// num scans a number-like literal and classifies it as a Number, Date,
// Time or DateTime.
func (t *Tokenizer) num() (Token, error) {
	if t.cur == '0' && t.peek == 'x' {
		return t.hex()
	}

	var sb strings.Builder
	sb.WriteRune(t.cur)
	t.consume()

	colons, dashes, unitIndex := 0, 0, 0
	exp := false
scan:
	for {
		c := t.cur
		if !isDigit(c) {
			switch {
			case exp && (c == '+' || c == '-'):
			case c == '-':
				dashes++
			case c == ':' && isDigit(t.peek):
				colons++
			case (exp || colons >= 1) && c == '+':
			case c == '.':
				if !isDigit(t.peek) {
					break scan
				}
			case (c == 'e' || c == 'E') && (t.peek == '-' || t.peek == '+' || isDigit(t.peek)):
				exp = true
			case c == '_':
				if unitIndex == 0 && isDigit(t.peek) {
					t.consume()
					continue
				}
				if unitIndex == 0 {
					unitIndex = sb.Len()
				}
			case isAlpha(c) || c == '%' || c == '$' || c == '/' || c > 128:
				if unitIndex == 0 {
					unitIndex = sb.Len()
				}
			default:
				break scan
			}
		}
		sb.WriteRune(c)
		t.consume()
	}
	s := sb.String()

	switch {
	case dashes == 2 && colons == 0:
		d, err := kind.ParseDate(s)
		if err != nil {
			return Token{}, t.fail(s, "invalid Date literal")
		}
		return Token{Type: DATE, Val: d}, nil
	case dashes == 0 && colons >= 1:
		if len(s) > 1 && s[1] == ':' {
			s = "0" + s
		}
		if colons == 1 {
			s += ":00"
		}
		tm, err := kind.ParseTime(s)
		if err != nil {
			return Token{}, t.fail(s, "invalid Time literal")
		}
		return Token{Type: TIME, Val: tm}, nil
	case dashes >= 2:
		return t.dateTime(s)
	}
	return t.number(s, unitIndex)
}

func (t *Tokenizer) number(s string, unitIndex int) (Token, error) {
	digits, unit := s, ""
	if unitIndex > 0 {
		digits, unit = s[:unitIndex], s[unitIndex:]
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Token{}, t.fail(s, "invalid Number literal")
	}
	return Token{Type: NUM, Val: kind.NewNumber(v, unit)}, nil
}

func (t *Tokenizer) hex() (Token, error) {
	t.consume()
	t.consume()
	var sb strings.Builder
	for {
		if isHex(t.cur) {
			sb.WriteRune(t.cur)
			t.consume()
			continue
		}
		if t.cur == '_' && isHex(t.peek) {
			t.consume()
			continue
		}
		break
	}
	n, err := strconv.ParseUint(sb.String(), 16, 64)
	if err != nil {
		return Token{}, t.fail("0x"+sb.String(), "invalid hex literal")
	}
	return Token{Type: NUM, Val: kind.NewNumber(float64(n))}, nil
}

// dateTime finishes a DateTime literal: either a space and a Haystack
// zone name follow, or the literal ends in Z for UTC.
func (t *Tokenizer) dateTime(s string) (Token, error) {
	var name string
	if t.cur == ' ' && isUpper(t.peek) {
		t.consume()
		var sb strings.Builder
		for isAlnum(t.cur) || t.cur == '_' || t.cur == '-' || t.cur == '+' {
			sb.WriteRune(t.cur)
			t.consume()
		}
		name = sb.String()
	} else if strings.HasSuffix(s, "Z") {
		name = tz.UTC
	} else {
		return Token{}, t.fail(s, "expecting time zone")
	}

	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Token{}, t.fail(s, "invalid DateTime literal")
	}
	loc, err := t.cfg.mapper.Location(name)
	if err != nil {
		return Token{}, &TokenizeError{Line: t.line, Text: s + " " + name, Msg: "unknown time zone", Cause: err}
	}
	return Token{Type: DATETIME, Val: kind.NewDateTime(ts.In(loc))}, nil
}

func (t *Tokenizer) operator() (Token, error) {
	c := t.cur
	if c == eof {
		return Token{Type: EOF}, nil
	}
	t.consume()

	typ, ok := singleOps[c]
	if !ok {
		return Token{}, t.fail(string(c), "unexpected symbol")
	}
	for _, op := range doubleOps[c] {
		if t.cur == op.next {
			t.consume()
			typ = op.typ
			break
		}
	}
	return Token{Type: typ, Text: typ.String()}, nil
}

var singleOps = map[rune]TokenType{
	',': COMMA, ':': COLON, ';': SEMICOLON,
	'[': LBRACKET, ']': RBRACKET, '{': LBRACE, '}': RBRACE, '(': LPAREN, ')': RPAREN,
	'<': LT, '>': GT, '-': MINUS, '=': ASSIGN, '!': BANG,
	'/': SLASH, '.': DOT, '?': QUESTION, '&': AMP, '|': PIPE,
}

var doubleOps = map[rune][]struct {
	next rune
	typ  TokenType
}{
	':': {{':', COLON2}},
	'<': {{'<', LT2}, {'=', LTEQ}},
	'>': {{'>', GT2}, {'=', GTEQ}},
	'-': {{'>', ARROW}},
	'=': {{'=', EQ}, {'>', FNARROW}},
	'!': {{'=', NOTEQ}},
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }
func isUpper(c rune) bool { return c >= 'A' && c <= 'Z' }
func isAlpha(c rune) bool { return c >= 'a' && c <= 'z' || isUpper(c) }
func isAlnum(c rune) bool { return isAlpha(c) || isDigit(c) }

func isHex(c rune) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
