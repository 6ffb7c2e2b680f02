package zinc

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/tz"
)

func tokenize(t *testing.T, src string, opts ...Option) []Token {
	t.Helper()
	tk := NewTokenizer(strings.NewReader(src), opts...)
	var toks []Token
	for {
		tok, err := tk.Next()
		require.NoError(t, err, src)
		if tok.Type == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func literal(t *testing.T, src string) Token {
	t.Helper()
	toks := tokenize(t, src)
	require.Len(t, toks, 1, src)
	return toks[0]
}

func tokenizeErr(t *testing.T, src string) error {
	t.Helper()
	tk := NewTokenizer(strings.NewReader(src))
	for {
		tok, err := tk.Next()
		if err != nil {
			return err
		}
		if tok.Type == EOF {
			t.Fatalf("expected error for %q", src)
		}
	}
}

func types(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Empty(t, tokenize(t, ""))
	assert.Empty(t, tokenize(t, "  \t "))
}

func TestTokenizeOperators(t *testing.T) {
	toks := tokenize(t, ", : :: ; [ ] { } ( ) < << <= > >> >= -> => / = ! ? & | - == != .")
	assert.Equal(t, []TokenType{
		COMMA, COLON, COLON2, SEMICOLON, LBRACKET, RBRACKET, LBRACE, RBRACE, LPAREN, RPAREN,
		LT, LT2, LTEQ, GT, GT2, GTEQ, ARROW, FNARROW, SLASH, ASSIGN, BANG, QUESTION, AMP, PIPE,
		MINUS, EQ, NOTEQ, DOT,
	}, types(toks))
	assert.Equal(t, "<<", toks[11].Text)
}

func TestTokenizeIdentifiers(t *testing.T) {
	for _, id := range []string{"x", "fooBar", "fooBar1999x", "foo_23", "Foo", "_3", "__90", "_"} {
		tok := literal(t, id)
		assert.Equal(t, ID, tok.Type, id)
		assert.Equal(t, id, tok.Text)
	}
}

func TestTokenizeKeywords(t *testing.T) {
	toks := tokenize(t, "x y", WithKeywords(map[string]kind.Kind{"x": kind.Str("_x_")}))
	require.Len(t, toks, 2)
	assert.Equal(t, KEYWORD, toks[0].Type)
	assert.Equal(t, kind.Str("_x_"), toks[0].Val)
	assert.Equal(t, ID, toks[1].Type)
}

func TestTokenizeNumbers(t *testing.T) {
	cases := []struct {
		src  string
		want kind.Number
	}{
		{"5", kind.NewNumber(5)},
		{"0x1234_abcd", kind.NewNumber(0x1234abcd)},
		{"5.0", kind.NewNumber(5)},
		{"5.42", kind.NewNumber(5.42)},
		{"123.2e32", kind.NewNumber(123.2e32)},
		{"123.2e+32", kind.NewNumber(123.2e32)},
		{"2_123.2e+32", kind.NewNumber(2123.2e32)},
		{"4.2e-7", kind.NewNumber(4.2e-7)},
		{"-40ms", kind.NewNumber(-40, "ms")},
		{"1sec", kind.NewNumber(1, "sec")},
		{"2.5day", kind.NewNumber(2.5, "day")},
		{"12%", kind.NewNumber(12, "%")},
		{"987_foo", kind.NewNumber(987, "_foo")},
		{"-1.2m/s", kind.NewNumber(-1.2, "m/s")},
		{"12kWh/ft²", kind.NewNumber(12, "kWh/ft²")},
		{"3_000.5J/kg_dry", kind.NewNumber(3000.5, "J/kg_dry")},
		{"74Δ°F", kind.NewNumber(74, "Δ°F")},
		{"45$", kind.NewNumber(45, "$")},
		{"33£", kind.NewNumber(33, "£")},
		{"123e+12kJ/kg_dry", kind.NewNumber(123e12, "kJ/kg_dry")},
		{"7.15625E-4kWh/ft²", kind.NewNumber(7.15625e-4, "kWh/ft²")},
	}
	for _, tc := range cases {
		tok := literal(t, tc.src)
		assert.Equal(t, NUM, tok.Type, tc.src)
		assert.Equal(t, tc.want, tok.Val, tc.src)
	}
}

func TestTokenizeStrings(t *testing.T) {
	cases := []struct{ src, want string }{
		{`""`, ""},
		{`"x y"`, "x y"},
		{`"x\"y"`, `x"y`},
		{`"_\u012f \n \t \\_ \u1f973"`, "_\u012f \n \t \\_ \u1f973"},
		{`"\b\f\r\$\'\` + "`" + `"`, "\b\f\r$'`"},
		{`"\u00e9\uabcd"`, "\u00e9\uabcd"},
		{`"\ud83d\ude00"`, "\U0001f600"},
		{`"""a "quoted" b"""`, `a "quoted" b`},
	}
	for _, tc := range cases {
		tok := literal(t, tc.src)
		assert.Equal(t, STR, tok.Type, tc.src)
		assert.Equal(t, kind.Str(tc.want), tok.Val, tc.src)
	}
}

func TestTokenizeDateAndTime(t *testing.T) {
	assert.Equal(t, kind.NewDate(2009, time.October, 4), literal(t, "2009-10-04").Val)

	times := map[string]kind.Time{
		"8:30":         kind.NewTime(8, 30, 0),
		"20:15":        kind.NewTime(20, 15, 0),
		"00:00":        kind.NewTime(0, 0, 0),
		"01:02:03":     kind.NewTime(1, 2, 3),
		"23:59:59":     kind.NewTime(23, 59, 59),
		"12:00:12.345": kind.NewTime(12, 0, 12, 345_000_000),
	}
	for src, want := range times {
		tok := literal(t, src)
		assert.Equal(t, TIME, tok.Type, src)
		assert.Equal(t, want, tok.Val, src)
	}
}

func TestTokenizeDateTimes(t *testing.T) {
	cases := []struct {
		src   string
		iana  string
		local string
	}{
		{"2016-01-13T09:51:33-05:00 New_York", "America/New_York", "2016-01-13T09:51:33-05:00"},
		{"2016-01-13T09:51:33.353-05:00 New_York", "America/New_York", "2016-01-13T09:51:33.353-05:00"},
		{"2010-12-18T14:11:30.924Z", "UTC", "2010-12-18T14:11:30.924Z"},
		{"2010-12-18T14:11:30.925Z UTC", "UTC", "2010-12-18T14:11:30.925Z"},
		{"2010-12-18T14:11:30.925Z London", "Europe/London", "2010-12-18T14:11:30.925Z"},
		{"2015-01-02T06:13:38.701-08:00 PST8PDT", "PST8PDT", "2015-01-02T06:13:38.701-08:00"},
		{"2010-03-01T23:55:00.013-05:00 GMT+5", "Etc/GMT+5", "2010-03-01T23:55:00.013-05:00"},
		{"2010-03-01T23:55:00.013+10:00 GMT-10", "Etc/GMT-10", "2010-03-01T23:55:00.013+10:00"},
		{"2010-03-01T23:55:00.013-05:00 Port-au-Prince", "America/Port-au-Prince", "2010-03-01T23:55:00.013-05:00"},
	}
	for _, tc := range cases {
		tok := literal(t, tc.src)
		require.Equal(t, DATETIME, tok.Type, tc.src)
		dt := tok.Val.(kind.DateTime)
		assert.Equal(t, tc.iana, dt.Tz(), tc.src)

		want, err := time.Parse(time.RFC3339Nano, tc.local)
		require.NoError(t, err)
		assert.True(t, want.Equal(dt.Time()), tc.src)
	}
}

func TestTokenizeDateTimeFollowedByDot(t *testing.T) {
	toks := tokenize(t, "2016-01-13T09:51:33.353-05:00 New_York.")
	assert.Equal(t, []TokenType{DATETIME, DOT}, types(toks))

	toks = tokenize(t, "2010-03-01T23:55:00.013-05:00 GMT+5.")
	assert.Equal(t, []TokenType{DATETIME, DOT}, types(toks))
}

func TestTokenizeDateTimeErrors(t *testing.T) {
	err := tokenizeErr(t, "2016-01-13T09:51:33-05:00 Nowhere")
	assert.True(t, tz.IsNotFound(err))
	assert.True(t, IsSyntaxError(err))

	err = tokenizeErr(t, "2016-01-13T09:51:33-05:00")
	var te *TokenizeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "2016-01-13T09:51:33-05:00", te.Text)
}

func TestTokenizeRefsAndSymbols(t *testing.T) {
	assert.Equal(t, kind.NewRef("125b780e-0684e169"), literal(t, "@125b780e-0684e169").Val)
	assert.Equal(t, kind.NewRef("demo:_:-.~"), literal(t, "@demo:_:-.~").Val)
	assert.Equal(t, kind.Symbol{Val: "elec-meter"}, literal(t, "^elec-meter").Val)

	for _, src := range []string{"@", "@ x", "^", "^,"} {
		err := tokenizeErr(t, src)
		var te *TokenizeError
		require.ErrorAs(t, err, &te, src)
		assert.Contains(t, te.Msg, "empty")
	}
}

func TestTokenizeUris(t *testing.T) {
	assert.Equal(t, kind.Uri{Val: "http://foo/"}, literal(t, "`http://foo/`").Val)
	assert.Equal(t, kind.Uri{Val: "_ \n \\\\ `_"}, literal(t, "`_ \\n \\\\ \\`_`").Val)
	assert.Equal(t, kind.Uri{Val: `file \#2`}, literal(t, "`file \\#2`").Val)
	assert.Equal(t, kind.Uri{Val: "é"}, literal(t, "`\\u00e9`").Val)

	for _, src := range []string{"`abc", "`ab\nc`"} {
		err := tokenizeErr(t, src)
		assert.Contains(t, err.Error(), "end of uri")
	}
}

func TestTokenizeNewlines(t *testing.T) {
	toks := tokenize(t, "a\n  b  \rc \r\nd\n\ne")
	assert.Equal(t, []TokenType{ID, NL, ID, NL, ID, NL, ID, NL, NL, ID}, types(toks))
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 4, toks[6].Line)
	assert.Equal(t, 6, toks[9].Line)
}

func TestTokenizeNonBreakingSpace(t *testing.T) {
	toks := tokenize(t, "a b")
	assert.Equal(t, []TokenType{ID, ID}, types(toks))
}

func TestTokenizeComments(t *testing.T) {
	src := "// foo\n//   bar\nx  // baz\n"

	toks := tokenize(t, src)
	assert.Equal(t, []TokenType{NL, NL, ID, NL}, types(toks))

	toks = tokenize(t, src, WithComments())
	assert.Equal(t, []TokenType{COMMENT, NL, COMMENT, NL, ID, COMMENT, NL}, types(toks))
	assert.Equal(t, "foo", toks[0].Text)
	assert.Equal(t, "  bar", toks[2].Text)
	assert.Equal(t, "baz", toks[5].Text)
}

func TestTokenizeNestedBlockComments(t *testing.T) {
	toks := tokenize(t, "a /* x /* y */ z */ b")
	require.Equal(t, []TokenType{ID, ID}, types(toks))
	assert.Equal(t, "b", toks[1].Text)

	toks = tokenize(t, "/* one\ntwo */ c")
	require.Len(t, toks, 1)
	assert.Equal(t, 2, toks[0].Line)

	err := tokenizeErr(t, "a /* /* */")
	assert.Contains(t, err.Error(), "unterminated block comment")
}

func TestTokenizeErrors(t *testing.T) {
	cases := []struct {
		src  string
		msg  string
		line int
	}{
		{`"fo..`, "unexpected end of str", 1},
		{"x\n\"abc", "unexpected end of str", 2},
		{"`fo..", "unexpected end of uri", 1},
		{`"\u345x"`, "invalid unicode escape", 1},
		{`"\ua"`, "invalid unicode escape", 1},
		{`"\u234"`, "invalid unicode escape", 1},
		{`"\q"`, "invalid escape sequence", 1},
		{"#", "unexpected symbol", 1},
		{"\n\n#", "unexpected symbol", 3},
		{"2009-13-45", "invalid Date literal", 1},
		{"5-3", "invalid Number literal", 1},
	}
	for _, tc := range cases {
		err := tokenizeErr(t, tc.src)
		var te *TokenizeError
		require.ErrorAs(t, err, &te, tc.src)
		assert.Equal(t, tc.msg, te.Msg, tc.src)
		assert.Equal(t, tc.line, te.Line, tc.src)
	}
}

func TestTokenizeHugeNumber(t *testing.T) {
	tok := literal(t, "1e400")
	assert.True(t, math.IsInf(tok.Val.(kind.Number).Val, 1))
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "Number 5kW", Token{Type: NUM, Val: kind.NewNumber(5, "kW")}.String())
	assert.Equal(t, `identifier "foo"`, Token{Type: ID, Text: "foo"}.String())
	assert.Equal(t, `","`, Token{Type: COMMA}.String())
	assert.Equal(t, "newline", Token{Type: NL}.String())
}
