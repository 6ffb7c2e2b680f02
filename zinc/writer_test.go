package zinc

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/haystack/kind"
	"github.com/roach88/haystack/tz"
)

func write(t *testing.T, v kind.Kind) string {
	t.Helper()
	s, err := MarshalString(v)
	require.NoError(t, err)
	return s
}

func TestWriteScalars(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	cases := []struct {
		v    kind.Kind
		want string
	}{
		{nil, "N"},
		{kind.Marker{}, "M"},
		{kind.NA{}, "NA"},
		{kind.Remove{}, "R"},
		{kind.Bool(true), "T"},
		{kind.Bool(false), "F"},
		{num(-99), "-99"},
		{num(2.4e20), "240000000000000000000"},
		{num(1.23e-08), "1.23e-08"},
		{num(74, "Δ°F"), "74Δ°F"},
		{num(math.Inf(1)), "INF"},
		{num(math.Inf(-1)), "-INF"},
		{num(math.NaN()), "NaN"},
		{kind.Str("a\"b\\c\nd\te$"), `"a\"b\\c\nd\te$"`},
		{kind.Str("é😀\x01\b"), `"\u00e9\ud83d\ude00\u0001\b"`},
		{kind.NewRef("abc"), "@abc"},
		{kind.NewRef("abc", "Main Site"), `@abc "Main Site"`},
		{kind.Symbol{Val: "elec-meter"}, "^elec-meter"},
		{kind.Uri{Val: "http://x/?a=b&c"}, "`http://x/?a=b&c`"},
		{kind.Uri{Val: "foo`bar"}, "`foo\\`bar`"},
		{kind.Uri{Val: `file \#2`}, "`file \\#2`"},
		{kind.Uri{Val: `a\nb`}, "`a\\u005cnb`"},
		{kind.Uri{Val: `end\`}, "`end\\u005c`"},
		{kind.Uri{Val: "ü"}, "`\\u00fc`"},
		{kind.NewCoord(37.55, -77.45), "C(37.55,-77.45)"},
		{kind.XStr{Type: "Span", Val: "today"}, `Span("today")`},
		{kind.NewDate(2009, time.October, 4), "2009-10-04"},
		{kind.NewTime(1, 2, 3, 123_000_000), "01:02:03.123"},
		{kind.NewDateTime(time.Date(2016, 1, 13, 9, 51, 33, 353_000_000, ny)), "2016-01-13T09:51:33.353-05:00 New_York"},
		{kind.NewDateTime(time.Date(2009, 2, 3, 4, 5, 6, 0, time.UTC)), "2009-02-03T04:05:06Z"},
		{kind.List{num(1), kind.Str("two"), nil}, `[1,"two",N]`},
		{dict(e("a", kind.Marker{}), e("b", num(2)), e("c", kind.Str("x"))), `{a b:2 c:"x"}`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, write(t, tc.v))
	}
}

func TestWriteGridGolden(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	scalars := grid(dict(), []string{"a", "b", "c", "d"},
		dict(e("a", kind.Bool(true)), e("b", kind.Bool(false)), e("d", num(-99))),
		dict(e("a", num(2.3)), e("b", num(-5e-10)), e("c", num(2.4e20)), e("d", num(1.23e-08))),
		dict(e("a", kind.Str("")), e("b", kind.Str("a")), e("c", kind.Str("\" \\ \t \n \r")), e("d", kind.Str("\uabcd"))),
		dict(e("a", kind.Uri{Val: "path"}), e("b", kind.NewRef("12cbb082-0c02ae73")), e("c", num(4, "s")), e("d", num(-2.5, "min"))),
		dict(e("a", kind.Marker{}), e("b", kind.Remove{})),
		dict(e("a", kind.NewDate(2009, time.December, 31)), e("b", kind.NewTime(23, 59, 1)),
			e("c", kind.NewTime(1, 2, 3, 123_000_000)), e("d", kind.NewDateTime(time.Date(2009, 2, 3, 4, 5, 6, 0, time.UTC)))),
		dict(e("a", num(math.Inf(1))), e("b", num(math.Inf(-1))), e("c", kind.Str(""))),
		dict(e("a", kind.NewCoord(12, -34)), e("b", kind.NewCoord(0.123, -0.789)),
			e("c", kind.NewCoord(84.5, -77.45)), e("d", kind.NewCoord(-90, 180))),
		dict(e("a", kind.NA{}), e("c", kind.Symbol{Val: "a:b"}), e("d", kind.Str("foo"))),
	)

	meta := kind.MustGrid(
		dict(e("projName", kind.Str("demo")), e("hisStart", kind.NewDateTime(time.Date(2024, 11, 22, 8, 0, 0, 0, ny)))),
		[]kind.Col{
			{Name: "id", Meta: dict(e("dis", kind.Str("Identifier")))},
			{Name: "area", Meta: dict(e("unit", kind.Str("ft²")), e("precision", num(1)))},
			{Name: "site"},
		},
		[]kind.Dict{
			dict(e("id", kind.NewRef("p:demo:r:1", "Site A")), e("area", num(1200, "ft²")), e("site", kind.Marker{})),
			dict(e("id", kind.NewRef("p:demo:r:2"))),
		},
	)

	nested := kind.MustGrid(dict(e("dis", kind.Str("Nested"))), []kind.Col{{Name: "type"}, {Name: "val"}}, []kind.Dict{
		dict(e("type", kind.Str("grid")), e("val", grid(dict(), []string{"a", "b"}, dict(e("a", num(1)), e("b", num(2)))))),
		dict(e("type", kind.Str("list")), e("val", kind.List{num(1), kind.Str("two"), nil})),
		dict(e("type", kind.Str("dict")), e("val", dict(e("a", kind.Marker{}), e("b", num(2))))),
	})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, v := range map[string]kind.Grid{"scalars": scalars, "meta": meta, "nested": nested} {
		t.Run(name, func(t *testing.T) {
			out, err := Marshal(v)
			require.NoError(t, err)
			g.Assert(t, "grid_"+name, out)

			back, err := Unmarshal(out)
			require.NoError(t, err)
			assertKind(t, v, back)
		})
	}
}

func TestWriteGridLayout(t *testing.T) {
	g := grid(dict(), []string{"a", "b"}, dict(e("a", num(1)), e("b", num(2))), dict(e("a", num(3)), e("b", num(4))))
	assert.Equal(t, "ver:\"3.0\"\na,b\n1,2\n3,4\n\n", write(t, g))

	empty := kind.MustGrid(dict(), nil, nil)
	assert.Equal(t, "ver:\"3.0\"\nnoCols\n\n", write(t, empty))

	single := grid(dict(), []string{"val"}, dict(e("val", num(1))), dict())
	assert.Equal(t, "ver:\"3.0\"\nval\n1\nN\n\n", write(t, single))
}

func TestWriteIsIdempotent(t *testing.T) {
	src := "ver:\"3.0\" a:2009-02-03T04:05:06Z foo b:2010-02-03T04:05:06-05:00 New_York\n" +
		"a,b\n2010-03-01T23:55:00.013-05:00 GMT+5,`file \\#2`\n\"x\\u00e9\",@a \"A\"\n\n"
	first := write(t, read(t, src))
	second := write(t, read(t, first))
	assert.Equal(t, first, second)
}

func TestRoundTripUnderscoreNames(t *testing.T) {
	g := grid(dict(e("_", kind.Marker{})), []string{"_", "a"},
		dict(e("_", num(1)), e("a", dict(e("_", kind.Str("x"))))))

	out := write(t, g)
	assert.Equal(t, "ver:\"3.0\" _\n_,a\n1,{_:\"x\"}\n\n", out)
	assertKind(t, g, read(t, out))
}

func TestRoundTripTrickyStrings(t *testing.T) {
	for _, s := range []string{"", "\"\"\"", "a\\nb", "$x", "tab\there", "\U0001f600", "\u2028", "`"} {
		assertKind(t, kind.Str(s), read(t, write(t, kind.Str(s))))
	}
	for _, s := range []string{`\\x`, `\`, `a\#b\\#c`, "`", "ü/ß?q=1", `\u0041`} {
		assertKind(t, kind.Uri{Val: s}, read(t, write(t, kind.Uri{Val: s})))
	}
}

func TestWriteErrors(t *testing.T) {
	fixed := time.FixedZone("", -5*3600)
	cases := []struct {
		name string
		v    kind.Kind
		path string
	}{
		{"inf with unit", dict(e("x", num(math.Inf(1), "kW"))), "x"},
		{"empty ref", kind.List{kind.Ref{}}, "[0]"},
		{"bad ref char", kind.NewRef("a b"), ""},
		{"bad symbol", kind.Symbol{Val: ""}, ""},
		{"bad xstr type", kind.XStr{Type: "lower", Val: "x"}, ""},
		{"unnamed zone", kind.NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, fixed)), ""},
		{"bad tag name", dict(e("Bad", kind.Marker{})), "Bad"},
		{"bad row value", grid(dict(), []string{"a"}, dict(e("a", kind.Ref{}))), "rows[0].a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := MarshalString(tc.v)
			var ee *EncodeError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tc.path, ee.Path)
			assert.True(t, IsEncodeError(err))
		})
	}
}

func TestWriteUnknownZoneWrapsNotFound(t *testing.T) {
	loc, err := time.LoadLocation("America/Indiana/Indianapolis")
	require.NoError(t, err)
	m := tz.NewMapper([]string{"America/New_York"})

	_, err = MarshalString(kind.NewDateTime(time.Date(2020, 1, 1, 0, 0, 0, 0, loc)), WithMapper(m))
	require.Error(t, err)
	assert.True(t, tz.IsNotFound(err))
}

func TestWriterWritesNothingOnError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	err := w.Write(kind.List{num(1), kind.Ref{}})
	require.Error(t, err)
	assert.Zero(t, buf.Len())

	require.NoError(t, w.Write(kind.List{num(1)}))
	assert.Equal(t, "[1]", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterSurfacesIOErrors(t *testing.T) {
	err := NewWriter(failingWriter{}).Write(kind.Marker{})
	assert.EqualError(t, err, "disk full")
}
