package kind

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/haystack/tz"
)

// Kind is a sealed interface representing a Haystack value.
// Only the types declared in this package implement it.
//
// A nil Kind means null.
type Kind interface {
	fmt.Stringer
	kind() // Sealed - only these types implement it
}

// Marker is the "tag present" value.
type Marker struct{}

func (Marker) kind() {}

func (Marker) String() string { return "✓" }

// NA indicates a value that is not available, most often an invalid
// history sample.
type NA struct{}

func (NA) kind() {}

func (NA) String() string { return "NA" }

// Remove indicates that a tag should be deleted from a record.
type Remove struct{}

func (Remove) kind() {}

func (Remove) String() string { return "remove" }

// Bool is a Haystack boolean.
type Bool bool

func (Bool) kind() {}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Str is a Haystack string.
type Str string

func (Str) kind() {}

func (s Str) String() string { return string(s) }

// Number is a float64 with an optional unit. An empty Unit means unitless.
//
// Units are not validated against the Haystack unit database.
type Number struct {
	Val  float64
	Unit string
}

func (Number) kind() {}

// NewNumber creates a Number with an optional unit.
func NewNumber(val float64, unit ...string) Number {
	n := Number{Val: val}
	if len(unit) > 0 {
		n.Unit = unit[0]
	}
	return n
}

// IsFinite reports whether the value is neither infinite nor NaN.
func (n Number) IsFinite() bool {
	return !math.IsInf(n.Val, 0) && !math.IsNaN(n.Val)
}

// String returns the value immediately followed by the unit.
func (n Number) String() string {
	return FormatFloat(n.Val) + n.Unit
}

// FormatFloat formats a float in the shortest form that parses back to the
// same value. Non-finite values use the Haystack keywords INF, -INF and NaN.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Ref identifies an entity. Dis is an optional display string.
type Ref struct {
	Val string
	Dis string
}

func (Ref) kind() {}

// NewRef creates a Ref with an optional display string.
func NewRef(val string, dis ...string) Ref {
	r := Ref{Val: val}
	if len(dis) > 0 {
		r.Dis = dis[0]
	}
	return r
}

// String returns the display string if present, otherwise @val.
func (r Ref) String() string {
	if r.Dis != "" {
		return r.Dis
	}
	return "@" + r.Val
}

// Symbol is a def identifier.
type Symbol struct {
	Val string
}

func (Symbol) kind() {}

func (s Symbol) String() string { return "^" + s.Val }

// Uri is a universal resource identifier.
type Uri struct {
	Val string
}

func (Uri) kind() {}

func (u Uri) String() string { return u.Val }

// coordScale fixes Coord precision at six decimal places (about 0.1m).
const coordScale = 1e6

// Coord is a geographic coordinate in decimal degrees.
type Coord struct {
	Lat float64
	Lng float64
}

func (Coord) kind() {}

// NewCoord creates a Coord with lat and lng rounded to six decimal places.
func NewCoord(lat, lng float64) Coord {
	return Coord{
		Lat: math.Round(lat*coordScale) / coordScale,
		Lng: math.Round(lng*coordScale) / coordScale,
	}
}

func (c Coord) String() string {
	return fmt.Sprintf("C(%s, %s)", FormatFloat(c.Lat), FormatFloat(c.Lng))
}

// XStr is a value of a type the data model does not know, encoded as a
// string. Type must start with an ASCII uppercase letter.
type XStr struct {
	Type string
	Val  string
}

func (XStr) kind() {}

func (x XStr) String() string { return fmt.Sprintf("(%s, %s)", x.Type, x.Val) }

// Date is a calendar date with no time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) kind() {}

// NewDate creates a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Midnight returns the start of the date in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Time is a wall-clock time with no date or zone.
type Time struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

func (Time) kind() {}

// NewTime creates a Time. An optional fourth argument sets nanoseconds.
func NewTime(hour, minute, second int, nsec ...int) Time {
	t := Time{Hour: hour, Minute: minute, Second: second}
	if len(nsec) > 0 {
		t.Nanosecond = nsec[0]
	}
	return t
}

// ParseTime parses hh:mm:ss with an optional fractional second of up to
// nine digits.
func ParseTime(s string) (Time, error) {
	main, frac, hasFrac := strings.Cut(s, ".")
	parts := strings.Split(main, ":")
	if len(parts) != 3 {
		return Time{}, fmt.Errorf("invalid time %q", s)
	}
	var fields [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return Time{}, fmt.Errorf("invalid time %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Time{}, fmt.Errorf("invalid time %q", s)
		}
		fields[i] = n
	}
	if fields[0] > 23 || fields[1] > 59 || fields[2] > 59 {
		return Time{}, fmt.Errorf("time out of range %q", s)
	}
	nsec := 0
	if hasFrac {
		if frac == "" || len(frac) > 9 {
			return Time{}, fmt.Errorf("invalid fractional second %q", s)
		}
		n, err := strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
		if err != nil {
			return Time{}, fmt.Errorf("invalid fractional second %q", s)
		}
		nsec = n
	}
	return Time{Hour: fields[0], Minute: fields[1], Second: fields[2], Nanosecond: nsec}, nil
}

// String returns hh:mm:ss with the fractional second trimmed of trailing
// zeros, or omitted when zero.
func (t Time) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	return s + formatFraction(t.Nanosecond)
}

func formatFraction(nsec int) string {
	if nsec == 0 {
		return ""
	}
	return "." + strings.TrimRight(fmt.Sprintf("%09d", nsec), "0")
}

// DateTime is an instant bound to an IANA time zone.
//
// Zones whose name contains "UTC" are normalised to time.UTC so that
// Etc/UTC and UTC compare equal, matching the single Haystack name "UTC".
type DateTime struct {
	val time.Time
}

func (DateTime) kind() {}

// NewDateTime creates a DateTime from t, keeping t's location.
func NewDateTime(t time.Time) DateTime {
	if strings.Contains(t.Location().String(), "UTC") {
		t = t.UTC()
	}
	return DateTime{val: t}
}

// Time returns the underlying time.Time.
func (d DateTime) Time() time.Time { return d.val }

// Tz returns the IANA zone id.
func (d DateTime) Tz() string { return d.val.Location().String() }

// HaystackTz returns the Haystack time zone name.
func (d DateTime) HaystackTz() string { return tz.HaystackName(d.Tz()) }

// ISO returns the ISO 8601 local time with a numeric offset, or Z for UTC.
func (d DateTime) ISO() string {
	t := d.val
	s := t.Format("2006-01-02T15:04:05") + formatFraction(t.Nanosecond())
	if d.HaystackTz() == "UTC" {
		return s + "Z"
	}
	return s + t.Format("-07:00")
}

// String returns the ISO form followed by the Haystack zone name.
func (d DateTime) String() string {
	return d.ISO() + " " + d.HaystackTz()
}

// List is an ordered sequence of values. Elements may be nil.
type List []Kind

func (List) kind() {}

func (l List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range l {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(ToString(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ToString formats v for diagnostics, rendering nil as "null".
func ToString(v Kind) string {
	if v == nil {
		return "null"
	}
	return v.String()
}
