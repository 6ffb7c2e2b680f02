package kind

import (
	"errors"
	"time"

	"github.com/roach88/haystack/tz"
)

// DateRange is a range of whole days: start inclusive, end exclusive.
// It is not a Haystack kind; it formats hisRead range arguments.
type DateRange struct {
	Start Date
	End   Date
}

func (r DateRange) String() string {
	return r.Start.String() + "," + r.End.String()
}

// DateTimeRange is a range of instants: start inclusive, end exclusive. A
// zero End means open-ended.
type DateTimeRange struct {
	Start time.Time
	End   time.Time
}

// NewDateTimeRange validates that both ends carry a named IANA zone.
func NewDateTimeRange(start time.Time, end ...time.Time) (DateTimeRange, error) {
	r := DateTimeRange{Start: start}
	if len(end) > 0 {
		r.End = end[0]
	}
	if !hasNamedZone(r.Start) || (!r.End.IsZero() && !hasNamedZone(r.End)) {
		return DateTimeRange{}, errors.New("range times must carry a named IANA time zone")
	}
	return r, nil
}

func hasNamedZone(t time.Time) bool {
	name := t.Location().String()
	return name != "" && name != "Local"
}

func (r DateTimeRange) String() string {
	if r.End.IsZero() {
		return FormatRangeTime(r.Start)
	}
	return FormatRangeTime(r.Start) + "," + FormatRangeTime(r.End)
}

// FormatRangeTime formats t with second precision, or millisecond precision
// when it has a sub-second part, followed by its Haystack zone name.
func FormatRangeTime(t time.Time) string {
	layout := "2006-01-02T15:04:05-07:00"
	if t.Nanosecond() != 0 {
		layout = "2006-01-02T15:04:05.000-07:00"
	}
	return t.Format(layout) + " " + tz.HaystackName(t.Location().String())
}
