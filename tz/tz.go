// Package tz maps between IANA zone ids and Project Haystack time zone names.
//
// A Haystack name is the last path segment of the IANA id
// (America/New_York is New_York). Any zone containing "UTC" is named UTC.
// The POSIX-style Etc/GMT+5 is named GMT+5; note that its offset is
// UTC-05:00 because POSIX inverts the sign.
//
// Reference: https://project-haystack.org/doc/docHaystack/TimeZones
package tz

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // zone rules travel with the binary
)

//go:embed zones.txt
var zonesTxt string

// UTC is the Haystack name of every UTC zone.
const UTC = "UTC"

// NotFoundError reports a Haystack name with no IANA zone.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("time zone %q not found in the IANA database", e.Name)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// HaystackName returns the Haystack name for an IANA zone id.
// It is a pure string transform and never fails.
func HaystackName(iana string) string {
	if strings.Contains(iana, UTC) {
		return UTC
	}
	if i := strings.LastIndexByte(iana, '/'); i >= 0 {
		return iana[i+1:]
	}
	return iana
}

// Zones returns the embedded IANA zone ids in scan order.
func Zones() []string {
	var zones []string
	for _, line := range strings.Split(zonesTxt, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			zones = append(zones, line)
		}
	}
	return zones
}

// Mapper resolves Haystack names to IANA zones.
//
// Reverse lookup scans the zone list in sorted order and takes the first
// zone whose Haystack name matches. Results are memoised per Mapper.
//
// Thread-safety: all methods are safe for concurrent use.
type Mapper struct {
	zones []string

	mu    sync.RWMutex
	names map[string]string         // haystack name -> IANA id
	locs  map[string]*time.Location // haystack name -> location
}

// NewMapper creates a Mapper over the given IANA zone ids.
func NewMapper(zones []string) *Mapper {
	sorted := slices.Clone(zones)
	slices.Sort(sorted)
	return &Mapper{
		zones: slices.Compact(sorted),
		names: make(map[string]string),
		locs:  make(map[string]*time.Location),
	}
}

var defaultMapper = sync.OnceValue(func() *Mapper {
	return NewMapper(Zones())
})

// Default returns the Mapper over the embedded zone list, creating it on
// first use.
func Default() *Mapper {
	return defaultMapper()
}

// IANA returns the IANA zone id for a Haystack name.
func (m *Mapper) IANA(name string) (string, error) {
	if strings.Contains(name, UTC) {
		return UTC, nil
	}

	m.mu.RLock()
	iana, ok := m.names[name]
	m.mu.RUnlock()
	if ok {
		return iana, nil
	}

	for _, z := range m.zones {
		if HaystackName(z) == name {
			m.mu.Lock()
			m.names[name] = z
			m.mu.Unlock()
			return z, nil
		}
	}
	return "", &NotFoundError{Name: name}
}

// Location returns the loaded time.Location for a Haystack name.
func (m *Mapper) Location(name string) (*time.Location, error) {
	m.mu.RLock()
	loc, ok := m.locs[name]
	m.mu.RUnlock()
	if ok {
		return loc, nil
	}

	iana, err := m.IANA(name)
	if err != nil {
		return nil, err
	}
	if iana == UTC {
		loc = time.UTC
	} else {
		loc, err = time.LoadLocation(iana)
		if err != nil {
			return nil, fmt.Errorf("loading zone %s: %w", iana, err)
		}
	}

	m.mu.Lock()
	m.locs[name] = loc
	m.mu.Unlock()
	return loc, nil
}
