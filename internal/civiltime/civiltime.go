// Package civiltime interprets wall-clock dates and times in a single fixed
// civil zone, independent of the server's host timezone.
//
// Every user-facing date in the system is entered and displayed in that zone
// (Europe/Oslo by default), while events are stored as absolute instants.
package civiltime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultZone is the civil zone used when none is configured.
const DefaultZone = "Europe/Oslo"

const dateKeyLayout = "2006-01-02"

// Resolver converts between civil wall-clock values in one IANA zone and
// absolute instants. All methods are pure and never block.
type Resolver struct {
	loc *time.Location
}

// New loads the named IANA zone and returns a resolver for it.
func New(zone string) (*Resolver, error) {
	if zone == "" {
		zone = DefaultZone
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load civil zone %q: %w", zone, err)
	}

	return &Resolver{loc: loc}, nil
}

// Zone returns the resolver's IANA zone name.
func (r *Resolver) Zone() string {
	return r.loc.String()
}

// Location returns the underlying time.Location.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// ResolveCivilInstant interprets a "2006-01-02" date and "15:04" time as local
// wall-clock time in the civil zone and returns the absolute instant.
//
// Resolution is two-pass: the zone offset is looked up at the naive instant,
// applied, then looked up again at the shifted instant; if the two offsets
// disagree the naive instant straddles a DST transition and the second offset
// wins. A single-pass lookup misplaces events by one hour around the
// spring-forward and fall-back dates.
func (r *Resolver) ResolveCivilInstant(date, clock string) (time.Time, error) {
	year, month, day, err := splitDate(date)
	if err != nil {
		return time.Time{}, err
	}

	hour, minute, err := splitClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	naive := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)

	_, first := naive.In(r.loc).Zone()
	resolved := naive.Add(-time.Duration(first) * time.Second)

	_, second := resolved.In(r.loc).Zone()
	if second != first {
		resolved = naive.Add(-time.Duration(second) * time.Second)
	}

	return resolved, nil
}

// DateKey returns the YYYY-MM-DD calendar date of an instant in the civil zone.
func (r *Resolver) DateKey(t time.Time) string {
	return t.In(r.loc).Format(dateKeyLayout)
}

// TomorrowDateKey returns the calendar date following now's civil date.
//
// Today's civil date is converted to a UTC midnight, one calendar day is
// added, and the result is formatted back. Adding 24 hours to now instead
// breaks on the 23- and 25-hour days around DST transitions.
func (r *Resolver) TomorrowDateKey(now time.Time) string {
	today, err := time.ParseInLocation(dateKeyLayout, r.DateKey(now), time.UTC)
	if err != nil {
		// DateKey output always parses back; reaching this means the layout
		// itself changed.
		panic(fmt.Sprintf("civiltime: unparseable date key: %v", err))
	}

	return today.AddDate(0, 0, 1).Format(dateKeyLayout)
}

// HourOf returns now's civil hour of day, 0-23.
func (r *Resolver) HourOf(t time.Time) int {
	return t.In(r.loc).Hour()
}

// FormatEventDate renders an instant the way notification bodies show it,
// e.g. "Thursday 5 March 2026, 18:00".
func (r *Resolver) FormatEventDate(t time.Time) string {
	return t.In(r.loc).Format("Monday 2 January 2006, 15:04")
}

func splitDate(date string) (year, month, day int, err error) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}

	year, err = strconv.Atoi(parts[0])
	if err == nil {
		month, err = strconv.Atoi(parts[1])
	}
	if err == nil {
		day, err = strconv.Atoi(parts[2])
	}
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("invalid date %q: component out of range", date)
	}

	return year, month, day, nil
}

func splitClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", clock)
	}

	hour, err = strconv.Atoi(parts[0])
	if err == nil {
		minute, err = strconv.Atoi(parts[1])
	}
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q: component out of range", clock)
	}

	return hour, minute, nil
}
