// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/ayoisaiah/notch/internal/apperr"
)

const (
	minutesInAnHour = 60
	MinutesInADay   = 24 * minutesInAnHour
)

// DateLayout is the layout used for calendar date keys such as occurrence
// id suffixes.
const DateLayout = "2006-01-02"

var (
	errInvalidClock = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "invalid time %q: expected HH:MM",
	}

	errInvalidDate = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "unable to understand date %q",
	}
)

// Round rounds a time value in seconds, minutes, or hours to the nearest integer.
func Round(t float64) int {
	return int(math.Round(t))
}

// MinsToHoursAndMins expresses a minutes value in hours and mins.
func MinsToHoursAndMins(val int) (hrs, mins int) {
	hrs = int(math.Floor(float64(val) / float64(minutesInAnHour)))
	mins = val % minutesInAnHour

	return
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// RoundToEnd resets the given time to the end of the day.
func RoundToEnd(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		23,
		59,
		59,
		0,
		t.Location(),
	)
}

// DayIn returns the midnight that starts the calendar day t falls on in loc.
func DayIn(t time.Time, loc *time.Location) time.Time {
	return RoundToStart(t.In(loc))
}

// SameDay reports whether a and b fall on the same calendar day in the
// location of b.
func SameDay(a, b time.Time) bool {
	return DayIn(a, b.Location()).Equal(RoundToStart(b))
}

// DayKey formats the calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseClock converts an "HH:MM" wall-clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || h == "" || len(h) > 2 {
		return 0, errInvalidClock.Fmt(s)
	}

	hrs, err := strconv.Atoi(h)
	if err != nil || hrs < 0 || hrs > 23 {
		return 0, errInvalidClock.Fmt(s)
	}

	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins >= minutesInAnHour {
		return 0, errInvalidClock.Fmt(s)
	}

	return hrs*minutesInAnHour + mins, nil
}

// FormatClock converts minutes since midnight to "HH:MM".
func FormatClock(mins int) string {
	hrs, m := MinsToHoursAndMins(mins)

	return pad(hrs) + ":" + pad(m)
}

// At combines the calendar day of day with an "HH:MM" clock string. The
// result is the wall-clock time in day's location, which differs from
// midnight plus a fixed offset on days with a DST transition.
func At(day time.Time, clock string) (time.Time, error) {
	mins, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	hrs, m := MinsToHoursAndMins(mins)

	return time.Date(
		day.Year(),
		day.Month(),
		day.Day(),
		hrs,
		m,
		0,
		0,
		day.Location(),
	), nil
}

// ParseDate understands both YYYY-MM-DD and natural language such as
// "tomorrow" or "next friday", relative to now. The result is truncated to
// the start of the day in now's location.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoundToStart(now), nil
	}

	if t, err := time.ParseInLocation(DateLayout, s, now.Location()); err == nil {
		return t, nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime:     now,
		DefaultTimezone: now.Location(),
	}

	dt, err := dateparser.Parse(cfg, s)
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, errInvalidDate.Fmt(s)
	}

	return DayIn(dt.Time, now.Location()), nil
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}

	return strconv.Itoa(n)
}
