// Package dateexpr resolves free-form date phrases such as "tomorrow",
// "next friday" or "in 3 weeks" against a reference instant.
package dateexpr

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrNotRecognized = errors.New("date expression not recognized")

const (
	dateTimeLayout = "2006-01-02 15:04"
	dateLayout     = "2006-01-02"

	// Month arithmetic in relative phrases uses a fixed 30-day month;
	// "end of month" is calendar-aware.
	daysPerMonth = 30
)

var inDuration = regexp.MustCompile(`^in (\d+) (day|week|month)s?`)

// Weekdays in the order they are matched against the phrase.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

var keywords = []string{
	"today", "tomorrow", "yesterday", "next", "in",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"week", "month", "end",
}

// Resolve converts expr to an absolute time relative to ref. The time of day
// of ref is preserved. ok is false when no pattern matches.
func Resolve(expr string, ref time.Time) (t time.Time, ok bool) {
	text := strings.ToLower(strings.TrimSpace(expr))

	switch text {
	case "today":
		return ref, true
	case "tomorrow":
		return ref.AddDate(0, 0, 1), true
	case "yesterday":
		return ref.AddDate(0, 0, -1), true
	case "next week":
		return ref.AddDate(0, 0, 7), true
	case "next month":
		return ref.AddDate(0, 0, daysPerMonth), true
	}

	if m := inDuration.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch m[2] {
		case "day":
			return ref.AddDate(0, 0, n), true
		case "week":
			return ref.AddDate(0, 0, 7*n), true
		case "month":
			return ref.AddDate(0, 0, daysPerMonth*n), true
		}
	}

	for _, wd := range weekdays {
		if !strings.Contains(text, wd.name) {
			continue
		}
		ahead := int(wd.day) - int(ref.Weekday())
		if ahead <= 0 {
			ahead += 7
		}
		if strings.Contains(text, "next") {
			ahead += 7
		}
		return ref.AddDate(0, 0, ahead), true
	}

	if strings.Contains(text, "end of week") {
		ahead := (7 - int(ref.Weekday())) % 7
		return ref.AddDate(0, 0, ahead), true
	}

	if strings.Contains(text, "end of month") {
		return endOfMonth(ref), true
	}

	return time.Time{}, false
}

// endOfMonth returns the last calendar day of t's month at t's time of day.
// Day 0 of the following month normalises to it, December included.
func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// LooksNatural reports whether text contains any keyword Resolve knows.
// It is advisory: a true result does not guarantee Resolve succeeds.
func LooksNatural(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// ParseInput reads a user-entered date. Literal "YYYY-MM-DD HH:MM" and
// "YYYY-MM-DD" forms are tried first, in ref's location, then natural language.
func ParseInput(text string, ref time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrNotRecognized
	}
	if t, err := time.ParseInLocation(dateTimeLayout, text, ref.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, text, ref.Location()); err == nil {
		return t, nil
	}
	if LooksNatural(text) {
		if t, ok := Resolve(text, ref); ok {
			return t, nil
		}
	}
	return time.Time{}, ErrNotRecognized
}
