// Package dateparse turns search bounds such as "yesterday", "7d" or
// "2024-03-01" into times. Relative expressions always point into the past.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseNow parses s relative to the current local time.
func ParseNow(s string) (time.Time, error) {
	return Parse(s, time.Now())
}

// Parse accepts RFC 3339, YYYY-MM-DD (midnight in now's location), the
// keywords now, today and yesterday, durations such as "2h", "3d" or "1w ago",
// and weekdays ("monday" is the most recent Monday, "last monday" the one
// before today).
func Parse(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	normalized := strings.ToLower(raw)
	normalized = strings.TrimSpace(strings.Trim(normalized, ".,"))

	switch normalized {
	case "now":
		return now, nil
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now.AddDate(0, 0, -1)), nil
	}

	if t, ok := parseWeekday(normalized, now); ok {
		return t, nil
	}

	if t, ok, err := parseAgo(normalized, now); ok {
		return t, err
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("2006-01-02", raw, now.Location()); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, RFC 3339, yesterday, 7d or monday)", raw)
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func parseAgo(input string, now time.Time) (time.Time, bool, error) {
	value := input
	explicit := false
	if strings.HasSuffix(value, "ago") {
		value = strings.TrimSpace(strings.TrimSuffix(value, "ago"))
		explicit = true
	}
	value = strings.ReplaceAll(value, " ", "")

	d, ok := parseDurationValue(value)
	if !ok || d <= 0 {
		if explicit {
			return time.Time{}, true, fmt.Errorf("invalid relative time %q", input)
		}
		return time.Time{}, false, nil
	}
	return now.Add(-d), true, nil
}

func parseDurationValue(input string) (time.Duration, bool) {
	if input == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(input); err == nil {
		return d, true
	}

	matches := durationTokenRE.FindStringSubmatch(input)
	if len(matches) != 3 {
		return 0, false
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}

	switch matches[2] {
	case "mo", "month", "months":
		return time.Duration(value) * 30 * 24 * time.Hour, true
	case "w", "week", "weeks":
		return time.Duration(value) * 7 * 24 * time.Hour, true
	case "d", "day", "days":
		return time.Duration(value) * 24 * time.Hour, true
	case "h", "hour", "hours":
		return time.Duration(value) * time.Hour, true
	case "m", "min", "mins", "minute", "minutes":
		return time.Duration(value) * time.Minute, true
	default:
		return 0, false
	}
}

func parseWeekday(input string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(input)
	strict := false
	if rest, ok := strings.CutPrefix(s, "last "); ok {
		s = strings.TrimSpace(rest)
		strict = true
	}

	weekday, ok := weekdayAliases[s]
	if !ok {
		return time.Time{}, false
	}

	base := startOfDay(now)
	delta := (int(base.Weekday()) - int(weekday) + 7) % 7
	if strict && delta == 0 {
		delta = 7
	}
	return base.AddDate(0, 0, -delta), true
}

var weekdayAliases = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"weds":      time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

var durationTokenRE = regexp.MustCompile(`^(\d+)(months?|mo|weeks?|w|days?|d|hours?|h|minutes?|mins?|m)$`)
