// Package dates derives a best-effort calendar date from a document filename.
package dates

import (
	"regexp"
	"strconv"
	"time"
)

// Patterns are tried in this order. Only the first one that matches is used,
// even when the matched digits do not form a valid calendar date.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), // 2024-05-01
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),   // 20240501
	regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4})`), // 01-05-2024
}

// Extract returns the date embedded in filename at midnight in loc.
// If loc is nil, time.Local is used.
func Extract(filename string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	for _, re := range patterns {
		m := re.FindStringSubmatch(filename)
		if m == nil {
			continue
		}
		switch {
		case len(m[1]) == 4:
			return build(m[1], m[2], m[3], loc)
		case len(m[3]) == 4:
			return build(m[3], m[2], m[1], loc)
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

// ExtractUnix is Extract expressed in seconds since the epoch.
func ExtractUnix(filename string, loc *time.Location) (int64, bool) {
	t, ok := Extract(filename, loc)
	if !ok {
		return 0, false
	}
	return t.Unix(), true
}

func build(ys, ms, ds string, loc *time.Location) (time.Time, bool) {
	y, ok := atoi(ys)
	if !ok {
		return time.Time{}, false
	}
	mo, ok := atoi(ms)
	if !ok {
		return time.Time{}, false
	}
	d, ok := atoi(ds)
	if !ok {
		return time.Time{}, false
	}
	if mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow (Feb 30 -> Mar 1); reject those.
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
