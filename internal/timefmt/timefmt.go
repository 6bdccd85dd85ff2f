// Package timefmt turns message timestamps into short clock labels.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// ShortLayout renders times like "3:45pm".
const ShortLayout = "3:04pm"

// layouts that carry their own offset
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04-0700",
}

// layouts read as wall time in the display location
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads an ISO-8601 timestamp. Values without an offset are UTC.
func Parse(iso string) (time.Time, error) {
	return ParseIn(iso, time.UTC)
}

// ParseIn reads an ISO-8601 timestamp, taking values without an offset as
// wall time in loc.
func ParseIn(iso string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(iso)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", iso)
}

// ShortIn formats iso in loc. On malformed input it returns "" with the parse error.
func ShortIn(iso string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := ParseIn(iso, loc)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(ShortLayout), nil
}

// Short formats iso in local time and fails closed to "".
func Short(iso string) string {
	s, _ := ShortIn(iso, time.Local)
	return s
}
