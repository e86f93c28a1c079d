package main

import (
	"strconv"
	"strings"
	"time"
)

// timeLayouts is the ordered list of layouts tried during detection. Order
// matters: for ambiguous dates like 05/04/2024 the first layout that parses
// wins, so month-day-year variants come first.
var timeLayouts = []string{
	"01/02/2006 15:04:05.000",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 3:04:05 PM",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05.000Z07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006 15:04",
}

// autoLayout marks a cache that fell back to lenient parsing.
const autoLayout = "auto"

// FormatCache holds the single timestamp layout detected for one ingest.
// Detection runs once on the first row; every later row reuses the cached
// layout. One cache per concurrent ingest: the struct is not safe for shared
// mutation across files.
type FormatCache struct {
	layout string
}

func (c *FormatCache) Reset() {
	c.layout = ""
}

// Layout returns the cached layout, or "" before detection.
func (c *FormatCache) Layout() string {
	return c.layout
}

// Resolve parses one timestamp string into epoch milliseconds. The boolean is
// false when the string cannot be parsed; the caller drops that row.
func (c *FormatCache) Resolve(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if c.layout == autoLayout {
		return parseLenient(s)
	}
	if c.layout != "" {
		t, err := time.ParseInLocation(c.layout, s, time.Local)
		if err != nil {
			return 0, false
		}
		return t.UnixMilli(), true
	}

	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			c.layout = layout
			return t.UnixMilli(), true
		}
	}

	ms, ok := parseLenient(s)
	if ok {
		c.layout = autoLayout
	}
	return ms, ok
}

// parseLenient is the fallback for exports with non-standard stamps. It
// normalizes separators, retries the known layouts, and accepts bare epoch
// seconds or milliseconds.
func parseLenient(s string) (int64, bool) {
	norm := strings.TrimSpace(s)
	norm = strings.ReplaceAll(norm, ",", ".")
	norm = strings.Join(strings.Fields(strings.ReplaceAll(norm, "T", " ")), " ")

	candidates := []string{norm, strings.ReplaceAll(norm, "-", "/"), strings.ReplaceAll(norm, ".", "/")}
	for _, candidate := range candidates {
		for _, layout := range timeLayouts {
			t, err := time.ParseInLocation(strings.ReplaceAll(layout, "T", " "), candidate, time.Local)
			if err == nil {
				return t.UnixMilli(), true
			}
		}
	}

	if n, err := strconv.ParseInt(norm, 10, 64); err == nil && n > 0 {
		// Heuristic cutover between epoch seconds and milliseconds.
		if n < 1e12 {
			return n * 1000, true
		}
		return n, true
	}
	return 0, false
}
