package main

import (
	"sort"
	"strings"
	"time"
)

// Detection thresholds.
const (
	floodWindow     = 10 * time.Minute
	floodThreshold  = 10 // alarms per window before a flood period starts
	chatterWindow   = time.Minute
	patternMaxScan  = 5   // events scanned forward for the reacting action
	patternSessions = 200 // sessions sampled for pattern mining
)

// TagCount is one entry of a ranked tag list.
type TagCount struct {
	Tag   string
	Count int
}

// PatternCount is one ranked alarm-reaction pair.
type PatternCount struct {
	Pattern string
	Count   int
}

// Stats holds the aggregate KPIs for one normalized dataset.
type Stats struct {
	TotalEvents   int
	TotalAlarms   int
	TotalActions  int
	TotalSessions int

	AvgAlarmRate       float64 // alarms per 10-minute window
	FloodPeriods       int
	PercentTimeInFlood float64

	ChatteringTags []TagCount // top 5 by chatter count
	TopTags        []TagCount // top 10 by unique event id
	TopPatterns    []PatternCount
	StartingEvents []TagCount // top 10 session-opening alarms

	HourlyDistribution [24]int

	MeanSessionDuration time.Duration
	MeanSessionAlarms   float64
	MeanSessionActions  float64

	PriorityCounts map[string]int // alarms only
}

// CalculateStatistics computes all KPIs over one event stream and its
// sessions. Returns nil when there are no events. All degenerate inputs
// (zero duration, no sessions, no alarms) produce zeros, never NaN.
func CalculateStatistics(events []CanonicalEvent, sessions []Session) *Stats {
	if len(events) == 0 {
		return nil
	}

	stats := &Stats{
		TotalEvents:    len(events),
		TotalSessions:  len(sessions),
		PriorityCounts: make(map[string]int),
	}

	var alarms []CanonicalEvent
	for _, e := range events {
		if e.IsAlarm {
			alarms = append(alarms, e)
			stats.PriorityCounts[e.Priority]++
		}
		if e.IsChange {
			stats.TotalActions++
		}
		stats.HourlyDistribution[time.UnixMilli(e.Timestamp).Hour()]++
	}
	stats.TotalAlarms = len(alarms)

	spanMs := events[len(events)-1].Timestamp - events[0].Timestamp
	if hours := float64(spanMs) / float64(time.Hour.Milliseconds()); hours > 0 {
		stats.AvgAlarmRate = float64(len(alarms)) / (hours * 6)
	}

	stats.FloodPeriods, stats.PercentTimeInFlood = detectFloods(alarms, spanMs)
	stats.ChatteringTags = topCounts(detectChatter(alarms), 5)
	stats.TopTags = topCounts(tagFrequency(events), 10)
	stats.TopPatterns = minePatterns(sessions)
	stats.StartingEvents = startingEvents(sessions)

	if len(sessions) > 0 {
		var dur time.Duration
		var alarmSum, actionSum int
		for _, s := range sessions {
			dur += s.Duration
			alarmSum += s.Alarms
			actionSum += s.Actions
		}
		stats.MeanSessionDuration = dur / time.Duration(len(sessions))
		stats.MeanSessionAlarms = float64(alarmSum) / float64(len(sessions))
		stats.MeanSessionActions = float64(actionSum) / float64(len(sessions))
	}

	return stats
}

// detectFloods scans time-ordered alarms with a sliding 10-minute window.
// When more than floodThreshold alarms fall inside a window starting at an
// alarm, the elapsed span counts as flood time and the scan jumps to the
// window's last alarm so overlapping windows are not double-counted.
func detectFloods(alarms []CanonicalEvent, spanMs int64) (int, float64) {
	windowMs := floodWindow.Milliseconds()
	var floodMs int64
	periods := 0

	i := 0
	for i < len(alarms) {
		j := i
		for j < len(alarms) && alarms[j].Timestamp-alarms[i].Timestamp < windowMs {
			j++
		}
		if j-i > floodThreshold {
			floodMs += alarms[j-1].Timestamp - alarms[i].Timestamp
			periods++
			i = j - 1
		} else {
			i++
		}
	}

	if spanMs <= 0 {
		return periods, 0
	}
	return periods, float64(floodMs) / float64(spanMs) * 100
}

// detectChatter counts rapid re-arrivals per tag: two consecutive alarms with
// the same tag under a minute apart. The counter seeds at 1 on the first
// match, so a chattering tag always reports the number of involved alarms.
func detectChatter(alarms []CanonicalEvent) map[string]int {
	counts := make(map[string]int)
	windowMs := chatterWindow.Milliseconds()
	for i := 1; i < len(alarms); i++ {
		if alarms[i].Tag == alarms[i-1].Tag && alarms[i].Timestamp-alarms[i-1].Timestamp < windowMs {
			if _, ok := counts[alarms[i].Tag]; !ok {
				counts[alarms[i].Tag] = 1
			}
			counts[alarms[i].Tag]++
		}
	}
	return counts
}

// uniqueEventID prefixes the tag with its kind so identical tags of different
// kinds never collide in frequency tables.
func uniqueEventID(e CanonicalEvent) string {
	switch {
	case e.IsAlarm:
		return "[A] " + e.Tag
	case e.IsChange:
		return "[C] " + e.Tag
	default:
		return "[E] " + e.Tag
	}
}

// displayID swaps the unique-id prefix for a display glyph.
func displayID(id string) string {
	id = strings.Replace(id, "[A] ", "⚠ ", 1)
	id = strings.Replace(id, "[C] ", "✔ ", 1)
	id = strings.Replace(id, "[E] ", "", 1)
	return id
}

func tagFrequency(events []CanonicalEvent) map[string]int {
	counts := make(map[string]int)
	for _, e := range events {
		counts[uniqueEventID(e)]++
	}
	return counts
}

// minePatterns looks for the nearest operator reaction after each alarm: for
// every alarm in the first patternSessions sessions, the next patternMaxScan
// events are scanned for the first change/action, and the ordered pair is
// counted. When no alarm-to-action pair exists anywhere in the sample, a
// second pass counts adjacent alarm-to-alarm pairs instead.
func minePatterns(sessions []Session) []PatternCount {
	sample := sessions
	if len(sample) > patternSessions {
		sample = sample[:patternSessions]
	}

	counts := make(map[string]int)
	for _, s := range sample {
		for i, e := range s.Events {
			if !e.IsAlarm {
				continue
			}
			limit := i + 1 + patternMaxScan
			if limit > len(s.Events) {
				limit = len(s.Events)
			}
			for k := i + 1; k < limit; k++ {
				if s.Events[k].IsChange {
					counts[uniqueEventID(e)+" → "+uniqueEventID(s.Events[k])]++
					break
				}
			}
		}
	}

	if len(counts) == 0 {
		for _, s := range sample {
			for i := 1; i < len(s.Events); i++ {
				if s.Events[i-1].IsAlarm && s.Events[i].IsAlarm {
					counts[uniqueEventID(s.Events[i-1])+" → "+uniqueEventID(s.Events[i])]++
				}
			}
		}
	}

	ranked := topCounts(counts, 10)
	out := make([]PatternCount, 0, len(ranked))
	for _, tc := range ranked {
		out = append(out, PatternCount{Pattern: displayID(displayIDSecond(tc.Tag)), Count: tc.Count})
	}
	return out
}

// displayIDSecond applies the glyph substitution to the right-hand side of a
// pattern string; displayID only replaces the first prefix.
func displayIDSecond(pattern string) string {
	parts := strings.SplitN(pattern, " → ", 2)
	if len(parts) != 2 {
		return pattern
	}
	return parts[0] + " → " + displayID(parts[1])
}

// startingEvents counts which alarm opens sessions, top 10.
func startingEvents(sessions []Session) []TagCount {
	counts := make(map[string]int)
	for _, s := range sessions {
		if len(s.Events) == 0 || !s.Events[0].IsAlarm {
			continue
		}
		counts[uniqueEventID(s.Events[0])]++
	}
	ranked := topCounts(counts, 10)
	for i := range ranked {
		ranked[i].Tag = displayID(ranked[i].Tag)
	}
	return ranked
}

// topCounts ranks a count map descending, ties broken by key for
// deterministic output.
func topCounts(counts map[string]int, n int) []TagCount {
	out := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Tag < out[b].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
