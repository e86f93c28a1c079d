package main

import (
	"testing"
	"time"
)

func TestCalculateStatisticsEmpty(t *testing.T) {
	if stats := CalculateStatistics(nil, nil); stats != nil {
		t.Fatalf("expected nil stats for empty events, got %+v", stats)
	}
}

func TestChatteringCounterSeeding(t *testing.T) {
	events := []CanonicalEvent{
		evt("T1", 0, true, false),
		evt("T1", 30000, true, false),
	}
	stats := CalculateStatistics(events, nil)
	if stats == nil {
		t.Fatalf("expected stats")
	}
	if len(stats.ChatteringTags) != 1 {
		t.Fatalf("expected one chattering tag, got %v", stats.ChatteringTags)
	}
	// Two alarms 30s apart: counter seeds to 1 on the first match, then
	// increments, reporting the number of involved alarms.
	if stats.ChatteringTags[0].Tag != "T1" || stats.ChatteringTags[0].Count != 2 {
		t.Fatalf("unexpected chatter entry: %+v", stats.ChatteringTags[0])
	}
}

func TestChatteringIgnoresSlowRepeats(t *testing.T) {
	events := []CanonicalEvent{
		evt("T1", 0, true, false),
		evt("T1", 2*time.Minute.Milliseconds(), true, false),
	}
	stats := CalculateStatistics(events, nil)
	if len(stats.ChatteringTags) != 0 {
		t.Fatalf("expected no chattering for 2-minute spacing, got %v", stats.ChatteringTags)
	}
}

func TestFloodDetection(t *testing.T) {
	// 11 alarms inside 5 minutes: over the threshold of 10 per 10-minute
	// window.
	var events []CanonicalEvent
	for i := 0; i < 11; i++ {
		events = append(events, evt("LC1", int64(i)*30000, true, false))
	}
	stats := CalculateStatistics(events, nil)
	if stats.FloodPeriods < 1 {
		t.Fatalf("expected at least one flood period, got %d", stats.FloodPeriods)
	}
	if stats.PercentTimeInFlood <= 0 {
		t.Fatalf("expected positive flood time, got %f", stats.PercentTimeInFlood)
	}
}

func TestNoFloodBelowThreshold(t *testing.T) {
	var events []CanonicalEvent
	for i := 0; i < 10; i++ {
		events = append(events, evt("LC1", int64(i)*30000, true, false))
	}
	stats := CalculateStatistics(events, nil)
	if stats.FloodPeriods != 0 || stats.PercentTimeInFlood != 0 {
		t.Fatalf("expected no flood for 10 alarms, got periods=%d pct=%f", stats.FloodPeriods, stats.PercentTimeInFlood)
	}
}

func TestAvgAlarmRate(t *testing.T) {
	events := []CanonicalEvent{
		evt("LC1", 0, true, false),
		evt("LC2", time.Hour.Milliseconds(), true, false),
	}
	stats := CalculateStatistics(events, nil)
	// 2 alarms over 1 hour = 2 / 6 ten-minute windows.
	want := 2.0 / 6.0
	if diff := stats.AvgAlarmRate - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected rate %f, got %f", want, stats.AvgAlarmRate)
	}
}

func TestZeroDurationRate(t *testing.T) {
	events := []CanonicalEvent{evt("LC1", 1000, true, false)}
	stats := CalculateStatistics(events, nil)
	if stats.AvgAlarmRate != 0 {
		t.Fatalf("expected zero rate for zero duration, got %f", stats.AvgAlarmRate)
	}
}

func TestHourlyDistribution(t *testing.T) {
	ts := time.Date(2024, 5, 1, 13, 15, 0, 0, time.Local).UnixMilli()
	events := []CanonicalEvent{evt("LC1", ts, true, false)}
	stats := CalculateStatistics(events, nil)
	if stats.HourlyDistribution[13] != 1 {
		t.Fatalf("expected event in hour bucket 13, got %v", stats.HourlyDistribution)
	}
}

func TestTopTagsDisambiguateKinds(t *testing.T) {
	events := []CanonicalEvent{
		evt("T1", 0, true, false),
		evt("T1", 1000, false, true),
		evt("T1", 2000, false, false),
	}
	stats := CalculateStatistics(events, nil)
	if len(stats.TopTags) != 3 {
		t.Fatalf("expected alarm/change/other entries to stay distinct, got %v", stats.TopTags)
	}
}

func TestPatternMiningNearestAction(t *testing.T) {
	events := []CanonicalEvent{
		evt("LC1 HI_ALM", 0, true, false),
		evt("TI9", 1000, false, false),
		evt("LC1 SP", 2000, false, true),
		evt("LC1 OP", 3000, false, true),
	}
	sessions := []Session{{Tag: "LC1", Events: events}}
	stats := CalculateStatistics(events, sessions)
	if len(stats.TopPatterns) != 1 {
		t.Fatalf("expected exactly one pattern (nearest action only), got %v", stats.TopPatterns)
	}
	want := "⚠ LC1 HI_ALM → ✔ LC1 SP"
	if stats.TopPatterns[0].Pattern != want || stats.TopPatterns[0].Count != 1 {
		t.Fatalf("unexpected pattern: %+v", stats.TopPatterns[0])
	}
}

func TestPatternMiningFallbackAlarmPairs(t *testing.T) {
	events := []CanonicalEvent{
		evt("LC1 HI_ALM", 0, true, false),
		evt("LC1 HIHI_ALM", 1000, true, false),
	}
	sessions := []Session{{Tag: "LC1", Events: events}}
	stats := CalculateStatistics(events, sessions)
	if len(stats.TopPatterns) != 1 {
		t.Fatalf("expected alarm-pair fallback pattern, got %v", stats.TopPatterns)
	}
	want := "⚠ LC1 HI_ALM → ⚠ LC1 HIHI_ALM"
	if stats.TopPatterns[0].Pattern != want {
		t.Fatalf("unexpected fallback pattern: %q", stats.TopPatterns[0].Pattern)
	}
}

func TestStartingEvents(t *testing.T) {
	alarmFirst := []CanonicalEvent{evt("LC1 HI_ALM", 0, true, false), evt("LC1 SP", 1000, false, true)}
	actionFirst := []CanonicalEvent{evt("FC2 SP", 0, false, true), evt("FC2 HI", 1000, true, false)}
	sessions := []Session{
		{Tag: "LC1", Events: alarmFirst},
		{Tag: "FC2", Events: actionFirst},
	}
	stats := CalculateStatistics(append(alarmFirst, actionFirst...), sessions)
	if len(stats.StartingEvents) != 1 {
		t.Fatalf("expected only alarm-opened sessions counted, got %v", stats.StartingEvents)
	}
	if stats.StartingEvents[0].Tag != "⚠ LC1 HI_ALM" {
		t.Fatalf("unexpected starting event: %+v", stats.StartingEvents[0])
	}
}

func TestPriorityCountsAlarmsOnly(t *testing.T) {
	events := []CanonicalEvent{
		{Timestamp: 0, Tag: "LC1", IsAlarm: true, Priority: PriorityHigh},
		{Timestamp: 1000, Tag: "LC1", IsAlarm: true, Priority: PriorityLow},
		{Timestamp: 2000, Tag: "FC2", IsChange: true, Priority: PriorityHigh},
	}
	stats := CalculateStatistics(events, nil)
	if stats.PriorityCounts[PriorityHigh] != 1 || stats.PriorityCounts[PriorityLow] != 1 {
		t.Fatalf("unexpected priority counts: %v", stats.PriorityCounts)
	}
}

func TestSessionMeans(t *testing.T) {
	s1 := Session{Duration: 10 * time.Minute, Alarms: 4, Actions: 2, Events: []CanonicalEvent{evt("a", 0, true, false)}}
	s2 := Session{Duration: 20 * time.Minute, Alarms: 2, Actions: 0, Events: []CanonicalEvent{evt("b", 0, true, false)}}
	stats := CalculateStatistics([]CanonicalEvent{evt("a", 0, true, false)}, []Session{s1, s2})
	if stats.MeanSessionDuration != 15*time.Minute {
		t.Fatalf("unexpected mean duration: %s", stats.MeanSessionDuration)
	}
	if stats.MeanSessionAlarms != 3 || stats.MeanSessionActions != 1 {
		t.Fatalf("unexpected session means: alarms=%f actions=%f", stats.MeanSessionAlarms, stats.MeanSessionActions)
	}
}
