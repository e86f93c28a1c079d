package main

import (
	"testing"
	"time"
)

func evt(tag string, ts int64, alarm, change bool) CanonicalEvent {
	return CanonicalEvent{Timestamp: ts, Tag: tag, BaseTag: tag, IsAlarm: alarm, IsChange: change}
}

func TestBuildSessionsGapSplit(t *testing.T) {
	minute := time.Minute.Milliseconds()
	events := []CanonicalEvent{
		evt("LC1", 0, true, false),
		evt("LC1", 5*minute, false, true),
		evt("LC1", 10*minute, true, false),
		// 60 minute gap: new session.
		evt("LC1", 70*minute, true, false),
	}
	sessions := BuildSessions(events, 30*time.Minute)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	first := sessions[0]
	if len(first.Events) != 3 || first.Alarms != 2 || first.Actions != 1 {
		t.Fatalf("unexpected first session: events=%d alarms=%d actions=%d", len(first.Events), first.Alarms, first.Actions)
	}
	if first.Duration != 10*time.Minute {
		t.Fatalf("unexpected first session duration: %s", first.Duration)
	}
	if len(sessions[1].Events) != 1 || sessions[1].Duration != 0 {
		t.Fatalf("unexpected second session: %+v", sessions[1])
	}
}

func TestBuildSessionsPerTag(t *testing.T) {
	minute := time.Minute.Milliseconds()
	events := []CanonicalEvent{
		evt("LC1", 0, true, false),
		evt("FC2", minute, true, false),
		evt("LC1", 2*minute, true, false),
	}
	sessions := BuildSessions(events, 30*time.Minute)
	if len(sessions) != 2 {
		t.Fatalf("expected one session per tag, got %d", len(sessions))
	}
	if sessions[0].Tag != "LC1" || len(sessions[0].Events) != 2 {
		t.Fatalf("unexpected interleaved grouping: %+v", sessions[0])
	}
}

func TestBuildSessionsEmpty(t *testing.T) {
	if sessions := BuildSessions(nil, time.Minute); sessions != nil {
		t.Fatalf("expected nil sessions for empty input, got %v", sessions)
	}
}
