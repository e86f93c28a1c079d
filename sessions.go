package main

import (
	"sort"
	"time"
)

// BuildSessions groups time-ordered events into per-tag sessions. A session
// closes when the gap to the tag's next event exceeds maxGap. Sessions come
// back ordered by their first event.
func BuildSessions(events []CanonicalEvent, maxGap time.Duration) []Session {
	if len(events) == 0 {
		return nil
	}
	gapMs := maxGap.Milliseconds()

	open := make(map[string]int) // tag -> index into sessions
	var sessions []Session
	for _, e := range events {
		idx, ok := open[e.Tag]
		if ok {
			last := sessions[idx].Events[len(sessions[idx].Events)-1]
			if e.Timestamp-last.Timestamp > gapMs {
				ok = false
			}
		}
		if !ok {
			sessions = append(sessions, Session{Tag: e.Tag})
			idx = len(sessions) - 1
			open[e.Tag] = idx
		}
		s := &sessions[idx]
		s.Events = append(s.Events, e)
		if e.IsAlarm {
			s.Alarms++
		}
		if e.IsChange {
			s.Actions++
		}
	}

	for i := range sessions {
		ev := sessions[i].Events
		sessions[i].Duration = time.Duration(ev[len(ev)-1].Timestamp-ev[0].Timestamp) * time.Millisecond
	}
	sort.SliceStable(sessions, func(a, b int) bool {
		return sessions[a].Events[0].Timestamp < sessions[b].Events[0].Timestamp
	})
	return sessions
}
