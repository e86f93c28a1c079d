package main

import "time"

// Priority buckets for alarm events.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// CanonicalEvent is one normalized log row. Timestamp is epoch milliseconds.
// Tag is BaseTag optionally suffixed with a disambiguating alarm state or
// action parameter ("LC5003 HI_ALM"); BaseTag is the bare loop identifier.
// Events are immutable after normalization.
type CanonicalEvent struct {
	Timestamp   int64
	BaseTag     string
	Tag         string
	Unit        string
	Priority    string
	IsAlarm     bool
	IsChange    bool
	Journal     string
	Descriptive string
	Raw         map[string]string // original row, kept for provenance
}

// Session is a group of consecutive events for one tag. Sessions are built
// once by BuildSessions and read-only afterwards.
type Session struct {
	Tag      string
	Events   []CanonicalEvent
	Duration time.Duration
	Alarms   int
	Actions  int
}

// ExtractedChange is one setpoint/output/mode change pulled out of free-text
// log entries by the extraction capability. NewVal keeps the raw value (MODE
// changes are strings like "MAN"); NewNum/OldNum are set when numeric.
type ExtractedChange struct {
	Timestamp int64
	Type      string // "SP", "OP" or "MODE"
	OldNum    *float64
	NewVal    string
	NewNum    *float64
}

// DiagnosisIssue is one finding of the loop diagnostics engine.
type DiagnosisIssue struct {
	Type           string
	Confidence     string // "High", "Medium" or "Low"
	Evidence       string
	Recommendation string
}

// Loop report statuses.
const (
	ReportStatusOK     = "ok"
	ReportStatusNoData = "no_data"
)

// LoopReport is the result of one diagnosis run. InputTag is the tag as the
// caller supplied it; Tag is the resolved base tag.
type LoopReport struct {
	Status         string
	Tag            string
	InputTag       string
	AnalyzedAt     time.Time
	EventsAnalyzed int
	Issues         []DiagnosisIssue
	Changes        []ExtractedChange
	Summary        string
}
