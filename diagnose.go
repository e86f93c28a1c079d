package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"
)

// Correlation thresholds.
const (
	reactionWindow     = 15 * time.Minute // alarms after a change count as reactions inside this window
	constraintWindow   = 2 * time.Minute  // SP change to first alarm for a constraint violation
	ringingAlarmCount  = 3
	limitCycleMinAlarm = 10               // loop alarm count before periodicity is checked
	limitCycleMaxGap   = 20 * time.Minute // inter-arrival gaps above this are ignored
	limitCycleMinGaps  = 5
	gatherCap          = 50 // most recent events sent to extraction
)

// ChangeExtractor pulls structured setpoint/output/mode changes out of
// free-text log entries. Implementations may fail; the engine degrades to an
// empty change list instead of propagating the error.
type ChangeExtractor interface {
	ExtractChanges(ctx context.Context, baseTag string, logTexts []string) ([]ExtractedChange, error)
}

// LoopDiagnostics correlates extracted changes against subsequent alarm
// bursts for one control loop. Stateless across calls.
type LoopDiagnostics struct {
	extractor ChangeExtractor
}

func NewLoopDiagnostics(extractor ChangeExtractor) *LoopDiagnostics {
	return &LoopDiagnostics{extractor: extractor}
}

// ToolDescriptor declares a capability for discovery by an external
// orchestrator. Static metadata only.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

type ToolParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

func LoopDiagnosticsTool() ToolDescriptor {
	return ToolDescriptor{
		Name:        "analyze_loop_performance",
		Description: "Diagnose control-loop oscillation for one tag by correlating operator changes against subsequent alarm bursts.",
		Parameters: []ToolParameter{
			{Name: "tag", Type: "string", Description: "Loop or composite tag, e.g. LC5003 or LC5003 HI_ALM", Required: true},
		},
	}
}

// AnalyzeLoopPerformance runs one diagnosis: resolve the base tag, gather
// correlated events, extract structured changes, and run the deterministic
// correlation math. Never returns an error: extraction failures degrade to
// an empty change list, and a tag with no events yields a no_data report.
func (d *LoopDiagnostics) AnalyzeLoopPerformance(ctx context.Context, inputTag string, sessions []Session) LoopReport {
	baseTag := DeriveBaseTag(inputTag, sessions)
	report := LoopReport{
		Status:     ReportStatusOK,
		Tag:        baseTag,
		InputTag:   inputTag,
		AnalyzedAt: time.Now(),
		Issues:     []DiagnosisIssue{},
	}

	gathered := GatherLoopEvents(baseTag, sessions)
	report.EventsAnalyzed = len(gathered)
	if len(gathered) == 0 {
		report.Status = ReportStatusNoData
		report.Summary = fmt.Sprintf("No events found for loop %s.", baseTag)
		return report
	}

	texts := make([]string, 0, len(gathered))
	for _, e := range gathered {
		texts = append(texts, formatLoopEvent(e))
	}
	changes, err := d.extractor.ExtractChanges(ctx, baseTag, texts)
	if err != nil {
		log.Printf("diagnose extraction failed tag=%s err=%v — continuing with zero changes", baseTag, err)
		changes = nil
	}
	report.Changes = changes

	alarms := loopAlarms(baseTag, sessions)
	report.Issues = correlateChanges(changes, alarms)
	if issue, ok := detectLimitCycle(alarms); ok {
		report.Issues = append(report.Issues, issue)
	}

	if len(report.Issues) == 0 {
		report.Summary = fmt.Sprintf("Loop %s appears stable: no oscillation or tuning issues detected across %d events.", baseTag, len(gathered))
	} else {
		report.Summary = fmt.Sprintf("Loop %s shows %d potential issue(s); review tuning and recent operator changes.", baseTag, len(report.Issues))
	}
	return report
}

// DeriveBaseTag undoes the composite-tag disambiguation done during
// normalization: an event whose composite tag equals the input supplies its
// recorded base tag; otherwise everything before the first space is taken;
// otherwise the input is already a base tag.
func DeriveBaseTag(inputTag string, sessions []Session) string {
	for _, s := range sessions {
		for _, e := range s.Events {
			if e.Tag == inputTag && e.BaseTag != "" {
				return e.BaseTag
			}
		}
	}
	if idx := strings.Index(inputTag, " "); idx > 0 {
		return inputTag[:idx]
	}
	return inputTag
}

// GatherLoopEvents collects every event related to the base tag that is
// either a change/action or carries descriptive text, deduplicated by exact
// timestamp (first occurrence wins) and capped to the gatherCap most recent.
func GatherLoopEvents(baseTag string, sessions []Session) []CanonicalEvent {
	seen := make(map[int64]bool)
	var out []CanonicalEvent
	for _, s := range sessions {
		for _, e := range s.Events {
			if !matchesLoop(e, baseTag) {
				continue
			}
			if !e.IsChange && e.Descriptive == "" {
				continue
			}
			if seen[e.Timestamp] {
				continue
			}
			seen[e.Timestamp] = true
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp < out[b].Timestamp })
	if len(out) > gatherCap {
		out = out[len(out)-gatherCap:]
	}
	return out
}

func matchesLoop(e CanonicalEvent, baseTag string) bool {
	return e.Tag == baseTag || strings.HasPrefix(e.Tag, baseTag) || e.BaseTag == baseTag
}

func loopAlarms(baseTag string, sessions []Session) []CanonicalEvent {
	var alarms []CanonicalEvent
	for _, s := range sessions {
		for _, e := range s.Events {
			if e.IsAlarm && (strings.HasPrefix(e.Tag, baseTag) || e.BaseTag == baseTag) {
				alarms = append(alarms, e)
			}
		}
	}
	sort.SliceStable(alarms, func(a, b int) bool { return alarms[a].Timestamp < alarms[b].Timestamp })
	return alarms
}

// correlateChanges checks each extracted change for an alarm burst inside
// its reaction window. Three or more alarms make a ringing issue; a setpoint
// change answered by an alarm within two minutes adds a constraint
// violation.
func correlateChanges(changes []ExtractedChange, alarms []CanonicalEvent) []DiagnosisIssue {
	issues := []DiagnosisIssue{}
	windowMs := reactionWindow.Milliseconds()
	constraintMs := constraintWindow.Milliseconds()

	for _, change := range changes {
		var inWindow []CanonicalEvent
		for _, a := range alarms {
			if a.Timestamp >= change.Timestamp && a.Timestamp < change.Timestamp+windowMs {
				inWindow = append(inWindow, a)
			}
		}
		if len(inWindow) >= ringingAlarmCount {
			issues = append(issues, DiagnosisIssue{
				Type:       "Ringing / Aggressive Tuning",
				Confidence: "High",
				Evidence: fmt.Sprintf("%d alarms (%s) within %s of a %s change at %s",
					len(inWindow), strings.Join(distinctTags(inWindow), ", "),
					reactionWindow, change.Type, formatMillis(change.Timestamp)),
				Recommendation: "Reduce controller gain or increase filtering; the loop overreacts to moves.",
			})
		}
		if len(inWindow) >= 1 && change.Type == "SP" && inWindow[0].Timestamp-change.Timestamp <= constraintMs {
			issues = append(issues, DiagnosisIssue{
				Type:       "Constraint Violation",
				Confidence: "Medium",
				Evidence: fmt.Sprintf("alarm %s fired %s after the setpoint change at %s",
					inWindow[0].Tag,
					time.Duration(inWindow[0].Timestamp-change.Timestamp)*time.Millisecond,
					formatMillis(change.Timestamp)),
				Recommendation: "Setpoint was moved too close to an alarm limit; review the target or the limit.",
			})
		}
	}
	return issues
}

// detectLimitCycle looks for near-constant alarm periodicity: with more than
// limitCycleMinAlarm alarms on the loop, inter-arrival gaps under twenty
// minutes are collected and, given more than limitCycleMinGaps of them, a
// standard deviation under 20% of the mean reads as a limit cycle.
func detectLimitCycle(alarms []CanonicalEvent) (DiagnosisIssue, bool) {
	if len(alarms) <= limitCycleMinAlarm {
		return DiagnosisIssue{}, false
	}
	maxGapMs := limitCycleMaxGap.Milliseconds()
	var gaps []float64
	for i := 1; i < len(alarms); i++ {
		gap := alarms[i].Timestamp - alarms[i-1].Timestamp
		if gap < maxGapMs {
			gaps = append(gaps, float64(gap))
		}
	}
	if len(gaps) <= limitCycleMinGaps {
		return DiagnosisIssue{}, false
	}

	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	var variance float64
	for _, g := range gaps {
		variance += (g - mean) * (g - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(gaps)))

	if mean <= 0 || stdDev >= 0.2*mean {
		return DiagnosisIssue{}, false
	}
	period := time.Duration(mean) * time.Millisecond
	return DiagnosisIssue{
		Type:       "Limit Cycle Oscillation",
		Confidence: "High",
		Evidence: fmt.Sprintf("%d alarms recurring with a near-constant period of ~%s (stddev %.0f%% of mean)",
			len(alarms), period.Round(time.Second), stdDev/mean*100),
		Recommendation: "Periodic alarming suggests a persistent instability such as valve stiction; inspect the final element.",
	}, true
}

func distinctTags(events []CanonicalEvent) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range events {
		if !seen[e.Tag] {
			seen[e.Tag] = true
			out = append(out, e.Tag)
		}
	}
	return out
}

func formatLoopEvent(e CanonicalEvent) string {
	kind := "event"
	switch {
	case e.IsAlarm:
		kind = "alarm"
	case e.IsChange:
		kind = "change"
	}
	line := fmt.Sprintf("%s [%s] %s", formatMillis(e.Timestamp), kind, e.Tag)
	if e.Descriptive != "" {
		line += ": " + e.Descriptive
	}
	return line
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
