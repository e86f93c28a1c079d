package main

import (
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// ProgressFunc receives fractional progress in [0,1] plus a short message.
// Callbacks fire synchronously at batch boundaries, in increasing order.
type ProgressFunc func(frac float64, msg string)

// NormalizeResult carries the canonical events plus per-file skip counters.
type NormalizeResult struct {
	Events      []CanonicalEvent
	SkippedRows int
}

// normalizeBatchSize sets how often progress fires and the scheduler yields.
// Tunable, not a correctness constraint.
const normalizeBatchSize = 2000

const unknownUnit = "Unknown"
const unknownTag = "UNKNOWN"

// NormalizeRows turns raw rows into canonical events using one column
// mapping and one timestamp cache per ingest. Rows with a blank or
// unparseable timestamp are dropped and counted. The scheduler yields
// between batches so a long ingest never starves the rest of the process.
func NormalizeRows(rows []map[string]string, mapping ColumnMapping, cache *FormatCache, rules ClassificationRules, progress ProgressFunc) NormalizeResult {
	var result NormalizeResult
	result.Events = make([]CanonicalEvent, 0, len(rows))

	for i, row := range rows {
		if i > 0 && i%normalizeBatchSize == 0 {
			if progress != nil {
				progress(float64(i)/float64(len(rows)), fmt.Sprintf("normalized %d/%d rows", i, len(rows)))
			}
			runtime.Gosched()
		}

		rawTS := strings.TrimSpace(row[mapping.Timestamp])
		if rawTS == "" {
			result.SkippedRows++
			continue
		}
		ts, ok := cache.Resolve(rawTS)
		if !ok {
			result.SkippedRows++
			continue
		}

		journal := strings.ToLower(strings.TrimSpace(row[mapping.Journal]))
		isAlarm := rules.IsAlarm(journal)
		isChange := rules.IsChange(journal)

		baseTag := strings.TrimSpace(row[mapping.Tag])
		if baseTag == "" {
			baseTag = unknownTag
		}

		tag := baseTag
		if isAlarm && mapping.AlarmState != "" {
			if state := strings.TrimSpace(row[mapping.AlarmState]); state != "" {
				tag = baseTag + " " + state
			}
		} else if isChange && mapping.ActionParameter != "" {
			if param := strings.TrimSpace(row[mapping.ActionParameter]); param != "" {
				tag = baseTag + " " + param
			}
		}

		unit := unknownUnit
		if mapping.Unit != "" {
			if u := strings.TrimSpace(row[mapping.Unit]); u != "" {
				unit = u
			}
		}

		priority := PriorityLow
		if mapping.Priority != "" {
			if p := strings.TrimSpace(row[mapping.Priority]); p != "" {
				priority = classifyPriority(p)
			}
		}

		result.Events = append(result.Events, CanonicalEvent{
			Timestamp:   ts,
			BaseTag:     baseTag,
			Tag:         tag,
			Unit:        unit,
			Priority:    priority,
			IsAlarm:     isAlarm,
			IsChange:    isChange,
			Journal:     journal,
			Descriptive: joinDescriptive(row, mapping.Descriptive),
			Raw:         row,
		})
	}

	if needsSort(result.Events) {
		sort.SliceStable(result.Events, func(a, b int) bool {
			return result.Events[a].Timestamp < result.Events[b].Timestamp
		})
	}

	if progress != nil {
		progress(1, fmt.Sprintf("normalized %d events, skipped %d rows", len(result.Events), result.SkippedRows))
	}
	return result
}

var firstIntRe = regexp.MustCompile(`\d+`)

// classifyPriority maps a raw priority cell to a bucket. Vendors encode
// priority as numbers buried in text ("Prio 250 - Critical"); the first
// integer substring decides, defaulting to 1000 when none is present.
func classifyPriority(raw string) string {
	n := 1000
	if m := firstIntRe.FindString(raw); m != "" {
		if parsed, err := strconv.Atoi(m); err == nil {
			n = parsed
		}
	}
	switch {
	case n <= 250:
		return PriorityHigh
	case n <= 750:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func joinDescriptive(row map[string]string, columns []string) string {
	var parts []string
	for _, col := range columns {
		if v := strings.TrimSpace(row[col]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

// needsSort samples up to 10 adjacent pairs at each end of the sequence; any
// local inversion triggers a full sort. A sequence passing both probes is
// treated as already ordered.
func needsSort(events []CanonicalEvent) bool {
	n := len(events)
	if n < 2 {
		return false
	}
	probe := 10
	if probe > n-1 {
		probe = n - 1
	}
	for i := 0; i < probe; i++ {
		if events[i].Timestamp > events[i+1].Timestamp {
			return true
		}
	}
	for i := n - 1 - probe; i < n-1; i++ {
		if events[i].Timestamp > events[i+1].Timestamp {
			return true
		}
	}
	return false
}
