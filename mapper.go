package main

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical column names.
const (
	FieldTimestamp       = "timestamp"
	FieldTag             = "tag"
	FieldJournal         = "journal"
	FieldPriority        = "priority"
	FieldUnit            = "unit"
	FieldAlarmState      = "alarmState"
	FieldActionParameter = "actionParameter"
)

// requiredFields must all be mapped for a mapping to be usable.
var requiredFields = []string{FieldTimestamp, FieldTag, FieldJournal}

// ColumnMapping assigns one source header to each canonical column. Empty
// string means unmapped. Descriptive keeps source order.
type ColumnMapping struct {
	Timestamp       string
	Tag             string
	Journal         string
	Priority        string
	Unit            string
	AlarmState      string
	ActionParameter string
	Descriptive     []string
}

// ColumnAnalysis is the inferred shape of one source column.
type ColumnAnalysis struct {
	Header   string
	DataType string // "datetime", "number", "string" or "unknown"
	Samples  []string
}

// MappingValidation reports whether a mapping is usable and why not.
// Warnings are non-fatal.
type MappingValidation struct {
	IsValid         bool
	MissingRequired []string
	Warnings        []string
}

// ColumnReport is the full result of AnalyzeColumns.
type ColumnReport struct {
	Mapping    ColumnMapping
	Columns    []ColumnAnalysis
	Validation MappingValidation
}

const maxTypeSamples = 3

var dateLikeRe = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}([ T].*)?$`)

// AnalyzeColumns infers which header feeds each canonical column. Matching is
// first-match-wins in header order, field by field in priority order, so a
// header never lands in more than one bucket. Pure function of its inputs.
func AnalyzeColumns(headers []string, sampleRows []map[string]string, aliases AliasSet) ColumnReport {
	var report ColumnReport
	assigned := make(map[string]bool)

	for _, h := range headers {
		if strings.TrimSpace(h) == "" {
			continue
		}
		samples := collectSamples(h, sampleRows)
		report.Columns = append(report.Columns, ColumnAnalysis{
			Header:   h,
			DataType: classifyDataType(samples),
			Samples:  samples,
		})
	}

	pick := func(aliasList []string, substring bool) string {
		for _, h := range headers {
			if assigned[h] || strings.TrimSpace(h) == "" {
				continue
			}
			if matchesAlias(h, aliasList, substring) {
				assigned[h] = true
				return h
			}
		}
		return ""
	}

	// Field priority order: timestamp first, descriptive last.
	report.Mapping.Timestamp = pick(aliases.Timestamp, true)
	report.Mapping.Tag = pick(aliases.Tag, false)
	report.Mapping.Journal = pick(aliases.Journal, false)
	report.Mapping.Priority = pick(aliases.Priority, false)
	report.Mapping.Unit = pick(aliases.Unit, false)
	report.Mapping.AlarmState = pick(aliases.AlarmState, false)
	report.Mapping.ActionParameter = pick(aliases.ActionParameter, false)

	for _, h := range headers {
		if assigned[h] || strings.TrimSpace(h) == "" {
			continue
		}
		if matchesAlias(h, aliases.Descriptive, false) || containsAnyToken(h, descriptiveFragments) {
			assigned[h] = true
			report.Mapping.Descriptive = append(report.Mapping.Descriptive, h)
		}
	}

	report.Validation = validateMapping(report.Mapping)
	return report
}

func validateMapping(m ColumnMapping) MappingValidation {
	v := MappingValidation{IsValid: true}
	byField := map[string]string{
		FieldTimestamp: m.Timestamp,
		FieldTag:       m.Tag,
		FieldJournal:   m.Journal,
	}
	for _, field := range requiredFields {
		if byField[field] == "" {
			v.IsValid = false
			v.MissingRequired = append(v.MissingRequired, field)
		}
	}
	if m.Priority == "" {
		v.Warnings = append(v.Warnings, "no priority column: alarms default to low priority")
	}
	if m.Unit == "" {
		v.Warnings = append(v.Warnings, "no unit column: events default to Unknown unit")
	}
	if m.AlarmState == "" {
		v.Warnings = append(v.Warnings, "no alarm state column: alarms grouped by tag only")
	}
	return v
}

func matchesAlias(header string, aliases []string, substring bool) bool {
	h := normalizeToken(header)
	for _, alias := range aliases {
		a := normalizeToken(alias)
		if a == "" {
			continue
		}
		if h == a {
			return true
		}
		if substring && strings.Contains(h, a) {
			return true
		}
	}
	return false
}

func collectSamples(header string, rows []map[string]string) []string {
	var out []string
	for _, row := range rows {
		if len(out) >= maxTypeSamples {
			break
		}
		if v := strings.TrimSpace(row[header]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// classifyDataType probes up to three sample values: date-like regex or a
// layout parse makes datetime, numeric-parseable makes number, anything else
// string. No samples means unknown.
func classifyDataType(samples []string) string {
	if len(samples) == 0 {
		return "unknown"
	}
	sample := samples[0]
	if dateLikeRe.MatchString(sample) || parsesAsTime(sample) {
		return "datetime"
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(sample, ",", "."), 64); err == nil {
		return "number"
	}
	return "string"
}

// parsesAsTime probes the strict layouts only: the lenient fallback accepts
// bare epoch integers, which would misclassify plain number columns.
func parsesAsTime(s string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return true
		}
	}
	return false
}
