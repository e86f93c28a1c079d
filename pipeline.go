package main

import (
	"fmt"
	"log"
	"path/filepath"
)

// PipelineResult is one file run end to end: mapping inference, timestamp
// detection, normalization, session building and statistics.
type PipelineResult struct {
	Name     string
	Report   ColumnReport
	Events   []CanonicalEvent
	Skipped  int
	Sessions []Session
	Stats    *Stats
	Notices  []string
}

// RunPipeline ingests one CSV export and computes everything downstream of
// it. Mapping problems come back as an error carrying the missing required
// fields; warnings and truncation ride along in Notices.
func RunPipeline(cfg Config, path string) (PipelineResult, error) {
	table, err := ReadCSVFile(path, cfg.MaxRows)
	if err != nil {
		return PipelineResult{}, err
	}

	result := PipelineResult{Name: filepath.Base(path), Notices: table.Notices}

	sampleRows := table.Rows
	if len(sampleRows) > maxTypeSamples {
		sampleRows = sampleRows[:maxTypeSamples]
	}
	result.Report = AnalyzeColumns(table.Headers, sampleRows, cfg.Aliases())
	if !result.Report.Validation.IsValid {
		return result, fmt.Errorf("unusable column mapping, missing required: %v", result.Report.Validation.MissingRequired)
	}
	result.Notices = append(result.Notices, result.Report.Validation.Warnings...)

	cache := &FormatCache{} // one cache per file: format is detected once per ingest
	norm := NormalizeRows(table.Rows, result.Report.Mapping, cache, DefaultClassificationRules(), func(frac float64, msg string) {
		log.Printf("ingest file=%s progress=%.0f%% %s", result.Name, frac*100, msg)
	})
	result.Events = norm.Events
	result.Skipped = norm.SkippedRows

	result.Sessions = BuildSessions(norm.Events, cfg.SessionGap())
	result.Stats = CalculateStatistics(norm.Events, result.Sessions)
	return result, nil
}
