package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// StartWatchScheduler runs a cron-based loop that scans the watch directory
// for new CSV exports, ingests each one, and posts a digest to the report
// channel. The schedule is a standard 5-field cron expression (minute hour
// day-of-month month day-of-week), e.g. "*/15 * * * *".
func StartWatchScheduler(cfg Config, api *slack.Client, extractor ChangeExtractor) error {
	schedule := strings.TrimSpace(cfg.WatchSchedule)
	if schedule == "" {
		return fmt.Errorf("watch_schedule not set")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid watch_schedule '%s': %w", schedule, err)
	}
	log.Printf("watch scheduled (cron: %s) dir=%s", schedule, cfg.WatchDir)

	seen := make(map[string]bool)
	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			log.Printf("next watch scan at %s (in %s)", next.Format("Mon Jan 2 15:04"), next.Sub(now).Round(time.Minute))
			time.Sleep(next.Sub(now))

			files, scanErr := scanWatchDir(cfg.WatchDir, seen)
			if scanErr != nil {
				log.Printf("watch scan error dir=%s: %v", cfg.WatchDir, scanErr)
				continue
			}
			for _, path := range files {
				processWatchedFile(cfg, api, extractor, path)
				seen[path] = true
			}
		}
	}()
	return nil
}

func scanWatchDir(dir string, seen map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !seen[path] {
			out = append(out, path)
		}
	}
	return out, nil
}

func processWatchedFile(cfg Config, api *slack.Client, extractor ChangeExtractor, path string) {
	log.Printf("watch ingest file=%s", path)
	result, err := RunPipeline(cfg, path)
	if err != nil {
		log.Printf("watch ingest error file=%s: %v", path, err)
		postErrIgnored(cfg, api, fmt.Sprintf("Failed to ingest %s: %v", filepath.Base(path), err))
		return
	}

	digest := FormatStatsDigest(result.Name, result.Stats, result.Skipped)
	if len(result.Notices) > 0 {
		digest += "\nNotices:\n  • " + strings.Join(result.Notices, "\n  • ")
	}
	postErrIgnored(cfg, api, digest)

	// Floods get a follow-up diagnosis of the worst chattering loop.
	if extractor != nil && result.Stats != nil && result.Stats.FloodPeriods > 0 && len(result.Stats.ChatteringTags) > 0 {
		diag := NewLoopDiagnostics(extractor)
		report := diag.AnalyzeLoopPerformance(context.Background(), result.Stats.ChatteringTags[0].Tag, result.Sessions)
		postErrIgnored(cfg, api, FormatLoopReport(report))
	}
}

func postErrIgnored(cfg Config, api *slack.Client, text string) {
	if err := PostDigest(cfg, api, text); err != nil {
		log.Printf("watch post error: %v", err)
	}
}
