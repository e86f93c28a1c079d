package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// FormatStatsDigest renders one dataset's KPIs as a channel message.
func FormatStatsDigest(name string, stats *Stats, skipped int) string {
	if stats == nil {
		return fmt.Sprintf("*%s*: no parseable events.", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Alarm digest — %s*\n", name)
	fmt.Fprintf(&b, "%d events (%d alarms, %d actions) across %d sessions; %d rows skipped\n",
		stats.TotalEvents, stats.TotalAlarms, stats.TotalActions, stats.TotalSessions, skipped)
	fmt.Fprintf(&b, "Alarm rate: %.2f per 10 min\n", stats.AvgAlarmRate)

	if stats.FloodPeriods > 0 {
		fmt.Fprintf(&b, ":rotating_light: %d flood period(s), %.1f%% of time in flood\n",
			stats.FloodPeriods, stats.PercentTimeInFlood)
	}

	if len(stats.ChatteringTags) > 0 {
		b.WriteString("Chattering tags:\n")
		for _, tc := range stats.ChatteringTags {
			fmt.Fprintf(&b, "  • %s ×%d\n", tc.Tag, tc.Count)
		}
	}

	if len(stats.TopPatterns) > 0 {
		b.WriteString("Common alarm→reaction patterns:\n")
		for _, pc := range stats.TopPatterns {
			fmt.Fprintf(&b, "  • %s ×%d\n", pc.Pattern, pc.Count)
		}
	}

	if len(stats.PriorityCounts) > 0 {
		fmt.Fprintf(&b, "Alarm priority: high=%d medium=%d low=%d\n",
			stats.PriorityCounts[PriorityHigh], stats.PriorityCounts[PriorityMedium], stats.PriorityCounts[PriorityLow])
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatLoopReport renders a diagnosis result for humans.
func FormatLoopReport(r LoopReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Loop diagnosis — %s*", r.Tag)
	if r.InputTag != r.Tag {
		fmt.Fprintf(&b, " (from %s)", r.InputTag)
	}
	b.WriteString("\n")

	if r.Status == ReportStatusNoData {
		b.WriteString(r.Summary)
		return b.String()
	}

	fmt.Fprintf(&b, "%s\n", r.Summary)
	fmt.Fprintf(&b, "Analyzed %d events, %d extracted change(s), at %s\n",
		r.EventsAnalyzed, len(r.Changes), r.AnalyzedAt.Format(time.RFC3339))
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "• *%s* (%s confidence)\n    %s\n    → %s\n",
			issue.Type, issue.Confidence, issue.Evidence, issue.Recommendation)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PostDigest sends one message to the configured report channel.
func PostDigest(cfg Config, api *slack.Client, text string) error {
	if !cfg.SlackConfigured() {
		return fmt.Errorf("slack not configured (slack_bot_token and report_channel_id required)")
	}
	_, _, err := api.PostMessage(cfg.ReportChannelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("slack post error channel=%s: %v", cfg.ReportChannelID, err)
	}
	return err
}
