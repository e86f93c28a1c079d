package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/slack-go/slack"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := LoadConfig()

	switch os.Args[1] {
	case "analyze":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		runAnalyze(cfg, os.Args[2])
	case "diagnose":
		if len(os.Args) < 4 {
			usage()
			os.Exit(2)
		}
		runDiagnose(cfg, os.Args[2], strings.Join(os.Args[3:], " "))
	case "watch":
		runWatch(cfg)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  alarmscope analyze <file.csv>           ingest one export and print its alarm digest
  alarmscope diagnose <file.csv> <tag>    ingest one export and diagnose one control loop
  alarmscope watch                        ingest new exports on the configured cron schedule`)
}

func runAnalyze(cfg Config, path string) {
	result, err := RunPipeline(cfg, path)
	if err != nil {
		log.Fatalf("analyze failed: %v", err)
	}
	for _, notice := range result.Notices {
		log.Printf("notice: %s", notice)
	}
	fmt.Println(FormatStatsDigest(result.Name, result.Stats, result.Skipped))
}

func runDiagnose(cfg Config, path, tag string) {
	extractor, err := NewLLMExtractor(cfg)
	if err != nil {
		log.Fatalf("diagnose needs an extraction provider: %v", err)
	}
	result, err := RunPipeline(cfg, path)
	if err != nil {
		log.Fatalf("diagnose failed: %v", err)
	}
	report := NewLoopDiagnostics(extractor).AnalyzeLoopPerformance(context.Background(), tag, result.Sessions)
	fmt.Println(FormatLoopReport(report))
}

func runWatch(cfg Config) {
	if !cfg.SlackConfigured() {
		log.Fatalf("watch mode requires slack_bot_token and report_channel_id")
	}
	api := slack.New(cfg.SlackBotToken)

	var extractor ChangeExtractor
	if x, err := NewLLMExtractor(cfg); err != nil {
		log.Printf("extraction disabled: %v", err)
	} else {
		extractor = x
	}

	if err := StartWatchScheduler(cfg, api, extractor); err != nil {
		log.Fatalf("watch scheduler error: %v", err)
	}
	log.Println("Starting alarmscope watch service...")
	select {}
}
