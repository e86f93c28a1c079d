package main

import (
	"strings"
	"testing"
	"time"
)

func TestParseChangesResponseStripsFences(t *testing.T) {
	response := "```json\n[{\"timestamp\": 1712054400000, \"type\": \"sp\", \"old_val\": 50, \"new_val\": 55.5}]\n```"
	changes, err := parseChangesResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected one change, got %d", len(changes))
	}
	c := changes[0]
	if c.Timestamp != 1712054400000 {
		t.Fatalf("unexpected timestamp %d", c.Timestamp)
	}
	if c.Type != "SP" {
		t.Fatalf("expected type normalized to SP, got %q", c.Type)
	}
	if c.OldNum == nil || *c.OldNum != 50 {
		t.Fatalf("unexpected old value: %v", c.OldNum)
	}
	if c.NewNum == nil || *c.NewNum != 55.5 || c.NewVal != "55.5" {
		t.Fatalf("unexpected new value: %q / %v", c.NewVal, c.NewNum)
	}
}

func TestParseChangesResponseModeString(t *testing.T) {
	response := `[{"timestamp": 1712054400, "type": "MODE", "old_val": null, "new_val": "MAN"}]`
	changes, err := parseChangesResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := changes[0]
	if c.Timestamp != 1712054400000 {
		t.Fatalf("expected epoch seconds scaled to millis, got %d", c.Timestamp)
	}
	if c.NewVal != "MAN" || c.NewNum != nil {
		t.Fatalf("unexpected mode value: %q / %v", c.NewVal, c.NewNum)
	}
	if c.OldNum != nil {
		t.Fatalf("expected nil old value, got %v", c.OldNum)
	}
}

func TestParseChangesResponseTimestampString(t *testing.T) {
	response := `[{"timestamp": "2024-01-15 10:30:00", "type": "OP", "new_val": 42}]`
	changes, err := parseChangesResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local).UnixMilli()
	if changes[0].Timestamp != want {
		t.Fatalf("expected %d, got %d", want, changes[0].Timestamp)
	}
}

func TestParseChangesResponseDropsUnstampedRecords(t *testing.T) {
	response := `[{"type": "SP", "new_val": 1}, {"timestamp": 1712054400000, "type": "SP", "new_val": 2}]`
	changes, err := parseChangesResponse(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected record without timestamp dropped, got %d", len(changes))
	}
}

func TestParseChangesResponseEmptyArray(t *testing.T) {
	changes, err := parseChangesResponse("[]")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %v", changes)
	}
}

func TestParseChangesResponseMalformed(t *testing.T) {
	_, err := parseChangesResponse("the loop looks fine to me")
	if err == nil {
		t.Fatalf("expected parse error for prose response")
	}
	if !strings.Contains(err.Error(), "parsing extraction response") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewLLMExtractorRequiresKey(t *testing.T) {
	if _, err := NewLLMExtractor(Config{LLMProvider: "anthropic"}); err == nil {
		t.Fatalf("expected error without anthropic key")
	}
	if _, err := NewLLMExtractor(Config{LLMProvider: "openai"}); err == nil {
		t.Fatalf("expected error without openai key")
	}
	if _, err := NewLLMExtractor(Config{LLMProvider: "other"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := NewLLMExtractor(Config{LLMProvider: "anthropic", AnthropicAPIKey: "sk-test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
