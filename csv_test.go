package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCSVCommaDelimited(t *testing.T) {
	data := "Time,Tag,Type\n01/15/2024 10:00:00,LC1,Process Alarm\n01/15/2024 10:01:00,FC2,Operator Action\n"
	table, err := ParseCSV(data, 100)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Headers) != 3 || table.Headers[0] != "Time" {
		t.Fatalf("unexpected headers: %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[1]["Tag"] != "FC2" {
		t.Fatalf("unexpected cell: %q", table.Rows[1]["Tag"])
	}
}

func TestParseCSVSemicolonSniffing(t *testing.T) {
	data := "Time;Tag;Type\n01/15/2024 10:00:00;LC1;Process Alarm\n"
	table, err := ParseCSV(data, 100)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Headers) != 3 {
		t.Fatalf("expected semicolon sniffing, headers=%v", table.Headers)
	}
	if table.Rows[0]["Type"] != "Process Alarm" {
		t.Fatalf("unexpected cell: %q", table.Rows[0]["Type"])
	}
}

func TestParseCSVTruncation(t *testing.T) {
	data := "Time,Tag,Type\nr1,a,b\nr2,c,d\nr3,e,f\n"
	table, err := ParseCSV(data, 2)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Rows) != 2 || !table.Truncated {
		t.Fatalf("expected truncation at 2 rows, got %d truncated=%v", len(table.Rows), table.Truncated)
	}
	if len(table.Notices) != 1 || !strings.Contains(table.Notices[0], "truncated") {
		t.Fatalf("expected truncation notice, got %v", table.Notices)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	if _, err := ParseCSV("", 10); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseCSVStripsBOM(t *testing.T) {
	data := "\ufeffTime,Tag,Type\nr1,a,b\n"
	table, err := ParseCSV(data, 10)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if table.Headers[0] != "Time" {
		t.Fatalf("expected BOM stripped from first header, got %q", table.Headers[0])
	}
}

func TestReadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "Time,Tag,Type\n01/15/2024 10:00:00,LC1,Process Alarm\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	table, err := ReadCSVFile(path, 100)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	if _, err := ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), 100); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
