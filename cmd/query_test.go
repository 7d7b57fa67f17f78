package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestQueryTextFromArg(t *testing.T) {
	queryFlags.queryFile = ""
	got, err := queryText([]string{"SecurityAlert | take 5"})
	if err != nil {
		t.Fatalf("queryText: %v", err)
	}
	if got != "SecurityAlert | take 5" {
		t.Errorf("queryText = %q", got)
	}
}

func TestQueryTextFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hunt.kql")
	if err := os.WriteFile(path, []byte("Heartbeat | count"), 0o644); err != nil {
		t.Fatal(err)
	}
	queryFlags.queryFile = path
	defer func() { queryFlags.queryFile = "" }()

	got, err := queryText(nil)
	if err != nil {
		t.Fatalf("queryText: %v", err)
	}
	if got != "Heartbeat | count" {
		t.Errorf("queryText = %q", got)
	}
}

func TestQueryTextMissing(t *testing.T) {
	queryFlags.queryFile = ""
	if _, err := queryText(nil); err == nil {
		t.Fatal("expected error when no query is given")
	}
	if _, err := queryText([]string{"   "}); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestParseTimeSpan(t *testing.T) {
	span, err := parseTimeSpan("2026-08-01", "2026-08-02T06:30:00Z")
	if err != nil {
		t.Fatalf("parseTimeSpan: %v", err)
	}
	wantStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !span.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", span.Start, wantStart)
	}
	wantEnd := time.Date(2026, 8, 2, 6, 30, 0, 0, time.UTC)
	if !span.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", span.End, wantEnd)
	}
}

func TestParseTimeSpanErrors(t *testing.T) {
	if _, err := parseTimeSpan("2026-08-01", ""); err == nil {
		t.Error("expected error when only one bound is given")
	}
	_, err := parseTimeSpan("yesterday", "2026-08-02")
	if err == nil || !strings.Contains(err.Error(), "--start") {
		t.Errorf("err = %v, want invalid --start error", err)
	}
}
