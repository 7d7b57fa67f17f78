package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/huntgrid/huntkit/internal/domaincheck"
)

func TestCollectTargetsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	content := "# investigation batch\nevil.example.com\n\nhttps://phish.example.net/login\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	domainFlags.targetsFile = path
	defer func() { domainFlags.targetsFile = "" }()

	targets, err := collectTargets([]string{"cli.example.org"})
	if err != nil {
		t.Fatalf("collectTargets: %v", err)
	}
	want := []string{"cli.example.org", "evil.example.com", "https://phish.example.net/login"}
	if len(targets) != len(want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("targets = %v, want %v", targets, want)
		}
	}
}

func TestCollectTargetsEmpty(t *testing.T) {
	domainFlags.targetsFile = ""
	if _, err := collectTargets(nil); err == nil {
		t.Fatal("expected error for no targets")
	}
}

type staticChecker struct {
	fail map[string]bool
}

func (staticChecker) Name() string { return "static" }

func (c staticChecker) Check(_ context.Context, target string) domaincheck.CheckResult {
	return domaincheck.CheckResult{
		Target:  target,
		Check:   "static",
		OK:      !c.fail[target],
		Summary: "checked",
	}
}

func newTestCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd
}

func TestRunBatchReportsFailures(t *testing.T) {
	domainFlags.jsonOut = false
	var buf bytes.Buffer
	cmd := newTestCommand(&buf)

	checker := staticChecker{fail: map[string]bool{"bad.example": true}}
	err := runBatch(cmd, []string{"good.example", "bad.example"}, checker)
	if err == nil {
		t.Fatal("expected error when a target fails")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v, want failure count", err)
	}
	out := buf.String()
	if !strings.Contains(out, "good.example") || !strings.Contains(out, "bad.example") {
		t.Errorf("output missing targets:\n%s", out)
	}
}

func TestRunBatchAllPass(t *testing.T) {
	domainFlags.jsonOut = false
	var buf bytes.Buffer
	cmd := newTestCommand(&buf)

	if err := runBatch(cmd, []string{"a.example", "b.example"}, staticChecker{}); err != nil {
		t.Fatalf("runBatch: %v", err)
	}
}

func TestRunBatchJSONOutput(t *testing.T) {
	domainFlags.jsonOut = true
	defer func() { domainFlags.jsonOut = false }()
	var buf bytes.Buffer
	cmd := newTestCommand(&buf)

	checker := staticChecker{fail: map[string]bool{"bad.example": true}}
	err := runBatch(cmd, []string{"bad.example"}, checker)
	if err != nil {
		t.Fatalf("runBatch with --json should not fail the command: %v", err)
	}
	if !strings.Contains(buf.String(), `"target": "bad.example"`) {
		t.Errorf("JSON output missing target:\n%s", buf.String())
	}
}
