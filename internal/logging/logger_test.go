package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFormats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "sheet", "Emerson")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json output not parseable: %v (%s)", err, buf.String())
	}
	if rec["sheet"] != "Emerson" {
		t.Fatalf("record = %v", rec)
	}

	buf.Reset()
	New(&buf, "warn", "text").Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %q", buf.String())
	}
}

func TestWithRunLogTees(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	base := New(&console, "info", "text")
	logger, closer, err := WithRunLog(base, dir)
	if err != nil {
		t.Fatalf("WithRunLog: %v", err)
	}
	logger.With("run_id", "r1").Info("sheet processed", "sheet", "Emerson")
	logger.Debug("detail only in file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(console.String(), "sheet processed") || strings.Contains(console.String(), "detail only") {
		t.Fatalf("console = %q", console.String())
	}
	f, err := os.Open(filepath.Join(dir, RunLogName))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("bad jsonl line %q: %v", sc.Text(), err)
		}
		lines = append(lines, rec)
	}
	if len(lines) != 2 {
		t.Fatalf("run log has %d lines", len(lines))
	}
	if lines[0]["run_id"] != "r1" || lines[0]["sheet"] != "Emerson" {
		t.Fatalf("first record = %v", lines[0])
	}
}
