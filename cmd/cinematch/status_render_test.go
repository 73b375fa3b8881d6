package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"cinematch/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("TMDB API", statusError, "auth failed", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "TMDB API:", "[ERROR] auth failed")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Data directory", statusOK, "ok", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestCheckLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "Data directory", Passed: true, Detail: "/tmp (read/write ok)"},
		{Name: "TMDB API", Passed: false, Detail: "auth failed (invalid api key)"},
	}
	lines := checkLines(results, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] 1/2 checks passed") {
		t.Fatalf("expected failing summary first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "[OK] /tmp (read/write ok)") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[ERROR] auth failed") {
		t.Fatalf("unexpected third line %q", lines[2])
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		12:              "12 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
