package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"cinematch/internal/api"
	"cinematch/internal/recommend"
	"cinematch/internal/services"
)

func TestRecommendRendersTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recommend", "A", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	requireContains(t, out, "Movies similar to A")
	requireContains(t, out, "B Lead")
	requireContains(t, out, "About C")
	requireContains(t, out, "2001-02-03")
	if strings.Index(out, "About B") > strings.Index(out, "About C") {
		t.Fatalf("expected B ranked before C:\n%s", out)
	}
	if strings.Contains(out, "Warnings:") {
		t.Fatalf("expected no warnings:\n%s", out)
	}
}

func TestRecommendJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"recommend", "C", "--count", "1", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend --json: %v", err)
	}
	var resp api.RecommendResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if resp.Movie != "C" || resp.Count != 1 || resp.Recommendations[0].Title != "B" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Recommendations[0].Rating != "7.5" {
		t.Fatalf("unexpected rating %q", resp.Recommendations[0].Rating)
	}
}

func TestRecommendUnknownTitleSuggests(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"recommend", "b", "-n", "1"}, env.configPath)
	if !errors.Is(err, services.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	requireContains(t, stderr, "Did you mean:")
	requireContains(t, stderr, "  - B")
	if got := env.tmdb.Requests(); len(got) != 0 {
		t.Fatalf("expected no TMDB calls, got %v", got)
	}
}

func TestRecommendRejectsCountAboveCandidates(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"recommend", "A", "-n", "3"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecommendPrintsWarnings(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.FailPath("/search/movie", http.StatusServiceUnavailable)

	out, _, err := runCLI(t, []string{"recommend", "A", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	requireContains(t, out, "Warnings:")
	requireContains(t, out, "#1: "+recommend.MsgFetchFailed)
}
