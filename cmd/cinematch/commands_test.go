package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cinematch/internal/api"
	"cinematch/internal/bootstrap"
	"cinematch/internal/logging"
	"cinematch/internal/services"
	"cinematch/internal/similarity"
	"cinematch/internal/testsupport"
)

func TestMoviesListAndSearch(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"movies", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("movies list: %v", err)
	}
	requireContains(t, out, "3 of 3 titles")

	out, _, err = runCLI(t, []string{"movies", "search", "c", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("movies search: %v", err)
	}
	var resp api.MoviesResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if resp.Total != 1 || resp.Movies[0] != "C" {
		t.Fatalf("unexpected search response %+v", resp)
	}

	out, _, err = runCLI(t, []string{"movies", "search", "zzz"}, env.configPath)
	if err != nil {
		t.Fatalf("movies search: %v", err)
	}
	requireContains(t, out, `No titles match "zzz"`)
}

func TestModelImportAndInfo(t *testing.T) {
	env := setupCLITestEnv(t)

	src := t.TempDir()
	moviesPath := filepath.Join(src, "movies.json")
	matrixPath := filepath.Join(src, "matrix.bin")
	testsupport.WriteMovieList(t, moviesPath, []string{"X", "Y"})
	testsupport.WriteMatrix(t, matrixPath, [][]float64{{1, 0.5}, {0.5, 1}})

	out, _, err := runCLI(t, []string{"model", "import", "--movies", moviesPath, "--matrix", matrixPath}, env.configPath)
	if err != nil {
		t.Fatalf("model import: %v", err)
	}
	requireContains(t, out, "Imported 2 movies")

	out, _, err = runCLI(t, []string{"model", "info", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("model info: %v", err)
	}
	var info struct {
		Movies    int
		Dimension int
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if info.Movies != 2 || info.Dimension != 2 {
		t.Fatalf("unexpected info %+v", info)
	}

	imported, err := similarity.Load(env.cfg.Model.MoviesPath, env.cfg.Model.SimilarityPath)
	if err != nil {
		t.Fatalf("load imported model: %v", err)
	}
	if imported.Titles()[1] != "Y" {
		t.Fatalf("unexpected imported titles %v", imported.Titles())
	}
}

func TestModelImportRejectsMismatchedArtifacts(t *testing.T) {
	env := setupCLITestEnv(t)
	before, err := os.ReadFile(env.cfg.Model.SimilarityPath)
	if err != nil {
		t.Fatal(err)
	}

	src := t.TempDir()
	moviesPath := filepath.Join(src, "movies.json")
	matrixPath := filepath.Join(src, "matrix.bin")
	testsupport.WriteMovieList(t, moviesPath, []string{"X", "Y", "Z"})
	testsupport.WriteMatrix(t, matrixPath, [][]float64{{1, 0.5}, {0.5, 1}})

	if _, _, err := runCLI(t, []string{"model", "import", "--movies", moviesPath, "--matrix", matrixPath}, env.configPath); err == nil {
		t.Fatal("expected import to fail")
	}
	after, err := os.ReadFile(env.cfg.Model.SimilarityPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("installed matrix changed after failed import")
	}
}

func TestCacheListAndClear(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMetadataCache())

	out, _, err := runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Metadata cache is empty")

	if _, _, err := runCLI(t, []string{"recommend", "A", "-n", "2"}, env.configPath); err != nil {
		t.Fatalf("recommend: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "6 of 6 entries")
	requireContains(t, out, "search")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 6 cached lookups")
}

func TestCacheCommandsRequireEnabledCache(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"cache", "list"}, env.configPath); err == nil {
		t.Fatal("expected error when cache disabled")
	}
}

func TestStatusPassesWithHealthySetup(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "4/4 checks passed")
	requireContains(t, out, "TMDB API")
}

func TestStatusFailsWithoutModel(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.Remove(env.cfg.Model.SimilarityPath); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected status to report failure")
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !report.ConfigExists || len(report.Checks) != 4 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func startTestDaemon(t *testing.T, env *cliTestEnv, token string) {
	t.Helper()
	rt, err := bootstrap.Build(context.Background(), env.cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("bootstrap.Build: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	srv, err := api.New(rt.Engine, rt.Store, api.Options{Token: token, Circuit: rt.CircuitState})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)

	env.cfg.Paths.APIBind = httpSrv.Listener.Addr().String()
	env.cfg.Paths.APIToken = token
	writeTestConfig(t, env.configPath, env.cfg)
}

func TestStatusReportsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "Not running")

	startTestDaemon(t, env, "secret")
	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if !report.Daemon.Running || report.Daemon.Movies != 3 {
		t.Fatalf("expected running daemon, got %+v", report.Daemon)
	}
}

func TestRecommendRemote(t *testing.T) {
	env := setupCLITestEnv(t)
	startTestDaemon(t, env, "")

	out, _, err := runCLI(t, []string{"recommend", "A", "-n", "1", "--remote", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend --remote: %v", err)
	}
	var resp api.RecommendResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if resp.Count != 1 || resp.Recommendations[0].Title != "B" {
		t.Fatalf("unexpected response %+v", resp)
	}

	_, stderr, err := runCLI(t, []string{"recommend", "c", "--remote"}, env.configPath)
	if !errors.Is(err, services.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	requireContains(t, stderr, "  - C")
}
