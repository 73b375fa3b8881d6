package preflight

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinematch/internal/artifact"
	"cinematch/internal/config"
	"cinematch/internal/similarity"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTMDB(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckTMDB(context.Background(), srv.URL, "good-key"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	result := CheckTMDB(context.Background(), srv.URL, "bad-key")
	if result.Passed || !strings.Contains(result.Detail, "invalid api key") {
		t.Fatalf("expected auth failure, got %+v", result)
	}
	if result := CheckTMDB(context.Background(), srv.URL, ""); result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckArtifact(t *testing.T) {
	dir := t.TempDir()
	paths := artifact.Paths{Movies: filepath.Join(dir, "movie_list.json"), Similarity: filepath.Join(dir, "similarity.bin")}

	if result := CheckArtifact(paths, ""); result.Passed {
		t.Fatal("expected failure when matrix missing without url")
	}
	if result := CheckArtifact(paths, "https://example.com/sim.bin"); !result.Passed {
		t.Fatalf("missing matrix with url should pass, got %s", result.Detail)
	}

	if err := os.WriteFile(paths.Movies, []byte(`["A","B"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	var matrix bytes.Buffer
	if err := similarity.WriteMatrix(&matrix, 2, []float32{1, 0, 0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.Similarity, matrix.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckArtifact(paths, "")
	if !result.Passed || !strings.Contains(result.Detail, "2 movies") {
		t.Fatalf("expected pass with movie count, got %+v", result)
	}
}

func TestRunAllIncludesCacheWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Model.MoviesPath = filepath.Join(cfg.Paths.DataDir, "movie_list.json")
	cfg.Model.SimilarityPath = filepath.Join(cfg.Paths.DataDir, "similarity.bin")
	cfg.TMDB.BaseURL = "http://127.0.0.1:1"
	cfg.MetadataCache.Enabled = true
	cfg.MetadataCache.Path = filepath.Join(cfg.Paths.DataDir, "metadata.db")

	results := RunAll(context.Background(), &cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	if len(results) != 5 || results[4].Name != "Metadata cache" || !results[4].Passed {
		t.Fatalf("unexpected results %v: %+v", names, results)
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected model and TMDB checks to fail, got %+v", failed)
	}
}
