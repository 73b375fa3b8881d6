package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"cinematch/internal/config"
	"cinematch/internal/similarity"
)

// ABCTitles is the three-movie catalog used across package tests.
var ABCTitles = []string{"A", "B", "C"}

// ABCMatrix ranks A as B then C, B as A then C, and C as A then B.
var ABCMatrix = [][]float64{
	{1.0, 0.9, 0.2},
	{0.9, 1.0, 0.3},
	{0.2, 0.3, 1.0},
}

// WriteArtifacts writes a movie list and similarity matrix to the model paths
// of cfg.
func WriteArtifacts(t testing.TB, cfg *config.Config, titles []string, matrix [][]float64) {
	t.Helper()
	WriteMovieList(t, cfg.Model.MoviesPath, titles)
	WriteMatrix(t, cfg.Model.SimilarityPath, matrix)
}

// WriteMovieList writes titles as a JSON movie list.
func WriteMovieList(t testing.TB, path string, titles []string) {
	t.Helper()

	movies := make([]similarity.Movie, len(titles))
	for i, title := range titles {
		movies[i] = similarity.Movie{Title: title, MovieID: int64(i + 1)}
	}
	var buf bytes.Buffer
	if err := similarity.WriteMovies(&buf, movies); err != nil {
		t.Fatalf("encode movies: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteMatrix writes a square matrix in the binary similarity format.
func WriteMatrix(t testing.TB, path string, matrix [][]float64) {
	t.Helper()

	n := len(matrix)
	flat := make([]float32, 0, n*n)
	for i, row := range matrix {
		if len(row) != n {
			t.Fatalf("matrix row %d has %d columns, want %d", i, len(row), n)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}
	var buf bytes.Buffer
	if err := similarity.WriteMatrix(&buf, n, flat); err != nil {
		t.Fatalf("encode matrix: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	writeBytes(t, path, bytes.Repeat([]byte{0x42}, int(size)))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
