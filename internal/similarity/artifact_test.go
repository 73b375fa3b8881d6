package similarity_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinematch/internal/similarity"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	var movies, matrix bytes.Buffer
	if err := similarity.WriteMovies(&movies, []similarity.Movie{{Title: "A"}, {Title: "B", MovieID: 7}, {Title: "C"}}); err != nil {
		t.Fatalf("WriteMovies: %v", err)
	}
	if err := similarity.WriteMatrix(&matrix, 3, []float32{1, 0.9, 0.2, 0.9, 1, 0.3, 0.2, 0.3, 1}); err != nil {
		t.Fatalf("WriteMatrix: %v", err)
	}
	moviesPath := filepath.Join(dir, "movie_list.json")
	matrixPath := filepath.Join(dir, "similarity.bin")
	if err := os.WriteFile(moviesPath, movies.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(matrixPath, matrix.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if matrix.Len() != 12+4*9 {
		t.Fatalf("unexpected matrix size %d", matrix.Len())
	}

	loaded, err := similarity.Load(moviesPath, matrixPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ranked, err := loaded.Rank("C")
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if ranked[0].Index != 2 || ranked[1].Index != 1 || ranked[2].Index != 0 {
		t.Fatalf("unexpected ranking after reload: %+v", ranked)
	}
	if ranked[1].Score != float64(float32(0.3)) {
		t.Fatalf("expected stored float32 score widened exactly, got %v", ranked[1].Score)
	}
	if loaded.MovieID(1) != 7 || loaded.MovieID(0) != 0 {
		t.Fatalf("unexpected movie ids %d %d", loaded.MovieID(0), loaded.MovieID(1))
	}
}

func TestLoadMoviesAcceptsStringsAndObjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie_list.json")
	data := `["Avatar", {"title": "Spectre", "movie_id": 206647}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	movies, err := similarity.LoadMovies(path)
	if err != nil {
		t.Fatalf("LoadMovies: %v", err)
	}
	if len(movies) != 2 || movies[0].Title != "Avatar" || movies[1].MovieID != 206647 {
		t.Fatalf("unexpected movies %+v", movies)
	}
}

func TestLoadMoviesRejectsEmptyTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie_list.json")
	if err := os.WriteFile(path, []byte(`["Avatar", {"movie_id": 1}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := similarity.LoadMovies(path); err == nil {
		t.Fatal("expected error for entry without title")
	}
}

func TestLoadRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	moviesPath := filepath.Join(dir, "movie_list.json")
	matrixPath := filepath.Join(dir, "similarity.bin")
	if err := os.WriteFile(moviesPath, []byte(`["A", "B"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	var matrix bytes.Buffer
	if err := similarity.WriteMatrix(&matrix, 3, make([]float32, 9)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(matrixPath, matrix.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := similarity.Load(moviesPath, matrixPath)
	if err == nil || !strings.Contains(err.Error(), "3x3") {
		t.Fatalf("expected dimension mismatch error, got %v", err)
	}
}

func TestReadMatrixRejectsCorruptInput(t *testing.T) {
	var good bytes.Buffer
	if err := similarity.WriteMatrix(&good, 2, []float32{1, 0.5, 0.5, 1}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", append([]byte("XXXX"), good.Bytes()[4:]...)},
		{"truncated", good.Bytes()[:good.Len()-2]},
		{"trailing", append(append([]byte(nil), good.Bytes()...), 0)},
		{"short header", []byte("CMSM")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := similarity.ReadMatrix(bytes.NewReader(tt.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	n, scores, err := similarity.ReadMatrix(bytes.NewReader(good.Bytes()))
	if err != nil || n != 2 || scores[1] != 0.5 {
		t.Fatalf("unexpected decode n=%d scores=%v err=%v", n, scores, err)
	}
}
