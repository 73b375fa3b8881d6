package artifact

import (
	"context"
	"fmt"
	"os"
	"time"

	"cinematch/internal/fileutil"
	"cinematch/internal/services"
	"cinematch/internal/similarity"
)

// Paths locates the two model files.
type Paths struct {
	Movies     string
	Similarity string
}

// ImportResult reports the digests of imported files.
type ImportResult struct {
	Movies       int
	MoviesSHA256 string
	MatrixSHA256 string
}

// Import validates the artifacts at src and copies them to dst with size and
// SHA-256 verification. Nothing is copied when validation fails.
func Import(ctx context.Context, src, dst Paths) (ImportResult, error) {
	store, err := similarity.Load(src.Movies, src.Similarity)
	if err != nil {
		return ImportResult{}, services.Wrap(services.ErrValidation, component, "import", "validate source artifacts", err)
	}

	// Matrix first: a movie list without its matrix is useless, the reverse is
	// caught by the dimension check on load.
	unlock, err := lock(ctx, dst.Similarity)
	if err != nil {
		return ImportResult{}, err
	}
	defer unlock()

	matrixDigest, err := fileutil.CopyFileVerified(src.Similarity, dst.Similarity)
	if err != nil {
		return ImportResult{}, services.Wrap(services.ErrTransport, component, "import", "copy similarity matrix", err)
	}
	moviesDigest, err := fileutil.CopyFileVerified(src.Movies, dst.Movies)
	if err != nil {
		return ImportResult{}, services.Wrap(services.ErrTransport, component, "import", "copy movie list", err)
	}
	return ImportResult{Movies: store.Len(), MoviesSHA256: moviesDigest, MatrixSHA256: matrixDigest}, nil
}

// Info describes the installed model.
type Info struct {
	MoviesPath     string
	SimilarityPath string
	Movies         int
	Dimension      int
	MatrixBytes    int64
	MatrixSHA256   string
	ModifiedAt     time.Time
}

// Describe inspects the installed artifacts without loading the full matrix.
// When withDigest is set the matrix is hashed, which reads the whole file.
func Describe(paths Paths, withDigest bool) (Info, error) {
	info := Info{MoviesPath: paths.Movies, SimilarityPath: paths.Similarity}

	movies, err := similarity.LoadMovies(paths.Movies)
	if err != nil {
		return info, services.Wrap(services.ErrConfiguration, component, "describe", "movie list", err)
	}
	info.Movies = len(movies)

	f, err := os.Open(paths.Similarity)
	if err != nil {
		return info, services.Wrap(services.ErrConfiguration, component, "describe", "similarity matrix", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return info, services.Wrap(services.ErrConfiguration, component, "describe", "stat similarity matrix", err)
	}
	info.MatrixBytes = stat.Size()
	info.ModifiedAt = stat.ModTime()

	header := make([]byte, similarity.HeaderSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		return info, services.Wrap(services.ErrValidation, component, "describe", "read matrix header", err)
	}
	if info.Dimension, err = similarity.ParseHeader(header); err != nil {
		return info, services.Wrap(services.ErrValidation, component, "describe", "parse matrix header", err)
	}
	if want := similarity.MatrixSize(info.Dimension); want != info.MatrixBytes {
		return info, services.Wrap(services.ErrValidation, component, "describe",
			fmt.Sprintf("matrix file is %d bytes, want %d", info.MatrixBytes, want), nil)
	}
	if info.Dimension != info.Movies {
		return info, services.Wrap(services.ErrValidation, component, "describe",
			fmt.Sprintf("matrix is %dx%d but movie list has %d entries", info.Dimension, info.Dimension, info.Movies), nil)
	}
	if withDigest {
		if info.MatrixSHA256, err = fileutil.FileDigest(paths.Similarity); err != nil {
			return info, services.Wrap(services.ErrTransport, component, "describe", "hash similarity matrix", err)
		}
	}
	return info, nil
}
