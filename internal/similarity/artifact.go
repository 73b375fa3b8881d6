package similarity

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const (
	matrixMagic   = "CMSM"
	matrixVersion = 1

	// HeaderSize is the length of the fixed matrix header: magic, version, dimension.
	HeaderSize = 12

	// maxMovies bounds the dimension accepted from a matrix header so a corrupt
	// file cannot request an absurd allocation.
	maxMovies = 1 << 16
)

// Movie is one entry of the persisted movie list.
type Movie struct {
	Title   string `json:"title"`
	MovieID int64  `json:"movie_id,omitempty"`
}

// UnmarshalJSON accepts either a bare title string or an object.
func (m *Movie) UnmarshalJSON(data []byte) error {
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		m.Title = title
		m.MovieID = 0
		return nil
	}
	type plain Movie
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("movie entry must be a string or an object with a title: %w", err)
	}
	*m = Movie(obj)
	return nil
}

// Load reads the movie list and similarity matrix from disk and builds a Store.
func Load(moviesPath, matrixPath string) (*Store, error) {
	movies, err := LoadMovies(moviesPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(matrixPath)
	if err != nil {
		return nil, fmt.Errorf("open similarity matrix: %w", err)
	}
	defer f.Close()

	n, stored, err := ReadMatrix(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read similarity matrix %s: %w", matrixPath, err)
	}
	flat := make([]float64, len(stored))
	for i, v := range stored {
		flat[i] = float64(v)
	}
	if n != len(movies) {
		return nil, fmt.Errorf("similarity matrix is %dx%d but %s lists %d movies", n, n, moviesPath, len(movies))
	}

	titles := make([]string, len(movies))
	var ids []int64
	for i, movie := range movies {
		titles[i] = movie.Title
		if movie.MovieID != 0 {
			if ids == nil {
				ids = make([]int64, len(movies))
			}
			ids[i] = movie.MovieID
		}
	}
	return newStore(titles, ids, n, flat)
}

// LoadMovies parses the JSON movie list at path.
func LoadMovies(path string) ([]Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read movie list: %w", err)
	}
	var movies []Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("parse movie list %s: %w", path, err)
	}
	for i, movie := range movies {
		if strings.TrimSpace(movie.Title) == "" {
			return nil, fmt.Errorf("movie list %s: entry %d has an empty title", path, i)
		}
	}
	return movies, nil
}

// WriteMovies encodes movies as a JSON array. Entries without an id are
// written as bare strings.
func WriteMovies(w io.Writer, movies []Movie) error {
	out := make([]any, len(movies))
	for i, movie := range movies {
		if movie.MovieID == 0 {
			out[i] = movie.Title
		} else {
			out[i] = movie
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ReadMatrix decodes a CMSM matrix and returns its dimension and row-major scores.
func ReadMatrix(r io.Reader) (int, []float32, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	n, err := ParseHeader(header)
	if err != nil {
		return 0, nil, err
	}

	scores := make([]float32, n*n)
	buf := make([]byte, 4*n)
	for row := 0; row < n; row++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, nil, fmt.Errorf("matrix truncated at row %d of %d", row, n)
			}
			return 0, nil, fmt.Errorf("read row %d: %w", row, err)
		}
		base := row * n
		for col := 0; col < n; col++ {
			scores[base+col] = math.Float32frombits(binary.LittleEndian.Uint32(buf[col*4:]))
		}
	}
	if _, err := r.Read(make([]byte, 1)); err == nil {
		return 0, nil, errors.New("trailing data after matrix")
	}
	return n, scores, nil
}

// ParseHeader validates a matrix header and returns the dimension it declares.
func ParseHeader(header []byte) (int, error) {
	if len(header) < HeaderSize {
		return 0, fmt.Errorf("matrix header is %d bytes, want %d", len(header), HeaderSize)
	}
	if string(header[:4]) != matrixMagic {
		return 0, fmt.Errorf("bad magic %q", header[:4])
	}
	if version := binary.LittleEndian.Uint32(header[4:8]); version != matrixVersion {
		return 0, fmt.Errorf("unsupported matrix version %d", version)
	}
	n := int(binary.LittleEndian.Uint32(header[8:12]))
	if n == 0 || n > maxMovies {
		return 0, fmt.Errorf("matrix dimension %d out of range", n)
	}
	return n, nil
}

// MatrixSize returns the encoded size in bytes of an n x n matrix.
func MatrixSize(n int) int64 {
	return HeaderSize + 4*int64(n)*int64(n)
}

// WriteMatrix encodes an n x n row-major matrix in the CMSM format.
func WriteMatrix(w io.Writer, n int, scores []float32) error {
	if n <= 0 || n > maxMovies {
		return fmt.Errorf("matrix dimension %d out of range", n)
	}
	if len(scores) != n*n {
		return fmt.Errorf("matrix has %d scores, want %d", len(scores), n*n)
	}
	header := make([]byte, HeaderSize)
	copy(header, matrixMagic)
	binary.LittleEndian.PutUint32(header[4:8], matrixVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(n))
	if _, err := w.Write(header); err != nil {
		return err
	}
	buf := make([]byte, 4*n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			binary.LittleEndian.PutUint32(buf[col*4:], math.Float32bits(scores[row*n+col]))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
