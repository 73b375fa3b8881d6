package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"cinematch/internal/services"
	"cinematch/internal/textutil"
)

// ErrTitleNotFound reports a title that is not in the movie list. It wraps
// services.ErrLookup.
var ErrTitleNotFound = fmt.Errorf("%w: title not in movie list", services.ErrLookup)

// Ranked is one entry of a similarity row.
type Ranked struct {
	Index int
	Score float64
}

// Store is an immutable movie list plus its N x N similarity matrix.
type Store struct {
	titles []string
	ids    []int64
	byName map[string]int
	n      int
	scores []float64 // row-major, n*n
}

// New builds a Store from titles and a square matrix whose dimension matches
// len(titles). Inputs are copied and scores keep their float64 precision.
func New(titles []string, matrix [][]float64) (*Store, error) {
	n := len(titles)
	if len(matrix) != n {
		return nil, fmt.Errorf("similarity matrix has %d rows, movie list has %d titles", len(matrix), n)
	}
	flat := make([]float64, n*n)
	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("similarity matrix row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			flat[i*n+j] = v
		}
	}
	return newStore(titles, nil, n, flat)
}

func newStore(titles []string, ids []int64, n int, flat []float64) (*Store, error) {
	if n == 0 {
		return nil, errors.New("movie list is empty")
	}
	if len(titles) != n {
		return nil, fmt.Errorf("similarity matrix is %dx%d, movie list has %d titles", n, n, len(titles))
	}
	if len(flat) != n*n {
		return nil, fmt.Errorf("similarity matrix has %d scores, want %d", len(flat), n*n)
	}
	if ids != nil && len(ids) != n {
		return nil, fmt.Errorf("movie id list has %d entries, want %d", len(ids), n)
	}
	s := &Store{
		titles: append([]string(nil), titles...),
		byName: make(map[string]int, n),
		n:      n,
		scores: flat,
	}
	if ids != nil {
		s.ids = append([]int64(nil), ids...)
	}
	for i, title := range s.titles {
		if _, seen := s.byName[title]; !seen {
			s.byName[title] = i
		}
	}
	return s, nil
}

// Len returns the number of movies.
func (s *Store) Len() int { return s.n }

// Titles returns a copy of the movie list in index order.
func (s *Store) Titles() []string {
	return append([]string(nil), s.titles...)
}

// Title returns the title at index i.
func (s *Store) Title(i int) (string, bool) {
	if i < 0 || i >= s.n {
		return "", false
	}
	return s.titles[i], true
}

// MovieID returns the upstream movie identifier recorded in the movie list,
// or 0 when the list carried plain titles.
func (s *Store) MovieID(i int) int64 {
	if s.ids == nil || i < 0 || i >= s.n {
		return 0
	}
	return s.ids[i]
}

// Index returns the position of the first movie whose title matches exactly.
func (s *Store) Index(title string) (int, error) {
	if i, ok := s.byName[title]; ok {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrTitleNotFound, title)
}

// Rank returns all n (index, score) pairs of the title's row ordered by
// descending score. Equal scores keep ascending index order and NaN scores
// sort after every number.
func (s *Store) Rank(title string) ([]Ranked, error) {
	idx, err := s.Index(title)
	if err != nil {
		return nil, err
	}
	row := s.scores[idx*s.n : (idx+1)*s.n]
	ranked := make([]Ranked, s.n)
	for j, v := range row {
		ranked[j] = Ranked{Index: j, Score: v}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		x, y := ranked[a].Score, ranked[b].Score
		if math.IsNaN(x) {
			return false
		}
		if math.IsNaN(y) {
			return true
		}
		return x > y
	})
	return ranked, nil
}

// Search returns up to limit titles containing query under Unicode case
// folding, in index order. An empty query lists titles from the start. A
// non-positive limit means no limit.
func (s *Store) Search(query string, limit int) []string {
	folded := textutil.Fold(query)
	out := make([]string, 0, min(max(limit, 0), s.n))
	for _, title := range s.titles {
		if folded != "" && !strings.Contains(textutil.Fold(title), folded) {
			continue
		}
		out = append(out, title)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Suggest returns up to limit titles that resemble title, best match first.
func (s *Store) Suggest(title string, limit int) []string {
	return textutil.Suggest(title, s.titles, limit)
}
