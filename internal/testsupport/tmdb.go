package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cinematch/internal/tmdb"
)

// TMDBServer is an httptest server that answers the three TMDB endpoints used
// for enrichment. Every title listed in Movies is searchable; any other query
// returns zero results.
type TMDBServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	fail     map[string]int
}

// NewTMDBServer starts a fake TMDB API that knows the given titles. Movie ids
// follow the order of titles starting at 1.
func NewTMDBServer(t testing.TB, titles ...string) *TMDBServer {
	t.Helper()

	ids := make(map[string]int64, len(titles))
	byID := make(map[int64]string, len(titles))
	for i, title := range titles {
		ids[title] = int64(i + 1)
		byID[int64(i+1)] = title
	}

	srv := &TMDBServer{fail: make(map[string]int)}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		srv.requests = append(srv.requests, r.URL.Path)
		status := srv.fail[r.URL.Path]
		srv.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}

		switch {
		case r.URL.Path == "/search/movie":
			query := r.URL.Query().Get("query")
			resp := tmdb.SearchResponse{Page: 1}
			if id, ok := ids[query]; ok {
				resp.Results = []tmdb.SearchResult{{ID: id, Title: query}}
				resp.TotalResults = 1
			}
			writeJSON(w, resp)
		case r.URL.Path == "/configuration":
			writeJSON(w, map[string]any{})
		case strings.HasPrefix(r.URL.Path, "/movie/"):
			rest := strings.TrimPrefix(r.URL.Path, "/movie/")
			idPart, credits := strings.CutSuffix(rest, "/credits")
			id, err := strconv.ParseInt(idPart, 10, 64)
			title, ok := byID[id]
			if err != nil || !ok {
				http.NotFound(w, r)
				return
			}
			if credits {
				writeJSON(w, tmdb.Credits{ID: id, Cast: []tmdb.CastMember{
					{Name: title + " Lead"}, {Name: title + " Support"},
				}})
				return
			}
			vote := 7.5
			writeJSON(w, tmdb.MovieDetails{
				ID:          id,
				Title:       title,
				Overview:    "About " + title,
				Tagline:     title + " tagline",
				ReleaseDate: "2001-02-03",
				PosterPath:  "/" + strings.ToLower(title) + ".jpg",
				VoteAverage: &vote,
				Genres:      []tmdb.Genre{{ID: 18, Name: "Drama"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// FailPath makes every request for path answer with status.
func (s *TMDBServer) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = status
}

// Requests returns the request paths seen so far.
func (s *TMDBServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
