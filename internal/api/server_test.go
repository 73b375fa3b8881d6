package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cinematch/internal/api"
	"cinematch/internal/recommend"
	"cinematch/internal/similarity"
	"cinematch/internal/testsupport"
	"cinematch/internal/tmdb"
)

func newTestServer(t *testing.T, opts api.Options) (*api.Server, *testsupport.TMDBServer) {
	t.Helper()

	store, err := similarity.New(testsupport.ABCTitles, testsupport.ABCMatrix)
	if err != nil {
		t.Fatalf("similarity.New: %v", err)
	}
	fake := testsupport.NewTMDBServer(t, testsupport.ABCTitles...)
	client, err := tmdb.New("key", fake.URL)
	if err != nil {
		t.Fatalf("tmdb.New: %v", err)
	}
	engine, err := recommend.New(store, client, recommend.WithWindow(2))
	if err != nil {
		t.Fatalf("recommend.New: %v", err)
	}
	srv, err := api.New(engine, store, opts)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	return srv, fake
}

func do(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRecommendReturnsRankedResults(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{DefaultCount: 2})

	w := do(t, srv.Handler(), "/recommend?movie=A", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
	resp := decode[api.RecommendResponse](t, w)
	if resp.Movie != "A" || resp.Count != 2 {
		t.Fatalf("unexpected response header fields: %+v", resp)
	}
	if resp.Recommendations[0].Title != "B" || resp.Recommendations[1].Title != "C" {
		t.Fatalf("unexpected order: %q, %q", resp.Recommendations[0].Title, resp.Recommendations[1].Title)
	}
	if resp.Recommendations[0].PosterURL != "https://image.tmdb.org/t/p/w500/b.jpg" {
		t.Fatalf("unexpected poster url: %q", resp.Recommendations[0].PosterURL)
	}
}

func TestRecommendHonoursCountAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{DefaultCount: 2})

	w := do(t, srv.Handler(), "/api/recommend?movie=C&k=1", http.Header{"X-Request-Id": {"abc-123"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected client request id echoed, got %q", got)
	}
	resp := decode[api.RecommendResponse](t, w)
	if len(resp.Recommendations) != 1 || resp.Recommendations[0].Title != "B" {
		t.Fatalf("unexpected recommendations: %+v", resp.Recommendations)
	}
}

func TestRecommendUnknownTitleSuggests(t *testing.T) {
	srv, fake := newTestServer(t, api.Options{})

	w := do(t, srv.Handler(), "/recommend?movie=a", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	resp := decode[api.ErrorResponse](t, w)
	if resp.Kind != "lookup" {
		t.Fatalf("expected lookup kind, got %q", resp.Kind)
	}
	if len(resp.Suggestions) == 0 || resp.Suggestions[0] != "A" {
		t.Fatalf("expected A suggested first, got %v", resp.Suggestions)
	}
	if got := fake.Requests(); len(got) != 0 {
		t.Fatalf("expected no metadata calls, got %v", got)
	}
}

func TestRecommendValidation(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{})

	for _, target := range []string{"/recommend", "/recommend?movie=A&k=x", "/recommend?movie=A&k=0", "/recommend?movie=A&k=3"} {
		w := do(t, srv.Handler(), target, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, w.Code)
		}
		if resp := decode[api.ErrorResponse](t, w); resp.Kind != "validation" {
			t.Fatalf("%s: expected validation kind, got %q", target, resp.Kind)
		}
	}
}

func TestRecommendDegradesWhenTMDBFails(t *testing.T) {
	srv, fake := newTestServer(t, api.Options{DefaultCount: 1})
	fake.FailPath("/search/movie", http.StatusInternalServerError)

	w := do(t, srv.Handler(), "/recommend?movie=A", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with fallbacks, got %d", w.Code)
	}
	resp := decode[api.RecommendResponse](t, w)
	got := resp.Recommendations[0]
	if got.Title != "B" || got.Fallback != recommend.FallbackSearch || got.Warning != recommend.MsgFetchFailed {
		t.Fatalf("unexpected fallback result: %+v", got)
	}
}

func TestMoviesAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{Circuit: func() string { return "closed" }})

	w := do(t, srv.Handler(), "/api/movies?q=b", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	movies := decode[api.MoviesResponse](t, w)
	if movies.Total != 1 || movies.Movies[0] != "B" {
		t.Fatalf("unexpected movies response: %+v", movies)
	}

	if w := do(t, srv.Handler(), "/api/movies?limit=0", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero limit, got %d", w.Code)
	}

	w = do(t, srv.Handler(), "/api/health", nil)
	health := decode[api.HealthResponse](t, w)
	if health.Status != "ok" || health.Movies != 3 || health.Circuit != "closed" {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestBearerAuth(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{Token: "secret"})

	if w := do(t, srv.Handler(), "/api/health", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := do(t, srv.Handler(), "/api/health", http.Header{"Authorization": {"Bearer wrong"}}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := do(t, srv.Handler(), "/api/health", http.Header{"Authorization": {"Bearer secret"}}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if w := do(t, srv.Handler(), "/metrics", nil); w.Code != http.StatusOK {
		t.Fatalf("expected metrics without auth, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{RateLimit: 1})

	if w := do(t, srv.Handler(), "/api/health", nil); w.Code != http.StatusOK {
		t.Fatalf("expected first request allowed, got %d", w.Code)
	}
	w := do(t, srv.Handler(), "/api/health", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if resp := decode[api.ErrorResponse](t, w); resp.Kind != "rate_limited" {
		t.Fatalf("unexpected kind %q", resp.Kind)
	}
}

func TestMetricsExposeRequestCounter(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{})
	do(t, srv.Handler(), "/api/health", nil)

	w := do(t, srv.Handler(), "/metrics", nil)
	if !strings.Contains(w.Body.String(), "cinematch_http_requests_total") {
		t.Fatal("expected http request counter in metrics output")
	}
}

func TestStartServesUntilCancelled(t *testing.T) {
	srv, _ := newTestServer(t, api.Options{Bind: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := srv.Addr()
	if addr == "" {
		t.Fatal("expected bound address")
	}

	resp, err := http.Get("http://" + addr + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Fatalf("unexpected health answer %d %s", resp.StatusCode, body)
	}

	cancel()
	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() != "" {
		if time.Now().After(deadline) {
			t.Fatal("server did not stop after cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
