package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"cinematch/internal/logging"
	"cinematch/internal/services"
)

const (
	suggestionLimit   = 5
	defaultMovieLimit = 50
	maxMovieLimit     = 1000
)

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	movie := strings.TrimSpace(query.Get("movie"))
	if movie == "" {
		s.writeError(w, r, http.StatusBadRequest, services.Kind(services.ErrValidation), "movie parameter is required", nil)
		return
	}

	k := s.opts.DefaultCount
	if raw := strings.TrimSpace(query.Get("k")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, services.Kind(services.ErrValidation), "k must be an integer", nil)
			return
		}
		k = parsed
	}

	results, err := s.engine.Recommend(r.Context(), movie, k)
	if err != nil {
		status := statusFor(err)
		var suggestions []string
		if errors.Is(err, services.ErrLookup) {
			suggestions = s.catalog.Suggest(movie, suggestionLimit)
		}
		if status >= http.StatusInternalServerError {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "recommend request failed", "recommend_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check TMDB connectivity and the model artifact"),
				logging.String(logging.FieldImpact, "client received no recommendations"),
			)
		}
		s.writeError(w, r, status, services.Kind(err), err.Error(), suggestions)
		return
	}
	s.writeJSON(w, http.StatusOK, RecommendResponse{
		Movie:           movie,
		Count:           len(results),
		Recommendations: results,
	})
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := defaultMovieLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, r, http.StatusBadRequest, services.Kind(services.ErrValidation), "limit must be a positive integer", nil)
			return
		}
		limit = min(parsed, maxMovieLimit)
	}
	q := strings.TrimSpace(query.Get("q"))
	movies := s.catalog.Search(q, limit)
	s.writeJSON(w, http.StatusOK, MoviesResponse{Query: q, Total: len(movies), Movies: movies})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "ok", Movies: s.catalog.Len()}
	if s.opts.Circuit != nil {
		resp.Circuit = s.opts.Circuit()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// statusFor maps an error marker to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrLookup):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, s.logger, status, payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, kind, message string, suggestions []string) {
	logging.WithContext(r.Context(), s.logger).Debug("request rejected",
		logging.Int("status", status),
		logging.String("kind", kind),
		logging.String("reason", message),
	)
	s.writeJSON(w, status, ErrorResponse{Error: message, Kind: kind, Suggestions: suggestions})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", logging.Error(err))
	}
}
