package api

import "cinematch/internal/recommend"

// RecommendResponse is the payload of GET /recommend.
type RecommendResponse struct {
	Movie           string             `json:"movie"`
	Count           int                `json:"count"`
	Recommendations []recommend.Result `json:"recommendations"`
}

// MoviesResponse is the payload of GET /api/movies.
type MoviesResponse struct {
	Query  string   `json:"query,omitempty"`
	Total  int      `json:"total"`
	Movies []string `json:"movies"`
}

// HealthResponse is the payload of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Movies  int    `json:"movies"`
	Circuit string `json:"circuit,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error       string   `json:"error"`
	Kind        string   `json:"kind"`
	Suggestions []string `json:"suggestions,omitempty"`
}
