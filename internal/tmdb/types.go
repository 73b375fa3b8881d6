package tmdb

// SearchResult is a single TMDB movie search match.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the subset of the movie details payload used for enrichment.
// VoteAverage is nil when TMDB omits it.
type MovieDetails struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Overview    string   `json:"overview"`
	Tagline     string   `json:"tagline"`
	ReleaseDate string   `json:"release_date"`
	PosterPath  string   `json:"poster_path"`
	VoteAverage *float64 `json:"vote_average"`
	Runtime     int      `json:"runtime"`
	Genres      []Genre  `json:"genres"`
}

// CastMember is one billed cast entry.
type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// Credits models the movie credits payload. Cast is in billing order.
type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
}
