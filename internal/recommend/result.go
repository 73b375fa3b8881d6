package recommend

import (
	"strconv"
	"strings"

	"cinematch/internal/tmdb"
)

// Placeholder values shown when metadata is missing.
const (
	Unknown            = "Unknown"
	NotAvailable       = "N/A"
	NoTagline          = "No tagline"
	NoDescription      = "No description available."
	NoData             = "No data found."
	CastNotAvailable   = "Cast not available"
	NoCastInfo         = "Cast info not available"
	MsgFetchFailed     = "Failed to fetch data from TMDb."
	msgNoResultsPrefix = "No TMDb results found for: "
)

// castLimit is how many billed cast names a result lists.
const castLimit = 3

// Fallback names which placeholder shape a result uses.
type Fallback string

const (
	// FallbackNone marks a fully enriched result.
	FallbackNone Fallback = ""
	// FallbackSearch keeps the candidate title; the search failed or found nothing.
	FallbackSearch Fallback = "search"
	// FallbackDetails replaces the title with "Unknown"; details or credits failed.
	FallbackDetails Fallback = "details"
)

// Result is one recommended movie. Every display field is always populated.
type Result struct {
	PosterURL   string   `json:"poster"`
	Title       string   `json:"title"`
	Year        string   `json:"year"`
	ReleaseDate string   `json:"release_date"`
	Rating      string   `json:"rating"`
	Overview    string   `json:"overview"`
	Cast        string   `json:"cast"`
	Genres      string   `json:"genres"`
	Tagline     string   `json:"tagline"`
	Rank        int      `json:"rank"`
	Score       float64  `json:"score"`
	TMDBID      int64    `json:"tmdb_id,omitempty"`
	Fallback    Fallback `json:"fallback,omitempty"`
	Warning     string   `json:"warning,omitempty"`
}

// NoResultsWarning is the warning attached when a search finds nothing.
func NoResultsWarning(title string) string {
	return msgNoResultsPrefix + title
}

func placeholder(poster, title string, fallback Fallback) Result {
	return Result{
		PosterURL:   poster,
		Title:       title,
		Year:        Unknown,
		ReleaseDate: Unknown,
		Rating:      NotAvailable,
		Overview:    NoData,
		Cast:        CastNotAvailable,
		Genres:      NotAvailable,
		Tagline:     NoTagline,
		Fallback:    fallback,
	}
}

func fromMetadata(details *tmdb.MovieDetails, credits *tmdb.Credits, poster func(string) string) Result {
	res := Result{
		PosterURL:   poster(details.PosterPath),
		Title:       orDefault(details.Title, Unknown),
		ReleaseDate: orDefault(details.ReleaseDate, Unknown),
		Year:        Unknown,
		Rating:      formatRating(details.VoteAverage),
		Overview:    orDefault(details.Overview, NoDescription),
		Tagline:     orDefault(details.Tagline, NoTagline),
		Genres:      NotAvailable,
		Cast:        NoCastInfo,
		TMDBID:      details.ID,
	}
	if date := strings.TrimSpace(details.ReleaseDate); len(date) >= 4 {
		res.Year = date[:4]
	}

	genres := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			genres = append(genres, name)
		}
	}
	if len(genres) > 0 {
		res.Genres = strings.Join(genres, ", ")
	}

	if credits != nil {
		cast := make([]string, 0, castLimit)
		for _, member := range credits.Cast {
			if len(cast) == castLimit {
				break
			}
			if name := strings.TrimSpace(member.Name); name != "" {
				cast = append(cast, name)
			}
		}
		if len(cast) > 0 {
			res.Cast = strings.Join(cast, ", ")
		}
	}
	return res
}

// formatRating renders a vote average with at least one decimal place
// (7 -> "7.0", 7.571 -> "7.571"), or "N/A" when TMDB omitted it.
func formatRating(vote *float64) string {
	if vote == nil {
		return NotAvailable
	}
	s := strconv.FormatFloat(*vote, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
