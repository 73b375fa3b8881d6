package recommend

import (
	"testing"

	"cinematch/internal/tmdb"
)

func TestFromMetadataDefaults(t *testing.T) {
	poster := func(path string) string {
		return tmdb.PosterURL("https://img", path, "placeholder")
	}
	res := fromMetadata(&tmdb.MovieDetails{ID: 5}, &tmdb.Credits{}, poster)
	want := Result{
		PosterURL:   "placeholder",
		Title:       Unknown,
		Year:        Unknown,
		ReleaseDate: Unknown,
		Rating:      NotAvailable,
		Overview:    NoDescription,
		Cast:        NoCastInfo,
		Genres:      NotAvailable,
		Tagline:     NoTagline,
		TMDBID:      5,
	}
	if res != want {
		t.Fatalf("unexpected defaults:\n got %+v\nwant %+v", res, want)
	}
}

func TestFormatRating(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "N/A"},
		{ptr(7), "7.0"},
		{ptr(7.571), "7.571"},
		{ptr(0), "0.0"},
	}
	for _, tt := range tests {
		if got := formatRating(tt.in); got != tt.want {
			t.Errorf("formatRating(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortReleaseDateHasUnknownYear(t *testing.T) {
	res := fromMetadata(&tmdb.MovieDetails{ReleaseDate: "19"}, nil, func(string) string { return "p" })
	if res.Year != Unknown || res.ReleaseDate != "19" {
		t.Fatalf("unexpected year/release %q/%q", res.Year, res.ReleaseDate)
	}
}

func ptr(v float64) *float64 { return &v }
