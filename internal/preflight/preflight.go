package preflight

import (
	"context"

	"cinematch/internal/artifact"
	"cinematch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckArtifact(artifact.Paths{Movies: cfg.Model.MoviesPath, Similarity: cfg.Model.SimilarityPath}, cfg.Model.SimilarityURL),
		CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey),
	}

	if cfg.MetadataCache.Enabled {
		results = append(results, CheckMetadataCache(ctx, cfg.MetadataCache.Path))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
