package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	if err := c.normalizeModel(); err != nil {
		return err
	}
	c.normalizeRecommend()
	if err := c.normalizeMetadataCache(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIRateLimit < 0 {
		c.Paths.APIRateLimit = 0
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("CINEMATCH_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	c.TMDB.PlaceholderURL = strings.TrimSpace(c.TMDB.PlaceholderURL)
	if c.TMDB.PlaceholderURL == "" {
		c.TMDB.PlaceholderURL = defaultPosterPlaceholderURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
	if c.TMDB.RequestsPerSecond < 0 {
		c.TMDB.RequestsPerSecond = 0
	}
	if c.TMDB.Burst <= 0 {
		c.TMDB.Burst = defaultTMDBBurst
	}
}

func (c *Config) normalizeModel() error {
	var err error
	if strings.TrimSpace(c.Model.MoviesPath) == "" {
		c.Model.MoviesPath = filepath.Join(c.Paths.DataDir, defaultMoviesFile)
	}
	if c.Model.MoviesPath, err = expandPath(c.Model.MoviesPath); err != nil {
		return fmt.Errorf("model.movies_path: %w", err)
	}
	if strings.TrimSpace(c.Model.SimilarityPath) == "" {
		c.Model.SimilarityPath = filepath.Join(c.Paths.DataDir, defaultSimilarityFile)
	}
	if c.Model.SimilarityPath, err = expandPath(c.Model.SimilarityPath); err != nil {
		return fmt.Errorf("model.similarity_path: %w", err)
	}
	c.Model.SimilarityURL = strings.TrimSpace(c.Model.SimilarityURL)
	if c.Model.SimilarityURL == "" {
		if value, ok := os.LookupEnv("SIMILARITY_MODEL_URL"); ok {
			c.Model.SimilarityURL = strings.TrimSpace(value)
		}
	}
	if c.Model.DownloadTimeout <= 0 {
		c.Model.DownloadTimeout = defaultDownloadTimeout
	}
	return nil
}

func (c *Config) normalizeRecommend() {
	if c.Recommend.Window <= 0 {
		c.Recommend.Window = defaultRecommendWindow
	}
	if c.Recommend.DefaultCount <= 0 {
		c.Recommend.DefaultCount = defaultRecommendCount
	}
	if c.Recommend.DefaultCount > c.Recommend.Window {
		c.Recommend.DefaultCount = c.Recommend.Window
	}
	if c.Recommend.Concurrency <= 0 {
		c.Recommend.Concurrency = defaultRecommendConcurrency
	}
}

func (c *Config) normalizeMetadataCache() error {
	var err error
	if strings.TrimSpace(c.MetadataCache.Path) == "" {
		c.MetadataCache.Path = filepath.Join(c.Paths.DataDir, defaultMetadataCacheFile)
	}
	if c.MetadataCache.Path, err = expandPath(c.MetadataCache.Path); err != nil {
		return fmt.Errorf("metadata_cache.path: %w", err)
	}
	if c.MetadataCache.TTLHours < 0 {
		c.MetadataCache.TTLHours = 0
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
