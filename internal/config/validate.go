package config

import (
	"errors"
	"fmt"
	"net/url"

	"cinematch/internal/services"
)

// Validate ensures the configuration is usable. Every failure wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	if err := c.validateModel(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	if err := c.validateRecommend(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cinematch/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'cinematch config init')", defaultPath)
	}
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url is invalid: %w", err)
	}
	if c.TMDB.RequestTimeout <= 0 {
		return errors.New("tmdb.request_timeout must be positive")
	}
	return nil
}

// validateModel checks the download URL shape. Whether a URL is needed at all
// depends on the similarity file being present, which the artifact package
// decides at load time.
func (c *Config) validateModel() error {
	if c.Model.SimilarityURL == "" {
		return nil
	}
	parsed, err := url.ParseRequestURI(c.Model.SimilarityURL)
	if err != nil {
		return fmt.Errorf("model.similarity_url is invalid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("model.similarity_url must use http or https, got %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.Window < 1 {
		return errors.New("recommend.window must be at least 1")
	}
	if c.Recommend.DefaultCount < 1 || c.Recommend.DefaultCount > c.Recommend.Window {
		return fmt.Errorf("recommend.default_count must be between 1 and %d", c.Recommend.Window)
	}
	if c.Recommend.Concurrency < 1 {
		return errors.New("recommend.concurrency must be at least 1")
	}
	return nil
}
