package config

const (
	defaultDataDir              = "~/.local/share/cinematch"
	defaultLogDir               = "~/.local/share/cinematch/logs"
	defaultAPIBind              = "127.0.0.1:8757"
	defaultAPIRateLimit         = 120
	defaultTMDBLanguage         = "en-US"
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL     = "https://image.tmdb.org/t/p/w500"
	defaultPosterPlaceholderURL = "https://via.placeholder.com/200x300?text=No+Image"
	defaultTMDBRequestTimeout   = 10
	defaultTMDBRequestsPerSec   = 20.0
	defaultTMDBBurst            = 5
	defaultMoviesFile           = "movie_list.json"
	defaultSimilarityFile       = "similarity.bin"
	defaultDownloadTimeout      = 600
	defaultRecommendWindow      = 10
	defaultRecommendCount       = 5
	defaultRecommendConcurrency = 1
	defaultMetadataCacheFile    = "metadata.db"
	defaultMetadataCacheTTL     = 168
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
			APIRateLimit: defaultAPIRateLimit,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			ImageBaseURL:      defaultTMDBImageBaseURL,
			PlaceholderURL:    defaultPosterPlaceholderURL,
			Language:          defaultTMDBLanguage,
			RequestTimeout:    defaultTMDBRequestTimeout,
			RequestsPerSecond: defaultTMDBRequestsPerSec,
			Burst:             defaultTMDBBurst,
			CircuitBreaker:    true,
		},
		Model: Model{
			DownloadTimeout: defaultDownloadTimeout,
		},
		Recommend: Recommend{
			Window:       defaultRecommendWindow,
			DefaultCount: defaultRecommendCount,
			Concurrency:  defaultRecommendConcurrency,
		},
		MetadataCache: MetadataCache{
			Enabled:  true,
			TTLHours: defaultMetadataCacheTTL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
