package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cinematch/internal/services"
)

const component = "tmdb"

// API defines the TMDB operations used for enrichment.
type API interface {
	SearchMovie(ctx context.Context, query string) (*SearchResponse, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)
	GetMovieCredits(ctx context.Context, movieID int64) (*Credits, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout for each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit caps outgoing requests at perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLanguage sets the language query parameter sent with every request.
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(language)
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie searches TMDB for the supplied title.
func (c *Client) SearchMovie(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, component, "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	var payload SearchResponse
	if err := c.get(ctx, "search", "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, component, "details", "movie id must be positive", nil)
	}
	var payload MovieDetails
	if err := c.get(ctx, "details", "/movie/"+strconv.FormatInt(movieID, 10), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieCredits fetches the cast list for a movie.
func (c *Client) GetMovieCredits(ctx context.Context, movieID int64) (*Credits, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, component, "credits", "movie id must be positive", nil)
	}
	var payload Credits
	if err := c.get(ctx, "credits", "/movie/"+strconv.FormatInt(movieID, 10)+"/credits", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, operation, "parse tmdb url", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			observeRequest(operation, "throttled", 0)
			return services.Wrap(classify(ctx, err), component, operation, "rate limiter", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrTransport, component, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		observeRequest(operation, "error", latency)
		return services.Wrap(classify(ctx, err), component, operation, fmt.Sprintf("execute request (latency=%v)", latency.Round(time.Millisecond)), redact(err))
	}
	defer resp.Body.Close()

	observeRequest(operation, strconv.Itoa(resp.StatusCode), latency)
	if resp.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, component, operation, "tmdb returned 404", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransport, component, operation, fmt.Sprintf("tmdb returned %d (latency=%v)", resp.StatusCode, latency.Round(time.Millisecond)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(classify(ctx, err), component, operation, "decode response", err)
	}
	return nil
}

// classify maps deadline expiry to ErrTimeout and everything else to ErrTransport.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.ErrTimeout
	}
	return services.ErrTransport
}

// redact strips the query string from *url.Error so the api key never reaches logs.
func redact(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if parsed, perr := url.Parse(urlErr.URL); perr == nil {
		parsed.RawQuery = ""
		return &url.Error{Op: urlErr.Op, URL: parsed.String(), Err: urlErr.Err}
	}
	return urlErr.Err
}

// PosterURL joins an image base URL with a TMDB poster path, returning
// placeholder when the path is empty.
func PosterURL(imageBase, posterPath, placeholder string) string {
	posterPath = strings.TrimSpace(posterPath)
	if posterPath == "" {
		return placeholder
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(posterPath, "/")
}
