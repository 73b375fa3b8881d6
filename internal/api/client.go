package api

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

	"cinematch/internal/services"
)

// ErrAPIUnavailable reports that no daemon answered at the configured bind address.
var ErrAPIUnavailable = errors.New("cinematch API unavailable")

// RemoteError is a non-2xx answer from the daemon. It unwraps to the
// services marker named by the response kind.
type RemoteError struct {
	Status   int
	Response ErrorResponse
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("cinematch API returned %d: %s", e.Status, e.Response.Error)
}

func (e *RemoteError) Unwrap() error {
	switch e.Response.Kind {
	case "lookup":
		return services.ErrLookup
	case "not_found":
		return services.ErrNotFound
	case "validation":
		return services.ErrValidation
	case "timeout":
		return services.ErrTimeout
	case "configuration":
		return services.ErrConfiguration
	default:
		return services.ErrTransport
	}
}

// Client talks to a running cinematch daemon.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for the daemon bound at bind. An empty bind
// yields a nil client.
func NewClient(bind, token string, timeout time.Duration) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: timeout},
	}, nil
}

// Health fetches GET /api/health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.get(ctx, "/api/health", nil, &resp)
	return resp, err
}

// Recommend fetches GET /recommend for movie. A non-positive k uses the
// daemon's default count.
func (c *Client) Recommend(ctx context.Context, movie string, k int) (RecommendResponse, error) {
	values := url.Values{}
	values.Set("movie", movie)
	if k > 0 {
		values.Set("k", strconv.Itoa(k))
	}
	var resp RecommendResponse
	err := c.get(ctx, "/recommend", values, &resp)
	return resp, err
}

// Movies fetches GET /api/movies.
func (c *Client) Movies(ctx context.Context, query string, limit int) (MoviesResponse, error) {
	values := url.Values{}
	if strings.TrimSpace(query) != "" {
		values.Set("q", query)
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var resp MoviesResponse
	err := c.get(ctx, "/api/movies", values, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if IsAPIUnavailable(err) {
			return fmt.Errorf("%w: %w", ErrAPIUnavailable, err)
		}
		return services.Wrap(services.ErrTransport, "api-client", path, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		remote := &RemoteError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&remote.Response); err != nil || remote.Response.Error == "" {
			remote.Response.Error = http.StatusText(resp.StatusCode)
		}
		return remote
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransport, "api-client", path, "decode response", err)
	}
	return nil
}

// IsAPIUnavailable reports whether err means nothing is listening.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAPIUnavailable) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
