package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"cinematch/internal/artifact"
	"cinematch/internal/tmdbcache"
)

// CheckTMDB verifies that the TMDB API is reachable and the key is valid.
func CheckTMDB(ctx context.Context, baseURL, apiKey string) Result {
	const name = "TMDB API"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key (set TMDB_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	endpoint := base + "/configuration?" + url.Values{"api_key": {strings.TrimSpace(apiKey)}}.Encode()
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArtifact verifies the movie list and similarity matrix are installed
// and consistent. A missing matrix passes when a download URL is configured,
// since it is fetched on first use.
func CheckArtifact(paths artifact.Paths, downloadURL string) Result {
	const name = "Recommendation model"

	if _, err := os.Stat(paths.Similarity); errors.Is(err, fs.ErrNotExist) {
		if strings.TrimSpace(downloadURL) != "" {
			return Result{Name: name, Passed: true, Detail: "matrix not downloaded yet (fetched on first use)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s missing and no model.similarity_url configured", paths.Similarity)}
	}
	info, err := artifact.Describe(paths, false)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d movies (%d MiB matrix)", info.Movies, info.MatrixBytes>>20)}
}

// CheckMetadataCache verifies the SQLite metadata cache opens with the expected schema.
func CheckMetadataCache(ctx context.Context, path string) Result {
	const name = "Metadata cache"

	store, err := tmdbcache.Open(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, len(entries))}
}

// summarizeNetError produces a human-readable summary for connectivity failures.
func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (TMDB API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (TMDB API unreachable)"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Sprintf("request failed (%v)", urlErr.Err)
	}
	return err.Error()
}
