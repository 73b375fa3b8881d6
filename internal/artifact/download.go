package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"cinematch/internal/fileutil"
	"cinematch/internal/logging"
	"cinematch/internal/services"
	"cinematch/internal/similarity"
)

const (
	component        = "artifact"
	lockRetryDelay   = 250 * time.Millisecond
	defaultTimeout   = 10 * time.Minute
	progressInterval = 64 << 20
)

// Downloader fetches the similarity matrix from a remote URL.
type Downloader struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithTimeout bounds a whole download, including reading the body.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if timeout > 0 {
			d.client.Timeout = timeout
		}
	}
}

// WithLogger sets the logger used for download progress.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader constructs a Downloader.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{client: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, component)
	return d
}

// Ensure makes sure a matrix exists at path, downloading it from url when it
// does not. It reports whether a download happened. A missing file with no
// url is a configuration error.
func (d *Downloader) Ensure(ctx context.Context, url, path string) (bool, error) {
	if present, err := exists(path); err != nil {
		return false, services.Wrap(services.ErrConfiguration, component, "ensure", "stat similarity matrix", err)
	} else if present {
		return false, nil
	}
	if strings.TrimSpace(url) == "" {
		return false, services.Wrap(services.ErrConfiguration, component, "ensure",
			fmt.Sprintf("similarity matrix missing at %s and model.similarity_url is not set (set SIMILARITY_MODEL_URL or run 'cinematch model import')", path), nil)
	}

	unlock, err := lock(ctx, path)
	if err != nil {
		return false, err
	}
	defer unlock()

	// Another process may have finished the download while we waited.
	if present, err := exists(path); err == nil && present {
		d.logger.Info("similarity matrix downloaded by another process", logging.String("path", path))
		return false, nil
	}
	if err := d.fetch(ctx, url, path); err != nil {
		return false, err
	}
	return true, nil
}

// Fetch downloads the matrix from url to path, replacing any existing file.
func (d *Downloader) Fetch(ctx context.Context, url, path string) error {
	if strings.TrimSpace(url) == "" {
		return services.Wrap(services.ErrConfiguration, component, "fetch", "model.similarity_url is not set", nil)
	}
	unlock, err := lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()
	return d.fetch(ctx, url, path)
}

func (d *Downloader) fetch(ctx context.Context, url, path string) error {
	d.logger.Info("downloading similarity matrix", logging.String("url", redactURL(url)), logging.String("path", path))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, "fetch", "build request", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return services.Wrap(classify(err), component, "fetch", "download similarity matrix", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransport, component, "fetch", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var written int64
	err = fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		header := make([]byte, similarity.HeaderSize)
		if _, err := io.ReadFull(resp.Body, header); err != nil {
			return fmt.Errorf("read matrix header: %w", err)
		}
		n, err := similarity.ParseHeader(header)
		if err != nil {
			return fmt.Errorf("downloaded file is not a similarity matrix: %w", err)
		}
		want := similarity.MatrixSize(n)
		if resp.ContentLength > 0 && resp.ContentLength != want {
			return fmt.Errorf("content length %d does not match a %dx%d matrix (%d bytes)", resp.ContentLength, n, n, want)
		}
		if _, err := w.Write(header); err != nil {
			return err
		}
		progress := &progressWriter{logger: d.logger, total: want, written: int64(len(header))}
		copied, err := io.Copy(io.MultiWriter(w, progress), resp.Body)
		written = int64(len(header)) + copied
		if err != nil {
			return err
		}
		if written != want {
			return fmt.Errorf("downloaded %d bytes, want %d for a %dx%d matrix", written, want, n, n)
		}
		return nil
	})
	if err != nil {
		return services.Wrap(classify(err), component, "fetch", "write similarity matrix", err)
	}

	d.logger.Info("similarity matrix downloaded",
		logging.String("path", path),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func lock(ctx context.Context, path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "lock", "create data directory", err)
	}
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, services.Wrap(classify(err), component, "lock", "acquire download lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTimeout, component, "lock", "download lock not acquired", nil)
	}
	return func() { _ = fl.Unlock() }, nil
}

func exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir() && info.Size() > 0, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return services.ErrTimeout
	}
	return services.ErrTransport
}

// redactURL drops query strings, which often carry signed download tokens.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i] + "?..."
	}
	return raw
}

type progressWriter struct {
	logger   *slog.Logger
	total    int64
	written  int64
	reported int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.written-p.reported >= progressInterval {
		p.reported = p.written
		p.logger.Info("similarity matrix download progress",
			logging.Int64("bytes", p.written),
			logging.Int64("total", p.total),
			logging.Int("percent", int(p.written*100/max(p.total, 1))),
		)
	}
	return len(b), nil
}
