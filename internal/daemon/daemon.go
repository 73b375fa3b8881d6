package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cinematch/internal/api"
	"cinematch/internal/bootstrap"
	"cinematch/internal/config"
	"cinematch/internal/logging"
)

// Daemon serves recommendations over HTTP and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	runtime *bootstrap.Runtime
	server  *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	Address      string `json:"address"`
	LockFilePath string `json:"lock_file"`
	Movies       int    `json:"movies"`
	Window       int    `json:"window"`
	Circuit      string `json:"circuit,omitempty"`
	CachePath    string `json:"cache_path,omitempty"`
}

// New constructs a daemon around an already built runtime.
func New(cfg *config.Config, rt *bootstrap.Runtime, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || rt == nil || rt.Engine == nil || rt.Store == nil {
		return nil, errors.New("daemon requires config and a built runtime")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	server, err := api.New(rt.Engine, rt.Store, api.Options{
		Bind:         cfg.Paths.APIBind,
		Token:        cfg.Paths.APIToken,
		DefaultCount: cfg.Recommend.DefaultCount,
		RateLimit:    cfg.Paths.APIRateLimit,
		Circuit:      rt.CircuitState,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api server: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "cinematchd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		runtime:  rt,
		server:   server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and starts the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cinematch daemon instance is already running")
	}

	serveCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(serveCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("cinematch daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()),
	)
	return nil
}

// Stop stops serving and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cinematch daemon stopped")
}

// Close stops the daemon and releases the runtime.
func (d *Daemon) Close() error {
	d.Stop()
	return d.runtime.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		Address:      d.server.Addr(),
		LockFilePath: d.lockPath,
		Movies:       d.runtime.Store.Len(),
		Window:       d.runtime.Engine.Window(),
		Circuit:      d.runtime.CircuitState(),
	}
	if d.runtime.Cache != nil {
		status.CachePath = d.runtime.Cache.Path()
	}
	return status
}
