package daemon_test

import (
	"context"
	"strings"
	"testing"

	"cinematch/internal/bootstrap"
	"cinematch/internal/daemon"
	"cinematch/internal/testsupport"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()

	fake := testsupport.NewTMDBServer(t, testsupport.ABCTitles...)
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBBaseURL(fake.URL))
	testsupport.WriteArtifacts(t, cfg, testsupport.ABCTitles, testsupport.ABCMatrix)

	rt, err := bootstrap.Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("bootstrap.Build: %v", err)
	}
	d, err := daemon.New(cfg, rt, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if !strings.HasPrefix(status.Address, "127.0.0.1:") {
		t.Fatalf("unexpected address %q", status.Address)
	}
	if status.Movies != 3 || status.Window != 10 {
		t.Fatalf("unexpected status %+v", status)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status()
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.Address != "" {
		t.Fatalf("expected no address after stop, got %q", status.Address)
	}
}

func TestDaemonRestartAfterStop(t *testing.T) {
	d := newDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon running after restart")
	}
}
