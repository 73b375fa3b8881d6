package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cinematch/internal/config"
	"cinematch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	tmdb       *testsupport.TMDBServer
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("SIMILARITY_MODEL_URL", "")
	t.Setenv("CINEMATCH_API_TOKEN", "")

	fake := testsupport.NewTMDBServer(t, testsupport.ABCTitles...)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithTMDBBaseURL(fake.URL)}, opts...)...)
	testsupport.WriteArtifacts(t, cfg, testsupport.ABCTitles, testsupport.ABCMatrix)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "cinematch.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, tmdb: fake, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
