package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"cinematch/internal/config"
	"cinematch/internal/daemonrun"
)

func main() {
	if err := run(context.Background(), os.Getenv("CINEMATCH_CONFIG")); err != nil {
		log.Fatal(err)
	}
}

// run loads configuration from configPath (or the default locations when
// empty) and serves until SIGINT or SIGTERM.
func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return daemonrun.Run(ctx, cfg, daemonrun.Options{})
}
