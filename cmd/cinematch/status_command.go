package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/api"
	"cinematch/internal/config"
	"cinematch/internal/preflight"
)

const daemonProbeTimeout = 2 * time.Second

type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	ConfigExists bool               `json:"config_exists"`
	Daemon       daemonProbe        `json:"daemon"`
	Checks       []preflight.Result `json:"checks"`
}

type daemonProbe struct {
	Running bool   `json:"running"`
	Address string `json:"address"`
	Movies  int    `json:"movies,omitempty"`
	Circuit string `json:"circuit,omitempty"`
	Error   string `json:"error,omitempty"`
}

// probeDaemon asks a running daemon for its health. A daemon that is not
// running is reported, not treated as a failure.
func probeDaemon(ctx context.Context, cfg *config.Config) daemonProbe {
	probe := daemonProbe{Address: cfg.Paths.APIBind}
	client, err := api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken, daemonProbeTimeout)
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	health, err := client.Health(ctx)
	if err != nil {
		if !api.IsAPIUnavailable(err) {
			probe.Error = err.Error()
		}
		return probe
	}
	probe.Running = true
	probe.Movies = health.Movies
	probe.Circuit = health.Circuit
	return probe
}

func daemonLine(probe daemonProbe, colorize bool) string {
	switch {
	case probe.Running:
		detail := fmt.Sprintf("Running at %s (%d movies)", probe.Address, probe.Movies)
		if probe.Circuit != "" {
			detail += ", circuit " + probe.Circuit
		}
		return renderStatusLine("Daemon", statusOK, detail, colorize)
	case probe.Error != "":
		return renderStatusLine("Daemon", statusWarn, probe.Error, colorize)
	default:
		return renderStatusLine("Daemon", statusInfo, "Not running", colorize)
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, model artifacts and TMDB connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failed := preflight.Failed(results)
			probe := probeDaemon(cmd.Context(), cfg)

			if jsonOut {
				if err := writeJSON(cmd, statusReport{ConfigPath: ctx.configPath, ConfigExists: ctx.configExists, Daemon: probe, Checks: results}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := renderSectionHeader("Configuration", colorize)
				configNote := ctx.configPath
				if !ctx.configExists {
					configNote += " (not found, defaults in use)"
				}
				lines = append(lines,
					renderStatusLine("Config file", statusInfo, configNote, colorize),
					renderStatusLine("API bind", statusInfo, cfg.Paths.APIBind, colorize),
					renderStatusLine("API auth", statusInfo, yesNo(cfg.Paths.APIToken != ""), colorize),
					renderStatusLine("Recommendation window", statusInfo, strconv.Itoa(cfg.Recommend.Window), colorize),
					renderStatusLine("Circuit breaker", statusInfo, yesNo(cfg.TMDB.CircuitBreaker), colorize),
					daemonLine(probe, colorize),
					"",
				)
				lines = append(lines, renderSectionHeader("Checks", colorize)...)
				lines = append(lines, checkLines(results, colorize)...)
				fmt.Fprintln(out, strings.Join(lines, "\n"))
			}

			if len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}
