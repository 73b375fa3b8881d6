package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/artifact"
)

func newModelCommand(ctx *commandContext) *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the movie list and similarity matrix",
	}
	modelCmd.AddCommand(newModelFetchCommand(ctx))
	modelCmd.AddCommand(newModelImportCommand(ctx))
	modelCmd.AddCommand(newModelInfoCommand(ctx))
	return modelCmd
}

func newModelFetchCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the similarity matrix from model.similarity_url",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dl := artifact.NewDownloader(
				artifact.WithTimeout(cfg.ModelDownloadTimeout()),
				artifact.WithLogger(logger),
			)
			out := cmd.OutOrStdout()
			if force {
				if err := dl.Fetch(cmd.Context(), cfg.Model.SimilarityURL, cfg.Model.SimilarityPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Downloaded similarity matrix to %s\n", cfg.Model.SimilarityPath)
				return nil
			}
			downloaded, err := dl.Ensure(cmd.Context(), cfg.Model.SimilarityURL, cfg.Model.SimilarityPath)
			if err != nil {
				return err
			}
			if downloaded {
				fmt.Fprintf(out, "Downloaded similarity matrix to %s\n", cfg.Model.SimilarityPath)
			} else {
				fmt.Fprintf(out, "Similarity matrix already present at %s (use --force to re-download)\n", cfg.Model.SimilarityPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing matrix")
	return cmd
}

func newModelImportCommand(ctx *commandContext) *cobra.Command {
	var moviesPath string
	var matrixPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate and copy local artifacts into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(moviesPath) == "" || strings.TrimSpace(matrixPath) == "" {
				return fmt.Errorf("both --movies and --matrix are required")
			}
			result, err := artifact.Import(cmd.Context(),
				artifact.Paths{Movies: moviesPath, Similarity: matrixPath},
				artifact.Paths{Movies: cfg.Model.MoviesPath, Similarity: cfg.Model.SimilarityPath},
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d movies\n", result.Movies)
			fmt.Fprintln(out, renderKeyValues([][2]string{
				{"Movie list", cfg.Model.MoviesPath},
				{"Movie list SHA-256", result.MoviesSHA256},
				{"Matrix", cfg.Model.SimilarityPath},
				{"Matrix SHA-256", result.MatrixSHA256},
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&moviesPath, "movies", "", "Source movie list (JSON)")
	cmd.Flags().StringVar(&matrixPath, "matrix", "", "Source similarity matrix (binary)")
	return cmd
}

func newModelInfoCommand(ctx *commandContext) *cobra.Command {
	var digest bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the installed model artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			info, err := artifact.Describe(artifact.Paths{Movies: cfg.Model.MoviesPath, Similarity: cfg.Model.SimilarityPath}, digest)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, info)
			}
			pairs := [][2]string{
				{"Movie list", info.MoviesPath},
				{"Similarity matrix", info.SimilarityPath},
				{"Movies", strconv.Itoa(info.Movies)},
				{"Matrix size", fmt.Sprintf("%d x %d (%s)", info.Dimension, info.Dimension, formatBytes(info.MatrixBytes))},
				{"Modified", info.ModifiedAt.Local().Format(time.DateTime)},
				{"Download URL", valueOr(cfg.Model.SimilarityURL, "(not set)")},
			}
			if digest {
				pairs = append(pairs, [2]string{"Matrix SHA-256", info.MatrixSHA256})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues(pairs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&digest, "digest", false, "Hash the matrix (reads the whole file)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
