package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/api"
	"cinematch/internal/bootstrap"
	"cinematch/internal/recommend"
	"cinematch/internal/services"
	"cinematch/internal/textutil"
)

const (
	overviewDisplayLimit = 500
	suggestionLimit      = 5
	remoteTimeout        = time.Minute
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var count int
	var jsonOut bool
	var remote bool

	cmd := &cobra.Command{
		Use:   "recommend <title>",
		Short: "Recommend movies similar to a title",
		Long: "Rank the catalog against an exact movie title and enrich the top matches\n" +
			"with TMDB metadata. Multi-word titles may be passed unquoted.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = cfg.Recommend.DefaultCount
			}

			if remote {
				client, err := api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken, remoteTimeout)
				if err != nil {
					return err
				}
				resp, err := client.Recommend(cmd.Context(), title, count)
				if err != nil {
					var remoteErr *api.RemoteError
					if errors.As(err, &remoteErr) {
						printList(cmd.ErrOrStderr(), "Did you mean:", remoteErr.Response.Suggestions)
					}
					return err
				}
				return printRecommendations(cmd, jsonOut, title, resp.Recommendations)
			}

			return ctx.withRuntime(cmd.Context(), func(rt *bootstrap.Runtime) error {
				results, err := rt.Engine.Recommend(cmd.Context(), title, count)
				if err != nil {
					if errors.Is(err, services.ErrLookup) {
						printList(cmd.ErrOrStderr(), "Did you mean:", rt.Store.Suggest(title, suggestionLimit))
					}
					return err
				}
				return printRecommendations(cmd, jsonOut, title, results)
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of recommendations (1 to recommend.window)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the running daemon at paths.api_bind instead of loading the model locally")
	return cmd
}

func printRecommendations(cmd *cobra.Command, jsonOut bool, title string, results []recommend.Result) error {
	if jsonOut {
		return writeJSON(cmd, api.RecommendResponse{Movie: title, Count: len(results), Recommendations: results})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Movies similar to %s\n", title)
	fmt.Fprintln(out, renderRecommendations(results))
	printList(out, "Warnings:", collectWarnings(results))
	return nil
}

func renderRecommendations(results []recommend.Result) string {
	columns := []column{
		{header: "#", align: alignRight},
		{header: "Title", maxWidth: 28},
		{header: "Year"},
		{header: "Released"},
		{header: "Rating", align: alignRight},
		{header: "Genres", maxWidth: 20},
		{header: "Cast", maxWidth: 28},
		{header: "Overview", maxWidth: 60},
	}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		overview := textutil.Truncate(res.Overview, overviewDisplayLimit)
		if res.Tagline != "" && res.Tagline != recommend.NoTagline && res.Tagline != recommend.NoData {
			overview = res.Tagline + "\n" + overview
		}
		rows = append(rows, []string{
			strconv.Itoa(res.Rank),
			res.Title,
			res.Year,
			res.ReleaseDate,
			res.Rating,
			res.Genres,
			res.Cast,
			overview,
		})
	}
	return renderTable(columns, rows)
}

func collectWarnings(results []recommend.Result) []string {
	var warnings []string
	for _, res := range results {
		if res.Warning != "" {
			warnings = append(warnings, fmt.Sprintf("#%d: %s", res.Rank, res.Warning))
		}
	}
	return warnings
}
