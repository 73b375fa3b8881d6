package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cinematch/internal/api"
	"cinematch/internal/similarity"
)

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	moviesCmd := &cobra.Command{
		Use:   "movies",
		Short: "Browse the movie catalog",
	}
	moviesCmd.AddCommand(newMoviesListCommand(ctx))
	moviesCmd.AddCommand(newMoviesSearchCommand(ctx))
	return moviesCmd
}

func newMoviesListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog titles in model order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.loadStore(cmd.Context())
			if err != nil {
				return err
			}
			return printMovies(cmd, store, "", limit, jsonOut)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum titles to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newMoviesSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find catalog titles containing a phrase (case-insensitive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.loadStore(cmd.Context())
			if err != nil {
				return err
			}
			return printMovies(cmd, store, strings.Join(args, " "), limit, jsonOut)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 25, "Maximum titles to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func printMovies(cmd *cobra.Command, store *similarity.Store, query string, limit int, jsonOut bool) error {
	if limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", limit)
	}
	titles := store.Search(query, limit)
	if jsonOut {
		return writeJSON(cmd, api.MoviesResponse{Query: strings.TrimSpace(query), Total: len(titles), Movies: titles})
	}
	out := cmd.OutOrStdout()
	if len(titles) == 0 {
		fmt.Fprintf(out, "No titles match %q\n", query)
		return nil
	}
	rows := make([][]string, len(titles))
	for i, title := range titles {
		rows[i] = []string{strconv.Itoa(i + 1), title}
	}
	fmt.Fprintln(out, renderTable([]column{{header: "#", align: alignRight}, {header: "Title"}}, rows))
	fmt.Fprintf(out, "%d of %d titles\n", len(titles), store.Len())
	return nil
}
