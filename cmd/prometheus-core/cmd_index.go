package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/patheras/prometheus-core/internal/laneq"
	"github.com/patheras/prometheus-core/internal/memory"
)

// createIndexCommand creates the "index" command: it runs IndexCodebase
// through the lane queue's "index" lane, so a large repository scan never
// starves concurrently running search/ask traffic on other lanes.
func (c *CLI) createIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a codebase into the store for hybrid search",
		Long:  "index walks the given directory, chunking and embedding every source file that changed since the last pass, and records the results in the store's code_chunks tables.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]

			cfg, err := c.loadConfig()
			if err != nil {
				return c.handleError(err)
			}
			s, err := openStore(cfg)
			if err != nil {
				return c.handleError(err)
			}
			defer s.Close()

			engine, err := openEngine(cfg, s)
			if err != nil {
				return c.handleError(err)
			}
			queue := openQueue(cfg)

			start := time.Now()
			future := queue.Enqueue(cmd.Context(), "index", func(ctx context.Context) (interface{}, error) {
				return engine.IndexCodebase(ctx, root)
			}, laneq.EnqueueOptions{})
			result, err := future.Wait(cmd.Context())
			if err != nil {
				return c.handleError(err)
			}

			stats := result.(memory.IndexStats)
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %s in %s\n", root, elapsed(start))
			fmt.Fprintf(cmd.OutOrStdout(), "  scanned: %d  indexed: %d  skipped: %d  chunks written: %d\n",
				stats.FilesScanned, stats.FilesIndexed, stats.FilesSkipped, stats.ChunksWritten)
			return nil
		},
	}
	return cmd
}

// createSearchCommand creates the "search" command, running the Memory
// Engine's hybrid keyword + vector search and printing ranked hits.
func (c *CLI) createSearchCommand() *cobra.Command {
	var (
		limit         int
		keywordWeight float64
		vectorWeight  float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run hybrid keyword + vector search over indexed code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]

			cfg, err := c.loadConfig()
			if err != nil {
				return c.handleError(err)
			}
			s, err := openStore(cfg)
			if err != nil {
				return c.handleError(err)
			}
			defer s.Close()

			engine, err := openEngine(cfg, s)
			if err != nil {
				return c.handleError(err)
			}

			results, err := engine.SearchCode(cmd.Context(), query, memory.SearchOptions{
				Limit:         limit,
				KeywordWeight: keywordWeight,
				VectorWeight:  vectorWeight,
			})
			if err != nil {
				return c.handleError(err)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matches")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s:%d-%d\n", r.Score, r.FilePath, r.StartLine, r.EndLine)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of results")
	cmd.Flags().Float64Var(&keywordWeight, "keyword-weight", 0, "keyword score weight (default 0.3 when unset)")
	cmd.Flags().Float64Var(&vectorWeight, "vector-weight", 0, "vector score weight (default 0.7 when unset)")
	return cmd
}
