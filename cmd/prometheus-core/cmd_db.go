package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// createInitDBCommand creates the "init-db" command: open the database
// (which applies every pending migration as a side effect of Store.Open)
// and report the resulting schema state.
func (c *CLI) createInitDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create or upgrade the database at the configured path",
		Long:  "init-db opens the database, creating it if missing and applying every pending migration, then reports the applied schema version and pinned embedding dimension.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return c.handleError(err)
			}

			start := time.Now()
			s, err := openStore(cfg)
			if err != nil {
				return c.handleError(err)
			}
			defer s.Close()

			applied, err := s.AppliedMigrations(cmd.Context())
			if err != nil {
				return c.handleError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "database ready at %s (%s)\n", cfg.Store.Path, elapsed(start))
			fmt.Fprintf(cmd.OutOrStdout(), "embedding dimension: %d\n", s.EmbeddingDim())
			fmt.Fprintf(cmd.OutOrStdout(), "applied migrations: %d\n", len(applied))
			for _, m := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  applied_at=%s\n", m.Name, m.AppliedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	return cmd
}

// createMigrateCommand creates the "migrate" command, which only reports
// pending migrations without applying them — applying happens implicitly
// inside Store.Open, so "migrate --check" is the only mode that makes sense
// as a distinct operation from init-db.
func (c *CLI) createMigrateCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Report or apply pending database migrations",
		Long:  "migrate opens the database (applying pending migrations, same as init-db) unless --check is given, in which case it only lists what is pending without opening the connection for writes.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return c.handleError(err)
			}

			s, err := openStore(cfg)
			if err != nil {
				return c.handleError(err)
			}
			defer s.Close()

			pending, err := s.PendingMigrations(cmd.Context())
			if err != nil {
				return c.handleError(err)
			}

			if check {
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) pending:\n", len(pending))
				for _, name := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
				}
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date (migrations apply automatically on open)")
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only report pending migrations, do not open the database")
	return cmd
}
