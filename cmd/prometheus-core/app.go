package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/patheras/prometheus-core/internal/config"
	"github.com/patheras/prometheus-core/internal/convlog"
	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/laneq"
	"github.com/patheras/prometheus-core/internal/logging"
	"github.com/patheras/prometheus-core/internal/memory"
	"github.com/patheras/prometheus-core/internal/memory/embedding"
	"github.com/patheras/prometheus-core/internal/runtime"
	"github.com/patheras/prometheus-core/internal/store"
)

// CLI holds the cobra command tree plus the flag/env state that every
// subcommand's RunE resolves into an opened Store/Engine/Dispatcher. Nothing
// is opened until a subcommand actually runs: "prometheus-core --help" never
// touches disk.
type CLI struct {
	RootCmd *cobra.Command
	viper   *viper.Viper

	dbPath   string
	dotenv   string
	provider string
	quiet    bool
	logger   *logging.EnhancedLogger
}

// NewCLI builds the command tree: a root command carrying persistent
// flags, and one createXCommand method per subcommand appended in setupCommands.
func NewCLI() *CLI {
	c := &CLI{
		viper:  viper.New(),
		logger: logging.NewEnhancedLogger("cli"),
	}
	c.setupViper()
	c.setupRootCommand()
	c.setupCommands()
	return c
}

func (c *CLI) setupViper() {
	c.viper.SetEnvPrefix("PROMETHEUS")
	c.viper.AutomaticEnv()
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.viper.SetDefault("db_path", "prometheus.db")
	c.viper.SetDefault("provider", "anthropic")
}

func (c *CLI) setupRootCommand() {
	c.RootCmd = &cobra.Command{
		Use:     "prometheus-core",
		Short:   "Memory & runtime core for the Prometheus self-improving agent",
		Long:    "prometheus-core manages the embedded store, indexes codebases, runs hybrid search, and dispatches one-shot LM calls through the same fallback chain the long-running agent process uses.",
		Version: "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = c.viper.BindPFlag("db_path", cmd.Flags().Lookup("db-path"))
			_ = c.viper.BindPFlag("dotenv", cmd.Flags().Lookup("dotenv"))
			_ = c.viper.BindPFlag("provider", cmd.Flags().Lookup("provider"))
			if c.quiet {
				c.logger = logging.NewEnhancedLoggerWithBase("cli", logging.NewNoOpLogger())
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c.RootCmd.PersistentFlags().StringVar(&c.dbPath, "db-path", "", "database file path (default prometheus.db, env PROMETHEUS_DB_PATH)")
	c.RootCmd.PersistentFlags().StringVar(&c.dotenv, "dotenv", ".env", "path to a .env file holding provider credentials")
	c.RootCmd.PersistentFlags().StringVar(&c.provider, "provider", "", "default LM provider for ask (default anthropic)")
	c.RootCmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "discard all CLI-level logging (errors are still printed to stderr)")
}

func (c *CLI) setupCommands() {
	commands := []*cobra.Command{
		c.createInitDBCommand(),
		c.createMigrateCommand(),
		c.createIndexCommand(),
		c.createSearchCommand(),
		c.createAskCommand(),
		c.createStatsCommand(),
	}
	c.RootCmd.AddCommand(commands...)
}

// Execute runs the command tree. Errors are rendered by handleError before
// being returned so main can exit non-zero without re-printing anything.
func (c *CLI) Execute() error {
	return c.RootCmd.Execute()
}

// loadConfig builds a config.Config from defaults, the environment, and
// .env, then overlays the bound CLI flags. Viper owns flag/env binding;
// config.LoadFromEnv owns the domain defaults and godotenv load, so viper
// never parses a config file here, only binds flags and env vars for this
// process.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	config.LoadFromEnv(cfg, c.viper.GetString("dotenv"))

	if dbPath := c.viper.GetString("db_path"); dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, errs.Wrap(errs.CodeValidation, "invalid configuration", err)
	}
	return cfg, nil
}

// openStore opens the database described by cfg, applying migrations as
// Store.Open always does.
func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Store.Path, store.Options{EmbeddingDim: cfg.Store.EmbeddingDim})
}

// openEngine wires a Store, an on-disk Log, and a Mock embedder (the
// Anthropic embedding provider has no backing endpoint yet, see
// internal/memory/embedding) into a Memory Engine ready for indexing and search.
func openEngine(cfg *config.Config, s *store.Store) (*memory.Engine, error) {
	convDir := cfg.ConversationsDir()
	if err := os.MkdirAll(convDir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversations directory: %w", err)
	}
	log, err := convlog.Open(convDir)
	if err != nil {
		return nil, fmt.Errorf("open conversation log: %w", err)
	}
	return memory.New(memory.Options{
		Store:       s,
		Log:         log,
		Embedder:    embedding.NewMock(s.EmbeddingDim()),
		ExcludeDirs: cfg.Store.ExcludeDirs,
	})
}

// openQueue builds the process-wide lane queue from cfg, used to shape
// concurrency around indexing and dispatch work issued by the CLI.
func openQueue(cfg *config.Config) *laneq.Queue {
	return laneq.NewQueue(cfg.Queue.LaneDefaults, cfg.Queue.WarnAfterMs)
}

// openDispatcher wires a Runtime Dispatcher from cfg, registering one
// credential slot per provider from the environment variable named
// "<PROVIDER>_API_KEY" in upper case.
func openDispatcher(cfg *config.Config, providers ...string) *runtime.Dispatcher {
	creds := map[string][]string{}
	for _, p := range providers {
		creds[p] = []string{strings.ToUpper(p) + "_API_KEY"}
	}
	return runtime.Bootstrap(cfg.Runtime, creds)
}

// handleError prints err in a credential-safe, colorized form and returns it
// unchanged so RunE can propagate the exit status. Details attached to a
// taxonomy error are never rendered here: they may carry attempt traces with
// provider names, never secret material, but the CLI's top-level surface
// stays terse by design.
func (c *CLI) handleError(err error) error {
	if err == nil {
		return nil
	}
	c.logger.WithError(err)

	red := color.New(color.FgRed, color.Bold)
	var taxonomyErr *errs.Error
	if errors.As(err, &taxonomyErr) {
		red.Fprintf(os.Stderr, "error [%s]: ", taxonomyErr.Code)
		fmt.Fprintln(os.Stderr, taxonomyErr.Message)
	} else {
		red.Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func elapsed(since time.Time) string {
	return time.Since(since).Round(time.Millisecond).String()
}
