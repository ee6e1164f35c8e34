// Package cli provides the command-line interface for curio.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/curiolabs/curio-go/internal/config"
	"github.com/curiolabs/curio-go/internal/db"
	"github.com/curiolabs/curio-go/internal/learner"
	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/metrics"
	"github.com/curiolabs/curio-go/internal/scorer"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg       config.Config
	dbClient  *db.Client
	collector *metrics.Collector
	logClose  func() error

	// Lazy-initialized LLM client
	llmClient *llm.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "curio",
	Short: "Adaptive article feed personalization",
	Long: `Curio learns what you want to read. Rate ingested articles as relevant
or not relevant, let the learner distill a preference profile from your
ratings, and have every new article topic-filtered and scored 1-10
against that profile.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = config.ParseLogLevel("debug")
		}
		logger, closeLog := config.SetupLogger(cfg.LogFile, level)
		logClose = closeLog
		slog.SetDefault(logger)

		collector = metrics.NewCollector()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		dbClient.AttachMetrics(collector)

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logClose != nil {
			if err := logClose(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// getLLM initializes the inference client on first use. Commands that never
// touch a model skip the provider setup entirely.
func getLLM() (*llm.Client, error) {
	if llmClient == nil {
		var err error
		llmClient, err = llm.NewClient(cfg, nil, collector)
		if err != nil {
			return nil, fmt.Errorf("init inference client: %w", err)
		}
	}
	return llmClient, nil
}

// getLearner wires the learning pipeline.
func getLearner() (*learner.Orchestrator, error) {
	client, err := getLLM()
	if err != nil {
		return nil, err
	}
	return learner.NewOrchestrator(
		learner.NewCollector(dbClient),
		dbClient,
		learner.NewEvolver(client, nil),
		nil,
	), nil
}

// getScorer wires the scoring pipeline.
func getScorer() (*scorer.Orchestrator, error) {
	client, err := getLLM()
	if err != nil {
		return nil, err
	}
	gate := scorer.NewTopicGate(client, cfg.Topic, nil, collector)
	prefs := scorer.NewPreferenceScorer(client, nil, collector)
	return scorer.NewOrchestrator(dbClient, dbClient, gate, prefs, nil, collector), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(articlesCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
