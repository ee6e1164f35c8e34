// Package main provides the curio daemon: periodic learning and scoring runs.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/curiolabs/curio-go/internal/config"
	"github.com/curiolabs/curio-go/internal/db"
	"github.com/curiolabs/curio-go/internal/learner"
	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/metrics"
	"github.com/curiolabs/curio-go/internal/scorer"
)

func main() {
	scoreOnStart := flag.Bool("score-on-start", true, "run a scoring sweep immediately on startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()

	slog.Info("starting curiod",
		"learn_interval", cfg.LearnInterval,
		"score_interval", cfg.ScoreInterval,
		"topic", cfg.Topic,
	)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	dbClient.AttachMetrics(collector)
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	err = dbClient.InitSchema(ctx)
	cancel()
	if err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.NewClient(cfg, logger, collector)
	if err != nil {
		slog.Error("failed to init inference client", "error", err)
		os.Exit(1)
	}

	learn := learner.NewOrchestrator(
		learner.NewCollector(dbClient),
		dbClient,
		learner.NewEvolver(llmClient, logger),
		logger,
	)

	gate := scorer.NewTopicGate(llmClient, cfg.Topic, logger, collector)
	prefs := scorer.NewPreferenceScorer(llmClient, logger, collector)
	scoring := scorer.NewOrchestrator(dbClient, dbClient, gate, prefs, logger, collector)
	batch := scorer.NewBatchScorer(dbClient, scoring, cfg.ScoreConcurrency, logger)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *scoreOnStart {
		runSweep(runCtx, batch)
	}

	learnTicker := time.NewTicker(cfg.LearnInterval)
	defer learnTicker.Stop()
	scoreTicker := time.NewTicker(cfg.ScoreInterval)
	defer scoreTicker.Stop()

	for {
		select {
		case <-scoreTicker.C:
			runSweep(runCtx, batch)

		case <-learnTicker.C:
			runLearning(runCtx, learn)

		case <-runCtx.Done():
			slog.Info("shutting down curiod")
			logSnapshot(collector.Snapshot())
			return
		}
	}
}

// runSweep scores the unscored backlog, tolerating an empty or profile-less
// feed.
func runSweep(ctx context.Context, batch *scorer.BatchScorer) {
	result, err := batch.Run(ctx, 0, nil)
	if err != nil {
		slog.Error("scoring sweep failed", "error", err)
		return
	}
	if result.NoProfile {
		slog.Info("scoring sweep skipped, no profile yet")
		return
	}
	if result.Total > 0 {
		slog.Info("scoring sweep finished",
			"total", result.Total,
			"scored", result.Scored,
			"filtered", result.Filtered,
			"fallback", result.Fallback,
			"aborted", result.Aborted,
		)
	}
}

// runLearning triggers one learning pass. A pass still in flight from the
// previous tick is skipped, not queued.
func runLearning(ctx context.Context, learn *learner.Orchestrator) {
	result, err := learn.Run(ctx)
	if err != nil {
		if errors.Is(err, learner.ErrLearningInProgress) {
			slog.Warn("learning run still in progress, skipping tick")
			return
		}
		slog.Error("learning run failed to start", "error", err)
		return
	}

	switch result.Status {
	case learner.StatusSaved:
		slog.Info("profile updated",
			"run_id", result.RunID,
			"likes", len(result.Profile.Likes),
			"dislikes", len(result.Profile.Dislikes),
		)
	case learner.StatusInsufficientData:
		slog.Info("not enough ratings to learn",
			"relevant", result.RelevantCount,
			"not_relevant", result.NotRelevantCount,
		)
	case learner.StatusFailed:
		slog.Error("learning run failed", "run_id", result.RunID, "error", result.Err)
	}
}

// logSnapshot writes the final metrics snapshot on shutdown.
func logSnapshot(snap metrics.Snapshot) {
	attrs := []any{"uptime_seconds", snap.UptimeSeconds}
	if snap.LLMCheap != nil {
		attrs = append(attrs, "llm_cheap_calls", snap.LLMCheap.Count)
	}
	if snap.LLMCapable != nil {
		attrs = append(attrs, "llm_capable_calls", snap.LLMCapable.Count)
	}
	if snap.DBQuery != nil {
		attrs = append(attrs, "db_queries", snap.DBQuery.Count)
	}
	for name, value := range snap.Counters {
		attrs = append(attrs, name, value)
	}
	slog.Info("final statistics", attrs...)
}
