// Package scorer filters and scores newly ingested articles against the
// user's preference profile. Cheap inference handles the coarse topic gate,
// the capable tier produces the actual score.
package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/metrics"
	"github.com/curiolabs/curio-go/internal/models"
)

const (
	// maxGateAttempts bounds how often the gate re-asks after an ambiguous
	// answer.
	maxGateAttempts = 2

	// gateRetryPause spaces out attempts so the provider is not hammered.
	gateRetryPause = 2 * time.Second
)

// TopicGate asks the cheap tier for a strict yes/no judgment on whether an
// article belongs to the configured topic at all.
type TopicGate struct {
	llm     llm.Completer
	topic   string
	logger  *slog.Logger
	metrics *metrics.Collector

	pause time.Duration
}

// NewTopicGate creates a gate for the given free-text topic description.
// The logger and collector may be nil.
func NewTopicGate(completer llm.Completer, topic string, logger *slog.Logger, collector *metrics.Collector) *TopicGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicGate{
		llm:     completer,
		topic:   topic,
		logger:  logger,
		metrics: collector,
		pause:   gateRetryPause,
	}
}

// Check reports whether the article is on topic. An answer that stays
// ambiguous through the final attempt counts as "not relevant": filtering a
// borderline article is cheaper than scoring an off-topic one. Transport
// failures are returned to the caller.
func (g *TopicGate) Check(ctx context.Context, article models.Article) (bool, error) {
	prompt := buildGatePrompt(article, g.topic)
	var lastErr error

	for attempt := 1; attempt <= maxGateAttempts; attempt++ {
		if attempt > 1 {
			g.metrics.Inc(metrics.CounterLLMRetries)
			if err := sleepCtx(ctx, g.pause); err != nil {
				return false, err
			}
		}

		response, err := g.llm.Complete(ctx, llm.TierCheap, prompt)
		if err != nil {
			lastErr = err
			g.logger.Warn("topic gate request failed", "attempt", attempt, "error", err)
			continue
		}

		yes, ok := llm.ParseYesNo(response)
		if !ok {
			g.logger.Warn("topic gate answer ambiguous", "attempt", attempt, "answer", truncate(response, 80))
			if attempt == maxGateAttempts {
				// Fail safe toward filtering
				return false, nil
			}
			continue
		}
		return yes, nil
	}

	return false, fmt.Errorf("topic gate failed after %d attempts: %w", maxGateAttempts, lastErr)
}

func buildGatePrompt(article models.Article, topic string) string {
	var b strings.Builder
	b.WriteString("You are a strict relevance filter. Topic description:\n")
	b.WriteString(topic)
	b.WriteString("\n\nArticle:\nTitle: ")
	b.WriteString(article.Title)
	if article.Summary != "" {
		b.WriteString("\nSummary: ")
		b.WriteString(article.Summary)
	}
	b.WriteString("\n\nIs this article about the topic described above? Answer with a single word: yes or no.")
	return b.String()
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
