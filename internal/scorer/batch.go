package scorer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/curiolabs/curio-go/internal/models"
)

// ArticleLister queries the scoring backlog. Implemented by *db.Client.
type ArticleLister interface {
	QueryScorableArticles(ctx context.Context, limit int) ([]models.Article, error)
}

// ProgressFunc receives one call per finished article. done counts finished
// articles including this one. It may be nil.
type ProgressFunc func(done, total int, report Report)

// BatchResult aggregates the outcomes of one backlog sweep.
type BatchResult struct {
	Total    int
	Scored   int
	Filtered int
	Fallback int
	Aborted  int

	// NoProfile is set when the sweep ended early because no profile exists.
	NoProfile bool
}

// BatchScorer sweeps the unscored backlog through the orchestrator with a
// bounded number of concurrent runs. Per-article runs are independent, so
// concurrency only bounds provider pressure.
type BatchScorer struct {
	lister       ArticleLister
	orchestrator *Orchestrator
	concurrency  int
	logger       *slog.Logger
}

// NewBatchScorer creates a batch scorer. Concurrency values below 1 are
// raised to 1. The logger may be nil.
func NewBatchScorer(lister ArticleLister, orchestrator *Orchestrator, concurrency int, logger *slog.Logger) *BatchScorer {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchScorer{
		lister:       lister,
		orchestrator: orchestrator,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// Run scores every scorable article, oldest first, up to limit (0 means all).
// When the first run reports that no profile exists the sweep stops early
// rather than burning a run per article on the same answer.
func (b *BatchScorer) Run(ctx context.Context, limit int, progress ProgressFunc) (BatchResult, error) {
	articles, err := b.lister.QueryScorableArticles(ctx, limit)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Total: len(articles)}
	if len(articles) == 0 {
		return result, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		done   int
		jobs   = make(chan models.Article)
		cancel context.CancelFunc
	)
	ctx, cancel = context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < b.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for article := range jobs {
				if ctx.Err() != nil {
					// The sweep was stopped; drain the remaining jobs
					// without spending runs on a cancelled context
					continue
				}
				report := b.orchestrator.Run(ctx, article)

				mu.Lock()
				done++
				b.tally(&result, report)
				if result.NoProfile {
					cancel()
				}
				if progress != nil {
					progress(done, result.Total, report)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, article := range articles {
		select {
		case jobs <- article:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return result, nil
}

// tally folds one report into the batch result. Caller holds the mutex.
func (b *BatchScorer) tally(result *BatchResult, report Report) {
	switch report.Outcome {
	case OutcomeScored:
		result.Scored++
		if report.Article.AIScoreSource == models.ScoreSourceFallback {
			result.Fallback++
		}
	case OutcomeFiltered, OutcomeAlreadyFiltered:
		result.Filtered++
	case OutcomeNoProfile:
		result.NoProfile = true
	case OutcomeAborted:
		result.Aborted++
		b.logger.Warn("article scoring aborted", "article", report.Article.URL, "error", report.Err)
	}
}
