package scorer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/curiolabs/curio-go/internal/metrics"
	"github.com/curiolabs/curio-go/internal/models"
)

// maxRunErrors is the cumulative error budget of one scoring run. Profile
// load, gate and persistence failures count against it; the scorer's own
// neutral fallback does not, it is the designed recovery path.
const maxRunErrors = 3

// ProfileReader is the read-only profile access the scorer needs.
// Implemented by *db.Client.
type ProfileReader interface {
	GetProfile(ctx context.Context) (*models.Profile, error)
}

// ArticleWriter persists scoring outcomes. Implemented by *db.Client.
type ArticleWriter interface {
	UpdateArticleScore(ctx context.Context, key string, score int, summary string, source models.ScoreSource) (*models.Article, error)
	MarkTopicFiltered(ctx context.Context, key string) (*models.Article, error)
}

// Outcome classifies how a scoring run ended. Every value except
// OutcomeAborted is an expected terminal state.
type Outcome string

const (
	OutcomeScored          Outcome = "scored"
	OutcomeFiltered        Outcome = "topic_filtered"
	OutcomeAlreadyFiltered Outcome = "already_filtered"
	OutcomeNoProfile       Outcome = "no_profile"
	OutcomeAborted         Outcome = "aborted"
)

// Report is the result of one scoring run. Article always carries the
// article's latest known state, even on abort.
type Report struct {
	RunID   string
	Outcome Outcome
	Article models.Article
	Err     error
}

// scoreState enumerates the scoring state machine.
type scoreState int

const (
	stateLoadProfile scoreState = iota
	stateCheckCache
	stateTopicGate
	statePersistFilter
	stateScore
	statePersistScore
	stateEnd
)

// scoreRun is the transient per-article state, discarded when the run ends.
// Gate and scorer verdicts are carried here so a failed persist retries only
// the write, never the inference call behind it.
type scoreRun struct {
	article models.Article
	key     string
	profile *models.Profile
	result  ScoreResult

	errCount int
	report   Report
}

// Orchestrator sequences one scoring run per article:
// LoadProfile -> topic_filtered cache check -> TopicGate -> PreferenceScorer.
// Runs for different articles are independent and may execute concurrently.
type Orchestrator struct {
	profiles ProfileReader
	articles ArticleWriter
	gate     *TopicGate
	scorer   *PreferenceScorer
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// NewOrchestrator wires the scoring pipeline. The logger and collector may be
// nil.
func NewOrchestrator(profiles ProfileReader, articles ArticleWriter, gate *TopicGate, scorer *PreferenceScorer, logger *slog.Logger, collector *metrics.Collector) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		profiles: profiles,
		articles: articles,
		gate:     gate,
		scorer:   scorer,
		logger:   logger,
		metrics:  collector,
	}
}

// Run scores one article. It always returns a Report carrying the article's
// latest state; expected outcomes such as "no profile yet" or "off topic" are
// reported through the Outcome, not as errors.
func (o *Orchestrator) Run(ctx context.Context, article models.Article) Report {
	run := &scoreRun{
		article: article,
		key:     models.ArticleKey(article.URL),
		report:  Report{RunID: uuid.New().String()[:8]},
	}

	o.logger.Debug("scoring run started", "run_id", run.report.RunID, "article", run.key)

	for state := stateLoadProfile; state != stateEnd; {
		state = o.step(ctx, state, run)
	}

	run.report.Article = run.article
	o.logger.Info("scoring run finished",
		"run_id", run.report.RunID,
		"article", run.key,
		"outcome", run.report.Outcome,
		"errors", run.errCount,
	)
	return run.report
}

// step executes one state transition and returns the next state. A failing
// step is retried in place until the error budget is spent.
func (o *Orchestrator) step(ctx context.Context, state scoreState, run *scoreRun) scoreState {
	switch state {
	case stateLoadProfile:
		profile, err := o.profiles.GetProfile(ctx)
		if err != nil {
			return o.fail(state, run, fmt.Errorf("load profile: %w", err))
		}
		if profile == nil {
			// Valid terminal outcome: nothing to score against yet
			run.article.AISummary = "Not scored: no preference profile exists yet. Rate some articles and run learning first."
			run.report.Outcome = OutcomeNoProfile
			return stateEnd
		}
		run.profile = profile
		return stateCheckCache

	case stateCheckCache:
		if run.article.TopicFiltered {
			// Core cost-saving invariant: a filtered article never buys
			// another inference call
			o.metrics.Inc(metrics.CounterCacheHits)
			run.report.Outcome = OutcomeAlreadyFiltered
			return stateEnd
		}
		return stateTopicGate

	case stateTopicGate:
		relevant, err := o.gate.Check(ctx, run.article)
		if err != nil {
			return o.fail(state, run, fmt.Errorf("topic gate: %w", err))
		}
		if !relevant {
			return statePersistFilter
		}
		return stateScore

	case statePersistFilter:
		updated, err := o.articles.MarkTopicFiltered(ctx, run.key)
		if err != nil {
			return o.fail(state, run, fmt.Errorf("persist topic filter: %w", err))
		}
		run.article = *updated
		o.metrics.Inc(metrics.CounterTopicFiltered)
		run.report.Outcome = OutcomeFiltered
		return stateEnd

	case stateScore:
		result, err := o.scorer.Score(ctx, run.article, run.profile)
		if err != nil {
			return o.fail(state, run, fmt.Errorf("score: %w", err))
		}
		run.result = result
		return statePersistScore

	case statePersistScore:
		updated, err := o.articles.UpdateArticleScore(ctx, run.key, run.result.Score, run.result.Summary, run.result.Source)
		if err != nil {
			return o.fail(state, run, fmt.Errorf("persist score: %w", err))
		}
		run.article = *updated
		o.metrics.Inc(metrics.CounterScored)
		run.report.Outcome = OutcomeScored
		return stateEnd

	default:
		return stateEnd
	}
}

// fail records a step failure and either retries the same state or, with the
// budget spent, aborts the run leaving the article's last-known state intact.
func (o *Orchestrator) fail(state scoreState, run *scoreRun, err error) scoreState {
	run.errCount++
	o.logger.Warn("scoring step failed",
		"run_id", run.report.RunID,
		"article", run.key,
		"errors", run.errCount,
		"error", err,
	)

	if run.errCount >= maxRunErrors {
		run.report.Outcome = OutcomeAborted
		run.report.Err = fmt.Errorf("scoring aborted after %d errors: %w", run.errCount, err)
		return stateEnd
	}
	return state
}
