package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/metrics"
	"github.com/curiolabs/curio-go/internal/models"
)

// maxScoreAttempts bounds re-prompting after an invalid score response.
const maxScoreAttempts = 3

// FallbackScore is the neutral score emitted when every attempt failed. It is
// tagged with models.ScoreSourceFallback so it can never be mistaken for a
// genuine mid-range score.
const FallbackScore = 5

const scoreReinforcement = `

IMPORTANT: Respond with valid JSON only, in exactly this shape and nothing else:
{"score": 5, "summary": "...", "reasoning": "..."}`

// ScoreResult is the scorer's verdict for one article.
type ScoreResult struct {
	Score     int
	Summary   string
	Reasoning string
	Source    models.ScoreSource
}

// scorePayload is the structured response the model must return.
type scorePayload struct {
	Score     int    `json:"score"`
	Summary   string `json:"summary"`
	Reasoning string `json:"reasoning"`
}

// PreferenceScorer rates a topic-relevant article against the profile's likes
// and dislikes on the capable tier.
type PreferenceScorer struct {
	llm     llm.Completer
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewPreferenceScorer creates a scorer. The logger and collector may be nil.
func NewPreferenceScorer(completer llm.Completer, logger *slog.Logger, collector *metrics.Collector) *PreferenceScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceScorer{
		llm:     completer,
		logger:  logger,
		metrics: collector,
	}
}

// Score rates the article 1 to 10 against the profile. Parse and transport
// failures consume attempts; when all attempts are gone the scorer degrades to
// the neutral fallback instead of failing the article. The only errors
// returned are context cancellation and fatal API errors, which make further
// attempts pointless.
func (s *PreferenceScorer) Score(ctx context.Context, article models.Article, profile *models.Profile) (ScoreResult, error) {
	extra := ""
	var lastErr error

	for attempt := 1; attempt <= maxScoreAttempts; attempt++ {
		if attempt > 1 {
			s.metrics.Inc(metrics.CounterLLMRetries)
		}

		response, err := s.llm.Complete(ctx, llm.TierCapable, buildScorePrompt(article, profile, extra))
		if err != nil {
			if ctx.Err() != nil {
				return ScoreResult{}, ctx.Err()
			}
			if errors.Is(err, llm.ErrFatalAPI) {
				return ScoreResult{}, err
			}
			lastErr = err
			s.logger.Warn("score request failed", "attempt", attempt, "error", err)
			extra = scoreReinforcement
			continue
		}

		payload, err := parseScorePayload(response)
		if err != nil {
			lastErr = err
			s.logger.Warn("score response invalid", "attempt", attempt, "error", err)
			extra = scoreReinforcement
			continue
		}

		return ScoreResult{
			Score:     payload.Score,
			Summary:   payload.Summary,
			Reasoning: payload.Reasoning,
			Source:    models.ScoreSourceModel,
		}, nil
	}

	s.logger.Warn("all score attempts failed, emitting neutral fallback",
		"attempts", maxScoreAttempts, "error", lastErr)
	s.metrics.Inc(metrics.CounterFallback)

	return ScoreResult{
		Score:   FallbackScore,
		Summary: fmt.Sprintf("Automatic neutral score: the model did not return a usable response in %d attempts.", maxScoreAttempts),
		Source:  models.ScoreSourceFallback,
	}, nil
}

// parseScorePayload extracts and validates the model's JSON response.
func parseScorePayload(response string) (*scorePayload, error) {
	raw, err := llm.ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode score payload: %w", err)
	}

	if payload.Score < 1 || payload.Score > 10 {
		return nil, fmt.Errorf("score %d out of range [1,10]", payload.Score)
	}
	if strings.TrimSpace(payload.Summary) == "" {
		return nil, fmt.Errorf("score payload has no summary")
	}
	if strings.TrimSpace(payload.Reasoning) == "" {
		return nil, fmt.Errorf("score payload has no reasoning")
	}
	return &payload, nil
}

func buildScorePrompt(article models.Article, profile *models.Profile, extra string) string {
	var b strings.Builder

	b.WriteString("You rate articles for a single reader based on their preference profile.\n\nReader likes:\n")
	writeList(&b, profile.Likes)
	b.WriteString("Reader dislikes:\n")
	writeList(&b, profile.Dislikes)

	b.WriteString("\nArticle:\nTitle: ")
	b.WriteString(article.Title)
	if article.Summary != "" {
		b.WriteString("\nSummary: ")
		b.WriteString(article.Summary)
	}

	b.WriteString(`

Respond with a JSON object with exactly three fields:
- "score": integer from 1 (reader would skip it) to 10 (reader must read it)
- "summary": one or two sentences summarizing the article for the reader
- "reasoning": one sentence on how the profile led to the score`)

	b.WriteString(extra)
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
