package learner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/models"
)

// maxEvolveAttempts bounds how often the evolver re-prompts after an
// unparseable response.
const maxEvolveAttempts = 3

// jsonReinforcement is appended to the prompt from the second attempt onward.
const jsonReinforcement = `

IMPORTANT: Respond with valid JSON only, in exactly this shape and nothing else:
{"likes": ["..."], "dislikes": ["..."], "changelog": "..."}`

// ProfileGenerationError reports that every evolution attempt failed. No
// profile is produced; the previous one, if any, stays untouched.
type ProfileGenerationError struct {
	Attempts int
	LastErr  error
}

func (e *ProfileGenerationError) Error() string {
	return fmt.Sprintf("profile generation failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ProfileGenerationError) Unwrap() error {
	return e.LastErr
}

// profilePayload is the structured response the model must return.
type profilePayload struct {
	Likes     []string `json:"likes"`
	Dislikes  []string `json:"dislikes"`
	Changelog string   `json:"changelog"`
}

// Evolver turns rated articles into a new or evolved preference profile via
// the capable inference tier.
type Evolver struct {
	llm    llm.Completer
	logger *slog.Logger
	now    func() time.Time
}

// NewEvolver creates an evolver. The logger may be nil.
func NewEvolver(completer llm.Completer, logger *slog.Logger) *Evolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evolver{
		llm:    completer,
		logger: logger,
		now:    time.Now,
	}
}

// Evolve produces a profile from the feedback set. When existing is non-nil
// the model is asked to evolve it rather than start over, and the returned
// profile keeps the original created_at. On total failure it returns a
// *ProfileGenerationError and no profile.
func (e *Evolver) Evolve(ctx context.Context, fb models.FeedbackSet, existing *models.Profile) (*models.Profile, error) {
	extra := ""
	var lastErr error

	for attempt := 1; attempt <= maxEvolveAttempts; attempt++ {
		prompt := buildProfilePrompt(fb, existing, extra)

		response, err := e.llm.Complete(ctx, llm.TierCapable, prompt)
		if err != nil {
			lastErr = err
			if errors.Is(err, llm.ErrFatalAPI) {
				e.logger.Error("profile evolution aborted on fatal API error", "attempt", attempt, "error", err)
				return nil, &ProfileGenerationError{Attempts: attempt, LastErr: err}
			}
			e.logger.Warn("profile evolution request failed", "attempt", attempt, "error", err)
			extra = jsonReinforcement
			continue
		}

		payload, err := parseProfilePayload(response)
		if err != nil {
			lastErr = err
			e.logger.Warn("profile evolution response invalid", "attempt", attempt, "error", err)
			extra = jsonReinforcement
			continue
		}

		now := e.now()
		profile := &models.Profile{
			Likes:       payload.Likes,
			Dislikes:    payload.Dislikes,
			Changelog:   payload.Changelog,
			CreatedAt:   now,
			LastUpdated: now,
		}
		if existing != nil {
			profile.CreatedAt = existing.CreatedAt
		}
		// Oversized lists are truncated, never rejected
		profile.ClampPreferences()

		e.logger.Info("profile evolved",
			"attempt", attempt,
			"likes", len(profile.Likes),
			"dislikes", len(profile.Dislikes),
			"mode", evolutionMode(existing),
		)
		return profile, nil
	}

	return nil, &ProfileGenerationError{Attempts: maxEvolveAttempts, LastErr: lastErr}
}

// parseProfilePayload extracts and validates the model's JSON response.
func parseProfilePayload(response string) (*profilePayload, error) {
	raw, err := llm.ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var payload profilePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode profile payload: %w", err)
	}

	if len(payload.Likes) == 0 && len(payload.Dislikes) == 0 {
		return nil, fmt.Errorf("profile payload has no preferences")
	}
	if strings.TrimSpace(payload.Changelog) == "" {
		return nil, fmt.Errorf("profile payload has no changelog")
	}
	return &payload, nil
}

func evolutionMode(existing *models.Profile) string {
	if existing == nil {
		return "create"
	}
	return "evolve"
}

// buildProfilePrompt assembles the evolution prompt. With no existing profile
// the model derives preferences from scratch; otherwise it is asked to keep
// what still holds, refine or drop stale entries, and add new ones.
func buildProfilePrompt(fb models.FeedbackSet, existing *models.Profile, extra string) string {
	var b strings.Builder

	b.WriteString(`You are a content preference analyst. A user has rated articles as relevant or not relevant to them. `)

	if existing == nil {
		b.WriteString(`Derive the user's content preferences from these ratings.

`)
	} else {
		b.WriteString(`An earlier preference profile already exists. Evolve it: keep entries the ratings still support, refine or drop stale ones, and add new preferences the recent ratings reveal. Do not discard the profile and start over.

Current profile:
Likes:
`)
		writeList(&b, existing.Likes)
		b.WriteString("Dislikes:\n")
		writeList(&b, existing.Dislikes)
		b.WriteString("\n")
	}

	b.WriteString("Articles the user marked RELEVANT:\n")
	writeArticles(&b, fb.Relevant)
	b.WriteString("\nArticles the user marked NOT RELEVANT:\n")
	writeArticles(&b, fb.NotRelevant)

	fmt.Fprintf(&b, `
Respond with a JSON object with exactly three fields:
- "likes": up to %d short phrases describing content the user wants
- "dislikes": up to %d short phrases describing content the user avoids
- "changelog": one or two sentences explaining what you created or changed and why`,
		models.MaxPreferenceEntries, models.MaxPreferenceEntries)

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

const maxSummaryChars = 300

func writeArticles(b *strings.Builder, articles []models.Article) {
	if len(articles) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, a := range articles {
		summary := a.Summary
		if len(summary) > maxSummaryChars {
			summary = summary[:maxSummaryChars] + "..."
		}
		fmt.Fprintf(b, "- %s: %s\n", a.Title, summary)
	}
}
