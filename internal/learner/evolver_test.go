package learner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/models"
)

// fakeCompleter replays scripted responses and records every prompt.
type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	tiers     []llm.Tier
	calls     int
}

func (f *fakeCompleter) Complete(_ context.Context, tier llm.Tier, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i+1)
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func boolPtr(b bool) *bool { return &b }

func feedback(relevant, notRelevant int) models.FeedbackSet {
	var fb models.FeedbackSet
	for i := 0; i < relevant; i++ {
		fb.Relevant = append(fb.Relevant, models.Article{
			Title:    fmt.Sprintf("Good article %d", i),
			Summary:  "about things the user likes",
			Relevant: boolPtr(true),
		})
	}
	for i := 0; i < notRelevant; i++ {
		fb.NotRelevant = append(fb.NotRelevant, models.Article{
			Title:    fmt.Sprintf("Bad article %d", i),
			Summary:  "about things the user skips",
			Relevant: boolPtr(false),
		})
	}
	return fb
}

const validPayload = `{"likes": ["deep technical writeups"], "dislikes": ["listicles"], "changelog": "created from 4 rated articles"}`

func TestEvolveCreatesProfileFirstAttempt(t *testing.T) {
	fake := &fakeCompleter{responses: []string{validPayload}}
	e := NewEvolver(fake, nil)
	frozen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return frozen }

	profile, err := e.Evolve(context.Background(), feedback(2, 2), nil)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, []string{"deep technical writeups"}, profile.Likes)
	assert.Equal(t, []string{"listicles"}, profile.Dislikes)
	assert.Equal(t, "created from 4 rated articles", profile.Changelog)
	assert.Equal(t, frozen, profile.CreatedAt, "fresh creation stamps created_at")
	assert.Equal(t, profile.CreatedAt, profile.LastUpdated, "creation sets created_at == last_updated")
	assert.Equal(t, 1, fake.callCount())
	assert.Equal(t, llm.TierCapable, fake.tiers[0], "evolution uses the capable tier")
}

func TestEvolvePreservesCreatedAt(t *testing.T) {
	fake := &fakeCompleter{responses: []string{validPayload}}
	e := NewEvolver(fake, nil)

	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.Profile{
		Likes:     []string{"old like"},
		Dislikes:  []string{"old dislike"},
		CreatedAt: created,
	}

	profile, err := e.Evolve(context.Background(), feedback(3, 3), existing)
	require.NoError(t, err)

	assert.Equal(t, created, profile.CreatedAt, "evolution must never overwrite created_at")
	assert.True(t, profile.LastUpdated.After(created))
}

func TestEvolvePromptBranchesOnExistingProfile(t *testing.T) {
	t.Run("create mode", func(t *testing.T) {
		fake := &fakeCompleter{responses: []string{validPayload}}
		e := NewEvolver(fake, nil)

		_, err := e.Evolve(context.Background(), feedback(2, 2), nil)
		require.NoError(t, err)
		assert.NotContains(t, fake.prompts[0], "Current profile:")
	})

	t.Run("evolve mode includes current profile", func(t *testing.T) {
		fake := &fakeCompleter{responses: []string{validPayload}}
		e := NewEvolver(fake, nil)

		existing := &models.Profile{Likes: []string{"rust deep dives"}, Dislikes: []string{"crypto hype"}}
		_, err := e.Evolve(context.Background(), feedback(2, 2), existing)
		require.NoError(t, err)

		prompt := fake.prompts[0]
		assert.Contains(t, prompt, "Current profile:")
		assert.Contains(t, prompt, "rust deep dives")
		assert.Contains(t, prompt, "crypto hype")
		assert.Contains(t, prompt, "Evolve it")
	})
}

func TestEvolveTruncatesOversizedLists(t *testing.T) {
	likes := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		likes = append(likes, fmt.Sprintf(`"like %d"`, i))
	}
	payload := fmt.Sprintf(`{"likes": [%s], "dislikes": ["a"], "changelog": "too many likes"}`,
		strings.Join(likes, ","))

	fake := &fakeCompleter{responses: []string{payload}}
	e := NewEvolver(fake, nil)

	profile, err := e.Evolve(context.Background(), feedback(2, 2), nil)
	require.NoError(t, err, "oversized lists truncate, they never fail the run")
	assert.Len(t, profile.Likes, models.MaxPreferenceEntries)
	assert.Len(t, profile.Dislikes, 1)
}

func TestEvolveRetriesWithJSONReinforcement(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		"Sure! The user seems to like technical content.",
		validPayload,
	}}
	e := NewEvolver(fake, nil)

	profile, err := e.Evolve(context.Background(), feedback(2, 2), nil)
	require.NoError(t, err)
	require.NotNil(t, profile)

	require.Equal(t, 2, fake.callCount())
	assert.NotContains(t, fake.prompts[0], "valid JSON only", "first attempt carries no reinforcement")
	assert.Contains(t, fake.prompts[1], "valid JSON only", "retry appends the JSON shape instruction")
}

func TestEvolveFailsAfterAllAttempts(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"not json", "still not json", "nope"}}
	e := NewEvolver(fake, nil)

	profile, err := e.Evolve(context.Background(), feedback(2, 2), nil)
	require.Error(t, err)
	assert.Nil(t, profile, "no partial profile on failure")

	var genErr *ProfileGenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, maxEvolveAttempts, genErr.Attempts)
	assert.Equal(t, maxEvolveAttempts, fake.callCount())
}

func TestEvolveTransportErrorsConsumeAttempts(t *testing.T) {
	transient := errors.New("context deadline exceeded")
	fake := &fakeCompleter{
		errs:      []error{transient, nil},
		responses: []string{"", validPayload},
	}
	e := NewEvolver(fake, nil)

	profile, err := e.Evolve(context.Background(), feedback(2, 2), nil)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 2, fake.callCount())
}

func TestEvolveStopsEarlyOnFatalAPIError(t *testing.T) {
	fatal := fmt.Errorf("%w: invalid api key", llm.ErrFatalAPI)
	fake := &fakeCompleter{errs: []error{fatal, fatal, fatal}}
	e := NewEvolver(fake, nil)

	_, err := e.Evolve(context.Background(), feedback(2, 2), nil)
	require.Error(t, err)
	assert.Equal(t, 1, fake.callCount(), "fatal errors must not burn remaining attempts")
	assert.ErrorIs(t, err, llm.ErrFatalAPI)
}

func TestParseProfilePayload(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"bare json", validPayload, false},
		{"embedded json", "Here is the profile:\n" + validPayload + "\nEnjoy!", false},
		{"wrong types", `{"likes": "not a list", "dislikes": [], "changelog": "x"}`, true},
		{"empty preferences", `{"likes": [], "dislikes": [], "changelog": "x"}`, true},
		{"missing changelog", `{"likes": ["a"], "dislikes": ["b"], "changelog": ""}`, true},
		{"no json at all", "the user likes technical content", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProfilePayload(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
