package scorer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio-go/internal/llm"
	"github.com/curiolabs/curio-go/internal/models"
)

const validScore = `{"score": 8, "summary": "A practical generics tour.", "reasoning": "Matches the reader's interest in language features."}`

func testProfile() *models.Profile {
	return &models.Profile{
		Likes:    []string{"language design deep dives", "practical tooling posts"},
		Dislikes: []string{"press releases"},
	}
}

func TestScoreFirstAttempt(t *testing.T) {
	fake := &fakeCompleter{responses: []string{validScore}}
	s := NewPreferenceScorer(fake, nil, nil)

	result, err := s.Score(context.Background(), testArticle(), testProfile())
	require.NoError(t, err)

	assert.Equal(t, 8, result.Score)
	assert.Equal(t, "A practical generics tour.", result.Summary)
	assert.NotEmpty(t, result.Reasoning)
	assert.Equal(t, models.ScoreSourceModel, result.Source)
	assert.Equal(t, llm.TierCapable, fake.tiers[0], "scoring uses the capable tier")
}

func TestScoreAcceptsEmbeddedJSON(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"Here is my rating:\n" + validScore + "\nHope that helps!"}}
	s := NewPreferenceScorer(fake, nil, nil)

	result, err := s.Score(context.Background(), testArticle(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Score)
	assert.Equal(t, models.ScoreSourceModel, result.Source)
}

func TestScoreFallsBackAfterAllAttempts(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		"I would rate this around a seven.",
		`{"score": "high", "summary": "x", "reasoning": "y"}`,
		"no json here either",
	}}
	s := NewPreferenceScorer(fake, nil, nil)

	result, err := s.Score(context.Background(), testArticle(), testProfile())
	require.NoError(t, err, "exhausted attempts degrade to the fallback, never to an error")

	assert.Equal(t, FallbackScore, result.Score)
	assert.Equal(t, models.ScoreSourceFallback, result.Source)
	assert.Contains(t, result.Summary, "neutral score")
	assert.Equal(t, maxScoreAttempts, fake.callCount())
}

func TestScoreOutOfRangeConsumesAttempt(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		`{"score": 11, "summary": "too good", "reasoning": "scale confusion"}`,
		validScore,
	}}
	s := NewPreferenceScorer(fake, nil, nil)

	result, err := s.Score(context.Background(), testArticle(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, 8, result.Score)
	assert.Equal(t, 2, fake.callCount())
}

func TestScoreRetryAppendsReinforcement(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"not json", validScore}}
	s := NewPreferenceScorer(fake, nil, nil)

	_, err := s.Score(context.Background(), testArticle(), testProfile())
	require.NoError(t, err)

	assert.NotContains(t, fake.prompts[0], "valid JSON only")
	assert.Contains(t, fake.prompts[1], "valid JSON only")
}

func TestScoreStopsOnFatalAPIError(t *testing.T) {
	fatal := fmt.Errorf("%w: credit balance too low", llm.ErrFatalAPI)
	fake := &fakeCompleter{errs: []error{fatal, fatal, fatal}}
	s := NewPreferenceScorer(fake, nil, nil)

	_, err := s.Score(context.Background(), testArticle(), testProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrFatalAPI)
	assert.Equal(t, 1, fake.callCount())
}

func TestScorePromptCarriesProfileAndArticle(t *testing.T) {
	fake := &fakeCompleter{responses: []string{validScore}}
	s := NewPreferenceScorer(fake, nil, nil)

	_, err := s.Score(context.Background(), testArticle(), testProfile())
	require.NoError(t, err)

	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "language design deep dives")
	assert.Contains(t, prompt, "press releases")
	assert.Contains(t, prompt, "Generics in practice")
}

func TestParseScorePayload(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"bare json", validScore, false},
		{"embedded json", "rating below\n" + validScore, false},
		{"minimum score", `{"score": 1, "summary": "s", "reasoning": "r"}`, false},
		{"maximum score", `{"score": 10, "summary": "s", "reasoning": "r"}`, false},
		{"score zero", `{"score": 0, "summary": "s", "reasoning": "r"}`, true},
		{"score eleven", `{"score": 11, "summary": "s", "reasoning": "r"}`, true},
		{"score as string", `{"score": "8", "summary": "s", "reasoning": "r"}`, true},
		{"empty summary", `{"score": 5, "summary": " ", "reasoning": "r"}`, true},
		{"empty reasoning", `{"score": 5, "summary": "s", "reasoning": ""}`, true},
		{"no json", "just prose", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScorePayload(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
