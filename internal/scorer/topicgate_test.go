package scorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

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

func testArticle() models.Article {
	return models.Article{
		URL:     "https://example.com/posts/generics-in-practice",
		Title:   "Generics in practice",
		Summary: "A tour of type parameters in real codebases.",
	}
}

func newTestGate(fake *fakeCompleter) *TopicGate {
	g := NewTopicGate(fake, "software engineering and programming languages", nil, nil)
	g.pause = 0
	return g
}

func TestGateAcceptsUnambiguousYes(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"Yes, this is clearly on topic."}}
	g := newTestGate(fake)

	relevant, err := g.Check(context.Background(), testArticle())
	require.NoError(t, err)
	assert.True(t, relevant)
	assert.Equal(t, 1, fake.callCount(), "an unambiguous answer needs no retry")
	assert.Equal(t, llm.TierCheap, fake.tiers[0], "the gate runs on the cheap tier")
}

func TestGateRejectsUnambiguousNo(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"no"}}
	g := newTestGate(fake)

	relevant, err := g.Check(context.Background(), testArticle())
	require.NoError(t, err)
	assert.False(t, relevant)
}

func TestGateRetriesOnAmbiguity(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		"Well, yes and no, it depends on the reader.",
		"yes",
	}}
	g := newTestGate(fake)

	relevant, err := g.Check(context.Background(), testArticle())
	require.NoError(t, err)
	assert.True(t, relevant)
	assert.Equal(t, 2, fake.callCount())
}

func TestGateAmbiguousFinalAttemptFiltersOut(t *testing.T) {
	fake := &fakeCompleter{responses: []string{
		"It could go either way.",
		"Hard to say without reading the whole article.",
	}}
	g := newTestGate(fake)

	relevant, err := g.Check(context.Background(), testArticle())
	require.NoError(t, err, "persistent ambiguity is a verdict, not an error")
	assert.False(t, relevant, "ambiguity fails safe toward filtering")
	assert.Equal(t, maxGateAttempts, fake.callCount())
}

func TestGateReturnsTransportFailure(t *testing.T) {
	boom := errors.New("connection reset")
	fake := &fakeCompleter{errs: []error{boom, boom}}
	g := newTestGate(fake)

	_, err := g.Check(context.Background(), testArticle())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, maxGateAttempts, fake.callCount())
}

func TestGatePromptCarriesTopicAndArticle(t *testing.T) {
	fake := &fakeCompleter{responses: []string{"yes"}}
	g := newTestGate(fake)

	_, err := g.Check(context.Background(), testArticle())
	require.NoError(t, err)

	prompt := fake.prompts[0]
	assert.Contains(t, prompt, "software engineering and programming languages")
	assert.Contains(t, prompt, "Generics in practice")
	assert.Contains(t, prompt, "yes or no")
}
