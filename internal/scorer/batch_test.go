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

type fakeLister struct {
	articles []models.Article
	err      error
	limit    int
}

func (f *fakeLister) QueryScorableArticles(_ context.Context, limit int) ([]models.Article, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

func backlog(n int) []models.Article {
	articles := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		articles = append(articles, models.Article{
			URL:   fmt.Sprintf("https://example.com/posts/article-%d", i),
			Title: fmt.Sprintf("Article %d", i),
		})
	}
	return articles
}

func TestBatchTalliesOutcomes(t *testing.T) {
	// Sequential worker, scripted order: filtered, scored, fallback
	fake := &fakeCompleter{responses: []string{
		"no",
		"yes", validScore,
		"yes", "junk", "junk", "junk",
	}}
	lister := &fakeLister{articles: backlog(3)}
	o := newTestScoringOrchestrator(&fakeProfiles{profile: testProfile()}, newFakeArticles(), fake)
	b := NewBatchScorer(lister, o, 1, nil)

	var events int
	result, err := b.Run(context.Background(), 0, func(done, total int, _ Report) {
		events++
		assert.Equal(t, 3, total)
		assert.Equal(t, events, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Scored)
	assert.Equal(t, 1, result.Filtered)
	assert.Equal(t, 1, result.Fallback, "the neutral fallback counts as scored, flagged separately")
	assert.Equal(t, 0, result.Aborted)
	assert.Equal(t, 3, events)
}

func TestBatchEmptyBacklog(t *testing.T) {
	lister := &fakeLister{}
	o := newTestScoringOrchestrator(&fakeProfiles{profile: testProfile()}, newFakeArticles(), &fakeCompleter{})
	b := NewBatchScorer(lister, o, 4, nil)

	result, err := b.Run(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{}, result)
}

func TestBatchPassesLimitThrough(t *testing.T) {
	lister := &fakeLister{}
	o := newTestScoringOrchestrator(&fakeProfiles{profile: testProfile()}, newFakeArticles(), &fakeCompleter{})
	b := NewBatchScorer(lister, o, 1, nil)

	_, err := b.Run(context.Background(), 25, nil)
	require.NoError(t, err)
	assert.Equal(t, 25, lister.limit)
}

func TestBatchListerFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	o := newTestScoringOrchestrator(&fakeProfiles{profile: testProfile()}, newFakeArticles(), &fakeCompleter{})
	b := NewBatchScorer(lister, o, 1, nil)

	_, err := b.Run(context.Background(), 0, nil)
	assert.Error(t, err)
}

func TestBatchStopsEarlyWithoutProfile(t *testing.T) {
	fake := &fakeCompleter{}
	lister := &fakeLister{articles: backlog(50)}
	o := newTestScoringOrchestrator(&fakeProfiles{}, newFakeArticles(), fake)
	b := NewBatchScorer(lister, o, 1, nil)

	result, err := b.Run(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.True(t, result.NoProfile)
	assert.Equal(t, 0, fake.callCount())
	assert.Equal(t, 0, result.Scored)
	assert.Equal(t, 0, result.Aborted, "articles skipped after the stop must not count as aborted")
}

// steadyCompleter always answers the same, so it is safe under concurrency.
type steadyCompleter struct {
	mu       sync.Mutex
	response string
	calls    int
}

func (s *steadyCompleter) Complete(context.Context, llm.Tier, string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.response, nil
}

func TestBatchConcurrentWorkers(t *testing.T) {
	steady := &steadyCompleter{response: "no"}
	lister := &fakeLister{articles: backlog(20)}

	gate := NewTopicGate(steady, "testing", nil, nil)
	gate.pause = 0
	o := NewOrchestrator(&fakeProfiles{profile: testProfile()}, newFakeArticles(), gate, NewPreferenceScorer(steady, nil, nil), nil, nil)
	b := NewBatchScorer(lister, o, 4, nil)

	result, err := b.Run(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Filtered)
	assert.Equal(t, 20, steady.calls, "one gate call per article, no duplicates")
}
