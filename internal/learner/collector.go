// Package learner derives and evolves the user's preference profile from
// rated articles.
package learner

import (
	"context"
	"fmt"

	"github.com/curiolabs/curio-go/internal/models"
)

// FeedbackSource supplies the rated articles the learner trains on.
// Implemented by *db.Client.
type FeedbackSource interface {
	QueryRatedArticles(ctx context.Context) ([]models.Article, error)
}

// Collector reads all rated articles and partitions them by verdict.
type Collector struct {
	src FeedbackSource
}

// NewCollector creates a feedback collector over the given source.
func NewCollector(src FeedbackSource) *Collector {
	return &Collector{src: src}
}

// Collect queries every rated article and splits the set into relevant and
// not-relevant partitions. Articles without a rating are never returned by
// the source, but are skipped defensively if present.
func (c *Collector) Collect(ctx context.Context) (models.FeedbackSet, error) {
	articles, err := c.src.QueryRatedArticles(ctx)
	if err != nil {
		return models.FeedbackSet{}, fmt.Errorf("query rated articles: %w", err)
	}

	var fb models.FeedbackSet
	for _, a := range articles {
		if a.Relevant == nil {
			continue
		}
		if *a.Relevant {
			fb.Relevant = append(fb.Relevant, a)
		} else {
			fb.NotRelevant = append(fb.NotRelevant, a)
		}
	}
	return fb, nil
}
