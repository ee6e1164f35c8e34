// Package db provides SurrealDB query functions for article and profile operations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/curiolabs/curio-go/internal/metrics"
	"github.com/curiolabs/curio-go/internal/models"
)

// AttachMetrics wires a collector into the client so query timings are
// recorded. Safe to skip; a nil collector records nothing.
func (c *Client) AttachMetrics(m *metrics.Collector) {
	c.metrics = m
}

// GetProfile retrieves the single preference profile.
// Returns nil if no profile has been created yet.
func (c *Client) GetProfile(ctx context.Context) (*models.Profile, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.Profile](ctx, c.db, `
		SELECT * FROM type::record("profile", $id)
	`, map[string]any{"id": models.ProfileRecordID})
	c.recordQuery(start)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// UpsertProfile persists the profile as the single canonical record,
// replacing any previous content.
func (c *Client) UpsertProfile(ctx context.Context, p *models.Profile) error {
	start := time.Now()
	_, err := surrealdb.Query[[]models.Profile](ctx, c.db, `
		UPSERT type::record("profile", $id) CONTENT {
			likes: $likes,
			dislikes: $dislikes,
			changelog: $changelog,
			created_at: <datetime>$created_at,
			last_updated: <datetime>$last_updated
		}
	`, map[string]any{
		"id":           models.ProfileRecordID,
		"likes":        p.Likes,
		"dislikes":     p.Dislikes,
		"changelog":    p.Changelog,
		"created_at":   p.CreatedAt,
		"last_updated": p.LastUpdated,
	})
	c.recordQuery(start)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", wrapQueryError(err))
	}
	return nil
}

// DeleteProfile removes the profile record. Deleting an absent profile is not
// an error.
func (c *Client) DeleteProfile(ctx context.Context) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("profile", $id)
	`, map[string]any{"id": models.ProfileRecordID})
	if err != nil {
		return fmt.Errorf("delete profile: %w", wrapQueryError(err))
	}
	return nil
}

// QueryRatedArticles returns every article the user has rated either way.
func (c *Client) QueryRatedArticles(ctx context.Context) ([]models.Article, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, `
		SELECT * FROM article WHERE relevant != NONE ORDER BY created_at DESC
	`, nil)
	c.recordQuery(start)
	if err != nil {
		return nil, fmt.Errorf("query rated articles: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Article{}, nil
}

// GetArticle retrieves an article by its URL-derived key.
// Returns nil if not found.
func (c *Client) GetArticle(ctx context.Context, key string) (*models.Article, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, `
		SELECT * FROM type::record("article", $id)
	`, map[string]any{"id": key})
	c.recordQuery(start)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	return &(*results)[0].Result[0], nil
}

// UpsertArticle stores an ingested article under its URL-derived key. Fields
// written by rating or scoring are left untouched on re-ingestion.
func (c *Client) UpsertArticle(ctx context.Context, url, title, summary string) (*models.Article, error) {
	key := models.ArticleKey(url)
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, `
		UPSERT type::record("article", $id) MERGE {
			url: $url,
			title: $title,
			summary: $summary
		} RETURN AFTER
	`, map[string]any{
		"id":      key,
		"url":     url,
		"title":   title,
		"summary": summary,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert article: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("upsert article: empty result")
	}
	return &(*results)[0].Result[0], nil
}

// QueryScorableArticles returns articles that are unscored, not topic-filtered,
// and unrated, oldest first. A limit <= 0 means no limit.
func (c *Client) QueryScorableArticles(ctx context.Context, limit int) ([]models.Article, error) {
	sql := `
		SELECT * FROM article
		WHERE ai_score == NONE AND topic_filtered == false AND relevant == NONE
		ORDER BY created_at ASC
	`
	vars := map[string]any{}
	if limit > 0 {
		sql += " LIMIT $limit"
		vars["limit"] = limit
	}

	start := time.Now()
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, sql, vars)
	c.recordQuery(start)
	if err != nil {
		return nil, fmt.Errorf("query scorable articles: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Article{}, nil
}

// ListArticles returns the most recent articles up to limit.
func (c *Client) ListArticles(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, `
		SELECT * FROM article ORDER BY created_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.Article{}, nil
}

// SetRating records the user's relevance verdict for an article.
func (c *Client) SetRating(ctx context.Context, key string, relevant bool) error {
	return c.updateArticle(ctx, key, `
		UPDATE type::record("article", $id) SET relevant = $relevant RETURN AFTER
	`, map[string]any{"id": key, "relevant": relevant})
}

// ClearRating removes the user's rating so the article no longer feeds the
// learner.
func (c *Client) ClearRating(ctx context.Context, key string) error {
	return c.updateArticle(ctx, key, `
		UPDATE type::record("article", $id) SET relevant = NONE RETURN AFTER
	`, map[string]any{"id": key})
}

// UpdateArticleScore writes the scorer's result onto the article.
func (c *Client) UpdateArticleScore(ctx context.Context, key string, score int, summary string, source models.ScoreSource) (*models.Article, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, `
		UPDATE type::record("article", $id) SET
			ai_score = $score,
			ai_summary = $summary,
			ai_score_source = $source
		RETURN AFTER
	`, map[string]any{
		"id":      key,
		"score":   score,
		"summary": summary,
		"source":  string(source),
	})
	c.recordQuery(start)
	if err != nil {
		return nil, fmt.Errorf("update article score: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("update article score: %w", ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// MarkTopicFiltered records a topic-gate rejection: sets the cache flag and
// timestamp and clears any score. A filtered article keeps no ai_score.
func (c *Client) MarkTopicFiltered(ctx context.Context, key string) (*models.Article, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, `
		UPDATE type::record("article", $id) SET
			topic_filtered = true,
			topic_filtered_at = time::now(),
			ai_score = NONE,
			ai_score_source = NONE
		RETURN AFTER
	`, map[string]any{"id": key})
	c.recordQuery(start)
	if err != nil {
		return nil, fmt.Errorf("mark topic filtered: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("mark topic filtered: %w", ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

func (c *Client) updateArticle(ctx context.Context, key, sql string, vars map[string]any) error {
	results, err := surrealdb.Query[[]models.Article](ctx, c.db, sql, vars)
	if err != nil {
		return fmt.Errorf("update article %s: %w", key, wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return fmt.Errorf("update article %s: %w", key, ErrNotFound)
	}
	return nil
}

func (c *Client) recordQuery(start time.Time) {
	c.metrics.RecordTiming(metrics.OpDBQuery, time.Since(start))
}
