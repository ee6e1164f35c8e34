package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ScoreSource distinguishes genuine model scores from the neutral fallback the
// scorer emits when every parse attempt failed.
type ScoreSource string

const (
	ScoreSourceModel    ScoreSource = "model"
	ScoreSourceFallback ScoreSource = "fallback"
)

// Article is one ingested content item. Ingestion and full-content scraping
// happen upstream; Curio reads Title/Summary and writes the AI fields.
type Article struct {
	ID      surrealmodels.RecordID `json:"id,omitempty"`
	URL     string                 `json:"url"`
	Title   string                 `json:"title"`
	Summary string                 `json:"summary,omitempty"`

	// Relevant is the user's rating: nil means unrated.
	Relevant *bool `json:"relevant,omitempty"`

	// AIScore is nil until the scorer assigns an integer in [1,10].
	AIScore       *int        `json:"ai_score,omitempty"`
	AISummary     string      `json:"ai_summary,omitempty"`
	AIScoreSource ScoreSource `json:"ai_score_source,omitempty"`

	// TopicFiltered marks an article rejected by the topic gate. Once set the
	// article never re-enters the scoring pipeline.
	TopicFiltered   bool       `json:"topic_filtered"`
	TopicFilteredAt *time.Time `json:"topic_filtered_at,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Rated reports whether the user has rated this article either way.
func (a *Article) Rated() bool {
	return a.Relevant != nil
}

// Scored reports whether the scorer has assigned a score.
func (a *Article) Scored() bool {
	return a.AIScore != nil
}

// FeedbackSet partitions rated articles by the user's verdict.
type FeedbackSet struct {
	Relevant    []Article
	NotRelevant []Article
}

// Counts returns the size of each partition.
func (f FeedbackSet) Counts() (relevant, notRelevant int) {
	return len(f.Relevant), len(f.NotRelevant)
}
