// Package models defines data structures for the Curio personalization pipeline.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// MaxPreferenceEntries caps the likes and dislikes lists. The evolver truncates
// oversized model output instead of rejecting it.
const MaxPreferenceEntries = 15

// ProfileRecordID is the fixed identity of the single per-user profile record.
const ProfileRecordID = "user"

// Profile is the durable record of a user's content preferences, derived from
// rated articles. There is at most one per user.
type Profile struct {
	ID          surrealmodels.RecordID `json:"id,omitempty"`
	Likes       []string               `json:"likes"`
	Dislikes    []string               `json:"dislikes"`
	Changelog   string                 `json:"changelog"`
	CreatedAt   time.Time              `json:"created_at"`
	LastUpdated time.Time              `json:"last_updated"`
}

// ClampPreferences truncates likes and dislikes to MaxPreferenceEntries.
func (p *Profile) ClampPreferences() {
	if len(p.Likes) > MaxPreferenceEntries {
		p.Likes = p.Likes[:MaxPreferenceEntries]
	}
	if len(p.Dislikes) > MaxPreferenceEntries {
		p.Dislikes = p.Dislikes[:MaxPreferenceEntries]
	}
}
