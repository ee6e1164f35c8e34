package models

import (
	"fmt"
	"regexp"
	"strings"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

var nonKeyChars = regexp.MustCompile(`[^a-z0-9\-]`)

// Slugify normalizes a string for use in record IDs.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	return nonKeyChars.ReplaceAllString(s, "")
}

// ArticleKey derives the stable article identity from its source URL. The key
// is what prevents the same article from being ingested or scored twice.
func ArticleKey(url string) string {
	s := strings.TrimSpace(url)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ".", "-")
	return Slugify(s)
}

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

// MustRecordIDString extracts the string ID, panicking if not a string. Use
// only after DB operations that are known to return string IDs.
func MustRecordIDString(id surrealmodels.RecordID) string {
	s, err := RecordIDString(id)
	if err != nil {
		panic(err)
	}
	return s
}
