package llm

import (
	"fmt"
	"regexp"
	"strings"
)

// ExtractJSONObject returns the first balanced JSON object embedded in s.
// Models often wrap JSON in prose or markdown fences; callers get the bare
// object either way.
func ExtractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}

var (
	yesToken = regexp.MustCompile(`\byes\b`)
	noToken  = regexp.MustCompile(`\bno\b`)
)

// ParseYesNo checks a response for an unambiguous yes or no token. ok is
// false when both or neither appear.
func ParseYesNo(s string) (yes bool, ok bool) {
	lower := strings.ToLower(s)
	hasYes := yesToken.MatchString(lower)
	hasNo := noToken.MatchString(lower)
	if hasYes == hasNo {
		return false, false
	}
	return hasYes, true
}
