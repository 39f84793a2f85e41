// internal/analytics/matcher.go
package analytics

import (
	"regexp"
	"strings"

	"github.com/getcito/ai-monitor/internal/models"
)

// IsMentioned reports whether the entity's name, any alias, or its domain
// appears in text. Matching is case-insensitive substring matching; empty text
// or an entity with an empty name never matches.
func IsMentioned(text string, entity models.MatchEntity) bool {
	if text == "" || entity.Name == "" {
		return false
	}

	patterns := []string{entity.Name}
	patterns = append(patterns, entity.Aliases...)
	if entity.Domain != "" {
		patterns = append(patterns, entity.Domain)
	}

	for _, pattern := range patterns {
		if containsFold(text, pattern) {
			return true
		}
	}
	return false
}

// CountMentions sums occurrences of the entity's name plus occurrences of each
// alias in text. The domain is deliberately not counted here; domain matching
// is reserved for citation-level checks. Name and alias occurrences are counted
// independently with no overlap dedup, so "Acme" plus alias "Acme Corp" both
// count against the same span of text.
func CountMentions(text string, entity models.MatchEntity) int {
	if text == "" || entity.Name == "" {
		return 0
	}

	total := countOccurrences(text, entity.Name)
	for _, alias := range entity.Aliases {
		total += countOccurrences(text, alias)
	}
	return total
}

func countOccurrences(text, pattern string) int {
	if pattern == "" {
		return 0
	}
	re, err := compileMentionPattern(pattern)
	if err != nil {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}

// compileMentionPattern builds a case-insensitive literal pattern. QuoteMeta
// keeps names like "C++" or "Notion (beta)" from being read as metacharacters.
func compileMentionPattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)` + regexp.QuoteMeta(pattern))
}

func containsFold(text, pattern string) bool {
	if pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(pattern))
}
