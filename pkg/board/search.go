package board

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/grovetools/board/pkg/models"
)

// Search returns the items whose title matches query, keeping view order.
// A title matches when it contains the query, or when one of its words is
// within a small edit distance of it (one edit per four runes of query).
func Search(items []models.Item, query string) []models.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]models.Item, len(items))
		copy(out, items)
		return out
	}

	maxDistance := utf8.RuneCountInString(query) / 4
	var out []models.Item
	for _, item := range items {
		if titleMatches(strings.ToLower(item.Title), query, maxDistance) {
			out = append(out, item)
		}
	}
	return out
}

func titleMatches(title, query string, maxDistance int) bool {
	if strings.Contains(title, query) {
		return true
	}
	if maxDistance == 0 {
		return false
	}
	for _, word := range strings.Fields(title) {
		if levenshtein.ComputeDistance(word, query) <= maxDistance {
			return true
		}
	}
	return false
}
