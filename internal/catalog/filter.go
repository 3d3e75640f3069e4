package catalog

import (
	"strings"

	"github.com/vbonduro/lostfound/internal/domain"
)

// Filter returns the items whose title, description or location contains query
// (case-insensitive) and whose category equals category. An empty query or
// category matches everything. Surviving items keep their input order and the
// input slice is left untouched.
func Filter(items []*domain.Item, query string, category domain.Category) []*domain.Item {
	needle := strings.ToLower(query)
	out := make([]*domain.Item, 0, len(items))
	for _, item := range items {
		if category != "" && item.Category != category {
			continue
		}
		if !matchesQuery(item, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesQuery(item *domain.Item, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Title), needle) ||
		strings.Contains(strings.ToLower(item.Description), needle) ||
		strings.Contains(strings.ToLower(item.Location), needle)
}
