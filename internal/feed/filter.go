package feed

import (
	"strings"

	"github.com/samber/lo"
)

// MatchEntries returns the entries whose title or summary contains the
// keyword, case-insensitively. Input order is preserved. An empty
// keyword matches nothing.
func MatchEntries(entries []Entry, keyword string) []Entry {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}
	return lo.Filter(entries, func(e Entry, _ int) bool {
		return strings.Contains(strings.ToLower(e.Title), needle) ||
			strings.Contains(strings.ToLower(e.Summary), needle)
	})
}
