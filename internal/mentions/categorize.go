package mentions

import (
	"sort"
	"strings"
)

// Categorize returns the sorted category tags for a candidate mention.
// It only reads the compiled tables, so concurrent calls are safe.
func (r *Rules) Categorize(name, context string) []string {
	text := strings.ToLower(name + " " + context)

	set := make(map[string]struct{}, len(r.categories)+1)
	for _, cat := range r.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				set[cat.name] = struct{}{}
				break
			}
		}
	}

	if r.nicotine.MatchString(text) {
		set[TagNicotine] = struct{}{}
		set[TagRegulatory] = struct{}{}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
