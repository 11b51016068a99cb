package analyses

import "strings"

// FilterByKeyword keeps the '.'-separated sentences that contain keyword, ignoring case,
// and joins them back with '.'. An empty keyword returns text unchanged.
func FilterByKeyword(text, keyword string) string {
	if keyword == "" {
		return text
	}
	needle := strings.ToLower(keyword)
	sentences := strings.Split(text, ".")
	kept := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if strings.Contains(strings.ToLower(s), needle) {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ".")
}
