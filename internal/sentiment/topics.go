package sentiment

import (
	"sort"
	"strings"
)

// maxTopics bounds the number of topic tags returned.
const maxTopics = 5

// TopicCount pairs a topic name with its keyword hit count.
type TopicCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopicCounts returns per-topic keyword hit counts, ranked by descending count.
// Equal counts keep lexicon declaration order.
func (a *Analyzer) TopicCounts(text string) []TopicCount {
	normalized := strings.ToLower(text)
	counts := make([]TopicCount, len(a.topics))
	for i, t := range a.topics {
		n := 0
		for _, re := range t.patterns {
			n += len(re.FindAllStringIndex(normalized, -1))
		}
		counts[i] = TopicCount{Name: t.name, Count: n}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// ExtractTopics returns up to five topic names, most frequent first. When no keyword
// matches at all, the lexicon's fallback tags are returned instead.
func (a *Analyzer) ExtractTopics(text string) []string {
	counts := a.TopicCounts(text)
	if len(counts) == 0 || counts[0].Count == 0 {
		return append([]string(nil), a.fallback...)
	}
	n := len(counts)
	if n > maxTopics {
		n = maxTopics
	}
	out := make([]string, 0, n)
	for _, c := range counts[:n] {
		out = append(out, c.Name)
	}
	return out
}
