package sentiment

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Topic is a named category backed by a keyword list.
type Topic struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Lexicon holds the word lists used for scoring and topic extraction.
// Topic order is significant: it breaks ties between equally ranked topics.
type Lexicon struct {
	Positive       []string `yaml:"positive" json:"positive"`
	Negative       []string `yaml:"negative" json:"negative"`
	Topics         []Topic  `yaml:"topics" json:"topics"`
	FallbackTopics []string `yaml:"fallback_topics" json:"fallbackTopics"`
}

var defaultFallbackTopics = []string{"General", "Miscellaneous", "Other", "Unclassified", "Various"}

// DefaultLexicon returns a fresh copy of the embedded lexicon.
func DefaultLexicon() Lexicon {
	lex, err := ParseLexicon(defaultLexiconYAML)
	if err != nil {
		panic(fmt.Sprintf("sentiment: embedded lexicon invalid: %v", err))
	}
	return lex
}

// LoadLexicon reads a YAML lexicon from disk. An empty path yields the default lexicon.
func LoadLexicon(path string) (Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLexicon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return Lexicon{}, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// ParseLexicon decodes and validates a YAML lexicon.
func ParseLexicon(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon: %w", err)
	}
	lex.normalize()
	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

// Validate reports whether the lexicon can back an Analyzer.
func (l Lexicon) Validate() error {
	if len(l.Positive) == 0 {
		return errors.New("lexicon: positive word list is empty")
	}
	if len(l.Negative) == 0 {
		return errors.New("lexicon: negative word list is empty")
	}
	if len(l.Topics) == 0 {
		return errors.New("lexicon: no topics defined")
	}
	seen := make(map[string]struct{}, len(l.Topics))
	for i, t := range l.Topics {
		if t.Name == "" {
			return fmt.Errorf("lexicon: topic %d has no name", i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("lexicon: duplicate topic %q", t.Name)
		}
		seen[t.Name] = struct{}{}
		if len(t.Keywords) == 0 {
			return fmt.Errorf("lexicon: topic %q has no keywords", t.Name)
		}
	}
	return nil
}

func (l *Lexicon) normalize() {
	l.Positive = lowerAll(l.Positive)
	l.Negative = lowerAll(l.Negative)
	for i := range l.Topics {
		l.Topics[i].Name = strings.TrimSpace(l.Topics[i].Name)
		l.Topics[i].Keywords = lowerAll(l.Topics[i].Keywords)
	}
	if len(l.FallbackTopics) == 0 {
		l.FallbackTopics = append([]string(nil), defaultFallbackTopics...)
	}
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (l Lexicon) clone() Lexicon {
	out := Lexicon{
		Positive:       append([]string(nil), l.Positive...),
		Negative:       append([]string(nil), l.Negative...),
		FallbackTopics: append([]string(nil), l.FallbackTopics...),
		Topics:         make([]Topic, len(l.Topics)),
	}
	for i, t := range l.Topics {
		out.Topics[i] = Topic{Name: t.Name, Keywords: append([]string(nil), t.Keywords...)}
	}
	return out
}
