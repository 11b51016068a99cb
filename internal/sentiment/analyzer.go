// Package sentiment implements the lexicon-based sentiment scorer, the keyword topic
// extractor and the advanced/consensus variants built on top of them.
package sentiment

import (
	"context"
	"math/rand/v2"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`\w+`)

// Source supplies uniform floats in [0,1) to the non-deterministic variants.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Pacing holds the artificial per-mode delays applied before an analysis returns.
type Pacing struct {
	Basic      time.Duration
	Advanced   time.Duration
	Blockchain time.Duration
}

// DefaultPacing mirrors the delays the web demo used to pace its UI.
func DefaultPacing() Pacing {
	return Pacing{
		Basic:      800 * time.Millisecond,
		Advanced:   1500 * time.Millisecond,
		Blockchain: 2500 * time.Millisecond,
	}
}

func (p Pacing) forMode(mode Mode) time.Duration {
	switch mode {
	case ModeAdvanced:
		return p.Advanced
	case ModeBlockchain:
		return p.Blockchain
	default:
		return p.Basic
	}
}

type topicMatcher struct {
	name     string
	patterns []*regexp.Regexp
}

// Analyzer scores text against a fixed lexicon. It is safe for concurrent use.
type Analyzer struct {
	lexicon  Lexicon
	positive map[string]struct{}
	negative map[string]struct{}
	topics   []topicMatcher
	fallback []string

	rngMu sync.Mutex
	rng   Source

	// Pacing delays are skipped when zero.
	Pacing Pacing
}

// NewAnalyzer builds an Analyzer over the given lexicon. A nil source uses the
// process-wide random generator.
func NewAnalyzer(lex Lexicon, src Source) (*Analyzer, error) {
	lex = lex.clone()
	lex.normalize()
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = globalSource{}
	}
	a := &Analyzer{
		lexicon:  lex,
		positive: toSet(lex.Positive),
		negative: toSet(lex.Negative),
		fallback: append([]string(nil), lex.FallbackTopics...),
		rng:      src,
	}
	for _, t := range lex.Topics {
		m := topicMatcher{name: t.Name, patterns: make([]*regexp.Regexp, 0, len(t.Keywords))}
		for _, kw := range t.Keywords {
			m.patterns = append(m.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		a.topics = append(a.topics, m)
	}
	return a, nil
}

// NewDefaultAnalyzer builds an Analyzer over the embedded lexicon.
func NewDefaultAnalyzer() *Analyzer {
	a, err := NewAnalyzer(DefaultLexicon(), nil)
	if err != nil {
		panic(err)
	}
	return a
}

// Lexicon returns a copy of the analyzer's lexicon.
func (a *Analyzer) Lexicon() Lexicon {
	return a.lexicon.clone()
}

// Analyze runs the variant selected by mode. Text must be valid UTF-8; empty text is
// valid and scores as fully neutral.
func (a *Analyzer) Analyze(ctx context.Context, text string, mode Mode) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !utf8.ValidString(text) {
		return Result{}, ErrInvalidInput
	}

	var res Result
	switch mode {
	case ModeBasic:
		res = a.Score(text)
	case ModeAdvanced:
		res = a.Advanced(text)
	case ModeBlockchain:
		res = a.Consensus(text)
	default:
		return Result{}, ErrInvalidMode
	}

	if err := a.pace(ctx, mode); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (a *Analyzer) pace(ctx context.Context, mode Mode) error {
	d := a.Pacing.forMode(mode)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Analyzer) float() float64 {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.rng.Float64()
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
