package sentiment

import (
	"math"
	"strings"
)

// neutralShare is the fraction of all tokens assumed to carry neutral weight.
const neutralShare = 0.2

// Score runs the deterministic lexicon scorer.
func (a *Analyzer) Score(text string) Result {
	counts := a.count(text)
	positive, negative, neutral := counts.fractions()

	return Result{
		Sentiment:          labelFor(positive, negative, neutral),
		Confidence:         100 * math.Max(positive, math.Max(negative, neutral)),
		PositivePercentage: positive,
		NegativePercentage: negative,
		NeutralPercentage:  neutral,
		KeyTopics:          a.ExtractTopics(text),
		Model:              ModeBasic,
	}
}

type wordCounts struct {
	tokens   int
	positive int
	negative int
}

func (a *Analyzer) count(text string) wordCounts {
	tokens := wordPattern.FindAllString(strings.ToLower(text), -1)
	c := wordCounts{tokens: len(tokens)}
	for _, tok := range tokens {
		if _, ok := a.positive[tok]; ok {
			c.positive++
		}
		if _, ok := a.negative[tok]; ok {
			c.negative++
		}
	}
	return c
}

// fractions converts counts into positive/negative/neutral shares summing to 1.
// The neutral mass never drops below one token.
func (c wordCounts) fractions() (positive, negative, neutral float64) {
	neutralCount := math.Max(float64(c.tokens)*neutralShare, 1)
	total := float64(c.positive+c.negative) + neutralCount

	positive = float64(c.positive) / total
	negative = float64(c.negative) / total
	neutral = neutralCount / total
	return normalize(positive, negative, neutral)
}

func normalize(positive, negative, neutral float64) (float64, float64, float64) {
	sum := positive + negative + neutral
	if sum == 0 {
		return 0, 0, 1
	}
	return positive / sum, negative / sum, neutral / sum
}
