package sentiment

import "math"

const (
	// ValidatorCount is the number of simulated validators in consensus mode.
	ValidatorCount = 5

	advancedBoost   = 1.2
	advancedJitter  = 0.1
	validatorSpread = 0.2
)

// Advanced boosts the basic confidence and jitters the three fractions before
// renormalizing them. Repeated calls on the same text may return different shares.
func (a *Analyzer) Advanced(text string) Result {
	res := a.Score(text)

	positive := res.PositivePercentage * (1 + a.float()*advancedJitter)
	negative := res.NegativePercentage * (1 + a.float()*advancedJitter)
	neutral := res.NeutralPercentage * (1 - a.float()*advancedJitter)
	positive, negative, neutral = normalize(positive, negative, neutral)

	res.Confidence = math.Min(res.Confidence*advancedBoost, 100)
	res.PositivePercentage = positive
	res.NegativePercentage = negative
	res.NeutralPercentage = neutral
	res.Model = ModeAdvanced
	return res
}

type vote struct {
	label    Label
	positive float64
	negative float64
	neutral  float64
}

// Consensus runs ValidatorCount independently perturbed scorers and aggregates them
// by majority vote. The neutral share of each validator is 1-positive-negative and is
// not clamped, so it can fall below zero for skewed texts.
func (a *Analyzer) Consensus(text string) Result {
	base := a.Score(text)

	votes := make([]vote, 0, ValidatorCount)
	for i := 0; i < ValidatorCount; i++ {
		positive := base.PositivePercentage * (1 - validatorSpread/2 + a.float()*validatorSpread)
		negative := base.NegativePercentage * (1 - validatorSpread/2 + a.float()*validatorSpread)
		neutral := 1 - positive - negative
		votes = append(votes, vote{
			label:    labelFor(positive, negative, neutral),
			positive: positive,
			negative: negative,
			neutral:  neutral,
		})
	}

	tally := map[Label]int{}
	var sumPositive, sumNegative, sumNeutral float64
	for _, v := range votes {
		tally[v.label]++
		sumPositive += v.positive
		sumNegative += v.negative
		sumNeutral += v.neutral
	}

	winner := majority(tally)
	level := float64(tally[winner]) / ValidatorCount * 100

	return Result{
		Sentiment:          winner,
		Confidence:         level,
		PositivePercentage: sumPositive / ValidatorCount,
		NegativePercentage: sumNegative / ValidatorCount,
		NeutralPercentage:  sumNeutral / ValidatorCount,
		KeyTopics:          base.KeyTopics,
		Model:              ModeBlockchain,
		ConsensusLevel:     level,
		ValidatorCount:     ValidatorCount,
	}
}

// majority resolves ties Positive first, then Negative, then Neutral.
func majority(tally map[Label]int) Label {
	p, n, u := tally[Positive], tally[Negative], tally[Neutral]
	switch {
	case p >= n && p >= u:
		return Positive
	case n >= p && n >= u:
		return Negative
	default:
		return Neutral
	}
}
