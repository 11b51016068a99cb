package sentiment

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumTolerance = 1e-9

type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func newTestAnalyzer(t *testing.T, src Source) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(DefaultLexicon(), src)
	require.NoError(t, err)
	return a
}

func sumOf(r Result) float64 {
	return r.PositivePercentage + r.NegativePercentage + r.NeutralPercentage
}

func TestScoreEmptyTextIsFullyNeutral(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	res := a.Score("")

	assert.Equal(t, Neutral, res.Sentiment)
	assert.Equal(t, 100.0, res.Confidence)
	assert.Equal(t, 0.0, res.PositivePercentage)
	assert.Equal(t, 0.0, res.NegativePercentage)
	assert.Equal(t, 1.0, res.NeutralPercentage)
	assert.Equal(t, []string{"General", "Miscellaneous", "Other", "Unclassified", "Various"}, res.KeyTopics)
	assert.Equal(t, ModeBasic, res.Model)
}

func TestScorePositiveText(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	res := a.Score("This is a great, wonderful, amazing product")

	assert.Equal(t, Positive, res.Sentiment)
	assert.Greater(t, res.Confidence, 50.0)
	// 7 tokens, 3 positive, neutral floor 1.4
	assert.InDelta(t, 3/4.4, res.PositivePercentage, sumTolerance)
	assert.InDelta(t, 1.0, sumOf(res), sumTolerance)
}

func TestScoreNegativeText(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	res := a.Score("This is a terrible, awful, horrible failure")

	assert.Equal(t, Negative, res.Sentiment)
	assert.InDelta(t, 4/5.4*100, res.Confidence, 1e-6)
	assert.Zero(t, res.PositivePercentage)
}

func TestScoreTiesResolveToNeutral(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	cases := map[string]string{
		"positive ties neutral floor": "good",
		"three-way tie":               "good bad",
		"positive ties negative":      "good good bad bad",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			res := a.Score(text)
			assert.Equal(t, Neutral, res.Sentiment)
		})
	}
}

func TestScoreIsCaseInsensitiveAndWordBounded(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	upper := a.Score("GREAT Great great")
	assert.Equal(t, Positive, upper.Sentiment)

	// "goodness" and "badly" are not lexicon words.
	embedded := a.Score("goodness badly")
	assert.Equal(t, Neutral, embedded.Sentiment)
	assert.Equal(t, 100.0, embedded.Confidence)
}

func TestScoreInvariantsHoldAcrossInputs(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	inputs := []string{
		"",
		"   ",
		"love love love love love",
		"hate",
		"The market crashed, which was terrible, but the recovery was impressive.",
		"数字 and 😀 emoji with good vibes",
		"bitcoin bitcoin bitcoin",
	}
	for _, in := range inputs {
		res := a.Score(in)
		assert.InDelta(t, 1.0, sumOf(res), sumTolerance, "input %q", in)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 100.0)
		assert.NotEmpty(t, res.KeyTopics)
		assert.LessOrEqual(t, len(res.KeyTopics), maxTopics)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	text := "The progress is good but the problem remains difficult."
	assert.Equal(t, a.Score(text), a.Score(text))
}

func TestAdvancedCapsConfidenceAndNormalizes(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	for i := 0; i < 50; i++ {
		res := a.Advanced("great great great great great")
		assert.LessOrEqual(t, res.Confidence, 100.0)
		assert.GreaterOrEqual(t, res.Confidence, 0.0)
		assert.InDelta(t, 1.0, sumOf(res), sumTolerance)
		assert.Equal(t, ModeAdvanced, res.Model)
	}
}

func TestAdvancedBoostsConfidence(t *testing.T) {
	a := newTestAnalyzer(t, &seqSource{vals: []float64{0.5}})

	basic := a.Score("This is a terrible, awful, horrible failure")
	adv := a.Advanced("This is a terrible, awful, horrible failure")

	assert.InDelta(t, math.Min(basic.Confidence*1.2, 100), adv.Confidence, 1e-9)
	assert.Equal(t, basic.Sentiment, adv.Sentiment)
	assert.Equal(t, basic.KeyTopics, adv.KeyTopics)
}

func TestAdvancedWithZeroJitterMatchesBasicShares(t *testing.T) {
	a := newTestAnalyzer(t, &seqSource{vals: []float64{0}})

	basic := a.Score("good news about the market")
	adv := a.Advanced("good news about the market")

	assert.InDelta(t, basic.PositivePercentage, adv.PositivePercentage, sumTolerance)
	assert.InDelta(t, basic.NeutralPercentage, adv.NeutralPercentage, sumTolerance)
}

func TestConsensusLevelIsMultipleOfTwenty(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	allowed := map[float64]bool{20: true, 40: true, 60: true, 80: true, 100: true}

	texts := []string{"", "good", "good bad", "great product, terrible support", "awful"}
	for i := 0; i < 40; i++ {
		res := a.Consensus(texts[i%len(texts)])
		assert.True(t, allowed[res.ConsensusLevel], "level %v", res.ConsensusLevel)
		assert.Equal(t, res.ConsensusLevel, res.Confidence)
		assert.Equal(t, ValidatorCount, res.ValidatorCount)
		assert.Equal(t, ModeBlockchain, res.Model)
	}
}

func TestConsensusUnanimousWithoutJitter(t *testing.T) {
	// 0.5 maps to a multiplier of exactly 1.
	a := newTestAnalyzer(t, &seqSource{vals: []float64{0.5}})

	res := a.Consensus("great wonderful amazing")

	assert.Equal(t, Positive, res.Sentiment)
	assert.Equal(t, 100.0, res.ConsensusLevel)
	assert.InDelta(t, 0.75, res.PositivePercentage, sumTolerance)
	assert.InDelta(t, 0.25, res.NeutralPercentage, sumTolerance)
}

func TestConsensusSplitVote(t *testing.T) {
	// "good": positive 0.5, neutral 0.5 before jitter. Validators whose positive
	// multiplier exceeds 1 vote Positive; the others vote Neutral.
	src := &seqSource{vals: []float64{
		0.9, 0.5, // up -> Positive
		0.1, 0.5, // down -> Neutral
		0.8, 0.5, // up -> Positive
		0.2, 0.5, // down -> Neutral
		0.3, 0.5, // down -> Neutral
	}}
	a := newTestAnalyzer(t, src)

	res := a.Consensus("good")

	assert.Equal(t, Neutral, res.Sentiment)
	assert.Equal(t, 60.0, res.ConsensusLevel)
}

func TestMajorityTieBreakOrder(t *testing.T) {
	assert.Equal(t, Positive, majority(map[Label]int{Positive: 2, Negative: 2, Neutral: 1}))
	assert.Equal(t, Negative, majority(map[Label]int{Positive: 1, Negative: 2, Neutral: 2}))
	assert.Equal(t, Positive, majority(map[Label]int{Positive: 2, Negative: 1, Neutral: 2}))
	assert.Equal(t, Neutral, majority(map[Label]int{Neutral: 5}))
}

func TestAnalyzeDispatchesByMode(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	ctx := context.Background()

	for _, mode := range Modes() {
		res, err := a.Analyze(ctx, "a wonderful day", mode)
		require.NoError(t, err)
		assert.Equal(t, mode, res.Model)
	}

	_, err := a.Analyze(ctx, "text", Mode("quantum"))
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestAnalyzeRejectsInvalidUTF8(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	_, err := a.Analyze(context.Background(), string([]byte{0xff, 0xfe, 'a'}), ModeBasic)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzePacingHonorsCancellation(t *testing.T) {
	a := newTestAnalyzer(t, nil)
	a.Pacing = Pacing{Basic: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := a.Analyze(ctx, "good", ModeBasic)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":           ModeBasic,
		"basic":      ModeBasic,
		" Advanced ": ModeAdvanced,
		"BLOCKCHAIN": ModeBlockchain,
		"consensus":  ModeBlockchain,
	}
	for raw, want := range cases {
		got, err := ParseMode(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseMode("gpt")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
