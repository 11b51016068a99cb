package sentiment

// Label is the coarse polarity of a text.
type Label string

const (
	Positive Label = "Positive"
	Negative Label = "Negative"
	Neutral  Label = "Neutral"
)

// Result is the outcome of a single analysis. Percentages are fractions in [0,1];
// Confidence is on a 0-100 scale.
type Result struct {
	Sentiment          Label    `json:"sentiment"`
	Confidence         float64  `json:"confidence"`
	PositivePercentage float64  `json:"positive_percentage"`
	NegativePercentage float64  `json:"negative_percentage"`
	NeutralPercentage  float64  `json:"neutral_percentage"`
	KeyTopics          []string `json:"key_topics"`
	Model              Mode     `json:"model"`
	ConsensusLevel     float64  `json:"consensus_level,omitempty"`
	ValidatorCount     int      `json:"validator_count,omitempty"`
}

// labelFor picks the strictly greatest of the three fractions, checking Positive
// before Negative. Any tie at the top resolves to Neutral.
func labelFor(positive, negative, neutral float64) Label {
	switch {
	case positive > negative && positive > neutral:
		return Positive
	case negative > positive && negative > neutral:
		return Negative
	default:
		return Neutral
	}
}
