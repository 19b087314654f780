package rule

import "strings"

// #region lexicons
// positiveWords and negativeWords are small polarity lexicons for the
// sentiment_positive rule. Matching is on lowercase whitespace tokens with
// leading/trailing punctuation stripped.
var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "positive": true,
	"helpful": true, "clear": true, "useful": true, "effective": true,
	"wonderful": true, "fantastic": true, "valuable": true, "reliable": true,
	"easy": true, "simple": true, "improved": true, "better": true,
	"best": true, "love": true, "like": true, "enjoy": true,
	"recommend": true, "success": true, "successful": true, "well": true,
}

var negativeWords = map[string]bool{
	"bad": true, "poor": true, "terrible": true, "negative": true,
	"useless": true, "confusing": true, "unclear": true, "broken": true,
	"awful": true, "horrible": true, "worthless": true, "unreliable": true,
	"hard": true, "difficult": true, "worse": true, "worst": true,
	"hate": true, "dislike": true, "fail": true, "failed": true,
	"failure": true, "wrong": true, "problem": true, "problems": true,
}

// #endregion lexicons

// #region sentiment-positive
// sentimentPositive estimates positive polarity in [0,1]. Text with no
// polarity signal scores the neutral midpoint 0.5, so neutral-but-acceptable
// text is not penalized as negative. With signal present the score is
// 0.5 + 0.5 * (pos - neg) / (pos + neg): all-positive text scores 1.0,
// all-negative text scores 0.0.
type sentimentPositive struct{}

func newSentimentPositive(params map[string]any) (Rule, error) {
	return &sentimentPositive{}, nil
}

func (r *sentimentPositive) Type() string { return "sentiment_positive" }

func (r *sentimentPositive) Evaluate(text string) (float64, error) {
	pos, neg := 0, 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?;:\"'()[]")
		if positiveWords[tok] {
			pos++
		} else if negativeWords[tok] {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0.5, nil
	}
	score := 0.5 + 0.5*float64(pos-neg)/float64(pos+neg)
	return clamp01(score), nil
}

// #endregion sentiment-positive
