// ABOUTME: Lexicon sentiment scoring for reply text
// ABOUTME: Counts positive and negative words with negation handling and maps the score onto labels
package classifier

import (
	"math"
	"regexp"
	"strings"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

var positiveWords = map[string]bool{
	"great": true, "good": true, "love": true, "excellent": true, "perfect": true,
	"awesome": true, "interested": true, "excited": true, "sure": true, "yes": true,
	"happy": true, "glad": true, "helpful": true, "keen": true, "appreciate": true,
	"wonderful": true, "fantastic": true, "amazing": true, "nice": true, "impressive": true,
}

var negativeWords = map[string]bool{
	"unfortunately": true, "annoying": true, "annoyed": true, "spam": true, "stop": true,
	"terrible": true, "awful": true, "bad": true, "waste": true, "angry": true,
	"frustrated": true, "disappointed": true, "hate": true, "useless": true, "irrelevant": true,
	"expensive": true, "harassment": true, "ridiculous": true, "never": true, "worst": true,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"isn't": true, "aren't": true, "wasn't": true, "won't": true, "can't": true,
	"cannot": true, "hardly": true, "without": true, "doesn't": true, "didn't": true,
}

// negationWindow is how many preceding words can negate a sentiment word.
const negationWindow = 3

var wordPattern = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

// ScoreSentiment returns a sentiment in [-1,1]. A negated positive word
// cancels rather than counting as negative, and a negated negative word
// likewise cancels, so "not interested" is neutral on its own.
func ScoreSentiment(text string) models.Sentiment {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	pos, neg := 0, 0
	for i, w := range words {
		isPos, isNeg := positiveWords[w], negativeWords[w]
		if !isPos && !isNeg {
			continue
		}
		if negated(words, i) {
			continue
		}
		if isPos {
			pos++
		} else {
			neg++
		}
	}

	matches := pos + neg
	if matches == 0 {
		return models.Sentiment{Score: 0, Label: models.SentimentNeutral, Confidence: 0.5}
	}

	score := float64(pos-neg) / float64(matches)
	return models.Sentiment{
		Score:      score,
		Label:      SentimentLabel(score),
		Confidence: math.Min(0.95, 0.5+0.1*float64(matches)),
	}
}

func negated(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
		if negators[words[j]] {
			return true
		}
	}
	return false
}

// SentimentLabel buckets a score.
func SentimentLabel(score float64) string {
	switch {
	case score >= 0.5:
		return models.SentimentVeryPositive
	case score >= 0.2:
		return models.SentimentPositive
	case score <= -0.5:
		return models.SentimentVeryNegative
	case score <= -0.2:
		return models.SentimentNegative
	}
	return models.SentimentNeutral
}
