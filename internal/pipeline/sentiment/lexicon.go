package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// lexicon is the rule-based fallback strategy: a fixed polarity word list with
// light negation and booster handling. The raw compound score lands in [-1,1]
// and is rescaled to [0,1].
type lexicon struct{}

func newLexicon() *lexicon { return &lexicon{} }

// normalization constant for the compound score, same role as VADER's alpha.
const compoundAlpha = 15.0

// negationScope is how many following tokens a negator flips.
const negationScope = 3

// negationDamp flips and dampens a negated valence.
const negationDamp = -0.74

func (l *lexicon) scoreText(_ context.Context, text string) (float64, error) {
	tokens := tokenize(text)

	var (
		sum      float64
		negLeft  int // tokens remaining under a negator
		boost    float64
	)
	for _, tok := range tokens {
		if negLeft > 0 {
			negLeft--
		}
		if _, ok := negators[tok]; ok {
			negLeft = negationScope
			boost = 0
			continue
		}
		if b, ok := boosters[tok]; ok {
			boost += b
			continue
		}
		v, ok := valences[tok]
		if !ok {
			boost = 0
			continue
		}
		if v > 0 {
			v += boost
		} else {
			v -= boost
		}
		boost = 0
		if negLeft > 0 {
			v *= negationDamp
			negLeft = 0
		}
		sum += v
	}

	compound := sum / math.Sqrt(sum*sum+compoundAlpha)
	return round4((compound + 1) / 2), nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "neither": {}, "nor": {},
	"nothing": {}, "nowhere": {}, "hardly": {}, "barely": {}, "without": {},
	"isn't": {}, "wasn't": {}, "aren't": {}, "weren't": {}, "don't": {},
	"doesn't": {}, "didn't": {}, "can't": {}, "couldn't": {}, "won't": {},
	"wouldn't": {}, "shouldn't": {}, "ain't": {}, "cannot": {},
}

// boosters nudge the next sentiment-bearing word up or down.
var boosters = map[string]float64{
	"absolutely": 0.3, "amazingly": 0.3, "completely": 0.3, "extremely": 0.3,
	"really": 0.3, "so": 0.3, "totally": 0.3, "truly": 0.3, "very": 0.3,
	"incredibly": 0.3, "super": 0.3, "highly": 0.3,
	"almost": -0.3, "kind": -0.3, "kinda": -0.3, "marginally": -0.3,
	"slightly": -0.3, "somewhat": -0.3, "sort": -0.3, "barely": -0.3,
}

// valences is the polarity list, roughly on the [-4,4] scale common to
// rule-based sentiment lexicons, trimmed to review vocabulary.
var valences = map[string]float64{
	// positive
	"amazing": 2.8, "awesome": 3.1, "best": 3.2, "better": 1.9,
	"brilliant": 2.8, "clean": 1.7, "comfortable": 1.8, "convenient": 1.6,
	"courteous": 1.9, "delicious": 2.7, "delightful": 2.8, "enjoy": 2.0,
	"enjoyed": 2.0, "excellent": 3.1, "exceptional": 2.9, "fabulous": 2.9,
	"fantastic": 3.0, "fast": 1.4, "favorite": 2.3, "fresh": 1.7,
	"friendly": 2.2, "fun": 2.3, "glad": 2.0, "good": 1.9, "great": 3.1,
	"happy": 2.7, "helpful": 1.9, "impressed": 2.2, "impressive": 2.3,
	"incredible": 2.8, "like": 1.5, "liked": 1.5, "love": 3.2, "loved": 2.9,
	"lovely": 2.8, "nice": 1.8, "outstanding": 3.1, "perfect": 3.2,
	"pleasant": 2.2, "pleased": 2.1, "professional": 1.6, "prompt": 1.5,
	"recommend": 2.0, "recommended": 2.0, "satisfied": 2.0, "superb": 3.1,
	"tasty": 2.2, "terrific": 2.9, "thank": 1.8, "thanks": 1.8,
	"welcoming": 2.0, "wonderful": 2.9,
	// negative
	"appalling": -3.0, "avoid": -1.8, "awful": -3.0, "bad": -2.5,
	"broken": -1.8, "cold": -1.2, "complaint": -1.6, "dirty": -2.2,
	"disappointed": -2.2, "disappointing": -2.2, "disgusting": -3.1,
	"dishonest": -2.4, "expensive": -1.3, "filthy": -2.8, "gross": -2.4,
	"hate": -2.7, "hated": -2.7, "horrible": -2.9, "mediocre": -1.5,
	"mess": -1.6, "nasty": -2.5, "overpriced": -1.9, "pathetic": -2.5,
	"poor": -2.1, "problem": -1.4, "refund": -1.2, "ripoff": -2.6,
	"rude": -2.6, "scam": -2.9, "slow": -1.4, "stale": -1.9,
	"terrible": -2.6, "unacceptable": -2.4, "unfriendly": -2.1,
	"unhelpful": -1.9, "unprofessional": -2.3, "waste": -2.2,
	"worst": -3.1, "worse": -2.1, "wrong": -1.7,
}
