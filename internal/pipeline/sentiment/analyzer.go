// Package sentiment scores review text to a [0,1] sentiment value and a
// tri-state label. A model-backed strategy is preferred; a rule-based lexicon
// strategy takes over when the model cannot be reached. The downgrade happens
// once, at construction, never per record.
package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
)

// Label is the tri-state sentiment classification.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

const (
	DefaultPositiveThreshold = 0.6
	DefaultNegativeThreshold = 0.4

	// neutralScore is the defined default for empty text and for any
	// per-record scoring failure.
	neutralScore = 0.5
)

// scorer is one scoring strategy: text in, [0,1] score out.
type scorer interface {
	scoreText(ctx context.Context, text string) (float64, error)
}

// Analyzer scores text with the strategy selected at construction.
// Safe for concurrent use.
type Analyzer struct {
	strategy scorer
	method   string // "model" | "lexicon"
	pos, neg float64
}

// Options configures an Analyzer. ModelURL empty means lexicon-only. Nil
// thresholds take the defaults; an explicit zero is honored (a zero negative
// threshold means no score ever labels negative).
type Options struct {
	ModelURL          string
	ModelRPS          int
	PositiveThreshold *float64
	NegativeThreshold *float64
}

// New builds an Analyzer. When a model URL is configured the model server is
// probed once; any probe failure downgrades to the lexicon strategy with a
// warning, and the chosen method is recorded for observability.
func New(ctx context.Context, opts Options) *Analyzer {
	a := &Analyzer{
		pos: DefaultPositiveThreshold,
		neg: DefaultNegativeThreshold,
	}
	if opts.PositiveThreshold != nil {
		a.pos = *opts.PositiveThreshold
	}
	if opts.NegativeThreshold != nil {
		a.neg = *opts.NegativeThreshold
	}

	if opts.ModelURL != "" {
		mc := newModelClient(opts.ModelURL, opts.ModelRPS)
		if err := mc.healthz(ctx); err != nil {
			log.Warn().Err(err).Str("base", opts.ModelURL).
				Msg("sentiment model unavailable, falling back to lexicon")
		} else {
			a.strategy = mc
			a.method = "model"
			log.Info().Str("base", opts.ModelURL).Msg("sentiment model ready")
			return a
		}
	}

	a.strategy = newLexicon()
	a.method = "lexicon"
	return a
}

// Method reports which strategy the analyzer settled on.
func (a *Analyzer) Method() string { return a.method }

// Analyze scores one text. Empty or whitespace-only text short-circuits to
// (0.5, neutral) without touching either strategy, and a per-record strategy
// error is degraded to the same default rather than aborting the batch.
func (a *Analyzer) Analyze(ctx context.Context, text string) (float64, Label) {
	if strings.TrimSpace(text) == "" {
		return neutralScore, Neutral
	}
	score, err := a.strategy.scoreText(ctx, text)
	if err != nil {
		log.Debug().Err(err).Msg("sentiment scoring failed, defaulting to neutral")
		return neutralScore, Neutral
	}
	return score, a.labelFor(score)
}

// FromRating is the inference path for reviews with no text: the star rating
// alone decides the sentiment. Ratings outside 1..5 (a missing rating field
// decodes to 0) get the neutral default, keeping the score in [0,1].
func (a *Analyzer) FromRating(rating int) (float64, Label) {
	if rating < 1 || rating > 5 {
		return neutralScore, Neutral
	}
	score := float64(rating-1) / 4
	switch {
	case float64(rating) > 3.5:
		return score, Positive
	case float64(rating) < 2.5:
		return score, Negative
	default:
		return score, Neutral
	}
}

// labelFor applies the thresholds. Values exactly at a threshold are neutral.
func (a *Analyzer) labelFor(score float64) Label {
	switch {
	case score > a.pos:
		return Positive
	case score < a.neg:
		return Negative
	default:
		return Neutral
	}
}

// Summary is the per-run sentiment breakdown logged after the reviews stage.
type Summary struct {
	Method      string
	Total       int
	Positive    int
	Neutral     int
	Negative    int
	PositivePct float64
	NeutralPct  float64
	NegativePct float64
}

// Summarize counts labels into a Summary with 2-decimal percentages.
func (a *Analyzer) Summarize(labels []Label) Summary {
	s := Summary{Method: a.method, Total: len(labels)}
	for _, l := range labels {
		switch l {
		case Positive:
			s.Positive++
		case Negative:
			s.Negative++
		default:
			s.Neutral++
		}
	}
	if s.Total > 0 {
		s.PositivePct = round2(float64(s.Positive) * 100 / float64(s.Total))
		s.NeutralPct = round2(float64(s.Neutral) * 100 / float64(s.Total))
		s.NegativePct = round2(float64(s.Negative) * 100 / float64(s.Total))
	}
	return s
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round4(f float64) float64 { return math.Round(f*10000) / 10000 }
