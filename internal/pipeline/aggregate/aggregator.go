// Package aggregate rolls per-review sentiment up into monthly, yearly and
// all-time statistics per business.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"localpulse/internal/domain"
	"localpulse/internal/pipeline/sentiment"
)

// bucket accumulates one (business, grain) group.
type bucket struct {
	total    int
	positive int
	neutral  int
	negative int
	scoreSum float64
}

func (b *bucket) add(r domain.Review) {
	b.total++
	b.scoreSum += r.SentimentScore
	switch sentiment.Label(r.SentimentLabel) {
	case sentiment.Positive:
		b.positive++
	case sentiment.Negative:
		b.negative++
	default:
		b.neutral++
	}
}

// stats materializes the shared rollup shape. Percentages are rounded
// independently to 2 decimals; the three need not sum to exactly 100.
func (b *bucket) stats(businessID string) domain.SentimentStats {
	return domain.SentimentStats{
		BusinessID:    businessID,
		TotalReviews:  b.total,
		PositiveCount: b.positive,
		NeutralCount:  b.neutral,
		NegativeCount: b.negative,
		PositivePct:   round2(float64(b.positive) * 100 / float64(b.total)),
		NeutralPct:    round2(float64(b.neutral) * 100 / float64(b.total)),
		NegativePct:   round2(float64(b.negative) * 100 / float64(b.total)),
		AvgSentiment:  round4(b.scoreSum / float64(b.total)),
	}
}

// validate enforces the aggregation contract. A row missing its grouping or
// sentiment fields means upstream schema drift, which must abort the run
// rather than be silently skipped.
func validate(reviews []domain.Review) error {
	for i, r := range reviews {
		switch {
		case r.BusinessID == "":
			return fmt.Errorf("aggregate: row %d has no business_id", i)
		case r.Time.IsZero():
			return fmt.Errorf("aggregate: row %d has no timestamp", i)
		}
		switch sentiment.Label(r.SentimentLabel) {
		case sentiment.Positive, sentiment.Neutral, sentiment.Negative:
		default:
			return fmt.Errorf("aggregate: row %d has invalid sentiment_label %q", i, r.SentimentLabel)
		}
	}
	return nil
}

// Monthly groups by (business_id, year, month), sorted ascending.
func Monthly(reviews []domain.Review) ([]domain.StatsMonthly, error) {
	if err := validate(reviews); err != nil {
		return nil, err
	}

	type key struct {
		id    string
		year  int
		month int
	}
	buckets := make(map[key]*bucket)
	for _, r := range reviews {
		k := key{r.BusinessID, r.Time.Year(), int(r.Time.Month())}
		b := buckets[k]
		if b == nil {
			b = &bucket{}
			buckets[k] = b
		}
		b.add(r)
	}

	out := make([]domain.StatsMonthly, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, domain.StatsMonthly{
			SentimentStats: b.stats(k.id),
			Year:           k.year,
			Month:          k.month,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BusinessID != out[j].BusinessID {
			return out[i].BusinessID < out[j].BusinessID
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

// Yearly groups by (business_id, year), sorted ascending.
func Yearly(reviews []domain.Review) ([]domain.StatsYearly, error) {
	if err := validate(reviews); err != nil {
		return nil, err
	}

	type key struct {
		id   string
		year int
	}
	buckets := make(map[key]*bucket)
	for _, r := range reviews {
		k := key{r.BusinessID, r.Time.Year()}
		b := buckets[k]
		if b == nil {
			b = &bucket{}
			buckets[k] = b
		}
		b.add(r)
	}

	out := make([]domain.StatsYearly, 0, len(buckets))
	for k, b := range buckets {
		out = append(out, domain.StatsYearly{
			SentimentStats: b.stats(k.id),
			Year:           k.year,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BusinessID != out[j].BusinessID {
			return out[i].BusinessID < out[j].BusinessID
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

// Total groups by business_id only, joined with the first/last review dates,
// sorted ascending by business_id.
func Total(reviews []domain.Review) ([]domain.StatsTotal, error) {
	if err := validate(reviews); err != nil {
		return nil, err
	}

	type span struct {
		first, last time.Time
	}
	buckets := make(map[string]*bucket)
	spans := make(map[string]*span)
	for _, r := range reviews {
		b := buckets[r.BusinessID]
		if b == nil {
			b = &bucket{}
			buckets[r.BusinessID] = b
			spans[r.BusinessID] = &span{first: r.Time, last: r.Time}
		}
		b.add(r)
		s := spans[r.BusinessID]
		if r.Time.Before(s.first) {
			s.first = r.Time
		}
		if r.Time.After(s.last) {
			s.last = r.Time
		}
	}

	out := make([]domain.StatsTotal, 0, len(buckets))
	for id, b := range buckets {
		s := spans[id]
		first := toDate(s.first)
		last := toDate(s.last)
		out = append(out, domain.StatsTotal{
			SentimentStats:  b.stats(id),
			FirstReviewDate: &first,
			LastReviewDate:  &last,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessID < out[j].BusinessID })
	return out, nil
}

// All produces the three rollups from one validated pass over the input.
func All(reviews []domain.Review) ([]domain.StatsMonthly, []domain.StatsYearly, []domain.StatsTotal, error) {
	monthly, err := Monthly(reviews)
	if err != nil {
		return nil, nil, nil, err
	}
	yearly, err := Yearly(reviews)
	if err != nil {
		return nil, nil, nil, err
	}
	total, err := Total(reviews)
	if err != nil {
		return nil, nil, nil, err
	}
	return monthly, yearly, total, nil
}

// toDate truncates to the UTC calendar date, matching the warehouse DATE columns.
func toDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
func round4(f float64) float64 { return math.Round(f*10000) / 10000 }
