package domain

import "time"

// SentimentStats is the shared shape of one rollup row: counts, percentages
// and average score for a single (business, grain) bucket. The three
// percentages are rounded independently and may not sum to exactly 100.
type SentimentStats struct {
	BusinessID    string  `json:"business_id"`
	TotalReviews  int     `json:"total_reviews"`
	PositiveCount int     `json:"positive_count"`
	NeutralCount  int     `json:"neutral_count"`
	NegativeCount int     `json:"negative_count"`
	PositivePct   float64 `json:"positive_pct"`
	NeutralPct    float64 `json:"neutral_pct"`
	NegativePct   float64 `json:"negative_pct"`
	AvgSentiment  float64 `json:"avg_sentiment"`
}

// StatsMonthly is one row of stats_monthly.
type StatsMonthly struct {
	SentimentStats
	Year  int `json:"year"`
	Month int `json:"month"`
}

// StatsYearly is one row of stats_yearly.
type StatsYearly struct {
	SentimentStats
	Year int `json:"year"`
}

// StatsTotal is one row of stats_total. The date bounds are nil only on the
// zero-valued rollup the API returns for a business with no reviews.
type StatsTotal struct {
	SentimentStats
	FirstReviewDate *time.Time `json:"first_review_date"`
	LastReviewDate  *time.Time `json:"last_review_date"`
}
