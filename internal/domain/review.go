package domain

import "time"

// RawResponse is the optional owner response nested inside a raw review.
type RawResponse struct {
	Time int64  `json:"time"` // epoch milliseconds
	Text string `json:"text"`
}

// RawReview is one line of the raw reviews NDJSON dump.
type RawReview struct {
	UserID string       `json:"user_id"`
	Name   string       `json:"name"`
	Time   int64        `json:"time"` // epoch milliseconds
	Rating int          `json:"rating"`
	Text   *string      `json:"text"`
	GmapID string       `json:"gmap_id"`
	Resp   *RawResponse `json:"resp"`
}

// Review is one row of the review table. ReviewID is the md5 of
// business_id + user_id + timestamp, so re-runs produce identical ids.
type Review struct {
	ReviewID           string    `json:"review_id"`
	BusinessID         string    `json:"business_id"`
	CustomerID         string    `json:"customer_id"`
	Time               time.Time `json:"time"`
	Rating             int       `json:"rating"`
	Text               string    `json:"text"`
	SentimentScore     float64   `json:"sentiment_score"`
	SentimentLabel     string    `json:"sentiment_label"` // positive|neutral|negative
	HasResponse        bool      `json:"has_response"`
	ResponseLatencyHrs *float64  `json:"response_latency_hrs"`
}

// Customer is one row of the customer table.
type Customer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}
