package app

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"localpulse/internal/domain"
	"localpulse/internal/pipeline/sentiment"
)

// ReviewTransformer turns raw review records into review and customer rows.
// Reviews with text go through the analyzer; reviews without text take the
// rating-based inference path. The two partitions merge into one output set.
type ReviewTransformer struct {
	analyzer *sentiment.Analyzer
	workers  int
}

func NewReviewTransformer(a *sentiment.Analyzer, workers int) *ReviewTransformer {
	if workers <= 0 {
		workers = 1
	}
	return &ReviewTransformer{analyzer: a, workers: workers}
}

// Transform maps raw reviews to (review, customer) rows plus the run's
// sentiment summary. Rows missing user_id, gmap_id or timestamp are dropped;
// duplicate review_ids keep the first occurrence.
func (t *ReviewTransformer) Transform(ctx context.Context, raws []domain.RawReview) ([]domain.Review, []domain.Customer, sentiment.Summary, error) {
	type keptReview struct {
		raw domain.RawReview
		id  string
	}
	kept := make([]keptReview, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, r := range raws {
		if r.UserID == "" || r.GmapID == "" || r.Time == 0 {
			continue
		}
		id := reviewID(r.GmapID, r.UserID, r.Time)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, keptReview{raw: r, id: id})
	}
	if dropped := len(raws) - len(kept); dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("reviews: dropped null-key/duplicate rows")
	}

	reviews := make([]domain.Review, len(kept))

	sem := semaphore.NewWeighted(int64(t.workers))
	var wg sync.WaitGroup
	for i := range kept {
		if err := sem.Acquire(ctx, 1); err != nil {
			// drain in-flight workers before abandoning the result slices
			wg.Wait()
			return nil, nil, sentiment.Summary{}, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			reviews[i] = t.transformOne(ctx, kept[i].id, kept[i].raw)
		}(i)
	}
	wg.Wait()

	// Customers dedup by customer_id, first occurrence wins.
	customers := make([]domain.Customer, 0, len(kept))
	seenCust := make(map[string]struct{}, len(kept))
	for _, k := range kept {
		if _, dup := seenCust[k.raw.UserID]; dup {
			continue
		}
		seenCust[k.raw.UserID] = struct{}{}
		customers = append(customers, domain.Customer{CustomerID: k.raw.UserID, Name: k.raw.Name})
	}

	labels := make([]sentiment.Label, len(reviews))
	for i, r := range reviews {
		labels[i] = sentiment.Label(r.SentimentLabel)
	}
	return reviews, customers, t.analyzer.Summarize(labels), nil
}

func (t *ReviewTransformer) transformOne(ctx context.Context, id string, r domain.RawReview) domain.Review {
	text := cleanText(r.Text)

	var (
		score float64
		label sentiment.Label
	)
	if text == "" {
		score, label = t.analyzer.FromRating(r.Rating)
	} else {
		score, label = t.analyzer.Analyze(ctx, text)
	}

	out := domain.Review{
		ReviewID:       id,
		BusinessID:     r.GmapID,
		CustomerID:     r.UserID,
		Time:           time.UnixMilli(r.Time).UTC(),
		Rating:         r.Rating,
		Text:           text,
		SentimentScore: score,
		SentimentLabel: string(label),
		HasResponse:    r.Resp != nil,
	}
	if r.Resp != nil {
		latency := float64(r.Resp.Time-r.Time) / 3_600_000
		out.ResponseLatencyHrs = &latency
	}
	return out
}

// reviewID is the md5 of business_id + user_id + timestamp, underscore-joined.
// Deterministic, so re-running the pipeline regenerates the same ids.
func reviewID(gmapID, userID string, ts int64) string {
	sig := strings.Join([]string{gmapID, userID, strconv.FormatInt(ts, 10)}, "_")
	sum := md5.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}

// cleanText strips NUL bytes, flattens line breaks and tabs, and trims.
func cleanText(p *string) string {
	if p == nil {
		return ""
	}
	s := strings.ReplaceAll(*p, "\x00", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}
