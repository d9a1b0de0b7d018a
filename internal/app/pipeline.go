package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"localpulse/internal/adapters/observability"
	"localpulse/internal/domain"
	"localpulse/internal/pipeline/aggregate"
)

// Pipeline runs the batch: metadata stage, reviews stage, aggregation stage.
// Every entity is rebuilt from the raw inputs on each run; the repository
// handles append/replace semantics per table.
type Pipeline struct {
	repo domain.WarehouseRepository
	meta *MetadataTransformer
	revs *ReviewTransformer
}

func NewPipeline(repo domain.WarehouseRepository, meta *MetadataTransformer, revs *ReviewTransformer) *Pipeline {
	return &Pipeline{repo: repo, meta: meta, revs: revs}
}

// Run executes all three stages. Dimensions load first so review rows land on
// existing business keys. A stage error aborts the run; earlier stages'
// writes are left as-is (each load is atomic per table, the run is not).
func (p *Pipeline) Run(ctx context.Context, rawBusinesses []domain.RawBusiness, rawReviews []domain.RawReview) error {
	if err := p.RunMetadata(ctx, rawBusinesses); err != nil {
		return fmt.Errorf("metadata stage: %w", err)
	}
	reviews, err := p.RunReviews(ctx, rawReviews)
	if err != nil {
		return fmt.Errorf("reviews stage: %w", err)
	}
	if err := p.RunAggregations(ctx, reviews); err != nil {
		return fmt.Errorf("aggregation stage: %w", err)
	}
	return nil
}

// RunMetadata transforms raw business records and loads business + category.
func (p *Pipeline) RunMetadata(ctx context.Context, raws []domain.RawBusiness) error {
	log.Info().Int("raw", len(raws)).Msg("metadata stage starting")

	businesses, flags, err := p.meta.Transform(ctx, raws)
	if err != nil {
		return err
	}
	observability.ObserveStage("metadata", len(raws), len(businesses))

	if err := p.repo.UpsertBusinesses(ctx, businesses); err != nil {
		return fmt.Errorf("load business: %w", err)
	}
	if err := p.repo.UpsertCategories(ctx, flags); err != nil {
		return fmt.Errorf("load category: %w", err)
	}

	log.Info().Int("businesses", len(businesses)).Msg("metadata stage done")
	return nil
}

// RunReviews transforms raw reviews and loads customer + review. Customers
// load first to satisfy the review foreign key. The transformed reviews are
// returned for the aggregation stage.
func (p *Pipeline) RunReviews(ctx context.Context, raws []domain.RawReview) ([]domain.Review, error) {
	log.Info().Int("raw", len(raws)).Msg("reviews stage starting")

	reviews, customers, summary, err := p.revs.Transform(ctx, raws)
	if err != nil {
		return nil, err
	}
	observability.ObserveStage("reviews", len(raws), len(reviews))
	observability.ObserveSentiment(summary.Method, summary.Positive, summary.Neutral, summary.Negative)

	log.Info().
		Str("method", summary.Method).
		Int("total", summary.Total).
		Int("positive", summary.Positive).Float64("positive_pct", summary.PositivePct).
		Int("neutral", summary.Neutral).Float64("neutral_pct", summary.NeutralPct).
		Int("negative", summary.Negative).Float64("negative_pct", summary.NegativePct).
		Msg("sentiment summary")

	if err := p.repo.UpsertCustomers(ctx, customers); err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if err := p.repo.UpsertReviews(ctx, reviews); err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}

	log.Info().Int("reviews", len(reviews)).Int("customers", len(customers)).Msg("reviews stage done")
	return reviews, nil
}

// RunAggregations builds the three rollups and replaces the stats tables.
func (p *Pipeline) RunAggregations(ctx context.Context, reviews []domain.Review) error {
	log.Info().Int("reviews", len(reviews)).Msg("aggregation stage starting")

	monthly, yearly, total, err := aggregate.All(reviews)
	if err != nil {
		return err
	}

	if err := p.repo.ReplaceMonthlyStats(ctx, monthly); err != nil {
		return fmt.Errorf("load stats_monthly: %w", err)
	}
	if err := p.repo.ReplaceYearlyStats(ctx, yearly); err != nil {
		return fmt.Errorf("load stats_yearly: %w", err)
	}
	if err := p.repo.ReplaceTotalStats(ctx, total); err != nil {
		return fmt.Errorf("load stats_total: %w", err)
	}

	log.Info().
		Int("monthly", len(monthly)).
		Int("yearly", len(yearly)).
		Int("total", len(total)).
		Msg("aggregation stage done")
	return nil
}
