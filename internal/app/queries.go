package app

import (
	"context"
	"fmt"
	"time"

	"localpulse/internal/domain"
)

type QueryService struct {
	repo     domain.WarehouseRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.WarehouseRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) ttlSec() int { return int(s.cacheTTL.Seconds()) }

func (s *QueryService) GetBusiness(ctx context.Context, id string) (domain.BusinessDetail, error) {
	key := "business:" + id
	var bd domain.BusinessDetail
	if ok, _ := s.cache.Get(ctx, key, &bd); ok {
		return bd, nil
	}
	bd, err := s.repo.GetBusiness(ctx, id)
	if err != nil {
		return domain.BusinessDetail{}, err
	}
	_ = s.cache.Set(ctx, key, bd, s.ttlSec())
	return bd, nil
}

// ListBusinesses is uncached: the filter space is too wide for useful keys.
func (s *QueryService) ListBusinesses(ctx context.Context, q domain.BusinessQuery) (domain.BusinessPage, error) {
	return s.repo.ListBusinesses(ctx, q)
}

func (s *QueryService) ListReviews(ctx context.Context, id string, q domain.ReviewQuery) (domain.ReviewPage, error) {
	return s.repo.ListReviews(ctx, id, q)
}

func (s *QueryService) RatingDistribution(ctx context.Context, id string) ([]domain.RatingCount, error) {
	return s.repo.RatingDistribution(ctx, id)
}

// TotalStats returns the all-time rollup, or a zero-valued rollup when the
// business has no stats row. Absent stats are not an error.
func (s *QueryService) TotalStats(ctx context.Context, id string) (domain.StatsTotal, error) {
	key := "stats:total:" + id
	var st domain.StatsTotal
	if ok, _ := s.cache.Get(ctx, key, &st); ok {
		return st, nil
	}
	row, err := s.repo.TotalStats(ctx, id)
	if err != nil {
		return domain.StatsTotal{}, err
	}
	if row == nil {
		row = &domain.StatsTotal{SentimentStats: domain.SentimentStats{BusinessID: id}}
	}
	_ = s.cache.Set(ctx, key, *row, s.ttlSec())
	return *row, nil
}

func (s *QueryService) YearlyStats(ctx context.Context, id string) ([]domain.StatsYearly, error) {
	key := "stats:yearly:" + id
	var rows []domain.StatsYearly
	if ok, _ := s.cache.Get(ctx, key, &rows); ok {
		return rows, nil
	}
	rows, err := s.repo.YearlyStats(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rows, s.ttlSec())
	return rows, nil
}

func (s *QueryService) MonthlyStats(ctx context.Context, id string, year *int) ([]domain.StatsMonthly, error) {
	key := "stats:monthly:" + id
	if year != nil {
		key = fmt.Sprintf("%s:%d", key, *year)
	}
	var rows []domain.StatsMonthly
	if ok, _ := s.cache.Get(ctx, key, &rows); ok {
		return rows, nil
	}
	rows, err := s.repo.MonthlyStats(ctx, id, year)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, rows, s.ttlSec())
	return rows, nil
}

func (s *QueryService) FilterOptions(ctx context.Context, county *string) (domain.FilterOptions, error) {
	return s.repo.FilterOptions(ctx, county)
}
