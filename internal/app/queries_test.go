package app_test

import (
	"context"
	"testing"
	"time"

	"localpulse/internal/app"
	"localpulse/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	detail domain.BusinessDetail
	total  *domain.StatsTotal
	yearly []domain.StatsYearly

	// captured loads
	businesses []domain.Business
	categories []domain.CategoryFlags
	customers  []domain.Customer
	reviews    []domain.Review
	monthly    []domain.StatsMonthly
	yearlyIn   []domain.StatsYearly
	totalIn    []domain.StatsTotal
	loadOrder  []string
}

func (f *fakeRepo) UpsertBusinesses(ctx context.Context, bs []domain.Business) error {
	f.businesses = bs
	f.loadOrder = append(f.loadOrder, "business")
	return nil
}
func (f *fakeRepo) UpsertCategories(ctx context.Context, cs []domain.CategoryFlags) error {
	f.categories = cs
	f.loadOrder = append(f.loadOrder, "category")
	return nil
}
func (f *fakeRepo) UpsertCustomers(ctx context.Context, cs []domain.Customer) error {
	f.customers = cs
	f.loadOrder = append(f.loadOrder, "customer")
	return nil
}
func (f *fakeRepo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	f.reviews = rs
	f.loadOrder = append(f.loadOrder, "review")
	return nil
}
func (f *fakeRepo) ReplaceMonthlyStats(ctx context.Context, rows []domain.StatsMonthly) error {
	f.monthly = rows
	f.loadOrder = append(f.loadOrder, "stats_monthly")
	return nil
}
func (f *fakeRepo) ReplaceYearlyStats(ctx context.Context, rows []domain.StatsYearly) error {
	f.yearlyIn = rows
	f.loadOrder = append(f.loadOrder, "stats_yearly")
	return nil
}
func (f *fakeRepo) ReplaceTotalStats(ctx context.Context, rows []domain.StatsTotal) error {
	f.totalIn = rows
	f.loadOrder = append(f.loadOrder, "stats_total")
	return nil
}
func (f *fakeRepo) GetBusiness(ctx context.Context, id string) (domain.BusinessDetail, error) {
	if f.detail.BusinessID == "" {
		return domain.BusinessDetail{}, domain.ErrNotFound
	}
	return f.detail, nil
}
func (f *fakeRepo) ListBusinesses(ctx context.Context, q domain.BusinessQuery) (domain.BusinessPage, error) {
	return domain.BusinessPage{}, nil
}
func (f *fakeRepo) ListReviews(ctx context.Context, id string, q domain.ReviewQuery) (domain.ReviewPage, error) {
	return domain.ReviewPage{}, nil
}
func (f *fakeRepo) RatingDistribution(ctx context.Context, id string) ([]domain.RatingCount, error) {
	return nil, nil
}
func (f *fakeRepo) TotalStats(ctx context.Context, id string) (*domain.StatsTotal, error) {
	return f.total, nil
}
func (f *fakeRepo) YearlyStats(ctx context.Context, id string) ([]domain.StatsYearly, error) {
	return f.yearly, nil
}
func (f *fakeRepo) MonthlyStats(ctx context.Context, id string, year *int) ([]domain.StatsMonthly, error) {
	return nil, nil
}
func (f *fakeRepo) FilterOptions(ctx context.Context, county *string) (domain.FilterOptions, error) {
	return domain.FilterOptions{}, nil
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.BusinessDetail:
		*d = v.(domain.BusinessDetail)
	case *domain.StatsTotal:
		*d = v.(domain.StatsTotal)
	case *[]domain.StatsYearly:
		*d = v.([]domain.StatsYearly)
	case *[]domain.StatsMonthly:
		*d = v.([]domain.StatsMonthly)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error { return nil }

// ---- tests ----

func TestGetBusiness_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{
		detail: domain.BusinessDetail{
			Business: domain.Business{BusinessID: "B42", Name: "Pike Place Chowder"},
			Groups:   []string{"Food and Dining"},
		},
	}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	// Miss (first time, populates cache)
	bd, err := q.GetBusiness(context.Background(), "B42")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if bd.BusinessID != "B42" || bd.Name != "Pike Place Chowder" {
		t.Fatalf("unexpected business: %+v", bd)
	}

	// Mutate repo to prove the second read comes from cache
	repo.detail.Name = "SHOULD NOT SEE THIS"

	bd2, err := q.GetBusiness(context.Background(), "B42")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if bd2.Name != "Pike Place Chowder" {
		t.Fatalf("expected cached name, got %s", bd2.Name)
	}
}

func TestGetBusiness_NotFound(t *testing.T) {
	q := app.NewQueryService(&fakeRepo{}, &fakeCache{}, time.Minute)

	_, err := q.GetBusiness(context.Background(), "missing")
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTotalStats_ZeroValuedWhenAbsent(t *testing.T) {
	q := app.NewQueryService(&fakeRepo{total: nil}, &fakeCache{}, time.Minute)

	st, err := q.TotalStats(context.Background(), "B7")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.BusinessID != "B7" || st.TotalReviews != 0 || st.FirstReviewDate != nil {
		t.Fatalf("expected zero-valued rollup, got %+v", st)
	}
}

func TestYearlyStats_Cache(t *testing.T) {
	repo := &fakeRepo{yearly: []domain.StatsYearly{
		{SentimentStats: domain.SentimentStats{BusinessID: "B1", TotalReviews: 3}, Year: 2021},
	}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, 10*time.Minute)

	rows, err := q.YearlyStats(context.Background(), "B1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(rows) != 1 || rows[0].Year != 2021 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	repo.yearly = nil // second call must hit the cache
	rows2, _ := q.YearlyStats(context.Background(), "B1")
	if len(rows2) != 1 {
		t.Fatalf("expected cached rows, got %+v", rows2)
	}
}
