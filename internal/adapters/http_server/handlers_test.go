package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	server "localpulse/internal/adapters/http_server"
	"localpulse/internal/app"
	"localpulse/internal/domain"
)

// ---- fakes ----

type stubRepo struct {
	detail  domain.BusinessDetail
	reviews domain.ReviewPage
	dist    []domain.RatingCount
	opts    domain.FilterOptions

	lastQuery domain.BusinessQuery
}

func (s *stubRepo) UpsertBusinesses(context.Context, []domain.Business) error      { return nil }
func (s *stubRepo) UpsertCategories(context.Context, []domain.CategoryFlags) error { return nil }
func (s *stubRepo) UpsertCustomers(context.Context, []domain.Customer) error       { return nil }
func (s *stubRepo) UpsertReviews(context.Context, []domain.Review) error           { return nil }
func (s *stubRepo) ReplaceMonthlyStats(context.Context, []domain.StatsMonthly) error {
	return nil
}
func (s *stubRepo) ReplaceYearlyStats(context.Context, []domain.StatsYearly) error { return nil }
func (s *stubRepo) ReplaceTotalStats(context.Context, []domain.StatsTotal) error   { return nil }

func (s *stubRepo) GetBusiness(ctx context.Context, id string) (domain.BusinessDetail, error) {
	if id != s.detail.BusinessID {
		return domain.BusinessDetail{}, domain.ErrNotFound
	}
	return s.detail, nil
}
func (s *stubRepo) ListBusinesses(ctx context.Context, q domain.BusinessQuery) (domain.BusinessPage, error) {
	s.lastQuery = q
	return domain.BusinessPage{Total: 1, Page: q.Page, PageSize: q.PageSize,
		Items: []domain.Business{s.detail.Business}}, nil
}
func (s *stubRepo) ListReviews(ctx context.Context, id string, q domain.ReviewQuery) (domain.ReviewPage, error) {
	return s.reviews, nil
}
func (s *stubRepo) RatingDistribution(ctx context.Context, id string) ([]domain.RatingCount, error) {
	return s.dist, nil
}
func (s *stubRepo) TotalStats(ctx context.Context, id string) (*domain.StatsTotal, error) {
	return nil, nil
}
func (s *stubRepo) YearlyStats(ctx context.Context, id string) ([]domain.StatsYearly, error) {
	return nil, nil
}
func (s *stubRepo) MonthlyStats(ctx context.Context, id string, year *int) ([]domain.StatsMonthly, error) {
	return nil, nil
}
func (s *stubRepo) FilterOptions(ctx context.Context, county *string) (domain.FilterOptions, error) {
	return s.opts, nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dst any) (bool, error) { return false, nil }
func (noopCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	return nil
}
func (noopCache) Del(ctx context.Context, key string) error { return nil }

func newTestServer(repo *stubRepo) *server.Server {
	q := app.NewQueryService(repo, noopCache{}, time.Minute)
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: q})
	return srv
}

func do(t *testing.T, srv *server.Server, target string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr, req)
	return rr
}

// ---- tests ----

func TestGetBusiness_OKWithETag(t *testing.T) {
	repo := &stubRepo{detail: domain.BusinessDetail{
		Business: domain.Business{BusinessID: "B1", Name: "Umi Sushi"},
		Groups:   []string{"Food and Dining"},
	}}
	srv := newTestServer(repo)

	rr := do(t, srv, "/v1/businesses/B1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	var body struct {
		BusinessID string   `json:"business_id"`
		Groups     []string `json:"groups"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.BusinessID != "B1" || len(body.Groups) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}

	// conditional re-request short-circuits
	rr2 := do(t, srv, "/v1/businesses/B1", map[string]string{"If-None-Match": etag})
	if rr2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rr2.Code)
	}
}

func TestGetBusiness_NotFoundProblem(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/v1/businesses/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type: %s", ct)
	}
}

func TestListBusinesses_FiltersAndDefaults(t *testing.T) {
	repo := &stubRepo{detail: domain.BusinessDetail{
		Business: domain.Business{BusinessID: "B1"},
	}}
	srv := newTestServer(repo)

	rr := do(t, srv, "/v1/businesses?field=food_dining&county=king+county&min_rating=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	q := repo.lastQuery
	if q.Field == nil || *q.Field != "food_dining" {
		t.Fatalf("field not forwarded: %+v", q)
	}
	if q.County == nil || *q.County != "king county" {
		t.Fatalf("county not forwarded: %+v", q)
	}
	if q.MinRating == nil || *q.MinRating != 3 {
		t.Fatalf("min_rating not forwarded: %+v", q)
	}
	if q.Page != 1 || q.PageSize != 20 {
		t.Fatalf("expected default pagination, got page=%d size=%d", q.Page, q.PageSize)
	}
}

func TestListBusinesses_BadPagination(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	for _, target := range []string{
		"/v1/businesses?page=0",
		"/v1/businesses?page_size=101",
		"/v1/businesses?page=abc",
	} {
		rr := do(t, srv, target, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rr.Code)
		}
	}
}

func TestListReviews_BadRating(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/v1/businesses/B1/reviews?rating=9", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestReviewSummary_EmptyDistribution(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/v1/businesses/B1/reviews/summary", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	var body struct {
		BusinessID string               `json:"business_id"`
		Ratings    []domain.RatingCount `json:"ratings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.BusinessID != "B1" || body.Ratings == nil || len(body.Ratings) != 0 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTotalStats_ZeroValuedRollup(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/v1/businesses/B9/stats/total", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	var st domain.StatsTotal
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.BusinessID != "B9" || st.TotalReviews != 0 || st.FirstReviewDate != nil {
		t.Fatalf("unexpected rollup: %+v", st)
	}
}

func TestFilterFields_ListsCategorySlugs(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/v1/filters/fields", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	var body struct {
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 10 || body.Fields[0] != "food_dining" {
		t.Fatalf("unexpected fields: %+v", body.Fields)
	}
}

func TestUnknownRoute_ProblemJSON(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/v1/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type: %s", ct)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubRepo{})

	rr := do(t, srv, "/healthz", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body.String())
	}
}
