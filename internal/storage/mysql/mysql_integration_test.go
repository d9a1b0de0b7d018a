//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"localpulse/internal/domain"
	mysqlrepo "localpulse/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pint(i int) *int           { return &i }
func pfloat(f float64) *float64 { return &f }

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func stats(id string, total, pos, neu, neg int, avg float64) domain.SentimentStats {
	pct := func(n int) float64 { return float64(n) * 100 / float64(total) }
	return domain.SentimentStats{
		BusinessID:    id,
		TotalReviews:  total,
		PositiveCount: pos,
		NeutralCount:  neu,
		NegativeCount: neg,
		PositivePct:   pct(pos),
		NeutralPct:    pct(neu),
		NegativePct:   pct(neg),
		AvgSentiment:  avg,
	}
}

// ---------- the test ----------
func TestRepo_MySQL_LoadAndQuery(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=localpulse",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "localpulse")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Arrange: two businesses, one with flags, two customers, three reviews.
	b1 := domain.Business{
		BusinessID:       "B1",
		Name:             "Umi Sushi",
		Address:          pstr("85 Pike St, Seattle, WA 98101"),
		County:           pstr("king county"),
		City:             pstr("seattle"),
		Latitude:         pfloat(47.608),
		Longitude:        pfloat(-122.34),
		AvgRating:        pfloat(4.5),
		NumOfReviews:     pint(120),
		HoursJSON:        []byte(`{"Monday":"8AM-5PM"}`),
		OriginalCategory: "Sushi Bar",
		NewCategory:      "Food and Dining",
	}
	b2 := domain.Business{
		BusinessID:          "B2",
		Name:                "Widget Repair",
		County:              pstr("pierce county"),
		City:                pstr("tacoma"),
		AvgRating:           pfloat(3.0),
		IsPermanentlyClosed: true,
		OriginalCategory:    "Widget Shop",
		NewCategory:         "Uncategorized",
	}
	if err := repo.UpsertBusinesses(ctx, []domain.Business{b1, b2}); err != nil {
		t.Fatalf("UpsertBusinesses: %v", err)
	}
	// Re-upsert must not error (idempotent re-run).
	if err := repo.UpsertBusinesses(ctx, []domain.Business{b1}); err != nil {
		t.Fatalf("UpsertBusinesses again: %v", err)
	}

	if err := repo.UpsertCategories(ctx, []domain.CategoryFlags{
		{BusinessID: "B1", FoodDining: true},
		{BusinessID: "B2"},
	}); err != nil {
		t.Fatalf("UpsertCategories: %v", err)
	}

	if err := repo.UpsertCustomers(ctx, []domain.Customer{
		{CustomerID: "U1", Name: "Ana"},
		{CustomerID: "U2", Name: "Bob"},
	}); err != nil {
		t.Fatalf("UpsertCustomers: %v", err)
	}

	base := time.Date(2021, 1, 15, 12, 0, 0, 0, time.UTC)
	reviews := []domain.Review{
		{ReviewID: "r1000000000000000000000000000001", BusinessID: "B1", CustomerID: "U1",
			Time: base, Rating: 5, Text: "Great", SentimentScore: 1.0, SentimentLabel: "positive",
			HasResponse: true, ResponseLatencyHrs: pfloat(2)},
		{ReviewID: "r1000000000000000000000000000002", BusinessID: "B1", CustomerID: "U2",
			Time: base.AddDate(0, 1, 0), Rating: 1, Text: "Bad", SentimentScore: 0.0, SentimentLabel: "negative"},
		{ReviewID: "r1000000000000000000000000000003", BusinessID: "B1", CustomerID: "U2",
			Time: base.AddDate(0, 2, 0), Rating: 3, Text: "", SentimentScore: 0.5, SentimentLabel: "neutral"},
	}
	if err := repo.UpsertReviews(ctx, reviews); err != nil {
		t.Fatalf("UpsertReviews: %v", err)
	}

	first := time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC)
	last := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	if err := repo.ReplaceMonthlyStats(ctx, []domain.StatsMonthly{
		{SentimentStats: stats("B1", 1, 1, 0, 0, 1.0), Year: 2021, Month: 1},
		{SentimentStats: stats("B1", 1, 0, 0, 1, 0.0), Year: 2021, Month: 2},
		{SentimentStats: stats("B1", 1, 0, 1, 0, 0.5), Year: 2021, Month: 3},
	}); err != nil {
		t.Fatalf("ReplaceMonthlyStats: %v", err)
	}
	if err := repo.ReplaceYearlyStats(ctx, []domain.StatsYearly{
		{SentimentStats: stats("B1", 3, 1, 1, 1, 0.5), Year: 2021},
	}); err != nil {
		t.Fatalf("ReplaceYearlyStats: %v", err)
	}
	if err := repo.ReplaceTotalStats(ctx, []domain.StatsTotal{
		{SentimentStats: stats("B1", 3, 1, 1, 1, 0.5), FirstReviewDate: &first, LastReviewDate: &last},
	}); err != nil {
		t.Fatalf("ReplaceTotalStats: %v", err)
	}

	// Assert: detail with groups from flags
	bd, err := repo.GetBusiness(ctx, "B1")
	if err != nil {
		t.Fatalf("GetBusiness: %v", err)
	}
	if bd.Name != "Umi Sushi" || len(bd.Groups) != 1 || bd.Groups[0] != "Food and Dining" {
		t.Fatalf("unexpected detail: %+v", bd)
	}
	if _, err := repo.GetBusiness(ctx, "missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Filtered list: category flag narrows to B1
	page, err := repo.ListBusinesses(ctx, domain.BusinessQuery{
		Field: pstr("food_dining"), Page: 1, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("ListBusinesses: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].BusinessID != "B1" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if _, err := repo.ListBusinesses(ctx, domain.BusinessQuery{
		Field: pstr("bogus; DROP TABLE business"), Page: 1, PageSize: 10,
	}); err == nil {
		t.Fatal("expected error for unknown category field")
	}

	// Reviews: newest first, rating filter
	rp, err := repo.ListReviews(ctx, "B1", domain.ReviewQuery{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if rp.Total != 3 || len(rp.Items) != 2 || rp.Items[0].Rating != 3 {
		t.Fatalf("unexpected reviews page: %+v", rp)
	}
	rp, err = repo.ListReviews(ctx, "B1", domain.ReviewQuery{Rating: pint(5), Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListReviews rating=5: %v", err)
	}
	if rp.Total != 1 || rp.Items[0].SentimentLabel != "positive" || !rp.Items[0].HasResponse {
		t.Fatalf("unexpected filtered reviews: %+v", rp)
	}

	dist, err := repo.RatingDistribution(ctx, "B1")
	if err != nil {
		t.Fatalf("RatingDistribution: %v", err)
	}
	if len(dist) != 3 || dist[0].Rating != 1 || dist[0].Count != 1 {
		t.Fatalf("unexpected distribution: %+v", dist)
	}

	st, err := repo.TotalStats(ctx, "B1")
	if err != nil {
		t.Fatalf("TotalStats: %v", err)
	}
	if st == nil || st.TotalReviews != 3 || st.FirstReviewDate == nil {
		t.Fatalf("unexpected total stats: %+v", st)
	}
	if st2, _ := repo.TotalStats(ctx, "missing"); st2 != nil {
		t.Fatalf("expected nil stats for unknown business, got %+v", st2)
	}

	year := 2021
	monthly, err := repo.MonthlyStats(ctx, "B1", &year)
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if len(monthly) != 3 || monthly[0].Month != 1 || monthly[2].Month != 3 {
		t.Fatalf("unexpected monthly stats: %+v", monthly)
	}

	opts, err := repo.FilterOptions(ctx, pstr("king county"))
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if len(opts.Counties) != 2 || len(opts.Cities) != 1 || opts.Cities[0] != "seattle" {
		t.Fatalf("unexpected filter options: %+v", opts)
	}
}
