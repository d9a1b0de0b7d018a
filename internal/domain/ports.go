package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type WarehouseRepository interface {
	// Write paths (batch loads from the pipeline)
	UpsertBusinesses(ctx context.Context, bs []Business) error
	UpsertCategories(ctx context.Context, cs []CategoryFlags) error
	UpsertCustomers(ctx context.Context, cs []Customer) error
	UpsertReviews(ctx context.Context, rs []Review) error
	// Stats are a full rebuild per run: truncate then insert.
	ReplaceMonthlyStats(ctx context.Context, rows []StatsMonthly) error
	ReplaceYearlyStats(ctx context.Context, rows []StatsYearly) error
	ReplaceTotalStats(ctx context.Context, rows []StatsTotal) error

	// Read paths (API)
	GetBusiness(ctx context.Context, id string) (BusinessDetail, error)
	ListBusinesses(ctx context.Context, q BusinessQuery) (BusinessPage, error)
	ListReviews(ctx context.Context, id string, q ReviewQuery) (ReviewPage, error)
	RatingDistribution(ctx context.Context, id string) ([]RatingCount, error)
	TotalStats(ctx context.Context, id string) (*StatsTotal, error)
	YearlyStats(ctx context.Context, id string) ([]StatsYearly, error)
	MonthlyStats(ctx context.Context, id string, year *int) ([]StatsMonthly, error)
	FilterOptions(ctx context.Context, county *string) (FilterOptions, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

// BusinessDetail is the business row joined with its category flags.
type BusinessDetail struct {
	Business
	Groups []string `json:"groups"` // canonical groups with flag=true
}

type BusinessQuery struct {
	Field     *string // category column slug, e.g. "food_dining"
	County    *string
	City      *string
	MinRating *int
	MaxRating *int
	Search    *string // name substring
	Page      int
	PageSize  int
}

type BusinessPage struct {
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Items    []Business `json:"data"`
}

type ReviewQuery struct {
	Rating   *int
	Page     int
	PageSize int
}

type ReviewPage struct {
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Items    []Review `json:"data"`
}

type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type FilterOptions struct {
	Counties []string `json:"counties"`
	Cities   []string `json:"cities"`
}
