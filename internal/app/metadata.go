package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"localpulse/internal/domain"
	"localpulse/internal/pipeline/category"
	"localpulse/internal/pipeline/location"
)

// MetadataTransformer turns raw business records into the business and
// category output rows. Each record is transformed independently; the only
// cross-record step is the up-front dedup by business_id.
type MetadataTransformer struct {
	mapper  *category.Mapper
	loc     *location.Extractor
	workers int
}

func NewMetadataTransformer(m *category.Mapper, loc *location.Extractor, workers int) *MetadataTransformer {
	if workers <= 0 {
		workers = 1
	}
	return &MetadataTransformer{mapper: m, loc: loc, workers: workers}
}

// Transform maps raw records to (business, category) row pairs. Records with
// no gmap_id are dropped; duplicate business_ids keep the first occurrence.
func (t *MetadataTransformer) Transform(ctx context.Context, raws []domain.RawBusiness) ([]domain.Business, []domain.CategoryFlags, error) {
	// Sequential filter+dedup keeps output order a function of input order,
	// so re-runs emit identical row sets.
	kept := make([]domain.RawBusiness, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, r := range raws {
		if r.GmapID == "" {
			continue
		}
		if _, dup := seen[r.GmapID]; dup {
			continue
		}
		seen[r.GmapID] = struct{}{}
		kept = append(kept, r)
	}
	if dropped := len(raws) - len(kept); dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("metadata: dropped null/duplicate business rows")
	}

	businesses := make([]domain.Business, len(kept))
	flags := make([]domain.CategoryFlags, len(kept))

	sem := semaphore.NewWeighted(int64(t.workers))
	var wg sync.WaitGroup
	for i := range kept {
		if err := sem.Acquire(ctx, 1); err != nil {
			// drain in-flight workers before abandoning the result slices
			wg.Wait()
			return nil, nil, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			businesses[i], flags[i] = t.transformOne(kept[i])
		}(i)
	}
	wg.Wait()

	return businesses, flags, nil
}

func (t *MetadataTransformer) transformOne(r domain.RawBusiness) (domain.Business, domain.CategoryFlags) {
	groups := t.mapper.Resolve(r.Category)

	b := domain.Business{
		BusinessID:          r.GmapID,
		Name:                r.Name,
		Description:         r.Description,
		Address:             r.Address,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		AvgRating:           r.AvgRating,
		NumOfReviews:        r.NumOfReviews,
		URL:                 r.URL,
		IsPermanentlyClosed: isPermanentlyClosed(r.State),
		HoursJSON:           parseHours(r.Hours),
		OriginalCategory:    strings.Join(r.Category, ", "),
		NewCategory:         groups.Display(),
	}
	if r.Address != nil {
		info := t.loc.Extract(*r.Address)
		b.City = lowerPtr(info.City)
		b.County = lowerPtr(info.County)
	}
	return b, groups.Flags(r.GmapID)
}

func isPermanentlyClosed(state *string) bool {
	return state != nil && strings.Contains(strings.ToLower(*state), "permanently closed")
}

// parseHours flattens the raw [[day, range], ...] list into a JSON object.
// Entries that are not a two-string pair are malformed and skipped.
func parseHours(entries []json.RawMessage) []byte {
	if len(entries) == 0 {
		return nil
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		var pair []string
		if err := json.Unmarshal(e, &pair); err != nil || len(pair) != 2 {
			continue
		}
		day := strings.TrimSpace(pair[0])
		rng := strings.TrimSpace(pair[1])
		if day == "" || rng == "" {
			continue
		}
		out[day] = rng
	}
	if len(out) == 0 {
		return nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return b
}

func lowerPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.ToLower(*p)
	return &s
}
