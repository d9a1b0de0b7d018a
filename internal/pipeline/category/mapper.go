// Package category resolves raw business-category strings to canonical
// groups using the lookup table produced by the offline labeling pass.
package category

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"localpulse/internal/domain"
)

// mappingFile mirrors the labeling artifact:
// {"details":[{"original_category","assigned_group","confidence_score"}]}
type mappingFile struct {
	Details []mappingEntry `json:"details"`
}

type mappingEntry struct {
	OriginalCategory string  `json:"original_category"`
	AssignedGroup    string  `json:"assigned_group"`
	ConfidenceScore  float64 `json:"confidence_score"`
}

// Mapper is the immutable category → group lookup for one pipeline run.
type Mapper struct {
	byCategory map[string]domain.Group
}

// Load reads the labeling artifact. Duplicate original_category entries are
// last-write-wins; an artifact with zero usable entries is a bootstrap error.
func Load(path string) (*Mapper, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category mapping: %w", err)
	}
	var f mappingFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse category mapping: %w", err)
	}

	byCat := make(map[string]domain.Group, len(f.Details))
	for _, e := range f.Details {
		orig := strings.TrimSpace(e.OriginalCategory)
		group := strings.TrimSpace(e.AssignedGroup)
		if orig == "" || group == "" {
			continue
		}
		byCat[orig] = domain.Group(group)
	}
	if len(byCat) == 0 {
		return nil, fmt.Errorf("category mapping %s has no usable entries", path)
	}

	log.Info().Str("path", path).Int("entries", len(byCat)).Msg("category mapping loaded")
	return &Mapper{byCategory: byCat}, nil
}

// NewMapper builds a Mapper from an in-memory table. Used by tests and by
// callers that already hold the parsed artifact.
func NewMapper(table map[string]domain.Group) *Mapper {
	byCat := make(map[string]domain.Group, len(table))
	for k, v := range table {
		byCat[strings.TrimSpace(k)] = v
	}
	return &Mapper{byCategory: byCat}
}

// Len reports the number of mapping entries.
func (m *Mapper) Len() int { return len(m.byCategory) }

// lookup maps one raw category to its group, or the sentinel when the label
// universe the table was built from never saw this category.
func (m *Mapper) lookup(raw string) domain.Group {
	if g, ok := m.byCategory[strings.TrimSpace(raw)]; ok {
		return g
	}
	return domain.GroupUncategorized
}

// Resolve maps a business's raw categories to its set of canonical groups.
// A business with no categories at all resolves to the sentinel-only set.
// Duplicate raw categories landing on the same group collapse to one member.
func (m *Mapper) Resolve(rawCategories []string) GroupSet {
	set := make(GroupSet, len(rawCategories))
	if len(rawCategories) == 0 {
		set[domain.GroupUncategorized] = struct{}{}
		return set
	}
	for _, c := range rawCategories {
		set[m.lookup(c)] = struct{}{}
	}
	return set
}

// GroupSet is the deduplicated set of groups one business belongs to.
type GroupSet map[domain.Group]struct{}

func (s GroupSet) Has(g domain.Group) bool {
	_, ok := s[g]
	return ok
}

// Display renders the set as the comma-joined new_category string. Order is
// fixed (canonical column order, sentinel last) so re-runs emit identical rows.
func (s GroupSet) Display() string {
	out := make([]string, 0, len(s))
	for _, g := range domain.Groups {
		if s.Has(g) {
			out = append(out, string(g))
		}
	}
	if s.Has(domain.GroupUncategorized) {
		out = append(out, string(domain.GroupUncategorized))
	}
	return strings.Join(out, ", ")
}

// Flags projects the set onto the boolean columns of the category table.
// The sentinel group has no column, so a sentinel-only business gets all-false flags.
func (s GroupSet) Flags(businessID string) domain.CategoryFlags {
	return domain.CategoryFlags{
		BusinessID:               businessID,
		FoodDining:               s.Has(domain.GroupFoodDining),
		HealthMedical:            s.Has(domain.GroupHealthMedical),
		AutomotiveTransport:      s.Has(domain.GroupAutomotiveTransport),
		RetailShopping:           s.Has(domain.GroupRetailShopping),
		BeautyWellness:           s.Has(domain.GroupBeautyWellness),
		HomeServicesConstruction: s.Has(domain.GroupHomeServices),
		EducationCommunity:       s.Has(domain.GroupEducationCommunity),
		EntertainmentTravel:      s.Has(domain.GroupEntertainmentTravel),
		IndustryManufacturing:    s.Has(domain.GroupIndustryManufacture),
		FinancialLegalServices:   s.Has(domain.GroupFinancialLegal),
	}
}
