package domain

import "encoding/json"

// Group is one of the 10 canonical business-category labels.
type Group string

const (
	GroupFoodDining           Group = "Food and Dining"
	GroupHealthMedical        Group = "Health and Medical"
	GroupAutomotiveTransport  Group = "Automotive and Transport"
	GroupRetailShopping       Group = "Retail and Shopping"
	GroupBeautyWellness       Group = "Beauty and Wellness"
	GroupHomeServices         Group = "Home Services and Construction"
	GroupEducationCommunity   Group = "Education and Community"
	GroupEntertainmentTravel  Group = "Entertainment and Travel"
	GroupIndustryManufacture  Group = "Industry and Manufacturing"
	GroupFinancialLegal       Group = "Financial and Legal Services"

	// GroupUncategorized is the sentinel assigned when a raw category has no
	// mapping entry. It has no boolean column of its own.
	GroupUncategorized Group = "Uncategorized"
)

// Groups lists the canonical groups in warehouse column order.
var Groups = []Group{
	GroupFoodDining,
	GroupHealthMedical,
	GroupAutomotiveTransport,
	GroupRetailShopping,
	GroupBeautyWellness,
	GroupHomeServices,
	GroupEducationCommunity,
	GroupEntertainmentTravel,
	GroupIndustryManufacture,
	GroupFinancialLegal,
}

// GroupSlugs maps each canonical group to its column name in the category
// table (and the `field` filter value on the API).
var GroupSlugs = map[Group]string{
	GroupFoodDining:          "food_dining",
	GroupHealthMedical:       "health_medical",
	GroupAutomotiveTransport: "automotive_transport",
	GroupRetailShopping:      "retail_shopping",
	GroupBeautyWellness:      "beauty_wellness",
	GroupHomeServices:        "home_services_construction",
	GroupEducationCommunity:  "education_community",
	GroupEntertainmentTravel: "entertainment_travel",
	GroupIndustryManufacture: "industry_manufacturing",
	GroupFinancialLegal:      "financial_legal_services",
}

// RawBusiness is one line of the raw metadata NDJSON dump.
// Hours entries are kept raw: the dump mixes [day, range] pairs with
// malformed shapes, and malformed entries are skipped, not fatal.
type RawBusiness struct {
	GmapID       string              `json:"gmap_id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description"`
	Address      *string             `json:"address"`
	Latitude     *float64            `json:"latitude"`
	Longitude    *float64            `json:"longitude"`
	Category     []string            `json:"category"`
	AvgRating    *float64            `json:"avg_rating"`
	NumOfReviews *int                `json:"num_of_reviews"`
	Price        *string             `json:"price"`
	Hours        []json.RawMessage   `json:"hours"`
	Misc         map[string][]string `json:"MISC"`
	State        *string             `json:"state"`
	URL          *string             `json:"url"`
}

// Business is one row of the business table. One row per business_id.
type Business struct {
	BusinessID          string          `json:"business_id"`
	Name                string          `json:"name"`
	Description         *string         `json:"description"`
	Address             *string         `json:"address"`
	County              *string         `json:"county"`
	City                *string         `json:"city"`
	Latitude            *float64        `json:"latitude"`
	Longitude           *float64        `json:"longitude"`
	AvgRating           *float64        `json:"avg_rating"`
	NumOfReviews        *int            `json:"num_of_reviews"`
	URL                 *string         `json:"url"`
	IsPermanentlyClosed bool            `json:"is_permanently_closed"`
	HoursJSON           json.RawMessage `json:"hours"` // {"Monday":"8AM-5PM",...} or null
	OriginalCategory    string          `json:"original_category"` // raw categories, comma-joined
	NewCategory         string          `json:"new_category"`      // canonical groups, comma-joined
}

// CategoryFlags is one row of the category table: boolean membership in each
// canonical group, keyed by business_id.
type CategoryFlags struct {
	BusinessID               string
	FoodDining               bool
	HealthMedical            bool
	AutomotiveTransport      bool
	RetailShopping           bool
	BeautyWellness           bool
	HomeServicesConstruction bool
	EducationCommunity       bool
	EntertainmentTravel      bool
	IndustryManufacturing    bool
	FinancialLegalServices   bool
}
