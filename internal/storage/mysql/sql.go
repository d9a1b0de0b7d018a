package mysql

// -----------------------------------------------------------------------------
// WRITE STATEMENTS (batched multi-row inserts; the prefix/ondup pairs are
// joined with one "(?,...)" tuple per row)
// -----------------------------------------------------------------------------

const insertBusinessesPrefix = "INSERT INTO business\n" +
	"  (business_id, name, description, address, county, city, latitude, longitude,\n" +
	"   avg_rating, num_of_reviews, url, is_permanently_closed, hours, original_category, new_category)\n" +
	"VALUES "

const insertBusinessesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  name                  = VALUES(name),\n" +
	"  description           = VALUES(description),\n" +
	"  address               = VALUES(address),\n" +
	"  county                = VALUES(county),\n" +
	"  city                  = VALUES(city),\n" +
	"  latitude              = VALUES(latitude),\n" +
	"  longitude             = VALUES(longitude),\n" +
	"  avg_rating            = VALUES(avg_rating),\n" +
	"  num_of_reviews        = VALUES(num_of_reviews),\n" +
	"  url                   = VALUES(url),\n" +
	"  is_permanently_closed = VALUES(is_permanently_closed),\n" +
	"  hours                 = VALUES(hours),\n" +
	"  original_category     = VALUES(original_category),\n" +
	"  new_category          = VALUES(new_category),\n" +
	"  updated_at            = CURRENT_TIMESTAMP\n"

const insertCategoriesPrefix = "INSERT INTO category\n" +
	"  (business_id, food_dining, health_medical, automotive_transport, retail_shopping,\n" +
	"   beauty_wellness, home_services_construction, education_community, entertainment_travel,\n" +
	"   industry_manufacturing, financial_legal_services)\n" +
	"VALUES "

const insertCategoriesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  food_dining                = VALUES(food_dining),\n" +
	"  health_medical             = VALUES(health_medical),\n" +
	"  automotive_transport       = VALUES(automotive_transport),\n" +
	"  retail_shopping            = VALUES(retail_shopping),\n" +
	"  beauty_wellness            = VALUES(beauty_wellness),\n" +
	"  home_services_construction = VALUES(home_services_construction),\n" +
	"  education_community        = VALUES(education_community),\n" +
	"  entertainment_travel       = VALUES(entertainment_travel),\n" +
	"  industry_manufacturing     = VALUES(industry_manufacturing),\n" +
	"  financial_legal_services   = VALUES(financial_legal_services)\n"

const insertCustomersPrefix = "INSERT INTO customer (customer_id, name)\nVALUES "

const insertCustomersOnDup = " ON DUPLICATE KEY UPDATE name = VALUES(name)\n"

// Note: `time` and `text` are reserved; keep them quoted everywhere.
const insertReviewsPrefix = "INSERT INTO review\n" +
	"  (review_id, business_id, customer_id, `time`, rating, `text`,\n" +
	"   sentiment_score, sentiment_label, has_response, response_latency_hrs)\n" +
	"VALUES "

const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  rating               = VALUES(rating),\n" +
	"  `text`               = VALUES(`text`),\n" +
	"  sentiment_score      = VALUES(sentiment_score),\n" +
	"  sentiment_label      = VALUES(sentiment_label),\n" +
	"  has_response         = VALUES(has_response),\n" +
	"  response_latency_hrs = VALUES(response_latency_hrs)\n"

const statsCols = "total_reviews, positive_count, neutral_count, negative_count,\n" +
	"   positive_pct, neutral_pct, negative_pct, avg_sentiment"

const insertMonthlyStatsPrefix = "INSERT INTO stats_monthly\n" +
	"  (business_id, `year`, `month`, " + statsCols + ")\nVALUES "

const insertYearlyStatsPrefix = "INSERT INTO stats_yearly\n" +
	"  (business_id, `year`, " + statsCols + ")\nVALUES "

const insertTotalStatsPrefix = "INSERT INTO stats_total\n" +
	"  (business_id, " + statsCols + ", first_review_date, last_review_date)\nVALUES "

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const businessCols = `
  b.business_id,
  b.name,
  b.description,
  b.address,
  b.county,
  b.city,
  b.latitude,
  b.longitude,
  b.avg_rating,
  b.num_of_reviews,
  b.url,
  b.is_permanently_closed,
  b.hours,
  b.original_category,
  b.new_category`

// Returns the business row joined with its category flags; flag columns come
// back in the order of domain.Groups.
const getBusinessSQL = `
SELECT` + businessCols + `,
  COALESCE(c.food_dining, 0),
  COALESCE(c.health_medical, 0),
  COALESCE(c.automotive_transport, 0),
  COALESCE(c.retail_shopping, 0),
  COALESCE(c.beauty_wellness, 0),
  COALESCE(c.home_services_construction, 0),
  COALESCE(c.education_community, 0),
  COALESCE(c.entertainment_travel, 0),
  COALESCE(c.industry_manufacturing, 0),
  COALESCE(c.financial_legal_services, 0)
FROM business b
LEFT JOIN category c ON c.business_id = b.business_id
WHERE b.business_id = ?
`

const reviewCols = "r.review_id, r.business_id, r.customer_id, r.`time`, r.rating, r.`text`,\n" +
	"  r.sentiment_score, r.sentiment_label, r.has_response, r.response_latency_hrs"

const ratingDistributionSQL = `
SELECT rating, COUNT(*)
FROM review
WHERE business_id = ?
GROUP BY rating
ORDER BY rating
`

const totalStatsSQL = `
SELECT business_id, total_reviews, positive_count, neutral_count, negative_count,
  positive_pct, neutral_pct, negative_pct, avg_sentiment,
  first_review_date, last_review_date
FROM stats_total
WHERE business_id = ?
`

const yearlyStatsSQL = `
SELECT business_id, total_reviews, positive_count, neutral_count, negative_count,
  positive_pct, neutral_pct, negative_pct, avg_sentiment, ` + "`year`" + `
FROM stats_yearly
WHERE business_id = ?
ORDER BY ` + "`year`" + `
`

const monthlyStatsSQL = `
SELECT business_id, total_reviews, positive_count, neutral_count, negative_count,
  positive_pct, neutral_pct, negative_pct, avg_sentiment, ` + "`year`, `month`" + `
FROM stats_monthly
WHERE business_id = ?
`
