package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"localpulse/internal/domain"
)

// rows per INSERT statement; keeps packets under max_allowed_packet on big loads
const batchSize = 500

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func scanStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
func scanInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
func scanF64(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- batch writes ----

// execBatch splits rows into chunks and issues one multi-row INSERT per chunk.
// tuple is the "(?,...)" placeholder group; argsFor appends one row's args.
func (r *Repo) execBatch(ctx context.Context, n int, prefix, tuple, suffix string, argsFor func(i int, args []any) []any) error {
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		values := make([]string, 0, end-start)
		var args []any
		for i := start; i < end; i++ {
			values = append(values, tuple)
			args = argsFor(i, args)
		}
		stmt := prefix + strings.Join(values, ",") + suffix
		if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) UpsertBusinesses(ctx context.Context, bs []domain.Business) error {
	return r.execBatch(ctx, len(bs), insertBusinessesPrefix,
		"(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)", insertBusinessesOnDup,
		func(i int, args []any) []any {
			b := bs[i]
			return append(args,
				b.BusinessID,
				b.Name,
				valStr(b.Description),
				valStr(b.Address),
				valStr(b.County),
				valStr(b.City),
				valF64(b.Latitude),
				valF64(b.Longitude),
				valF64(b.AvgRating),
				valInt(b.NumOfReviews),
				valStr(b.URL),
				b.IsPermanentlyClosed,
				valJSON(b.HoursJSON),
				b.OriginalCategory,
				b.NewCategory,
			)
		})
}

func (r *Repo) UpsertCategories(ctx context.Context, cs []domain.CategoryFlags) error {
	return r.execBatch(ctx, len(cs), insertCategoriesPrefix,
		"(?,?,?,?,?,?,?,?,?,?,?)", insertCategoriesOnDup,
		func(i int, args []any) []any {
			c := cs[i]
			return append(args,
				c.BusinessID,
				c.FoodDining,
				c.HealthMedical,
				c.AutomotiveTransport,
				c.RetailShopping,
				c.BeautyWellness,
				c.HomeServicesConstruction,
				c.EducationCommunity,
				c.EntertainmentTravel,
				c.IndustryManufacturing,
				c.FinancialLegalServices,
			)
		})
}

func (r *Repo) UpsertCustomers(ctx context.Context, cs []domain.Customer) error {
	return r.execBatch(ctx, len(cs), insertCustomersPrefix,
		"(?,?)", insertCustomersOnDup,
		func(i int, args []any) []any {
			return append(args, cs[i].CustomerID, cs[i].Name)
		})
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	return r.execBatch(ctx, len(rs), insertReviewsPrefix,
		"(?,?,?,?,?,?,?,?,?,?)", insertReviewsOnDup,
		func(i int, args []any) []any {
			rv := rs[i]
			return append(args,
				rv.ReviewID,
				rv.BusinessID,
				rv.CustomerID,
				rv.Time,
				rv.Rating,
				rv.Text,
				rv.SentimentScore,
				rv.SentimentLabel,
				rv.HasResponse,
				valF64(rv.ResponseLatencyHrs),
			)
		})
}

// ---- stats rebuilds (truncate then insert; each run replaces the rollups) ----

func (r *Repo) ReplaceMonthlyStats(ctx context.Context, rows []domain.StatsMonthly) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE stats_monthly"); err != nil {
		return err
	}
	return r.execBatch(ctx, len(rows), insertMonthlyStatsPrefix,
		"(?,?,?,?,?,?,?,?,?,?,?)", "",
		func(i int, args []any) []any {
			row := rows[i]
			return append(appendStats(args, row.BusinessID, row.SentimentStats, row.Year), row.Month)
		})
}

func (r *Repo) ReplaceYearlyStats(ctx context.Context, rows []domain.StatsYearly) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE stats_yearly"); err != nil {
		return err
	}
	return r.execBatch(ctx, len(rows), insertYearlyStatsPrefix,
		"(?,?,?,?,?,?,?,?,?,?)", "",
		func(i int, args []any) []any {
			row := rows[i]
			return appendStats(args, row.BusinessID, row.SentimentStats, row.Year)
		})
}

func (r *Repo) ReplaceTotalStats(ctx context.Context, rows []domain.StatsTotal) error {
	if _, err := r.db.ExecContext(ctx, "TRUNCATE TABLE stats_total"); err != nil {
		return err
	}
	return r.execBatch(ctx, len(rows), insertTotalStatsPrefix,
		"(?,?,?,?,?,?,?,?,?,?,?)", "",
		func(i int, args []any) []any {
			row := rows[i]
			s := row.SentimentStats
			return append(args,
				row.BusinessID,
				s.TotalReviews, s.PositiveCount, s.NeutralCount, s.NegativeCount,
				s.PositivePct, s.NeutralPct, s.NegativePct, s.AvgSentiment,
				row.FirstReviewDate, row.LastReviewDate,
			)
		})
}

// appendStats pushes business_id, the shared count/pct columns, then the grain
// keys in prefix column order.
func appendStats(args []any, id string, s domain.SentimentStats, grain ...int) []any {
	args = append(args,
		id,
		s.TotalReviews, s.PositiveCount, s.NeutralCount, s.NegativeCount,
		s.PositivePct, s.NeutralPct, s.NegativePct, s.AvgSentiment,
	)
	for _, g := range grain {
		args = append(args, g)
	}
	return args
}

// ---- reads ----

func scanBusiness(row interface{ Scan(...any) error }, b *domain.Business, flags []any) error {
	var (
		desc, addr, county, city, url sql.NullString
		lat, lon, avg                 sql.NullFloat64
		num                           sql.NullInt64
		hours                         []byte
	)
	dst := []any{
		&b.BusinessID, &b.Name, &desc, &addr, &county, &city,
		&lat, &lon, &avg, &num, &url,
		&b.IsPermanentlyClosed, &hours, &b.OriginalCategory, &b.NewCategory,
	}
	dst = append(dst, flags...)
	if err := row.Scan(dst...); err != nil {
		return err
	}
	b.Description = scanStr(desc)
	b.Address = scanStr(addr)
	b.County = scanStr(county)
	b.City = scanStr(city)
	b.Latitude = scanF64(lat)
	b.Longitude = scanF64(lon)
	b.AvgRating = scanF64(avg)
	b.NumOfReviews = scanInt(num)
	b.URL = scanStr(url)
	if len(hours) > 0 {
		b.HoursJSON = append([]byte(nil), hours...)
	}
	return nil
}

func (r *Repo) GetBusiness(ctx context.Context, id string) (domain.BusinessDetail, error) {
	row := r.db.QueryRowContext(ctx, getBusinessSQL, id)

	var bd domain.BusinessDetail
	flagVals := make([]bool, len(domain.Groups))
	flagDst := make([]any, len(domain.Groups))
	for i := range flagVals {
		flagDst[i] = &flagVals[i]
	}
	if err := scanBusiness(row, &bd.Business, flagDst); err != nil {
		if err == sql.ErrNoRows {
			return domain.BusinessDetail{}, domain.ErrNotFound
		}
		return domain.BusinessDetail{}, err
	}
	for i, g := range domain.Groups {
		if flagVals[i] {
			bd.Groups = append(bd.Groups, string(g))
		}
	}
	return bd, nil
}

// categorySlug validates a `field` filter value against the known category
// columns; the slug is interpolated into SQL so it must come from this set.
func categorySlug(field string) (string, bool) {
	for _, slug := range domain.GroupSlugs {
		if slug == field {
			return slug, true
		}
	}
	return "", false
}

func (r *Repo) ListBusinesses(ctx context.Context, q domain.BusinessQuery) (domain.BusinessPage, error) {
	var (
		conds []string
		args  []any
		join  string
	)
	if q.Field != nil {
		slug, ok := categorySlug(*q.Field)
		if !ok {
			return domain.BusinessPage{}, fmt.Errorf("unknown category field %q", *q.Field)
		}
		join = "JOIN category c ON c.business_id = b.business_id"
		conds = append(conds, "c."+slug+" = 1")
	}
	if q.County != nil {
		conds = append(conds, "b.county = ?")
		args = append(args, *q.County)
	}
	if q.City != nil {
		conds = append(conds, "b.city = ?")
		args = append(args, *q.City)
	}
	if q.MinRating != nil {
		conds = append(conds, "b.avg_rating >= ?")
		args = append(args, *q.MinRating)
	}
	if q.MaxRating != nil {
		conds = append(conds, "b.avg_rating <= ?")
		args = append(args, *q.MaxRating)
	}
	if q.Search != nil {
		conds = append(conds, "b.name LIKE ?")
		args = append(args, "%"+*q.Search+"%")
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	page := domain.BusinessPage{Page: q.Page, PageSize: q.PageSize}

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM business b %s %s", join, where)
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&page.Total); err != nil {
		return domain.BusinessPage{}, err
	}

	listSQL := fmt.Sprintf("SELECT %s FROM business b %s %s ORDER BY b.business_id LIMIT ? OFFSET ?",
		businessCols, join, where)
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return domain.BusinessPage{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var b domain.Business
		if err := scanBusiness(rows, &b, nil); err != nil {
			return domain.BusinessPage{}, err
		}
		page.Items = append(page.Items, b)
	}
	return page, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, id string, q domain.ReviewQuery) (domain.ReviewPage, error) {
	where := "WHERE r.business_id = ?"
	args := []any{id}
	if q.Rating != nil {
		where += " AND r.rating = ?"
		args = append(args, *q.Rating)
	}

	page := domain.ReviewPage{Page: q.Page, PageSize: q.PageSize}

	countSQL := "SELECT COUNT(*) FROM review r " + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&page.Total); err != nil {
		return domain.ReviewPage{}, err
	}

	listSQL := "SELECT " + reviewCols + " FROM review r " + where +
		" ORDER BY r.`time` DESC, r.review_id DESC LIMIT ? OFFSET ?"
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return domain.ReviewPage{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rv      domain.Review
			latency sql.NullFloat64
		)
		if err := rows.Scan(
			&rv.ReviewID, &rv.BusinessID, &rv.CustomerID, &rv.Time, &rv.Rating, &rv.Text,
			&rv.SentimentScore, &rv.SentimentLabel, &rv.HasResponse, &latency,
		); err != nil {
			return domain.ReviewPage{}, err
		}
		rv.ResponseLatencyHrs = scanF64(latency)
		page.Items = append(page.Items, rv)
	}
	return page, rows.Err()
}

func (r *Repo) RatingDistribution(ctx context.Context, id string) ([]domain.RatingCount, error) {
	rows, err := r.db.QueryContext(ctx, ratingDistributionSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RatingCount
	for rows.Next() {
		var rc domain.RatingCount
		if err := rows.Scan(&rc.Rating, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func scanStats(dst *domain.SentimentStats) []any {
	return []any{
		&dst.BusinessID, &dst.TotalReviews,
		&dst.PositiveCount, &dst.NeutralCount, &dst.NegativeCount,
		&dst.PositivePct, &dst.NeutralPct, &dst.NegativePct, &dst.AvgSentiment,
	}
}

// TotalStats returns nil (not an error) when no rollup row exists.
func (r *Repo) TotalStats(ctx context.Context, id string) (*domain.StatsTotal, error) {
	var (
		st          domain.StatsTotal
		first, last sql.NullTime
	)
	dst := append(scanStats(&st.SentimentStats), &first, &last)
	if err := r.db.QueryRowContext(ctx, totalStatsSQL, id).Scan(dst...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if first.Valid {
		t := first.Time
		st.FirstReviewDate = &t
	}
	if last.Valid {
		t := last.Time
		st.LastReviewDate = &t
	}
	return &st, nil
}

func (r *Repo) YearlyStats(ctx context.Context, id string) ([]domain.StatsYearly, error) {
	rows, err := r.db.QueryContext(ctx, yearlyStatsSQL, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatsYearly
	for rows.Next() {
		var row domain.StatsYearly
		dst := append(scanStats(&row.SentimentStats), &row.Year)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repo) MonthlyStats(ctx context.Context, id string, year *int) ([]domain.StatsMonthly, error) {
	stmt := monthlyStatsSQL
	args := []any{id}
	if year != nil {
		stmt += " AND `year` = ?"
		args = append(args, *year)
	}
	stmt += " ORDER BY `year`, `month`"

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatsMonthly
	for rows.Next() {
		var row domain.StatsMonthly
		dst := append(scanStats(&row.SentimentStats), &row.Year, &row.Month)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repo) FilterOptions(ctx context.Context, county *string) (domain.FilterOptions, error) {
	var out domain.FilterOptions

	counties, err := r.distinct(ctx,
		"SELECT DISTINCT county FROM business WHERE county IS NOT NULL ORDER BY county")
	if err != nil {
		return out, err
	}
	out.Counties = counties

	cityStmt := "SELECT DISTINCT city FROM business WHERE city IS NOT NULL"
	var args []any
	if county != nil {
		cityStmt += " AND county = ?"
		args = append(args, *county)
	}
	cityStmt += " ORDER BY city"
	cities, err := r.distinct(ctx, cityStmt, args...)
	if err != nil {
		return out, err
	}
	out.Cities = cities
	return out, nil
}

func (r *Repo) distinct(ctx context.Context, stmt string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
