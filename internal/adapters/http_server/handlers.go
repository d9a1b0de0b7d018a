package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"localpulse/internal/app"
	"localpulse/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/businesses", h.listBusinesses)
	s.mux.Get("/v1/businesses/{id}", h.getBusiness)
	s.mux.Get("/v1/businesses/{id}/reviews", h.listReviews)
	s.mux.Get("/v1/businesses/{id}/reviews/summary", h.reviewSummary)
	s.mux.Get("/v1/businesses/{id}/stats/total", h.totalStats)
	s.mux.Get("/v1/businesses/{id}/stats/yearly", h.yearlyStats)
	s.mux.Get("/v1/businesses/{id}/stats/monthly", h.monthlyStats)
	s.mux.Get("/v1/filters/options", h.filterOptions)
	s.mux.Get("/v1/filters/fields", h.filterFields)
	s.mux.Get("/v1/filters/counties", h.filterCounties)
	s.mux.Get("/v1/filters/cities", h.filterCities)
	s.mux.Get("/v1/filters/ratings", h.filterRatings)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- query param parsing ----

func optStr(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func optInt(r *http.Request, key string) (*int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// parsePage validates page/page_size, defaulting to 1 and defaultPageSize.
func parsePage(r *http.Request) (page, size int, ok bool) {
	page, size = 1, defaultPageSize
	if p, valid := optInt(r, "page"); !valid {
		return 0, 0, false
	} else if p != nil {
		if *p < 1 {
			return 0, 0, false
		}
		page = *p
	}
	if ps, valid := optInt(r, "page_size"); !valid {
		return 0, 0, false
	} else if ps != nil {
		if *ps < 1 || *ps > maxPageSize {
			return 0, 0, false
		}
		size = *ps
	}
	return page, size, true
}

// ---- handlers ----

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	page, size, ok := parsePage(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid pagination",
			"page must be >= 1 and page_size between 1 and 100")
		return
	}
	minR, okMin := optInt(r, "min_rating")
	maxR, okMax := optInt(r, "max_rating")
	if !okMin || !okMax {
		writeProblem(w, http.StatusBadRequest, "Invalid rating bound", "rating bounds must be integers")
		return
	}
	q := domain.BusinessQuery{
		Field:     optStr(r, "field"),
		County:    optStr(r, "county"),
		City:      optStr(r, "city"),
		MinRating: minR,
		MaxRating: maxR,
		Search:    optStr(r, "search"),
		Page:      page,
		PageSize:  size,
	}
	out, err := h.Q.ListBusinesses(r.Context(), q)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	writeWithETag(w, r, out)
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := h.Q.GetBusiness(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "business not found")
		return
	}
	writeWithETag(w, r, resp)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, size, ok := parsePage(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid pagination",
			"page must be >= 1 and page_size between 1 and 100")
		return
	}
	rating, valid := optInt(r, "rating")
	if !valid || (rating != nil && (*rating < 1 || *rating > 5)) {
		writeProblem(w, http.StatusBadRequest, "Invalid rating", "rating must be an integer between 1 and 5")
		return
	}
	out, err := h.Q.ListReviews(r.Context(), id, domain.ReviewQuery{Rating: rating, Page: page, PageSize: size})
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to list reviews")
		return
	}
	writeWithETag(w, r, out)
}

func (h *Handlers) reviewSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dist, err := h.Q.RatingDistribution(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load rating distribution")
		return
	}
	if dist == nil {
		dist = []domain.RatingCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"business_id": id, "ratings": dist})
}

func (h *Handlers) totalStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.Q.TotalStats(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load stats")
		return
	}
	writeWithETag(w, r, st)
}

func (h *Handlers) yearlyStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.Q.YearlyStats(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load stats")
		return
	}
	if rows == nil {
		rows = []domain.StatsYearly{}
	}
	writeWithETag(w, r, rows)
}

func (h *Handlers) monthlyStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	year, valid := optInt(r, "year")
	if !valid {
		writeProblem(w, http.StatusBadRequest, "Invalid year", "year must be an integer")
		return
	}
	rows, err := h.Q.MonthlyStats(r.Context(), id, year)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load stats")
		return
	}
	if rows == nil {
		rows = []domain.StatsMonthly{}
	}
	writeWithETag(w, r, rows)
}

func (h *Handlers) filterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Q.FilterOptions(r.Context(), optStr(r, "county"))
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load filter options")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// filterFields lists the category column slugs accepted by the `field` filter.
func (h *Handlers) filterFields(w http.ResponseWriter, r *http.Request) {
	fields := make([]string, 0, len(domain.Groups))
	for _, g := range domain.Groups {
		fields = append(fields, domain.GroupSlugs[g])
	}
	writeJSON(w, http.StatusOK, map[string][]string{"fields": fields})
}

func (h *Handlers) filterCounties(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Q.FilterOptions(r.Context(), nil)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load counties")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"counties": opts.Counties})
}

func (h *Handlers) filterCities(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Q.FilterOptions(r.Context(), optStr(r, "county"))
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to load cities")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"cities": opts.Cities})
}

func (h *Handlers) filterRatings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]int{"ratings": {1, 2, 3, 4, 5}})
}
