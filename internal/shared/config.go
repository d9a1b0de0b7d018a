package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	// raw inputs and reference artifacts
	RawMetaPath     string
	RawReviewsPath  string
	CategoryMapPath string
	ZipRefPath      string
	LandingDir      string // non-empty enables watch mode

	// sentiment scoring
	ModelURL          string
	ModelRPS          int
	PositiveThreshold float64
	NegativeThreshold float64

	Workers  int
	CacheTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/localpulse?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		RawMetaPath:     env("RAW_META_PATH", "data/meta.ndjson"),
		RawReviewsPath:  env("RAW_REVIEWS_PATH", "data/reviews.ndjson"),
		CategoryMapPath: env("CATEGORY_MAPPING_PATH", "data/category_mapping.json"),
		ZipRefPath:      env("ZIP_REFERENCE_PATH", "data/zip_city_county.csv"),
		LandingDir:      env("LANDING_DIR", ""),

		ModelURL:          env("SENTIMENT_MODEL_URL", ""),
		ModelRPS:          atoi("SENTIMENT_MODEL_RPS", 10),
		PositiveThreshold: atof("SENTIMENT_POSITIVE_THRESHOLD", 0.6),
		NegativeThreshold: atof("SENTIMENT_NEGATIVE_THRESHOLD", 0.4),

		Workers:  atoi("ETL_WORKERS", 8),
		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.ModelURL == "" {
		log.Warn().Msg("SENTIMENT_MODEL_URL is empty; scoring falls back to the lexicon")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
