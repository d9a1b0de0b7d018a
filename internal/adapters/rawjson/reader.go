// Package rawjson reads the raw NDJSON dumps (one JSON object per line).
// Malformed lines are counted and skipped, not fatal: the dumps are scraped
// data and a bad line must not sink a whole batch.
package rawjson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"localpulse/internal/domain"
)

// maxLineBytes bounds one NDJSON line; metadata rows carry MISC blobs that
// can run well past bufio's default 64KiB.
const maxLineBytes = 4 * 1024 * 1024

func readLines[T any](path string) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		out     []T
		skipped int
		lineNo  int
	)
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			skipped++
			log.Warn().Str("path", path).Int("line", lineNo).Err(err).Msg("skipping malformed line")
			continue
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, skipped, nil
}

// ReadBusinesses parses a metadata dump. The second return is the count of
// skipped malformed lines.
func ReadBusinesses(path string) ([]domain.RawBusiness, int, error) {
	return readLines[domain.RawBusiness](path)
}

// ReadReviews parses a reviews dump.
func ReadReviews(path string) ([]domain.RawReview, int, error) {
	return readLines[domain.RawReview](path)
}
