// Package location derives city/county/state from a free-text address via a
// trailing ZIP code and a static postal reference dataset.
package location

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var zipTail = regexp.MustCompile(`(\d{5})$`)

// Place is the resolved location for one ZIP code.
type Place struct {
	City   string
	County string
	State  string
}

// Info is the extraction result. All fields are nil when extraction fails;
// failure degrades a single record's location columns and nothing else.
type Info struct {
	City   *string
	County *string
	State  *string
}

// Extractor resolves addresses against an in-memory ZIP index. Built once per
// run and shared: lookups are read-only and safe from any number of workers.
type Extractor struct {
	byZip map[string]Place
}

// LoadCSV reads the postal reference dataset (header zip,city,county,state).
// Rows with a malformed ZIP are skipped.
func LoadCSV(path string) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip reference: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	byZip := make(map[string]Place, 1024)
	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read zip reference: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 4 {
			continue
		}
		zip := strings.TrimSpace(rec[0])
		if len(zip) != 5 {
			continue
		}
		byZip[zip] = Place{
			City:   strings.TrimSpace(rec[1]),
			County: strings.TrimSpace(rec[2]),
			State:  strings.TrimSpace(rec[3]),
		}
	}
	if len(byZip) == 0 {
		return nil, fmt.Errorf("zip reference %s has no usable rows", path)
	}

	log.Info().Str("path", path).Int("zips", len(byZip)).Msg("zip reference loaded")
	return &Extractor{byZip: byZip}, nil
}

// NewExtractor builds an Extractor from an in-memory reference table.
func NewExtractor(byZip map[string]Place) *Extractor {
	return &Extractor{byZip: byZip}
}

// Extract pulls a trailing 5-digit ZIP out of the address and resolves it.
// Any miss (empty address, no ZIP tail, unknown ZIP) yields the all-nil Info.
func (e *Extractor) Extract(address string) Info {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return Info{}
	}
	m := zipTail.FindStringSubmatch(addr)
	if m == nil {
		return Info{}
	}
	p, ok := e.byZip[m[1]]
	if !ok {
		return Info{}
	}
	return Info{City: &p.City, County: &p.County, State: &p.State}
}
