package sentiment

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// modelClient is the model-backed strategy: an HTTP client to the local
// inference sidecar that serves the pretrained embedding+classifier pipeline.
// Loading the model is the sidecar's one-time cost; this client only has to
// survive its hiccups without taking the batch down.
type modelClient struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func newModelClient(base string, rps int) *modelClient {
	if rps <= 0 {
		rps = 50
	}
	return &modelClient{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// healthz probes the sidecar once at construction. Failure here is what
// triggers the lexicon downgrade.
func (c *modelClient) healthz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model healthz status %d", resp.StatusCode)
	}
	return nil
}

type scoreRequest struct {
	Text string `json:"text"`
}

// scoreResponse tolerates a confidence delivered as number or string;
// anything unparseable folds to the neutral-leaning 0.5 default.
type scoreResponse struct {
	Label      string      `json:"label"`
	Confidence json.Number `json:"confidence"`
}

func (c *modelClient) scoreText(ctx context.Context, text string) (float64, error) {
	var out scoreResponse
	if err := c.post(ctx, c.base+"/v1/sentiment", scoreRequest{Text: text}, &out); err != nil {
		return 0, err
	}

	conf := 0.5
	if f, err := out.Confidence.Float64(); err == nil && f >= 0 && f <= 1 {
		conf = f
	}

	// Fold label+confidence into a [0,1] score. The label thresholds are
	// re-applied by the Analyzer on this folded score.
	switch strings.ToLower(out.Label) {
	case "positive":
		return (1 + conf) / 2, nil
	case "negative":
		return (1 - conf) / 2, nil
	default:
		return 0.5, nil
	}
}

// post performs a JSON POST with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided.
func (c *modelClient) post(ctx context.Context, url string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("model remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("model bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	if lastErr == nil {
		lastErr = errors.New("model request failed")
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter from crypto/rand to stay safe under concurrent workers.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
