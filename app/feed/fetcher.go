package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts = 3
	maxListingBytes    = 8 << 20
)

// Sleeper suspends for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

type FetcherConfig struct {
	BaseURL           string // e.g. https://www.reddit.com/r
	Window            string // listing time window, e.g. "day"
	Identities        []string
	MaxAttempts       int
	RequestsPerSecond float64 // 0 disables the ceiling
}

type Fetcher struct {
	httpClient  *http.Client
	baseURL     string
	window      string
	identities  []string
	maxAttempts int
	limiter     *rate.Limiter
	sleep       Sleeper

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFetcher(httpClient *http.Client, config FetcherConfig) *Fetcher {
	identities := config.Identities
	if len(identities) == 0 {
		identities = DefaultRules().Identities
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	window := config.Window
	if window == "" {
		window = "day"
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := max(int(config.RequestsPerSecond), 1)
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	seed := uint64(time.Now().UnixNano())

	return &Fetcher{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		window:      window,
		identities:  identities,
		maxAttempts: maxAttempts,
		limiter:     limiter,
		sleep:       sleepContext,
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

func (f *Fetcher) WithSleeper(sleep Sleeper) *Fetcher {
	f.sleep = sleep
	return f
}

func (f *Fetcher) WithRand(rng *rand.Rand) *Fetcher {
	f.rng = rng
	return f
}

// Fetch retrieves the top listing of one topic. Every failure is logged and
// reported as an empty result, so one topic never affects another.
func (f *Fetcher) Fetch(ctx context.Context, topic string, limit int, politeness int) []RawItem {
	identity, jitter := f.draw()

	if politeness > 0 {
		delay := time.Duration(jitter * float64(politeness) * float64(time.Second))
		if err := f.sleep(ctx, delay); err != nil {
			slog.Debug("Fetch cancelled during politeness delay", "topic", topic, "error", err)
			return nil
		}
	}

	endpoint := f.Endpoint(topic, limit)
	slog.Info("Fetching topic", "topic", topic, "limit", limit, "identity", identityHash(identity))

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		status, body, err := f.get(ctx, endpoint, identity)
		if err != nil {
			slog.Error("Failed to fetch topic", "topic", topic, "attempt", attempt, "error", err)
			return nil
		}

		switch status {
		case http.StatusOK:
			items, err := ParseListing(topic, body)
			if err != nil {
				slog.Error("Failed to parse topic listing", "topic", topic, "attempt", attempt, "error", err)
				return nil
			}
			slog.Debug("Topic fetched", "topic", topic, "attempt", attempt, "items", len(items))
			return items

		case http.StatusTooManyRequests:
			wait := time.Duration(1<<attempt) * time.Second
			slog.Warn("Rate limited, backing off", "topic", topic, "attempt", attempt, "delay", wait.String())
			if err := f.sleep(ctx, wait); err != nil {
				slog.Debug("Fetch cancelled during backoff", "topic", topic, "error", err)
				return nil
			}

		default:
			slog.Warn("Unexpected upstream status", "topic", topic, "attempt", attempt, "status", status)
			return nil
		}
	}

	slog.Warn("Giving up on rate limited topic", "topic", topic, "attempts", f.maxAttempts)
	return nil
}

// Endpoint builds the listing URL for topic.
func (f *Fetcher) Endpoint(topic string, limit int) string {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("t", f.window)

	return fmt.Sprintf("%s/%s/top.json?%s", f.baseURL, url.PathEscape(topic), query.Encode())
}

func (f *Fetcher) get(ctx context.Context, endpoint, identity string) (int, []byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("failed to wait for request slot: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", identity)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxListingBytes))
		return resp.StatusCode, nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, data, nil
}

// draw picks the identity for one call and a politeness jitter in [0.5, 1.5).
func (f *Fetcher) draw() (string, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	identity := f.identities[f.rng.IntN(len(f.identities))]
	jitter := 0.5 + f.rng.Float64()
	return identity, jitter
}

func identityHash(identity string) string {
	hash := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(hash[:])[:6]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
