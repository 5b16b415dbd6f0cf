// Package keyindexer resolves which on-chain accounts a public key controls by
// querying a network's key indexer service and grouping the matching key slots
// per address.
package keyindexer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"flow-wallet/go-core/internal/platform/ratelimiter"
	"flow-wallet/go-core/pkg/models"
)

var (
	ErrIndexerRequestFailed = errors.New("key indexer request failed")
	ErrRateLimited          = errors.New("key indexer rate limit exceeded")
	ErrInvalidPublicKey     = errors.New("public key must be 64 bytes")
)

const (
	rawPublicKeySize   = 64
	defaultHTTPTimeout = 15 * time.Second
	defaultLookupRPS   = 5
	defaultLookupBurst = 10
)

// Client queries key indexer deployments. The zero value is not usable; build
// one with NewClient.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimiter.KeyedLimiter
	logger     *slog.Logger
	metrics    *metrics
	endpoints  map[ChainID]string
}

// Options tune the client; zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	// RequestsPerSecond/Burst cap outgoing lookups per network. Zero selects
	// the defaults; a negative RequestsPerSecond disables limiting.
	RequestsPerSecond float64
	Burst             int
	// Endpoints overrides the base URL per network, mainly for tests.
	Endpoints map[ChainID]string
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rps := opts.RequestsPerSecond
	burst := opts.Burst
	if rps == 0 {
		rps = defaultLookupRPS
	}
	if burst == 0 {
		burst = defaultLookupBurst
	}

	endpoints := make(map[ChainID]string, len(defaultEndpoints))
	for network, base := range defaultEndpoints {
		endpoints[network] = base
	}
	for network, base := range opts.Endpoints {
		endpoints[network] = base
	}

	return &Client{
		httpClient: httpClient,
		limiter:    ratelimiter.New(rps, burst),
		logger:     logger,
		metrics:    lookupMetrics(),
		endpoints:  endpoints,
	}
}

// Lookup fetches the raw indexer response for a raw 64-byte public key.
func (c *Client) Lookup(ctx context.Context, network ChainID, publicKey []byte) (Response, error) {
	if len(publicKey) != rawPublicKeySize {
		return Response{}, ErrInvalidPublicKey
	}
	base, ok := c.endpoints[network]
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrNetworkNotSupported, network)
	}
	if !c.limiter.Allow(string(network)) {
		c.metrics.observe(network, "rate_limited", 0)
		return Response{}, ErrRateLimited
	}

	hexKey := hex.EncodeToString(publicKey)
	url := fmt.Sprintf("%s/key/%s", base, hexKey)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("building indexer request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(network, "transport_error", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("%w: %v", ErrIndexerRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		c.metrics.observe(network, fmt.Sprintf("http_%d", resp.StatusCode), time.Since(start).Seconds())
		return Response{}, fmt.Errorf("%w: status %d", ErrIndexerRequestFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.observe(network, "read_error", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("%w: reading body: %v", ErrIndexerRequestFailed, err)
	}

	parsed := parseResponse(body)
	c.metrics.observe(network, "ok", time.Since(start).Seconds())
	c.logger.Debug("key indexer lookup",
		"network", string(network),
		"key_count", len(parsed.Accounts),
	)
	return parsed, nil
}

// DiscoverAccounts looks up a public key and returns the controlled accounts,
// grouped by address in first-seen order. A key with no matches yields an
// empty slice, not an error.
func (c *Client) DiscoverAccounts(ctx context.Context, network ChainID, publicKey []byte) ([]models.Account, error) {
	resp, err := c.Lookup(ctx, network, publicKey)
	if err != nil {
		return nil, err
	}
	return aggregateAccounts(resp.Accounts), nil
}
