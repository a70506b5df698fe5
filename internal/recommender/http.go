package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultHTTPTimeout bounds one recommender request.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultHTTPRetries is the retry budget for transport failures.
	// Malformed responses are not retried: the payload will not get
	// better on a second read.
	DefaultHTTPRetries = 2

	// httpRateLimit caps outbound requests per second.
	httpRateLimit = 10.0

	apiPathRecommend = "/api/recommender"
)

// HTTP invokes a recommender over its POST /api/recommender endpoint:
// {"query": ...} in, a JSON array of movies out.
type HTTP struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retries int
}

// HTTPOption configures an HTTP recommender.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithHTTPRetries sets the transport-failure retry budget.
func WithHTTPRetries(n int) HTTPOption {
	return func(h *HTTP) {
		h.retries = n
	}
}

// NewHTTP creates an HTTP recommender client for the given base URL.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultHTTPTimeout},
		limiter: rate.NewLimiter(rate.Limit(httpRateLimit), 1),
		retries: DefaultHTTPRetries,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Recommend posts the query and decodes the response. Transport
// failures and 5xx responses are retried up to the budget, then
// reported as FailUnreachable.
func (h *HTTP) Recommend(ctx context.Context, query string) Result {
	var lastErr error
	for attempt := 0; attempt <= h.retries; attempt++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return failure(FailUnreachable, err)
		}

		body, retryable, err := h.post(ctx, query)
		if err == nil {
			return decodeMovies(body)
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return failure(FailUnreachable, lastErr)
}

// post performs one request. retryable reports whether a retry could
// plausibly succeed.
func (h *HTTP) post(ctx context.Context, query string) (body []byte, retryable bool, err error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, false, fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+apiPathRecommend, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("recommender returned status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}
	return body, false, nil
}
