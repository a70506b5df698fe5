package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultEmbedServiceURL points at a local embed service.
	DefaultEmbedServiceURL = "http://127.0.0.1:5000"

	// DefaultEmbedServiceTimeout is the per-request timeout.
	DefaultEmbedServiceTimeout = 5 * time.Second

	embedServiceRateLimit = 20.0

	apiPathEmbed = "/embed"
)

// ServiceEncoder generates embeddings through a standalone embed
// service speaking the POST /embed {"text": ...} -> {"vector": [...]}
// contract.
type ServiceEncoder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

// ServiceOption configures a ServiceEncoder.
type ServiceOption func(*ServiceEncoder)

// WithServiceURL sets the embed service base URL.
func WithServiceURL(url string) ServiceOption {
	return func(e *ServiceEncoder) {
		e.baseURL = url
	}
}

// WithServiceTimeout sets the HTTP client timeout.
func WithServiceTimeout(timeout time.Duration) ServiceOption {
	return func(e *ServiceEncoder) {
		e.client.Timeout = timeout
	}
}

// NewServiceEncoder creates an embed-service-backed encoder. The model
// name and dimensions describe the model the service hosts; the
// dimension is validated against every response.
func NewServiceEncoder(model string, dimensions int, opts ...ServiceOption) *ServiceEncoder {
	e := &ServiceEncoder{
		baseURL:    DefaultEmbedServiceURL,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: DefaultEmbedServiceTimeout},
		limiter:    rate.NewLimiter(rate.Limit(embedServiceRateLimit), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode generates a raw embedding for one text.
func (e *ServiceEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+apiPathEmbed, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed service returned status %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Vector) != e.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(result.Vector), e.dimensions)
	}

	return result.Vector, nil
}

// EncodeBatch encodes texts one at a time, preserving input order.
func (e *ServiceEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Encode(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// ModelName returns the name of the embedding model the service hosts.
func (e *ServiceEncoder) ModelName() string {
	return e.model
}

// Dimensions returns the expected vector dimensions.
func (e *ServiceEncoder) Dimensions() int {
	return e.dimensions
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float32 `json:"vector"`
}
