package embedding

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
	// DefaultOllamaURL is the default Ollama API endpoint.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model.
	DefaultOllamaModel = "paraphrase-multilingual"

	// DefaultOllamaDimensions is the output dimension of the default model.
	DefaultOllamaDimensions = 768

	// DefaultOllamaTimeout is the per-request timeout.
	DefaultOllamaTimeout = 30 * time.Second

	// ollamaRateLimit caps outbound embedding requests per second.
	ollamaRateLimit = 20.0

	apiPathTags       = "/api/tags"
	apiPathEmbeddings = "/api/embeddings"
)

// OllamaEncoder generates embeddings through a local Ollama server.
type OllamaEncoder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

// OllamaOption configures an OllamaEncoder.
type OllamaOption func(*OllamaEncoder)

// WithOllamaURL sets the Ollama API base URL.
func WithOllamaURL(url string) OllamaOption {
	return func(e *OllamaEncoder) {
		e.baseURL = url
	}
}

// WithOllamaModel sets the embedding model.
func WithOllamaModel(model string) OllamaOption {
	return func(e *OllamaEncoder) {
		e.model = model
	}
}

// WithOllamaDimensions sets the expected vector dimensions.
func WithOllamaDimensions(dims int) OllamaOption {
	return func(e *OllamaEncoder) {
		e.dimensions = dims
	}
}

// WithOllamaTimeout sets the HTTP client timeout.
func WithOllamaTimeout(timeout time.Duration) OllamaOption {
	return func(e *OllamaEncoder) {
		e.client.Timeout = timeout
	}
}

// NewOllamaEncoder creates an Ollama-backed encoder.
func NewOllamaEncoder(opts ...OllamaOption) *OllamaEncoder {
	e := &OllamaEncoder{
		baseURL:    DefaultOllamaURL,
		model:      DefaultOllamaModel,
		dimensions: DefaultOllamaDimensions,
		client:     &http.Client{Timeout: DefaultOllamaTimeout},
		limiter:    rate.NewLimiter(rate.Limit(ollamaRateLimit), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode generates a raw embedding for one text.
func (e *OllamaEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+apiPathEmbeddings, bytes.NewReader(body))
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
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, formatErrorBody(resp.Body))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Embedding) != e.dimensions {
		return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(result.Embedding), e.dimensions)
	}

	return result.Embedding, nil
}

// EncodeBatch encodes texts one at a time, preserving input order.
// Ollama's embeddings endpoint is single-prompt.
func (e *OllamaEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

// ModelName returns the name of the embedding model.
func (e *OllamaEncoder) ModelName() string {
	return e.model
}

// Dimensions returns the expected vector dimensions.
func (e *OllamaEncoder) Dimensions() int {
	return e.dimensions
}

// IsAvailable checks if Ollama is running and accessible.
func (e *OllamaEncoder) IsAvailable(ctx context.Context) error {
	resp, err := e.doGet(ctx, apiPathTags)
	if err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	resp.Body.Close()
	return nil
}

// HasModel checks if the configured model is available in Ollama.
func (e *OllamaEncoder) HasModel(ctx context.Context) (bool, error) {
	resp, err := e.doGet(ctx, apiPathTags)
	if err != nil {
		return false, fmt.Errorf("checking models: %w", err)
	}
	defer resp.Body.Close()

	var result ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}

	for _, m := range result.Models {
		if m.Name == e.model {
			return true, nil
		}
	}
	return false, nil
}

// doGet performs a GET request to the specified path. The caller is
// responsible for closing the response body.
func (e *OllamaEncoder) doGet(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	return resp, nil
}

// formatErrorBody reads and formats the response body for error messages.
func formatErrorBody(body io.Reader) string {
	respBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	return string(respBody)
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type ollamaTagsResponse struct {
	Models []ollamaModel `json:"models"`
}

type ollamaModel struct {
	Name string `json:"name"`
}
