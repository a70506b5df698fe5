package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenAIModel is the default OpenAI embedding model.
	DefaultOpenAIModel = string(openai.SmallEmbedding3)

	// DefaultOpenAIDimensions is the output dimension of the default model.
	DefaultOpenAIDimensions = 1536
)

// openaiClient is the slice of the go-openai client the encoder needs.
// Narrowed for test substitution.
type openaiClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEncoder generates embeddings through the OpenAI API.
type OpenAIEncoder struct {
	client     openaiClient
	model      string
	dimensions int
}

// OpenAIOption configures an OpenAIEncoder.
type OpenAIOption func(*OpenAIEncoder)

// WithOpenAIModel sets the embedding model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(e *OpenAIEncoder) {
		e.model = model
	}
}

// WithOpenAIDimensions sets the expected vector dimensions.
func WithOpenAIDimensions(dims int) OpenAIOption {
	return func(e *OpenAIEncoder) {
		e.dimensions = dims
	}
}

// WithOpenAIClient substitutes the underlying API client.
func WithOpenAIClient(c openaiClient) OpenAIOption {
	return func(e *OpenAIEncoder) {
		e.client = c
	}
}

// NewOpenAIEncoder creates an OpenAI-backed encoder.
func NewOpenAIEncoder(apiKey string, opts ...OpenAIOption) *OpenAIEncoder {
	e := &OpenAIEncoder{
		client:     openai.NewClient(apiKey),
		model:      DefaultOpenAIModel,
		dimensions: DefaultOpenAIDimensions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode generates a raw embedding for one text.
func (e *OpenAIEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch generates raw embeddings for texts in one API call,
// preserving input order.
func (e *OpenAIEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai returned out-of-range index %d", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("unexpected embedding dimensions: got %d, want %d", len(d.Embedding), e.dimensions)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// ModelName returns the name of the embedding model.
func (e *OpenAIEncoder) ModelName() string {
	return e.model
}

// Dimensions returns the expected vector dimensions.
func (e *OpenAIEncoder) Dimensions() int {
	return e.dimensions
}
