package embedding

import (
	"context"
	"fmt"
	"sync"
)

// ZeroNormError reports raw embeddings whose norm fell below MinNorm.
// It carries every offending index: a near-zero norm is a data or model
// integrity fault, not a per-item skip.
type ZeroNormError struct {
	Indices []int
}

func (e *ZeroNormError) Error() string {
	return fmt.Sprintf("embeddings with near-zero norm at indices %v", e.Indices)
}

// Generator produces quality-gated, L2-normalized embeddings from an
// Encoder. It adds no randomness of its own: identical texts against an
// identical encoder reproduce identical vectors.
type Generator struct {
	enc     Encoder
	workers int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithWorkers enables concurrent per-text encoding with n workers.
// Results are written back to their originating slots, so output order
// is independent of completion order. n <= 1 means a single batched
// encoder call.
func WithWorkers(n int) GeneratorOption {
	return func(g *Generator) {
		g.workers = n
	}
}

// NewGenerator creates a Generator over the given encoder.
func NewGenerator(enc Encoder, opts ...GeneratorOption) *Generator {
	g := &Generator{enc: enc}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate encodes texts and returns one unit vector per input, in
// input order. If any raw vector has a norm below MinNorm the whole
// operation fails with a *ZeroNormError listing every offending index;
// no partial result is returned.
func (g *Generator) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var (
		raw [][]float32
		err error
	)
	if g.workers > 1 {
		raw, err = g.encodeParallel(ctx, texts)
	} else {
		raw, err = g.enc.EncodeBatch(ctx, texts)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %d texts: %w", len(texts), err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(raw), len(texts))
	}

	var bad []int
	for i, v := range raw {
		if Norm(v) < MinNorm {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		return nil, &ZeroNormError{Indices: bad}
	}

	for _, v := range raw {
		NormalizeVector(v)
	}
	return raw, nil
}

// encodeParallel encodes each text on a bounded worker pool. Each
// result lands in its originating index's slot.
func (g *Generator) encodeParallel(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	indices := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue // drain remaining indices so the feeder never blocks
				}
				v, err := g.enc.Encode(ctx, texts[i])
				if err != nil {
					setErr(fmt.Errorf("encoding text %d: %w", i, err))
					continue
				}
				results[i] = v
			}
		}()
	}

	for i := range texts {
		select {
		case <-ctx.Done():
			close(indices)
			wg.Wait()
			return nil, ctx.Err()
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
