package model

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/pvcastro/cinevec/internal/embedding"
)

// SimilaritySampleSize caps how many records the pairwise similarity
// diagnostic samples.
const SimilaritySampleSize = 100

// Builder assembles validated records and vectors into an Artifact.
type Builder struct {
	modelName string
	strategy  string
	weights   map[string]float64
	rng       *rand.Rand
	now       func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRand sets the random source used for similarity sampling.
// Builds are reproducible when the source is seeded deterministically.
func WithRand(rng *rand.Rand) BuilderOption {
	return func(b *Builder) {
		b.rng = rng
	}
}

// WithStrategy records the combine strategy and weights that produced
// the combined texts, so consumers can tell artifact variants apart.
func WithStrategy(strategy string, weights map[string]float64) BuilderOption {
	return func(b *Builder) {
		b.strategy = strategy
		b.weights = weights
	}
}

// WithClock overrides the generation timestamp source. Used in tests.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a Builder for the given embedding model
// identifier.
func NewBuilder(modelName string, opts ...BuilderOption) *Builder {
	b := &Builder{
		modelName: modelName,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates records against vectors and assembles the artifact.
// Validation failures are fatal: a record/vector count mismatch, a
// duplicate id, an empty title, or an empty input set each abort the
// build with a cause naming the offending index. combined carries the
// per-record combined text used for the average-length diagnostic and
// the degenerate-record count; it must be parallel to records.
func (b *Builder) Build(records []MovieRecord, combined []string, vectors [][]float32) (*Artifact, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to build from")
	}
	if len(records) != len(vectors) {
		return nil, fmt.Errorf("record/vector count mismatch: %d records, %d vectors", len(records), len(vectors))
	}
	if len(combined) != len(records) {
		return nil, fmt.Errorf("record/combined-text count mismatch: %d records, %d texts", len(records), len(combined))
	}

	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("record %d has empty id", i)
		}
		if strings.TrimSpace(rec.Title) == "" {
			return nil, fmt.Errorf("record %d (%s) has empty title", i, rec.ID)
		}
		if prev, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q at records %d and %d", rec.ID, prev, i)
		}
		seen[rec.ID] = i
	}

	totalLen := 0
	degenerate := 0
	for _, text := range combined {
		totalLen += len(text)
		if text == "" {
			degenerate++
		}
	}

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	a := &Artifact{
		Movies:     records,
		Embeddings: vectors,
		Metadata: Metadata{
			Model:          b.modelName,
			GenerationDate: b.now().Format(time.RFC3339),
			Strategy:       b.strategy,
			Weights:        b.weights,
			Stats: Stats{
				NumMovies:     len(records),
				AvgTextLength: totalLen / len(records),
				EmbeddingDim:  dim,
				Degenerate:    degenerate,
				Similarity:    b.similarityStats(vectors),
			},
		},
	}
	return a, nil
}

// similarityStats samples min(SimilaritySampleSize, N) vectors without
// replacement, computes every pairwise cosine similarity among the
// sample, and summarizes the off-diagonal values. Self-similarity is
// excluded.
func (b *Builder) similarityStats(vectors [][]float32) SimilarityStats {
	n := len(vectors)
	sampleSize := SimilaritySampleSize
	if n < sampleSize {
		sampleSize = n
	}
	if sampleSize < 2 {
		return SimilarityStats{}
	}

	perm := b.rng.Perm(n)[:sampleSize]
	sample := make([][]float32, sampleSize)
	for i, idx := range perm {
		sample[i] = vectors[idx]
	}

	sims := make([]float64, 0, sampleSize*(sampleSize-1))
	for i := 0; i < sampleSize; i++ {
		for j := 0; j < sampleSize; j++ {
			if i == j {
				continue
			}
			sims = append(sims, embedding.Dot(sample[i], sample[j]))
		}
	}

	sort.Float64s(sims)

	var sum float64
	for _, s := range sims {
		sum += s
	}

	mid := len(sims) / 2
	median := sims[mid]
	if len(sims)%2 == 0 {
		median = (sims[mid-1] + sims[mid]) / 2
	}

	return SimilarityStats{
		Min:    sims[0],
		Max:    sims[len(sims)-1],
		Median: median,
		Mean:   sum / float64(len(sims)),
	}
}
