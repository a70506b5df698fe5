package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

// stubEncoder maps each text to a fixed vector.
type stubEncoder struct {
	vectors map[string][]float32
	dims    int
	err     error
}

func (s *stubEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return append([]float32(nil), v...), nil
}

func (s *stubEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Encode(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEncoder) ModelName() string { return "stub" }
func (s *stubEncoder) Dimensions() int   { return s.dims }

func TestGenerateUnitNorm(t *testing.T) {
	enc := &stubEncoder{dims: 3, vectors: map[string][]float32{
		"a": {3, 0, 4},
		"b": {1, 1, 1},
	}}
	g := NewGenerator(enc)

	vectors, err := g.Generate(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	for i, v := range vectors {
		if n := Norm(v); math.Abs(n-1) > 1e-6 {
			t.Errorf("vector %d norm = %v, want 1", i, n)
		}
	}
	// 3-4-5 triangle: normalized first component is 3/5.
	if math.Abs(float64(vectors[0][0])-0.6) > 1e-6 {
		t.Errorf("vectors[0][0] = %v, want 0.6", vectors[0][0])
	}
}

func TestGeneratePreservesOrder(t *testing.T) {
	enc := &stubEncoder{dims: 2, vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
		"c": {1, 1},
	}}

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			g := NewGenerator(enc, WithWorkers(workers))

			texts := []string{"c", "a", "b", "a", "c"}
			vectors, err := g.Generate(context.Background(), texts)
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if len(vectors) != len(texts) {
				t.Fatalf("got %d vectors for %d texts", len(vectors), len(texts))
			}

			// vectors[1] and vectors[3] both came from "a".
			if vectors[1][0] != vectors[3][0] || vectors[1][1] != vectors[3][1] {
				t.Error("identical inputs produced different outputs")
			}
			if vectors[2][0] != 0 {
				t.Errorf("vectors[2] should come from %q, got %v", "b", vectors[2])
			}
		})
	}
}

func TestGenerateZeroNormFailsWhole(t *testing.T) {
	enc := &stubEncoder{dims: 2, vectors: map[string][]float32{
		"good":  {1, 2},
		"zero":  {0, 0},
		"tiny":  {1e-8, 0},
		"good2": {2, 1},
	}}
	g := NewGenerator(enc)

	_, err := g.Generate(context.Background(), []string{"good", "zero", "tiny", "good2"})
	if err == nil {
		t.Fatal("expected error for near-zero norms")
	}

	var zerr *ZeroNormError
	if !errors.As(err, &zerr) {
		t.Fatalf("expected *ZeroNormError, got %T: %v", err, err)
	}
	if len(zerr.Indices) != 2 || zerr.Indices[0] != 1 || zerr.Indices[1] != 2 {
		t.Errorf("offending indices = %v, want [1 2]", zerr.Indices)
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	g := NewGenerator(&stubEncoder{dims: 2})
	vectors, err := g.Generate(context.Background(), nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil result for empty input, got %v", vectors)
	}
}

func TestGenerateEncoderError(t *testing.T) {
	enc := &stubEncoder{dims: 2, err: errors.New("model offline")}

	for _, workers := range []int{1, 3} {
		g := NewGenerator(enc, WithWorkers(workers))
		if _, err := g.Generate(context.Background(), []string{"a", "b"}); err == nil {
			t.Errorf("workers=%d: expected error from failing encoder", workers)
		}
	}
}

func TestNormalizeVector(t *testing.T) {
	v := []float32{0, 3, 4}
	NormalizeVector(v)
	if math.Abs(Norm(v)-1) > 1e-6 {
		t.Errorf("norm after normalize = %v, want 1", Norm(v))
	}

	// Sub-threshold vectors are left untouched.
	tiny := []float32{1e-9, 0}
	NormalizeVector(tiny)
	if tiny[0] != 1e-9 {
		t.Error("sub-threshold vector should not be scaled")
	}
}

func TestDotIsCosineForUnitVectors(t *testing.T) {
	a := NormalizeVector([]float32{1, 0})
	b := NormalizeVector([]float32{1, 1})
	if got := Dot(a, b); math.Abs(got-math.Sqrt2/2) > 1e-6 {
		t.Errorf("Dot = %v, want %v", got, math.Sqrt2/2)
	}
}
