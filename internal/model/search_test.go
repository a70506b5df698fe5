package model

import "testing"

func searchArtifact() *Artifact {
	return &Artifact{
		Movies: []MovieRecord{
			{ID: "1", Title: "North"},
			{ID: "2", Title: "East"},
			{ID: "3", Title: "Northeast"},
		},
		Embeddings: [][]float32{
			{0, 1},
			{1, 0},
			{0.70710678, 0.70710678},
		},
		Metadata: Metadata{Stats: Stats{EmbeddingDim: 2}},
	}
}

func TestSearchRanksBySimilarity(t *testing.T) {
	a := searchArtifact()

	results := a.Search([]float32{0, 2}, 2)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Movie.ID != "1" {
		t.Errorf("top result = %s, want 1 (North)", results[0].Movie.ID)
	}
	if results[1].Movie.ID != "3" {
		t.Errorf("second result = %s, want 3 (Northeast)", results[1].Movie.ID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted by similarity descending")
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	a := searchArtifact()
	if results := a.Search([]float32{1, 0, 0}, 5); results != nil {
		t.Errorf("expected nil for dimension mismatch, got %v", results)
	}
}

func TestSearchZeroKReturnsAll(t *testing.T) {
	a := searchArtifact()
	if results := a.Search([]float32{1, 1}, 0); len(results) != 3 {
		t.Errorf("got %d results, want all 3", len(results))
	}
}
