package model

import (
	"sort"

	"github.com/pvcastro/cinevec/internal/embedding"
)

// SearchResult is one movie ranked by similarity to a query vector.
type SearchResult struct {
	Movie      MovieRecord `json:"movie"`
	Similarity float64     `json:"similarity"`
}

// Search ranks the artifact's movies by cosine similarity against a
// query vector and returns the top k. The query is normalized to unit
// length first; stored vectors are already unit length, so the dot
// product is the cosine similarity. A k <= 0 returns every movie.
func (a *Artifact) Search(query []float32, k int) []SearchResult {
	if len(a.Movies) == 0 || len(query) != a.Dimensions() {
		return nil
	}

	q := embedding.NormalizeVector(append([]float32(nil), query...))

	results := make([]SearchResult, len(a.Movies))
	for i := range a.Movies {
		results[i] = SearchResult{
			Movie:      a.Movies[i],
			Similarity: embedding.Dot(q, a.Embeddings[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
