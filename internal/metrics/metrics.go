// Package metrics scores recommender output against the originating
// movie using rank-based and genre-overlap measures.
package metrics

import (
	"math"
	"strings"
)

// DefaultTopK is the candidate-list cutoff for precision, recall, and
// the genre metrics. MRR and NDCG always use the full list.
const DefaultTopK = 5

// Candidate is one recommended movie as seen by the scorer: its id and
// its already-normalized genre set.
type Candidate struct {
	ID     string
	Genres []string
}

// RowScores carries the six per-row metrics. The genre scores are nil
// when undefined for the row (original has no genres, or no candidate
// in the top K has genres); undefined is distinct from zero and is
// excluded from aggregation.
type RowScores struct {
	Precision         float64  `json:"precision_at_k"`
	Recall            float64  `json:"recall_at_k"`
	MRR               float64  `json:"mrr"`
	NDCG              float64  `json:"ndcg"`
	GenreBinary       *float64 `json:"binary_genre_similarity"`
	GenreProportional *float64 `json:"proportional_genre_similarity"`
}

// ParseGenres splits a comma-separated genre string into a normalized
// list: tokens are trimmed, lower-cased, and empty tokens dropped.
func ParseGenres(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var genres []string
	for _, tok := range strings.Split(raw, ",") {
		g := strings.ToLower(strings.TrimSpace(tok))
		if g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// ScoreRow computes all six metrics for one (original item, candidate
// list) pair. candidates must be ordered most-relevant first. k bounds
// the truncated metrics; k <= 0 falls back to DefaultTopK.
//
// There is exactly one relevant item per query, so precision@K and
// recall@K share a formula: 1 if originalID is in the top K, else 0.
func ScoreRow(originalID string, originalGenres []string, candidates []Candidate, k int) RowScores {
	if k <= 0 {
		k = DefaultTopK
	}

	var s RowScores

	rank := rankOf(originalID, candidates)
	if rank > 0 {
		if rank <= k {
			s.Precision = 1.0
			s.Recall = 1.0
		}
		s.MRR = 1.0 / float64(rank)
		s.NDCG = 1.0 / math.Log2(float64(rank)+1)
	}

	topK := candidates
	if len(topK) > k {
		topK = topK[:k]
	}
	s.GenreBinary, s.GenreProportional = genreScores(originalGenres, topK)

	return s
}

// rankOf returns the 1-based position of id in candidates, or 0 if
// absent.
func rankOf(id string, candidates []Candidate) int {
	for i, c := range candidates {
		if c.ID == id {
			return i + 1
		}
	}
	return 0
}

// genreScores computes the binary and proportional genre similarities
// over the genre-bearing candidates. Both are nil when the original
// genre set is empty or no candidate carries genres.
func genreScores(originalGenres []string, candidates []Candidate) (binary, proportional *float64) {
	if len(originalGenres) == 0 {
		return nil, nil
	}

	original := make(map[string]struct{}, len(originalGenres))
	for _, g := range originalGenres {
		original[g] = struct{}{}
	}

	valid := 0
	hits := 0
	var proportionSum float64
	for _, c := range candidates {
		if len(c.Genres) == 0 {
			continue
		}
		valid++

		overlap := 0
		counted := make(map[string]struct{}, len(c.Genres))
		for _, g := range c.Genres {
			if _, dup := counted[g]; dup {
				continue
			}
			counted[g] = struct{}{}
			if _, ok := original[g]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			hits++
		}
		proportionSum += float64(overlap) / float64(len(original))
	}

	if valid == 0 {
		return nil, nil
	}

	b := float64(hits) / float64(valid)
	p := proportionSum / float64(valid)
	return &b, &p
}
