package metrics

import (
	"math"
	"reflect"
	"testing"
)

func candidateList(ids ...string) []Candidate {
	cands := make([]Candidate, len(ids))
	for i, id := range ids {
		cands[i] = Candidate{ID: id}
	}
	return cands
}

func TestParseGenres(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"single", "Action", []string{"action"}},
		{"multiple with spaces", "Action, Drama , sci-fi", []string{"action", "drama", "sci-fi"}},
		{"empty tokens dropped", "action,,  ,drama", []string{"action", "drama"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseGenres(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseGenres(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRankMetricsHit(t *testing.T) {
	cands := candidateList("A", "B", "C", "D", "E")

	s := ScoreRow("C", nil, cands, 5)

	if s.Precision != 1.0 {
		t.Errorf("precision = %v, want 1.0", s.Precision)
	}
	if s.Recall != 1.0 {
		t.Errorf("recall = %v, want 1.0", s.Recall)
	}
	if math.Abs(s.MRR-1.0/3) > 1e-9 {
		t.Errorf("mrr = %v, want 1/3", s.MRR)
	}
	if want := 1.0 / math.Log2(4); math.Abs(s.NDCG-want) > 1e-9 {
		t.Errorf("ndcg = %v, want %v", s.NDCG, want)
	}
}

func TestRankMetricsMiss(t *testing.T) {
	cands := candidateList("A", "B", "C", "D", "E")

	s := ScoreRow("Z", nil, cands, 5)

	if s.Precision != 0 || s.Recall != 0 || s.MRR != 0 || s.NDCG != 0 {
		t.Errorf("expected all rank metrics 0 for absent id, got %+v", s)
	}
}

func TestRankMetricsBeyondK(t *testing.T) {
	// Hit at rank 4 with K=3: precision/recall miss the cutoff but MRR
	// and NDCG still use the full list.
	cands := candidateList("A", "B", "C", "X", "E")

	s := ScoreRow("X", nil, cands, 3)

	if s.Precision != 0 {
		t.Errorf("precision = %v, want 0 (rank beyond K)", s.Precision)
	}
	if math.Abs(s.MRR-0.25) > 1e-9 {
		t.Errorf("mrr = %v, want 0.25", s.MRR)
	}
	if want := 1.0 / math.Log2(5); math.Abs(s.NDCG-want) > 1e-9 {
		t.Errorf("ndcg = %v, want %v", s.NDCG, want)
	}
}

func TestGenreMetrics(t *testing.T) {
	original := []string{"action", "drama"}
	cands := []Candidate{
		{ID: "1", Genres: []string{"action"}},
		{ID: "2", Genres: []string{"comedy"}},
		{ID: "3"}, // no genres: excluded from both metrics
	}

	s := ScoreRow("Z", original, cands, 3)

	if s.GenreBinary == nil || s.GenreProportional == nil {
		t.Fatal("genre metrics should be defined")
	}
	// One of the two genre-bearing candidates overlaps.
	if math.Abs(*s.GenreBinary-0.5) > 1e-9 {
		t.Errorf("binary = %v, want 0.5", *s.GenreBinary)
	}
	// mean(1/2, 0/2) = 0.25.
	if math.Abs(*s.GenreProportional-0.25) > 1e-9 {
		t.Errorf("proportional = %v, want 0.25", *s.GenreProportional)
	}
}

func TestGenreMetricsUndefined(t *testing.T) {
	t.Run("original has no genres", func(t *testing.T) {
		cands := []Candidate{{ID: "1", Genres: []string{"action"}}}
		s := ScoreRow("1", nil, cands, 5)
		if s.GenreBinary != nil || s.GenreProportional != nil {
			t.Error("genre metrics should be undefined without original genres")
		}
	})

	t.Run("no candidate has genres", func(t *testing.T) {
		cands := candidateList("1", "2")
		s := ScoreRow("1", []string{"action"}, cands, 5)
		if s.GenreBinary != nil || s.GenreProportional != nil {
			t.Error("genre metrics should be undefined without genre-bearing candidates")
		}
	})
}

func TestGenreMetricsTruncatedToK(t *testing.T) {
	original := []string{"action"}
	cands := []Candidate{
		{ID: "1", Genres: []string{"comedy"}},
		{ID: "2", Genres: []string{"action"}}, // beyond K=1, must not count
	}

	s := ScoreRow("Z", original, cands, 1)
	if *s.GenreBinary != 0 {
		t.Errorf("binary = %v, want 0 (overlapping candidate is beyond K)", *s.GenreBinary)
	}
}

func TestGenreOverlapIgnoresDuplicates(t *testing.T) {
	original := []string{"action", "drama"}
	cands := []Candidate{
		{ID: "1", Genres: []string{"action", "action", "drama"}},
	}

	s := ScoreRow("Z", original, cands, 5)
	if math.Abs(*s.GenreProportional-1.0) > 1e-9 {
		t.Errorf("proportional = %v, want 1.0", *s.GenreProportional)
	}
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator

	half := 0.5
	quarter := 0.25
	acc.Add(RowScores{Precision: 1, Recall: 1, MRR: 1, NDCG: 1, GenreBinary: &half, GenreProportional: &quarter})
	acc.Add(RowScores{Precision: 0, Recall: 0, MRR: 0.5, NDCG: 0.63})
	acc.Add(RowScores{Precision: 1, Recall: 1, MRR: 0.25, NDCG: 0.43})

	s := acc.Summary()

	if s.TotalEvaluated != 3 {
		t.Errorf("total_evaluated = %d, want 3", s.TotalEvaluated)
	}
	if s.TotalWithGenres != 1 || s.TotalWithoutGenres != 2 {
		t.Errorf("genre counts = %d/%d, want 1/2", s.TotalWithGenres, s.TotalWithoutGenres)
	}
	if math.Abs(s.PrecisionAtK-2.0/3) > 1e-9 {
		t.Errorf("precision mean = %v, want 2/3", s.PrecisionAtK)
	}
	if math.Abs(s.MRR-(1+0.5+0.25)/3) > 1e-9 {
		t.Errorf("mrr mean = %v", s.MRR)
	}
	// Genre means divide by the genre denominator, not the row count.
	if s.GenreBinary == nil || *s.GenreBinary != 0.5 {
		t.Errorf("binary mean = %v, want 0.5", s.GenreBinary)
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	var acc Accumulator
	s := acc.Summary()

	if s.TotalEvaluated != 0 {
		t.Errorf("total_evaluated = %d, want 0", s.TotalEvaluated)
	}
	if s.GenreBinary != nil || s.GenreProportional != nil {
		t.Error("genre means should be nil with no rows")
	}
}
