package evaluate

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pvcastro/cinevec/internal/dataset"
	"github.com/pvcastro/cinevec/internal/metrics"
	"github.com/pvcastro/cinevec/internal/recommender"
)

// fakeRecommender serves canned results keyed by query.
type fakeRecommender struct {
	results map[string]recommender.Result
}

func (f *fakeRecommender) Recommend(ctx context.Context, query string) recommender.Result {
	if r, ok := f.results[query]; ok {
		return r
	}
	return recommender.Result{}
}

func movies(ids ...string) []recommender.Movie {
	out := make([]recommender.Movie, len(ids))
	for i, id := range ids {
		out[i] = recommender.Movie{ID: recommender.FlexString(id), Title: "Movie " + id}
	}
	return out
}

func TestRunScoresAndAggregates(t *testing.T) {
	rec := &fakeRecommender{results: map[string]recommender.Result{
		"hit first":  {Movies: movies("603", "1", "2")},
		"hit third":  {Movies: movies("1", "2", "238")},
		"total miss": {Movies: movies("1", "2", "3")},
	}}

	genres := map[string][]string{"603": {"action"}}

	r := New(rec, genres, 5)
	report, err := r.Run(context.Background(), []dataset.EvalInput{
		{ID: "603", Title: "The Matrix", Query: "hit first"},
		{ID: "238", Title: "The Godfather", Query: "hit third"},
		{ID: "550", Title: "Fight Club", Query: "total miss"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := report.Summary
	if s.TotalEvaluated != 3 {
		t.Fatalf("total_evaluated = %d, want 3", s.TotalEvaluated)
	}
	// precision: hits at ranks 1 and 3 within K=5, one miss -> 2/3.
	if math.Abs(s.PrecisionAtK-2.0/3) > 1e-9 {
		t.Errorf("precision = %v, want 2/3", s.PrecisionAtK)
	}
	// mrr: (1 + 1/3 + 0) / 3.
	if math.Abs(s.MRR-(1+1.0/3)/3) > 1e-9 {
		t.Errorf("mrr = %v", s.MRR)
	}
	// Candidates carry no genres, so genre metrics stay undefined.
	if s.GenreBinary != nil {
		t.Errorf("genre binary should be undefined, got %v", *s.GenreBinary)
	}

	if len(report.Rows) != 3 {
		t.Fatalf("got %d detail rows, want 3", len(report.Rows))
	}
	if report.Rows[0].Input.ID != "603" || report.Rows[2].Input.ID != "550" {
		t.Error("detail rows must preserve input order")
	}
	if len(report.Rows[0].TopIDs) != 3 || report.Rows[0].TopIDs[0] != "603" {
		t.Errorf("top ids = %v", report.Rows[0].TopIDs)
	}
}

func TestRunExcludesUnscorableRows(t *testing.T) {
	rec := &fakeRecommender{results: map[string]recommender.Result{
		"good": {Movies: movies("1")},
		"down": {Reason: recommender.FailUnreachable, Err: errors.New("connection refused")},
		"junk": {Reason: recommender.FailMalformed, Err: errors.New("bad json")},
		// "nothing" falls through to an empty success.
	}}

	r := New(rec, nil, 5)
	report, err := r.Run(context.Background(), []dataset.EvalInput{
		{ID: "1", Query: "good"},
		{ID: "2", Query: "down"},
		{ID: "3", Query: "junk"},
		{ID: "4", Query: "nothing"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Summary.TotalEvaluated != 1 {
		t.Errorf("total_evaluated = %d, want 1 (failures excluded, not zero-scored)", report.Summary.TotalEvaluated)
	}
	if report.NoRecommendations != 1 {
		t.Errorf("no_recommendations = %d, want 1", report.NoRecommendations)
	}
	if report.Failures[recommender.FailUnreachable] != 1 || report.Failures[recommender.FailMalformed] != 1 {
		t.Errorf("failures = %v", report.Failures)
	}
	// The one scorable row hit rank 1.
	if report.Summary.PrecisionAtK != 1.0 {
		t.Errorf("precision = %v, want 1.0", report.Summary.PrecisionAtK)
	}
}

func TestRunParallelPreservesOrder(t *testing.T) {
	results := make(map[string]recommender.Result)
	inputs := make([]dataset.EvalInput, 40)
	for i := range inputs {
		id := string(rune('A' + i%26))
		query := "q" + string(rune('0'+i%10)) + id
		inputs[i] = dataset.EvalInput{ID: id, Query: query}
		results[query] = recommender.Result{Movies: movies(id)}
	}

	r := New(&fakeRecommender{results: results}, nil, 5, WithWorkers(8))
	report, err := r.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Rows) != len(inputs) {
		t.Fatalf("got %d rows, want %d", len(report.Rows), len(inputs))
	}
	for i, row := range report.Rows {
		if row.Input.ID != inputs[i].ID {
			t.Fatalf("row %d holds input %s, want %s", i, row.Input.ID, inputs[i].ID)
		}
	}
	// Every query hit rank 1.
	if report.Summary.MRR != 1.0 {
		t.Errorf("mrr = %v, want 1.0", report.Summary.MRR)
	}
}

func TestRunGenreMetrics(t *testing.T) {
	rec := &fakeRecommender{results: map[string]recommender.Result{
		"q": {Movies: []recommender.Movie{
			{ID: "10", Genres: recommender.GenreList{"Action"}},
			{ID: "11", Genres: recommender.GenreList{"Comedy"}},
			{ID: "12"},
		}},
	}}

	genres := map[string][]string{"603": {"action", "drama"}}
	r := New(rec, genres, 3)

	report, err := r.Run(context.Background(), []dataset.EvalInput{{ID: "603", Query: "q"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	s := report.Summary
	if s.TotalWithGenres != 1 {
		t.Fatalf("total_with_genres = %d, want 1", s.TotalWithGenres)
	}
	if s.GenreBinary == nil || math.Abs(*s.GenreBinary-0.5) > 1e-9 {
		t.Errorf("binary = %v, want 0.5", s.GenreBinary)
	}
	if s.GenreProportional == nil || math.Abs(*s.GenreProportional-0.25) > 1e-9 {
		t.Errorf("proportional = %v, want 0.25", s.GenreProportional)
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	var b strings.Builder

	binary := 0.5
	err := WriteSummaryCSV(&b, summaryWith(&binary))
	if err != nil {
		t.Fatalf("WriteSummaryCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "precision_at_k,recall_at_k") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "0.500000") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteSummaryCSVUndefinedGenres(t *testing.T) {
	var b strings.Builder
	if err := WriteSummaryCSV(&b, summaryWith(nil)); err != nil {
		t.Fatalf("WriteSummaryCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	// Undefined genre aggregates serialize as empty cells.
	if !strings.Contains(lines[1], ",,") {
		t.Errorf("expected empty genre cells, got %q", lines[1])
	}
}

func summaryWith(genre *float64) metrics.Summary {
	return metrics.Summary{
		PrecisionAtK:      0.8,
		RecallAtK:         0.8,
		MRR:               0.55,
		NDCG:              0.61,
		GenreBinary:       genre,
		GenreProportional: genre,
		TotalEvaluated:    10,
		TotalWithGenres:   8,
	}
}
