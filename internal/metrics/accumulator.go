package metrics

// Summary aggregates row scores across a batch. Each metric is the
// arithmetic mean over the rows where it was defined; the rank metrics
// and genre metrics therefore have different denominators, reported in
// the counts.
type Summary struct {
	PrecisionAtK      float64  `json:"precision_at_k"`
	RecallAtK         float64  `json:"recall_at_k"`
	MRR               float64  `json:"mrr"`
	NDCG              float64  `json:"ndcg"`
	GenreBinary       *float64 `json:"binary_genre_similarity"`
	GenreProportional *float64 `json:"proportional_genre_similarity"`

	TotalEvaluated     int `json:"total_evaluated"`
	TotalWithGenres    int `json:"total_with_genres"`
	TotalWithoutGenres int `json:"total_without_genres"`
}

// Accumulator folds row scores into running sums. The zero value is
// ready to use.
type Accumulator struct {
	total        int
	withGenres   int
	precisionSum float64
	recallSum    float64
	mrrSum       float64
	ndcgSum      float64
	binarySum    float64
	propSum      float64
}

// Add folds one evaluated row into the accumulator. Rows whose
// candidate list was empty must not be added at all: exclusion, not a
// zero score. Rows with nil genre scores contribute only to the rank
// metrics.
func (a *Accumulator) Add(s RowScores) {
	a.total++
	a.precisionSum += s.Precision
	a.recallSum += s.Recall
	a.mrrSum += s.MRR
	a.ndcgSum += s.NDCG

	if s.GenreBinary != nil && s.GenreProportional != nil {
		a.withGenres++
		a.binarySum += *s.GenreBinary
		a.propSum += *s.GenreProportional
	}
}

// Total returns the number of rows accumulated so far.
func (a *Accumulator) Total() int {
	return a.total
}

// Summary produces the batch aggregate. With zero rows the rank means
// are zero and the genre means nil.
func (a *Accumulator) Summary() Summary {
	s := Summary{
		TotalEvaluated:     a.total,
		TotalWithGenres:    a.withGenres,
		TotalWithoutGenres: a.total - a.withGenres,
	}
	if a.total == 0 {
		return s
	}

	n := float64(a.total)
	s.PrecisionAtK = a.precisionSum / n
	s.RecallAtK = a.recallSum / n
	s.MRR = a.mrrSum / n
	s.NDCG = a.ndcgSum / n

	if a.withGenres > 0 {
		g := float64(a.withGenres)
		binary := a.binarySum / g
		prop := a.propSum / g
		s.GenreBinary = &binary
		s.GenreProportional = &prop
	}
	return s
}
