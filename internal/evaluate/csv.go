package evaluate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pvcastro/cinevec/internal/metrics"
)

// WriteSummaryCSV writes a one-row summary table in the layout of the
// historical metrics_summary.csv. Undefined genre aggregates become
// empty cells, not zeros.
func WriteSummaryCSV(w io.Writer, s metrics.Summary) error {
	cw := csv.NewWriter(w)

	header := []string{
		"precision_at_k", "recall_at_k", "mrr", "ndcg",
		"binary_genre_similarity", "proportional_genre_similarity",
		"total_evaluated_inputs", "total_inputs_with_genres",
	}
	row := []string{
		formatScore(s.PrecisionAtK),
		formatScore(s.RecallAtK),
		formatScore(s.MRR),
		formatScore(s.NDCG),
		formatOptional(s.GenreBinary),
		formatOptional(s.GenreProportional),
		strconv.Itoa(s.TotalEvaluated),
		strconv.Itoa(s.TotalWithGenres),
	}

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// WriteDetailCSV writes one row per evaluated input with all six
// scores and the top-K candidates.
func WriteDetailCSV(w io.Writer, rows []RowDetail) error {
	cw := csv.NewWriter(w)

	header := []string{
		"id", "title", "query",
		"precision_at_k", "recall_at_k", "mrr", "ndcg",
		"binary_genre_similarity", "proportional_genre_similarity",
		"top_ids", "top_titles",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Input.ID,
			r.Input.Title,
			r.Input.Query,
			formatScore(r.Scores.Precision),
			formatScore(r.Scores.Recall),
			formatScore(r.Scores.MRR),
			formatScore(r.Scores.NDCG),
			formatOptional(r.Scores.GenreBinary),
			formatOptional(r.Scores.GenreProportional),
			strings.Join(r.TopIDs, "|"),
			strings.Join(r.TopTitles, "|"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.Input.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatScore(*v)
}
