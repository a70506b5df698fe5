package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// EvalInput is one evaluation row: the original movie and the
// free-text query a user might type to find it.
type EvalInput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Query string `json:"query"`
}

// evalColumns are the evaluation CSV columns. input_user matches the
// upstream validator tables.
var evalColumns = []string{"id", "title", "input_user"}

// LoadEvalInputs reads evaluation inputs from a CSV file. Rows with an
// empty or placeholder query, or an empty id, are skipped and counted
// rather than failing the load.
func LoadEvalInputs(path string) ([]EvalInput, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening eval inputs: %w", err)
	}
	defer f.Close()

	return ReadEvalInputs(f)
}

// ReadEvalInputs parses evaluation inputs from CSV data, returning the
// usable rows and the number skipped.
func ReadEvalInputs(r io.Reader) ([]EvalInput, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	cols, err := columnIndex(header, evalColumns)
	if err != nil {
		return nil, 0, err
	}

	var inputs []EvalInput
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading eval row: %w", err)
		}

		get := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		in := EvalInput{
			ID:    get("id"),
			Title: get("title"),
			Query: get("input_user"),
		}

		if in.ID == "" || isPlaceholderQuery(in.Query) {
			skipped++
			continue
		}
		inputs = append(inputs, in)
	}

	return inputs, skipped, nil
}

// isPlaceholderQuery reports whether a query cell is empty or a
// spreadsheet null marker rather than real user text.
func isPlaceholderQuery(q string) bool {
	switch strings.ToLower(q) {
	case "", "nan", "null", "none", "n/a":
		return true
	}
	return false
}
