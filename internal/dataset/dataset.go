// Package dataset loads the movie catalog and evaluation inputs from
// CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pvcastro/cinevec/internal/metrics"
	"github.com/pvcastro/cinevec/internal/model"
)

// ErrEmptyDataset means the movie CSV held a header but no rows.
var ErrEmptyDataset = errors.New("dataset contains no records")

// RequiredColumns are the movie CSV columns a build needs. A missing
// column is fatal.
var RequiredColumns = []string{
	"id", "title", "overview", "genres",
	"keywords", "popularity", "rating", "poster",
}

// LoadMovies reads the movie catalog from a CSV file. Required columns
// must all be present; optional field values default to empty. Rows
// with an empty id or title are fatal, matching the build pipeline's
// validation contract.
func LoadMovies(path string) ([]model.MovieRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return ReadMovies(f)
}

// ReadMovies parses movie records from CSV data.
func ReadMovies(r io.Reader) ([]model.MovieRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols, err := columnIndex(header, RequiredColumns)
	if err != nil {
		return nil, err
	}

	var records []model.MovieRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line+1, err)
		}
		line++

		get := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := model.MovieRecord{
			ID:         get("id"),
			Title:      get("title"),
			Overview:   get("overview"),
			Genres:     get("genres"),
			Keywords:   get("keywords"),
			Popularity: parseFloat(get("popularity")),
			Rating:     parseFloat(get("rating")),
			Poster:     get("poster"),
		}

		if rec.ID == "" {
			return nil, fmt.Errorf("row %d has empty id", line)
		}
		if rec.Title == "" {
			return nil, fmt.Errorf("row %d (%s) has empty title", line, rec.ID)
		}

		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return records, nil
}

// GenreIndex maps each record's id to its normalized genre list,
// leaving out records without genres.
func GenreIndex(records []model.MovieRecord) map[string][]string {
	index := make(map[string][]string, len(records))
	for _, rec := range records {
		if genres := metrics.ParseGenres(rec.Genres); len(genres) > 0 {
			index[rec.ID] = genres
		}
	}
	return index
}

// columnIndex maps required column names to their header positions,
// reporting every missing column at once.
func columnIndex(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
