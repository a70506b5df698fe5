// Package combine merges the text fields of a movie record into one
// representative string using per-field importance weights.
package combine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pvcastro/cinevec/internal/model"
	"github.com/pvcastro/cinevec/internal/textnorm"
)

// Strategy selects how field weights translate into text repetition.
type Strategy string

const (
	// FixedRepeat repeats each field's text weight times, treating the
	// weight as an integer repeat count.
	FixedRepeat Strategy = "fixed"

	// ProportionalRepeat repeats each present field's text
	// round(weight * count of present fields) times, so repetition
	// scales with how much of the record is populated.
	ProportionalRepeat Strategy = "proportional"
)

// ShortOverviewThreshold is the batch-median overview length (in
// characters) below which empty overviews are backfilled with titles.
const ShortOverviewThreshold = 10

// DefaultFieldOrder is the iteration order fields are combined in.
var DefaultFieldOrder = []string{
	model.FieldTitle,
	model.FieldOverview,
	model.FieldKeywords,
	model.FieldGenres,
}

// DefaultWeights are the field importance weights used by the shipped
// artifact: overview dominates, genres anchor, keywords and title fill in.
var DefaultWeights = map[string]float64{
	model.FieldTitle:    1.0,
	model.FieldOverview: 3.0,
	model.FieldKeywords: 1.5,
	model.FieldGenres:   2.0,
}

// Combiner produces combined text for movie records. The zero value is
// not usable; construct with New.
type Combiner struct {
	strategy Strategy
	weights  map[string]float64
	order    []string
}

// Option configures a Combiner.
type Option func(*Combiner)

// WithFieldOrder overrides the field iteration order.
func WithFieldOrder(order []string) Option {
	return func(c *Combiner) {
		c.order = order
	}
}

// New creates a Combiner for the given strategy and weights. Nil
// weights fall back to DefaultWeights.
func New(strategy Strategy, weights map[string]float64, opts ...Option) (*Combiner, error) {
	switch strategy {
	case FixedRepeat, ProportionalRepeat:
	default:
		return nil, fmt.Errorf("unknown combine strategy %q", strategy)
	}

	if weights == nil {
		weights = DefaultWeights
	}
	for field, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("weight for field %q must be positive, got %v", field, w)
		}
	}

	c := &Combiner{
		strategy: strategy,
		weights:  weights,
		order:    DefaultFieldOrder,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Strategy returns the combiner's weighting strategy.
func (c *Combiner) Strategy() Strategy {
	return c.strategy
}

// Weights returns a copy of the combiner's field weights.
func (c *Combiner) Weights() map[string]float64 {
	w := make(map[string]float64, len(c.weights))
	for k, v := range c.weights {
		w[k] = v
	}
	return w
}

// Combine merges the record's weighted fields into one string.
// Fields that normalize to empty are skipped. The result is empty only
// if every weighted field is empty; callers must flag such records as
// degenerate rather than embed them blindly.
//
// The output is deterministic for a given record, weight map, and
// strategy.
func (c *Combiner) Combine(rec model.MovieRecord) string {
	type part struct {
		text   string
		weight float64
	}

	present := make([]part, 0, len(c.order))
	for _, field := range c.order {
		w, ok := c.weights[field]
		if !ok {
			continue
		}
		text := textnorm.Normalize(rec.Field(field))
		if text == "" {
			continue
		}
		present = append(present, part{text: text, weight: w})
	}

	if len(present) == 0 {
		return ""
	}

	var pieces []string
	for _, p := range present {
		reps := c.repeats(p.weight, len(present))
		for i := 0; i < reps; i++ {
			pieces = append(pieces, p.text)
		}
	}

	return strings.Join(pieces, " ")
}

// repeats computes the repeat count for one field given its weight and
// the number of present fields.
func (c *Combiner) repeats(weight float64, presentCount int) int {
	var reps int
	switch c.strategy {
	case ProportionalRepeat:
		reps = int(math.Round(weight * float64(presentCount)))
	default:
		reps = int(weight)
	}
	if reps < 1 {
		reps = 1
	}
	return reps
}

// ApplyOverviewFallback backfills empty overviews with titles when the
// batch's median overview length falls below ShortOverviewThreshold.
// This is a batch-level pre-pass run before combining; it returns the
// number of records substituted.
func ApplyOverviewFallback(records []model.MovieRecord) int {
	if len(records) == 0 {
		return 0
	}

	if medianOverviewLength(records) >= ShortOverviewThreshold {
		return 0
	}

	substituted := 0
	for i := range records {
		if strings.TrimSpace(records[i].Overview) == "" {
			records[i].Overview = records[i].Title
			substituted++
		}
	}
	return substituted
}

func medianOverviewLength(records []model.MovieRecord) float64 {
	lengths := make([]int, len(records))
	for i, rec := range records {
		lengths[i] = len(rec.Overview)
	}
	sort.Ints(lengths)

	mid := len(lengths) / 2
	if len(lengths)%2 == 1 {
		return float64(lengths[mid])
	}
	return float64(lengths[mid-1]+lengths[mid]) / 2
}
