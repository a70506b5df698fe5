// Package recommender invokes the external retrieval component under
// evaluation and decodes its ranked candidate lists.
package recommender

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pvcastro/cinevec/internal/metrics"
)

// FailReason names why a recommender invocation produced no usable
// candidate list. An empty reason means the call succeeded (possibly
// with zero candidates, which is a distinct, valid outcome).
type FailReason string

const (
	// FailUnreachable: the collaborator could not be invoked or did
	// not respond.
	FailUnreachable FailReason = "unreachable"

	// FailMalformed: the collaborator responded with undecodable output.
	FailMalformed FailReason = "malformed"
)

// Movie is one recommended record as returned on the wire. Upstream
// recommenders disagree on whether ids are JSON strings or numbers and
// whether genres are a string or an array, so both fields decode
// leniently.
type Movie struct {
	ID       FlexString `json:"id"`
	Title    string     `json:"title"`
	Overview string     `json:"overview,omitempty"`
	Genres   GenreList  `json:"genres"`
}

// Candidate converts the wire record into the scorer's shape, with
// genres normalized.
func (m Movie) Candidate() metrics.Candidate {
	return metrics.Candidate{
		ID:     strings.TrimSpace(string(m.ID)),
		Genres: m.Genres.Normalized(),
	}
}

// Result is the typed outcome of one recommender invocation. Callers
// can tell "empty result" from "collaborator unreachable" from
// "malformed response" instead of collapsing all three to an empty
// list.
type Result struct {
	Movies []Movie
	Reason FailReason
	Err    error
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Reason == ""
}

// Empty reports a successful invocation that returned no candidates.
func (r Result) Empty() bool {
	return r.OK() && len(r.Movies) == 0
}

// Candidates converts the result's movies into scorer candidates.
func (r Result) Candidates() []metrics.Candidate {
	cands := make([]metrics.Candidate, len(r.Movies))
	for i, m := range r.Movies {
		cands[i] = m.Candidate()
	}
	return cands
}

// Recommender returns a ranked candidate list for a free-text query,
// most relevant first.
type Recommender interface {
	Recommend(ctx context.Context, query string) Result
}

func failure(reason FailReason, err error) Result {
	return Result{Reason: reason, Err: err}
}

// decodeMovies parses a JSON array of movie records. Empty input is a
// successful empty result.
func decodeMovies(data []byte) Result {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return Result{}
	}

	var movies []Movie
	if err := json.Unmarshal([]byte(trimmed), &movies); err != nil {
		return failure(FailMalformed, err)
	}
	return Result{Movies: movies}
}
