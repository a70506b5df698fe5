// Package model defines movie records and the persisted, checksummed
// artifact that pairs them with their embedding vectors.
package model

// Field names used for weighting and combination.
const (
	FieldTitle    = "title"
	FieldOverview = "overview"
	FieldKeywords = "keywords"
	FieldGenres   = "genres"
)

// MovieRecord is one immutable input row from the movie dataset.
// ID and Title are required; all other fields default to their zero
// value when absent from the source.
type MovieRecord struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Overview   string  `json:"overview"`
	Genres     string  `json:"genres"`
	Keywords   string  `json:"keywords"`
	Popularity float64 `json:"popularity"`
	Rating     float64 `json:"rating"`
	Poster     string  `json:"poster"`
}

// Field returns the named text field of the record. Unknown names
// return the empty string.
func (r MovieRecord) Field(name string) string {
	switch name {
	case FieldTitle:
		return r.Title
	case FieldOverview:
		return r.Overview
	case FieldKeywords:
		return r.Keywords
	case FieldGenres:
		return r.Genres
	}
	return ""
}
