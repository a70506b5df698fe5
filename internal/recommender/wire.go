package recommender

import (
	"encoding/json"
	"fmt"

	"github.com/pvcastro/cinevec/internal/metrics"
)

// FlexString decodes a JSON string or number into a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = FlexString(num.String())
		return nil
	}

	return fmt.Errorf("id must be a string or number, got %s", data)
}

// GenreList decodes genres from either a comma-separated string or a
// JSON array of strings.
type GenreList []string

// UnmarshalJSON implements json.Unmarshaler.
func (g *GenreList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*g = GenreList(list)
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		*g = GenreList{joined}
		return nil
	}

	return fmt.Errorf("genres must be a string or array, got %s", data)
}

// Normalized returns the trimmed, lower-cased, deduplicated genre set
// in first-seen order. Comma-joined entries are split.
func (g GenreList) Normalized() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range g {
		for _, genre := range metrics.ParseGenres(entry) {
			if _, dup := seen[genre]; dup {
				continue
			}
			seen[genre] = struct{}{}
			out = append(out, genre)
		}
	}
	return out
}
