package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSort is returned for a sort string naming an unknown field.
var ErrInvalidSort = errors.New("invalid sort field")

// SortField is a field the catalog can sort packs by.
type SortField int

const (
	SortName SortField = iota
	SortPopularity
	SortOverall
	SortStream
	SortJumpstream
	SortHandstream
	SortJacks
	SortChordjacks
	SortStamina
	SortTechnical
)

var sortFields = []struct {
	field SortField
	value string
	label string
}{
	{SortName, "name", "Name"},
	{SortPopularity, "popularity", "Popularity"},
	{SortOverall, "overall", "Overall"},
	{SortStream, "stream", "Stream"},
	{SortJumpstream, "jumpstream", "Jumpstream"},
	{SortHandstream, "handstream", "Handstream"},
	{SortJacks, "jacks", "Jacks"},
	{SortChordjacks, "chordjacks", "Chordjacks"},
	{SortStamina, "stamina", "Stamina"},
	{SortTechnical, "technical", "Technical"},
}

// String returns the query value of f.
func (f SortField) String() string {
	for _, s := range sortFields {
		if s.field == f {
			return s.value
		}
	}
	return fmt.Sprintf("SortField(%d)", int(f))
}

// ParseSortField looks up a field by its query value.
func ParseSortField(s string) (SortField, bool) {
	for _, sf := range sortFields {
		if sf.value == s {
			return sf.field, true
		}
	}
	return 0, false
}

// SortString builds a sort query value; descending sorts are prefixed with "-".
func SortString(f SortField, descending bool) string {
	if descending {
		return "-" + f.String()
	}
	return f.String()
}

// ParseSort splits a sort query value such as "-overall" into its field and
// direction.
func ParseSort(s string) (field SortField, descending bool, err error) {
	s = strings.TrimSpace(s)
	name := strings.TrimPrefix(s, "-")
	field, ok := ParseSortField(name)
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidSort, name)
	}
	return field, name != s, nil
}

// SortOption is a sort field with a display label.
type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SortOptions lists every sort field in display order.
func SortOptions() []SortOption {
	opts := make([]SortOption, 0, len(sortFields))
	for _, sf := range sortFields {
		opts = append(opts, SortOption{Value: sf.value, Label: sf.label})
	}
	return opts
}
