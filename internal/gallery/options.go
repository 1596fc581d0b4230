package gallery

import (
	"strings"
	"time"
)

// SortKey selects the record field a view is ordered by.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// GroupKey selects the time bucket records are grouped into.
type GroupKey string

const (
	GroupNone  GroupKey = "none"
	GroupWeek  GroupKey = "week"
	GroupMonth GroupKey = "month"
	GroupYear  GroupKey = "year"
)

// Options controls filtering, ordering and grouping of a view.
// The zero value is valid: no filter, name ascending, no grouping.
type Options struct {
	Tag       string
	SortBy    SortKey
	Direction SortDirection
	GroupBy   GroupKey

	// Location is used to place timestamps into week/month/year buckets.
	// If nil, time.Local is used.
	Location *time.Location
}

// ParseOptions builds Options from raw query values. Unknown or empty values
// fall back to their defaults instead of failing.
func ParseOptions(tag, sortBy, direction, groupBy string) Options {
	opts := Options{Tag: strings.TrimSpace(tag)}

	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "date":
		opts.SortBy = SortByDate
	default:
		// "filename", "name" and anything unrecognised
		opts.SortBy = SortByName
	}

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "desc":
		opts.Direction = Descending
	default:
		opts.Direction = Ascending
	}

	switch GroupKey(strings.ToLower(strings.TrimSpace(groupBy))) {
	case GroupWeek:
		opts.GroupBy = GroupWeek
	case GroupMonth:
		opts.GroupBy = GroupMonth
	case GroupYear:
		opts.GroupBy = GroupYear
	default:
		opts.GroupBy = GroupNone
	}

	return opts
}

func (o Options) normalized() Options {
	if o.SortBy != SortByDate {
		o.SortBy = SortByName
	}
	if o.Direction != Descending {
		o.Direction = Ascending
	}
	switch o.GroupBy {
	case GroupWeek, GroupMonth, GroupYear:
	default:
		o.GroupBy = GroupNone
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}
