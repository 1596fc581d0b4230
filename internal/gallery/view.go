// Package gallery merges document listings into the filtered, sorted and
// optionally grouped view served to the gallery block.
//
// BuildView is pure: it performs no I/O, keeps no state between calls and
// never fails. Invalid options are replaced by their defaults.
package gallery

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/pdfgallery/pdfgallery/internal/document"
)

// Group is a bucket of records sharing a week, month or year.
type Group struct {
	Label   string            `json:"label"`
	Records []document.Record `json:"records"`

	key int
}

// View is either a flat list of records or a list of groups.
type View struct {
	Grouped bool
	Records []document.Record
	Groups  []Group

	by GroupKey
}

// GroupBy is the grouping the view was built with.
func (v View) GroupBy() GroupKey {
	if !v.Grouped {
		return GroupNone
	}
	return v.by
}

// Len returns the number of records in the view.
func (v View) Len() int {
	if !v.Grouped {
		return len(v.Records)
	}
	n := 0
	for _, g := range v.Groups {
		n += len(g.Records)
	}
	return n
}

// Each calls fn for every record of the view in display order. fn receives
// a pointer so callers can fill in collaborator-resolved fields.
func (v View) Each(fn func(r *document.Record)) {
	if !v.Grouped {
		for i := range v.Records {
			fn(&v.Records[i])
		}
		return
	}
	for gi := range v.Groups {
		for i := range v.Groups[gi].Records {
			fn(&v.Groups[gi].Records[i])
		}
	}
}

// MarshalJSON encodes a flat view as an array of records and a grouped view
// as an array of {label, records}.
func (v View) MarshalJSON() ([]byte, error) {
	if v.Grouped {
		groups := v.Groups
		if groups == nil {
			groups = []Group{}
		}
		return json.Marshal(groups)
	}
	records := v.Records
	if records == nil {
		records = []document.Record{}
	}
	return json.Marshal(records)
}

// BuildView concatenates directory and media records (in that order),
// applies the tag filter, sorts stably and groups when requested.
func BuildView(directory, media []document.Record, opts Options) View {
	opts = opts.normalized()

	all := make([]document.Record, 0, len(directory)+len(media))
	all = append(all, directory...)
	all = append(all, media...)

	records := filter(all, opts.Tag)
	sortRecords(records, opts.SortBy, opts.Direction)

	if opts.GroupBy == GroupNone {
		return View{Records: records}
	}
	return View{Grouped: true, Groups: group(records, opts.GroupBy, opts.Location), by: opts.GroupBy}
}

func filter(records []document.Record, tag string) []document.Record {
	if tag == "" {
		return records
	}
	fold := cases.Fold()
	needle := fold.String(tag)

	out := records[:0:0]
	for _, r := range records {
		if strings.Contains(fold.String(r.Name), needle) {
			out = append(out, r)
			continue
		}
		if r.Origin == document.OriginMedia && strings.Contains(fold.String(r.Description), needle) {
			out = append(out, r)
		}
	}
	return out
}

func sortRecords(records []document.Record, key SortKey, dir SortDirection) {
	sign := 1
	if dir == Descending {
		sign = -1
	}
	slices.SortStableFunc(records, func(a, b document.Record) int {
		var c int
		if key == SortByDate {
			c = cmp.Compare(a.Timestamp, b.Timestamp)
		} else {
			c = strings.Compare(a.Name, b.Name)
		}
		return sign * c
	})
}

func group(records []document.Record, by GroupKey, loc *time.Location) []Group {
	index := make(map[int]int)
	var groups []Group
	for _, r := range records {
		key, label := bucket(time.Unix(r.Timestamp, 0).In(loc), by)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Label: label, key: key})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(b.key, a.key)
	})
	return groups
}

func bucket(t time.Time, by GroupKey) (int, string) {
	switch by {
	case GroupWeek:
		y, w := t.ISOWeek()
		return y*100 + w, fmt.Sprintf("Week %d, %d", w, y)
	case GroupMonth:
		return t.Year()*100 + int(t.Month()), fmt.Sprintf("%s %d", t.Month(), t.Year())
	default:
		return t.Year(), strconv.Itoa(t.Year())
	}
}
