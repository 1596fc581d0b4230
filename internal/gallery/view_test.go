package gallery

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdfgallery/pdfgallery/internal/document"
)

func ts(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Unix()
}

func names(records []document.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func dir(name string, timestamp int64) document.Record {
	return document.Record{Name: name, Title: name, Timestamp: timestamp, Origin: document.OriginDirectory}
}

func media(name, description string, timestamp int64) document.Record {
	return document.Record{Name: name, Title: name, Description: description, Timestamp: timestamp, Origin: document.OriginMedia}
}

func TestBuildView_NoFilterKeepsEverything(t *testing.T) {
	a := []document.Record{dir("b.pdf", 1), dir("a.pdf", 2)}
	b := []document.Record{media("c.pdf", "", 3)}

	v := BuildView(a, b, Options{})
	require.False(t, v.Grouped)
	require.Equal(t, 3, v.Len())
	require.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, names(v.Records))
}

func TestBuildView_SortByName(t *testing.T) {
	a := []document.Record{dir("b.pdf", 0), dir("a.pdf", 0)}

	asc := BuildView(a, nil, Options{SortBy: SortByName, Direction: Ascending})
	require.Equal(t, []string{"a.pdf", "b.pdf"}, names(asc.Records))

	desc := BuildView(a, nil, Options{SortBy: SortByName, Direction: Descending})
	require.Equal(t, []string{"b.pdf", "a.pdf"}, names(desc.Records))
}

func TestBuildView_SortByDate(t *testing.T) {
	a := []document.Record{dir("new.pdf", 200), dir("old.pdf", 100)}

	v := BuildView(a, nil, Options{SortBy: SortByDate, Direction: Ascending})
	require.Equal(t, []string{"old.pdf", "new.pdf"}, names(v.Records))

	v = BuildView(a, nil, Options{SortBy: SortByDate, Direction: Descending})
	require.Equal(t, []string{"new.pdf", "old.pdf"}, names(v.Records))
}

func TestBuildView_StableTiesKeepSourceOrder(t *testing.T) {
	a := []document.Record{dir("x.pdf", 100), dir("y.pdf", 100)}
	b := []document.Record{media("z.pdf", "", 100), media("w.pdf", "", 100)}

	for _, d := range []SortDirection{Ascending, Descending} {
		v := BuildView(a, b, Options{SortBy: SortByDate, Direction: d})
		require.Equal(t, []string{"x.pdf", "y.pdf", "z.pdf", "w.pdf"}, names(v.Records), "direction %s", d)
	}

	// duplicates across sources are kept, directory first
	v := BuildView([]document.Record{dir("same.pdf", 1)}, []document.Record{media("same.pdf", "", 1)}, Options{})
	require.Len(t, v.Records, 2)
	require.Equal(t, document.OriginDirectory, v.Records[0].Origin)
	require.Equal(t, document.OriginMedia, v.Records[1].Origin)
}

func TestBuildView_TagFilter(t *testing.T) {
	a := []document.Record{
		dir("Annual-REPORT-2024.pdf", 1),
		dir("minutes.pdf", 2),
		// description is ignored for directory records
		{Name: "budget.pdf", Description: "report", Origin: document.OriginDirectory},
	}
	b := []document.Record{
		media("scan.pdf", "Quarterly Report", 3),
		media("flyer.pdf", "summer party", 4),
	}

	v := BuildView(a, b, Options{Tag: "report"})
	require.Equal(t, []string{"Annual-REPORT-2024.pdf", "scan.pdf"}, names(v.Records))

	v = BuildView(a, b, Options{Tag: "nothing-matches"})
	require.Empty(t, v.Records)
}

func TestBuildView_GroupByYear(t *testing.T) {
	a := []document.Record{
		dir("a.pdf", ts(2023, time.March, 1)),
		dir("b.pdf", ts(2024, time.January, 5)),
		dir("c.pdf", ts(2023, time.December, 24)),
		dir("d.pdf", ts(2024, time.July, 9)),
	}

	v := BuildView(a, nil, Options{GroupBy: GroupYear, Direction: Descending, Location: time.UTC})
	require.True(t, v.Grouped)
	require.Len(t, v.Groups, 2)
	require.Equal(t, "2024", v.Groups[0].Label)
	require.Equal(t, "2023", v.Groups[1].Label)
	require.Equal(t, []string{"d.pdf", "b.pdf"}, names(v.Groups[0].Records))
	require.Equal(t, []string{"c.pdf", "a.pdf"}, names(v.Groups[1].Records))

	// bucket order stays newest first even when records ascend
	v = BuildView(a, nil, Options{GroupBy: GroupYear, Direction: Ascending, Location: time.UTC})
	require.Equal(t, "2024", v.Groups[0].Label)
	require.Equal(t, []string{"a.pdf", "c.pdf"}, names(v.Groups[1].Records))
	require.Equal(t, 4, v.Len())
}

func TestBuildView_GroupByMonthAndWeek(t *testing.T) {
	a := []document.Record{
		dir("june.pdf", ts(2024, time.June, 5)),
		dir("may.pdf", ts(2024, time.May, 30)),
		dir("june-late.pdf", ts(2024, time.June, 28)),
	}

	v := BuildView(a, nil, Options{GroupBy: GroupMonth, SortBy: SortByDate, Location: time.UTC})
	require.Len(t, v.Groups, 2)
	require.Equal(t, "June 2024", v.Groups[0].Label)
	require.Equal(t, []string{"june.pdf", "june-late.pdf"}, names(v.Groups[0].Records))
	require.Equal(t, "May 2024", v.Groups[1].Label)

	// 2024-06-05 is in ISO week 23; 2024-12-30 belongs to week 1 of 2025.
	w := []document.Record{
		dir("w23.pdf", ts(2024, time.June, 5)),
		dir("w1.pdf", ts(2024, time.December, 30)),
	}
	v = BuildView(w, nil, Options{GroupBy: GroupWeek, Location: time.UTC})
	require.Len(t, v.Groups, 2)
	require.Equal(t, "Week 1, 2025", v.Groups[0].Label)
	require.Equal(t, "Week 23, 2024", v.Groups[1].Label)
}

func TestBuildView_IsIdempotent(t *testing.T) {
	a := []document.Record{dir("b.pdf", 2), dir("a.pdf", 1)}
	b := []document.Record{media("c.pdf", "x", 3)}
	opts := Options{SortBy: SortByDate, Direction: Descending, GroupBy: GroupYear, Location: time.UTC}

	first := BuildView(a, b, opts)
	second := BuildView(a, b, opts)
	require.Equal(t, first, second)

	// inputs are not reordered
	require.Equal(t, []string{"b.pdf", "a.pdf"}, names(a))
}

func TestBuildView_InvalidOptionsFallBack(t *testing.T) {
	a := []document.Record{dir("b.pdf", 1), dir("a.pdf", 2)}

	v := BuildView(a, nil, Options{SortBy: "size", Direction: "sideways", GroupBy: "decade"})
	require.False(t, v.Grouped)
	require.Equal(t, []string{"a.pdf", "b.pdf"}, names(v.Records))
}

func TestParseOptions(t *testing.T) {
	o := ParseOptions("  report ", "date", "DESC", "Month")
	require.Equal(t, "report", o.Tag)
	require.Equal(t, SortByDate, o.SortBy)
	require.Equal(t, Descending, o.Direction)
	require.Equal(t, GroupMonth, o.GroupBy)

	o = ParseOptions("", "filename", "", "")
	require.Equal(t, Options{SortBy: SortByName, Direction: Ascending, GroupBy: GroupNone}, o)

	o = ParseOptions("", "bogus", "bogus", "bogus")
	require.Equal(t, Options{SortBy: SortByName, Direction: Ascending, GroupBy: GroupNone}, o)
}

func TestView_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(View{})
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(b))

	v := BuildView([]document.Record{dir("a.pdf", ts(2024, time.May, 1))}, nil, Options{GroupBy: GroupYear, Location: time.UTC})
	b, err = json.Marshal(v)
	require.NoError(t, err)

	var groups []map[string]any
	require.NoError(t, json.Unmarshal(b, &groups))
	require.Len(t, groups, 1)
	require.Equal(t, "2024", groups[0]["label"])
	require.Len(t, groups[0]["records"], 1)
}
