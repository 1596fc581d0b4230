package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/internal/gallery"
	"github.com/pdfgallery/pdfgallery/internal/pdfmeta/pdftest"
	"github.com/pdfgallery/pdfgallery/internal/source"
	"github.com/pdfgallery/pdfgallery/pkg/metrics"
)

type staticLister struct {
	records []document.Record
	err     error
}

func (s staticLister) List(context.Context) ([]document.Record, error) {
	return s.records, s.err
}

type fakeThumbs struct {
	mu        sync.Mutex
	resolved  []string
	forgotten []string
}

func (f *fakeThumbs) Resolve(_ context.Context, r document.Record) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, r.Name)
	return "/thumbnails/" + r.Name + ".jpg"
}

func (f *fakeThumbs) Forget(_ context.Context, r document.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, r.Name)
	return nil
}

func newGallery(t *testing.T, media Lister, thumbs Thumbnails) (*Gallery, string) {
	t.Helper()
	dir := t.TempDir()
	g := New(Config{
		Directory:   source.NewDirectory(dir, "/files", time.UTC),
		Media:       media,
		Thumbnails:  thumbs,
		Location:    time.UTC,
		Concurrency: 2,
	})
	return g, dir
}

func TestGallery_ViewMergesProvidersAndResolvesThumbnails(t *testing.T) {
	media := staticLister{records: []document.Record{
		{Name: "flyer.pdf", Description: "summer fest", Timestamp: 50, Origin: document.OriginMedia},
	}}
	thumbs := &fakeThumbs{}
	g, dir := newGallery(t, media, thumbs)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "agenda-2024-03-01.pdf"), pdftest.Minimal("", 1), 0o644))

	before := testutil.ToFloat64(metrics.ViewRequests.WithLabelValues("none"))
	v, err := g.View(context.Background(), gallery.Options{})
	require.NoError(t, err)
	require.False(t, v.Grouped)
	require.Len(t, v.Records, 2)
	require.Equal(t, "agenda-2024-03-01.pdf", v.Records[0].Name)
	require.Equal(t, "/thumbnails/agenda-2024-03-01.pdf.jpg", v.Records[0].ThumbnailURL)
	require.Equal(t, "/thumbnails/flyer.pdf.jpg", v.Records[1].ThumbnailURL)
	require.ElementsMatch(t, []string{"agenda-2024-03-01.pdf", "flyer.pdf"}, thumbs.resolved)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.ViewRequests.WithLabelValues("none")))
}

func TestGallery_ViewOnlyResolvesFilteredRecords(t *testing.T) {
	media := staticLister{records: []document.Record{
		{Name: "a.pdf", Description: "budget", Origin: document.OriginMedia},
		{Name: "b.pdf", Description: "minutes", Origin: document.OriginMedia},
	}}
	thumbs := &fakeThumbs{}
	g, _ := newGallery(t, media, thumbs)

	v, err := g.View(context.Background(), gallery.Options{Tag: "BUDGET", GroupBy: gallery.GroupYear})
	require.NoError(t, err)
	require.Equal(t, 1, v.Len())
	require.Equal(t, []string{"a.pdf"}, thumbs.resolved)
}

func TestGallery_ProviderFailureDegradesToEmpty(t *testing.T) {
	g, dir := newGallery(t, staticLister{err: errors.New("mongo down")}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.pdf"), pdftest.Minimal("", 1), 0o644))

	v, err := g.View(context.Background(), gallery.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, v.Len())
	require.Empty(t, v.Records[0].ThumbnailURL)
}

func TestGallery_ViewCanceled(t *testing.T) {
	g, _ := newGallery(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.View(ctx, gallery.Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGallery_UploadAndDelete(t *testing.T) {
	thumbs := &fakeThumbs{}
	g, dir := newGallery(t, nil, thumbs)

	r, err := g.Upload(context.Background(), "../../Minutes 2024-02-03.pdf", pdftest.Minimal("Minutes", 3))
	require.NoError(t, err)
	require.Equal(t, "Minutes 2024-02-03.pdf", r.Name)
	require.Equal(t, "Minutes", r.Title)
	require.Equal(t, 3, r.PageCount)
	require.Equal(t, time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC).Unix(), r.Timestamp)
	require.FileExists(t, filepath.Join(dir, "Minutes 2024-02-03.pdf"))
	require.Equal(t, "/thumbnails/Minutes 2024-02-03.pdf.jpg", r.ThumbnailURL)

	_, err = g.Upload(context.Background(), "Minutes 2024-02-03.pdf", pdftest.Minimal("", 1))
	require.ErrorIs(t, err, ErrExists)

	require.NoError(t, g.Delete(context.Background(), "Minutes 2024-02-03.pdf"))
	require.NoFileExists(t, filepath.Join(dir, "Minutes 2024-02-03.pdf"))
	require.Equal(t, []string{"Minutes 2024-02-03.pdf"}, thumbs.forgotten)

	require.ErrorIs(t, g.Delete(context.Background(), "Minutes 2024-02-03.pdf"), ErrNotFound)
	require.ErrorIs(t, g.Delete(context.Background(), "../etc/passwd"), ErrInvalidName)
}

func TestGallery_UploadRejectsInvalidInput(t *testing.T) {
	g, _ := newGallery(t, nil, nil)

	_, err := g.Upload(context.Background(), "notes.txt", pdftest.Minimal("", 1))
	require.ErrorIs(t, err, ErrInvalidName)

	_, err = g.Upload(context.Background(), "fake.pdf", []byte("hello"))
	require.ErrorIs(t, err, ErrInvalidPDF)
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":            "report.pdf",
		"C:\\docs\\Report.PDF":  "Report.PDF",
		"../../etc/x.pdf":       "x.pdf",
		"what?*<>.pdf":          "what____.pdf",
		"...hidden.pdf":         "hidden.pdf",
		"Übersicht (final).pdf": "Übersicht (final).pdf",
	}
	for in, want := range cases {
		got, err := SanitizeName(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"", ".pdf", "archive.zip", "/"} {
		_, err := SanitizeName(in)
		require.ErrorIs(t, err, ErrInvalidName, in)
	}
}
