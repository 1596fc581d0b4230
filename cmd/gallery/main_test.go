package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pdfgallery/pdfgallery/internal/config"
	"github.com/pdfgallery/pdfgallery/internal/pdfmeta/pdftest"
	"github.com/pdfgallery/pdfgallery/internal/thumbnail"
)

type fakeRenderer struct{ fail string }

func (fakeRenderer) Name() string { return "fake" }

func (f fakeRenderer) Render(_ context.Context, pdfPath, jpegPath string) error {
	if f.fail != "" && strings.Contains(pdfPath, f.fail) {
		return errors.New("cannot render")
	}
	if err := os.MkdirAll(filepath.Dir(jpegPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(jpegPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return jpeg.Encode(out, image.NewGray(image.Rect(0, 0, 4, 4)), nil)
}

func testDeps(t *testing.T, dir string, r thumbnail.Renderer) deps {
	t.Helper()
	return deps{
		loadConfig: func() (*config.Config, error) {
			cfg := &config.Config{}
			cfg.Gallery.Dir = dir
			cfg.Gallery.ThumbnailDir = filepath.Join(dir, "thumbnails")
			cfg.Gallery.FilesURL = "/files"
			cfg.Gallery.ThumbnailsURL = "/thumbnails"
			cfg.Gallery.Timezone = "UTC"
			cfg.Gallery.Concurrency = 2
			return cfg, nil
		},
		newRenderer: func(*config.Config) thumbnail.Renderer { return r },
	}
}

func galleryDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"minutes-2024-05-01.pdf": pdftest.Minimal("May minutes", 2),
		"minutes-2023-11-20.pdf": pdftest.Minimal("", 1),
		"flyer-20240102.pdf":     pdftest.Minimal("A very long flyer title that will certainly be truncated", 1),
		"readme.txt":             []byte("ignored"),
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func run(t *testing.T, d deps, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(d)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestList_JSONSortedByDate(t *testing.T) {
	dir := galleryDir(t)
	out, err := run(t, testDeps(t, dir, nil), "list", "--sort-by", "date", "--sort-direction", "desc", "-o", "json")
	require.NoError(t, err)

	var rows []row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	require.Equal(t, "minutes-2024-05-01.pdf", rows[0].Name)
	require.Equal(t, "2024-05-01", rows[0].Date)
	require.Equal(t, 2, rows[0].Pages)
	require.Equal(t, "flyer-20240102.pdf", rows[1].Name)
	require.Equal(t, "minutes-2023-11-20.pdf", rows[2].Name)
	require.Equal(t, time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC).Unix(), rows[2].Timestamp)
}

func TestList_YAMLGroupedWithTag(t *testing.T) {
	dir := galleryDir(t)
	out, err := run(t, testDeps(t, dir, nil), "list", dir, "--tag", "MINUTES", "--group-by", "year", "-o", "yaml")
	require.NoError(t, err)

	var groups []rowGroup
	require.NoError(t, yaml.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 2)
	require.Equal(t, "2024", groups[0].Label)
	require.Equal(t, "2023", groups[1].Label)
	require.Equal(t, "minutes-2024-05-01.pdf", groups[0].Records[0].Name)
}

func TestList_Table(t *testing.T) {
	dir := galleryDir(t)
	out, err := run(t, testDeps(t, dir, nil), "list", "--group-by", "month")
	require.NoError(t, err)

	require.Contains(t, out, "May 2024 (1)")
	require.Contains(t, out, "January 2024 (1)")
	require.Contains(t, out, "November 2023 (1)")
	require.Less(t, strings.Index(out, "May 2024"), strings.Index(out, "November 2023"))
	require.Contains(t, out, "May minutes")
	require.NotContains(t, out, "certainly be truncated")
	require.NotContains(t, out, "readme.txt")
}

func TestList_EmptyAndBadOutput(t *testing.T) {
	out, err := run(t, testDeps(t, t.TempDir(), nil), "list")
	require.NoError(t, err)
	require.Contains(t, out, "No PDFs found.")

	_, err = run(t, testDeps(t, t.TempDir(), nil), "list", "-o", "xml")
	require.Error(t, err)
}

func TestThumbnails(t *testing.T) {
	dir := galleryDir(t)
	out := filepath.Join(t.TempDir(), "thumbs")

	stdout, err := run(t, testDeps(t, dir, fakeRenderer{}), "thumbnails", "--out", out)
	require.NoError(t, err)
	require.Contains(t, stdout, "3 ready, 0 failed")
	require.FileExists(t, filepath.Join(out, "minutes-2024-05-01.jpg"))

	stdout, err = run(t, testDeps(t, dir, fakeRenderer{fail: "flyer"}), "thumbnails", "--out", filepath.Join(t.TempDir(), "other"))
	require.Error(t, err)
	require.Contains(t, stdout, "2 ready, 1 failed")
}

func TestThumbnails_NoRenderer(t *testing.T) {
	_, err := run(t, testDeps(t, galleryDir(t), nil), "thumbnails")
	require.ErrorIs(t, err, thumbnail.ErrNotConfigured)
}

func TestVersion(t *testing.T) {
	out, err := run(t, testDeps(t, t.TempDir(), nil), "version")
	require.NoError(t, err)
	require.Contains(t, out, "gallery version dev")

	out, err = run(t, testDeps(t, t.TempDir(), nil), "--version")
	require.NoError(t, err)
	require.Contains(t, out, "dev")
}
