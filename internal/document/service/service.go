// Package service assembles gallery views from the document providers and
// manages the PDFs stored in the gallery directory.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/internal/gallery"
	"github.com/pdfgallery/pdfgallery/internal/pdfmeta"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
	"github.com/pdfgallery/pdfgallery/pkg/metrics"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrExists      = errors.New("already exists")
	ErrInvalidName = errors.New("invalid file name")
	ErrInvalidPDF  = pdfmeta.ErrInvalidPDF
)

// Lister is a document provider.
type Lister interface {
	List(ctx context.Context) ([]document.Record, error)
}

// DirectorySource is the provider backed by the gallery directory.
type DirectorySource interface {
	Lister
	Lookup(name string) (document.Record, error)
	Root() string
}

// Thumbnails resolves and invalidates record thumbnails.
type Thumbnails interface {
	Resolve(ctx context.Context, r document.Record) string
	Forget(ctx context.Context, r document.Record) error
}

// Config holds the collaborators of a Gallery.
type Config struct {
	Directory   DirectorySource
	Media       Lister
	Thumbnails  Thumbnails
	Location    *time.Location
	Concurrency int
}

// Gallery is the read and write surface used by the HTTP handlers and the CLI.
type Gallery struct {
	directory   DirectorySource
	media       Lister
	thumbs      Thumbnails
	loc         *time.Location
	concurrency int
}

// New returns a Gallery. Concurrency defaults to 4 and Location to time.Local.
func New(cfg Config) *Gallery {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Gallery{
		directory:   cfg.Directory,
		media:       cfg.Media,
		thumbs:      cfg.Thumbnails,
		loc:         cfg.Location,
		concurrency: cfg.Concurrency,
	}
}

// View lists both providers, builds the view and fills in thumbnail URLs.
// Provider failures are logged and the provider contributes nothing.
func (g *Gallery) View(ctx context.Context, opts gallery.Options) (gallery.View, error) {
	if opts.Location == nil {
		opts.Location = g.loc
	}

	var directory, media []document.Record
	var eg errgroup.Group
	eg.Go(func() error {
		directory = g.list(ctx, "directory", g.directory)
		return nil
	})
	eg.Go(func() error {
		media = g.list(ctx, "media", g.media)
		return nil
	})
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return gallery.View{}, err
	}

	view := gallery.BuildView(directory, media, opts)
	metrics.ViewRequests.WithLabelValues(string(view.GroupBy())).Inc()

	if g.thumbs == nil {
		return view, nil
	}
	tg, tctx := errgroup.WithContext(ctx)
	tg.SetLimit(g.concurrency)
	view.Each(func(r *document.Record) {
		tg.Go(func() error {
			r.ThumbnailURL = g.thumbs.Resolve(tctx, *r)
			return nil
		})
	})
	_ = tg.Wait()
	return view, ctx.Err()
}

func (g *Gallery) list(ctx context.Context, name string, l Lister) []document.Record {
	if l == nil {
		return nil
	}
	records, err := l.List(ctx)
	if err != nil {
		logger.Warnf("%s provider failed, treating as empty: %v", name, err)
		return nil
	}
	return records
}

// Upload stores data as name in the gallery directory. Existing files are
// never overwritten.
func (g *Gallery) Upload(ctx context.Context, name string, data []byte) (document.Record, error) {
	name, err := SanitizeName(name)
	if err != nil {
		return document.Record{}, err
	}
	if err := pdfmeta.Validate(data); err != nil {
		return document.Record{}, err
	}
	if err := ctx.Err(); err != nil {
		return document.Record{}, err
	}

	root := g.directory.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return document.Record{}, fmt.Errorf("create gallery directory: %w", err)
	}
	path := filepath.Join(root, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return document.Record{}, ErrExists
		}
		return document.Record{}, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return document.Record{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return document.Record{}, fmt.Errorf("close %s: %w", name, err)
	}
	logger.Infof("stored upload %s (%d bytes)", name, len(data))

	r, err := g.directory.Lookup(name)
	if err != nil {
		return document.Record{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	if g.thumbs != nil {
		r.ThumbnailURL = g.thumbs.Resolve(ctx, r)
	}
	return r, nil
}

// Delete removes name from the gallery directory together with its thumbnail.
func (g *Gallery) Delete(ctx context.Context, name string) error {
	if name != filepath.Base(name) {
		return ErrInvalidName
	}
	r, err := g.directory.Lookup(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if err := os.Remove(r.SourcePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %s: %w", name, err)
	}
	if g.thumbs != nil {
		if err := g.thumbs.Forget(ctx, r); err != nil {
			logger.Warnf("forget thumbnail of %s: %v", name, err)
		}
	}
	logger.Infof("deleted %s", name)
	return nil
}

// SanitizeName reduces an uploaded file name to a safe base name with a
// .pdf extension.
func SanitizeName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '-', r == '_', r == ' ', r == '(', r == ')':
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	name = strings.TrimLeft(name, ".")
	if !strings.EqualFold(filepath.Ext(name), ".pdf") || len(name) <= len(".pdf") {
		return "", ErrInvalidName
	}
	return name, nil
}
