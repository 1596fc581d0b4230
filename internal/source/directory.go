// Package source turns the two document origins, the managed upload
// directory and the media library, into gallery records.
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfgallery/pdfgallery/internal/dates"
	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/internal/pdfmeta"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

// Directory lists the PDFs stored directly in the gallery upload directory.
//
// Effective date: date in the filename, else the file modification time.
type Directory struct {
	fsys     fs.FS
	root     string
	filesURL string
	loc      *time.Location
}

// NewDirectory lists PDFs under root and links them below filesURL.
func NewDirectory(root, filesURL string, loc *time.Location) *Directory {
	return NewDirectoryFS(os.DirFS(root), root, filesURL, loc)
}

// NewDirectoryFS is NewDirectory over an arbitrary fs.FS; root is only used
// to build the on-disk source path handed to the thumbnailer.
func NewDirectoryFS(fsys fs.FS, root, filesURL string, loc *time.Location) *Directory {
	if loc == nil {
		loc = time.Local
	}
	return &Directory{fsys: fsys, root: root, filesURL: strings.TrimRight(filesURL, "/"), loc: loc}
}

// List returns one record per *.pdf file, in directory order. A missing
// directory is an empty gallery, not an error.
func (d *Directory) List(ctx context.Context) ([]document.Record, error) {
	entries, err := fs.ReadDir(d.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("gallery directory %s does not exist", d.root)
			return nil, nil
		}
		return nil, err
	}

	records := make([]document.Record, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !IsPDFName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warnf("stat %s: %v", entry.Name(), err)
			continue
		}
		records = append(records, d.record(entry.Name(), info.ModTime()))
	}
	return records, nil
}

func (d *Directory) record(name string, modTime time.Time) document.Record {
	r := document.Record{
		Name:       name,
		Title:      name,
		URL:        JoinURL(d.filesURL, name),
		Origin:     document.OriginDirectory,
		SourcePath: filepath.Join(d.root, name),
		ModTime:    modTime,
	}

	if ts, ok := dates.ExtractUnix(name, d.loc); ok {
		r.Timestamp = ts
	} else {
		r.Timestamp = modTime.Unix()
	}

	meta, err := pdfmeta.ReadFile(d.fsys, name)
	if err != nil {
		logger.Debugf("read pdf metadata %s: %v", name, err)
		return r
	}
	r.PageCount = meta.PageCount
	if meta.Title != "" {
		r.Title = meta.Title
	}
	return r
}

// Lookup returns the record of a single PDF in the directory.
func (d *Directory) Lookup(name string) (document.Record, error) {
	if !IsPDFName(name) || name != filepath.Base(name) {
		return document.Record{}, fs.ErrNotExist
	}
	info, err := fs.Stat(d.fsys, name)
	if err != nil {
		return document.Record{}, err
	}
	if info.IsDir() {
		return document.Record{}, fs.ErrNotExist
	}
	return d.record(name, info.ModTime()), nil
}

// Root is the on-disk directory the records are listed from.
func (d *Directory) Root() string { return d.root }

// IsPDFName reports whether name has a .pdf extension (any case).
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
