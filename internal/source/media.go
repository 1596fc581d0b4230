package source

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfgallery/pdfgallery/internal/dates"
	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/internal/document/repository"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

const pdfMimeType = "application/pdf"

// attachment date layouts accepted, most specific first
var attachmentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Media lists PDF attachments of the media library.
//
// Effective date: date in the filename, else the attachment date string,
// else the attachment creation time.
type Media struct {
	repo       repository.AttachmentRepository
	uploads    fs.FS
	uploadsDir string
	uploadsURL string
	loc        *time.Location
}

// NewMedia resolves attachment files relative to uploadsDir.
func NewMedia(repo repository.AttachmentRepository, uploadsDir, uploadsURL string, loc *time.Location) *Media {
	return NewMediaFS(repo, os.DirFS(uploadsDir), uploadsDir, uploadsURL, loc)
}

// NewMediaFS is NewMedia reading attachment files from uploads.
func NewMediaFS(repo repository.AttachmentRepository, uploads fs.FS, uploadsDir, uploadsURL string, loc *time.Location) *Media {
	if loc == nil {
		loc = time.Local
	}
	return &Media{
		repo:       repo,
		uploads:    uploads,
		uploadsDir: uploadsDir,
		uploadsURL: strings.TrimRight(uploadsURL, "/"),
		loc:        loc,
	}
}

// List returns a record for every PDF attachment in the library.
func (m *Media) List(ctx context.Context) ([]document.Record, error) {
	attachments, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]document.Record, 0, len(attachments))
	for _, a := range attachments {
		if !isPDFAttachment(a) {
			continue
		}
		records = append(records, m.record(a))
	}
	return records, nil
}

func (m *Media) record(a *document.Attachment) document.Record {
	file := strings.TrimLeft(path.Clean("/"+filepath.ToSlash(a.File)), "/")
	name := path.Base(file)

	r := document.Record{
		Name:        name,
		Title:       strings.TrimSpace(a.Title),
		URL:         JoinURL(m.uploadsURL, file),
		Description: a.Description,
		Origin:      document.OriginMedia,
		SourcePath:  filepath.Join(m.uploadsDir, filepath.FromSlash(file)),
	}
	if r.Title == "" {
		r.Title = name
	}
	if info, err := fs.Stat(m.uploads, file); err == nil {
		r.ModTime = info.ModTime()
	} else {
		logger.Debugf("stat attachment %s (%s): %v", a.ID, file, err)
	}

	switch ts, ok := dates.ExtractUnix(name, m.loc); {
	case ok:
		r.Timestamp = ts
	default:
		if t, ok := parseAttachmentDate(a.Date, m.loc); ok {
			r.Timestamp = t.Unix()
		} else if !a.CreatedAt.IsZero() {
			r.Timestamp = a.CreatedAt.Unix()
		}
	}
	return r
}

func isPDFAttachment(a *document.Attachment) bool {
	if a == nil || a.File == "" {
		return false
	}
	if a.MimeType != "" {
		return strings.EqualFold(a.MimeType, pdfMimeType)
	}
	return IsPDFName(a.File)
}

func parseAttachmentDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range attachmentDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// JoinURL appends a slash separated relative path to base, escaping each
// segment.
func JoinURL(base, rel string) string {
	parts := strings.Split(strings.Trim(rel, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return base + "/" + strings.Join(parts, "/")
}
