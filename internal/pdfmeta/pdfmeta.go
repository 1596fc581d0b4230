// Package pdfmeta reads the few PDF properties the gallery displays.
package pdfmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrInvalidPDF = errors.New("not a valid PDF document")

// Info is the metadata exposed for a PDF.
type Info struct {
	Title     string
	PageCount int
}

// Read parses the document trailer and page tree of r.
func Read(r io.ReaderAt, size int64) (info Info, err error) {
	if err := checkHeader(r); err != nil {
		return Info{}, err
	}

	// the parser panics on some malformed xref tables
	defer func() {
		if rec := recover(); rec != nil {
			info = Info{}
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	info.PageCount = reader.NumPage()
	if meta := reader.Trailer().Key("Info"); !meta.IsNull() {
		info.Title = strings.TrimSpace(meta.Key("Title").Text())
	}
	return info, nil
}

// ReadFile opens name in fsys and reads its metadata.
func ReadFile(fsys fs.FS, name string) (Info, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	ra, ok := f.(io.ReaderAt)
	if !ok {
		b, err := io.ReadAll(f)
		if err != nil {
			return Info{}, err
		}
		return Read(bytes.NewReader(b), int64(len(b)))
	}
	return Read(ra, st.Size())
}

// Validate reports whether data looks like a readable PDF.
func Validate(data []byte) error {
	_, err := Read(bytes.NewReader(data), int64(len(data)))
	return err
}

func checkHeader(r io.ReaderAt) error {
	head := make([]byte, 5)
	if _, err := r.ReadAt(head, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if string(head) != "%PDF-" {
		return ErrInvalidPDF
	}
	return nil
}
