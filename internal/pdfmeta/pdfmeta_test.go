package pdfmeta_test

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/pdfgallery/pdfgallery/internal/pdfmeta"
	"github.com/pdfgallery/pdfgallery/internal/pdfmeta/pdftest"
)

func TestRead_TitleAndPages(t *testing.T) {
	data := pdftest.Minimal("Annual Report", 3)

	info, err := pdfmeta.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, "Annual Report", info.Title)
	require.Equal(t, 3, info.PageCount)
}

func TestRead_NoInfoDictionary(t *testing.T) {
	data := pdftest.Minimal("", 1)

	info, err := pdfmeta.Read(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Empty(t, info.Title)
	require.Equal(t, 1, info.PageCount)
}

func TestReadFile(t *testing.T) {
	fsys := fstest.MapFS{"doc.pdf": &fstest.MapFile{Data: pdftest.Minimal("Doc", 2)}}

	info, err := pdfmeta.ReadFile(fsys, "doc.pdf")
	require.NoError(t, err)
	require.Equal(t, 2, info.PageCount)

	_, err = pdfmeta.ReadFile(fsys, "missing.pdf")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, pdfmeta.Validate(pdftest.Minimal("x", 1)))

	err := pdfmeta.Validate([]byte("hello world"))
	require.True(t, errors.Is(err, pdfmeta.ErrInvalidPDF))

	err = pdfmeta.Validate([]byte("%PDF-1.4\ngarbage without xref"))
	require.True(t, errors.Is(err, pdfmeta.ErrInvalidPDF))

	err = pdfmeta.Validate(nil)
	require.True(t, errors.Is(err, pdfmeta.ErrInvalidPDF))
}
