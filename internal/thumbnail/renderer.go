package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

var ErrNotConfigured = errors.New("thumbnail renderer not configured")

// Renderer writes a JPEG preview of the first page of a PDF.
type Renderer interface {
	Name() string
	Render(ctx context.Context, pdfPath, jpegPath string) error
}

// ChainRenderer tries each renderer in order until one succeeds.
type ChainRenderer []Renderer

func (c ChainRenderer) Name() string {
	names := make([]string, 0, len(c))
	for _, r := range c {
		names = append(names, r.Name())
	}
	return strings.Join(names, ",")
}

func (c ChainRenderer) Render(ctx context.Context, pdfPath, jpegPath string) error {
	if len(c) == 0 {
		return ErrNotConfigured
	}
	var errs []error
	for _, r := range c {
		err := r.Render(ctx, pdfPath, jpegPath)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return errors.Join(errs...)
}

// ChainSettings selects and configures the renderers of a chain.
type ChainSettings struct {
	Order         []string
	PdftoppmPath  string
	DPI           int
	MaxWidth      int
	Quality       int
	PDFRestAPIKey string
	PDFRestURL    string
}

// BuildChain returns the renderers named in s.Order that can actually run:
// pdfrest needs an API key, local needs the pdftoppm binary.
func BuildChain(s ChainSettings) ChainRenderer {
	var chain ChainRenderer
	for _, name := range s.Order {
		switch name {
		case "pdfrest":
			if s.PDFRestAPIKey == "" {
				logger.Infof("pdfrest renderer skipped: no API key")
				continue
			}
			chain = append(chain, NewPDFRestRenderer(s.PDFRestAPIKey, s.PDFRestURL, s.MaxWidth, s.Quality))
		case "local":
			lr := NewLocalRenderer(s.PdftoppmPath, s.DPI, s.MaxWidth, s.Quality)
			if !lr.Available() {
				logger.Warnf("local renderer skipped: %s not found", lr.Binary)
				continue
			}
			chain = append(chain, lr)
		default:
			logger.Warnf("unknown thumbnail renderer %q", name)
		}
	}
	return chain
}

// flatten draws img on a white background and scales it down to maxWidth
// (never up). Transparent PDF pages would otherwise turn black in JPEG.
func flatten(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// writeJPEG encodes img to path through a temporary file so readers never
// observe a partially written thumbnail.
func writeJPEG(path string, img image.Image, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".thumb-*.jpg")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode JPEG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename thumbnail: %w", err)
	}
	return nil
}
