package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"strconv"
)

// CommandRunner runs an external program. Tests replace it.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// LocalRenderer rasterizes the first page with poppler's pdftoppm.
type LocalRenderer struct {
	Binary   string
	DPI      int
	MaxWidth int
	Quality  int

	run CommandRunner
}

// NewLocalRenderer returns a renderer calling binary (default "pdftoppm").
func NewLocalRenderer(binary string, dpi, maxWidth, quality int) *LocalRenderer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 100
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &LocalRenderer{Binary: binary, DPI: dpi, MaxWidth: maxWidth, Quality: quality, run: execRunner}
}

func (l *LocalRenderer) Name() string { return "local" }

// Available reports whether the pdftoppm binary can be found.
func (l *LocalRenderer) Available() bool {
	_, err := exec.LookPath(l.Binary)
	return err == nil
}

func (l *LocalRenderer) Render(ctx context.Context, pdfPath, jpegPath string) error {
	tmpDir, err := os.MkdirTemp("", "pdfthumb-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := tmpDir + "/page"
	args := []string{
		"-f", "1", "-l", "1",
		"-r", strconv.Itoa(l.DPI),
		"-png", "-singlefile",
		pdfPath, prefix,
	}
	if err := l.run(ctx, l.Binary, args...); err != nil {
		return err
	}

	f, err := os.Open(prefix + ".png")
	if err != nil {
		return fmt.Errorf("open rendered page: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode rendered page: %w", err)
	}
	return writeJPEG(jpegPath, flatten(img, l.MaxWidth), l.Quality)
}
