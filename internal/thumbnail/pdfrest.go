package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultPDFRestURL = "https://api.pdfrest.com/jpg"

// maximum size of a downloaded preview image
const maxPreviewBytes = 20 << 20

// PDFRestRenderer converts the PDF through the pdfRest JPG endpoint and
// downloads the resulting image. No retries are attempted.
type PDFRestRenderer struct {
	APIKey   string
	URL      string
	MaxWidth int
	Quality  int
	Client   *http.Client
}

func NewPDFRestRenderer(apiKey, endpoint string, maxWidth, quality int) *PDFRestRenderer {
	if endpoint == "" {
		endpoint = DefaultPDFRestURL
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &PDFRestRenderer{
		APIKey:   apiKey,
		URL:      endpoint,
		MaxWidth: maxWidth,
		Quality:  quality,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PDFRestRenderer) Name() string { return "pdfrest" }

type pdfRestResponse struct {
	URL       string `json:"url"`
	OutputURL string `json:"outputUrl"`
	Error     string `json:"error"`
}

func (p *PDFRestRenderer) Render(ctx context.Context, pdfPath, jpegPath string) error {
	if p.APIKey == "" {
		return ErrNotConfigured
	}

	body, contentType, err := p.form(pdfPath, jpegPath)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("pdfrest request: %w", err)
	}
	defer resp.Body.Close()

	var out pdfRestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return fmt.Errorf("pdfrest response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("pdfrest status %d: %s", resp.StatusCode, out.Error)
	}
	imageURL := out.URL
	if imageURL == "" {
		imageURL = out.OutputURL
	}
	if imageURL == "" {
		return fmt.Errorf("pdfrest response without image url")
	}
	return p.download(ctx, imageURL, jpegPath)
}

func (p *PDFRestRenderer) form(pdfPath, jpegPath string) (io.Reader, string, error) {
	src, err := os.Open(pdfPath)
	if err != nil {
		return nil, "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("read source: %w", err)
	}
	output := strings.TrimSuffix(filepath.Base(jpegPath), filepath.Ext(jpegPath))
	if err := w.WriteField("output", output); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (p *PDFRestRenderer) download(ctx context.Context, imageURL, jpegPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download preview: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download preview: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxPreviewBytes))
	if err != nil {
		return fmt.Errorf("decode preview: %w", err)
	}
	return writeJPEG(jpegPath, flatten(img, p.MaxWidth), p.Quality)
}
