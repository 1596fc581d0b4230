package handler

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/internal/document/service"
	"github.com/pdfgallery/pdfgallery/internal/gallery"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

// GalleryService is the part of service.Gallery the routes need.
type GalleryService interface {
	View(ctx context.Context, opts gallery.Options) (gallery.View, error)
	Upload(ctx context.Context, name string, data []byte) (document.Record, error)
	Delete(ctx context.Context, name string) error
}

type Options struct {
	Location       *time.Location
	MaxUploadBytes int64
}

func RegisterGalleryRoutes(r gin.IRouter, svc GalleryService, opts Options) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	h := &galleryHandler{svc: svc, opts: opts}

	r.GET("/api/pdfs", h.list)
	r.POST("/api/pdfs", h.upload)
	r.DELETE("/api/pdfs/:name", h.delete)
	r.GET("/gallery", h.page)
}

type galleryHandler struct {
	svc  GalleryService
	opts Options
}

func (h *galleryHandler) options(c *gin.Context) gallery.Options {
	o := gallery.ParseOptions(c.Query("tag"), c.Query("sortBy"), c.Query("sortDirection"), c.Query("groupBy"))
	o.Location = h.opts.Location
	return o
}

func (h *galleryHandler) list(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), h.options(c))
	if err != nil {
		logger.Errorf("build view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not build gallery"})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *galleryHandler) page(c *gin.Context) {
	view, err := h.svc.View(c.Request.Context(), h.options(c))
	if err != nil {
		logger.Errorf("build view: %v", err)
		c.String(http.StatusInternalServerError, "could not build gallery")
		return
	}
	var buf bytes.Buffer
	if err := galleryTemplate.Execute(&buf, pageData(view)); err != nil {
		logger.Errorf("render gallery: %v", err)
		c.String(http.StatusInternalServerError, "could not render gallery")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *galleryHandler) upload(c *gin.Context) {
	if c.Request.ContentLength > h.opts.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.Upload(c.Request.Context(), header.Filename, data)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, rec)
	case errors.Is(err, service.ErrExists):
		c.JSON(http.StatusConflict, gin.H{"error": "a file with this name already exists"})
	case errors.Is(err, service.ErrInvalidName), errors.Is(err, service.ErrInvalidPDF):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("upload %s: %v", header.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
	}
}

func (h *galleryHandler) delete(c *gin.Context) {
	name := c.Param("name")
	err := h.svc.Delete(c.Request.Context(), name)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Errorf("delete %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
	}
}

type pageGroup struct {
	Label   string
	Records []document.Record
}

func pageData(v gallery.View) []pageGroup {
	if !v.Grouped {
		if len(v.Records) == 0 {
			return nil
		}
		return []pageGroup{{Records: v.Records}}
	}
	out := make([]pageGroup, 0, len(v.Groups))
	for _, g := range v.Groups {
		out = append(out, pageGroup{Label: g.Label, Records: g.Records})
	}
	return out
}

var galleryTemplate = template.Must(template.New("gallery").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>PDF Gallery</title>
<style>
.pdf-gallery{display:grid;grid-template-columns:repeat(auto-fill,minmax(180px,1fr));gap:1rem}
.pdf-gallery figure{margin:0;text-align:center}
.pdf-gallery img{max-width:100%;border:1px solid #ddd}
</style>
</head>
<body>
{{- range .}}
{{- if .Label}}
<h3 class="pdf-gallery-group">{{.Label}}</h3>
{{- end}}
<div class="pdf-gallery">
{{- range .Records}}
<figure>
<a href="{{.URL}}" target="_blank" rel="noopener"><img src="{{.ThumbnailURL}}" alt="{{.Title}}" loading="lazy"></a>
<figcaption>{{.Title}}</figcaption>
</figure>
{{- end}}
</div>
{{- else}}
<p class="pdf-gallery-empty">No PDFs found.</p>
{{- end}}
</body>
</html>
`))
