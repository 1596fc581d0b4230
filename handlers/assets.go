package handlers

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/image/draw"
)

// PlaceholderPath is where the fallback thumbnail is served by default.
const PlaceholderPath = "/assets/pdf-icon.jpg"

var (
	placeholderOnce sync.Once
	placeholderJPEG []byte
)

// RegisterAssets serves the generated placeholder thumbnail at path, or at
// PlaceholderPath when path is empty. Absolute URLs point at an image hosted
// elsewhere and register nothing.
func RegisterAssets(r gin.IRouter, path string) {
	if path == "" {
		path = PlaceholderPath
	}
	if !strings.HasPrefix(path, "/") {
		return
	}
	r.GET(path, func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, "image/jpeg", Placeholder())
	})
}

// Placeholder returns a JPEG of a blank page with a red "PDF" band, drawn
// once per process.
func Placeholder() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 120, 160))
		draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{0xee, 0xee, 0xee, 0xff}}, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(12, 8, 108, 152), &image.Uniform{color.White}, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(12, 100, 108, 128), &image.Uniform{color.RGBA{0xc6, 0x28, 0x28, 0xff}}, image.Point{}, draw.Src)
		for y := 24; y < 92; y += 10 {
			draw.Draw(img, image.Rect(24, y, 96, y+3), &image.Uniform{color.RGBA{0xbb, 0xbb, 0xbb, 0xff}}, image.Point{}, draw.Src)
		}
		var buf bytes.Buffer
		_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
		placeholderJPEG = buf.Bytes()
	})
	return placeholderJPEG
}
