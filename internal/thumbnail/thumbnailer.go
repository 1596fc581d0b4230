// Package thumbnail resolves a JPEG preview URL for every gallery record,
// generating the image on first access.
package thumbnail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
	"github.com/pdfgallery/pdfgallery/pkg/metrics"
)

// renderTimeout bounds a shared render once it no longer follows the
// context of the request that started it.
const renderTimeout = 2 * time.Minute

// Thumbnailer owns the cache lookup, the miss path (reuse or render) and
// the fallback to a placeholder image.
type Thumbnailer struct {
	cache       Cache
	renderer    Renderer
	store       Store
	dir         string
	fallbackURL string

	flight singleflight.Group
}

// Config wires a Thumbnailer. Cache defaults to an in-memory cache and
// Store to a LocalStore without base URL. A LocalStore without Dir serves
// from Dir.
type Config struct {
	Cache       Cache
	Renderer    Renderer
	Store       Store
	Dir         string
	FallbackURL string
}

func New(cfg Config) *Thumbnailer {
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache()
	}
	switch st := cfg.Store.(type) {
	case nil:
		cfg.Store = LocalStore{Dir: cfg.Dir}
	case LocalStore:
		if st.Dir == "" {
			st.Dir = cfg.Dir
			cfg.Store = st
		}
	}
	return &Thumbnailer{
		cache:       cfg.Cache,
		renderer:    cfg.Renderer,
		store:       cfg.Store,
		dir:         cfg.Dir,
		fallbackURL: cfg.FallbackURL,
	}
}

// Resolve returns the thumbnail URL for r, or the fallback URL when the
// thumbnail cannot be produced. It never fails.
func (t *Thumbnailer) Resolve(ctx context.Context, r document.Record) string {
	u, err := t.Ensure(ctx, r)
	if err != nil {
		logger.Warnf("thumbnail for %s unavailable: %v", r.Name, err)
		metrics.ThumbnailFallbacks.Inc()
		return t.fallbackURL
	}
	return u
}

// Ensure is Resolve with the failure surfaced, used by the CLI warm-up.
func (t *Thumbnailer) Ensure(ctx context.Context, r document.Record) (string, error) {
	if r.SourcePath == "" {
		return "", errors.New("record has no source path")
	}
	key := Key(r.SourcePath, r.ModTime)

	ref, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		logger.Warnf("thumbnail cache get %s: %v", key, err)
	}
	if ok {
		u, err := t.store.URL(ctx, ref)
		if err == nil {
			metrics.ThumbnailCache.WithLabelValues("hit").Inc()
			return u, nil
		}
		logger.Debugf("cached thumbnail %s unusable: %v", ref, err)
	}
	metrics.ThumbnailCache.WithLabelValues("miss").Inc()

	// the render is shared by every caller waiting on key, so it must
	// outlive the request that happened to start it
	ch := t.flight.DoChan(key, func() (interface{}, error) {
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), renderTimeout)
		defer cancel()
		return t.generate(gctx, r, key)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Forget drops the cached thumbnail of r and removes the local JPEG.
func (t *Thumbnailer) Forget(ctx context.Context, r document.Record) error {
	if err := t.cache.Delete(ctx, Key(r.SourcePath, r.ModTime)); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(t.dir, FileName(r)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (t *Thumbnailer) generate(ctx context.Context, r document.Record, key string) (string, error) {
	name := FileName(r)
	dst := filepath.Join(t.dir, name)

	if !upToDate(dst, r) {
		if t.renderer == nil {
			return "", ErrNotConfigured
		}
		renderErr := t.renderer.Render(ctx, r.SourcePath, dst)
		outcome := "ok"
		if renderErr != nil {
			outcome = "error"
		}
		metrics.ThumbnailRenders.WithLabelValues(t.renderer.Name(), outcome).Inc()
		// the file on disk is the only success signal
		if _, err := os.Stat(dst); err != nil {
			if renderErr != nil {
				return "", fmt.Errorf("render %s: %w", r.Name, renderErr)
			}
			return "", fmt.Errorf("render %s: no output written", r.Name)
		}
		if renderErr != nil {
			logger.Warnf("renderer reported %v but %s exists", renderErr, dst)
		}
	}

	ref, err := t.store.Publish(ctx, name, dst)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", name, err)
	}
	if err := t.cache.Set(ctx, key, ref); err != nil {
		logger.Warnf("thumbnail cache set %s: %v", key, err)
	}
	return t.store.URL(ctx, ref)
}

// upToDate reports whether a thumbnail at path is at least as new as the
// source document.
func upToDate(path string, r document.Record) bool {
	st, err := os.Stat(path)
	if err != nil || st.Size() == 0 {
		return false
	}
	return !st.ModTime().Before(r.ModTime)
}

// FileName is the thumbnail file name for r. Directory records keep their
// base name; media records are disambiguated by a hash of their path since
// the library spans many folders.
func FileName(r document.Record) string {
	base := strings.TrimSuffix(r.Name, filepath.Ext(r.Name))
	if r.Origin != document.OriginMedia {
		return base + ".jpg"
	}
	sum := sha256.Sum256([]byte(r.SourcePath))
	return "media-" + hex.EncodeToString(sum[:4]) + "-" + base + ".jpg"
}
