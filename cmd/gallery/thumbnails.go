package main

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdfgallery/pdfgallery/internal/source"
	"github.com/pdfgallery/pdfgallery/internal/thumbnail"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

func newThumbnailsCmd(d deps) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "thumbnails [dir]",
		Short: "Generate missing thumbnails for every PDF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := d.loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			dir := cfg.Gallery.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if out == "" {
				out = cfg.Gallery.ThumbnailDir
			}

			records, err := source.NewDirectory(dir, cfg.Gallery.FilesURL, cfg.Gallery.Location()).List(cmd.Context())
			if err != nil {
				return err
			}
			renderer := d.newRenderer(cfg)
			if renderer == nil {
				return thumbnail.ErrNotConfigured
			}
			th := thumbnail.New(thumbnail.Config{
				Renderer: renderer,
				Store:    thumbnail.LocalStore{BaseURL: cfg.Gallery.ThumbnailsURL, Dir: out},
				Dir:      out,
			})

			var ok, failed atomic.Int64
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(cfg.Gallery.Concurrency)
			for _, r := range records {
				g.Go(func() error {
					if _, err := th.Ensure(ctx, r); err != nil {
						logger.Warnf("%s: %v", r.Name, err)
						failed.Add(1)
						return nil
					}
					ok.Add(1)
					return nil
				})
			}
			_ = g.Wait()

			fmt.Fprintf(cmd.OutOrStdout(), "%d ready, %d failed (%s)\n", ok.Load(), failed.Load(), out)
			if n := failed.Load(); n > 0 {
				return fmt.Errorf("%d of %d thumbnails failed", n, len(records))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "thumbnail directory (default GALLERY_THUMBNAIL_DIR)")
	return cmd
}
