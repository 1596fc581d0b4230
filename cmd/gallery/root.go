package main

import (
	"github.com/spf13/cobra"

	"github.com/pdfgallery/pdfgallery/internal/config"
	"github.com/pdfgallery/pdfgallery/internal/thumbnail"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

// deps are the collaborators the commands build on; tests replace them.
type deps struct {
	loadConfig  func() (*config.Config, error)
	newRenderer func(cfg *config.Config) thumbnail.Renderer
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.LoadConfig,
		newRenderer: func(cfg *config.Config) thumbnail.Renderer {
			chain := thumbnail.BuildChain(thumbnail.ChainSettings{
				Order:         cfg.Thumbnail.Renderers,
				PdftoppmPath:  cfg.Thumbnail.PdftoppmPath,
				DPI:           cfg.Thumbnail.DPI,
				MaxWidth:      cfg.Thumbnail.MaxWidth,
				Quality:       cfg.Thumbnail.Quality,
				PDFRestAPIKey: cfg.Thumbnail.PDFRestAPIKey,
				PDFRestURL:    cfg.Thumbnail.PDFRestURL,
			})
			if len(chain) == 0 {
				return nil
			}
			return chain
		},
	}
}

func newRootCmd(d deps) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "gallery",
		Short: "Inspect a PDF gallery directory",
		Long: `gallery builds the same filtered, sorted and grouped view the web
gallery serves, straight from a directory of PDFs.

Example usage:
  gallery list ./pdfs --group-by month
  gallery list --tag report --sort-by date --sort-direction desc -o json
  gallery thumbnails ./pdfs --out ./pdfs/thumbnails`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger.Init(level)
			logger.SetOutput(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newListCmd(d), newThumbnailsCmd(d), newVersionCmd())
	return root
}
