package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pdfgallery/pdfgallery/internal/document"
	"github.com/pdfgallery/pdfgallery/internal/document/service"
	"github.com/pdfgallery/pdfgallery/internal/gallery"
	"github.com/pdfgallery/pdfgallery/internal/source"
)

const titleWidth = 40

type listFlags struct {
	tag       string
	sortBy    string
	direction string
	groupBy   string
	output    string
}

func newListCmd(d deps) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list [dir]",
		Aliases: []string{"ls"},
		Short:   "List the PDFs of a gallery directory",
		Long: `List the PDFs of a gallery directory the way the web gallery shows them.

Examples:
  gallery list                         # GALLERY_DIR, name ascending
  gallery list ./pdfs --group-by year  # grouped, newest year first
  gallery list --tag minutes -o yaml   # filtered, as YAML`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, d, f, args)
		},
	}
	cmd.Flags().StringVar(&f.tag, "tag", "", "case-insensitive name filter")
	cmd.Flags().StringVar(&f.sortBy, "sort-by", "filename", "filename or date")
	cmd.Flags().StringVar(&f.direction, "sort-direction", "asc", "asc or desc")
	cmd.Flags().StringVar(&f.groupBy, "group-by", "none", "none, week, month or year")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "table, json or yaml")
	return cmd
}

func runList(cmd *cobra.Command, d deps, f listFlags, args []string) error {
	switch f.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", f.output)
	}

	cfg, err := d.loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	dir := cfg.Gallery.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	loc := cfg.Gallery.Location()

	svc := service.New(service.Config{
		Directory: source.NewDirectory(dir, cfg.Gallery.FilesURL, loc),
		Location:  loc,
	})
	opts := gallery.ParseOptions(f.tag, f.sortBy, f.direction, f.groupBy)
	view, err := svc.View(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch f.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listing(view, loc))
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(listing(view, loc))
	}
	return renderTable(out, view, loc)
}

// row is the CLI shape of a record.
type row struct {
	Name      string `json:"name" yaml:"name"`
	Title     string `json:"title" yaml:"title"`
	Date      string `json:"date" yaml:"date"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Pages     int    `json:"pages,omitempty" yaml:"pages,omitempty"`
	URL       string `json:"url" yaml:"url"`
}

type rowGroup struct {
	Label   string `json:"label" yaml:"label"`
	Records []row  `json:"records" yaml:"records"`
}

func toRows(records []document.Record, loc *time.Location) []row {
	rows := make([]row, 0, len(records))
	for _, r := range records {
		rows = append(rows, row{
			Name:      r.Name,
			Title:     r.Title,
			Date:      time.Unix(r.Timestamp, 0).In(loc).Format(time.DateOnly),
			Timestamp: r.Timestamp,
			Pages:     r.PageCount,
			URL:       r.URL,
		})
	}
	return rows
}

// listing mirrors the JSON API: a flat list, or a list of groups.
func listing(v gallery.View, loc *time.Location) any {
	if !v.Grouped {
		return toRows(v.Records, loc)
	}
	groups := make([]rowGroup, 0, len(v.Groups))
	for _, g := range v.Groups {
		groups = append(groups, rowGroup{Label: g.Label, Records: toRows(g.Records, loc)})
	}
	return groups
}

func renderTable(w io.Writer, v gallery.View, loc *time.Location) error {
	if v.Len() == 0 {
		_, err := fmt.Fprintln(w, "No PDFs found.")
		return err
	}
	if !v.Grouped {
		return writeTable(w, toRows(v.Records, loc))
	}
	for i, g := range v.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", g.Label, len(g.Records))
		if err := writeTable(w, toRows(g.Records, loc)); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, rows []row) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header([]string{"date", "name", "title", "pages"})

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		pages := ""
		if r.Pages > 0 {
			pages = strconv.Itoa(r.Pages)
		}
		data = append(data, []string{r.Date, r.Name, runewidth.Truncate(r.Title, titleWidth, "…"), pages})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
