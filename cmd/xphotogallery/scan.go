package main

import (
	"fmt"
	"path/filepath"

	"github.com/alexballas/xphotogallery/gallery"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "Print how a folder maps onto grid rows",
		Long: `Scan lists the photos of a folder in gallery order and prints, for every
row of the grid at the chosen zoom, the photos it holds and their date label.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if cfg.Library, err = expandPath(args[0]); err != nil {
					return err
				}
			}
			if cfg.Library == "" {
				return gallery.ErrNoLibrary
			}

			zoom := gallery.ZoomLevelDefault
			if lvl, ok := gallery.ZoomLevelForColumns(cfg.Columns); ok {
				zoom = lvl
			}

			src := gallery.NewFolderSource(cfg.Library)
			src.NoExif = cfg.NoExif
			items, err := src.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			printRows(items, zoom)
			return nil
		},
	}
	addConfigFlags(cmd.Flags())
	cmd.Flags().Int("zoom", 0, "number of columns (2, 3, 4, 6 or 8)")
	return cmd
}

func printRows(items []gallery.PhotoItem, zoom gallery.ZoomLevel) {
	bold := color.New(color.Bold).SprintFunc()
	rows := gallery.TotalRows(len(items), zoom)
	fmt.Fprintf(color.Output, "%s  %d photos, %d columns, %d rows\n",
		bold("xphotogallery"), len(items), zoom.Columns(), rows)

	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.Separator = "  "
	tbl.AddRow(bold("ROW"), bold("ITEMS"), bold("DATE"), bold("FIRST"))
	for row := 0; row < rows; row++ {
		start, end := gallery.ItemRangeForRow(row, len(items), zoom)
		if start >= end {
			tbl.AddRow(row, "-", "", "")
			continue
		}
		first := items[start]
		tbl.AddRow(row, fmt.Sprintf("[%d,%d)", start, end), first.FormattedDate(), filepath.Base(first.Path))
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}
