package main

import (
	"flag"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/alexballas/xphotogallery/gallery"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

const appID = "io.github.alexballas.xphotogallery"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xphotogallery [folder]",
		Short: "Browse a photo folder with a scrubbable thumbnail grid",
		Long: `xphotogallery opens a photo folder as a virtualized thumbnail grid.

Drag the tick strip below the grid to jump through the library, pinch or
Ctrl+scroll to change the number of columns.`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
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
			runGUI(cfg)
			return nil
		},
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().Int("zoom", 0, "initial number of columns (2, 3, 4, 6 or 8)")
	cmd.Flags().String("sync", gallery.SyncBidirectional.String(), "grid scroll sync policy: bidirectional or slider-only")
	cmd.Flags().Int("workers", gallery.DefaultThumbnailWorkers, "thumbnail decoder goroutines")
	cmd.Flags().String("cache-dir", "", "thumbnail cache folder (default: user cache dir)")

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(newScanCmd())
	return cmd
}

// addConfigFlags registers the flags shared by every command.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.String("library", "", "photo library folder")
	fs.Bool("no-exif", false, "do not read capture dates with exiftool")
}

func runGUI(cfg *appConfig) {
	a := app.NewWithID(appID)
	w := a.NewWindow("Photos")

	src := gallery.NewFolderSource()
	src.NoExif = cfg.NoExif
	access := gallery.NewFolderAccess(w, src)
	if cfg.Library != "" {
		if err := access.SetDir(cfg.Library); err != nil {
			klog.Warningf("library %s: %v", cfg.Library, err)
		}
	}

	g := gallery.New(w, gallery.Config{
		Source:  src,
		Loader:  gallery.NewThumbnailManager(cfg.CacheDir, cfg.Workers),
		Gate:    access,
		Policy:  cfg.Sync,
		Columns: cfg.Columns,
	})
	g.Controller().AddListener(func(ev gallery.Event) {
		klog.V(2).Infof("%s: row %d/%d zoom %d", ev.Kind, ev.State.CommittedIndex, ev.State.TotalRows(), ev.State.Zoom.Columns())
	})

	w.SetContent(g.Content())
	w.Resize(fyne.NewSize(1000, 700))
	w.SetOnClosed(g.Close)
	g.Start()
	w.ShowAndRun()
	klog.Flush()
}
