package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexballas/xphotogallery/gallery"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// appConfig is the resolved configuration: flags over environment over the
// .xphotogallery.yaml file over defaults.
type appConfig struct {
	Library  string
	Columns  int
	Sync     gallery.SyncPolicy
	Workers  int
	CacheDir string
	NoExif   bool
}

func loadConfig(cmd *cobra.Command) (*appConfig, error) {
	v := viper.New()
	v.SetDefault("library", "")
	v.SetDefault("zoom", 0)
	v.SetDefault("sync", gallery.SyncBidirectional.String())
	v.SetDefault("workers", gallery.DefaultThumbnailWorkers)
	v.SetDefault("cache-dir", "")
	v.SetDefault("no-exif", false)

	v.SetConfigName(".xphotogallery") // .yaml is implicit
	v.SetEnvPrefix("XPHOTOGALLERY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("XPHOTOGALLERY_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		klog.V(1).Infof("using config %s", v.ConfigFileUsed())
	}

	for _, key := range []string{"library", "zoom", "sync", "workers", "cache-dir", "no-exif"} {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", key, err)
			}
		}
	}

	cfg := &appConfig{
		Columns: v.GetInt("zoom"),
		Sync:    gallery.ParseSyncPolicy(v.GetString("sync")),
		Workers: v.GetInt("workers"),
		NoExif:  v.GetBool("no-exif"),
	}

	if cfg.Columns != 0 {
		if _, ok := gallery.ZoomLevelForColumns(cfg.Columns); !ok {
			return nil, fmt.Errorf("zoom must be one of 2, 3, 4, 6 or 8 columns, got %d", cfg.Columns)
		}
	}
	if cfg.Workers < 1 {
		cfg.Workers = gallery.DefaultThumbnailWorkers
	}

	var err error
	if cfg.Library, err = expandPath(v.GetString("library")); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = expandPath(v.GetString("cache-dir")); err != nil {
		return nil, err
	}
	if cfg.CacheDir == "" {
		if userCache, err := os.UserCacheDir(); err == nil {
			cfg.CacheDir = filepath.Join(userCache, "xphotogallery")
		}
	}
	return cfg, nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Abs(expanded)
}
