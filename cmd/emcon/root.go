// cmd/emcon/root.go
package main

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/tamzrod/emcon/internal/bus"
	"github.com/tamzrod/emcon/internal/config"
	"github.com/tamzrod/emcon/internal/site"
)

var (
	configPath      string
	siteNames       []string
	verbose         bool
	logLevel        string
	concurrentBuses bool
)

// appState is what every command shares once the root pre-run is done.
type appState struct {
	log   logr.Logger
	sync  func()
	cfg   *config.Config
	sites *site.Registry
}

var app appState

var rootCmd = &cobra.Command{
	Use:           "emcon",
	Short:         "Emergency lighting monitor for DALI self-testing units",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, sync, err := newLogger(logLevel)
		if err != nil {
			return err
		}
		app.log, app.sync = log, sync

		// --------------------
		// Load + validate config
		// --------------------

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("could not open config file %q: %w", configPath, err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		config.Normalize(cfg)
		app.cfg = cfg

		// --------------------
		// Build sites
		// --------------------

		sites, err := site.NewRegistry(cfg, bus.Open, site.Options{
			ConcurrentBuses: concurrentBuses,
			Logger:          log.WithName("scan"),
		})
		if err != nil {
			return err
		}
		app.sites = sites
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	pf.StringArrayVarP(&siteNames, "site", "s", nil, "only work on this site (repeatable)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "display progress while working")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func (a *appState) close() {
	if a.sync != nil {
		a.sync()
	}
}

// selectedSites applies --site. Unknown names are reported and skipped;
// it fails only when nothing is left to work on.
func selectedSites() ([]*site.Site, error) {
	sites, err := app.sites.Filter(siteNames)
	if len(sites) == 0 {
		if err == nil {
			err = fmt.Errorf("no sites configured")
		}
		return nil, err
	}
	if err != nil {
		app.log.Error(err, "site selection")
	}
	return sites, nil
}
