// cmd/emcon/watch.go
package main

import (
	"errors"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/emcon/internal/report"
	"github.com/tamzrod/emcon/internal/site"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check all configured emergency gear repeatedly until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchInterval <= 0 {
			return errors.New("--interval must be > 0")
		}

		sites, err := selectedSites()
		if err != nil {
			return err
		}

		k := newSinks(sites, metricsPath)
		defer k.close()

		out := cmd.OutOrStdout()

		// one scanner per site; one report at a time
		g, ctx := errgroup.WithContext(cmd.Context())
		var mu sync.Mutex
		for _, s := range sites {
			results := make(chan site.Result)

			g.Go(func() error {
				defer close(results)
				s.Run(ctx, watchInterval, nil, results)
				return nil
			})
			g.Go(func() error {
				for res := range results {
					mu.Lock()
					err := report.Text(out, s, res, verbose)
					k.deliver(s, res)
					mu.Unlock()
					if err != nil {
						return err
					}
				}
				return nil
			})
		}

		app.log.Info("watching", "sites", len(sites), "interval", watchInterval)
		return g.Wait()
	},
}

func init() {
	f := watchCmd.Flags()
	f.DurationVar(&watchInterval, "interval", time.Hour, "time between scans")
	f.StringVar(&metricsPath, "metrics-file", "", "write Prometheus metrics to this textfile after each scan")
	f.BoolVar(&concurrentBuses, "concurrent-buses", false, "poll the buses of a site in parallel")
	rootCmd.AddCommand(watchCmd)
}
