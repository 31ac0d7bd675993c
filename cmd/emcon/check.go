// cmd/emcon/check.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/tamzrod/emcon/internal/report"
	"github.com/tamzrod/emcon/internal/site"
)

var metricsPath string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check all configured emergency gear and output a status summary",
	Long: "Poll every unit of each selected site once, print the verdicts and " +
		"exit with status 1 if any site fails.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := selectedSites()
		if err != nil {
			return err
		}

		k := newSinks(sites, metricsPath)
		defer k.close()

		out := cmd.OutOrStdout()
		failed := false

		for _, s := range sites {
			if err := report.Header(out, s, verbose); err != nil {
				return err
			}

			var (
				obs  site.Observer
				prog *report.Progress
			)
			if verbose {
				prog = &report.Progress{W: out, Detailed: true}
				obs = prog
			}
			res := s.Scan(cmd.Context(), obs)
			if prog != nil {
				if err := prog.Err(); err != nil {
					return err
				}
			}

			if err := report.Footer(out, res); err != nil {
				return err
			}
			k.deliver(s, res)

			if !res.Pass {
				failed = true
			}
		}

		if failed {
			return &exitError{code: 1}
		}
		return nil
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&metricsPath, "metrics-file", "", "write Prometheus metrics to this textfile after each site")
	f.BoolVar(&concurrentBuses, "concurrent-buses", false, "poll the buses of a site in parallel")
	rootCmd.AddCommand(checkCmd)
}
