// cmd/emcon/list.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured emergency gear",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := selectedSites()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, s := range sites {
			for _, u := range s.Units {
				fmt.Fprintf(out, "%s: %s\n", u.ID(), u.Name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
