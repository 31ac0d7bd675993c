// cmd/emcon/buscmds.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/emcon/internal/bus"
	"github.com/tamzrod/emcon/internal/dali"
	"github.com/tamzrod/emcon/internal/target"
)

// busCommand is an operator command sent once to every resolved target.
type busCommand struct {
	use   string
	short string
	build func(dali.Address) dali.Command
}

var busCommands = []busCommand{
	{"identify", "Start or restart a ten-second identification procedure", dali.StartIdentification},
	{"inhibit", "Start or restart the 15 minute Inhibit timer", dali.Inhibit},
	{"rest", "Enter Rest mode if currently in emergency mode", dali.Rest},
	{"reset", "Cancel the Inhibit timer, re-light if possible if power not present", dali.ReLightResetInhibit},
	{"start-function-test", "Request a function test", dali.StartFunctionTest},
	{"start-duration-test", "Request a duration test", dali.StartDurationTest},
	{"stop-test", "Cancel pending tests and stop any test currently in progress", dali.StopTest},
	{"reset-function-test-done", `Reset the "function test done and result valid" flag`, dali.ResetFunctionTestDoneFlag},
	{"reset-duration-test-done", `Reset the "duration test done and result valid" flag`, dali.ResetDurationTestDoneFlag},
	{"reset-lamp-time", "Reset the lamp emergency time and lamp total operation time counters", dali.ResetLampTime},
}

func (bc busCommand) command() *cobra.Command {
	return &cobra.Command{
		Use:   bc.use + " site[/bus[/address]]",
		Short: bc.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := target.Parse(args[0])
			if err != nil {
				return err
			}
			resolved, err := target.Resolve(app.sites, t)
			if err != nil {
				return err
			}

			for _, r := range resolved {
				c := bc.build(r.Address)
				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "Sending %s to %s on bus %s\n", c, r.Address, r.Bus)
				}
				err := r.Bus.With(cmd.Context(), func(h *bus.Handle) error {
					_, err := h.Send(cmd.Context(), c)
					return err
				})
				if err != nil {
					return err
				}
				app.log.V(1).Info("command sent", "command", c.Name, "bus", r.Bus.String(), "address", r.Address.String())
			}
			return nil
		},
	}
}

func init() {
	for _, bc := range busCommands {
		rootCmd.AddCommand(bc.command())
	}
}
