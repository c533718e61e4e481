package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the clicks described by the board file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDRIVER\tBUS\tADDRESS")
			for _, k := range a.cfg.Clicks {
				addr := "-"
				if k.Address != 0 {
					addr = fmt.Sprintf("0x%02X", k.Address)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Name, k.Driver, k.Bus, addr)
			}
			return tw.Flush()
		},
	}
}
