package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured product providers and their availability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		infos := a.Scanner.Providers()
		if table, _ := cmd.Flags().GetBool("table"); table {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Name, info.Status)
			}
			return tw.Flush()
		}
		return render(cmd, cmd.OutOrStdout(), infos)
	},
}

func init() {
	providersCmd.Flags().Bool("table", false, "print a plain table instead of json/yaml")

	rootCmd.AddCommand(providersCmd)
}
