package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scanlens/backend/internal/domain"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <barcode>",
	Short: "Resolve a typed barcode against the product providers",
	Long: `Lookup validates the barcode and queries the configured providers in
priority order, free providers first, until one returns a product with a
name. Use --provider to query a single provider with no fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		provider, _ := cmd.Flags().GetString("provider")
		report, err := a.Scanner.LookupBarcode(ctx, args[0], provider)
		if err != nil {
			return err
		}
		return finish(cmd, report)
	},
}

// finish prints report and fails the command unless it resolved
func finish(cmd *cobra.Command, report *domain.ScanReport) error {
	if err := render(cmd, cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Status != domain.ScanResolved {
		return errUnresolved
	}
	return nil
}

func init() {
	lookupCmd.Flags().String("provider", "", "query only this provider (openfoodfacts, upcitemdb, barcodelookup)")

	rootCmd.AddCommand(lookupCmd)
}
