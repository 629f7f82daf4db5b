package main

import (
	"github.com/spf13/cobra"

	"github.com/scanlens/backend/internal/usecase"
)

var validateCmd = &cobra.Command{
	Use:   "validate <barcode>",
	Short: "Check a barcode's length and check digit",
	Long: `Validate normalizes a typed barcode and checks it against the EAN-8, UPC-A,
EAN-13 and ITF-14 layouts, verifying the check digit where one applies.
No provider is contacted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result := usecase.ValidateBarcode(args[0])
		if err := render(cmd, cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if !result.OK {
			return errUnresolved
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
