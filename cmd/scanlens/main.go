// Package main is the scanlens CLI: barcode validation, provider lookup and
// image scanning from the terminal, sharing configuration with the server.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanlens/backend/config"
	"github.com/scanlens/backend/internal/app"
)

// version is set at build time via ldflags.
var version = "dev"

// errUnresolved makes the process exit non-zero after the report is printed
var errUnresolved = errors.New("barcode not resolved")

// rootCmd is the base command for the scanlens CLI.
var rootCmd = &cobra.Command{
	Use:   "scanlens",
	Short: "Barcode scanning and product lookup",
	Long: `scanlens decodes retail barcodes from label images, validates them and
resolves product data from Open Food Facts, UPCitemdb and Barcode Lookup,
mapping the result onto compliance fields.

Configuration is read the same way as the server: config.yaml, SCANLENS_*
environment variables and the secrets directory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/scanlens/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", formatJSON, "output format: json or yaml")
}

// loadApp reads configuration and wires the scan pipeline
func loadApp(cmd *cobra.Command) (*app.App, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUnresolved) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
