package main

import (
	"fmt"
	"image"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/scanlens/backend/internal/infrastructure/imageops"
	"github.com/scanlens/backend/internal/usecase"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Decode a label image and resolve its barcode",
	Long: `Scan decodes the image with the primary decoder, escalating to the
preprocessing cascade and then the secondary decoder when nothing is found.
The first candidate that validates is resolved against the providers.

With --annotate the detected barcodes are also outlined and written to the
given PNG file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		img, err := imageops.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if out, _ := cmd.Flags().GetString("annotate"); out != "" {
			detections, err := a.Scanner.Detect(ctx, img)
			if err != nil {
				return err
			}
			if err := writeAnnotated(out, usecase.Annotate(img, detections)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d detection(s) to %s\n", len(detections), out)
		}

		provider, _ := cmd.Flags().GetString("provider")
		report, err := a.Scanner.ScanImage(ctx, img, provider)
		if err != nil {
			return err
		}
		return finish(cmd, report)
	},
}

// writeAnnotated saves img as PNG at path
func writeAnnotated(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imageops.EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func init() {
	scanCmd.Flags().String("provider", "", "query only this provider (openfoodfacts, upcitemdb, barcodelookup)")
	scanCmd.Flags().String("annotate", "", "write the image with detections outlined to this PNG file")

	rootCmd.AddCommand(scanCmd)
}
