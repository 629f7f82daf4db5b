// Package zxing adapts the gozxing one-dimensional readers to the decoder
// primitive used by the decode engine.
package zxing

import (
	"context"
	"image"
	"log"
	"math"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/scanlens/backend/internal/domain"
)

type binarizerFunc func(gozxing.LuminanceSource) gozxing.Binarizer

// gozxing readers keep scratch counters between calls, so every Decode
// builds its own set.
type readersFunc func() []gozxing.Reader

// Decoder runs a fixed list of gozxing readers over an image and reports
// every distinct symbol they find. It is safe for concurrent use.
type Decoder struct {
	name       string
	newReaders readersFunc
	hints      map[gozxing.DecodeHintType]interface{}
	binarizer  binarizerFunc
	debug      bool
}

// NewPrimary returns the fast decoder: hybrid binarization and the retail
// symbologies (EAN-13, UPC-A, EAN-8, UPC-E, ITF).
func NewPrimary() *Decoder {
	return &Decoder{
		name: "zxing-hybrid",
		newReaders: func() []gozxing.Reader {
			return []gozxing.Reader{
				oned.NewMultiFormatUPCEANReader(nil),
				oned.NewITFReader(),
			}
		},
		binarizer: gozxing.NewHybridBinarizer,
	}
}

// NewSecondary returns the last-resort decoder: global histogram
// binarization, try-harder hints and a wider symbology set.
func NewSecondary() *Decoder {
	return &Decoder{
		name: "zxing-histogram",
		newReaders: func() []gozxing.Reader {
			return []gozxing.Reader{
				oned.NewMultiFormatUPCEANReader(nil),
				oned.NewITFReader(),
				oned.NewCode128Reader(),
				oned.NewCode39Reader(),
			}
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
		binarizer: gozxing.NewGlobalHistgramBinarizer,
	}
}

// SetDebug enables or disables debug logging
func (d *Decoder) SetDebug(debug bool) {
	d.debug = debug
}

// Name identifies the decoder in logs and candidate sources
func (d *Decoder) Name() string {
	return d.name
}

// Decode returns the symbols found in img. Unsupported or malformed images
// produce an empty result.
func (d *Decoder) Decode(ctx context.Context, img image.Image) (symbols []domain.Symbol) {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ZXing] %s recovered from decoder panic: %v", d.name, r)
			symbols = nil
		}
	}()

	bmp, err := gozxing.NewBinaryBitmap(d.binarizer(gozxing.NewLuminanceSourceFromImage(img)))
	if err != nil {
		d.debugLog("bitmap error: %v", err)
		return nil
	}

	seen := make(map[string]bool)
	for _, reader := range d.newReaders() {
		if ctx.Err() != nil {
			return symbols
		}
		result, err := reader.Decode(bmp, d.hints)
		if err != nil {
			// NotFound is the common case and is not worth logging
			continue
		}
		text := result.GetText()
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		symbols = append(symbols, domain.Symbol{
			Value:   text,
			Format:  result.GetBarcodeFormat().String(),
			Polygon: toPolygon(result.GetResultPoints()),
		})
		d.debugLog("decoded %s (%s)", text, result.GetBarcodeFormat())
	}
	return symbols
}

func (d *Decoder) debugLog(format string, args ...interface{}) {
	if d.debug {
		log.Printf("[ZXing] "+d.name+": "+format, args...)
	}
}

func toPolygon(points []gozxing.ResultPoint) []image.Point {
	poly := make([]image.Point, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		poly = append(poly, image.Pt(int(math.Round(p.GetX())), int(math.Round(p.GetY()))))
	}
	return poly
}
