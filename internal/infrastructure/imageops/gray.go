// Package imageops implements the image transforms used to widen barcode
// decoder recall: grayscale, blur, thresholds, morphology, edges, local
// contrast enhancement and rotation. All functions return new images and
// never modify their input.
package imageops

import (
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
)

// Decode reads an image, applying EXIF orientation so phone photos arrive upright
func Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r, imaging.AutoOrientation(true))
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// ToGray converts any image to 8-bit grayscale anchored at (0,0)
func ToGray(img image.Image) *image.Gray {
	src := img
	if _, ok := img.(*image.Gray); !ok {
		src = imaging.Grayscale(img)
	}
	b := src.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), src, b.Min, draw.Src)
	return g
}

// GaussianBlur smooths g with a Gaussian of the given sigma
func GaussianBlur(g *image.Gray, sigma float64) *image.Gray {
	return ToGray(imaging.Blur(g, sigma))
}

// Rotate rotates g counter-clockwise by angle degrees. The canvas grows to
// fit and uncovered corners are filled white so they read as quiet zone.
func Rotate(g *image.Gray, angle float64) *image.Gray {
	return ToGray(imaging.Rotate(g, angle, color.White))
}

// norm returns g when its pixels are laid out densely from the origin,
// otherwise a dense copy.
func norm(g *image.Gray) *image.Gray {
	b := g.Bounds()
	if b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	return ToGray(g)
}

func newGray(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}
