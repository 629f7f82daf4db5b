package imageops

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Overlay returns a copy of img with each polygon outlined in c
func Overlay(img image.Image, polygons [][]image.Point, c color.Color, thickness int) *image.NRGBA {
	dst := imaging.Clone(img)
	offset := img.Bounds().Min
	for _, poly := range polygons {
		for i := range poly {
			a := poly[i].Sub(offset)
			b := poly[(i+1)%len(poly)].Sub(offset)
			drawLine(dst, a, b, c, thickness)
		}
	}
	return dst
}

// drawLine rasterizes a thick line with Bresenham's algorithm
func drawLine(dst *image.NRGBA, a, b image.Point, c color.Color, thickness int) {
	r := thickness / 2
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		for oy := -r; oy <= r; oy++ {
			for ox := -r; ox <= r; ox++ {
				p := image.Pt(x+ox, y+oy)
				if p.In(dst.Rect) {
					dst.Set(p.X, p.Y, c)
				}
			}
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
