package imageops

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate replaces each pixel with the maximum over its size-wide neighborhood
func Dilate(g *image.Gray, size int) *image.Gray {
	if size/2 < 1 {
		return ToGray(g)
	}
	return ToGray(effect.Dilate(norm(g), float64(size/2)))
}

// Erode replaces each pixel with the minimum over its size-wide neighborhood
func Erode(g *image.Gray, size int) *image.Gray {
	if size/2 < 1 {
		return ToGray(g)
	}
	return ToGray(effect.Erode(norm(g), float64(size/2)))
}

// Close dilates then erodes, filling gaps narrower than size
func Close(g *image.Gray, size int) *image.Gray {
	return Erode(Dilate(g, size), size)
}

// Edges marks edge pixels white using Sobel gradients and hysteresis:
// pixels at or above high are edges, pixels at or above low are edges when
// connected to one. Magnitudes are |gx|+|gy| kept unclamped, so both edge
// polarities count.
func Edges(g *image.Gray, low, high float64) *image.Gray {
	g = norm(g)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := newGray(w, h)
	if w < 3 || h < 3 {
		return out
	}

	mag := make([]float64, w*h)
	px := func(x, y int) float64 { return float64(g.Pix[y*w+x]) }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1) +
				px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			if gx < 0 {
				gx = -gx
			}
			if gy < 0 {
				gy = -gy
			}
			mag[y*w+x] = gx + gy
		}
	}

	stack := make([]int, 0, w)
	for i, m := range mag {
		if m >= high && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= w || yy >= h {
						continue
					}
					q := yy*w + xx
					if out.Pix[q] == 0 && mag[q] >= low {
						out.Pix[q] = 255
						stack = append(stack, q)
					}
				}
			}
		}
	}
	return out
}
