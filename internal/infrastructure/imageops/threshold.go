package imageops

import (
	"image"

	"github.com/anthonynsimon/bild/segment"
)

// AdaptiveThreshold binarizes g against a Gaussian-weighted local mean.
// A pixel becomes white when it is brighter than mean-c over a block of
// blockSize pixels.
func AdaptiveThreshold(g *image.Gray, blockSize int, c float64) *image.Gray {
	g = norm(g)
	if blockSize < 3 {
		blockSize = 3
	}
	// sigma OpenCV derives for a kernel of this size
	sigma := 0.3*(float64(blockSize-1)*0.5-1) + 0.8
	mean := GaussianBlur(g, sigma)

	b := g.Bounds()
	out := newGray(b.Dx(), b.Dy())
	for i, v := range g.Pix {
		if float64(v) > float64(mean.Pix[i])-c {
			out.Pix[i] = 255
		}
	}
	return out
}

// OtsuLevel returns the threshold that maximizes between-class variance of
// the intensity histogram.
func OtsuLevel(g *image.Gray) uint8 {
	g = norm(g)
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 0
	}

	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i * n)
	}

	var (
		sumBg    float64
		weightBg int
		best     float64
		level    int
	)
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t * hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// OtsuThreshold binarizes g at its Otsu level
func OtsuThreshold(g *image.Gray) *image.Gray {
	g = norm(g)
	return Threshold(g, OtsuLevel(g))
}

// Threshold sets pixels above level to white and the rest to black
func Threshold(g *image.Gray, level uint8) *image.Gray {
	g = norm(g)
	if level == 255 {
		b := g.Bounds()
		return newGray(b.Dx(), b.Dy())
	}
	// segment.Threshold keeps pixels at or above its level
	return segment.Threshold(g, level+1)
}
