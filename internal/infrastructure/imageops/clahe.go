package imageops

import (
	"image"
	"math"
)

// CLAHE applies contrast-limited adaptive histogram equalization over a
// tiles×tiles grid. clipLimit bounds each histogram bin relative to the
// mean bin height; excess is redistributed evenly.
func CLAHE(g *image.Gray, clipLimit float64, tiles int) *image.Gray {
	g = norm(g)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := newGray(w, h)
	if w == 0 || h == 0 {
		return out
	}
	if tiles < 1 {
		tiles = 1
	}
	tilesX, tilesY := min(tiles, w), min(tiles, h)
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY
	tilesX = (w + tileW - 1) / tileW
	tilesY = (h + tileH - 1) / tileH

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, w), min(y0+tileH, h)
			luts[ty*tilesX+tx] = tileLUT(g, x0, y0, x1, y1, clipLimit)
		}
	}

	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		ay := fy - float64(ty0)
		ty1 := clamp(ty0+1, 0, tilesY-1)
		ty0 = clamp(ty0, 0, tilesY-1)
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			ax := fx - float64(tx0)
			tx1 := clamp(tx0+1, 0, tilesX-1)
			tx0 = clamp(tx0, 0, tilesX-1)

			v := g.Pix[y*w+x]
			top := (1-ax)*float64(luts[ty0*tilesX+tx0][v]) + ax*float64(luts[ty0*tilesX+tx1][v])
			bot := (1-ax)*float64(luts[ty1*tilesX+tx0][v]) + ax*float64(luts[ty1*tilesX+tx1][v])
			out.Pix[y*w+x] = uint8(math.Round((1-ay)*top + ay*bot))
		}
	}
	return out
}

func tileLUT(g *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	w := g.Bounds().Dx()
	var hist [256]int
	for y := y0; y < y1; y++ {
		for _, v := range g.Pix[y*w+x0 : y*w+x1] {
			hist[v]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / 256)
		if limit < 1 {
			limit = 1
		}
		excess := 0
		for i := range hist {
			if hist[i] > limit {
				excess += hist[i] - limit
				hist[i] = limit
			}
		}
		share, rest := excess/256, excess%256
		for i := range hist {
			hist[i] += share
			if i < rest {
				hist[i]++
			}
		}
	}

	var lut [256]uint8
	cdf := 0
	for i, n := range hist {
		cdf += n
		lut[i] = uint8(math.Min(255, math.Round(float64(cdf)*255/float64(area))))
	}
	return lut
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
