package imageops

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bars builds a w×h gray image of vertical stripes alternating between lo and hi
func bars(w, h, period int, lo, hi uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lo
			if (x/period)%2 == 1 {
				v = hi
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func isBinary(t *testing.T, g *image.Gray) {
	t.Helper()
	for _, v := range g.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel value %d is not binary", v)
		}
	}
}

func TestToGray(t *testing.T) {
	t.Run("converts RGBA and anchors at origin", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(10, 10, 30, 20))
		for y := 10; y < 20; y++ {
			for x := 10; x < 30; x++ {
				src.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
			}
		}

		g := ToGray(src)

		assert.Equal(t, image.Rect(0, 0, 20, 10), g.Bounds())
		assert.InDelta(t, 200, int(g.GrayAt(5, 5).Y), 2)
	})

	t.Run("copies gray input", func(t *testing.T) {
		src := bars(8, 4, 2, 10, 240)
		g := ToGray(src)
		g.Pix[0] = 99
		assert.Equal(t, uint8(10), src.Pix[0])
	})
}

func TestOtsuLevel(t *testing.T) {
	t.Run("splits a bimodal image between the modes", func(t *testing.T) {
		g := bars(40, 10, 4, 30, 220)
		level := OtsuLevel(g)
		assert.GreaterOrEqual(t, level, uint8(30))
		assert.Less(t, level, uint8(220))
	})

	t.Run("empty image", func(t *testing.T) {
		assert.Equal(t, uint8(0), OtsuLevel(image.NewGray(image.Rect(0, 0, 0, 0))))
	})
}

func TestOtsuThreshold(t *testing.T) {
	g := bars(40, 10, 4, 60, 180)
	out := OtsuThreshold(g)

	isBinary(t, out)
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(5, 0).Y)
}

func TestAdaptiveThreshold(t *testing.T) {
	// low contrast stripes on a bright background
	g := bars(60, 20, 5, 150, 170)
	out := AdaptiveThreshold(g, 11, 2)

	isBinary(t, out)
	assert.Equal(t, g.Bounds(), out.Bounds())
	// stripes survive: the dark band center differs from the bright band center
	assert.NotEqual(t, out.GrayAt(2, 10).Y, out.GrayAt(7, 10).Y)
}

func TestClose(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 9, 3))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	g.SetGray(4, 1, color.Gray{Y: 0}) // one pixel hole

	out := Close(g, 3)

	assert.Equal(t, uint8(255), out.GrayAt(4, 1).Y)
}

func TestDilateErode(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 5, 5))
	g.SetGray(2, 2, color.Gray{Y: 255})

	d := Dilate(g, 3)
	assert.Equal(t, image.Rect(0, 0, 5, 5), d.Bounds())
	assert.Equal(t, uint8(255), d.GrayAt(2, 1).Y)
	assert.Equal(t, uint8(255), d.GrayAt(3, 2).Y)
	assert.Equal(t, uint8(0), d.GrayAt(0, 0).Y)

	e := Erode(d, 3)
	assert.Equal(t, uint8(255), e.GrayAt(2, 2).Y)
	assert.Equal(t, uint8(0), e.GrayAt(2, 1).Y)

	t.Run("size below three copies the input", func(t *testing.T) {
		out := Dilate(g, 1)
		assert.Equal(t, g.Pix, out.Pix)
		out.Pix[0] = 7
		assert.Equal(t, uint8(0), g.Pix[0])
	})
}

func TestThreshold(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(g.Pix, []uint8{0, 100, 200, 255})

	out := Threshold(g, 150)
	assert.Equal(t, []uint8{0, 0, 255, 255}, out.Pix)

	assert.Equal(t, []uint8{0, 0, 0, 0}, Threshold(g, 255).Pix)
	assert.Equal(t, []uint8{0, 255, 255, 255}, Threshold(g, 0).Pix)
}

func TestEdges(t *testing.T) {
	t.Run("finds a step edge", func(t *testing.T) {
		g := bars(20, 10, 10, 0, 255)
		out := Edges(g, 50, 150)

		isBinary(t, out)
		assert.Equal(t, uint8(255), out.GrayAt(10, 5).Y)
		assert.Equal(t, uint8(0), out.GrayAt(3, 5).Y)
	})

	t.Run("finds a bright to dark edge", func(t *testing.T) {
		g := bars(20, 10, 10, 255, 0)
		out := Edges(g, 50, 150)

		assert.Equal(t, uint8(255), out.GrayAt(10, 5).Y)
		assert.Equal(t, uint8(0), out.GrayAt(16, 5).Y)
	})

	t.Run("flat image has no edges", func(t *testing.T) {
		g := bars(20, 10, 100, 128, 128)
		out := Edges(g, 50, 150)
		for _, v := range out.Pix {
			require.Equal(t, uint8(0), v)
		}
	})

	t.Run("tiny image", func(t *testing.T) {
		out := Edges(image.NewGray(image.Rect(0, 0, 2, 2)), 50, 150)
		assert.Equal(t, image.Rect(0, 0, 2, 2), out.Bounds())
	})
}

func TestCLAHE(t *testing.T) {
	t.Run("unclipped equalization stretches low contrast", func(t *testing.T) {
		g := bars(64, 64, 4, 120, 130)
		out := CLAHE(g, 0, 8)

		lo, hi := out.GrayAt(1, 32).Y, out.GrayAt(5, 32).Y
		assert.Greater(t, int(hi)-int(lo), 100)
	})

	t.Run("clipped equalization keeps ordering", func(t *testing.T) {
		g := bars(64, 64, 4, 120, 130)
		out := CLAHE(g, 2.0, 8)

		assert.Equal(t, g.Bounds(), out.Bounds())
		assert.Greater(t, out.GrayAt(5, 32).Y, out.GrayAt(1, 32).Y)
	})

	t.Run("image smaller than the tile grid", func(t *testing.T) {
		g := bars(3, 2, 1, 0, 255)
		out := CLAHE(g, 2.0, 8)
		assert.Equal(t, g.Bounds(), out.Bounds())
	})

	t.Run("empty image", func(t *testing.T) {
		out := CLAHE(image.NewGray(image.Rect(0, 0, 0, 0)), 2.0, 8)
		assert.Equal(t, 0, out.Bounds().Dx())
	})
}

func TestRotate(t *testing.T) {
	g := bars(100, 50, 5, 0, 255)
	out := Rotate(g, 10)

	// canvas grows to fit the rotated content
	assert.Greater(t, out.Bounds().Dx(), 100)
	assert.Greater(t, out.Bounds().Dy(), 50)
	// corners are filled white
	assert.Equal(t, uint8(255), out.GrayAt(0, 0).Y)
}

func TestOverlay(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	green := color.NRGBA{G: 255, A: 255}

	out := Overlay(src, [][]image.Point{{{2, 2}, {10, 2}, {10, 10}, {2, 10}}}, green, 1)

	assert.Equal(t, green, out.NRGBAAt(5, 2))
	assert.Equal(t, green, out.NRGBAAt(10, 6))
	assert.NotEqual(t, green, out.NRGBAAt(5, 5))
	// source untouched
	assert.Equal(t, uint8(0), src.GrayAt(5, 2).Y)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	g := bars(16, 8, 2, 0, 255)
	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, g))

	img, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
