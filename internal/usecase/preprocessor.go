package usecase

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/scanlens/backend/internal/infrastructure/imageops"
)

// Variant is one preprocessed rendition of the input image
type Variant struct {
	Index int // position in the stage list, stable when other stages fail
	Name  string
	Image image.Image
	// ToSource maps a point in Image back to the input image; nil is identity
	ToSource func(image.Point) image.Point
}

// VariantGenerator produces preprocessed image variants in a fixed order
type VariantGenerator interface {
	Variants(ctx context.Context, img image.Image) []Variant
}

// Stage is a single preprocessing transform over the grayscale input
type Stage struct {
	Name  string
	Apply func(gray *image.Gray) (image.Image, error)
	// Angle is the counter-clockwise rotation applied by the stage, in degrees
	Angle float64
}

// DefaultStages returns the preprocessing cascade, each stage aimed at a
// class of degradation: noise, low contrast, damage, skew.
func DefaultStages() []Stage {
	stages := []Stage{
		{Name: "gaussian_blur", Apply: func(g *image.Gray) (image.Image, error) {
			return imageops.GaussianBlur(g, 1.1), nil
		}},
		{Name: "adaptive_threshold", Apply: func(g *image.Gray) (image.Image, error) {
			return imageops.AdaptiveThreshold(g, 11, 2), nil
		}},
		{Name: "otsu_threshold", Apply: func(g *image.Gray) (image.Image, error) {
			return imageops.OtsuThreshold(g), nil
		}},
		{Name: "morph_close", Apply: func(g *image.Gray) (image.Image, error) {
			return imageops.Close(imageops.AdaptiveThreshold(g, 11, 2), 3), nil
		}},
		{Name: "edge_dilate", Apply: func(g *image.Gray) (image.Image, error) {
			return imageops.Dilate(imageops.Edges(g, 50, 150), 3), nil
		}},
		{Name: "clahe", Apply: func(g *image.Gray) (image.Image, error) {
			return imageops.CLAHE(g, 2.0, 8), nil
		}},
	}
	for _, angle := range []float64{-5, 5, -10, 10} {
		angle := angle
		stages = append(stages, Stage{
			Name:  fmt.Sprintf("rotate_%g", angle),
			Angle: angle,
			Apply: func(g *image.Gray) (image.Image, error) {
				return imageops.Rotate(g, angle), nil
			},
		})
	}
	return stages
}

// PreprocessorConfig holds configuration for the preprocessor
type PreprocessorConfig struct {
	Parallel bool
	// MaxWorkers bounds concurrent stages; defaults to GOMAXPROCS
	MaxWorkers int
}

// Preprocessor runs the stage cascade over an image
type Preprocessor struct {
	stages     []Stage
	parallel   bool
	maxWorkers int
}

// NewPreprocessor creates a preprocessor over the given stages. A nil
// stage list uses DefaultStages.
func NewPreprocessor(stages []Stage, config PreprocessorConfig) *Preprocessor {
	if stages == nil {
		stages = DefaultStages()
	}
	workers := config.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Preprocessor{
		stages:     stages,
		parallel:   config.Parallel,
		maxWorkers: workers,
	}
}

// Variants applies every stage to img and returns the results in stage
// order. A stage that fails or panics is logged and left out.
func (p *Preprocessor) Variants(ctx context.Context, img image.Image) []Variant {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	gray := imageops.ToGray(img)
	results := make([]image.Image, len(p.stages))

	if p.parallel {
		var g errgroup.Group
		g.SetLimit(p.maxWorkers)
		for i := range p.stages {
			i := i
			g.Go(func() error {
				results[i] = p.runStage(ctx, i, gray)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range p.stages {
			results[i] = p.runStage(ctx, i, gray)
		}
	}

	variants := make([]Variant, 0, len(p.stages))
	for i, out := range results {
		if out == nil {
			continue
		}
		v := Variant{Index: i, Name: p.stages[i].Name, Image: out}
		if angle := p.stages[i].Angle; angle != 0 {
			v.ToSource = unrotate(angle, gray.Bounds().Size(), out.Bounds().Size())
		}
		variants = append(variants, v)
	}
	return variants
}

// unrotate maps points of a canvas rotated counter-clockwise by angle
// degrees (and grown to fit) back onto the source canvas
func unrotate(angle float64, src, dst image.Point) func(image.Point) image.Point {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	scx, scy := float64(src.X)/2, float64(src.Y)/2
	dcx, dcy := float64(dst.X)/2, float64(dst.Y)/2
	return func(p image.Point) image.Point {
		dx, dy := float64(p.X)-dcx, float64(p.Y)-dcy
		x := dx*cos - dy*sin
		y := dx*sin + dy*cos
		return image.Pt(int(math.Round(x+scx)), int(math.Round(y+scy)))
	}
}

// runStage applies one stage; the shared gray input is only ever read
func (p *Preprocessor) runStage(ctx context.Context, i int, gray *image.Gray) (out image.Image) {
	stage := p.stages[i]
	if ctx.Err() != nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Preprocessor] stage %s panicked: %v", stage.Name, r)
			out = nil
		}
	}()

	out, err := stage.Apply(gray)
	if err != nil {
		log.Printf("[Preprocessor] stage %s failed: %v", stage.Name, err)
		return nil
	}
	return out
}
