package usecase

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/scanlens/backend/internal/domain"
	"github.com/scanlens/backend/internal/infrastructure/imageops"
)

// DecodeTier records the cheapest decode pass that produced candidates
type DecodeTier string

const (
	TierNone         DecodeTier = "none"
	TierRaw          DecodeTier = "raw"
	TierPreprocessed DecodeTier = "preprocessed"
	TierSecondary    DecodeTier = "secondary"
)

// DecodeOutcome is the result of running the tiered decode over one image
type DecodeOutcome struct {
	Candidates     []domain.BarcodeCandidate
	Detections     []domain.Detection
	Tier           DecodeTier
	PreprocessRuns int
	VariantsTried  int
}

// Empty reports whether no barcode was recovered
func (o *DecodeOutcome) Empty() bool {
	return o == nil || len(o.Candidates) == 0
}

// DecodeEngine widens decoder recall by escalating from the raw image to
// preprocessed variants and finally to a secondary decoder.
type DecodeEngine struct {
	primary      domain.Decoder
	secondary    domain.Decoder
	preprocessor VariantGenerator
}

// NewDecodeEngine wires the decode tiers. A nil preprocessor skips the
// variant tier and a nil secondary skips the last resort.
func NewDecodeEngine(primary, secondary domain.Decoder, preprocessor VariantGenerator) *DecodeEngine {
	return &DecodeEngine{
		primary:      primary,
		secondary:    secondary,
		preprocessor: preprocessor,
	}
}

// Decode returns the barcode candidates found in img, deduplicated by value
// in first-seen order.
//
// The raw image is decoded first and any hit returns immediately.
// Otherwise every preprocessed variant is decoded, since different
// variants may recover different codes on a multi-code image. If that
// still finds nothing the secondary decoder gets one pass over the raw
// image.
func (e *DecodeEngine) Decode(ctx context.Context, img image.Image) (*DecodeOutcome, error) {
	outcome := &DecodeOutcome{Tier: TierNone}
	if img == nil || img.Bounds().Empty() {
		return outcome, nil
	}
	acc := newCandidateSet()
	origin := img.Bounds().Min

	// Tier 1: raw image
	acc.add(e.primary.Decode(ctx, img), domain.SourceDecoder, "", nil)
	if err := abortErr(ctx); err != nil {
		return nil, err
	}
	if acc.len() > 0 {
		outcome.Tier = TierRaw
		return acc.fill(outcome), nil
	}

	// Tier 2: preprocessed variants, all of them
	if e.preprocessor != nil {
		variants := e.preprocessor.Variants(ctx, img)
		outcome.PreprocessRuns++
		for _, v := range variants {
			if err := abortErr(ctx); err != nil {
				return nil, err
			}
			outcome.VariantsTried++
			before := acc.len()
			acc.add(e.primary.Decode(ctx, v.Image), domain.SourcePreprocessedVariant(v.Index), v.Name, variantToSource(v, origin))
			if acc.len() > before {
				log.Printf("[DecodeEngine] variant %d (%s) recovered %d new barcode(s)", v.Index, v.Name, acc.len()-before)
			}
		}
		if acc.len() > 0 {
			outcome.Tier = TierPreprocessed
			return acc.fill(outcome), nil
		}
	}

	// Tier 3: secondary decoder on the raw image
	if e.secondary != nil {
		acc.add(e.secondary.Decode(ctx, img), domain.SourceSecondaryDecoder, "", nil)
		if err := abortErr(ctx); err != nil {
			return nil, err
		}
		if acc.len() > 0 {
			outcome.Tier = TierSecondary
		}
	}

	return acc.fill(outcome), nil
}

// DecodeWithRegions runs Decode and returns each candidate with the region
// it was found in, for overlay rendering
func (e *DecodeEngine) DecodeWithRegions(ctx context.Context, img image.Image) ([]domain.Detection, error) {
	outcome, err := e.Decode(ctx, img)
	if err != nil {
		return nil, err
	}
	return outcome.Detections, nil
}

// overlayColor is the outline drawn around detected barcodes
var overlayColor = color.NRGBA{G: 255, A: 255}

// Annotate returns a copy of img with every detection outlined
func Annotate(img image.Image, detections []domain.Detection) image.Image {
	polygons := make([][]image.Point, 0, len(detections))
	for _, d := range detections {
		if len(d.Polygon) > 0 {
			polygons = append(polygons, d.Polygon)
		}
	}
	return imageops.Overlay(img, polygons, overlayColor, 3)
}

// variantToSource maps variant coordinates onto the input image
func variantToSource(v Variant, origin image.Point) func(image.Point) image.Point {
	return func(p image.Point) image.Point {
		if v.ToSource != nil {
			p = v.ToSource(p)
		}
		return p.Add(origin)
	}
}

func abortErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAborted, err)
	}
	return nil
}

// candidateSet accumulates decoded symbols, keeping the first sighting of
// each value
type candidateSet struct {
	seen       map[string]bool
	candidates []domain.BarcodeCandidate
	detections []domain.Detection
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]bool)}
}

func (s *candidateSet) len() int {
	return len(s.candidates)
}

func (s *candidateSet) add(symbols []domain.Symbol, source domain.CandidateSource, variant string, mapPoint func(image.Point) image.Point) {
	for _, sym := range symbols {
		if sym.Value == "" || s.seen[sym.Value] {
			continue
		}
		s.seen[sym.Value] = true
		c := domain.BarcodeCandidate{
			Value:          sym.Value,
			Source:         source,
			DetectedFormat: sym.Format,
			Variant:        variant,
		}
		s.candidates = append(s.candidates, c)

		poly := make([]image.Point, len(sym.Polygon))
		for i, p := range sym.Polygon {
			if mapPoint != nil {
				p = mapPoint(p)
			}
			poly[i] = p
		}
		poly = collapsePolygon(poly)
		s.detections = append(s.detections, domain.Detection{
			Candidate: c,
			Polygon:   poly,
			Region:    boundingRect(poly),
		})
	}
}

func (s *candidateSet) fill(o *DecodeOutcome) *DecodeOutcome {
	o.Candidates = s.candidates
	o.Detections = s.detections
	return o
}

// collapsePolygon replaces polygons of more than four points with their
// axis-aligned bounding rectangle
func collapsePolygon(poly []image.Point) []image.Point {
	if len(poly) <= 4 {
		return poly
	}
	r := boundingRect(poly)
	return []image.Point{
		{r.Min.X, r.Min.Y},
		{r.Max.X, r.Min.Y},
		{r.Max.X, r.Max.Y},
		{r.Min.X, r.Max.Y},
	}
}

func boundingRect(poly []image.Point) image.Rectangle {
	if len(poly) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: poly[0], Max: poly[0]}
	for _, p := range poly[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r
}
