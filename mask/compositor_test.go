package mask

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/darkroom/adjust"
)

// testSource is a solid-color in-memory source image.
type testSource struct {
	id   string
	w, h int
	pix  []uint8
}

func newTestSource(id string, w, h int, r, g, b uint8) *testSource {
	pix := make([]uint8, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4] = r
		pix[i*4+1] = g
		pix[i*4+2] = b
		pix[i*4+3] = 255
	}
	return &testSource{id: id, w: w, h: h, pix: pix}
}

func (s *testSource) ID() string       { return s.id }
func (s *testSource) Size() (int, int) { return s.w, s.h }
func (s *testSource) Pixels() []uint8  { return s.pix }

func allWeightsEqual(t *testing.T, m *Map, want float32, eps float32) {
	t.Helper()
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			got := m.At(x, y)
			if diff := got - want; diff > eps || diff < -eps {
				t.Fatalf("weight at (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func fullCanvasBrush(mode adjust.CombineMode) adjust.SubMask {
	return adjust.SubMask{
		Kind: adjust.SubMaskBrush,
		Mode: mode,
		Brush: &adjust.BrushParams{
			Points: []adjust.CurvePoint{{X: 0.5, Y: 0.5}},
			Radius: 1, Softness: 0, Flow: 1,
		},
	}
}

func TestComposite_EmptySubMaskList(t *testing.T) {
	src := newTestSource("img", 8, 8, 128, 128, 128)
	c := &Compositor{}

	mc := adjust.NewMaskContainer()
	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 0, 0)

	// Inverting a container that selects nothing still selects nothing.
	mc.Invert = true
	mc.Opacity = 1
	out, err = c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() inverted error = %v", err)
	}
	allWeightsEqual(t, out, 0, 0)
}

func TestComposite_AdditiveThenSubtractiveCancels(t *testing.T) {
	src := newTestSource("img", 8, 8, 128, 128, 128)
	c := &Compositor{}

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{
		fullCanvasBrush(adjust.CombineAdditive),
		fullCanvasBrush(adjust.CombineSubtractive),
	}
	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 0, 1e-6)
}

func TestComposite_AllInvertedIsZero(t *testing.T) {
	src := newTestSource("img", 8, 8, 128, 128, 128)
	c := &Compositor{}

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{{Kind: adjust.SubMaskAll, Mode: adjust.CombineAdditive}}
	mc.Invert = true
	mc.Opacity = 1

	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 0, 0)
}

func TestComposite_BrushAtHalfOpacity(t *testing.T) {
	src := newTestSource("img", 8, 8, 128, 128, 128)
	c := &Compositor{}

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{fullCanvasBrush(adjust.CombineAdditive)}
	mc.Opacity = 0.5

	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 0.5, 1e-6)
}

func TestComposite_OrderSensitivity(t *testing.T) {
	src := newTestSource("img", 8, 8, 128, 128, 128)
	c := &Compositor{}

	// Subtractive first is a no-op on an empty running weight; additive
	// afterwards selects everything. The reverse cancels out.
	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{
		fullCanvasBrush(adjust.CombineSubtractive),
		fullCanvasBrush(adjust.CombineAdditive),
	}
	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 1, 1e-6)
}

func TestComposite_SegmenterUnavailableDegradesToZero(t *testing.T) {
	src := newTestSource("img", 8, 8, 128, 128, 128)
	c := &Compositor{
		Seg: SegmenterFunc(func(context.Context, string, adjust.SubMaskKind, string) (*Map, error) {
			return nil, ErrSegmentationUnavailable
		}),
	}

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{{Kind: adjust.SubMaskAiSky, Mode: adjust.CombineAdditive, Ref: "r"}}

	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() must not fail on segmentation errors, got %v", err)
	}
	allWeightsEqual(t, out, 0, 0)
}

func TestComposite_SegmenterBitmapUsed(t *testing.T) {
	src := newTestSource("img", 4, 4, 0, 0, 0)
	c := &Compositor{
		Seg: SegmenterFunc(func(_ context.Context, id string, kind adjust.SubMaskKind, ref string) (*Map, error) {
			if id != "img" || kind != adjust.SubMaskAiSubject || ref != "hash" {
				return nil, errors.New("unexpected lookup key")
			}
			return Uniform(4, 4, 0.75), nil
		}),
	}

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{{Kind: adjust.SubMaskAiSubject, Mode: adjust.CombineAdditive, Ref: "hash"}}

	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 0.75, 1e-6)
}

func TestComposite_WrongSizeBitmapDegradesToZero(t *testing.T) {
	src := newTestSource("img", 8, 8, 0, 0, 0)
	c := &Compositor{
		Seg: SegmenterFunc(func(context.Context, string, adjust.SubMaskKind, string) (*Map, error) {
			return Uniform(2, 2, 1), nil
		}),
	}

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{{Kind: adjust.SubMaskAiForeground, Mode: adjust.CombineAdditive, Ref: "r"}}

	out, err := c.Composite(context.Background(), src, mc)
	if err != nil {
		t.Fatalf("Composite() error = %v", err)
	}
	allWeightsEqual(t, out, 0, 0)
}

func TestComposite_CancelledContext(t *testing.T) {
	src := newTestSource("img", 4, 4, 0, 0, 0)
	c := &Compositor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mc := adjust.NewMaskContainer()
	mc.SubMasks = []adjust.SubMask{fullCanvasBrush(adjust.CombineAdditive)}
	if _, err := c.Composite(ctx, src, mc); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLinearCoverage_Gradient(t *testing.T) {
	// Horizontal gradient from x=0.25 to x=0.75 across a 100px row.
	m := linearCoverage(100, 1, &adjust.LinearParams{
		Start: adjust.CurvePoint{X: 0.25, Y: 0.5},
		End:   adjust.CurvePoint{X: 0.75, Y: 0.5},
	})

	if got := m.At(5, 0); got != 1 {
		t.Errorf("coverage before start = %v, want 1", got)
	}
	if got := m.At(95, 0); got != 0 {
		t.Errorf("coverage past end = %v, want 0", got)
	}
	mid := m.At(50, 0)
	if math.Abs(float64(mid)-0.5) > 0.05 {
		t.Errorf("coverage at midpoint = %v, want ~0.5", mid)
	}
}

func TestRadialCoverage_InsideOutside(t *testing.T) {
	m := radialCoverage(100, 100, &adjust.RadialParams{
		Center:  adjust.CurvePoint{X: 0.5, Y: 0.5},
		RadiusX: 0.25, RadiusY: 0.25,
		Feather: 0.2,
	})

	if got := m.At(50, 50); got != 1 {
		t.Errorf("coverage at center = %v, want 1", got)
	}
	if got := m.At(0, 0); got != 0 {
		t.Errorf("coverage at corner = %v, want 0", got)
	}
}

func TestLuminanceCoverage_Bands(t *testing.T) {
	dark := newTestSource("d", 2, 2, 10, 10, 10)
	bright := newTestSource("b", 2, 2, 240, 240, 240)
	p := &adjust.LuminanceParams{Lo: 0.5, Hi: 1, Smoothness: 0.1}

	if got := luminanceCoverage(dark, p).At(0, 0); got != 0 {
		t.Errorf("dark pixel coverage = %v, want 0", got)
	}
	if got := luminanceCoverage(bright, p).At(0, 0); got != 1 {
		t.Errorf("bright pixel coverage = %v, want 1", got)
	}
}

func TestColorCoverage_Match(t *testing.T) {
	red := newTestSource("r", 2, 2, 255, 0, 0)
	p := &adjust.ColorParams{R: 1, G: 0, B: 0, Tolerance: 0.1}

	if got := colorCoverage(red, p).At(0, 0); got != 1 {
		t.Errorf("matching pixel coverage = %v, want 1", got)
	}

	pFar := &adjust.ColorParams{R: 0, G: 0, B: 1, Tolerance: 0.1}
	if got := colorCoverage(red, pFar).At(0, 0); got != 0 {
		t.Errorf("distant pixel coverage = %v, want 0", got)
	}
}
