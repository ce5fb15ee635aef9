package gpu

import "github.com/gogpu/darkroom/adjust"

// CurveLUTSize is the number of samples per channel in the tone-curve
// lookup table uploaded alongside the uniforms.
const CurveLUTSize = 256

// lutChannels is the channel order inside the LUT buffer: luma, red, green,
// blue. The shader indexes the same order.
const lutChannels = 4

// BuildCurveLUT samples the four tone curves into a flat float32 table of
// lutChannels x CurveLUTSize entries. Control points are interpolated with a
// clamped Catmull-Rom spline so a small number of points yields a smooth
// curve, matching the feel of interactive curve editors.
func BuildCurveLUT(c adjust.Curve) []float32 {
	out := make([]float32, lutChannels*CurveLUTSize)
	fillLUT(out[0*CurveLUTSize:1*CurveLUTSize], c.Luma)
	fillLUT(out[1*CurveLUTSize:2*CurveLUTSize], c.Red)
	fillLUT(out[2*CurveLUTSize:3*CurveLUTSize], c.Green)
	fillLUT(out[3*CurveLUTSize:4*CurveLUTSize], c.Blue)
	return out
}

func fillLUT(dst []float32, points []adjust.CurvePoint) {
	if adjust.IsIdentity(points) || len(points) < 2 {
		for i := range dst {
			dst[i] = float32(i) / float32(len(dst)-1)
		}
		return
	}
	for i := range dst {
		x := float64(i) / float64(len(dst)-1)
		dst[i] = float32(evalCurve(points, x))
	}
}

// evalCurve evaluates the curve at x using Catmull-Rom interpolation between
// the surrounding control points, with endpoint tangents clamped. Points are
// sorted by X (guaranteed by adjust.Sanitize).
func evalCurve(points []adjust.CurvePoint, x float64) float64 {
	n := len(points)
	if x <= points[0].X {
		return clampUnit(points[0].Y)
	}
	if x >= points[n-1].X {
		return clampUnit(points[n-1].Y)
	}

	// Find the segment containing x.
	seg := 0
	for seg < n-2 && points[seg+1].X < x {
		seg++
	}

	p1 := points[seg]
	p2 := points[seg+1]
	p0 := p1
	if seg > 0 {
		p0 = points[seg-1]
	}
	p3 := p2
	if seg+2 < n {
		p3 = points[seg+2]
	}

	span := p2.X - p1.X
	if span <= 0 {
		return clampUnit(p1.Y)
	}
	t := (x - p1.X) / span
	t2 := t * t
	t3 := t2 * t

	y := 0.5 * ((2 * p1.Y) +
		(-p0.Y+p2.Y)*t +
		(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 +
		(-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3)
	return clampUnit(y)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
