package mask

import (
	"math"

	"github.com/gogpu/darkroom/adjust"
)

// Geometric sub-mask parameters use normalized image coordinates: x and y in
// [0, 1] across the frame, brush radii relative to the long edge. Pixel
// centers sample at (x+0.5)/w, (y+0.5)/h.

// brushCoverage stamps soft-edged discs along the stroke points. Overlapping
// stamps combine by maximum so a single stroke never exceeds its flow.
func brushCoverage(w, h int, p *adjust.BrushParams) *Map {
	m := NewMap(w, h)
	if p == nil || len(p.Points) == 0 || p.Radius <= 0 {
		return m
	}

	long := float64(w)
	if h > w {
		long = float64(h)
	}
	radius := p.Radius * long
	inner := radius * (1 - p.Softness)
	flow := float32(p.Flow)

	for _, pt := range p.Points {
		cx := pt.X * float64(w)
		cy := pt.Y * float64(h)

		x0 := int(math.Floor(cx - radius))
		x1 := int(math.Ceil(cx + radius))
		y0 := int(math.Floor(cy - radius))
		y1 := int(math.Ceil(cy + radius))

		for y := max(y0, 0); y <= min(y1, h-1); y++ {
			for x := max(x0, 0); x <= min(x1, w-1); x++ {
				dx := float64(x) + 0.5 - cx
				dy := float64(y) + 0.5 - cy
				dist := math.Sqrt(dx*dx + dy*dy)
				cov := flow * float32(1-smoothstep(inner, radius, dist))
				if cov > m.data[y*w+x] {
					m.data[y*w+x] = cov
				}
			}
		}
	}
	return m
}

// linearCoverage projects each pixel onto the start->end axis: full coverage
// behind the start point, falling to zero past the end point. Feather
// stretches the falloff beyond the end.
func linearCoverage(w, h int, p *adjust.LinearParams) *Map {
	m := NewMap(w, h)
	if p == nil {
		return m
	}

	sx, sy := p.Start.X, p.Start.Y
	dx := p.End.X - sx
	dy := p.End.Y - sy
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		// Degenerate gradient selects everything, matching a zero-length
		// "not yet dragged" gradient in the editing UI.
		m.Fill(1)
		return m
	}

	for y := 0; y < h; y++ {
		ny := (float64(y) + 0.5) / float64(h)
		for x := 0; x < w; x++ {
			nx := (float64(x) + 0.5) / float64(w)
			t := ((nx-sx)*dx + (ny-sy)*dy) / lengthSq
			m.data[y*w+x] = float32(1 - smoothstep(0, 1+p.Feather, t))
		}
	}
	return m
}

// radialCoverage selects the inside of a rotated ellipse with feathered
// edge. Distance is normalized so 1 lies on the ellipse boundary.
func radialCoverage(w, h int, p *adjust.RadialParams) *Map {
	m := NewMap(w, h)
	if p == nil || p.RadiusX <= 0 || p.RadiusY <= 0 {
		return m
	}

	sin, cos := math.Sincos(p.Angle * math.Pi / 180)
	inner := 1 - p.Feather

	for y := 0; y < h; y++ {
		ny := (float64(y)+0.5)/float64(h) - p.Center.Y
		for x := 0; x < w; x++ {
			nx := (float64(x)+0.5)/float64(w) - p.Center.X
			// Rotate into the ellipse frame.
			rx := nx*cos + ny*sin
			ry := -nx*sin + ny*cos
			ex := rx / p.RadiusX
			ey := ry / p.RadiusY
			d := math.Sqrt(ex*ex + ey*ey)
			m.data[y*w+x] = float32(1 - smoothstep(inner, 1, d))
		}
	}
	return m
}

// colorCoverage selects pixels near the reference color, with smooth falloff
// between tolerance and 1.5x tolerance in RGB distance.
func colorCoverage(src Source, p *adjust.ColorParams) *Map {
	w, h := src.Size()
	m := NewMap(w, h)
	if p == nil {
		return m
	}
	pix := src.Pixels()
	lo := p.Tolerance
	hi := p.Tolerance * 1.5

	for i := 0; i < w*h; i++ {
		r := float64(pix[i*4]) / 255
		g := float64(pix[i*4+1]) / 255
		b := float64(pix[i*4+2]) / 255
		dr := r - p.R
		dg := g - p.G
		db := b - p.B
		dist := math.Sqrt(dr*dr + dg*dg + db*db)
		m.data[i] = float32(1 - smoothstep(lo, hi, dist))
	}
	return m
}

// luminanceCoverage selects pixels whose Rec.709 luminance lies inside
// [Lo, Hi], with smoothstep falloff of width Smoothness on both sides.
func luminanceCoverage(src Source, p *adjust.LuminanceParams) *Map {
	w, h := src.Size()
	m := NewMap(w, h)
	if p == nil {
		return m
	}
	pix := src.Pixels()
	s := p.Smoothness

	for i := 0; i < w*h; i++ {
		r := float64(pix[i*4]) / 255
		g := float64(pix[i*4+1]) / 255
		b := float64(pix[i*4+2]) / 255
		l := 0.2126*r + 0.7152*g + 0.0722*b
		rise := smoothstep(p.Lo-s, p.Lo, l)
		fall := 1 - smoothstep(p.Hi, p.Hi+s, l)
		m.data[i] = float32(rise * fall)
	}
	return m
}
