package mask

// Map is a per-pixel selection weight map. Values range from 0 (not
// selected) to 1 (fully selected) and blend an adjustment's effect between
// 0% and 100% strength at each pixel.
type Map struct {
	width  int
	height int
	data   []float32
}

// NewMap creates a map with the given dimensions, initialized to all zero
// (nothing selected).
func NewMap(width, height int) *Map {
	return &Map{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// Uniform creates a map filled with a single weight.
func Uniform(width, height int, v float32) *Map {
	m := NewMap(width, height)
	m.Fill(v)
	return m
}

// Width returns the map width in pixels.
func (m *Map) Width() int { return m.width }

// Height returns the map height in pixels.
func (m *Map) Height() int { return m.height }

// Data returns the backing weight slice, row-major. Callers must treat the
// slice as read-only once the map has been handed to a cache.
func (m *Map) Data() []float32 { return m.data }

// At returns the weight at (x, y). Coordinates outside the map yield 0.
func (m *Map) At(x, y int) float32 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	return m.data[y*m.width+x]
}

// Set stores a weight at (x, y). Out-of-bounds coordinates are ignored.
func (m *Map) Set(x, y int, v float32) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	m.data[y*m.width+x] = v
}

// Fill sets every weight to v.
func (m *Map) Fill(v float32) {
	for i := range m.data {
		m.data[i] = v
	}
}

// Invert replaces every weight w with 1-w.
func (m *Map) Invert() {
	for i, v := range m.data {
		m.data[i] = 1 - v
	}
}

// Scale multiplies every weight by f.
func (m *Map) Scale(f float32) {
	for i := range m.data {
		m.data[i] *= f
	}
}

// Clone returns an independent copy.
func (m *Map) Clone() *Map {
	out := NewMap(m.width, m.height)
	copy(out.data, m.data)
	return out
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// smoothstep is the standard cubic Hermite ramp: 0 for x <= lo, 1 for
// x >= hi, smooth in between. lo == hi degenerates to a step.
func smoothstep(lo, hi, x float64) float64 {
	if lo >= hi {
		if x < lo {
			return 0
		}
		return 1
	}
	t := (x - lo) / (hi - lo)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
