package adjust

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Normalize is the only sanctioned path for loading persisted adjustments.
//
// It accepts a possibly-partial, possibly-stale-schema JSON document and
// returns a fully-populated, current-schema Adjustments: absent fields are
// filled from defaults, stale schema versions are migrated forward, and
// fields no longer recognized are discarded. Out-of-range values are clamped
// and malformed entries (unknown sub-mask kinds, invalid curves) degrade to
// their defaults rather than failing.
//
// Normalize is idempotent: normalizing the encoding of a normalized value
// returns an equal value. The only error it can return is a JSON syntax
// error; callers holding unparseable data should fall back to Default.
func Normalize(raw []byte) (Adjustments, error) {
	if len(raw) == 0 {
		return Default(), nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Default(), fmt.Errorf("adjust: parse: %w", err)
	}
	migrate(doc)

	merged, err := json.Marshal(doc)
	if err != nil {
		return Default(), fmt.Errorf("adjust: remarshal migrated document: %w", err)
	}

	adj := Default()
	// Field-level type mismatches degrade to the default already present in
	// adj; only syntax errors (caught above) are fatal.
	_ = json.Unmarshal(merged, &adj)

	return Sanitize(adj), nil
}

// migrate rewrites a decoded document from older schema versions to the
// current shape. Steps apply in order so any historical version reaches
// SchemaVersion.
func migrate(doc map[string]json.RawMessage) {
	version := 0
	if v, ok := doc["version"]; ok {
		_ = json.Unmarshal(v, &version)
	}

	if version < 2 {
		// v1 kept exposure and contrast at the top level.
		light := map[string]json.RawMessage{}
		if v, ok := doc["light"]; ok {
			_ = json.Unmarshal(v, &light)
		}
		moved := false
		for _, key := range []string{"exposure", "contrast", "highlights", "shadows"} {
			if v, ok := doc[key]; ok {
				light[key] = v
				delete(doc, key)
				moved = true
			}
		}
		if moved {
			if b, err := json.Marshal(light); err == nil {
				doc["light"] = b
			}
		}
	}

	if version < 3 {
		// v2 named the grading group "colorGrading".
		if v, ok := doc["colorGrading"]; ok {
			if _, exists := doc["grading"]; !exists {
				doc["grading"] = v
			}
			delete(doc, "colorGrading")
		}
	}

	if b, err := json.Marshal(SchemaVersion); err == nil {
		doc["version"] = b
	}
}

// Sanitize clamps every parameter into its documented range and repairs
// structural problems: invalid curves fall back to identity, unknown or
// incomplete sub-masks are dropped, and nil slices become empty. Sanitize is
// idempotent and never fails.
func Sanitize(adj Adjustments) Adjustments {
	adj.Version = SchemaVersion

	adj.Light = Light{
		Exposure:   clampFinite(adj.Light.Exposure, -5, 5),
		Contrast:   clampFinite(adj.Light.Contrast, -100, 100),
		Highlights: clampFinite(adj.Light.Highlights, -100, 100),
		Shadows:    clampFinite(adj.Light.Shadows, -100, 100),
		Whites:     clampFinite(adj.Light.Whites, -100, 100),
		Blacks:     clampFinite(adj.Light.Blacks, -100, 100),
	}

	adj.Curve = Curve{
		Luma:  sanitizeCurve(adj.Curve.Luma),
		Red:   sanitizeCurve(adj.Curve.Red),
		Green: sanitizeCurve(adj.Curve.Green),
		Blue:  sanitizeCurve(adj.Curve.Blue),
	}

	adj.HSL = HSL{
		Red:     sanitizeBand(adj.HSL.Red),
		Orange:  sanitizeBand(adj.HSL.Orange),
		Yellow:  sanitizeBand(adj.HSL.Yellow),
		Green:   sanitizeBand(adj.HSL.Green),
		Aqua:    sanitizeBand(adj.HSL.Aqua),
		Blue:    sanitizeBand(adj.HSL.Blue),
		Purple:  sanitizeBand(adj.HSL.Purple),
		Magenta: sanitizeBand(adj.HSL.Magenta),
	}

	adj.Grading = Grading{
		Shadows:    sanitizeWheel(adj.Grading.Shadows),
		Midtones:   sanitizeWheel(adj.Grading.Midtones),
		Highlights: sanitizeWheel(adj.Grading.Highlights),
		Blending:   clampFinite(adj.Grading.Blending, 0, 100),
		Balance:    clampFinite(adj.Grading.Balance, -100, 100),
	}

	adj.Detail = Detail{
		SharpenAmount: clampFinite(adj.Detail.SharpenAmount, 0, 150),
		SharpenRadius: clampNonFinite(adj.Detail.SharpenRadius, 0.5, 3, 1),
		NoiseLuma:     clampFinite(adj.Detail.NoiseLuma, 0, 100),
		NoiseChroma:   clampFinite(adj.Detail.NoiseChroma, 0, 100),
	}

	adj.Effects = Effects{
		Saturation:       clampFinite(adj.Effects.Saturation, -100, 100),
		Vibrance:         clampFinite(adj.Effects.Vibrance, -100, 100),
		Temperature:      clampFinite(adj.Effects.Temperature, -100, 100),
		Tint:             clampFinite(adj.Effects.Tint, -100, 100),
		Dehaze:           clampFinite(adj.Effects.Dehaze, -100, 100),
		Texture:          clampFinite(adj.Effects.Texture, -100, 100),
		VignetteAmount:   clampFinite(adj.Effects.VignetteAmount, -100, 100),
		VignetteMidpoint: clampNonFinite(adj.Effects.VignetteMidpoint, 0, 100, 50),
		GrainAmount:      clampFinite(adj.Effects.GrainAmount, 0, 100),
		GrainSize:        clampFinite(adj.Effects.GrainSize, 0, 100),
	}

	adj.Transform.Rotate = clampFinite(adj.Transform.Rotate, -180, 180)
	adj.Transform.Crop = sanitizeCrop(adj.Transform.Crop)

	masks := make([]MaskContainer, 0, len(adj.Masks))
	for _, c := range adj.Masks {
		masks = append(masks, sanitizeContainer(c))
	}
	adj.Masks = masks

	if adj.Patches == nil {
		adj.Patches = []PatchRef{}
	}

	return adj
}

func sanitizeContainer(c MaskContainer) MaskContainer {
	c.Opacity = clampFinite(c.Opacity, 0, 1)
	c.Adjust = MaskAdjustments{
		Light:   Sanitize(Adjustments{Light: c.Adjust.Light}).Light,
		Curve:   Sanitize(Adjustments{Curve: c.Adjust.Curve}).Curve,
		HSL:     Sanitize(Adjustments{HSL: c.Adjust.HSL}).HSL,
		Grading: Sanitize(Adjustments{Grading: c.Adjust.Grading}).Grading,
		Detail:  Sanitize(Adjustments{Detail: c.Adjust.Detail}).Detail,
		Effects: Sanitize(Adjustments{Effects: c.Adjust.Effects}).Effects,
	}

	subs := make([]SubMask, 0, len(c.SubMasks))
	for _, m := range c.SubMasks {
		m, ok := sanitizeSubMask(m)
		if !ok {
			continue // unknown or incomplete kinds degrade to "no entry"
		}
		subs = append(subs, m)
	}
	c.SubMasks = subs
	return c
}

func sanitizeSubMask(m SubMask) (SubMask, bool) {
	if !m.Kind.valid() {
		return SubMask{}, false
	}
	if m.Mode != CombineSubtractive {
		m.Mode = CombineAdditive
	}

	// Keep exactly the parameter struct that matches the kind.
	brush, linear, radial, col, lum := m.Brush, m.Linear, m.Radial, m.Color, m.Luminance
	m.Brush, m.Linear, m.Radial, m.Color, m.Luminance = nil, nil, nil, nil, nil
	if !m.Kind.AI() {
		m.Ref = ""
	}

	switch m.Kind {
	case SubMaskBrush:
		if brush == nil {
			return SubMask{}, false
		}
		brush.Radius = clampDefault(brush.Radius, 0, 1, 0.05)
		brush.Softness = clampFinite(brush.Softness, 0, 1)
		brush.Flow = clampDefault(brush.Flow, 0, 1, 1)
		m.Brush = brush
	case SubMaskLinear:
		if linear == nil {
			return SubMask{}, false
		}
		linear.Feather = clampFinite(linear.Feather, 0, 1)
		m.Linear = linear
	case SubMaskRadial:
		if radial == nil {
			return SubMask{}, false
		}
		radial.RadiusX = clampDefault(radial.RadiusX, 0, 2, 0.25)
		radial.RadiusY = clampDefault(radial.RadiusY, 0, 2, 0.25)
		radial.Feather = clampFinite(radial.Feather, 0, 1)
		m.Radial = radial
	case SubMaskColor:
		if col == nil {
			return SubMask{}, false
		}
		col.R = clampFinite(col.R, 0, 1)
		col.G = clampFinite(col.G, 0, 1)
		col.B = clampFinite(col.B, 0, 1)
		col.Tolerance = clampDefault(col.Tolerance, 0, 1, 0.1)
		m.Color = col
	case SubMaskLuminance:
		if lum == nil {
			return SubMask{}, false
		}
		lum.Lo = clampFinite(lum.Lo, 0, 1)
		lum.Hi = clampFinite(lum.Hi, 0, 1)
		if lum.Hi < lum.Lo {
			lum.Lo, lum.Hi = lum.Hi, lum.Lo
		}
		lum.Smoothness = clampFinite(lum.Smoothness, 0, 1)
		m.Luminance = lum
	case SubMaskAiSubject, SubMaskAiSky, SubMaskAiForeground:
		if m.Ref == "" {
			return SubMask{}, false
		}
	case SubMaskAll:
	}
	return m, true
}

// sanitizeCurve returns a valid tone curve: finite points clamped to [0,1],
// sorted by X, with guaranteed endpoints at X=0 and X=1. Curves with no
// usable points fall back to identity.
func sanitizeCurve(points []CurvePoint) []CurvePoint {
	kept := make([]CurvePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		kept = append(kept, CurvePoint{X: clampFinite(p.X, 0, 1), Y: clampFinite(p.Y, 0, 1)})
	}
	if len(kept) < 2 {
		return IdentityCurve()
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].X < kept[j].X })
	if kept[0].X != 0 {
		kept = append([]CurvePoint{{X: 0, Y: kept[0].Y}}, kept...)
	}
	if kept[len(kept)-1].X != 1 {
		kept = append(kept, CurvePoint{X: 1, Y: kept[len(kept)-1].Y})
	}
	return kept
}

func sanitizeBand(b Band) Band {
	return Band{
		Hue:        clampFinite(b.Hue, -100, 100),
		Saturation: clampFinite(b.Saturation, -100, 100),
		Luminance:  clampFinite(b.Luminance, -100, 100),
	}
}

func sanitizeWheel(w Wheel) Wheel {
	hue := w.Hue
	if math.IsNaN(hue) || math.IsInf(hue, 0) {
		hue = 0
	}
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	return Wheel{
		Hue:        hue,
		Saturation: clampFinite(w.Saturation, 0, 100),
		Luminance:  clampFinite(w.Luminance, -100, 100),
	}
}

func sanitizeCrop(c CropRect) CropRect {
	c.X = clampFinite(c.X, 0, 1)
	c.Y = clampFinite(c.Y, 0, 1)
	c.W = clampFinite(c.W, 0, 1-c.X)
	c.H = clampFinite(c.H, 0, 1-c.Y)
	if c.W == 0 || c.H == 0 {
		return CropRect{X: 0, Y: 0, W: 1, H: 1}
	}
	return c
}

// clampFinite clamps v to [lo, hi], mapping NaN and infinities to the
// nearest bound of 0 inside the range.
func clampFinite(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampNonFinite clamps like clampFinite but maps NaN and infinities to def
// instead of 0. An explicit zero is kept: for top-level fields, absent
// values already inherit defaults from the overlay decode in Normalize.
func clampNonFinite(v, lo, hi, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return clampFinite(v, lo, hi)
}

// clampDefault clamps like clampNonFinite but additionally maps the zero
// value to def. Sub-mask parameter structs decode without a defaults
// overlay, so zero there means the field was absent.
func clampDefault(v, lo, hi, def float64) float64 {
	if v == 0 {
		return def
	}
	return clampNonFinite(v, lo, hi, def)
}
