package adjust

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// Encode returns the canonical JSON encoding of the adjustments. Struct
// field order makes the encoding deterministic, so it doubles as the hashing
// and sidecar wire format.
func (a Adjustments) Encode() []byte {
	b, err := json.Marshal(a)
	if err != nil {
		// Only unsupported types can fail here and the model contains none.
		panic("adjust: encode: " + err.Error())
	}
	return b
}

// Hash returns a content hash of (image identity, adjustment snapshot).
// Equal hashes mean the same source rendered with the same parameters, so
// the preview cache may serve a prior result.
func (a Adjustments) Hash(imageID string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(imageID)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(a.Encode())
	return d.Sum64()
}

// SubMaskHash returns a content hash of (image identity, this container's
// sub-mask list). Container-level invert and opacity are excluded: they are
// applied on top of the cached composite, so scrubbing them never recomputes
// mask geometry or AI lookups.
func (c MaskContainer) SubMaskHash(imageID string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(imageID)
	_, _ = d.Write([]byte{0})
	b, err := json.Marshal(c.SubMasks)
	if err != nil {
		panic("adjust: encode sub-masks: " + err.Error())
	}
	_, _ = d.Write(b)
	return d.Sum64()
}

// Clone returns a deep copy. Render requests snapshot the caller's current
// adjustments with Clone so later edits cannot race an in-flight render.
func (a Adjustments) Clone() Adjustments {
	out := a
	out.Curve = a.Curve.clone()
	out.Masks = make([]MaskContainer, len(a.Masks))
	for i, c := range a.Masks {
		out.Masks[i] = c.clone()
	}
	out.Patches = append([]PatchRef(nil), a.Patches...)
	if out.Patches == nil {
		out.Patches = []PatchRef{}
	}
	return out
}

func (c Curve) clone() Curve {
	return Curve{
		Luma:  append([]CurvePoint(nil), c.Luma...),
		Red:   append([]CurvePoint(nil), c.Red...),
		Green: append([]CurvePoint(nil), c.Green...),
		Blue:  append([]CurvePoint(nil), c.Blue...),
	}
}

func (c MaskContainer) clone() MaskContainer {
	out := c
	out.Adjust.Curve = c.Adjust.Curve.clone()
	out.SubMasks = make([]SubMask, len(c.SubMasks))
	for i, m := range c.SubMasks {
		out.SubMasks[i] = m.clone()
	}
	return out
}

func (m SubMask) clone() SubMask {
	out := m
	if m.Brush != nil {
		b := *m.Brush
		b.Points = append([]CurvePoint(nil), m.Brush.Points...)
		out.Brush = &b
	}
	if m.Linear != nil {
		l := *m.Linear
		out.Linear = &l
	}
	if m.Radial != nil {
		r := *m.Radial
		out.Radial = &r
	}
	if m.Color != nil {
		c := *m.Color
		out.Color = &c
	}
	if m.Luminance != nil {
		l := *m.Luminance
		out.Luminance = &l
	}
	return out
}
