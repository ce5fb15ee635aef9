package adjust

import (
	"encoding/json"
	"fmt"
)

// MaskAdjustments is the adjustment subset a mask container may carry.
// It excludes the geometric transform, which always applies to the whole
// frame.
type MaskAdjustments struct {
	Light   Light   `json:"light"`
	Curve   Curve   `json:"curve"`
	HSL     HSL     `json:"hsl"`
	Grading Grading `json:"grading"`
	Detail  Detail  `json:"detail"`
	Effects Effects `json:"effects"`
}

// MaskContainer is one local adjustment: a set of parameters applied through
// a per-pixel weight map built from an ordered list of sub-masks.
//
// SubMask order is significant: compositing is sequential and the combine
// modes are not commutative in the general case.
type MaskContainer struct {
	Adjust   MaskAdjustments `json:"adjust"`
	SubMasks []SubMask       `json:"subMasks"`
	Visible  bool            `json:"visible"`
	Invert   bool            `json:"invert"`
	Opacity  float64         `json:"opacity"` // [0, 1]
}

// UnmarshalJSON decodes a container on top of NewMaskContainer's defaults so
// that fields absent from a stale document (visible, opacity) keep their
// default values instead of Go zero values.
func (c *MaskContainer) UnmarshalJSON(data []byte) error {
	type plain MaskContainer
	tmp := plain(NewMaskContainer())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return fmt.Errorf("adjust: decode mask container: %w", err)
	}
	*c = MaskContainer(tmp)
	return nil
}

// SubMaskKind identifies a sub-mask variant.
type SubMaskKind string

// Sub-mask variants. Geometric kinds rasterize their own shape, range kinds
// threshold the source image, AI kinds fetch a precomputed coverage bitmap
// from the segmentation backend, and All is a uniform full selection.
const (
	SubMaskBrush        SubMaskKind = "brush"
	SubMaskLinear       SubMaskKind = "linear"
	SubMaskRadial       SubMaskKind = "radial"
	SubMaskColor        SubMaskKind = "color"
	SubMaskLuminance    SubMaskKind = "luminance"
	SubMaskAiSubject    SubMaskKind = "aiSubject"
	SubMaskAiSky        SubMaskKind = "aiSky"
	SubMaskAiForeground SubMaskKind = "aiForeground"
	SubMaskAll          SubMaskKind = "all"
)

// AI reports whether the kind fetches its coverage from the segmentation
// backend rather than computing it locally.
func (k SubMaskKind) AI() bool {
	return k == SubMaskAiSubject || k == SubMaskAiSky || k == SubMaskAiForeground
}

func (k SubMaskKind) valid() bool {
	switch k {
	case SubMaskBrush, SubMaskLinear, SubMaskRadial, SubMaskColor,
		SubMaskLuminance, SubMaskAiSubject, SubMaskAiSky,
		SubMaskAiForeground, SubMaskAll:
		return true
	}
	return false
}

// CombineMode controls how a sub-mask's coverage folds into the container's
// running weight: additive paints selection on, subtractive erases it.
type CombineMode string

const (
	CombineAdditive    CombineMode = "additive"
	CombineSubtractive CombineMode = "subtractive"
)

// BrushParams describes a freehand brush stroke as a sequence of stamp
// centers in normalized image coordinates.
type BrushParams struct {
	Points   []CurvePoint `json:"points"`
	Radius   float64      `json:"radius"`   // normalized to the long edge; zero means unset (0.05)
	Softness float64      `json:"softness"` // [0, 1], edge feather fraction
	Flow     float64      `json:"flow"`     // [0, 1], per-stamp coverage; zero means unset (1)
}

// LinearParams describes a linear gradient selection: full coverage behind
// Start, falling to zero past End along the Start->End axis.
type LinearParams struct {
	Start   CurvePoint `json:"start"`
	End     CurvePoint `json:"end"`
	Feather float64    `json:"feather"` // [0, 1], extra falloff width
}

// RadialParams describes an elliptical selection.
type RadialParams struct {
	Center  CurvePoint `json:"center"`
	RadiusX float64    `json:"radiusX"` // normalized half-axes; zero means unset (0.25)
	RadiusY float64    `json:"radiusY"`
	Angle   float64    `json:"angle"`   // degrees
	Feather float64    `json:"feather"` // [0, 1]
}

// ColorParams selects pixels near a reference color.
type ColorParams struct {
	R         float64 `json:"r"` // reference color, [0, 1] each
	G         float64 `json:"g"`
	B         float64 `json:"b"`
	Tolerance float64 `json:"tolerance"` // zero means unset (0.1)
}

// LuminanceParams selects pixels whose luminance falls inside [Lo, Hi],
// with smoothstep falloff of width Smoothness on both sides.
type LuminanceParams struct {
	Lo         float64 `json:"lo"`
	Hi         float64 `json:"hi"`
	Smoothness float64 `json:"smoothness"`
}

// SubMask is a tagged variant over the sub-mask kinds. Exactly the parameter
// struct matching Kind is non-nil after Normalize; AI kinds carry Ref, the
// backend's bitmap reference hash, instead.
type SubMask struct {
	Kind      SubMaskKind
	Mode      CombineMode
	Brush     *BrushParams
	Linear    *LinearParams
	Radial    *RadialParams
	Color     *ColorParams
	Luminance *LuminanceParams
	Ref       string
}

// subMaskEnvelope is the flat JSON wire shape of a SubMask.
type subMaskEnvelope struct {
	Type      SubMaskKind      `json:"type"`
	Mode      CombineMode      `json:"mode"`
	Brush     *BrushParams     `json:"brush,omitempty"`
	Linear    *LinearParams    `json:"linear,omitempty"`
	Radial    *RadialParams    `json:"radial,omitempty"`
	Color     *ColorParams     `json:"color,omitempty"`
	Luminance *LuminanceParams `json:"luminance,omitempty"`
	Ref       string           `json:"ref,omitempty"`
}

// MarshalJSON encodes the sub-mask as a flat envelope with a "type" tag.
func (m SubMask) MarshalJSON() ([]byte, error) {
	return json.Marshal(subMaskEnvelope{
		Type:      m.Kind,
		Mode:      m.Mode,
		Brush:     m.Brush,
		Linear:    m.Linear,
		Radial:    m.Radial,
		Color:     m.Color,
		Luminance: m.Luminance,
		Ref:       m.Ref,
	})
}

// UnmarshalJSON decodes the flat envelope. Unknown kinds are kept as-is here
// and dropped by Normalize, so stale files never fail to parse.
func (m *SubMask) UnmarshalJSON(data []byte) error {
	var env subMaskEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("adjust: decode sub-mask: %w", err)
	}
	m.Kind = env.Type
	m.Mode = env.Mode
	m.Brush = env.Brush
	m.Linear = env.Linear
	m.Radial = env.Radial
	m.Color = env.Color
	m.Luminance = env.Luminance
	m.Ref = env.Ref
	return nil
}
