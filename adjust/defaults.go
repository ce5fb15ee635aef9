package adjust

// Default returns a fully-populated Adjustments at the current schema
// version with every parameter at its neutral value. Rendering the defaults
// reproduces the source image (up to output encoding).
func Default() Adjustments {
	return Adjustments{
		Version: SchemaVersion,
		Curve:   defaultCurve(),
		Detail: Detail{
			SharpenRadius: 1.0,
		},
		Effects: Effects{
			VignetteMidpoint: 50,
		},
		Transform: Transform{
			Crop: CropRect{X: 0, Y: 0, W: 1, H: 1},
		},
		Masks:   []MaskContainer{},
		Patches: []PatchRef{},
	}
}

func defaultCurve() Curve {
	return Curve{
		Luma:  IdentityCurve(),
		Red:   IdentityCurve(),
		Green: IdentityCurve(),
		Blue:  IdentityCurve(),
	}
}

// DefaultMaskAdjustments returns the neutral adjustment subset for a new
// mask container.
func DefaultMaskAdjustments() MaskAdjustments {
	d := Default()
	return MaskAdjustments{
		Light:   d.Light,
		Curve:   d.Curve,
		HSL:     d.HSL,
		Grading: d.Grading,
		Detail:  d.Detail,
		Effects: d.Effects,
	}
}

// NewMaskContainer returns a visible, non-inverted container at full opacity
// with neutral adjustments and no sub-masks.
func NewMaskContainer() MaskContainer {
	return MaskContainer{
		Adjust:   DefaultMaskAdjustments(),
		SubMasks: []SubMask{},
		Visible:  true,
		Opacity:  1,
	}
}
