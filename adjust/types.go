package adjust

// SchemaVersion is the current version of the persisted adjustment schema.
// Normalize migrates older versions forward; new fields require a version
// bump plus a migration step in normalize.go.
const SchemaVersion = 3

// Adjustments is the complete, versioned record of every edit parameter for
// one source image. Every field has a defined value after Normalize or
// Default; no field is ever left undefined.
//
// The caller that drives the render pipeline owns the current Adjustments
// value exclusively. Render requests receive value snapshots, so the caller
// may keep mutating its copy while renders are in flight.
type Adjustments struct {
	Version   int             `json:"version"`
	Light     Light           `json:"light"`
	Curve     Curve           `json:"curve"`
	HSL       HSL             `json:"hsl"`
	Grading   Grading         `json:"grading"`
	Detail    Detail          `json:"detail"`
	Effects   Effects         `json:"effects"`
	Transform Transform       `json:"transform"`
	Masks     []MaskContainer `json:"masks"`
	Patches   []PatchRef      `json:"patches"`
}

// Light holds the global exposure and tone parameters.
// All values are offsets from neutral; 0 means no change.
type Light struct {
	Exposure   float64 `json:"exposure"`   // EV, typically [-5, 5]
	Contrast   float64 `json:"contrast"`   // [-100, 100]
	Highlights float64 `json:"highlights"` // [-100, 100]
	Shadows    float64 `json:"shadows"`    // [-100, 100]
	Whites     float64 `json:"whites"`     // [-100, 100]
	Blacks     float64 `json:"blacks"`     // [-100, 100]
}

// CurvePoint is one control point of a tone curve. Both coordinates are
// normalized to [0, 1]; points are kept sorted by X.
type CurvePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Curve holds the per-channel tone curves. A curve with exactly the identity
// endpoints (0,0) and (1,1) is a no-op.
type Curve struct {
	Luma  []CurvePoint `json:"luma"`
	Red   []CurvePoint `json:"red"`
	Green []CurvePoint `json:"green"`
	Blue  []CurvePoint `json:"blue"`
}

// Band is the hue/saturation/luminance shift for one HSL color band.
type Band struct {
	Hue        float64 `json:"hue"`        // [-100, 100]
	Saturation float64 `json:"saturation"` // [-100, 100]
	Luminance  float64 `json:"luminance"`  // [-100, 100]
}

// HSL holds the eight-band hue/saturation/luminance mixer.
type HSL struct {
	Red     Band `json:"red"`
	Orange  Band `json:"orange"`
	Yellow  Band `json:"yellow"`
	Green   Band `json:"green"`
	Aqua    Band `json:"aqua"`
	Blue    Band `json:"blue"`
	Purple  Band `json:"purple"`
	Magenta Band `json:"magenta"`
}

// Wheel is one color-grading wheel: a hue angle, a saturation strength and a
// luminance offset applied to one tonal range.
type Wheel struct {
	Hue        float64 `json:"hue"`        // degrees, [0, 360)
	Saturation float64 `json:"saturation"` // [0, 100]
	Luminance  float64 `json:"luminance"`  // [-100, 100]
}

// Grading holds the three-way color grading wheels.
type Grading struct {
	Shadows    Wheel   `json:"shadows"`
	Midtones   Wheel   `json:"midtones"`
	Highlights Wheel   `json:"highlights"`
	Blending   float64 `json:"blending"` // [0, 100]
	Balance    float64 `json:"balance"`  // [-100, 100]
}

// Detail holds sharpening and noise reduction parameters.
type Detail struct {
	SharpenAmount float64 `json:"sharpenAmount"` // [0, 150]
	SharpenRadius float64 `json:"sharpenRadius"` // pixels, [0.5, 3]
	NoiseLuma     float64 `json:"noiseLuma"`     // [0, 100]
	NoiseChroma   float64 `json:"noiseChroma"`   // [0, 100]
}

// Effects holds the creative effect parameters.
type Effects struct {
	Saturation       float64 `json:"saturation"`       // [-100, 100]
	Vibrance         float64 `json:"vibrance"`         // [-100, 100]
	Temperature      float64 `json:"temperature"`      // [-100, 100], warm positive
	Tint             float64 `json:"tint"`             // [-100, 100], magenta positive
	Dehaze           float64 `json:"dehaze"`           // [-100, 100]
	Texture          float64 `json:"texture"`          // [-100, 100]
	VignetteAmount   float64 `json:"vignetteAmount"`   // [-100, 100]
	VignetteMidpoint float64 `json:"vignetteMidpoint"` // [0, 100]
	GrainAmount      float64 `json:"grainAmount"`      // [0, 100]
	GrainSize        float64 `json:"grainSize"`        // [0, 100]
}

// CropRect is a crop rectangle in normalized image coordinates.
// The full frame is {0, 0, 1, 1}.
type CropRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Transform holds the geometric transform. Transform never appears inside a
// mask container; it applies to the whole frame.
type Transform struct {
	Rotate float64  `json:"rotate"` // degrees, [-180, 180]
	FlipH  bool     `json:"flipH"`
	FlipV  bool     `json:"flipV"`
	Crop   CropRect `json:"crop"`
}

// PatchRef references an AI-generated patch (inpainting result) applied
// outside the core render pipeline. The patch pixels themselves are fetched
// by the patch backend using ID.
type PatchRef struct {
	ID string   `json:"id"`
	At CropRect `json:"at"`
}

// IdentityCurve returns the two-point identity tone curve.
func IdentityCurve() []CurvePoint {
	return []CurvePoint{{X: 0, Y: 0}, {X: 1, Y: 1}}
}

// IsIdentity reports whether the curve is the two-point identity curve.
func IsIdentity(c []CurvePoint) bool {
	return len(c) == 2 && c[0] == CurvePoint{X: 0, Y: 0} && c[1] == CurvePoint{X: 1, Y: 1}
}
