package gpu

import (
	"math"
	"unsafe"

	"github.com/gogpu/darkroom/adjust"
)

// UniformStride is the byte size of AdjustUniforms and of the Params struct
// in shaders/adjust.wgsl. Uniform buffers must be a multiple of 16 bytes.
const UniformStride = 240

// AdjustUniforms is the fixed-layout parameter block handed to every
// pipeline stage. Field order and alignment must exactly match the Params
// struct in shaders/adjust.wgsl: every field is 4-byte aligned, and explicit
// Pad fields keep vector-typed WGSL fields on 16-byte boundaries.
//
// Any new field requires a matching addition at the same position in
// adjust.wgsl and in the offset table in layout_test.go. Layout drift causes
// silently wrong rendering, not a crash.
//
// Scalar ranges are pre-normalized on the CPU: slider values in [-100, 100]
// arrive as [-1, 1], hues as radians, so the shader applies them directly.
type AdjustUniforms struct {
	Width   uint32
	Height  uint32
	UseMask uint32
	Pad0    uint32

	Exposure   float32
	Contrast   float32
	Highlights float32
	Shadows    float32
	Whites     float32
	Blacks     float32

	Saturation       float32
	Vibrance         float32
	Temperature      float32
	Tint             float32
	Dehaze           float32
	Texture          float32
	VignetteAmount   float32
	VignetteMidpoint float32
	GrainAmount      float32
	GrainSize        float32

	SharpenAmount float32
	SharpenRadius float32
	NoiseLuma     float32
	NoiseChroma   float32

	ShadowHue    float32
	ShadowSat    float32
	ShadowLum    float32
	MidHue       float32
	MidSat       float32
	MidLum       float32
	HighHue      float32
	HighSat      float32
	HighLum      float32
	GradeBlend   float32
	GradeBalance float32
	Pad1         float32

	// HSL holds 8 bands x (hue, saturation, luminance), flattened in band
	// order red, orange, yellow, green, aqua, blue, purple, magenta. The
	// WGSL side views the same 96 bytes as six vec4<f32> fields.
	HSL [24]float32
}

// Bytes returns the uniform block as raw bytes for queue.WriteBuffer.
// The slice aliases u and is only valid while u is reachable.
func (u *AdjustUniforms) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), unsafe.Sizeof(*u)) //nolint:gosec // fixed-layout struct serialization
}

// UniformsFor packs a global adjustment snapshot into the shader parameter
// block.
func UniformsFor(a adjust.Adjustments, width, height int) AdjustUniforms {
	u := AdjustUniforms{
		Width:  uint32(width),
		Height: uint32(height),
	}
	packLight(&u, a.Light)
	packEffects(&u, a.Effects)
	packDetail(&u, a.Detail)
	packGrading(&u, a.Grading)
	packHSL(&u, a.HSL)
	return u
}

// MaskedUniformsFor packs a mask container's adjustment subset. UseMask is
// set so the stage blends its effect by the per-pixel weight buffer.
func MaskedUniformsFor(ma adjust.MaskAdjustments, width, height int) AdjustUniforms {
	u := AdjustUniforms{
		Width:   uint32(width),
		Height:  uint32(height),
		UseMask: 1,
	}
	packLight(&u, ma.Light)
	packEffects(&u, ma.Effects)
	packDetail(&u, ma.Detail)
	packGrading(&u, ma.Grading)
	packHSL(&u, ma.HSL)
	return u
}

func packLight(u *AdjustUniforms, l adjust.Light) {
	u.Exposure = float32(l.Exposure)
	u.Contrast = float32(l.Contrast / 100)
	u.Highlights = float32(l.Highlights / 100)
	u.Shadows = float32(l.Shadows / 100)
	u.Whites = float32(l.Whites / 100)
	u.Blacks = float32(l.Blacks / 100)
}

func packEffects(u *AdjustUniforms, e adjust.Effects) {
	u.Saturation = float32(e.Saturation / 100)
	u.Vibrance = float32(e.Vibrance / 100)
	u.Temperature = float32(e.Temperature / 100)
	u.Tint = float32(e.Tint / 100)
	u.Dehaze = float32(e.Dehaze / 100)
	u.Texture = float32(e.Texture / 100)
	u.VignetteAmount = float32(e.VignetteAmount / 100)
	u.VignetteMidpoint = float32(e.VignetteMidpoint / 100)
	u.GrainAmount = float32(e.GrainAmount / 100)
	u.GrainSize = float32(e.GrainSize / 100)
}

func packDetail(u *AdjustUniforms, d adjust.Detail) {
	u.SharpenAmount = float32(d.SharpenAmount / 100)
	u.SharpenRadius = float32(d.SharpenRadius)
	u.NoiseLuma = float32(d.NoiseLuma / 100)
	u.NoiseChroma = float32(d.NoiseChroma / 100)
}

func packGrading(u *AdjustUniforms, g adjust.Grading) {
	u.ShadowHue = radians(g.Shadows.Hue)
	u.ShadowSat = float32(g.Shadows.Saturation / 100)
	u.ShadowLum = float32(g.Shadows.Luminance / 100)
	u.MidHue = radians(g.Midtones.Hue)
	u.MidSat = float32(g.Midtones.Saturation / 100)
	u.MidLum = float32(g.Midtones.Luminance / 100)
	u.HighHue = radians(g.Highlights.Hue)
	u.HighSat = float32(g.Highlights.Saturation / 100)
	u.HighLum = float32(g.Highlights.Luminance / 100)
	u.GradeBlend = float32(g.Blending / 100)
	u.GradeBalance = float32(g.Balance / 100)
}

func packHSL(u *AdjustUniforms, h adjust.HSL) {
	bands := [8]adjust.Band{
		h.Red, h.Orange, h.Yellow, h.Green,
		h.Aqua, h.Blue, h.Purple, h.Magenta,
	}
	for i, b := range bands {
		u.HSL[i*3] = float32(b.Hue / 100)
		u.HSL[i*3+1] = float32(b.Saturation / 100)
		u.HSL[i*3+2] = float32(b.Luminance / 100)
	}
}

func radians(deg float64) float32 {
	return float32(deg * math.Pi / 180)
}
