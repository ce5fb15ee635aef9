package gpu

import (
	"math"
	"testing"

	"github.com/gogpu/darkroom/adjust"
)

func TestUniformsFor_Normalization(t *testing.T) {
	a := adjust.Default()
	a.Light.Exposure = 1.5
	a.Light.Contrast = 50
	a.Effects.Saturation = -100
	a.Grading.Midtones.Hue = 180
	a.HSL.Blue.Saturation = 25

	u := UniformsFor(a, 640, 480)

	if u.Width != 640 || u.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", u.Width, u.Height)
	}
	if u.UseMask != 0 {
		t.Errorf("UseMask = %d, want 0 for global uniforms", u.UseMask)
	}
	if u.Exposure != 1.5 {
		t.Errorf("Exposure = %v, want 1.5 (stops pass through unscaled)", u.Exposure)
	}
	if u.Contrast != 0.5 {
		t.Errorf("Contrast = %v, want 0.5", u.Contrast)
	}
	if u.Saturation != -1 {
		t.Errorf("Saturation = %v, want -1", u.Saturation)
	}
	if got, want := u.MidHue, float32(math.Pi); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("MidHue = %v, want pi", got)
	}
	// Blue is band index 5; saturation is the middle component.
	if got := u.HSL[5*3+1]; got != 0.25 {
		t.Errorf("blue band saturation = %v, want 0.25", got)
	}
}

func TestUniformsFor_DefaultIsNeutral(t *testing.T) {
	u := UniformsFor(adjust.Default(), 100, 100)
	if u.Exposure != 0 || u.Contrast != 0 || u.Saturation != 0 {
		t.Errorf("default adjustments produced non-neutral uniforms: %+v", u)
	}
	// Vignette midpoint defaults to 50 and normalizes to 0.5.
	if u.VignetteMidpoint != 0.5 {
		t.Errorf("VignetteMidpoint = %v, want 0.5", u.VignetteMidpoint)
	}
	if u.SharpenRadius != 1 {
		t.Errorf("SharpenRadius = %v, want 1", u.SharpenRadius)
	}
}

func TestMaskedUniformsFor_SetsUseMask(t *testing.T) {
	ma := adjust.DefaultMaskAdjustments()
	ma.Light.Exposure = -2
	u := MaskedUniformsFor(ma, 32, 32)
	if u.UseMask != 1 {
		t.Errorf("UseMask = %d, want 1", u.UseMask)
	}
	if u.Exposure != -2 {
		t.Errorf("Exposure = %v, want -2", u.Exposure)
	}
}

func TestBytes_Length(t *testing.T) {
	u := UniformsFor(adjust.Default(), 1, 1)
	if got := len(u.Bytes()); got != UniformStride {
		t.Errorf("len(Bytes()) = %d, want %d", got, UniformStride)
	}
}
