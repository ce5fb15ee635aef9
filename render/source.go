package render

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Source is a decoded image handed to the engine by the host's RAW or
// bitmap decoder. Pix is tightly packed RGBA, 4 bytes per pixel. Sources
// are immutable once created; edits never touch them.
type Source struct {
	ImageID string
	Width   int
	Height  int
	Pix     []uint8
}

// NewSource validates the pixel buffer against the stated dimensions.
func NewSource(imageID string, width, height int, pix []uint8) (*Source, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid source dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("render: source pixel buffer is %d bytes, want %d", len(pix), width*height*4)
	}
	return &Source{ImageID: imageID, Width: width, Height: height, Pix: pix}, nil
}

// ID implements mask.Source.
func (s *Source) ID() string { return s.ImageID }

// Size implements mask.Source.
func (s *Source) Size() (int, int) { return s.Width, s.Height }

// Pixels implements mask.Source.
func (s *Source) Pixels() []uint8 { return s.Pix }

// scaleToLongEdge returns a resampled copy whose longer edge is at most
// longEdge pixels. A longEdge of 0, or one at or above the source's long
// edge, returns s unchanged.
func scaleToLongEdge(s *Source, longEdge int) *Source {
	long := max(s.Width, s.Height)
	if longEdge <= 0 || long <= longEdge {
		return s
	}
	scale := float64(longEdge) / float64(long)
	w := max(int(float64(s.Width)*scale+0.5), 1)
	h := max(int(float64(s.Height)*scale+0.5), 1)

	src := &image.RGBA{Pix: s.Pix, Stride: s.Width * 4, Rect: image.Rect(0, 0, s.Width, s.Height)}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)

	return &Source{ImageID: s.ImageID, Width: w, Height: h, Pix: dst.Pix}
}
