// Package mask builds per-pixel weight maps from the sub-mask lists of
// adjustment mask containers.
//
// A weight map holds one float32 in [0, 1] per pixel: the strength at which
// a container's adjustments apply at that pixel. Geometric sub-masks (brush,
// linear, radial) rasterize their own parametric shape, range sub-masks
// (color, luminance) threshold the source image, and AI sub-masks fetch a
// precomputed coverage bitmap from an external segmentation backend through
// the [Segmenter] interface.
//
// Compositing is sequential over the sub-mask list: additive entries paint
// selection on (clamped sum), subtractive entries erase from it
// (multiplicative). Order is therefore significant.
package mask
