package mask

import (
	"context"
	"errors"

	"github.com/gogpu/darkroom/adjust"
	"github.com/gogpu/darkroom/internal/logging"
)

// Source is the view of a decoded image the compositor needs: dimensions
// plus raw RGBA pixels for the color/luminance range masks.
type Source interface {
	// ID returns the stable image identity used for cache and segmentation
	// backend keys.
	ID() string

	// Size returns the pixel dimensions.
	Size() (width, height int)

	// Pixels returns the decoded 8-bit RGBA pixels, row-major, 4 bytes per
	// pixel. The slice is read-only.
	Pixels() []uint8
}

// Compositor turns a mask container's sub-mask list into a single weight
// map. The zero value composites geometric and range masks; a Segmenter is
// required only for AI sub-masks.
type Compositor struct {
	// Seg fetches AI coverage bitmaps. When nil, AI sub-masks degrade to
	// all-zero coverage with a warning, same as a failing backend.
	Seg Segmenter
}

// Composite produces the container's final weight map: the sub-mask list
// folded in order, then container-level invert and opacity applied.
//
// An empty sub-mask list yields an all-zero map, not an error: the
// container selects nothing, so invert and opacity never apply. A failing
// segmentation lookup degrades that sub-mask to zero coverage.
func (c *Compositor) Composite(ctx context.Context, src Source, mc adjust.MaskContainer) (*Map, error) {
	w, h := src.Size()
	if len(mc.SubMasks) == 0 {
		return NewMap(w, h), nil
	}
	running, err := c.CompositeSubMasks(ctx, src, mc.SubMasks)
	if err != nil {
		return nil, err
	}
	return Finalize(running, mc.Invert, mc.Opacity), nil
}

// CompositeSubMasks folds the sub-mask list into a running weight map
// without applying container-level invert or opacity. This is the cacheable
// part: its result depends only on (image identity, sub-mask list).
//
// Per entry, in list order:
//
//	additive:    running = clamp(running + coverage, 0, 1)
//	subtractive: running = running * (1 - coverage)
func (c *Compositor) CompositeSubMasks(ctx context.Context, src Source, subs []adjust.SubMask) (*Map, error) {
	w, h := src.Size()
	running := NewMap(w, h)

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cov := c.coverage(ctx, src, sub)
		combine(running, cov, sub.Mode)
	}
	return running, nil
}

// Finalize applies container-level invert then opacity to a copy of the
// cached running weight. The input map is not modified.
func Finalize(running *Map, invert bool, opacity float64) *Map {
	out := running.Clone()
	if invert {
		out.Invert()
	}
	out.Scale(float32(opacity))
	return out
}

func combine(running, cov *Map, mode adjust.CombineMode) {
	rd, cd := running.data, cov.data
	switch mode {
	case adjust.CombineSubtractive:
		for i := range rd {
			rd[i] *= 1 - cd[i]
		}
	default:
		for i := range rd {
			rd[i] = clamp01(rd[i] + cd[i])
		}
	}
}

// coverage produces the [0,1] coverage map for a single sub-mask.
func (c *Compositor) coverage(ctx context.Context, src Source, sub adjust.SubMask) *Map {
	w, h := src.Size()
	switch sub.Kind {
	case adjust.SubMaskAll:
		return Uniform(w, h, 1)
	case adjust.SubMaskBrush:
		return brushCoverage(w, h, sub.Brush)
	case adjust.SubMaskLinear:
		return linearCoverage(w, h, sub.Linear)
	case adjust.SubMaskRadial:
		return radialCoverage(w, h, sub.Radial)
	case adjust.SubMaskColor:
		return colorCoverage(src, sub.Color)
	case adjust.SubMaskLuminance:
		return luminanceCoverage(src, sub.Luminance)
	case adjust.SubMaskAiSubject, adjust.SubMaskAiSky, adjust.SubMaskAiForeground:
		return c.aiCoverage(ctx, src, sub)
	}
	// Unknown kinds are filtered out by adjust.Normalize; a stray one
	// selects nothing.
	return NewMap(w, h)
}

func (c *Compositor) aiCoverage(ctx context.Context, src Source, sub adjust.SubMask) *Map {
	w, h := src.Size()
	if c.Seg == nil {
		logging.Logger().Warn("mask: no segmenter configured, AI mask yields no selection",
			"kind", string(sub.Kind), "image", src.ID())
		return NewMap(w, h)
	}
	cov, err := c.Seg.Coverage(ctx, src.ID(), sub.Kind, sub.Ref)
	if err != nil {
		if !errors.Is(err, ErrSegmentationUnavailable) {
			err = errors.Join(ErrSegmentationUnavailable, err)
		}
		logging.Logger().Warn("mask: segmentation lookup failed, degrading to zero coverage",
			"kind", string(sub.Kind), "image", src.ID(), "err", err)
		return NewMap(w, h)
	}
	if cov == nil || cov.width != w || cov.height != h {
		logging.Logger().Warn("mask: segmentation bitmap has wrong dimensions, degrading to zero coverage",
			"kind", string(sub.Kind), "image", src.ID())
		return NewMap(w, h)
	}
	return cov
}
