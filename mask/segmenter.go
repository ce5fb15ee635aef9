package mask

import (
	"context"
	"errors"

	"github.com/gogpu/darkroom/adjust"
)

// ErrSegmentationUnavailable indicates the segmentation backend could not
// supply a coverage bitmap. Compositing degrades to an all-zero coverage map
// for the affected sub-mask; the rest of the pipeline is never blocked.
var ErrSegmentationUnavailable = errors.New("mask: segmentation backend unavailable")

// Segmenter supplies precomputed AI coverage bitmaps for subject, sky and
// foreground selections. Implementations are external to the render core;
// ref is the bitmap reference hash carried by the sub-mask.
//
// Coverage returns a map sized to the source image with weights in [0, 1].
// Implementations should return an error wrapping
// [ErrSegmentationUnavailable] when the lookup fails.
type Segmenter interface {
	Coverage(ctx context.Context, imageID string, kind adjust.SubMaskKind, ref string) (*Map, error)
}

// SegmenterFunc adapts a function to the Segmenter interface.
type SegmenterFunc func(ctx context.Context, imageID string, kind adjust.SubMaskKind, ref string) (*Map, error)

// Coverage calls f.
func (f SegmenterFunc) Coverage(ctx context.Context, imageID string, kind adjust.SubMaskKind, ref string) (*Map, error) {
	return f(ctx, imageID, kind, ref)
}
