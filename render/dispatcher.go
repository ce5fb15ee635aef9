package render

import (
	"context"

	"github.com/gogpu/darkroom/adjust"
)

// WeightedLayer is one visible mask container prepared for dispatch: its
// adjustment subset and the finalized per-pixel weights at job resolution.
type WeightedLayer struct {
	Adjust  adjust.MaskAdjustments
	Weights []float32
}

// Job is one fully resolved unit of GPU work: source pixels already scaled
// to output resolution, the adjustment snapshot, and composited mask
// layers. The scheduler builds jobs; a Dispatcher executes them.
type Job struct {
	ImageID string
	Width   int
	Height  int
	Pix     []uint8
	Adjust  adjust.Adjustments
	Layers  []WeightedLayer
}

// Dispatcher executes resolved render jobs. The production implementation
// submits to the GPU; tests substitute their own via Options.Dispatcher.
// Dispatch is only ever called from the scheduler's worker goroutine.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *Job) ([]uint8, error)
	Close()
}
