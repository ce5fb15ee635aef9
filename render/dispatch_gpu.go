//go:build !nogpu

package render

import (
	"context"
	"fmt"

	"github.com/gogpu/darkroom/internal/gpu"
)

// gpuDispatcher executes jobs on the process-wide GPU context. The context
// is acquired lazily on the first dispatch so a machine without an adapter
// fails per-render with ErrDeviceUnavailable instead of at construction.
type gpuDispatcher struct {
	provider gpu.DeviceProvider
	ctx      *gpu.Context
}

func newDefaultDispatcher(provider gpu.DeviceProvider) Dispatcher {
	return &gpuDispatcher{provider: provider}
}

func (d *gpuDispatcher) Dispatch(ctx context.Context, job *Job) ([]uint8, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.ctx == nil {
		var err error
		if d.provider != nil {
			d.ctx, err = gpu.AcquireWith(d.provider)
		} else {
			d.ctx, err = gpu.Acquire()
		}
		if err != nil {
			return nil, err
		}
	}

	// The texture key carries the resolution so switching between preview
	// and export sizes replaces the uploaded source.
	texID := fmt.Sprintf("%s@%dx%d", job.ImageID, job.Width, job.Height)
	src, err := d.ctx.UploadSource(texID, job.Width, job.Height, job.Pix)
	if err != nil {
		return nil, err
	}

	req := &gpu.DispatchRequest{
		Source:   src,
		Uniforms: gpu.UniformsFor(job.Adjust, job.Width, job.Height),
		LUT:      gpu.BuildCurveLUT(job.Adjust.Curve),
		Layers:   make([]gpu.MaskedLayer, 0, len(job.Layers)),
	}
	for _, layer := range job.Layers {
		req.Layers = append(req.Layers, gpu.MaskedLayer{
			Uniforms: gpu.MaskedUniformsFor(layer.Adjust, job.Width, job.Height),
			LUT:      gpu.BuildCurveLUT(layer.Adjust.Curve),
			Weights:  layer.Weights,
		})
	}
	return d.ctx.Dispatch(req)
}

func (d *gpuDispatcher) Close() {
	// The process-wide context from Acquire outlives any one engine; only
	// contexts built around an adopted provider device are released here.
	if d.ctx != nil && d.provider != nil {
		d.ctx.Close()
	}
	d.ctx = nil
}
