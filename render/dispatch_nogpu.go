//go:build nogpu

package render

import (
	"context"

	"github.com/gogpu/darkroom/internal/gpu"
)

// Without the GPU backend compiled in, every dispatch reports the device as
// unavailable. Cache and scheduling behavior is unchanged.
type nogpuDispatcher struct{}

func newDefaultDispatcher(_ gpu.DeviceProvider) Dispatcher {
	return nogpuDispatcher{}
}

func (nogpuDispatcher) Dispatch(context.Context, *Job) ([]uint8, error) {
	return nil, gpu.ErrDeviceUnavailable
}

func (nogpuDispatcher) Close() {}
