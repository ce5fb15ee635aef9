//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/darkroom/internal/logging"
)

// Context is the process-wide GPU handle: one device/queue pair shared by
// all render requests. It is created lazily on the first render request and
// lives for the rest of the process.
//
// All resource creation and destruction happens on the render worker that
// owns the Context; every other goroutine sees it as read-only.
type Context struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// external is true when the device came from a DeviceProvider; shared
	// resources are not destroyed on Close.
	external bool

	pipes  *pipelineSet
	source *TextureHandle

	adapterName string
}

var (
	acquireOnce sync.Once
	acquired    *Context
	acquireErr  error
)

// Acquire returns the process-wide GPU context, performing adapter selection
// and pipeline compilation on the first call. The result, success or
// failure, is memoized: a machine without a usable adapter keeps returning
// ErrDeviceUnavailable without retrying.
func Acquire() (*Context, error) {
	acquireOnce.Do(func() {
		acquired, acquireErr = newContext()
	})
	return acquired, acquireErr
}

// AcquireWith is like Acquire but adopts the device and queue of an external
// provider. The provider must expose HAL handles via HalDevice()/HalQueue().
// Close never destroys adopted resources.
func AcquireWith(provider DeviceProvider) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL handles", ErrDeviceUnavailable)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrDeviceUnavailable)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrDeviceUnavailable)
	}

	ctx := &Context{
		device:   device,
		queue:    queue,
		external: true,
	}
	pipes, err := newPipelineSet(device)
	if err != nil {
		return nil, err
	}
	ctx.pipes = pipes
	logging.Logger().Info("gpu: using shared GPU device from host provider")
	return ctx, nil
}

// newContext selects an adapter, opens a device and compiles the pipeline.
func newContext() (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrDeviceUnavailable)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrDeviceUnavailable, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters found", ErrDeviceUnavailable)
	}

	// Prefer discrete, then integrated GPUs over software adapters.
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrDeviceUnavailable, err)
	}

	ctx := &Context{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapterName: selected.Info.Name,
	}

	pipes, err := newPipelineSet(ctx.device)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	ctx.pipes = pipes

	logging.Logger().Info("gpu: adapter selected", "adapter", ctx.adapterName)
	return ctx, nil
}

// AdapterName returns the selected adapter's name, if the context created
// its own device.
func (c *Context) AdapterName() string { return c.adapterName }

// Close releases all GPU resources. Adopted external devices are left
// untouched. Safe to call more than once.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source != nil {
		c.source.destroy(c.device)
		c.source = nil
	}
	if c.pipes != nil {
		c.pipes.destroy(c.device)
		c.pipes = nil
	}
	if c.external {
		c.device = nil
		c.queue = nil
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
	c.queue = nil
}
