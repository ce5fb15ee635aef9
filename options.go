package darkroom

import (
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/darkroom/mask"
	"github.com/gogpu/darkroom/render"
)

// DeviceProvider shares a host application's GPU device with the engine.
// Providers additionally exposing HalDevice()/HalQueue() (as gogpu does)
// hand their device straight to the render pipeline.
type DeviceProvider = gpucontext.DeviceProvider

type config struct {
	previewLongEdge  int
	exportQueueDepth int
	maskCacheSize    int
	segmenter        mask.Segmenter
	provider         DeviceProvider
	dispatcher       render.Dispatcher
	autosave         bool
	autosaveDebounce time.Duration
}

// Option configures an Engine.
type Option func(*config)

// WithSegmenter supplies the AI segmentation backend used by aiSubject,
// aiSky and aiForeground sub-masks. Without one, those sub-masks degrade to
// zero coverage with a logged warning.
func WithSegmenter(s mask.Segmenter) Option {
	return func(c *config) { c.segmenter = s }
}

// WithDeviceProvider makes the engine render on a GPU device owned by the
// host application instead of opening its own adapter.
func WithDeviceProvider(p DeviceProvider) Option {
	return func(c *config) { c.provider = p }
}

// WithPreviewLongEdge caps the longer edge of preview renders, in pixels.
// Default is render.DefaultPreviewLongEdge.
func WithPreviewLongEdge(px int) Option {
	return func(c *config) { c.previewLongEdge = px }
}

// WithExportQueueDepth bounds the FIFO export queue; submissions beyond it
// block. Default is render.DefaultExportQueueDepth.
func WithExportQueueDepth(n int) Option {
	return func(c *config) { c.exportQueueDepth = n }
}

// WithMaskCacheSize bounds the composited weight-map cache, in entries.
// Default is render.DefaultMaskCacheSize.
func WithMaskCacheSize(n int) Option {
	return func(c *config) { c.maskCacheSize = n }
}

// WithAutosave writes the sidecar after edits settle, debounced by d
// (sidecar.DefaultDebounce when d <= 0). Images opened without a sidecar
// path are never autosaved.
func WithAutosave(d time.Duration) Option {
	return func(c *config) {
		c.autosave = true
		c.autosaveDebounce = d
	}
}

// withDispatcher substitutes the GPU execution path. Tests only.
func withDispatcher(d render.Dispatcher) Option {
	return func(c *config) { c.dispatcher = d }
}
