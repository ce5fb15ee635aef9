package darkroom

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/darkroom/adjust"
	"github.com/gogpu/darkroom/render"
	"github.com/gogpu/darkroom/sidecar"
)

// Source is a decoded image buffer handed to the engine. Alias of
// render.Source so callers need only this package.
type Source = render.Source

// NewSource validates a pixel buffer against its stated dimensions.
func NewSource(imageID string, width, height int, pix []uint8) (*Source, error) {
	return render.NewSource(imageID, width, height, pix)
}

// Engine is the façade over the render scheduler, the adjustment state and
// sidecar persistence. One Engine serves any number of open images; renders
// for all of them share the scheduler's GPU worker.
//
// Adjustment state is caller-driven: Adjustments returns the current value,
// the caller mutates its copy and commits it with SetAdjustments. Renders
// snapshot the committed state, so commits during an in-flight render never
// tear it.
type Engine struct {
	sched *render.Scheduler
	auto  *sidecar.Autosaver

	mu     sync.Mutex
	images map[string]*imageState
	closed bool

	events   chan render.Event
	pumpDone chan struct{}
}

type imageState struct {
	sourcePath string
	adj        adjust.Adjustments
}

// New starts an engine. The GPU device is acquired lazily on the first
// render, so New succeeds on machines without an adapter; renders there
// fail with render.ErrDeviceUnavailable.
func New(opts ...Option) (*Engine, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	sched, err := render.NewScheduler(render.Options{
		PreviewLongEdge:  cfg.previewLongEdge,
		ExportQueueDepth: cfg.exportQueueDepth,
		MaskCacheSize:    cfg.maskCacheSize,
		Segmenter:        cfg.segmenter,
		DeviceProvider:   cfg.provider,
		Dispatcher:       cfg.dispatcher,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sched:    sched,
		images:   make(map[string]*imageState),
		events:   make(chan render.Event, 16),
		pumpDone: make(chan struct{}),
	}
	if cfg.autosave {
		e.auto = &sidecar.Autosaver{Debounce: cfg.autosaveDebounce}
	}
	go e.pumpEvents()
	return e, nil
}

// OpenImage registers a decoded source and loads its adjustments.
// sourcePath locates the image on disk for sidecar persistence; pass ""
// for in-memory images, which then start from defaults and are never
// autosaved. A corrupt or missing sidecar degrades to defaults.
func (e *Engine) OpenImage(src *Source, sourcePath string) (adjust.Adjustments, error) {
	if src == nil {
		return adjust.Adjustments{}, fmt.Errorf("darkroom: nil source")
	}
	adj := adjust.Default()
	if sourcePath != "" {
		loaded, err := sidecar.Load(sidecar.Path(sourcePath))
		if err != nil {
			Logger().Warn("darkroom: sidecar unreadable, starting from defaults",
				"image", src.ImageID, "error", err)
		}
		adj = loaded
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return adjust.Adjustments{}, render.ErrClosed
	}
	e.images[src.ImageID] = &imageState{sourcePath: sourcePath, adj: adj}
	e.sched.SetSource(src)
	return adj.Clone(), nil
}

// Adjustments returns a copy of the committed adjustment state for imageID.
func (e *Engine) Adjustments(imageID string) (adjust.Adjustments, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.images[imageID]
	if !ok {
		return adjust.Adjustments{}, false
	}
	return st.adj.Clone(), true
}

// SetAdjustments commits adj as the current state for imageID. The value is
// sanitized on the way in, so out-of-range slider values are clamped rather
// than rendered.
func (e *Engine) SetAdjustments(imageID string, adj adjust.Adjustments) error {
	clean := adjust.Sanitize(adj.Clone())
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.images[imageID]
	if !ok {
		return fmt.Errorf("%w: %q", render.ErrNoSource, imageID)
	}
	st.adj = clean
	return nil
}

// RenderPreview renders the committed adjustments for imageID at preview
// resolution. Blocks until delivered, superseded (render.ErrStale) or ctx
// is done. Identical back-to-back calls serve the second from cache.
func (e *Engine) RenderPreview(ctx context.Context, imageID string) (*render.Result, error) {
	adj, err := e.snapshot(imageID)
	if err != nil {
		return nil, err
	}
	return e.sched.RenderPreview(ctx, imageID, adj)
}

// RenderExport renders the committed adjustments at full resolution, capped
// to longEdge pixels when longEdge > 0. Exports queue FIFO and are never
// preempted by preview traffic.
func (e *Engine) RenderExport(ctx context.Context, imageID string, longEdge int) (*render.Result, error) {
	adj, err := e.snapshot(imageID)
	if err != nil {
		return nil, err
	}
	return e.sched.RenderExport(ctx, imageID, adj, longEdge)
}

// Events returns asynchronous render notifications. Slow consumers lose
// events rather than stalling the render worker.
func (e *Engine) Events() <-chan render.Event { return e.events }

// Close stops the scheduler, flushes pending autosaves and releases GPU
// resources. Safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.sched.Close()
	<-e.pumpDone
	if e.auto != nil {
		e.auto.Close()
	}
}

func (e *Engine) snapshot(imageID string) (adjust.Adjustments, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return adjust.Adjustments{}, render.ErrClosed
	}
	st, ok := e.images[imageID]
	if !ok {
		return adjust.Adjustments{}, fmt.Errorf("%w: %q", render.ErrNoSource, imageID)
	}
	return st.adj.Clone(), nil
}

// pumpEvents forwards scheduler events to subscribers and feeds settled
// previews to the autosaver. The scheduler closes nothing; the pump exits
// when the scheduler's channel goes quiet after Close.
func (e *Engine) pumpEvents() {
	defer close(e.pumpDone)
	for {
		select {
		case ev := <-e.sched.Events():
			e.forward(ev)
		case <-e.sched.Done():
			// Drain whatever the worker emitted before exiting.
			for {
				select {
				case ev := <-e.sched.Events():
					e.forward(ev)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) forward(ev render.Event) {
	if ev.Kind == render.EventSettled && e.auto != nil {
		e.noteSettled(ev.ImageID)
	}
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) noteSettled(imageID string) {
	e.mu.Lock()
	st, ok := e.images[imageID]
	var path string
	var adj adjust.Adjustments
	if ok && st.sourcePath != "" {
		path = sidecar.Path(st.sourcePath)
		adj = st.adj.Clone()
	}
	e.mu.Unlock()
	if path != "" {
		e.auto.Note(path, adj)
	}
}
