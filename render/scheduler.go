package render

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/darkroom/adjust"
	"github.com/gogpu/darkroom/internal/gpu"
	"github.com/gogpu/darkroom/internal/logging"
	"github.com/gogpu/darkroom/mask"
)

// Option defaults.
const (
	DefaultPreviewLongEdge  = 1280
	DefaultExportQueueDepth = 4
	DefaultMaskCacheSize    = 32
	defaultEventBuffer      = 16
)

// Options configures a Scheduler. The zero value works: every field has a
// usable default.
type Options struct {
	// PreviewLongEdge caps the longer edge of preview renders, in pixels.
	PreviewLongEdge int

	// ExportQueueDepth bounds the FIFO export queue. Submissions beyond it
	// block the caller.
	ExportQueueDepth int

	// MaskCacheSize bounds the composited weight-map LRU, in entries.
	MaskCacheSize int

	// Segmenter supplies AI coverage bitmaps. Nil degrades AI sub-masks to
	// zero coverage with a warning.
	Segmenter mask.Segmenter

	// DeviceProvider shares a host application's GPU device instead of the
	// engine opening its own adapter.
	DeviceProvider gpu.DeviceProvider

	// Dispatcher overrides GPU execution entirely. Tests use this.
	Dispatcher Dispatcher
}

// pending pairs a request with its reply channel. The channel has capacity
// one so the worker never blocks delivering to a caller that gave up.
type pending struct {
	req   Request
	reply chan reply
}

type reply struct {
	res *Result
	err error
}

// Scheduler owns the render worker, the caches and the generation counters.
// One worker goroutine owns the Dispatcher and serializes all GPU
// submission; preview and export requests funnel to it through two queues
// with different policies.
type Scheduler struct {
	dispatcher      Dispatcher
	comp            mask.Compositor
	previews        PreviewCache
	masks           *MaskCache
	previewLongEdge int

	mu      sync.Mutex
	sources map[string]*Source
	gens    map[string]uint64
	closed  bool

	// previewSlot holds at most the latest unstarted preview request;
	// submitting a newer one replaces it. exportQueue is strict FIFO.
	previewSlot chan *pending
	exportQueue chan *pending

	events chan Event
	quit   chan struct{}
	done   chan struct{}
}

// NewScheduler starts the render worker. Close releases it.
func NewScheduler(opts Options) (*Scheduler, error) {
	if opts.PreviewLongEdge <= 0 {
		opts.PreviewLongEdge = DefaultPreviewLongEdge
	}
	if opts.ExportQueueDepth <= 0 {
		opts.ExportQueueDepth = DefaultExportQueueDepth
	}
	if opts.MaskCacheSize <= 0 {
		opts.MaskCacheSize = DefaultMaskCacheSize
	}
	masks, err := NewMaskCache(opts.MaskCacheSize)
	if err != nil {
		return nil, fmt.Errorf("render: mask cache: %w", err)
	}
	d := opts.Dispatcher
	if d == nil {
		d = newDefaultDispatcher(opts.DeviceProvider)
	}

	s := &Scheduler{
		dispatcher:      d,
		comp:            mask.Compositor{Seg: opts.Segmenter},
		masks:           masks,
		previewLongEdge: opts.PreviewLongEdge,
		sources:         make(map[string]*Source),
		gens:            make(map[string]uint64),
		previewSlot:     make(chan *pending, 1),
		exportQueue:     make(chan *pending, opts.ExportQueueDepth),
		events:          make(chan Event, defaultEventBuffer),
		quit:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	go s.worker()
	return s, nil
}

// SetSource registers a decoded image and bumps its generation: in-flight
// previews for a prior load of the same image become stale.
func (s *Scheduler) SetSource(src *Source) {
	s.mu.Lock()
	s.sources[src.ImageID] = src
	s.gens[src.ImageID]++
	s.mu.Unlock()
}

// Events returns the notification channel. Events are dropped, never
// blocked on, when the subscriber falls behind.
func (s *Scheduler) Events() <-chan Event { return s.events }

// Done is closed once the worker goroutine has exited after Close.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Close stops the worker and releases the dispatcher. Queued requests fail
// with ErrClosed. Safe to call once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.quit)
	<-s.done
	s.dispatcher.Close()
}

// RenderPreview renders imageID with a snapshot of adj at preview
// resolution, blocking until the result is ready, superseded (ErrStale) or
// ctx is cancelled. Submitting a new preview replaces any unstarted one.
func (s *Scheduler) RenderPreview(ctx context.Context, imageID string, adj adjust.Adjustments) (*Result, error) {
	gen, err := s.bumpGeneration(imageID)
	if err != nil {
		return nil, err
	}
	p := &pending{
		req: Request{
			ImageID:    imageID,
			Adjust:     adj.Clone(),
			Quality:    QualityPreview,
			Generation: gen,
		},
		reply: make(chan reply, 1),
	}

	// Latest-wins: replace any still-queued older request outright.
	for {
		select {
		case <-s.quit:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		case s.previewSlot <- p:
			return s.await(ctx, p)
		default:
		}
		select {
		case old := <-s.previewSlot:
			old.reply <- reply{err: ErrStale}
		default:
		}
	}
}

// RenderExport renders imageID at full resolution, or capped to longEdge
// when longEdge > 0. Exports queue FIFO and always run to completion; they
// are never preempted by newer previews.
func (s *Scheduler) RenderExport(ctx context.Context, imageID string, adj adjust.Adjustments, longEdge int) (*Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	gen := s.gens[imageID]
	s.mu.Unlock()

	p := &pending{
		req: Request{
			ImageID:    imageID,
			Adjust:     adj.Clone(),
			Quality:    QualityExport,
			Generation: gen,
			LongEdge:   longEdge,
		},
		reply: make(chan reply, 1),
	}
	select {
	case <-s.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case s.exportQueue <- p:
	}
	return s.await(ctx, p)
}

func (s *Scheduler) await(ctx context.Context, p *pending) (*Result, error) {
	select {
	case r := <-p.reply:
		return r.res, r.err
	case <-ctx.Done():
		// The worker may still run the job; its result is simply never
		// delivered (the reply channel is buffered).
		return nil, ctx.Err()
	}
}

func (s *Scheduler) bumpGeneration(imageID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.gens[imageID]++
	return s.gens[imageID], nil
}

func (s *Scheduler) currentGeneration(imageID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[imageID]
}

func (s *Scheduler) sourceFor(imageID string) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources[imageID]
}

// worker owns the dispatcher. All GPU submission happens here, one request
// at a time.
func (s *Scheduler) worker() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			s.drain()
			return
		case p := <-s.exportQueue:
			s.handle(p)
		case p := <-s.previewSlot:
			s.handle(p)
		}
	}
}

func (s *Scheduler) drain() {
	for {
		select {
		case p := <-s.exportQueue:
			p.reply <- reply{err: ErrClosed}
		case p := <-s.previewSlot:
			p.reply <- reply{err: ErrClosed}
		default:
			return
		}
	}
}

func (s *Scheduler) handle(p *pending) {
	res, err := s.run(&p.req)
	p.reply <- reply{res: res, err: err}

	switch {
	case err == nil && p.req.Quality == QualityPreview:
		s.emit(Event{Kind: EventRendered, ImageID: p.req.ImageID, Quality: p.req.Quality, Generation: p.req.Generation})
		// No newer preview pending means the edit stream has settled;
		// persistence subscribers save on this.
		if len(s.previewSlot) == 0 {
			s.emit(Event{Kind: EventSettled, ImageID: p.req.ImageID, Quality: p.req.Quality, Generation: p.req.Generation})
		}
	case err == nil:
		s.emit(Event{Kind: EventRendered, ImageID: p.req.ImageID, Quality: p.req.Quality, Generation: p.req.Generation})
	case errors.Is(err, ErrStale):
		// Staleness is not a failure; dropped silently.
	default:
		s.emit(Event{Kind: EventFailed, ImageID: p.req.ImageID, Quality: p.req.Quality, Generation: p.req.Generation, Err: err})
	}
}

// run resolves one request: cache lookup, mask composition, dispatch,
// cache population. Stale previews short-circuit before and after the GPU
// work; exports never go stale.
func (s *Scheduler) run(req *Request) (*Result, error) {
	src := s.sourceFor(req.ImageID)
	if src == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSource, req.ImageID)
	}

	preview := req.Quality == QualityPreview
	if preview && s.currentGeneration(req.ImageID) != req.Generation {
		return nil, ErrStale
	}

	var key uint64
	if preview {
		key = req.Adjust.Hash(req.ImageID)
		if res, ok := s.previews.Get(key); ok {
			res.Generation = req.Generation
			res.Cached = true
			return res, nil
		}
	}

	longEdge := req.LongEdge
	if preview {
		longEdge = s.previewLongEdge
	}
	scaled := scaleToLongEdge(src, longEdge)

	job := &Job{
		ImageID: req.ImageID,
		Width:   scaled.Width,
		Height:  scaled.Height,
		Pix:     scaled.Pix,
		Adjust:  req.Adjust,
	}

	// Composite visible mask containers, reusing cached composites where
	// the sub-mask list is unchanged. New composites are staged and only
	// committed to the cache after a successful dispatch, so a failed
	// render leaves no partial state behind.
	type staged struct {
		hash uint64
		m    *mask.Map
	}
	var newComposites []staged
	for _, mc := range req.Adjust.Masks {
		if !mc.Visible || len(mc.SubMasks) == 0 {
			continue
		}
		hash := mc.SubMaskHash(req.ImageID)
		composite, ok := s.masks.Get(hash, scaled.Width, scaled.Height)
		if !ok {
			var err error
			composite, err = s.comp.CompositeSubMasks(context.Background(), scaled, mc.SubMasks)
			if err != nil {
				return nil, err
			}
			newComposites = append(newComposites, staged{hash: hash, m: composite})
		}
		final := mask.Finalize(composite, mc.Invert, mc.Opacity)
		job.Layers = append(job.Layers, WeightedLayer{Adjust: mc.Adjust, Weights: final.Data()})
	}

	pix, err := s.dispatcher.Dispatch(context.Background(), job)
	if err != nil {
		logging.Logger().Error("render: dispatch failed",
			"image", req.ImageID, "quality", req.Quality.String(), "error", err)
		return nil, err
	}

	for _, st := range newComposites {
		s.masks.Put(st.hash, scaled.Width, scaled.Height, st.m)
	}

	res := &Result{
		Pix:        pix,
		Width:      scaled.Width,
		Height:     scaled.Height,
		Generation: req.Generation,
	}

	if preview {
		// A request superseded while on the GPU still finished its work;
		// the result is discarded here and never cached or delivered.
		if s.currentGeneration(req.ImageID) != req.Generation {
			return nil, ErrStale
		}
		s.previews.Put(key, res)
	}
	return res, nil
}

func (s *Scheduler) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		// Subscriber fell behind; dropping beats blocking the worker.
	}
}
