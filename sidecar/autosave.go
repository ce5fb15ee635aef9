package sidecar

import (
	"sync"
	"time"

	"github.com/gogpu/darkroom/adjust"
	"github.com/gogpu/darkroom/internal/logging"
)

// DefaultDebounce is how long an edit stream must be quiet before the
// autosaver writes the sidecar.
const DefaultDebounce = 2 * time.Second

// Autosaver writes sidecars after edits settle. Note is cheap and never
// blocks on I/O: each call (re)arms a per-path timer, and the write happens
// on the timer's goroutine once the stream goes quiet. Callers feed it from
// settled-edit events.
type Autosaver struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	mu     sync.Mutex
	armed  map[string]armedWrite
	latest map[string]adjust.Adjustments
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

// armedWrite is one scheduled flush. The id stamps the arming; a callback
// whose id no longer matches was superseded by a later Note and must not
// write. Resetting a fired AfterFunc would let one arming fire twice, so
// every Note creates a fresh timer instead.
type armedWrite struct {
	timer *time.Timer
	id    uint64
}

// Note records the current adjustments for path and arms the debounced
// write.
func (a *Autosaver) Note(path string, adj adjust.Adjustments) {
	if path == "" {
		return
	}
	d := a.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.armed == nil {
		a.armed = make(map[string]armedWrite)
		a.latest = make(map[string]adjust.Adjustments)
	}
	a.latest[path] = adj.Clone()

	// Cancel the previous arming. If Stop fails the callback is already
	// running or queued; it balances its own wg slot and then bails out on
	// the id mismatch.
	if prev, ok := a.armed[path]; ok && prev.timer.Stop() {
		a.wg.Done()
	}
	a.seq++
	id := a.seq
	a.wg.Add(1)
	timer := time.AfterFunc(d, func() {
		defer a.wg.Done()
		a.flush(path, id)
	})
	a.armed[path] = armedWrite{timer: timer, id: id}
}

func (a *Autosaver) flush(path string, id uint64) {
	a.mu.Lock()
	cur, ok := a.armed[path]
	if !ok || cur.id != id {
		// Superseded while this callback was in flight.
		a.mu.Unlock()
		return
	}
	adj, ok := a.latest[path]
	delete(a.latest, path)
	delete(a.armed, path)
	a.mu.Unlock()
	if !ok {
		return
	}
	if err := Save(path, adj); err != nil {
		logging.Logger().Error("sidecar: autosave failed", "path", path, "error", err)
	}
}

// Close flushes every pending write synchronously and stops the autosaver.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	// Armings whose callback is already in flight flush on their own
	// goroutine; the ones stopped here are flushed inline.
	pending := make([]armedWrite, 0, len(a.armed))
	paths := make([]string, 0, len(a.armed))
	for path, aw := range a.armed {
		if aw.timer.Stop() {
			a.wg.Done()
			pending = append(pending, aw)
			paths = append(paths, path)
		}
	}
	a.mu.Unlock()

	for i, aw := range pending {
		a.flush(paths[i], aw.id)
	}
	a.wg.Wait()
}
