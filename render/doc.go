// Package render schedules preview and export renders over a single GPU
// worker. Preview requests are most-recent-wins: a newer request supersedes
// an older one and the older result is dropped, never delivered. Export
// requests run through a FIFO queue to completion.
//
// The scheduler owns the caches: a single-slot preview cache keyed by the
// adjustment snapshot hash and an LRU of composited mask weight maps keyed
// by each container's sub-mask list. Callers interact only through
// RenderPreview, RenderExport and the event channel; no shared state leaks
// out.
package render
