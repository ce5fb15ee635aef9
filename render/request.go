package render

import "github.com/gogpu/darkroom/adjust"

// Quality selects the scheduling policy and output resolution for a render.
type Quality int

const (
	// QualityPreview renders at the preview long edge with most-recent-wins
	// scheduling.
	QualityPreview Quality = iota
	// QualityExport renders at full (or caller-requested) resolution
	// through the FIFO export queue.
	QualityExport
)

func (q Quality) String() string {
	if q == QualityExport {
		return "export"
	}
	return "preview"
}

// Request is one render submission. Immutable once created: the adjustment
// snapshot is cloned at submission so caller-side edits during the render
// cannot tear it.
type Request struct {
	ImageID    string
	Adjust     adjust.Adjustments
	Quality    Quality
	Generation uint64

	// LongEdge caps the output's longer edge in pixels, 0 = native.
	// Export only; previews use the scheduler's preview long edge.
	LongEdge int
}

// Result is a completed render: tightly packed RGBA bytes at the rendered
// dimensions, tagged with the generation the request captured.
type Result struct {
	Pix        []uint8
	Width      int
	Height     int
	Generation uint64

	// Cached is true when the result came from the preview cache with no
	// GPU work.
	Cached bool
}
