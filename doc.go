// Package darkroom is a non-destructive image-adjustment engine.
//
// # Overview
//
// darkroom takes an immutable decoded source image and a declarative set of
// edit parameters and produces rendered pixels on demand, repeatedly, at
// interactive latency, without ever mutating the source. Adjustments run as
// a fixed sequence of GPU compute stages via gogpu/wgpu; edits are persisted
// as JSON sidecars beside the source image.
//
// # Quick Start
//
//	import "github.com/gogpu/darkroom"
//
//	eng, err := darkroom.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	src, _ := darkroom.NewSource("shot-042", w, h, pixels)
//	adj, _ := eng.OpenImage(src, "/shoots/day1/shot-042.nef")
//
//	adj.Light.Exposure = 0.7
//	eng.SetAdjustments(src.ImageID, adj)
//	res, err := eng.RenderPreview(ctx, src.ImageID)
//
// # Architecture
//
// The engine is organized into:
//   - adjust: the versioned adjustment data model and its normalization
//   - mask: sub-mask coverage rasterization and container compositing
//   - render: the scheduler, caches and the GPU dispatch worker
//   - sidecar: JSON persistence and debounced autosave
//
// Preview renders are most-recent-wins: while scrubbing a slider only the
// latest request's result is delivered. Export renders queue FIFO and always
// run to completion.
package darkroom
