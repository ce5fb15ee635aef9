// Command darkroom-demo opens an image, applies a set of adjustments with a
// radial mask and renders a preview and an export PNG.
package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/darkroom"
	"github.com/gogpu/darkroom/adjust"
)

func main() {
	var (
		input    = flag.String("input", "", "input PNG (required)")
		preview  = flag.String("preview", "preview.png", "preview output file")
		export   = flag.String("export", "export.png", "export output file")
		exposure = flag.Float64("exposure", 0.7, "exposure in stops")
		contrast = flag.Float64("contrast", 20, "contrast [-100, 100]")
		vibrance = flag.Float64("vibrance", 30, "vibrance [-100, 100]")
		longEdge = flag.Int("long-edge", 0, "export long edge cap, 0 = native")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()
	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		darkroom.SetLogger(slog.Default())
	}

	src, err := loadPNG(*input)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", *input, err)
	}

	eng, err := darkroom.New(darkroom.WithAutosave(time.Second))
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer eng.Close()

	adj, err := eng.OpenImage(src, *input)
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}

	adj.Light.Exposure = *exposure
	adj.Light.Contrast = *contrast
	adj.Effects.Vibrance = *vibrance

	// Darken everything outside a centered radial mask.
	vignette := adjust.NewMaskContainer()
	vignette.Invert = true
	vignette.SubMasks = []adjust.SubMask{{
		Kind: adjust.SubMaskRadial,
		Mode: adjust.CombineAdditive,
		Radial: &adjust.RadialParams{
			Center:  adjust.CurvePoint{X: 0.5, Y: 0.5},
			RadiusX: 0.4, RadiusY: 0.4,
			Feather: 0.5,
		},
	}}
	vignette.Adjust.Light.Exposure = -1.2
	adj.Masks = append(adj.Masks, vignette)

	if err := eng.SetAdjustments(src.ImageID, adj); err != nil {
		log.Fatalf("Failed to set adjustments: %v", err)
	}

	ctx := context.Background()
	start := time.Now()
	res, err := eng.RenderPreview(ctx, src.ImageID)
	if err != nil {
		log.Fatalf("Preview render failed: %v", err)
	}
	log.Printf("Preview %dx%d in %v", res.Width, res.Height, time.Since(start))
	if err := savePNG(*preview, res.Pix, res.Width, res.Height); err != nil {
		log.Fatalf("Failed to save preview: %v", err)
	}

	start = time.Now()
	res, err = eng.RenderExport(ctx, src.ImageID, *longEdge)
	if err != nil {
		log.Fatalf("Export render failed: %v", err)
	}
	log.Printf("Export %dx%d in %v", res.Width, res.Height, time.Since(start))
	if err := savePNG(*export, res.Pix, res.Width, res.Height); err != nil {
		log.Fatalf("Failed to save export: %v", err)
	}
}

func loadPNG(path string) (*darkroom.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return darkroom.NewSource(path, b.Dx(), b.Dy(), rgba.Pix)
}

func savePNG(path string, pix []uint8, w, h int) error {
	img := &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
