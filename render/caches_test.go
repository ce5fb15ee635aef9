package render

import (
	"testing"

	"github.com/gogpu/darkroom/mask"
)

func TestPreviewCache_SingleSlot(t *testing.T) {
	var c PreviewCache
	if _, ok := c.Get(1); ok {
		t.Fatal("empty cache reported a hit")
	}
	c.Put(1, &Result{Width: 2, Height: 2})
	if _, ok := c.Get(1); !ok {
		t.Fatal("stored entry not found")
	}
	if _, ok := c.Get(2); ok {
		t.Fatal("hit on a different key")
	}
	c.Put(3, &Result{Width: 4, Height: 4})
	if _, ok := c.Get(1); ok {
		t.Fatal("old key survived replacement")
	}
	c.Clear()
	if _, ok := c.Get(3); ok {
		t.Fatal("entry survived Clear")
	}
}

func TestPreviewCache_HitIsNotAliased(t *testing.T) {
	var c PreviewCache
	orig := &Result{Pix: []uint8{10, 20, 30, 40}, Width: 1, Height: 1}
	c.Put(1, orig)

	// Mutating the slice that was stored must not reach the cache.
	orig.Pix[0] = 99
	r1, ok := c.Get(1)
	if !ok {
		t.Fatal("stored entry not found")
	}
	if r1.Pix[0] != 10 {
		t.Fatalf("cached pixel = %d, want 10 (Put did not copy)", r1.Pix[0])
	}

	// Mutating a delivered hit must not poison the next hit.
	r1.Pix[1] = 99
	r2, ok := c.Get(1)
	if !ok {
		t.Fatal("entry lost after a hit")
	}
	if r2.Pix[1] != 20 {
		t.Fatalf("cached pixel = %d, want 20 (Get did not copy)", r2.Pix[1])
	}
}

func TestMaskCache_ResolutionIsPartOfTheKey(t *testing.T) {
	c, err := NewMaskCache(4)
	if err != nil {
		t.Fatalf("NewMaskCache: %v", err)
	}
	c.Put(42, 100, 50, mask.Uniform(100, 50, 1))
	if _, ok := c.Get(42, 100, 50); !ok {
		t.Error("miss at stored resolution")
	}
	if _, ok := c.Get(42, 200, 100); ok {
		t.Error("hit at a different resolution")
	}
}

func TestMaskCache_EvictsOldest(t *testing.T) {
	c, err := NewMaskCache(2)
	if err != nil {
		t.Fatalf("NewMaskCache: %v", err)
	}
	c.Put(1, 4, 4, mask.NewMap(4, 4))
	c.Put(2, 4, 4, mask.NewMap(4, 4))
	c.Put(3, 4, 4, mask.NewMap(4, 4))
	if _, ok := c.Get(1, 4, 4); ok {
		t.Error("oldest entry not evicted")
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestScaleToLongEdge(t *testing.T) {
	src := &Source{ImageID: "img", Width: 200, Height: 100, Pix: make([]uint8, 200*100*4)}

	tests := []struct {
		name     string
		longEdge int
		wantW    int
		wantH    int
	}{
		{"no cap", 0, 200, 100},
		{"above source", 400, 200, 100},
		{"halved", 100, 100, 50},
		{"tiny", 10, 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scaleToLongEdge(src, tt.longEdge)
			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("scaled to %dx%d, want %dx%d", got.Width, got.Height, tt.wantW, tt.wantH)
			}
			if len(got.Pix) != got.Width*got.Height*4 {
				t.Errorf("pixel buffer is %d bytes, want %d", len(got.Pix), got.Width*got.Height*4)
			}
		})
	}
}
