package render

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/darkroom/mask"
)

// PreviewCache holds the last rendered preview keyed by the snapshot hash
// of (image identity, adjustments). Single-slot: only the most recent
// preview is ever needed, and any edit or image switch changes the key.
//
// The cache owns its pixel slice. Put and Get both copy, so a caller
// mutating a delivered Result cannot poison later hits.
type PreviewCache struct {
	mu  sync.Mutex
	key uint64
	res *Result
}

// Get returns a copy of the cached result when key matches the stored
// entry.
func (c *PreviewCache) Get(key uint64) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res == nil || c.key != key {
		return nil, false
	}
	out := *c.res
	out.Pix = append([]uint8(nil), c.res.Pix...)
	return &out, true
}

// Put replaces the slot with a copy of res.
func (c *PreviewCache) Put(key uint64, res *Result) {
	stored := *res
	stored.Pix = append([]uint8(nil), res.Pix...)
	c.mu.Lock()
	c.key = key
	c.res = &stored
	c.mu.Unlock()
}

// Clear empties the slot.
func (c *PreviewCache) Clear() {
	c.mu.Lock()
	c.res = nil
	c.mu.Unlock()
}

// maskKey identifies a composited weight map: the container's sub-mask list
// hash plus the resolution it was composited at. Preview and export renders
// of the same container are distinct entries.
type maskKey struct {
	hash   uint64
	width  int
	height int
}

// MaskCache is an LRU of composited per-container weight maps. Hashes cover
// only the sub-mask list, not invert/opacity, so scrubbing those container
// sliders reuses the cached composite.
type MaskCache struct {
	lru *lru.Cache[maskKey, *mask.Map]
}

// NewMaskCache creates a cache bounded to size entries.
func NewMaskCache(size int) (*MaskCache, error) {
	l, err := lru.New[maskKey, *mask.Map](size)
	if err != nil {
		return nil, err
	}
	return &MaskCache{lru: l}, nil
}

// Get returns the composited map for a container at the given resolution.
func (c *MaskCache) Get(hash uint64, width, height int) (*mask.Map, bool) {
	return c.lru.Get(maskKey{hash: hash, width: width, height: height})
}

// Put stores a composited map. The map must not be mutated afterwards;
// renders clone it before applying invert/opacity.
func (c *MaskCache) Put(hash uint64, width, height int, m *mask.Map) {
	c.lru.Add(maskKey{hash: hash, width: width, height: height}, m)
}

// Purge drops every entry.
func (c *MaskCache) Purge() { c.lru.Purge() }

// Len returns the number of cached composites.
func (c *MaskCache) Len() int { return c.lru.Len() }
