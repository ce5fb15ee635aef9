//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/darkroom/internal/logging"
)

// TextureHandle is the GPU-resident copy of a decoded source image. Pixels
// are stored as packed RGBA words in a read-only storage buffer, one u32 per
// pixel. At most one handle is live per context; re-uploading a different
// image releases the previous one.
type TextureHandle struct {
	imageID string
	width   int
	height  int
	buf     hal.Buffer
}

// ImageID returns the identity of the uploaded image.
func (t *TextureHandle) ImageID() string { return t.imageID }

// Size returns the pixel dimensions.
func (t *TextureHandle) Size() (int, int) { return t.width, t.height }

func (t *TextureHandle) destroy(device hal.Device) {
	if t.buf != nil {
		device.DestroyBuffer(t.buf)
		t.buf = nil
	}
}

// UploadSource uploads the source pixels for the given image identity.
// Uploading the same identity again is a no-op that returns the existing
// handle; a different identity replaces the cached texture, releasing the
// old one first. Upload is the expensive step the texture cache exists to
// avoid, so the scheduler calls this once per image switch.
func (c *Context) UploadSource(imageID string, width, height int, pix []uint8) (*TextureHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source != nil && c.source.imageID == imageID {
		return c.source, nil
	}

	if len(pix) < width*height*4 {
		return nil, fmt.Errorf("%w: source pixel buffer too short: %d for %dx%d",
			ErrRenderFailed, len(pix), width, height)
	}

	packed := packPixels(pix, width*height)
	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "darkroom_source",
		Size:  uint64(len(packed)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create source buffer: %w", ErrRenderFailed, err)
	}
	if err := c.queue.WriteBuffer(buf, 0, packed); err != nil {
		c.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("%w: upload source pixels: %w", ErrRenderFailed, err)
	}

	if c.source != nil {
		c.source.destroy(c.device)
		logging.Logger().Debug("gpu: replaced source texture",
			"old", c.source.imageID, "new", imageID)
	}
	c.source = &TextureHandle{
		imageID: imageID,
		width:   width,
		height:  height,
		buf:     buf,
	}
	return c.source, nil
}

// Source returns the currently uploaded source handle, or nil.
func (c *Context) Source() *TextureHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// packPixels packs 8-bit RGBA pixels into little-endian u32 words for the
// storage buffer layout the shaders expect.
func packPixels(pix []uint8, count int) []byte {
	out := make([]byte, count*4)
	for i := 0; i < count; i++ {
		r := uint32(pix[i*4])
		g := uint32(pix[i*4+1])
		b := uint32(pix[i*4+2])
		a := uint32(pix[i*4+3])
		binary.LittleEndian.PutUint32(out[i*4:], r|g<<8|b<<16|a<<24)
	}
	return out
}

// unpackPixels expands packed u32 words back into 8-bit RGBA bytes.
func unpackPixels(packed []byte, count int) []uint8 {
	out := make([]uint8, count*4)
	for i := 0; i < count; i++ {
		v := binary.LittleEndian.Uint32(packed[i*4:])
		out[i*4] = uint8(v & 0xFF)
		out[i*4+1] = uint8(v >> 8 & 0xFF)
		out[i*4+2] = uint8(v >> 16 & 0xFF)
		out[i*4+3] = uint8(v >> 24 & 0xFF)
	}
	return out
}
