//go:build !nogpu

package gpu

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// gpuTimeout bounds the completion wait for a single dispatch. A render
// that takes longer than this has hung the device.
const gpuTimeout = 10 * time.Second

// MaskedLayer is one visible mask container prepared for dispatch: its
// adjustment uniforms (UseMask set), curve LUT and per-pixel weight map,
// already finalized for invert and opacity.
type MaskedLayer struct {
	Uniforms AdjustUniforms
	LUT      []float32
	Weights  []float32
}

// DispatchRequest carries everything one render needs. Source must have
// been uploaded through UploadSource on the same Context.
type DispatchRequest struct {
	Source   *TextureHandle
	Uniforms AdjustUniforms
	LUT      []float32
	Layers   []MaskedLayer
}

// pass pairs a compute pipeline with the bind group for one ping-pong step.
type pass struct {
	pipeline  hal.ComputePipeline
	bindGroup hal.BindGroup
}

// Dispatch runs the full stage sequence on the GPU and returns the rendered
// RGBA pixels at the source's dimensions. Global stages run in fixed order;
// one masked pass per layer is inserted between effects and encode.
//
// Only one Dispatch runs at a time; the context lock serializes submissions
// from preview and export renders.
func (c *Context) Dispatch(req *DispatchRequest) ([]uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.Source == nil || req.Source.buf == nil {
		return nil, fmt.Errorf("%w: no source uploaded", ErrNoSource)
	}
	w, h := req.Source.width, req.Source.height
	pixelCount := w * h
	pixelBufSize := uint64(pixelCount) * 4

	d := newDispatchState(c)
	defer d.cleanup()

	// Two ping-pong storage buffers; the first pass reads the source buffer
	// directly, every later pass alternates between these two.
	pingBuf, err := d.createBuffer("darkroom_ping", pixelBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	pongBuf, err := d.createBuffer("darkroom_pong", pixelBufSize,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	stagingBuf, err := d.createBuffer("darkroom_staging", pixelBufSize,
		gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	globalUB, err := d.uploadBuffer("darkroom_params", req.Uniforms.Bytes(),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	globalLUT, err := d.uploadBuffer("darkroom_lut", floatsToBytes(req.LUT),
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	// Global stages never read weights but the layout requires binding 4.
	dummyWeights, err := d.uploadBuffer("darkroom_noweights", make([]byte, 4),
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	// Build the pass list: src -> ping, then alternate.
	var passes []pass
	srcBuf, dstBuf := req.Source.buf, pingBuf
	addPass := func(entry string, ub, lut, weights hal.Buffer, lutSize, weightsSize uint64) error {
		bg, err := d.createBindGroup(ub, srcBuf, dstBuf, lut, weights, pixelBufSize, lutSize, weightsSize)
		if err != nil {
			return err
		}
		passes = append(passes, pass{pipeline: c.pipes.pipelines[entry], bindGroup: bg})
		if srcBuf == req.Source.buf || srcBuf == pongBuf {
			srcBuf, dstBuf = pingBuf, pongBuf
		} else {
			srcBuf, dstBuf = pongBuf, pingBuf
		}
		return nil
	}

	globalLUTSize := uint64(len(req.LUT)) * 4
	for _, entry := range stageOrder[:len(stageOrder)-1] { // all but encode
		if err := addPass(entry, globalUB, globalLUT, dummyWeights, globalLUTSize, 4); err != nil {
			return nil, err
		}
	}
	for i := range req.Layers {
		layer := &req.Layers[i]
		ub, err := d.uploadBuffer("darkroom_mask_params", layer.Uniforms.Bytes(),
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return nil, err
		}
		lut, err := d.uploadBuffer("darkroom_mask_lut", floatsToBytes(layer.LUT),
			gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
		if err != nil {
			return nil, err
		}
		weights, err := d.uploadBuffer("darkroom_mask_weights", floatsToBytes(layer.Weights),
			gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
		if err != nil {
			return nil, err
		}
		err = addPass(stageMasked, ub, lut, weights,
			uint64(len(layer.LUT))*4, uint64(len(layer.Weights))*4)
		if err != nil {
			return nil, err
		}
	}
	if err := addPass(stageEncode, globalUB, globalLUT, dummyWeights, globalLUTSize, 4); err != nil {
		return nil, err
	}

	// The encode pass wrote into the buffer addPass left as srcBuf.
	finalBuf := srcBuf

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "darkroom_encoder"})
	if err != nil {
		return nil, fmt.Errorf("%w: create command encoder: %w", ErrRenderFailed, err)
	}
	if err := encoder.BeginEncoding("darkroom_render"); err != nil {
		return nil, fmt.Errorf("%w: begin encoding: %w", ErrRenderFailed, err)
	}

	// One compute pass per stage; implicit storage barriers between passes
	// order the ping-pong writes.
	for _, p := range passes {
		cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "darkroom_stage"})
		cp.SetPipeline(p.pipeline)
		cp.SetBindGroup(0, p.bindGroup, nil)
		cp.Dispatch((uint32(w)+7)/8, (uint32(h)+7)/8, 1)
		cp.End()
	}
	encoder.CopyBufferToBuffer(finalBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("%w: end encoding: %w", ErrRenderFailed, err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	subIdx, err := c.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, fmt.Errorf("%w: submit: %w", ErrRenderFailed, err)
	}
	if err := c.waitSubmission(subIdx); err != nil {
		return nil, err
	}

	mapping, err := c.device.MapBuffer(stagingBuf, 0, pixelBufSize)
	if err != nil {
		return nil, fmt.Errorf("%w: map staging buffer: %w", ErrRenderFailed, err)
	}
	readback := make([]byte, pixelBufSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), pixelBufSize))
	if err := c.device.UnmapBuffer(stagingBuf); err != nil {
		return nil, fmt.Errorf("%w: unmap staging buffer: %w", ErrRenderFailed, err)
	}
	return unpackPixels(readback, pixelCount), nil
}

// waitSubmission blocks until the queue reports the submission complete.
// WaitIdle does the heavy wait; the poll loop covers backends where idle
// and submission bookkeeping settle separately.
func (c *Context) waitSubmission(subIdx uint64) error {
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("%w: wait for GPU: %w", ErrRenderFailed, err)
	}
	deadline := time.Now().Add(gpuTimeout)
	for c.queue.PollCompleted() < subIdx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: GPU did not complete submission %d within %s",
				ErrRenderFailed, subIdx, gpuTimeout)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// dispatchState tracks per-dispatch transient resources so that every exit
// path releases them.
type dispatchState struct {
	ctx        *Context
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
}

func newDispatchState(c *Context) *dispatchState {
	return &dispatchState{ctx: c}
}

func (d *dispatchState) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.ctx.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("%w: create %s buffer: %w", ErrRenderFailed, label, err)
	}
	d.buffers = append(d.buffers, buf)
	return buf, nil
}

func (d *dispatchState) uploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.createBuffer(label, uint64(len(data)), usage)
	if err != nil {
		return nil, err
	}
	if err := d.ctx.queue.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("%w: write %s buffer: %w", ErrRenderFailed, label, err)
	}
	return buf, nil
}

func (d *dispatchState) createBindGroup(ub, src, dst, lut, weights hal.Buffer, pixelSize, lutSize, weightsSize uint64) (hal.BindGroup, error) {
	bg, err := d.ctx.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "darkroom_bind",
		Layout: d.ctx.pipes.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: UniformStride}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: src.NativeHandle(), Offset: 0, Size: pixelSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dst.NativeHandle(), Offset: 0, Size: pixelSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: lut.NativeHandle(), Offset: 0, Size: lutSize}},
			{Binding: 4, Resource: gputypes.BufferBinding{Buffer: weights.NativeHandle(), Offset: 0, Size: weightsSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create bind group: %w", ErrRenderFailed, err)
	}
	d.bindGroups = append(d.bindGroups, bg)
	return bg, nil
}

func (d *dispatchState) cleanup() {
	for _, bg := range d.bindGroups {
		d.ctx.device.DestroyBindGroup(bg)
	}
	for _, buf := range d.buffers {
		d.ctx.device.DestroyBuffer(buf)
	}
	d.buffers = nil
	d.bindGroups = nil
}

func floatsToBytes(fs []float32) []byte {
	if len(fs) == 0 {
		return make([]byte, 4)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&fs[0])), len(fs)*4) //nolint:gosec // safe struct serialization
}
