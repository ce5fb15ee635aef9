//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/adjust.wgsl
var adjustShaderSource string

// Stage names in dispatch order. The masked stage is not listed here: it
// runs between effects and encode, once per visible mask container.
const (
	stageColorspace = "stage_colorspace"
	stageExposure   = "stage_exposure"
	stageCurve      = "stage_curve"
	stageHSL        = "stage_hsl"
	stageGrade      = "stage_grade"
	stageDetail     = "stage_detail"
	stageEffects    = "stage_effects"
	stageMasked     = "stage_masked"
	stageEncode     = "stage_encode"
)

// stageOrder is the fixed global pass sequence. Masked passes are inserted
// between stageEffects and stageEncode by Dispatch.
var stageOrder = []string{
	stageColorspace,
	stageExposure,
	stageCurve,
	stageHSL,
	stageGrade,
	stageDetail,
	stageEffects,
	stageEncode,
}

// pipelineSet holds the compiled shader module and one compute pipeline per
// entry point. All pipelines share a single bind group layout:
//
//	binding 0: uniform Params
//	binding 1: read-only storage, packed input pixels
//	binding 2: read-write storage, packed output pixels
//	binding 3: read-only storage, curve LUT (4 x 256 f32)
//	binding 4: read-only storage, mask weights
type pipelineSet struct {
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[string]hal.ComputePipeline
}

// newPipelineSet compiles the adjustment shader and builds every stage
// pipeline. Any failure wraps ErrShaderCompile; callers treat it as fatal
// for the context.
func newPipelineSet(device hal.Device) (*pipelineSet, error) {
	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "darkroom_adjust",
		Source: hal.ShaderSource{WGSL: adjustShaderSource},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: compile adjust shader: %w", ErrShaderCompile, err)
	}

	ps := &pipelineSet{
		shader:    shader,
		pipelines: make(map[string]hal.ComputePipeline),
	}

	readOnly := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	ps.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "darkroom_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: readOnly},
		},
	})
	if err != nil {
		ps.destroy(device)
		return nil, fmt.Errorf("%w: create bind group layout: %w", ErrShaderCompile, err)
	}

	ps.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "darkroom_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{ps.bindLayout},
	})
	if err != nil {
		ps.destroy(device)
		return nil, fmt.Errorf("%w: create pipeline layout: %w", ErrShaderCompile, err)
	}

	entryPoints := append(append([]string{}, stageOrder...), stageMasked)
	for _, entry := range entryPoints {
		p, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:   "darkroom_" + entry,
			Layout:  ps.pipeLayout,
			Compute: hal.ComputeState{Module: ps.shader, EntryPoint: entry},
		})
		if err != nil {
			ps.destroy(device)
			return nil, fmt.Errorf("%w: create pipeline %s: %w", ErrShaderCompile, entry, err)
		}
		ps.pipelines[entry] = p
	}

	return ps, nil
}

func (ps *pipelineSet) destroy(device hal.Device) {
	for name, p := range ps.pipelines {
		device.DestroyComputePipeline(p)
		delete(ps.pipelines, name)
	}
	if ps.pipeLayout != nil {
		device.DestroyPipelineLayout(ps.pipeLayout)
		ps.pipeLayout = nil
	}
	if ps.bindLayout != nil {
		device.DestroyBindGroupLayout(ps.bindLayout)
		ps.bindLayout = nil
	}
	if ps.shader != nil {
		device.DestroyShaderModule(ps.shader)
		ps.shader = nil
	}
}
