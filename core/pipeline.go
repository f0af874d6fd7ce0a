// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "github.com/devblok/lumen/gfx"

// buildPipeline compiles the fixed triangle pipeline against the current
// extent and render pass: one per-vertex float2 position binding, triangle
// list, fill mode without culling, no depth or stencil, straight-overwrite
// blending, viewport and scissor baked to the full extent.
//
// Shader modules are transient: they are destroyed once pipeline creation
// has run, whether it succeeded or not.
func (r *frameRenderer) buildPipeline() error {
	vert, err := r.dev.CreateShaderModule(r.cfg.VertexShader)
	if err != nil {
		return &PipelineError{Op: "vertex shader module", Err: err}
	}
	defer r.dev.DestroyShaderModule(vert)

	frag, err := r.dev.CreateShaderModule(r.cfg.FragmentShader)
	if err != nil {
		return &PipelineError{Op: "fragment shader module", Err: err}
	}
	defer r.dev.DestroyShaderModule(frag)

	layout, err := r.dev.CreatePipelineLayout()
	if err != nil {
		return &PipelineError{Op: "layout", Err: err}
	}

	pipeline, err := r.dev.CreatePipeline(gfx.PipelineConfig{
		VertexShader:   vert,
		FragmentShader: frag,
		VertexStride:   VertexStride,
		VertexAttributes: []gfx.VertexAttribute{
			{Location: 0, Offset: 0},
		},
		Extent:     r.extent,
		RenderPass: r.renderPass,
		Layout:     layout,
	})
	if err != nil {
		r.dev.DestroyPipelineLayout(layout)
		return &PipelineError{Op: "create", Err: err}
	}

	r.pipelineLayout = layout
	r.pipeline = pipeline
	return nil
}

func (r *frameRenderer) destroyPipeline() {
	if r.pipeline != nil {
		r.dev.DestroyPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipelineLayout != nil {
		r.dev.DestroyPipelineLayout(r.pipelineLayout)
		r.pipelineLayout = nil
	}
}
