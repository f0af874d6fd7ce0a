// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/gfx"
)

// CreateShaderModule implements gfx.Device.
func (d *Device) CreateShaderModule(code []byte) (gfx.ShaderModule, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &module)); err != nil {
		return nil, errors.New("vk.CreateShaderModule(): " + err.Error())
	}
	return module, nil
}

// DestroyShaderModule implements gfx.Device.
func (d *Device) DestroyShaderModule(mod gfx.ShaderModule) {
	vk.DestroyShaderModule(d.device, mod.(vk.ShaderModule), nil)
}

// CreatePipelineLayout implements gfx.Device. The pipeline carries no
// descriptors or push constants, so the layout is empty.
func (d *Device) CreatePipelineLayout() (gfx.PipelineLayout, error) {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(d.device, &plci, nil, &layout)); err != nil {
		return nil, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}
	return layout, nil
}

// DestroyPipelineLayout implements gfx.Device.
func (d *Device) DestroyPipelineLayout(layout gfx.PipelineLayout) {
	vk.DestroyPipelineLayout(d.device, layout.(vk.PipelineLayout), nil)
}

// CreatePipeline implements gfx.Device. The viewport and scissor are static
// and baked from cfg.Extent; a new extent needs a new pipeline.
func (d *Device) CreatePipeline(cfg gfx.PipelineConfig) (gfx.Pipeline, error) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: cfg.VertexShader.(vk.ShaderModule),
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: cfg.FragmentShader.(vk.ShaderModule),
			PName:  "main\x00",
		},
	}

	binding := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    cfg.VertexStride,
		InputRate: vk.VertexInputRateVertex,
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(cfg.VertexAttributes))
	for idx, attr := range cfg.VertexAttributes {
		attributes[idx] = vk.VertexInputAttributeDescription{
			Location: attr.Location,
			Binding:  0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   attr.Offset,
		}
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}

	viewport := vk.Viewport{
		Width:    float32(cfg.Extent.Width),
		Height:   float32(cfg.Extent.Height),
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Extent: vk.Extent2D{
			Width:  cfg.Extent.Width,
			Height: cfg.Extent.Height,
		},
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports:    []vk.Viewport{viewport},
		ScissorCount:  1,
		PScissors:     []vk.Rect2D{scissor},
	}

	rasterization := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceClockwise,
		LineWidth:   1.0,
	}

	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	blendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorOne,
		DstColorBlendFactor: vk.BlendFactorZero,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	gpci := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterization,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		Layout:              cfg.Layout.(vk.PipelineLayout),
		RenderPass:          cfg.RenderPass.(vk.RenderPass),
	}

	pipelines := make([]vk.Pipeline, 1)
	result := vk.CreateGraphicsPipelines(
		d.device, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{gpci}, nil, pipelines)
	if err := vk.Error(result); err != nil {
		return nil, errors.New("vk.CreateGraphicsPipelines(): " + err.Error())
	}
	return pipelines[0], nil
}

// DestroyPipeline implements gfx.Device.
func (d *Device) DestroyPipeline(p gfx.Pipeline) {
	vk.DestroyPipeline(d.device, p.(vk.Pipeline), nil)
}
