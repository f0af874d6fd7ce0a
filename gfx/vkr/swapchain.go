// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/lumen/gfx"
)

func formatToVulkan(f gfx.Format) vk.Format {
	switch f {
	case gfx.FormatBGRA8Srgb:
		return vk.FormatB8g8r8a8Srgb
	case gfx.FormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case gfx.FormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm
	default:
		return vk.FormatR8g8b8a8Srgb
	}
}

func formatFromVulkan(f vk.Format) (gfx.Format, bool) {
	switch f {
	case vk.FormatR8g8b8a8Srgb:
		return gfx.FormatRGBA8Srgb, true
	case vk.FormatB8g8r8a8Srgb:
		return gfx.FormatBGRA8Srgb, true
	case vk.FormatR8g8b8a8Unorm:
		return gfx.FormatRGBA8Unorm, true
	case vk.FormatB8g8r8a8Unorm:
		return gfx.FormatBGRA8Unorm, true
	default:
		return 0, false
	}
}

func presentModeToVulkan(m gfx.PresentMode) vk.PresentMode {
	switch m {
	case gfx.PresentModeMailbox:
		return vk.PresentModeMailbox
	case gfx.PresentModeRelaxed:
		return vk.PresentModeFifoRelaxed
	case gfx.PresentModeImmediate:
		return vk.PresentModeImmediate
	default:
		return vk.PresentModeFifo
	}
}

func presentModeFromVulkan(m vk.PresentMode) (gfx.PresentMode, bool) {
	switch m {
	case vk.PresentModeMailbox:
		return gfx.PresentModeMailbox, true
	case vk.PresentModeFifo:
		return gfx.PresentModeFifo, true
	case vk.PresentModeFifoRelaxed:
		return gfx.PresentModeRelaxed, true
	case vk.PresentModeImmediate:
		return gfx.PresentModeImmediate, true
	default:
		return 0, false
	}
}

func compositeAlphaToVulkan(a gfx.CompositeAlpha) vk.CompositeAlphaFlagBits {
	switch a {
	case gfx.CompositeAlphaInherit:
		return vk.CompositeAlphaInheritBit
	case gfx.CompositeAlphaPremultiplied:
		return vk.CompositeAlphaPreMultipliedBit
	case gfx.CompositeAlphaPostmultiplied:
		return vk.CompositeAlphaPostMultipliedBit
	default:
		return vk.CompositeAlphaOpaqueBit
	}
}

func compositeAlphaFromVulkan(a vk.CompositeAlphaFlagBits) gfx.CompositeAlpha {
	switch a {
	case vk.CompositeAlphaInheritBit:
		return gfx.CompositeAlphaInherit
	case vk.CompositeAlphaPreMultipliedBit:
		return gfx.CompositeAlphaPremultiplied
	case vk.CompositeAlphaPostMultipliedBit:
		return gfx.CompositeAlphaPostmultiplied
	default:
		return gfx.CompositeAlphaOpaque
	}
}

// CreateSwapchain implements gfx.Device.
func (d *Device) CreateSwapchain(cfg gfx.SwapchainConfig, old gfx.Swapchain) (gfx.Swapchain, []gfx.Image, error) {
	sci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   cfg.ImageCount,
		ImageFormat:     formatToVulkan(cfg.Format),
		ImageColorSpace: vk.ColorSpaceSrgbNonlinear,
		ImageExtent: vk.Extent2D{
			Width:  cfg.Extent.Width,
			Height: cfg.Extent.Height,
		},
		ImageArrayLayers: cfg.ImageLayers,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlphaToVulkan(cfg.CompositeAlpha),
		PresentMode:      presentModeToVulkan(cfg.PresentMode),
		Clipped:          vk.True,
	}
	if old != nil {
		sci.OldSwapchain = old.(vk.Swapchain)
	}

	var chain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &sci, nil, &chain)); err != nil {
		return nil, nil, errors.New("vk.CreateSwapchain(): " + err.Error())
	}

	var imageCount uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, chain, &imageCount, nil)); err != nil {
		vk.DestroySwapchain(d.device, chain, nil)
		return nil, nil, errors.New("vk.GetSwapchainImages(): " + err.Error())
	}
	vkImages := make([]vk.Image, imageCount)
	if err := vk.Error(vk.GetSwapchainImages(d.device, chain, &imageCount, vkImages)); err != nil {
		vk.DestroySwapchain(d.device, chain, nil)
		return nil, nil, errors.New("vk.GetSwapchainImages(): " + err.Error())
	}

	images := make([]gfx.Image, len(vkImages))
	for idx, img := range vkImages {
		images[idx] = img
	}
	return chain, images, nil
}

// DestroySwapchain implements gfx.Device.
func (d *Device) DestroySwapchain(sc gfx.Swapchain) {
	vk.DestroySwapchain(d.device, sc.(vk.Swapchain), nil)
}

// CreateImageView implements gfx.Device.
func (d *Device) CreateImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(vk.Image),
		ViewType: vk.ImageViewType2d,
		Format:   formatToVulkan(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
		return nil, errors.New("vk.CreateImageView(): " + err.Error())
	}
	return view, nil
}

// DestroyImageView implements gfx.Device.
func (d *Device) DestroyImageView(view gfx.ImageView) {
	vk.DestroyImageView(d.device, view.(vk.ImageView), nil)
}

// CreateRenderPass implements gfx.Device. A single color attachment that is
// cleared on load and left ready for presentation, with one external
// dependency so the clear waits for the image to actually be available.
func (d *Device) CreateRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	attachment := vk.AttachmentDescription{
		Format:         formatToVulkan(format),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}

	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorRef},
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{attachment},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(d.device, &rpci, nil, &pass)); err != nil {
		return nil, errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	return pass, nil
}

// DestroyRenderPass implements gfx.Device.
func (d *Device) DestroyRenderPass(pass gfx.RenderPass) {
	vk.DestroyRenderPass(d.device, pass.(vk.RenderPass), nil)
}

// CreateFramebuffer implements gfx.Device.
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, view gfx.ImageView, extent gfx.Extent) (gfx.Framebuffer, error) {
	fbci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.(vk.RenderPass),
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view.(vk.ImageView)},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(d.device, &fbci, nil, &fb)); err != nil {
		return nil, errors.New("vk.CreateFramebuffer(): " + err.Error())
	}
	return fb, nil
}

// DestroyFramebuffer implements gfx.Device.
func (d *Device) DestroyFramebuffer(fb gfx.Framebuffer) {
	vk.DestroyFramebuffer(d.device, fb.(vk.Framebuffer), nil)
}
