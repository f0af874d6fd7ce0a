// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "fmt"

// Extent is a surface or image size in physical pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// ClearColor is an RGBA clear value with components in [0,1].
type ClearColor [4]float32

// PresentMode controls how rendered frames are handed to the display.
type PresentMode int

const (
	// PresentModeMailbox replaces the queued image with the newest one.
	PresentModeMailbox PresentMode = iota
	// PresentModeFifo queues images and waits for the vertical blank.
	// Always supported per the native API contract.
	PresentModeFifo
	// PresentModeRelaxed is Fifo that tears instead of stalling when late.
	PresentModeRelaxed
	// PresentModeImmediate presents without waiting for the vertical blank.
	PresentModeImmediate
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFifo:
		return "Fifo"
	case PresentModeRelaxed:
		return "Relaxed"
	case PresentModeImmediate:
		return "Immediate"
	}
	return fmt.Sprintf("PresentMode(%d)", int(m))
}

// CompositeAlpha controls how the surface alpha channel is composited
// with the rest of the windowing system.
type CompositeAlpha int

const (
	CompositeAlphaOpaque CompositeAlpha = iota
	CompositeAlphaInherit
	CompositeAlphaPremultiplied
	CompositeAlphaPostmultiplied
)

func (a CompositeAlpha) String() string {
	switch a {
	case CompositeAlphaOpaque:
		return "Opaque"
	case CompositeAlphaInherit:
		return "Inherit"
	case CompositeAlphaPremultiplied:
		return "Premultiplied"
	case CompositeAlphaPostmultiplied:
		return "Postmultiplied"
	}
	return fmt.Sprintf("CompositeAlpha(%d)", int(a))
}

// Format is a surface pixel format. Only the 8-bit-per-channel formats the
// engine can negotiate are modeled.
type Format int

const (
	FormatRGBA8Srgb Format = iota
	FormatBGRA8Srgb
	FormatRGBA8Unorm
	FormatBGRA8Unorm
)

// IsSrgb reports whether the format carries an sRGB color space.
func (f Format) IsSrgb() bool {
	return f == FormatRGBA8Srgb || f == FormatBGRA8Srgb
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8Srgb:
		return "RGBA8Srgb"
	case FormatBGRA8Srgb:
		return "BGRA8Srgb"
	case FormatRGBA8Unorm:
		return "RGBA8Unorm"
	case FormatBGRA8Unorm:
		return "BGRA8Unorm"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// SurfaceCapabilities describes what the presentation surface supports at
// the time of the query.
type SurfaceCapabilities struct {
	// MinImageCount and MaxImageCount bound the negotiable chain length.
	MinImageCount uint32
	MaxImageCount uint32

	// CurrentExtent is non-nil when the surface dictates a fixed extent
	// that must be used regardless of window size.
	CurrentExtent *Extent
	MinExtent     Extent
	MaxExtent     Extent

	PresentModes    []PresentMode
	CompositeAlphas []CompositeAlpha

	// Formats lists the surface's preferred formats. A nil slice means the
	// surface imposes no preference; an empty non-nil slice is an error
	// condition the negotiator must surface.
	Formats []Format

	// SupportsColorAttachment reports color-attachment usage support.
	SupportsColorAttachment bool
}

// SwapchainConfig is a fully negotiated swapchain description.
type SwapchainConfig struct {
	PresentMode    PresentMode
	CompositeAlpha CompositeAlpha
	Format         Format
	Extent         Extent
	ImageCount     uint32
	ImageLayers    uint32
}

// VertexAttribute describes one per-vertex input attribute. All attributes
// are two-component float32 vectors; the pipeline is hard-coded to that.
type VertexAttribute struct {
	Location uint32
	Offset   uint32
}

// PipelineConfig carries everything the backend needs to compile the fixed
// triangle pipeline: shader stages, the single vertex binding and the static
// viewport/scissor extent baked at build time.
type PipelineConfig struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule

	VertexStride     uint32
	VertexAttributes []VertexAttribute

	Extent     Extent
	RenderPass RenderPass
	Layout     PipelineLayout
}
