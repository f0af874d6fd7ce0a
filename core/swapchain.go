// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "github.com/devblok/lumen/gfx"

// presentModePreference and compositeAlphaPreference are fixed tie-break
// orders: the first supported entry wins.
var presentModePreference = []gfx.PresentMode{
	gfx.PresentModeMailbox,
	gfx.PresentModeFifo,
	gfx.PresentModeRelaxed,
	gfx.PresentModeImmediate,
}

var compositeAlphaPreference = []gfx.CompositeAlpha{
	gfx.CompositeAlphaOpaque,
	gfx.CompositeAlphaInherit,
	gfx.CompositeAlphaPremultiplied,
	gfx.CompositeAlphaPostmultiplied,
}

// NegotiateSwapchain resolves surface capabilities and the current window
// client-area size into a concrete swapchain configuration. The tie-break
// rules are deterministic and covered by tests; window is ignored when the
// surface reports a fixed extent.
func NegotiateSwapchain(caps gfx.SurfaceCapabilities, window gfx.Extent) (gfx.SwapchainConfig, error) {
	mode, err := selectPresentMode(caps.PresentModes)
	if err != nil {
		return gfx.SwapchainConfig{}, &SwapchainError{Op: "present mode", Err: err}
	}
	alpha, err := selectCompositeAlpha(caps.CompositeAlphas)
	if err != nil {
		return gfx.SwapchainConfig{}, &SwapchainError{Op: "composite alpha", Err: err}
	}
	format, err := selectFormat(caps.Formats)
	if err != nil {
		return gfx.SwapchainConfig{}, &SwapchainError{Op: "format", Err: err}
	}
	if !caps.SupportsColorAttachment {
		return gfx.SwapchainConfig{}, &SwapchainError{Op: "usage", Err: ErrSurfaceNoColor}
	}
	return gfx.SwapchainConfig{
		PresentMode:    mode,
		CompositeAlpha: alpha,
		Format:         format,
		Extent:         selectExtent(caps, window),
		ImageCount:     selectImageCount(caps, mode),
		ImageLayers:    1,
	}, nil
}

func selectPresentMode(supported []gfx.PresentMode) (gfx.PresentMode, error) {
	for _, want := range presentModePreference {
		for _, have := range supported {
			if want == have {
				return want, nil
			}
		}
	}
	// Fifo support is mandated by the API contract, so this should never
	// trigger, but an empty list must not slip through.
	return 0, ErrNoPresentMode
}

func selectCompositeAlpha(supported []gfx.CompositeAlpha) (gfx.CompositeAlpha, error) {
	for _, want := range compositeAlphaPreference {
		for _, have := range supported {
			if want == have {
				return want, nil
			}
		}
	}
	return 0, ErrNoCompositeAlpha
}

// selectFormat picks the surface format. No preference list defaults to
// 8-bit sRGB; otherwise the first sRGB entry wins, falling back to the
// first listed format.
func selectFormat(formats []gfx.Format) (gfx.Format, error) {
	if formats == nil {
		return gfx.FormatRGBA8Srgb, nil
	}
	if len(formats) == 0 {
		return 0, ErrNoFormat
	}
	for _, f := range formats {
		if f.IsSrgb() {
			return f, nil
		}
	}
	return formats[0], nil
}

// selectExtent clamps the window size into the supported range, unless the
// surface dictates its own fixed extent.
func selectExtent(caps gfx.SurfaceCapabilities, window gfx.Extent) gfx.Extent {
	if caps.CurrentExtent != nil {
		return *caps.CurrentExtent
	}
	return gfx.Extent{
		Width:  clamp(window.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(window.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// selectImageCount asks for triple buffering under Mailbox, double
// otherwise, clamped into [min, max-1]. The -1 guards against drivers whose
// reported maximum is an exclusive bound; it is intentional and must stay.
func selectImageCount(caps gfx.SurfaceCapabilities, mode gfx.PresentMode) uint32 {
	desired := uint32(2)
	if mode == gfx.PresentModeMailbox {
		desired = 3
	}
	count := desired
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if count > caps.MaxImageCount-1 {
		count = caps.MaxImageCount - 1
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
