// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/gfx"
)

var testWindow = gfx.Extent{Width: 800, Height: 600}

// negotiableCaps returns a capability set that negotiation accepts, to be
// narrowed per test case.
func negotiableCaps() gfx.SurfaceCapabilities {
	return gfx.SurfaceCapabilities{
		MinImageCount:           2,
		MaxImageCount:           8,
		MinExtent:               gfx.Extent{Width: 1, Height: 1},
		MaxExtent:               gfx.Extent{Width: 4096, Height: 4096},
		PresentModes:            []gfx.PresentMode{gfx.PresentModeFifo},
		CompositeAlphas:         []gfx.CompositeAlpha{gfx.CompositeAlphaOpaque},
		Formats:                 nil,
		SupportsColorAttachment: true,
	}
}

func TestPresentModePreference(t *testing.T) {
	cases := []struct {
		name      string
		supported []gfx.PresentMode
		want      gfx.PresentMode
	}{
		{"MailboxBeatsEverything", []gfx.PresentMode{gfx.PresentModeImmediate, gfx.PresentModeFifo, gfx.PresentModeMailbox}, gfx.PresentModeMailbox},
		{"FifoBeatsRelaxed", []gfx.PresentMode{gfx.PresentModeRelaxed, gfx.PresentModeFifo}, gfx.PresentModeFifo},
		{"RelaxedBeatsImmediate", []gfx.PresentMode{gfx.PresentModeImmediate, gfx.PresentModeRelaxed}, gfx.PresentModeRelaxed},
		{"ImmediateAlone", []gfx.PresentMode{gfx.PresentModeImmediate}, gfx.PresentModeImmediate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caps := negotiableCaps()
			caps.PresentModes = tc.supported
			cfg, err := core.NegotiateSwapchain(caps, testWindow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.PresentMode)
		})
	}
}

func TestPresentModeEmptyFails(t *testing.T) {
	caps := negotiableCaps()
	caps.PresentModes = nil
	_, err := core.NegotiateSwapchain(caps, testWindow)
	require.ErrorIs(t, err, core.ErrNoPresentMode)

	var scErr *core.SwapchainError
	require.ErrorAs(t, err, &scErr)
}

func TestCompositeAlphaPreference(t *testing.T) {
	caps := negotiableCaps()
	caps.CompositeAlphas = []gfx.CompositeAlpha{
		gfx.CompositeAlphaPostmultiplied,
		gfx.CompositeAlphaInherit,
	}
	cfg, err := core.NegotiateSwapchain(caps, testWindow)
	require.NoError(t, err)
	assert.Equal(t, gfx.CompositeAlphaInherit, cfg.CompositeAlpha)
}

func TestCompositeAlphaEmptyFails(t *testing.T) {
	caps := negotiableCaps()
	caps.CompositeAlphas = nil
	_, err := core.NegotiateSwapchain(caps, testWindow)
	require.ErrorIs(t, err, core.ErrNoCompositeAlpha)
}

func TestFormatSelection(t *testing.T) {
	cases := []struct {
		name    string
		formats []gfx.Format
		want    gfx.Format
	}{
		{"NoPreferenceDefaultsToSrgb", nil, gfx.FormatRGBA8Srgb},
		{"FirstSrgbWins", []gfx.Format{gfx.FormatBGRA8Unorm, gfx.FormatRGBA8Srgb, gfx.FormatBGRA8Srgb}, gfx.FormatRGBA8Srgb},
		{"NoSrgbFallsBackToFirst", []gfx.Format{gfx.FormatBGRA8Unorm, gfx.FormatRGBA8Unorm}, gfx.FormatBGRA8Unorm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caps := negotiableCaps()
			caps.Formats = tc.formats
			cfg, err := core.NegotiateSwapchain(caps, testWindow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Format)
		})
	}
}

func TestFormatEmptyListFails(t *testing.T) {
	caps := negotiableCaps()
	caps.Formats = []gfx.Format{}
	_, err := core.NegotiateSwapchain(caps, testWindow)
	require.ErrorIs(t, err, core.ErrNoFormat)
}

func TestExtentClampsWindow(t *testing.T) {
	caps := negotiableCaps()
	caps.MinExtent = gfx.Extent{Width: 100, Height: 100}
	caps.MaxExtent = gfx.Extent{Width: 1000, Height: 500}

	cfg, err := core.NegotiateSwapchain(caps, gfx.Extent{Width: 50, Height: 600})
	require.NoError(t, err)
	assert.Equal(t, gfx.Extent{Width: 100, Height: 500}, cfg.Extent)
}

func TestFixedExtentOverridesWindow(t *testing.T) {
	caps := negotiableCaps()
	caps.CurrentExtent = &gfx.Extent{Width: 1280, Height: 720}

	cfg, err := core.NegotiateSwapchain(caps, testWindow)
	require.NoError(t, err)
	assert.Equal(t, gfx.Extent{Width: 1280, Height: 720}, cfg.Extent)
}

func TestImageCount(t *testing.T) {
	cases := []struct {
		name     string
		modes    []gfx.PresentMode
		min, max uint32
		want     uint32
	}{
		{"MailboxWantsTriple", []gfx.PresentMode{gfx.PresentModeMailbox}, 2, 8, 3},
		{"FifoWantsDouble", []gfx.PresentMode{gfx.PresentModeFifo}, 2, 8, 2},
		{"ClampedUpToMinimum", []gfx.PresentMode{gfx.PresentModeFifo}, 5, 8, 5},
		{"ClampedBelowMaximum", []gfx.PresentMode{gfx.PresentModeMailbox}, 2, 3, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caps := negotiableCaps()
			caps.PresentModes = tc.modes
			caps.MinImageCount = tc.min
			caps.MaxImageCount = tc.max
			cfg, err := core.NegotiateSwapchain(caps, testWindow)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.ImageCount)
		})
	}
}

func TestSurfaceWithoutColorAttachmentFails(t *testing.T) {
	caps := negotiableCaps()
	caps.SupportsColorAttachment = false
	_, err := core.NegotiateSwapchain(caps, testWindow)
	require.ErrorIs(t, err, core.ErrSurfaceNoColor)
}

func TestNegotiatedLayersAlwaysOne(t *testing.T) {
	cfg, err := core.NegotiateSwapchain(negotiableCaps(), testWindow)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cfg.ImageLayers)
}
