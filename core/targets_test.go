// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/gfx/gfxtest"
)

func targetFixture(t *testing.T) (*gfxtest.Device, gfx.RenderPass, []gfx.Image) {
	t.Helper()
	dev := gfxtest.NewDevice(gfxtest.DefaultCaps(gfx.Extent{Width: 400, Height: 300}))

	pass, err := dev.CreateRenderPass(gfx.FormatBGRA8Srgb)
	require.NoError(t, err)

	_, images, err := dev.CreateSwapchain(gfx.SwapchainConfig{
		Format:     gfx.FormatBGRA8Srgb,
		Extent:     gfx.Extent{Width: 400, Height: 300},
		ImageCount: 3,
	}, nil)
	require.NoError(t, err)
	return dev, pass, images
}

func TestBuildTargetsOnePerImage(t *testing.T) {
	dev, pass, images := targetFixture(t)

	views, framebuffers, err := buildTargets(dev, pass, images, gfx.FormatBGRA8Srgb, gfx.Extent{Width: 400, Height: 300})
	require.NoError(t, err)
	assert.Len(t, views, 3)
	assert.Len(t, framebuffers, 3)

	destroyTargets(dev, views, framebuffers)
	assert.Zero(t, dev.Live(gfxtest.KindImageView))
	assert.Zero(t, dev.Live(gfxtest.KindFramebuffer))
	assert.Empty(t, dev.DoubleFrees)
}

func TestBuildTargetsReleasesPartialBatch(t *testing.T) {
	dev, pass, images := targetFixture(t)

	// One framebuffer succeeds, the second fails; the half-built batch must
	// be fully released.
	dev.FailCreate[gfxtest.KindFramebuffer] = 1
	_, _, err := buildTargets(dev, pass, images, gfx.FormatBGRA8Srgb, gfx.Extent{Width: 400, Height: 300})

	var targetErr *TargetError
	require.ErrorAs(t, err, &targetErr)
	assert.Equal(t, 1, targetErr.Index)

	assert.Zero(t, dev.Live(gfxtest.KindImageView))
	assert.Zero(t, dev.Live(gfxtest.KindFramebuffer))
	assert.Empty(t, dev.DoubleFrees)
}

func TestSyncRingStartsSignaled(t *testing.T) {
	dev := gfxtest.NewDevice(gfxtest.DefaultCaps(gfx.Extent{Width: 400, Height: 300}))

	ring, err := newSyncRing(dev, 3)
	require.NoError(t, err)
	require.Len(t, ring, 3)

	// Fences are born signaled so the first wait never blocks.
	for _, slot := range ring {
		assert.NoError(t, dev.WaitForFence(slot.inFlight, 0))
	}

	destroySyncRing(dev, ring)
	assert.Zero(t, dev.Live(gfxtest.KindSemaphore))
	assert.Zero(t, dev.Live(gfxtest.KindFence))
	assert.Empty(t, dev.DoubleFrees)
}

func TestSyncRingReleasesPartialBatch(t *testing.T) {
	dev := gfxtest.NewDevice(gfxtest.DefaultCaps(gfx.Extent{Width: 400, Height: 300}))

	// The second slot's fence fails; everything created up to that point
	// must be released.
	dev.FailCreate[gfxtest.KindFence] = 1
	_, err := newSyncRing(dev, 3)
	require.Error(t, err)

	assert.Zero(t, dev.Live(gfxtest.KindSemaphore))
	assert.Zero(t, dev.Live(gfxtest.KindFence))
	assert.Empty(t, dev.DoubleFrees)
}
