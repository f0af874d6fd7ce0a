// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devblok/lumen/core"
	"github.com/devblok/lumen/gfx"
	"github.com/devblok/lumen/gfx/gfxtest"
)

func testConfiguration() core.RendererConfiguration {
	return core.RendererConfiguration{
		ScreenWidth:    400,
		ScreenHeight:   300,
		VertexShader:   []byte("vert-spv"),
		FragmentShader: []byte("frag-spv"),
	}
}

func newTestRenderer(t *testing.T) (*gfxtest.Device, core.Renderer) {
	t.Helper()
	dev := gfxtest.NewDevice(gfxtest.DefaultCaps(gfx.Extent{Width: 400, Height: 300}))
	renderer := core.NewRenderer(dev, nil, testConfiguration())
	require.NoError(t, renderer.Initialise())
	return dev, renderer
}

func TestInitialiseBuildsMatchingResourceSets(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	// Default caps support mailbox, so negotiation lands on triple
	// buffering: every per-image resource set must have three entries.
	require.Equal(t, 3, renderer.FramesInFlight())
	assert.Equal(t, 3, dev.Live(gfxtest.KindImage))
	assert.Equal(t, 3, dev.Live(gfxtest.KindImageView))
	assert.Equal(t, 3, dev.Live(gfxtest.KindFramebuffer))
	assert.Equal(t, 6, dev.Live(gfxtest.KindSemaphore))
	assert.Equal(t, 3, dev.Live(gfxtest.KindFence))
	assert.Equal(t, 1, dev.Live(gfxtest.KindSwapchain))
	assert.Equal(t, 1, dev.Live(gfxtest.KindRenderPass))
	assert.Equal(t, 1, dev.Live(gfxtest.KindPipeline))
	assert.Equal(t, 1, dev.Live(gfxtest.KindBuffer))

	assert.Equal(t, gfx.Extent{Width: 400, Height: 300}, renderer.Extent())

	// The preferred entry of the surface's format list carries sRGB.
	require.Len(t, dev.SwapchainConfigs, 1)
	assert.Equal(t, gfx.FormatBGRA8Srgb, dev.SwapchainConfigs[0].Format)
	assert.Equal(t, gfx.PresentModeMailbox, dev.SwapchainConfigs[0].PresentMode)
}

func TestShaderModulesNeverOutliveTheBuild(t *testing.T) {
	dev, _ := newTestRenderer(t)
	assert.Equal(t, 2, dev.Created(gfxtest.KindShaderModule))
	assert.Equal(t, 0, dev.Live(gfxtest.KindShaderModule))
}

func TestRecreateWithSameSizeIsAFixedPoint(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	require.NoError(t, renderer.RecreateSwapchain(gfx.Extent{}))

	assert.Equal(t, 2, dev.Created(gfxtest.KindSwapchain))
	assert.Equal(t, 1, dev.Live(gfxtest.KindSwapchain))
	assert.Equal(t, 3, dev.Live(gfxtest.KindImageView))
	assert.Equal(t, 3, dev.Live(gfxtest.KindFramebuffer))

	// Same image count, so the ring and command pool survive untouched.
	assert.Equal(t, 6, dev.Created(gfxtest.KindSemaphore))
	assert.Equal(t, 1, dev.Created(gfxtest.KindCommandPool))
	assert.Equal(t, gfx.Extent{Width: 400, Height: 300}, renderer.Extent())
}

func TestRecreateAdoptsResizeHint(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	require.NoError(t, renderer.RecreateSwapchain(gfx.Extent{Width: 800, Height: 600}))

	assert.Equal(t, gfx.Extent{Width: 800, Height: 600}, renderer.Extent())

	// The viewport is baked into the pipeline, so the resize must have
	// produced a second pipeline built against the new extent.
	require.Len(t, dev.PipelineConfigs, 2)
	assert.Equal(t, gfx.Extent{Width: 800, Height: 600}, dev.PipelineConfigs[1].Extent)
	assert.Equal(t, 1, dev.Live(gfxtest.KindPipeline))
	assert.Equal(t, 1, dev.Live(gfxtest.KindPipelineLayout))
}

func TestRecreateRebuildsRingWhenImageCountChanges(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	require.Equal(t, 3, renderer.FramesInFlight())

	// Narrow the surface so renegotiation lands on a shorter chain.
	dev.Caps.PresentModes = []gfx.PresentMode{gfx.PresentModeFifo}
	require.NoError(t, renderer.RecreateSwapchain(gfx.Extent{}))

	require.Equal(t, 2, renderer.FramesInFlight())
	assert.Equal(t, 4, dev.Live(gfxtest.KindSemaphore))
	assert.Equal(t, 2, dev.Live(gfxtest.KindFence))
	assert.Equal(t, 1, dev.Live(gfxtest.KindCommandPool))
	assert.Equal(t, 2, dev.Created(gfxtest.KindCommandPool))
}

func TestDestroyReleasesEverythingExactlyOnce(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{0, 0, 0, 1}))

	renderer.Destroy()
	renderer.Destroy()

	assert.Empty(t, dev.DoubleFrees)
	for _, kind := range []string{
		gfxtest.KindSwapchain, gfxtest.KindImage, gfxtest.KindImageView,
		gfxtest.KindFramebuffer, gfxtest.KindRenderPass, gfxtest.KindSemaphore,
		gfxtest.KindFence, gfxtest.KindCommandPool, gfxtest.KindShaderModule,
		gfxtest.KindPipelineLayout, gfxtest.KindPipeline, gfxtest.KindBuffer,
	} {
		assert.Zerof(t, dev.Live(kind), "kind %s leaked", kind)
	}
}

func TestClearFrameRecordsWithoutDrawing(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{1, 0, 0, 1}))

	require.Len(t, dev.Submissions, 1)
	buf := dev.Submissions[0].Buffer.(*gfxtest.CommandBuffer)
	assert.Equal(t, []string{"begin", "begin-pass 400x300", "end-pass", "end"}, buf.Ops)
}

func TestTriangleFrameRecordsDrawAndWritesVertices(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	tri := core.Triangle{{-0.5, 0.5}, {-0.5, -0.5}, {0.25, 0.75}}
	require.NoError(t, renderer.DrawTriangleFrame(tri))

	require.Len(t, dev.Submissions, 1)
	buf := dev.Submissions[0].Buffer.(*gfxtest.CommandBuffer)
	assert.Equal(t, []string{
		"begin", "begin-pass 400x300",
		"bind-pipeline", "bind-vertex-buffer", "draw 3 1",
		"end-pass", "end",
	}, buf.Ops)
}

func TestOutOfDateAcquireRecreatesAndSkips(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	dev.AcquireErr = gfx.ErrOutOfDate

	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))

	assert.Equal(t, 2, dev.Created(gfxtest.KindSwapchain))
	assert.Empty(t, dev.Submissions, "a skipped frame must not reach the queue")
}

func TestOutOfDatePresentRecreates(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	dev.PresentErr = gfx.ErrOutOfDate

	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))
	assert.Equal(t, 2, dev.Created(gfxtest.KindSwapchain))
	assert.Len(t, dev.Submissions, 1)
}

func TestSuboptimalPresentRecreatesAfterDisplay(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	dev.PresentSuboptimal = true

	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))

	// The frame made it out before the rebuild.
	assert.Len(t, dev.Submissions, 1)
	assert.Equal(t, 2, dev.Created(gfxtest.KindSwapchain))
}

func TestOutOfOrderAcquisitionFollowsImageIndex(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	// Hand image 2 out twice in a row. The fence and command buffer follow
	// the image, the semaphores follow the rotation slot.
	dev.AcquireOrder = []uint32{2, 2}
	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))
	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))

	require.Len(t, dev.Submissions, 2)
	first, second := dev.Submissions[0], dev.Submissions[1]

	assert.Same(t, dev.CommandBuffers[2], first.Buffer.(*gfxtest.CommandBuffer))
	assert.Same(t, dev.CommandBuffers[2], second.Buffer.(*gfxtest.CommandBuffer))
	assert.Equal(t, first.Fence, second.Fence)

	assert.NotEqual(t, first.Wait, second.Wait)
	assert.NotEqual(t, first.Signal, second.Signal)
}

func TestChainLongerThanRequestedIsFollowedThroughout(t *testing.T) {
	dev := gfxtest.NewDevice(gfxtest.DefaultCaps(gfx.Extent{Width: 400, Height: 300}))
	dev.ExtraImages = 1
	renderer := core.NewRenderer(dev, nil, testConfiguration())
	require.NoError(t, renderer.Initialise())

	// Negotiation asked for three images and the driver handed back four.
	// Every per-image resource set has to follow the delivered count.
	require.Equal(t, 4, renderer.FramesInFlight())
	assert.Equal(t, 4, dev.Live(gfxtest.KindImage))
	assert.Equal(t, 4, dev.Live(gfxtest.KindImageView))
	assert.Equal(t, 4, dev.Live(gfxtest.KindFramebuffer))
	assert.Equal(t, 8, dev.Live(gfxtest.KindSemaphore))
	assert.Equal(t, 4, dev.Live(gfxtest.KindFence))

	// Acquiring the surplus image must land on a live sync slot and
	// command buffer.
	dev.AcquireOrder = []uint32{3}
	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))
	require.Len(t, dev.Submissions, 1)
	assert.Same(t, dev.CommandBuffers[3], dev.Submissions[0].Buffer.(*gfxtest.CommandBuffer))
}

func TestFailedSubmitDoesNotWedgeItsImage(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	dev.AcquireOrder = []uint32{0, 0, 0}
	dev.SubmitErr = errors.New("transient queue failure")

	err := renderer.DrawClearFrame(gfx.ClearColor{})
	var frameErr *core.FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, core.StageSubmit, frameErr.Stage)

	// The failed frame never armed image 0's fence, so reusing the image
	// must neither block nor time out.
	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))
	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))
	assert.Len(t, dev.Submissions, 2)
}

func TestStalledGPUSurfacesFenceTimeout(t *testing.T) {
	dev, renderer := newTestRenderer(t)

	// The first frame arms image 0's fence; with the GPU stalled it never
	// signals, so reusing image 0 must time out rather than hang.
	dev.StallGPU = true
	dev.AcquireOrder = []uint32{0, 0}

	require.NoError(t, renderer.DrawClearFrame(gfx.ClearColor{}))
	err := renderer.DrawClearFrame(gfx.ClearColor{})

	require.ErrorIs(t, err, gfx.ErrFenceTimeout)
	assert.NotErrorIs(t, err, gfx.ErrDeviceLost)

	var frameErr *core.FrameError
	require.ErrorAs(t, err, &frameErr)
	assert.Equal(t, core.StageFenceWait, frameErr.Stage)
}

func TestLostDeviceStaysDistinctFromTimeout(t *testing.T) {
	dev, renderer := newTestRenderer(t)
	dev.Lost = true

	err := renderer.DrawClearFrame(gfx.ClearColor{})
	require.ErrorIs(t, err, gfx.ErrDeviceLost)
	assert.NotErrorIs(t, err, gfx.ErrFenceTimeout)
}

func TestUninitialisedLocalStateDrawsSomething(t *testing.T) {
	_, renderer := newTestRenderer(t)

	state := core.LocalState{FrameWidth: 400, FrameHeight: 300}
	pos := glm.Vec2{200, 150}
	state.Update(core.FrameInput{PointerMovedTo: &pos})

	require.NoError(t, renderer.DrawTriangleFrame(state.Triangle()))
}
