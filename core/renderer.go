// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/lumen/gfx"
)

// NewRenderer creates a not yet initialised renderer over the given device.
// The device is chosen and bootstrapped by the caller; the engine takes no
// part in backend selection.
func NewRenderer(dev gfx.Device, logger *log.Entry, cfg RendererConfiguration) Renderer {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &frameRenderer{
		cfg: cfg,
		log: logger,
		dev: dev,
		windowExtent: gfx.Extent{
			Width:  cfg.ScreenWidth,
			Height: cfg.ScreenHeight,
		},
	}
}

// frameRenderer is the single top-level owner of every GPU resource. All
// resources are destroyed in strict reverse creation order by Destroy or,
// for the swapchain-derived subset, by RecreateSwapchain.
type frameRenderer struct {
	cfg RendererConfiguration
	log *log.Entry
	dev gfx.Device

	windowExtent gfx.Extent

	swapchain gfx.Swapchain
	format    gfx.Format
	extent    gfx.Extent
	frames    int

	renderPass   gfx.RenderPass
	imageViews   []gfx.ImageView
	framebuffers []gfx.Framebuffer

	commandPool    gfx.CommandPool
	commandBuffers []gfx.CommandBuffer

	ring         []frameSync
	pending      []bool
	currentFrame int

	pipeline       gfx.Pipeline
	pipelineLayout gfx.PipelineLayout
	vertexBuffer   gfx.Buffer

	initialised bool
	destroyed   bool
}

// Initialise implements interface.
func (r *frameRenderer) Initialise() error {
	cfg, images, err := r.createSwapchain(nil)
	if err != nil {
		return err
	}

	r.renderPass, err = r.dev.CreateRenderPass(r.format)
	if err != nil {
		return &TargetError{Err: err}
	}

	r.imageViews, r.framebuffers, err = buildTargets(r.dev, r.renderPass, images, r.format, r.extent)
	if err != nil {
		return err
	}

	if r.commandPool, err = r.dev.CreateCommandPool(); err != nil {
		return &SetupError{Op: "command pool", Err: err}
	}
	if r.commandBuffers, err = r.dev.AllocateCommandBuffers(r.commandPool, len(images)); err != nil {
		return &SetupError{Op: "command buffers", Err: err}
	}

	if r.ring, err = newSyncRing(r.dev, r.frames); err != nil {
		return &SetupError{Op: "synchronization ring", Err: err}
	}
	r.pending = make([]bool, r.frames)

	if r.vertexBuffer, err = r.dev.CreateVertexBuffer(VertexBufferSize); err != nil {
		return &PipelineError{Op: "vertex buffer", Err: err}
	}
	if err := r.buildPipeline(); err != nil {
		return err
	}

	r.initialised = true
	r.log.WithFields(log.Fields{
		"presentMode": cfg.PresentMode,
		"format":      cfg.Format,
		"extent":      cfg.Extent,
		"imageCount":  r.frames,
	}).Info("renderer initialised")
	return nil
}

// createSwapchain negotiates and creates a new chain, retiring and
// destroying the previous one only after the new chain exists. Never the
// other way around; destroying old-before-new violates the native API
// contract.
func (r *frameRenderer) createSwapchain(old gfx.Swapchain) (gfx.SwapchainConfig, []gfx.Image, error) {
	caps, err := r.dev.SurfaceCapabilities()
	if err != nil {
		return gfx.SwapchainConfig{}, nil, &SwapchainError{Op: "capabilities", Err: err}
	}

	cfg, err := NegotiateSwapchain(caps, r.windowExtent)
	if err != nil {
		return gfx.SwapchainConfig{}, nil, err
	}

	chain, images, err := r.dev.CreateSwapchain(cfg, old)
	if err != nil {
		return gfx.SwapchainConfig{}, nil, &SwapchainError{Op: "create", Err: err}
	}
	if old != nil {
		r.dev.DestroySwapchain(old)
	}

	r.swapchain = chain
	r.format = cfg.Format
	r.extent = cfg.Extent
	// Drivers may hand back more images than the negotiated minimum; the
	// actual set is what every per-image resource has to line up with.
	r.frames = len(images)
	return cfg, images, nil
}

// RecreateSwapchain implements interface.
//
// The full drain through WaitIdle must come before any destruction, or the
// GPU could still be reading images whose views are being torn down.
func (r *frameRenderer) RecreateSwapchain(hint gfx.Extent) error {
	if hint.Width != 0 && hint.Height != 0 {
		r.windowExtent = hint
	}

	if err := r.dev.WaitIdle(); err != nil {
		return &SwapchainError{Op: "wait idle", Err: err}
	}
	if err := r.dev.ResetCommandPool(r.commandPool); err != nil {
		return &SwapchainError{Op: "reset command pool", Err: err}
	}
	destroyTargets(r.dev, r.imageViews, r.framebuffers)
	r.imageViews, r.framebuffers = nil, nil

	oldFrames := r.frames
	cfg, images, err := r.createSwapchain(r.swapchain)
	if err != nil {
		return err
	}

	r.imageViews, r.framebuffers, err = buildTargets(r.dev, r.renderPass, images, r.format, r.extent)
	if err != nil {
		return err
	}

	// Chain length rarely changes on the same surface, but the invariant
	// that command buffers, targets and sync slots line up one-to-one
	// with images has to survive when it does.
	if r.frames != oldFrames {
		r.log.WithFields(log.Fields{
			"old": oldFrames,
			"new": r.frames,
		}).Warn("swapchain image count changed, rebuilding ring")
		destroySyncRing(r.dev, r.ring)
		if r.ring, err = newSyncRing(r.dev, r.frames); err != nil {
			return &SwapchainError{Op: "synchronization ring", Err: err}
		}
		r.pending = make([]bool, r.frames)
		// Command buffers live in the pool, so a changed count means a
		// fresh pool rather than orphaned allocations.
		r.dev.DestroyCommandPool(r.commandPool)
		if r.commandPool, err = r.dev.CreateCommandPool(); err != nil {
			return &SwapchainError{Op: "command pool", Err: err}
		}
		if r.commandBuffers, err = r.dev.AllocateCommandBuffers(r.commandPool, r.frames); err != nil {
			return &SwapchainError{Op: "command buffers", Err: err}
		}
		r.currentFrame = 0
	}

	// The viewport and scissor are baked into the pipeline at build time,
	// so a new extent forces a pipeline rebuild.
	r.destroyPipeline()
	if err := r.buildPipeline(); err != nil {
		return err
	}

	r.log.WithFields(log.Fields{
		"extent":     cfg.Extent,
		"imageCount": r.frames,
	}).Info("swapchain recreated")
	return nil
}

// DrawClearFrame implements interface.
func (r *frameRenderer) DrawClearFrame(color gfx.ClearColor) error {
	return r.drawFrame(color, nil)
}

// DrawTriangleFrame implements interface.
func (r *frameRenderer) DrawTriangleFrame(tri Triangle) error {
	return r.drawFrame(gfx.ClearColor{0.1, 0.2, 0.3, 1.0}, &tri)
}

// drawFrame runs the per-frame protocol:
// acquire -> fence wait -> record -> submit -> present.
//
// The rotation counter advances first, so the slot whose imageAvailable
// semaphore is handed to acquisition is the same slot whose semaphores gate
// submission and presentation. The fence and command buffer are indexed by
// the acquired image instead; acquisition is free to return images out of
// rotation order.
func (r *frameRenderer) drawFrame(color gfx.ClearColor, tri *Triangle) error {
	r.currentFrame = (r.currentFrame + 1) % r.frames
	slot := r.ring[r.currentFrame]

	idx, err := r.dev.AcquireNextImage(r.swapchain, r.cfg.acquireTimeout(), slot.imageAvailable)
	if errors.Is(err, gfx.ErrOutOfDate) {
		// Not a failure: the surface changed under us. Rebuild and let
		// the caller come back next loop iteration.
		r.log.Info("swapchain out of date on acquire, recreating")
		return r.RecreateSwapchain(gfx.Extent{})
	}
	if err != nil {
		return &FrameError{Stage: StageAcquire, Err: err}
	}

	// Wait for the previous submission that used this image, then take
	// over its fence and command buffer. Only a fence armed by an actual
	// submission is waited on; a frame that failed before reaching the
	// queue must not wedge its image behind a wait that can never finish.
	fence := r.ring[idx].inFlight
	if r.pending[idx] {
		if err := r.dev.WaitForFence(fence, r.cfg.fenceWaitTimeout()); err != nil {
			return &FrameError{Stage: StageFenceWait, Err: err}
		}
		r.pending[idx] = false
	}

	if tri != nil {
		if err := r.dev.WriteBuffer(r.vertexBuffer, tri.Bytes()); err != nil {
			return &FrameError{Stage: StageRecord, Err: err}
		}
	}
	if err := r.record(r.commandBuffers[idx], r.framebuffers[idx], color, tri != nil); err != nil {
		return &FrameError{Stage: StageRecord, Err: err}
	}

	// The fence is reset as late as possible: everything before the submit
	// can still fail without consuming it.
	if err := r.dev.ResetFence(fence); err != nil {
		return &FrameError{Stage: StageSubmit, Err: err}
	}
	if err := r.dev.Submit(r.commandBuffers[idx], slot.imageAvailable, slot.renderFinished, fence); err != nil {
		return &FrameError{Stage: StageSubmit, Err: err}
	}
	r.pending[idx] = true

	suboptimal, err := r.dev.Present(r.swapchain, idx, slot.renderFinished)
	if errors.Is(err, gfx.ErrOutOfDate) {
		r.log.Info("swapchain out of date on present, recreating")
		return r.RecreateSwapchain(gfx.Extent{})
	}
	if err != nil {
		return &FrameError{Stage: StagePresent, Err: err}
	}
	if suboptimal {
		// The frame made it to the screen; rebuild before the next one.
		r.log.Info("suboptimal present, recreating swapchain")
		return r.RecreateSwapchain(gfx.Extent{})
	}
	return nil
}

func (r *frameRenderer) record(buf gfx.CommandBuffer, fb gfx.Framebuffer, color gfx.ClearColor, draw bool) error {
	if err := buf.Begin(); err != nil {
		return err
	}
	buf.BeginRenderPass(r.renderPass, fb, r.extent, color)
	if draw {
		buf.BindPipeline(r.pipeline)
		buf.BindVertexBuffer(r.vertexBuffer)
		buf.Draw(3, 1)
	}
	buf.EndRenderPass()
	return buf.End()
}

// Extent implements interface.
func (r *frameRenderer) Extent() gfx.Extent {
	return r.extent
}

// FramesInFlight implements interface.
func (r *frameRenderer) FramesInFlight() int {
	return r.frames
}

// Destroy implements interface. Reverse creation order, best effort all the
// way through: a failure to release one resource must not stop the rest.
func (r *frameRenderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true

	if err := r.dev.WaitIdle(); err != nil {
		r.log.WithError(err).Error("wait idle during teardown")
	}

	r.destroyPipeline()
	if r.vertexBuffer != nil {
		r.dev.DestroyBuffer(r.vertexBuffer)
		r.vertexBuffer = nil
	}

	destroySyncRing(r.dev, r.ring)
	r.ring = nil

	if r.commandPool != nil {
		r.dev.DestroyCommandPool(r.commandPool)
		r.commandPool = nil
	}
	r.commandBuffers = nil

	destroyTargets(r.dev, r.imageViews, r.framebuffers)
	r.imageViews, r.framebuffers = nil, nil

	if r.renderPass != nil {
		r.dev.DestroyRenderPass(r.renderPass)
		r.renderPass = nil
	}
	if r.swapchain != nil {
		r.dev.DestroySwapchain(r.swapchain)
		r.swapchain = nil
	}
}
