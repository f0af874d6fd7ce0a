// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides a resource-tracking in-memory gfx.Device for
// tests. Every creation and destruction is counted per resource kind,
// double destruction is recorded instead of panicking, and surface
// capabilities, image acquisition order and failure modes are scriptable.
// GPU work completes instantly unless stalled.
package gfxtest

import (
	"fmt"
	"time"

	"github.com/devblok/lumen/gfx"
)

// Resource kind names used in the tracking tables.
const (
	KindSwapchain      = "swapchain"
	KindImage          = "image"
	KindImageView      = "imageView"
	KindRenderPass     = "renderPass"
	KindFramebuffer    = "framebuffer"
	KindSemaphore      = "semaphore"
	KindFence          = "fence"
	KindCommandPool    = "commandPool"
	KindShaderModule   = "shaderModule"
	KindPipelineLayout = "pipelineLayout"
	KindPipeline       = "pipeline"
	KindBuffer         = "buffer"
)

type handle struct {
	kind      string
	id        int
	destroyed bool

	signaled   bool      // fences
	data       []byte    // buffers
	imageCount uint32    // swapchains
	images     []*handle // swapchains
}

// Submission records one queue submission.
type Submission struct {
	Buffer gfx.CommandBuffer
	Wait   gfx.Semaphore
	Signal gfx.Semaphore
	Fence  gfx.Fence
}

// Device is the fake backend. The zero value is not usable; construct with
// NewDevice.
type Device struct {
	Caps gfx.SurfaceCapabilities

	// AcquireOrder is consumed front to back by AcquireNextImage;
	// when exhausted, acquisition falls back to round-robin.
	AcquireOrder []uint32

	// ExtraImages makes CreateSwapchain hand back more images than the
	// negotiated count, as real drivers are allowed to.
	ExtraImages int

	// AcquireErr, SubmitErr and PresentErr are consumed by the next
	// acquire/submit/present call. PresentSuboptimal is likewise consumed
	// once.
	AcquireErr        error
	SubmitErr         error
	PresentErr        error
	PresentSuboptimal bool

	// Lost makes every GPU-touching call report a lost device.
	Lost bool

	// StallGPU stops submissions from signaling their fences, simulating
	// GPU work that never finishes.
	StallGPU bool

	// FailCreate maps a resource kind to the number of remaining
	// successful creations before a single injected failure.
	FailCreate map[string]int

	// Recorded activity, in call order.
	SwapchainConfigs []gfx.SwapchainConfig
	PipelineConfigs  []gfx.PipelineConfig
	CommandBuffers   []*CommandBuffer
	Submissions      []Submission

	// DoubleFrees lists resources that were destroyed more than once.
	DoubleFrees []string

	// Destroyed counts Destroy calls on the device itself.
	Destroyed int

	created map[string]int
	live    map[string]int

	chain         *handle
	acquireCursor uint32
	nextID        int
}

// NewDevice creates a fake device over the given capabilities.
func NewDevice(caps gfx.SurfaceCapabilities) *Device {
	return &Device{
		Caps:       caps,
		FailCreate: map[string]int{},
		created:    map[string]int{},
		live:       map[string]int{},
	}
}

// DefaultCaps is a permissive capability set: mailbox and fifo, opaque
// alpha, BGRA sRGB preferred, 2..8 images, free extent up to 4096.
func DefaultCaps(window gfx.Extent) gfx.SurfaceCapabilities {
	return gfx.SurfaceCapabilities{
		MinImageCount:           2,
		MaxImageCount:           8,
		MinExtent:               gfx.Extent{Width: 1, Height: 1},
		MaxExtent:               gfx.Extent{Width: 4096, Height: 4096},
		PresentModes:            []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox},
		CompositeAlphas:         []gfx.CompositeAlpha{gfx.CompositeAlphaOpaque},
		Formats:                 []gfx.Format{gfx.FormatBGRA8Unorm, gfx.FormatBGRA8Srgb},
		SupportsColorAttachment: true,
	}
}

// Created returns how many resources of the kind were ever created.
func (d *Device) Created(kind string) int { return d.created[kind] }

// Live returns how many resources of the kind are currently not destroyed.
func (d *Device) Live(kind string) int { return d.live[kind] }

func (d *Device) newHandle(kind string) *handle {
	d.nextID++
	d.created[kind]++
	d.live[kind]++
	return &handle{kind: kind, id: d.nextID}
}

func (d *Device) release(kind string, res interface{}) {
	h, ok := res.(*handle)
	if !ok || h.kind != kind {
		d.DoubleFrees = append(d.DoubleFrees, fmt.Sprintf("%s: foreign handle %v", kind, res))
		return
	}
	if h.destroyed {
		d.DoubleFrees = append(d.DoubleFrees, fmt.Sprintf("%s %d", kind, h.id))
		return
	}
	h.destroyed = true
	d.live[kind]--
}

// failNext consumes one slot of the FailCreate countdown for kind and
// reports whether this creation should fail.
func (d *Device) failNext(kind string) bool {
	left, ok := d.FailCreate[kind]
	if !ok {
		return false
	}
	if left <= 0 {
		delete(d.FailCreate, kind)
		return true
	}
	d.FailCreate[kind] = left - 1
	return false
}

// SurfaceCapabilities implements gfx.Device.
func (d *Device) SurfaceCapabilities() (gfx.SurfaceCapabilities, error) {
	return d.Caps, nil
}

// CreateSwapchain implements gfx.Device.
func (d *Device) CreateSwapchain(cfg gfx.SwapchainConfig, old gfx.Swapchain) (gfx.Swapchain, []gfx.Image, error) {
	if d.failNext(KindSwapchain) {
		return nil, nil, fmt.Errorf("injected %s failure", KindSwapchain)
	}
	d.SwapchainConfigs = append(d.SwapchainConfigs, cfg)

	sc := d.newHandle(KindSwapchain)
	sc.imageCount = cfg.ImageCount + uint32(d.ExtraImages)
	images := make([]gfx.Image, sc.imageCount)
	for i := range images {
		img := d.newHandle(KindImage)
		sc.images = append(sc.images, img)
		images[i] = img
	}
	d.chain = sc
	d.acquireCursor = 0
	return sc, images, nil
}

// DestroySwapchain implements gfx.Device.
func (d *Device) DestroySwapchain(sc gfx.Swapchain) {
	if h, ok := sc.(*handle); ok && !h.destroyed {
		for _, img := range h.images {
			d.release(KindImage, img)
		}
	}
	d.release(KindSwapchain, sc)
}

// CreateImageView implements gfx.Device.
func (d *Device) CreateImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	if d.failNext(KindImageView) {
		return nil, fmt.Errorf("injected %s failure", KindImageView)
	}
	return d.newHandle(KindImageView), nil
}

// DestroyImageView implements gfx.Device.
func (d *Device) DestroyImageView(view gfx.ImageView) { d.release(KindImageView, view) }

// CreateRenderPass implements gfx.Device.
func (d *Device) CreateRenderPass(format gfx.Format) (gfx.RenderPass, error) {
	if d.failNext(KindRenderPass) {
		return nil, fmt.Errorf("injected %s failure", KindRenderPass)
	}
	return d.newHandle(KindRenderPass), nil
}

// DestroyRenderPass implements gfx.Device.
func (d *Device) DestroyRenderPass(pass gfx.RenderPass) { d.release(KindRenderPass, pass) }

// CreateFramebuffer implements gfx.Device.
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, view gfx.ImageView, extent gfx.Extent) (gfx.Framebuffer, error) {
	if d.failNext(KindFramebuffer) {
		return nil, fmt.Errorf("injected %s failure", KindFramebuffer)
	}
	return d.newHandle(KindFramebuffer), nil
}

// DestroyFramebuffer implements gfx.Device.
func (d *Device) DestroyFramebuffer(fb gfx.Framebuffer) { d.release(KindFramebuffer, fb) }

// CreateSemaphore implements gfx.Device.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	if d.failNext(KindSemaphore) {
		return nil, fmt.Errorf("injected %s failure", KindSemaphore)
	}
	return d.newHandle(KindSemaphore), nil
}

// DestroySemaphore implements gfx.Device.
func (d *Device) DestroySemaphore(sem gfx.Semaphore) { d.release(KindSemaphore, sem) }

// CreateFence implements gfx.Device.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	if d.failNext(KindFence) {
		return nil, fmt.Errorf("injected %s failure", KindFence)
	}
	f := d.newHandle(KindFence)
	f.signaled = signaled
	return f, nil
}

// DestroyFence implements gfx.Device.
func (d *Device) DestroyFence(f gfx.Fence) { d.release(KindFence, f) }

// WaitForFence implements gfx.Device. GPU work completes instantly, so an
// unsignaled fence is one that will never signal: that is a timeout.
func (d *Device) WaitForFence(f gfx.Fence, timeout time.Duration) error {
	if d.Lost {
		return gfx.ErrDeviceLost
	}
	if !f.(*handle).signaled {
		return gfx.ErrFenceTimeout
	}
	return nil
}

// ResetFence implements gfx.Device.
func (d *Device) ResetFence(f gfx.Fence) error {
	f.(*handle).signaled = false
	return nil
}

// CreateCommandPool implements gfx.Device.
func (d *Device) CreateCommandPool() (gfx.CommandPool, error) {
	if d.failNext(KindCommandPool) {
		return nil, fmt.Errorf("injected %s failure", KindCommandPool)
	}
	return d.newHandle(KindCommandPool), nil
}

// ResetCommandPool implements gfx.Device.
func (d *Device) ResetCommandPool(pool gfx.CommandPool) error { return nil }

// DestroyCommandPool implements gfx.Device.
func (d *Device) DestroyCommandPool(pool gfx.CommandPool) { d.release(KindCommandPool, pool) }

// AllocateCommandBuffers implements gfx.Device.
func (d *Device) AllocateCommandBuffers(pool gfx.CommandPool, count int) ([]gfx.CommandBuffer, error) {
	buffers := make([]gfx.CommandBuffer, count)
	for i := range buffers {
		cb := &CommandBuffer{Index: len(d.CommandBuffers)}
		d.CommandBuffers = append(d.CommandBuffers, cb)
		buffers[i] = cb
	}
	return buffers, nil
}

// CreateShaderModule implements gfx.Device.
func (d *Device) CreateShaderModule(code []byte) (gfx.ShaderModule, error) {
	if d.failNext(KindShaderModule) {
		return nil, fmt.Errorf("injected %s failure", KindShaderModule)
	}
	return d.newHandle(KindShaderModule), nil
}

// DestroyShaderModule implements gfx.Device.
func (d *Device) DestroyShaderModule(mod gfx.ShaderModule) { d.release(KindShaderModule, mod) }

// CreatePipelineLayout implements gfx.Device.
func (d *Device) CreatePipelineLayout() (gfx.PipelineLayout, error) {
	if d.failNext(KindPipelineLayout) {
		return nil, fmt.Errorf("injected %s failure", KindPipelineLayout)
	}
	return d.newHandle(KindPipelineLayout), nil
}

// DestroyPipelineLayout implements gfx.Device.
func (d *Device) DestroyPipelineLayout(layout gfx.PipelineLayout) {
	d.release(KindPipelineLayout, layout)
}

// CreatePipeline implements gfx.Device.
func (d *Device) CreatePipeline(cfg gfx.PipelineConfig) (gfx.Pipeline, error) {
	if d.failNext(KindPipeline) {
		return nil, fmt.Errorf("injected %s failure", KindPipeline)
	}
	d.PipelineConfigs = append(d.PipelineConfigs, cfg)
	return d.newHandle(KindPipeline), nil
}

// DestroyPipeline implements gfx.Device.
func (d *Device) DestroyPipeline(p gfx.Pipeline) { d.release(KindPipeline, p) }

// CreateVertexBuffer implements gfx.Device.
func (d *Device) CreateVertexBuffer(size uint) (gfx.Buffer, error) {
	if d.failNext(KindBuffer) {
		return nil, fmt.Errorf("injected %s failure", KindBuffer)
	}
	buf := d.newHandle(KindBuffer)
	buf.data = make([]byte, size)
	return buf, nil
}

// WriteBuffer implements gfx.Device.
func (d *Device) WriteBuffer(buf gfx.Buffer, data []byte) error {
	h := buf.(*handle)
	if len(data) > len(h.data) {
		return fmt.Errorf("write of %d bytes into %d byte buffer", len(data), len(h.data))
	}
	copy(h.data, data)
	return nil
}

// BufferData returns the current contents of a fake buffer.
func (d *Device) BufferData(buf gfx.Buffer) []byte {
	return buf.(*handle).data
}

// DestroyBuffer implements gfx.Device.
func (d *Device) DestroyBuffer(buf gfx.Buffer) { d.release(KindBuffer, buf) }

// AcquireNextImage implements gfx.Device.
func (d *Device) AcquireNextImage(sc gfx.Swapchain, timeout time.Duration, signal gfx.Semaphore) (uint32, error) {
	if d.Lost {
		return 0, gfx.ErrDeviceLost
	}
	if d.AcquireErr != nil {
		err := d.AcquireErr
		d.AcquireErr = nil
		return 0, err
	}
	if len(d.AcquireOrder) > 0 {
		idx := d.AcquireOrder[0]
		d.AcquireOrder = d.AcquireOrder[1:]
		return idx, nil
	}
	idx := d.acquireCursor % d.chain.imageCount
	d.acquireCursor++
	return idx, nil
}

// Submit implements gfx.Device.
func (d *Device) Submit(buf gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	if d.Lost {
		return gfx.ErrDeviceLost
	}
	if d.SubmitErr != nil {
		err := d.SubmitErr
		d.SubmitErr = nil
		return err
	}
	d.Submissions = append(d.Submissions, Submission{
		Buffer: buf,
		Wait:   wait,
		Signal: signal,
		Fence:  fence,
	})
	if !d.StallGPU {
		fence.(*handle).signaled = true
	}
	return nil
}

// Present implements gfx.Device.
func (d *Device) Present(sc gfx.Swapchain, imageIndex uint32, wait gfx.Semaphore) (bool, error) {
	if d.Lost {
		return false, gfx.ErrDeviceLost
	}
	if d.PresentErr != nil {
		err := d.PresentErr
		d.PresentErr = nil
		return false, err
	}
	if d.PresentSuboptimal {
		d.PresentSuboptimal = false
		return true, nil
	}
	return false, nil
}

// WaitIdle implements gfx.Device.
func (d *Device) WaitIdle() error {
	if d.Lost {
		return gfx.ErrDeviceLost
	}
	return nil
}

// Destroy implements gfx.Device.
func (d *Device) Destroy() { d.Destroyed++ }

// CommandBuffer records the calls made against it as readable op strings.
type CommandBuffer struct {
	// Index is the allocation order across the device's lifetime.
	Index int
	Ops   []string
}

// Begin implements gfx.CommandBuffer, resetting previous content.
func (c *CommandBuffer) Begin() error {
	c.Ops = c.Ops[:0]
	c.Ops = append(c.Ops, "begin")
	return nil
}

// BeginRenderPass implements gfx.CommandBuffer.
func (c *CommandBuffer) BeginRenderPass(pass gfx.RenderPass, fb gfx.Framebuffer, area gfx.Extent, clear gfx.ClearColor) {
	c.Ops = append(c.Ops, fmt.Sprintf("begin-pass %s", area))
}

// BindPipeline implements gfx.CommandBuffer.
func (c *CommandBuffer) BindPipeline(p gfx.Pipeline) {
	c.Ops = append(c.Ops, "bind-pipeline")
}

// BindVertexBuffer implements gfx.CommandBuffer.
func (c *CommandBuffer) BindVertexBuffer(buf gfx.Buffer) {
	c.Ops = append(c.Ops, "bind-vertex-buffer")
}

// Draw implements gfx.CommandBuffer.
func (c *CommandBuffer) Draw(vertexCount, instanceCount uint32) {
	c.Ops = append(c.Ops, fmt.Sprintf("draw %d %d", vertexCount, instanceCount))
}

// EndRenderPass implements gfx.CommandBuffer.
func (c *CommandBuffer) EndRenderPass() {
	c.Ops = append(c.Ops, "end-pass")
}

// End implements gfx.CommandBuffer.
func (c *CommandBuffer) End() error {
	c.Ops = append(c.Ops, "end")
	return nil
}
