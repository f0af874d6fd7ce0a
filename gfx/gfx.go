// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the contract between the frame-lifecycle engine and a
// concrete GPU backend. The engine in the core package is written strictly
// against these interfaces; gfx/vkr implements them on top of Vulkan and
// gfx/gfxtest provides a resource-tracking fake for tests.
//
// Resource handles are opaque to the engine. A handle returned by one Device
// must only ever be passed back to the same Device.
package gfx

import "time"

// Opaque backend-owned resource handles. The engine never inspects these,
// it only stores them and hands them back.
type (
	// Swapchain is the rotating set of presentable images.
	Swapchain interface{}

	// Image is a presentable image owned by a Swapchain.
	Image interface{}

	// ImageView is a view over a swapchain Image.
	ImageView interface{}

	// Framebuffer binds an ImageView to a RenderPass.
	Framebuffer interface{}

	// RenderPass is the fixed description of the single color attachment
	// and how the drawing pass reads and writes it.
	RenderPass interface{}

	// Semaphore is a GPU-internal ordering signal between queue operations.
	Semaphore interface{}

	// Fence is a CPU-observable GPU completion signal.
	Fence interface{}

	// CommandPool owns the command buffers allocated from it.
	CommandPool interface{}

	// ShaderModule is a loaded compiled shader binary.
	ShaderModule interface{}

	// PipelineLayout describes the (empty) descriptor interface of the pipeline.
	PipelineLayout interface{}

	// Pipeline is the compiled graphics pipeline object.
	Pipeline interface{}

	// Buffer is a host-visible GPU buffer.
	Buffer interface{}
)

// Device is a logical GPU device bound to a presentable surface, with a
// single queue capable of both graphics and presentation.
//
// All methods are driven from a single goroutine; implementations do not
// need to be safe for concurrent use. Destroy* methods are best effort and
// must tolerate being handed resources whose creation partially failed.
type Device interface {
	// SurfaceCapabilities queries what the surface currently supports.
	// The result changes across window resizes and must be re-queried
	// before every swapchain (re)creation.
	SurfaceCapabilities() (SurfaceCapabilities, error)

	// CreateSwapchain creates a presentation chain from a negotiated
	// configuration along with its images. The old chain, when not nil,
	// is passed to the driver as a retirement hint; the caller remains
	// responsible for destroying it after the new chain exists.
	CreateSwapchain(cfg SwapchainConfig, old Swapchain) (Swapchain, []Image, error)
	DestroySwapchain(sc Swapchain)

	CreateImageView(img Image, format Format) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateRenderPass(format Format) (RenderPass, error)
	DestroyRenderPass(pass RenderPass)

	CreateFramebuffer(pass RenderPass, view ImageView, extent Extent) (Framebuffer, error)
	DestroyFramebuffer(fb Framebuffer)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(sem Semaphore)

	// CreateFence creates a fence, optionally in the signaled state so
	// that the first wait on it never blocks.
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(f Fence)

	// WaitForFence blocks until the fence signals. Expiry of the timeout
	// yields ErrFenceTimeout, a lost device yields ErrDeviceLost; the two
	// must remain distinguishable.
	WaitForFence(f Fence, timeout time.Duration) error
	ResetFence(f Fence) error

	CreateCommandPool() (CommandPool, error)
	// ResetCommandPool returns all command buffers of the pool to the
	// initial state. Required before destroying render targets the
	// recorded buffers still reference.
	ResetCommandPool(pool CommandPool) error
	DestroyCommandPool(pool CommandPool)

	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)

	CreateShaderModule(code []byte) (ShaderModule, error)
	DestroyShaderModule(mod ShaderModule)

	CreatePipelineLayout() (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)

	CreatePipeline(cfg PipelineConfig) (Pipeline, error)
	DestroyPipeline(p Pipeline)

	// CreateVertexBuffer creates a host-visible, host-coherent buffer
	// usable as a vertex attribute source.
	CreateVertexBuffer(size uint) (Buffer, error)
	// WriteBuffer replaces the buffer contents starting at offset zero.
	WriteBuffer(buf Buffer, data []byte) error
	DestroyBuffer(buf Buffer)

	// AcquireNextImage requests the index of the next presentable image,
	// arranging for signal to fire once the image is actually available.
	// Returns ErrOutOfDate when the chain no longer matches the surface;
	// the caller must then recreate the chain and skip the frame.
	AcquireNextImage(sc Swapchain, timeout time.Duration, signal Semaphore) (uint32, error)

	// Submit queues the recorded buffer, waiting on wait at the
	// color-attachment-output stage, signaling signal on completion and
	// arming fence.
	Submit(buf CommandBuffer, wait, signal Semaphore, fence Fence) error

	// Present queues the image for presentation after wait fires.
	// suboptimal reports a soft success: the frame was displayed but the
	// chain should be recreated soon. ErrOutOfDate is a hard miss.
	Present(sc Swapchain, imageIndex uint32, wait Semaphore) (suboptimal bool, err error)

	// WaitIdle drains all in-flight GPU work.
	WaitIdle() error

	// Destroy releases the logical device. All dependent resources must
	// have been destroyed first.
	Destroy()
}

// CommandBuffer records the per-frame work for one swapchain image.
// Begin implicitly resets any previously recorded content.
type CommandBuffer interface {
	Begin() error
	BeginRenderPass(pass RenderPass, fb Framebuffer, area Extent, clear ClearColor)
	BindPipeline(p Pipeline)
	BindVertexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount uint32)
	EndRenderPass()
	End() error
}
