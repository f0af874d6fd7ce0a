// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"time"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/lumen/gfx"
)

// CreateCommandPool implements gfx.Device. The pool allows individual buffer
// resets so Begin can re-record a buffer without recycling the whole pool.
func (d *Device) CreateCommandPool() (gfx.CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.familyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.device, &cpci, nil, &pool)); err != nil {
		return nil, errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	return pool, nil
}

// ResetCommandPool implements gfx.Device.
func (d *Device) ResetCommandPool(pool gfx.CommandPool) error {
	if err := vk.Error(vk.ResetCommandPool(d.device, pool.(vk.CommandPool), 0)); err != nil {
		return errors.New("vk.ResetCommandPool(): " + err.Error())
	}
	return nil
}

// DestroyCommandPool implements gfx.Device. Frees every buffer allocated
// from the pool along with it.
func (d *Device) DestroyCommandPool(pool gfx.CommandPool) {
	vk.DestroyCommandPool(d.device, pool.(vk.CommandPool), nil)
}

// AllocateCommandBuffers implements gfx.Device.
func (d *Device) AllocateCommandBuffers(pool gfx.CommandPool, count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool.(vk.CommandPool),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	buffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, buffers)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}

	out := make([]gfx.CommandBuffer, count)
	for idx, buf := range buffers {
		out[idx] = &commandBuffer{buffer: buf}
	}
	return out, nil
}

// AcquireNextImage implements gfx.Device.
func (d *Device) AcquireNextImage(sc gfx.Swapchain, timeout time.Duration, signal gfx.Semaphore) (uint32, error) {
	var idx uint32
	result := vk.AcquireNextImage(
		d.device, sc.(vk.Swapchain), uint64(timeout.Nanoseconds()),
		signal.(vk.Semaphore), vk.NullFence, &idx)
	switch result {
	case vk.Success, vk.Suboptimal:
		// A suboptimal acquire still yields a usable image; the present
		// side reports the condition.
		return idx, nil
	case vk.ErrorOutOfDate:
		return 0, gfx.ErrOutOfDate
	case vk.Timeout, vk.NotReady:
		return 0, gfx.ErrFenceTimeout
	case vk.ErrorDeviceLost:
		return 0, gfx.ErrDeviceLost
	default:
		return 0, errors.New("vk.AcquireNextImage(): " + vk.Error(result).Error())
	}
}

// Submit implements gfx.Device.
func (d *Device) Submit(buf gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(vk.Semaphore)},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{buf.(*commandBuffer).buffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal.(vk.Semaphore)},
	}
	result := vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{si}, fence.(vk.Fence))
	if result == vk.ErrorDeviceLost {
		return gfx.ErrDeviceLost
	}
	if err := vk.Error(result); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	return nil
}

// Present implements gfx.Device.
func (d *Device) Present(sc gfx.Swapchain, imageIndex uint32, wait gfx.Semaphore) (bool, error) {
	pi := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(vk.Semaphore)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.(vk.Swapchain)},
		PImageIndices:      []uint32{imageIndex},
	}
	result := vk.QueuePresent(d.queue, &pi)
	switch result {
	case vk.Success:
		return false, nil
	case vk.Suboptimal:
		return true, nil
	case vk.ErrorOutOfDate:
		return false, gfx.ErrOutOfDate
	case vk.ErrorDeviceLost:
		return false, gfx.ErrDeviceLost
	default:
		return false, errors.New("vk.QueuePresent(): " + vk.Error(result).Error())
	}
}

// commandBuffer implements gfx.CommandBuffer over a primary Vulkan buffer.
type commandBuffer struct {
	buffer vk.CommandBuffer
}

// Begin implements gfx.CommandBuffer. The pool is created with per-buffer
// reset, so beginning again implicitly discards the old recording.
func (c *commandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if err := vk.Error(vk.BeginCommandBuffer(c.buffer, &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}
	return nil
}

// BeginRenderPass implements gfx.CommandBuffer.
func (c *commandBuffer) BeginRenderPass(pass gfx.RenderPass, fb gfx.Framebuffer, area gfx.Extent, clear gfx.ClearColor) {
	var clearValue vk.ClearValue
	clearValue.SetColor([]float32{clear[0], clear[1], clear[2], clear[3]})

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass.(vk.RenderPass),
		Framebuffer: fb.(vk.Framebuffer),
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{
				Width:  area.Width,
				Height: area.Height,
			},
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clearValue},
	}
	vk.CmdBeginRenderPass(c.buffer, &rpbi, vk.SubpassContentsInline)
}

// BindPipeline implements gfx.CommandBuffer.
func (c *commandBuffer) BindPipeline(p gfx.Pipeline) {
	vk.CmdBindPipeline(c.buffer, vk.PipelineBindPointGraphics, p.(vk.Pipeline))
}

// BindVertexBuffer implements gfx.CommandBuffer.
func (c *commandBuffer) BindVertexBuffer(buf gfx.Buffer) {
	vk.CmdBindVertexBuffers(c.buffer, 0, 1, []vk.Buffer{buf.(*buffer).buffer}, []vk.DeviceSize{0})
}

// Draw implements gfx.CommandBuffer.
func (c *commandBuffer) Draw(vertexCount, instanceCount uint32) {
	vk.CmdDraw(c.buffer, vertexCount, instanceCount, 0, 0)
}

// EndRenderPass implements gfx.CommandBuffer.
func (c *commandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.buffer)
}

// End implements gfx.CommandBuffer.
func (c *commandBuffer) End() error {
	if err := vk.Error(vk.EndCommandBuffer(c.buffer)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}
	return nil
}
