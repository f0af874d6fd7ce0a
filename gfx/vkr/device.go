// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"math"
	"time"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/lumen/gfx"
)

var requiredDeviceExtensions = []string{
	vk.KhrSwapchainExtensionName + "\x00",
}

// NewDevice selects the first adapter exposing a queue family that can both
// draw and present to the instance's surface, opens a logical device with a
// single queue from that family at priority 1.0 and wraps it as a
// gfx.Device.
func NewDevice(instance *Instance) (*Device, error) {
	surface := instance.Surface()

	adapter, familyIndex, err := selectAdapter(instance.Adapters(), surface)
	if err != nil {
		return nil, err
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: familyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	var device vk.Device
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredDeviceExtensions)),
		PpEnabledExtensionNames: requiredDeviceExtensions,
	}
	if err := vk.Error(vk.CreateDevice(adapter, &dci, nil, &device)); err != nil {
		return nil, fmt.Errorf("%w: %s", gfx.ErrDeviceOpenFailed, err.Error())
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, familyIndex, 0, &queue)

	d := &Device{
		adapter:     adapter,
		device:      device,
		queue:       queue,
		surface:     surface,
		familyIndex: familyIndex,
	}
	if d.allocator, err = NewMemoryAllocator(device, adapter); err != nil {
		vk.DestroyDevice(device, nil)
		return nil, err
	}
	return d, nil
}

// selectAdapter walks adapters in enumeration order and picks the first one
// with a queue family supporting both graphics and presentation.
func selectAdapter(adapters []vk.PhysicalDevice, surface vk.Surface) (vk.PhysicalDevice, uint32, error) {
	for _, adapter := range adapters {
		var familyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(adapter, &familyCount, nil)
		families := make([]vk.QueueFamilyProperties, familyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(adapter, &familyCount, families)

		for idx := uint32(0); idx < familyCount; idx++ {
			families[idx].Deref()
			if families[idx].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
				continue
			}
			var supportsPresent vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(adapter, idx, surface, &supportsPresent)
			if supportsPresent.B() {
				return adapter, idx, nil
			}
		}
	}
	return nil, 0, gfx.ErrNoSuitableAdapter
}

// Device is the Vulkan implementation of gfx.Device.
type Device struct {
	adapter     vk.PhysicalDevice
	device      vk.Device
	queue       vk.Queue
	surface     vk.Surface
	familyIndex uint32

	allocator *MemoryAllocator
}

// SurfaceCapabilities implements gfx.Device.
func (d *Device) SurfaceCapabilities() (gfx.SurfaceCapabilities, error) {
	var surfaceCaps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.adapter, d.surface, &surfaceCaps)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	surfaceCaps.Deref()
	surfaceCaps.CurrentExtent.Deref()
	surfaceCaps.MinImageExtent.Deref()
	surfaceCaps.MaxImageExtent.Deref()

	caps := gfx.SurfaceCapabilities{
		MinImageCount: surfaceCaps.MinImageCount,
		MaxImageCount: surfaceCaps.MaxImageCount,
		MinExtent: gfx.Extent{
			Width:  surfaceCaps.MinImageExtent.Width,
			Height: surfaceCaps.MinImageExtent.Height,
		},
		MaxExtent: gfx.Extent{
			Width:  surfaceCaps.MaxImageExtent.Width,
			Height: surfaceCaps.MaxImageExtent.Height,
		},
		SupportsColorAttachment: surfaceCaps.SupportedUsageFlags&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) != 0,
	}

	// A maximum of zero means the driver imposes no upper bound.
	if caps.MaxImageCount == 0 {
		caps.MaxImageCount = math.MaxUint32
	}

	// The magic all-ones extent means the surface follows the window;
	// anything else is a fixed extent the chain must match.
	if surfaceCaps.CurrentExtent.Width != math.MaxUint32 {
		caps.CurrentExtent = &gfx.Extent{
			Width:  surfaceCaps.CurrentExtent.Width,
			Height: surfaceCaps.CurrentExtent.Height,
		}
	}

	for _, bit := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaInheritBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
	} {
		if surfaceCaps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
			caps.CompositeAlphas = append(caps.CompositeAlphas, compositeAlphaFromVulkan(bit))
		}
	}

	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.adapter, d.surface, &modeCount, nil)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.adapter, d.surface, &modeCount, modes)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	for _, mode := range modes {
		if pm, ok := presentModeFromVulkan(mode); ok {
			caps.PresentModes = append(caps.PresentModes, pm)
		}
	}

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.adapter, d.surface, &formatCount, nil)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.adapter, d.surface, &formatCount, formats)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	for _, sf := range formats {
		sf.Deref()
		// A single undefined entry is Vulkan for "no preference".
		if formatCount == 1 && sf.Format == vk.FormatUndefined {
			break
		}
		if f, ok := formatFromVulkan(sf.Format); ok {
			caps.Formats = append(caps.Formats, f)
		}
	}

	return caps, nil
}

// CreateSemaphore implements gfx.Device.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	return semaphore, nil
}

// DestroySemaphore implements gfx.Device.
func (d *Device) DestroySemaphore(sem gfx.Semaphore) {
	vk.DestroySemaphore(d.device, sem.(vk.Semaphore), nil)
}

// CreateFence implements gfx.Device.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.New("vk.CreateFence(): " + err.Error())
	}
	return fence, nil
}

// DestroyFence implements gfx.Device.
func (d *Device) DestroyFence(f gfx.Fence) {
	vk.DestroyFence(d.device, f.(vk.Fence), nil)
}

// WaitForFence implements gfx.Device.
func (d *Device) WaitForFence(f gfx.Fence, timeout time.Duration) error {
	result := vk.WaitForFences(d.device, 1, []vk.Fence{f.(vk.Fence)}, vk.True, uint64(timeout.Nanoseconds()))
	switch result {
	case vk.Success:
		return nil
	case vk.Timeout:
		return gfx.ErrFenceTimeout
	case vk.ErrorDeviceLost:
		return gfx.ErrDeviceLost
	default:
		return errors.New("vk.WaitForFences(): " + vk.Error(result).Error())
	}
}

// ResetFence implements gfx.Device.
func (d *Device) ResetFence(f gfx.Fence) error {
	if err := vk.Error(vk.ResetFences(d.device, 1, []vk.Fence{f.(vk.Fence)})); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}
	return nil
}

// WaitIdle implements gfx.Device.
func (d *Device) WaitIdle() error {
	result := vk.DeviceWaitIdle(d.device)
	if result == vk.ErrorDeviceLost {
		return gfx.ErrDeviceLost
	}
	if err := vk.Error(result); err != nil {
		return errors.New("vk.DeviceWaitIdle(): " + err.Error())
	}
	return nil
}

// Destroy implements gfx.Device. Dependent resources must already be gone.
func (d *Device) Destroy() {
	vk.DestroyDevice(d.device, nil)
}
