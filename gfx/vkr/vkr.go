// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx contract on top of the Vulkan API.
package vkr

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/lumen/gfx"
)

// NewApplicationInfo builds the application info for an instance.
func NewApplicationInfo(appName string) *vk.ApplicationInfo {
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   appName + "\x00",
		PEngineName:        "Lumen\x00",
	}
}

// InstanceConfiguration configures a Vulkan instance.
type InstanceConfiguration struct {
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// NewInstance creates a Vulkan instance. The window proc address loader
// comes from the windowing collaborator; a nil loader falls back to the
// system default.
func NewInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (*Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, "VK_LAYER_KHRONOS_validation\x00")
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report\x00")
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: cfg.Extensions,
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     cfg.Layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	vk.InitInstance(instance)

	adapters, err := enumerateAdapters(instance)
	if err != nil {
		return nil, err
	}

	return &Instance{
		configuration: cfg,
		instance:      instance,
		adapters:      adapters,
	}, nil
}

// Instance describes a Vulkan API instance and the adapters it exposes.
type Instance struct {
	configuration InstanceConfiguration

	adapters []vk.PhysicalDevice
	surface  vk.Surface
	instance vk.Instance
}

func enumerateAdapters(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	adapters := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &count, adapters)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return adapters, nil
}

// SetSurface sets the window surface for rendering.
func (i *Instance) SetSurface(pSurface unsafe.Pointer) {
	i.surface = vk.SurfaceFromPointer(uintptr(pSurface))
}

// Surface returns the window surface, if it's not set
// it returns a valid but empty surface.
func (i *Instance) Surface() vk.Surface {
	if i.surface == nil {
		return vk.NullSurface
	}
	return i.surface
}

// Inner returns the inner vk.Instance handle.
func (i *Instance) Inner() interface{} {
	return i.instance
}

// Adapters returns handles of the physical devices.
func (i *Instance) Adapters() []vk.PhysicalDevice {
	return i.adapters
}

// Extensions returns the enabled instance extensions.
func (i *Instance) Extensions() []string {
	return i.configuration.Extensions
}

// Destroy destroys internal members.
func (i *Instance) Destroy() {
	i.adapters = nil
	vk.DestroyInstance(i.instance, nil)
}

var _ gfx.Device = (*Device)(nil)
