// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "errors"

// Sentinel errors produced by backends. The engine matches on these with
// errors.Is and wraps them into its own taxonomy.
var (
	// ErrNoSuitableAdapter means no GPU exposes a queue family that can
	// both draw and present to the surface.
	ErrNoSuitableAdapter = errors.New("gfx: no adapter with a graphics+present queue family")

	// ErrDeviceOpenFailed means the logical device open call was rejected.
	ErrDeviceOpenFailed = errors.New("gfx: could not open the logical device")

	// ErrOutOfDate means the swapchain no longer matches the surface and
	// must be recreated before any further acquisition or presentation.
	ErrOutOfDate = errors.New("gfx: swapchain out of date")

	// ErrFenceTimeout means a fence wait exceeded its configured bound.
	ErrFenceTimeout = errors.New("gfx: fence wait timed out")

	// ErrDeviceLost means the GPU device was lost; no recovery is possible
	// short of a full reinitialisation.
	ErrDeviceLost = errors.New("gfx: device lost")
)
