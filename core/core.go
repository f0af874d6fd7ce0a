// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core implements the frame-lifecycle engine: swapchain negotiation
// and recreation, the render-target set, the synchronization ring, per-frame
// command recording and submission, and ordered teardown of every GPU
// resource. It is written against the gfx.Device contract and never touches
// a GPU API directly; the backend is an explicit parameter chosen by the
// application shell.
package core

import "github.com/devblok/lumen/gfx"

// Renderer describes the rendering machinery. It's created with internal
// values set only, it needs to be initialised with Initialise() before use.
type Renderer interface {
	// Initialise builds the swapchain, render targets, synchronization
	// ring and the triangle pipeline.
	Initialise() error

	// DrawClearFrame acquires the next image, clears it to the given
	// color and presents it.
	DrawClearFrame(color gfx.ClearColor) error

	// DrawTriangleFrame clears and then draws the given triangle.
	DrawTriangleFrame(tri Triangle) error

	// RecreateSwapchain tears the presentation chain and everything
	// derived from it down and rebuilds them against the hinted window
	// extent. A zero hint re-uses the previous one.
	RecreateSwapchain(hint gfx.Extent) error

	// Extent returns the currently negotiated swapchain extent.
	Extent() gfx.Extent

	// FramesInFlight returns the negotiated chain length.
	FramesInFlight() int

	// Destroy destroys internal members in reverse creation order.
	// Safe to call more than once.
	Destroy()
}

// Destroyable defines any resource-owning item that can be torn down.
type Destroyable interface {
	Destroy()
}

// ShaderType represents the type of shader that's loaded.
type ShaderType int

// Identifies shader binaries with their pipeline stage.
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

// Compiler is the shading collaborator: it turns shader source text into a
// loadable binary module. The engine only ever consumes the binary; no
// compiler implementation ships with it.
type Compiler interface {
	Compile(source, entryPoint string, kind ShaderType) ([]byte, error)
}
