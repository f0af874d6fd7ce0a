// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "time"

// Default bounds for the blocking per-frame operations. A production
// renderer must never wait forever: expiry is surfaced as a recoverable
// frame error instead.
const (
	DefaultAcquireTimeout   = 5 * time.Second
	DefaultFenceWaitTimeout = 5 * time.Second
)

// Configuration defines a global engine configuration setting.
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services.
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out.
	// To unlimit, set to 0.
	FramesPerSecond int

	// EventPollDelay is the window event poll interval in milliseconds.
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer.
type RendererConfiguration struct {
	// ScreenWidth and ScreenHeight are the initial window client-area
	// size in physical pixels, used as the first extent hint.
	ScreenWidth  uint32
	ScreenHeight uint32

	// VertexShader and FragmentShader are compiled shader binaries,
	// produced by the shading collaborator.
	VertexShader   []byte
	FragmentShader []byte

	// AcquireTimeout bounds image acquisition; zero selects
	// DefaultAcquireTimeout.
	AcquireTimeout time.Duration

	// FenceWaitTimeout bounds the in-flight fence wait; zero selects
	// DefaultFenceWaitTimeout.
	FenceWaitTimeout time.Duration
}

func (c RendererConfiguration) acquireTimeout() time.Duration {
	if c.AcquireTimeout == 0 {
		return DefaultAcquireTimeout
	}
	return c.AcquireTimeout
}

func (c RendererConfiguration) fenceWaitTimeout() time.Duration {
	if c.FenceWaitTimeout == 0 {
		return DefaultFenceWaitTimeout
	}
	return c.FenceWaitTimeout
}
