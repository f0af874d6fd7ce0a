// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
)

// Swapchain negotiation failures. All of them are wrapped in a
// *SwapchainError by the negotiator.
var (
	ErrNoPresentMode    = errors.New("no supported present mode")
	ErrNoCompositeAlpha = errors.New("no supported composite alpha mode")
	ErrNoFormat         = errors.New("surface format list is empty")
	ErrSurfaceNoColor   = errors.New("surface does not support color attachment usage")
)

// SetupError is an adapter, device or queue selection failure. Fatal;
// startup must be aborted.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return "setup: " + e.Op + ": " + e.Err.Error()
}

func (e *SetupError) Unwrap() error { return e.Err }

// SwapchainError is a negotiation or creation failure of the presentation
// chain. Fatal at startup, recoverable by retry on resize.
type SwapchainError struct {
	Op  string
	Err error
}

func (e *SwapchainError) Error() string {
	return "swapchain: " + e.Op + ": " + e.Err.Error()
}

func (e *SwapchainError) Unwrap() error { return e.Err }

// TargetError is an image view or framebuffer build failure.
type TargetError struct {
	Index int
	Err   error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("render target %d: %s", e.Index, e.Err.Error())
}

func (e *TargetError) Unwrap() error { return e.Err }

// PipelineError is a shader module, layout or pipeline build failure.
type PipelineError struct {
	Op  string
	Err error
}

func (e *PipelineError) Error() string {
	return "pipeline: " + e.Op + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() error { return e.Err }

// FrameStage names the step of the per-frame protocol an error occurred in.
type FrameStage int

const (
	StageAcquire FrameStage = iota
	StageFenceWait
	StageRecord
	StageSubmit
	StagePresent
)

func (s FrameStage) String() string {
	switch s {
	case StageAcquire:
		return "acquire"
	case StageFenceWait:
		return "fence wait"
	case StageRecord:
		return "record"
	case StageSubmit:
		return "submit"
	case StagePresent:
		return "present"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// FrameError is a per-frame acquire, submit or present failure. The frame
// is skipped and the loop continues; the caller decides whether repeated
// failures warrant shutting down.
type FrameError struct {
	Stage FrameStage
	Err   error
}

func (e *FrameError) Error() string {
	return "frame " + e.Stage.String() + ": " + e.Err.Error()
}

func (e *FrameError) Unwrap() error { return e.Err }
