// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "github.com/devblok/lumen/gfx"

// frameSync is one slot of the synchronization ring: the semaphore pair for
// a rotation slot and the fence guarding one swapchain image.
//
// The two are deliberately indexed differently during a frame. Semaphores
// belong to the rotation slot picked before acquisition; the fence belongs
// to whichever image index acquisition actually returns, because the
// presentation engine may hand images back out of rotation order.
type frameSync struct {
	imageAvailable gfx.Semaphore
	renderFinished gfx.Semaphore
	inFlight       gfx.Fence
}

// newSyncRing creates framesInFlight slots. Fences start signaled so the
// first wait on each never blocks. A partial failure releases what was
// already created.
func newSyncRing(dev gfx.Device, framesInFlight int) ([]frameSync, error) {
	ring := make([]frameSync, 0, framesInFlight)
	for i := 0; i < framesInFlight; i++ {
		var (
			slot frameSync
			err  error
		)
		if slot.imageAvailable, err = dev.CreateSemaphore(); err != nil {
			destroySyncRing(dev, ring)
			return nil, err
		}
		if slot.renderFinished, err = dev.CreateSemaphore(); err != nil {
			dev.DestroySemaphore(slot.imageAvailable)
			destroySyncRing(dev, ring)
			return nil, err
		}
		if slot.inFlight, err = dev.CreateFence(true); err != nil {
			dev.DestroySemaphore(slot.renderFinished)
			dev.DestroySemaphore(slot.imageAvailable)
			destroySyncRing(dev, ring)
			return nil, err
		}
		ring = append(ring, slot)
	}
	return ring, nil
}

func destroySyncRing(dev gfx.Device, ring []frameSync) {
	for _, slot := range ring {
		dev.DestroyFence(slot.inFlight)
		dev.DestroySemaphore(slot.renderFinished)
		dev.DestroySemaphore(slot.imageAvailable)
	}
}
