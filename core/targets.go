// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "github.com/devblok/lumen/gfx"

// buildTargets derives one image view and one framebuffer per swapchain
// image, all bound to the single render pass. On any individual failure the
// partially built batch is released before the error is returned, so a
// failed build never leaks.
func buildTargets(dev gfx.Device, pass gfx.RenderPass, images []gfx.Image, format gfx.Format, extent gfx.Extent) ([]gfx.ImageView, []gfx.Framebuffer, error) {
	views := make([]gfx.ImageView, 0, len(images))
	framebuffers := make([]gfx.Framebuffer, 0, len(images))

	release := func() {
		for _, fb := range framebuffers {
			dev.DestroyFramebuffer(fb)
		}
		for _, view := range views {
			dev.DestroyImageView(view)
		}
	}

	for idx, img := range images {
		view, err := dev.CreateImageView(img, format)
		if err != nil {
			release()
			return nil, nil, &TargetError{Index: idx, Err: err}
		}
		views = append(views, view)

		fb, err := dev.CreateFramebuffer(pass, view, extent)
		if err != nil {
			release()
			return nil, nil, &TargetError{Index: idx, Err: err}
		}
		framebuffers = append(framebuffers, fb)
	}
	return views, framebuffers, nil
}

// destroyTargets releases framebuffers before the image views they depend
// on. Leaves first.
func destroyTargets(dev gfx.Device, views []gfx.ImageView, framebuffers []gfx.Framebuffer) {
	for _, fb := range framebuffers {
		dev.DestroyFramebuffer(fb)
	}
	for _, view := range views {
		dev.DestroyImageView(view)
	}
}
