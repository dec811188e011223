package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// frameTargets is the owned color and depth attachment pair.
type frameTargets struct {
	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView
	width     uint32
	height    uint32
}

// ensure (re)creates the attachments when the size changed.
func (t *frameTargets) ensure(device hal.Device, width, height uint32) error {
	if t.width == width && t.height == height && t.colorTex != nil {
		return nil
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("gpu: invalid target size %dx%d", width, height)
	}

	// Destroy old textures if they exist (resize path).
	t.destroy(device)

	size := hal.Extent3D{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
	}

	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "surface_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	t.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "surface_color_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create color texture view: %w", err)
	}
	t.colorView = colorView

	depthTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "surface_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create depth texture: %w", err)
	}
	t.depthTex = depthTex

	depthView, err := device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "surface_depth_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("create depth texture view: %w", err)
	}
	t.depthView = depthView

	t.width = width
	t.height = height
	return nil
}

// destroy releases all texture views and textures, resetting dimensions to zero.
func (t *frameTargets) destroy(device hal.Device) {
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		device.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
	if t.colorView != nil {
		device.DestroyTextureView(t.colorView)
		t.colorView = nil
	}
	if t.colorTex != nil {
		device.DestroyTexture(t.colorTex)
		t.colorTex = nil
	}
	t.width = 0
	t.height = 0
}
