package boardview

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/boardview/internal/gpu"
	"github.com/gogpu/boardview/internal/shading"
)

// FrameStats summarizes GPU draw submission.
type FrameStats struct {
	Frames        uint64
	DrawCalls     int
	Instances     int
	SlotUploads   uint64
	SignalUploads uint64
	MemoryBytes   uint64
	Buffers       int
}

// gpuTarget is an attached device and the renderer drawing into it.
type gpuTarget struct {
	renderer *gpu.SurfaceRenderer
}

// AttachDevice makes Tick draw into an offscreen target of the given size
// on device. A previously attached device is detached first.
func (e *Engine) AttachDevice(device hal.Device, queue hal.Queue, width, height uint32) error {
	e.DetachDevice()
	r := gpu.NewSurfaceRenderer(device, queue)
	propagateLogger(r, e.log)
	if err := r.Resize(width, height); err != nil {
		r.Destroy()
		return fmt.Errorf("attach device: %w", err)
	}
	e.scene.AddReleaser(r)
	e.gpu = &gpuTarget{renderer: r}
	e.log.Info("boardview: device attached", "width", width, "height", height)
	return nil
}

// DetachDevice releases every GPU resource. It is a no-op without a device.
func (e *Engine) DetachDevice() {
	if e.gpu == nil {
		return
	}
	e.scene.RemoveReleaser(e.gpu.renderer)
	e.gpu.renderer.Destroy()
	e.gpu = nil
	e.log.Info("boardview: device detached")
}

// ResizeTarget changes the size of the attached offscreen target.
func (e *Engine) ResizeTarget(width, height uint32) error {
	if e.gpu == nil {
		return nil
	}
	return e.gpu.renderer.Resize(width, height)
}

// FrameStats returns GPU counters, or zero values without a device.
func (e *Engine) FrameStats() FrameStats {
	if e.gpu == nil {
		return FrameStats{}
	}
	s := e.gpu.renderer.Stats()
	return FrameStats{
		Frames:        s.Frames,
		DrawCalls:     s.DrawCalls,
		Instances:     s.Instances,
		SlotUploads:   s.SlotUploads,
		SignalUploads: s.SignalUploads,
		MemoryBytes:   s.Memory.UsedBytes,
		Buffers:       s.Memory.BufferCount,
	}
}

func (e *Engine) drawGPU() error {
	v, ok := viewOf(e.Camera())
	if !ok {
		return ErrNoCamera
	}
	r := e.gpu.renderer
	if err := r.Sync(e.scene); err != nil {
		return fmt.Errorf("sync surfaces: %w", err)
	}
	var handle *gpu.Overlay
	if g := e.ctrl.Gizmo(); g.Attached() {
		handle = &gpu.Overlay{Mesh: gizmoDisc, World: g.Matrix(), Material: shading.Gizmo, Tag: shading.TagRound}
	}
	if err := r.SyncOverlay(handle); err != nil {
		return fmt.Errorf("sync gizmo: %w", err)
	}
	return r.RenderFrame(gpu.Frame{
		ViewProj: v.viewProj,
		Eye:      v.eye,
		Light:    shading.DefaultLight,
		Clear:    e.clear,
	})
}
