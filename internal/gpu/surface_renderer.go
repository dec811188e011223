package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/boardview/internal/batch"
	"github.com/gogpu/boardview/internal/geom"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/shading"
	"github.com/gogpu/boardview/internal/xform"
)

// Frame holds the per-frame inputs of RenderFrame.
type Frame struct {
	ViewProj xform.Mat4
	Eye      r3.Vec
	Light    shading.Light
	Clear    shading.RGBA
}

// FrameStats counts renderer work. Draw and instance counts describe the
// last frame; upload counters are cumulative.
type FrameStats struct {
	Frames        uint64
	DrawCalls     int
	Instances     int
	SlotUploads   uint64
	SignalUploads uint64
	Memory        MemoryStats
}

// SurfaceRenderer draws a scene with one depth-tested pipeline. It
// implements scene.Releaser; register it with Scene.AddReleaser so that
// rebuilds free the previous draw units first.
type SurfaceRenderer struct {
	device hal.Device
	queue  hal.Queue

	pipe       surfacePipeline
	targets    frameTargets
	external   hal.TextureView
	globalsBuf hal.Buffer

	templates map[*batch.Template]*meshBuffers
	batches   map[*batch.Batch]*drawUnit
	meshes    map[*scene.Mesh]*drawUnit
	draws     []*drawUnit
	overlay   overlayUnit

	ledger *memoryLedger
	stats  FrameStats
}

var _ scene.Releaser = (*SurfaceRenderer)(nil)

// NewSurfaceRenderer creates a renderer for the given device and queue.
// GPU objects are created lazily by Sync.
func NewSurfaceRenderer(device hal.Device, queue hal.Queue) *SurfaceRenderer {
	return &SurfaceRenderer{
		device:    device,
		queue:     queue,
		templates: make(map[*batch.Template]*meshBuffers),
		batches:   make(map[*batch.Batch]*drawUnit),
		meshes:    make(map[*scene.Mesh]*drawUnit),
		ledger:    newMemoryLedger(DefaultMaxMemoryMB),
	}
}

// SetLogger sets the logger for the gpu package.
func (r *SurfaceRenderer) SetLogger(l *slog.Logger) { setLogger(l) }

// SetMemoryBudget sets the buffer budget in megabytes. Values below
// MinMemoryMB select the default.
func (r *SurfaceRenderer) SetMemoryBudget(mb int) {
	l := newMemoryLedger(mb)
	l.used, l.sizes = r.ledger.used, r.ledger.sizes
	r.ledger = l
}

// SetSurfaceTarget renders into an externally owned color view (for
// example a swapchain texture) instead of the renderer's own texture. Pass
// nil to return to the owned target. Depth stays owned.
func (r *SurfaceRenderer) SetSurfaceTarget(view hal.TextureView) { r.external = view }

// Resize allocates the owned color and depth targets.
func (r *SurfaceRenderer) Resize(width, height uint32) error {
	if r.device == nil {
		return ErrNoDevice
	}
	return r.targets.ensure(r.device, width, height)
}

// Size returns the current target size.
func (r *SurfaceRenderer) Size() (uint32, uint32) { return r.targets.width, r.targets.height }

// ColorTexture returns the owned color target, or nil before Resize.
func (r *SurfaceRenderer) ColorTexture() hal.Texture { return r.targets.colorTex }

// Stats returns the renderer counters.
func (r *SurfaceRenderer) Stats() FrameStats {
	s := r.stats
	s.Memory = r.ledger.stats()
	return s
}

// ensurePipeline creates the shader, layouts, pipeline and globals buffer
// if they don't already exist.
func (r *SurfaceRenderer) ensurePipeline() error {
	if r.device == nil {
		return ErrNoDevice
	}
	if r.pipe.pipeline != nil {
		return nil
	}
	if err := r.pipe.create(r.device); err != nil {
		r.pipe.destroy(r.device)
		return err
	}
	buf, err := r.createBuffer("surface_globals", shading.GlobalsSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.pipe.destroy(r.device)
		return err
	}
	r.globalsBuf = buf
	slogger().Debug("gpu: surface pipeline ready")
	return nil
}

// Sync brings the GPU copies up to date with s: new batches and meshes get
// draw units, dirty instance slots and changed signals are rewritten in
// place. The draw list follows scene order: substrate, batches, ribbons.
func (r *SurfaceRenderer) Sync(s *scene.Scene) error {
	if err := r.ensurePipeline(); err != nil {
		return err
	}
	r.draws = r.draws[:0]
	if m := s.Substrate(); m != nil {
		if err := r.syncMesh(m); err != nil {
			return err
		}
	}
	for _, b := range s.Manager().Batches() {
		if err := r.syncBatch(b); err != nil {
			return err
		}
	}
	for _, m := range s.Ribbons() {
		if err := r.syncMesh(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *SurfaceRenderer) syncBatch(b *batch.Batch) error {
	u, ok := r.batches[b]
	if !ok {
		geo, err := r.templateBuffers(b.Template)
		if err != nil {
			return err
		}
		inst := make([]byte, b.Count()*instanceStride)
		for slot := range b.Count() {
			putMatrix(inst[slot*instanceStride:], b.World(slot))
		}
		surface := shading.PackSurface(b.Template.Material, b.Template.Tag, b.Hovered(), b.Selected())
		u, err = r.newDrawUnit("batch_"+b.Key.String(), geo, false, inst, surface)
		if err != nil {
			return err
		}
		r.batches[b] = u
		b.ClearDirty()
		b.TakeSignalsDirty()
		slogger().Debug("gpu: batch uploaded", "key", b.Key.String(), "instances", b.Count())
	} else {
		for _, slot := range b.DirtySlots() {
			data := make([]byte, instanceStride)
			putMatrix(data, b.World(slot))
			if err := r.queue.WriteBuffer(u.instBuf, uint64(slot)*instanceStride, data); err != nil {
				return fmt.Errorf("write instance slot %d of %s: %w", slot, b.Key, err)
			}
			r.stats.SlotUploads++
		}
		b.ClearDirty()
		if b.TakeSignalsDirty() {
			if err := r.writeSignals(u, b.Hovered(), b.Selected()); err != nil {
				return err
			}
		}
	}
	r.draws = append(r.draws, u)
	return nil
}

func (r *SurfaceRenderer) syncMesh(m *scene.Mesh) error {
	u, ok := r.meshes[m]
	if !ok {
		if m.Geometry.Empty() {
			return nil
		}
		geo, err := r.uploadMesh("mesh_"+m.ID, m.Geometry)
		if err != nil {
			return err
		}
		inst := make([]byte, instanceStride)
		putMatrix(inst, m.World())
		h, s := meshSignals(m)
		surface := shading.PackSurface(m.Material, m.Tag, h, s)
		u, err = r.newDrawUnit("mesh_"+m.ID, geo, true, inst, surface)
		if err != nil {
			geo.destroy(r.device, r.ledger)
			return err
		}
		r.meshes[m] = u
		m.TakeTransformDirty()
		m.TakeSignalsDirty()
	} else {
		if m.TakeTransformDirty() {
			data := make([]byte, instanceStride)
			putMatrix(data, m.World())
			if err := r.queue.WriteBuffer(u.instBuf, 0, data); err != nil {
				return fmt.Errorf("write transform of %s: %w", u.label, err)
			}
			r.stats.SlotUploads++
		}
		if m.TakeSignalsDirty() {
			h, s := meshSignals(m)
			if err := r.writeSignals(u, h, s); err != nil {
				return err
			}
		}
	}
	r.draws = append(r.draws, u)
	return nil
}

// meshSignals maps a standalone mesh's boolean signals onto its single
// instance index.
func meshSignals(m *scene.Mesh) (hovered, selected int) {
	sig := m.Signals()
	hovered, selected = shading.NoSlot, shading.NoSlot
	if sig.Hovered {
		hovered = 0
	}
	if sig.Selected {
		selected = 0
	}
	return hovered, selected
}

func (r *SurfaceRenderer) writeSignals(u *drawUnit, hovered, selected int) error {
	if err := r.queue.WriteBuffer(u.surfaceBuf, shading.SurfaceSignalsOffset, packSignals(hovered, selected)); err != nil {
		return fmt.Errorf("write signals of %s: %w", u.label, err)
	}
	r.stats.SignalUploads++
	return nil
}

// templateBuffers uploads a shared template on first use. Template
// buffers live until Destroy.
func (r *SurfaceRenderer) templateBuffers(t *batch.Template) (*meshBuffers, error) {
	if geo, ok := r.templates[t]; ok {
		return geo, nil
	}
	geo, err := r.uploadMesh("template_"+string(t.Kind), t.Mesh)
	if err != nil {
		return nil, err
	}
	r.templates[t] = geo
	return geo, nil
}

func (r *SurfaceRenderer) uploadMesh(label string, m *geom.Mesh) (*meshBuffers, error) {
	vb, err := r.createAndUploadBuffer(label+"_vertices", packVertices(m),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	ib, err := r.createAndUploadBuffer(label+"_indices", packIndices(m),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.ledger.destroyBuffer(r.device, vb)
		return nil, err
	}
	return &meshBuffers{vertBuf: vb, indexBuf: ib, indexCount: uint32(len(m.Indices))}, nil //nolint:gosec // index count fits uint32
}

func (r *SurfaceRenderer) newDrawUnit(label string, geo *meshBuffers, owns bool, inst, surface []byte) (*drawUnit, error) {
	u := &drawUnit{label: label, geometry: geo, ownsGeometry: owns, instances: uint32(len(inst) / instanceStride)} //nolint:gosec // instance count fits uint32
	var err error
	u.instBuf, err = r.createAndUploadBuffer(label+"_instances", inst,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	u.surfaceBuf, err = r.createAndUploadBuffer(label+"_surface", surface,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		r.ledger.destroyBuffer(r.device, u.instBuf)
		return nil, err
	}
	u.bindGroup, err = r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_bind_group",
		Layout: r.pipe.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.globalsBuf.NativeHandle(), Offset: 0, Size: shading.GlobalsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: u.surfaceBuf.NativeHandle(), Offset: 0, Size: shading.SurfaceSize}},
		},
	})
	if err != nil {
		r.ledger.destroyBuffer(r.device, u.surfaceBuf)
		r.ledger.destroyBuffer(r.device, u.instBuf)
		return nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	return u, nil
}

// createBuffer creates an empty GPU buffer within the memory budget.
func (r *SurfaceRenderer) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	if err := r.ledger.reserve(label, size); err != nil {
		return nil, err
	}
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.ledger.track(buf, size)
	return buf, nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (r *SurfaceRenderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.createBuffer(label, uint64(len(data)), usage)
	if err != nil {
		return nil, err
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.ledger.destroyBuffer(r.device, buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

// RenderFrame writes the frame globals, encodes one render pass over the
// synced draw list, submits it and waits for the queue to drain.
func (r *SurfaceRenderer) RenderFrame(f Frame) error {
	if err := r.ensurePipeline(); err != nil {
		return err
	}
	if r.targets.depthView == nil {
		return fmt.Errorf("gpu: RenderFrame before Resize")
	}
	if err := r.queue.WriteBuffer(r.globalsBuf, 0, shading.PackGlobals(f.ViewProj, f.Light, f.Eye)); err != nil {
		return fmt.Errorf("write globals: %w", err)
	}

	view := r.targets.colorView
	if r.external != nil {
		view = r.external
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "surface_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("surface_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "surface_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: f.Clear.R, G: f.Clear.G, B: f.Clear.B, A: f.Clear.A},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            r.targets.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	draws, instances := 0, 0
	rp.SetPipeline(r.pipe.pipeline)
	for _, u := range r.draws {
		if u.instances == 0 || u.geometry == nil {
			continue
		}
		rp.SetBindGroup(0, u.bindGroup, nil)
		rp.SetVertexBuffer(0, u.geometry.vertBuf, 0)
		rp.SetVertexBuffer(1, u.instBuf, 0)
		rp.SetIndexBuffer(u.geometry.indexBuf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(u.geometry.indexCount, u.instances, 0, 0, 0)
		draws++
		instances += int(u.instances)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}

	r.stats.Frames++
	r.stats.DrawCalls = draws
	r.stats.Instances = instances
	return nil
}

// ReleaseBatch destroys the draw unit of b. Template geometry is kept.
func (r *SurfaceRenderer) ReleaseBatch(b *batch.Batch) {
	if u, ok := r.batches[b]; ok {
		u.destroy(r.device, r.ledger)
		delete(r.batches, b)
		r.dropDraw(u)
	}
}

// ReleaseMesh destroys the draw unit and geometry of m.
func (r *SurfaceRenderer) ReleaseMesh(m *scene.Mesh) {
	if u, ok := r.meshes[m]; ok {
		u.destroy(r.device, r.ledger)
		delete(r.meshes, m)
		r.dropDraw(u)
	}
}

func (r *SurfaceRenderer) dropDraw(u *drawUnit) {
	for i, d := range r.draws {
		if d == u {
			r.draws = append(r.draws[:i], r.draws[i+1:]...)
			return
		}
	}
}

// Destroy releases every GPU resource held by the renderer. Safe to call
// multiple times.
func (r *SurfaceRenderer) Destroy() {
	if r.device == nil {
		return
	}
	for b, u := range r.batches {
		u.destroy(r.device, r.ledger)
		delete(r.batches, b)
	}
	for m, u := range r.meshes {
		u.destroy(r.device, r.ledger)
		delete(r.meshes, m)
	}
	for t, geo := range r.templates {
		geo.destroy(r.device, r.ledger)
		delete(r.templates, t)
	}
	r.releaseOverlay()
	r.draws = nil
	r.ledger.destroyBuffer(r.device, r.globalsBuf)
	r.globalsBuf = nil
	r.pipe.destroy(r.device)
	r.targets.destroy(r.device)
}
