// Package gpu draws a board scene through the gogpu/wgpu hardware
// abstraction layer.
//
// A single render pipeline serves every surface: instanced pad and hole
// batches, trace ribbons and the substrate. Each draw unit owns an
// instance buffer of world matrices (one per slot, 64 bytes each), a
// surface uniform block carrying the material, shape tag and the
// hovered/selected slot indices, and a bind group pairing that block with
// the shared per-frame globals. Template geometry is uploaded once per
// template and shared by every batch of its kind.
//
// Updates are incremental between rebuilds: a drag rewrites exactly the
// dirty instance slots, and a hover or selection change rewrites only the
// 8-byte signal pair of the affected surface block. A rebuild replaces the
// draw units wholesale; the renderer is registered as a scene releaser so
// the old buffers are destroyed before new ones are created.
//
// # Frame
//
//	Sync(scene)     upload new units, dirty slots and signals
//	RenderFrame(f)  write globals, encode one pass, submit, wait idle
//
// The color target is RGBA8Unorm with a Depth24Plus depth buffer (Less).
// Nothing is culled; the surface shader lights both faces.
package gpu
