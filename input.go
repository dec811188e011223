package boardview

import (
	"github.com/gogpu/gpucontext"
)

// inputEvent is one queued pointer or key event.
type inputEvent struct {
	pointer gpucontext.PointerEvent
	key     gpucontext.Key
	isKey   bool
}

// HandlePointer queues a pointer event for the next Tick. Only the
// primary pointer is used; presses of other buttons are ignored.
func (e *Engine) HandlePointer(ev gpucontext.PointerEvent) {
	e.input = append(e.input, inputEvent{pointer: ev})
}

// HandleKey queues a key press for the next Tick. Escape clears the
// selection; Delete and Backspace remove the selected component.
func (e *Engine) HandleKey(k gpucontext.Key) {
	e.input = append(e.input, inputEvent{key: k, isKey: true})
}

func (e *Engine) drainInput() error {
	if len(e.input) == 0 {
		return nil
	}
	// Callbacks may queue more input while these events are applied; they
	// go to a fresh slice and wait for the next Tick.
	events := e.input
	e.input = nil

	v, ok := viewOf(e.Camera())
	if !ok {
		return ErrNoCamera
	}
	for _, ev := range events {
		if ev.isKey {
			e.applyKey(ev.key)
			continue
		}
		e.applyPointer(v, ev.pointer)
	}
	return nil
}

func (e *Engine) applyKey(k gpucontext.Key) {
	switch k {
	case gpucontext.KeyEscape:
		e.ctrl.Deselect(e.scene)
	case gpucontext.KeyDelete, gpucontext.KeyBackspace:
		if ref, ok := e.ctrl.Selection(); ok {
			e.DeleteComponent(ref.ID)
		}
	}
}

func (e *Engine) applyPointer(v view, p gpucontext.PointerEvent) {
	if p.PointerType != gpucontext.PointerTypeMouse && !p.IsPrimary {
		return
	}
	ray := v.ray(p.X, p.Y)
	switch p.Type {
	case gpucontext.PointerMove:
		e.ctrl.PointerMove(e.scene, ray)
	case gpucontext.PointerDown:
		if p.Button != gpucontext.ButtonLeft {
			return
		}
		// Resolve hover at the press position so a click without a
		// preceding move still selects what is under it.
		e.ctrl.PointerMove(e.scene, ray)
		e.ctrl.PointerDown(e.scene, ray)
	case gpucontext.PointerUp, gpucontext.PointerCancel:
		e.ctrl.PointerUp(e.scene, ray)
	}
}
