package boardview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gogpu/boardview/board"
	"github.com/gogpu/boardview/internal/metrics"
	"github.com/gogpu/boardview/internal/pick"
	"github.com/gogpu/boardview/internal/scene"
	"github.com/gogpu/boardview/internal/shading"
)

// Engine errors.
var (
	// ErrNoBoard is returned by operations that need a board before InitBoard.
	ErrNoBoard = errors.New("boardview: board not initialized")
	// ErrNoCamera is returned when the camera has an empty viewport or a
	// singular view-projection.
	ErrNoCamera = errors.New("boardview: camera unusable")
	// ErrDuplicateID is returned by AddComponent for an id already in use.
	ErrDuplicateID = errors.New("boardview: duplicate component id")
)

// Engine is a board viewport: the document, the derived surfaces, the
// selection state and an optional GPU target.
//
// An Engine is not safe for concurrent use. Input is queued by
// HandlePointer and HandleKey and applied by Tick on the caller's goroutine.
type Engine struct {
	opts    engineOptions
	log     *slog.Logger
	scene   *scene.Scene
	ctrl    *pick.Controller
	metrics *metrics.Recorder
	camera  Camera
	clear   shading.RGBA
	input   []inputEvent
	ready   bool
	gpu     *gpuTarget
}

// NewEngine creates an engine with no board.
func NewEngine(opts ...Option) *Engine {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}
	e := &Engine{opts: o, log: log, clear: shading.RGB(0.08, 0.08, 0.10)}

	pad := o.materials.Pad.resolve(shading.Copper, log)
	hole := o.materials.Hole.resolve(shading.Drill, log)
	trace := o.materials.Trace.resolve(shading.TraceCopper, log)
	substrate := o.materials.Substrate.resolve(shading.Substrate, log)
	e.scene = scene.New(scene.Config{
		LayerOffset:       o.layerOffset,
		StackOffset:       o.stackOffset,
		HoleSlack:         o.holeSlack,
		PadMaterial:       &pad,
		HoleMaterial:      &hole,
		TraceMaterial:     &trace,
		SubstrateMaterial: &substrate,
		Logger:            log,
	})
	if o.clear != "" {
		if c, err := shading.ParseHex(o.clear); err == nil {
			e.clear = c
		} else {
			log.Warn("boardview: ignoring clear color", "err", err)
		}
	}

	popts := []pick.Option{pick.WithLogger(log)}
	if o.gizmoRadius > 0 {
		popts = append(popts, pick.WithGizmoRadius(o.gizmoRadius))
	}
	if o.registerer != nil {
		rec, err := metrics.New(o.registerer)
		if err != nil {
			log.Warn("boardview: metrics disabled", "err", err)
		} else {
			e.metrics = rec
			popts = append(popts, pick.WithObserver(rec))
		}
	}
	e.ctrl = pick.New(popts...)
	return e
}

// SetLogger replaces the engine logger and propagates it to an attached
// renderer. Nil restores the package default.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = Logger()
	}
	e.log = l
	if e.gpu != nil {
		propagateLogger(e.gpu.renderer, l)
	}
}

// InitBoard sets the substrate. Components already loaded are kept and
// re-placed for the new thickness on the next Tick.
func (e *Engine) InitBoard(cfg board.BoardConfig) error {
	if err := e.scene.InitBoard(cfg); err != nil {
		return err
	}
	e.ready = true
	return nil
}

// UpdateComponents replaces the component list. The list is copied; the
// rebuild happens on the next Tick.
func (e *Engine) UpdateComponents(list []board.Component) {
	e.scene.SetComponents(list)
}

// Load replaces the board and components with doc.
func (e *Engine) Load(doc board.Document) error {
	if err := e.InitBoard(doc.Board); err != nil {
		return err
	}
	e.UpdateComponents(doc.Components)
	return nil
}

// Save returns a deep copy of the current document, including positions
// changed by dragging.
func (e *Engine) Save() board.Document { return e.scene.Snapshot() }

// AddComponent appends c to the document, assigning a random id when c
// has none, and returns the id.
func (e *Engine) AddComponent(c board.Component) (string, error) {
	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	doc := e.scene.Document()
	if doc.Find(c.ID) >= 0 {
		return "", fmt.Errorf("add component %q: %w", c.ID, ErrDuplicateID)
	}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("add component: %w", err)
	}
	doc.Components = append(doc.Components, c)
	e.scene.MarkDirty()
	e.log.Debug("boardview: component added", "id", c.ID, "type", c.Type)
	return c.ID, nil
}

// DeleteComponent removes the component with the given id. A selection
// on it is cleared on the next Tick.
func (e *Engine) DeleteComponent(id string) bool {
	doc := e.scene.Document()
	i := doc.Find(id)
	if i < 0 {
		return false
	}
	doc.Components = append(doc.Components[:i], doc.Components[i+1:]...)
	e.scene.MarkDirty()
	e.log.Debug("boardview: component deleted", "id", id)
	return true
}

// OnSelect registers the selection observer. It receives a notification
// after every selection change and drag step, and nil on deselection.
func (e *Engine) OnSelect(fn func(*board.Notification)) { e.ctrl.SetNotify(fn) }

// SetCamera sets the view used for drawing and picking.
func (e *Engine) SetCamera(c Camera) { e.camera = c }

// Camera returns the current camera, creating the default one when none
// was set.
func (e *Engine) Camera() Camera {
	if e.camera == nil {
		e.camera = DefaultCamera(e.scene.Board(), 800, 600)
	}
	return e.camera
}

// Deselect clears hover and selection.
func (e *Engine) Deselect() { e.ctrl.Deselect(e.scene) }

// Selection returns the selected component.
func (e *Engine) Selection() (board.Notification, bool) {
	n := e.ctrl.Notification(e.scene)
	if n == nil {
		return board.Notification{}, false
	}
	return *n, true
}

// Hovered returns the id under the pointer.
func (e *Engine) Hovered() (string, bool) {
	r, ok := e.ctrl.Hover()
	return r.ID, ok
}

// Dragging reports whether a gizmo drag is in progress.
func (e *Engine) Dragging() bool { return e.ctrl.State() == pick.Dragging }

// Tick applies queued input, rebuilds if the document changed and draws
// to the attached device, in that order.
func (e *Engine) Tick() error {
	if !e.ready {
		e.input = e.input[:0]
		return ErrNoBoard
	}
	if err := e.drainInput(); err != nil {
		return err
	}
	e.flush()
	if e.gpu != nil {
		return e.drawGPU()
	}
	return nil
}

// flush runs a pending rebuild and re-resolves the selection.
func (e *Engine) flush() {
	if !e.scene.Pending() {
		return
	}
	rep := e.scene.Rebuild()
	if e.metrics != nil {
		e.metrics.ObserveRebuild(rep)
	}
	e.ctrl.Reconcile(e.scene)
}

// Close releases every derived surface and detaches the device.
func (e *Engine) Close() {
	e.DetachDevice()
	e.scene.Close()
}
