// Package boardview renders a printed-circuit-board layout in a 3D viewport
// and lets a user pick, select and drag its parts.
//
// A board is a substrate plus components: rectangular and round SMD pads,
// plated holes and routed traces. Pads and holes of the same kind and
// layer share one mesh and are drawn as one instanced batch; each trace
// becomes a mitered ribbon mesh. Copper layers sit in groups offset just
// off the substrate faces, so no two surfaces share a plane and no depth
// bias is needed.
//
// # Quick Start
//
//	e := boardview.NewEngine()
//	if err := e.Load(doc); err != nil {
//	    return err
//	}
//	e.OnSelect(func(n *board.Notification) {
//	    // n is nil when the selection is cleared
//	})
//	e.HandlePointer(ev) // from the window system
//	if err := e.Tick(); err != nil {
//	    return err
//	}
//	img, err := e.Snapshot(1024, 768)
//
// # Frame Order
//
// Tick drains queued input (hover, select, drag), then runs a pending
// rebuild, then draws to the attached device. Any document change
// rebuilds every derived surface; the selection is re-resolved by
// component id afterward.
//
// # Dragging
//
// Selecting a pad attaches a translation handle to a proxy standing in
// for that one instance. Dragging the handle rewrites only that instance's
// transform in its batch, so the other instances sharing the mesh never
// move and only one instance slot is re-uploaded.
//
// # Logging
//
// boardview is silent by default. Use SetLogger or WithLogger to enable
// structured logging through log/slog.
package boardview
