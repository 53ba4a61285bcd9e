package editor

import (
	"github.com/hpungsan/easel/internal/canvas"
)

// Point is a pointer position in canvas units.
type Point struct {
	X, Y float64
}

// DragKind is the kind of pointer drag in progress.
type DragKind int

const (
	DragNone DragKind = iota
	DragMoving
	DragResizing
)

// Drag is the active pointer drag. Start holds the node's position (moving)
// or size (resizing) when the drag began.
type Drag struct {
	Kind   DragKind
	NodeID string
	Origin Point
	Start  Point
}

// Drag returns the current drag state.
func (e *Editor) Drag() Drag { return e.drag }

func (e *Editor) dragging() bool { return e.drag.Kind != DragNone }

// PointerDownBody starts moving a node and selects it.
func (e *Editor) PointerDownBody(id string, p Point) bool {
	return e.startDrag(DragMoving, id, p)
}

// PointerDownHandle starts resizing a node from its resize handle and selects it.
func (e *Editor) PointerDownHandle(id string, p Point) bool {
	return e.startDrag(DragResizing, id, p)
}

func (e *Editor) startDrag(kind DragKind, id string, p Point) bool {
	if !e.editable() {
		return false
	}
	idx := e.doc.NodeIndex(id)
	if idx < 0 {
		return false
	}
	n := e.doc.Nodes[idx]
	start := Point{X: n.X, Y: n.Y}
	if kind == DragResizing {
		start = Point{X: n.Width, Y: n.Height}
	}
	e.selected = id
	e.drag = Drag{Kind: kind, NodeID: id, Origin: p, Start: start}
	return true
}

// PointerMove applies the pointer delta since the drag began to the dragged
// node, clamped to the canvas. Returns false when no drag is active.
func (e *Editor) PointerMove(p Point) bool {
	if !e.dragging() {
		return false
	}
	idx := e.doc.NodeIndex(e.drag.NodeID)
	if idx < 0 {
		e.drag = Drag{}
		return false
	}
	n := &e.doc.Nodes[idx]
	dx, dy := p.X-e.drag.Origin.X, p.Y-e.drag.Origin.Y

	switch e.drag.Kind {
	case DragMoving:
		n.X = clamp(e.drag.Start.X+dx, 0, e.doc.Width-n.Width)
		n.Y = clamp(e.drag.Start.Y+dy, 0, e.doc.Height-n.Height)
	case DragResizing:
		n.Width = clamp(e.drag.Start.X+dx, canvas.MinNodeWidth, e.doc.Width-n.X)
		n.Height = clamp(e.drag.Start.Y+dy, canvas.MinNodeHeight, e.doc.Height-n.Y)
		// Near an edge the minimum size wins; pull the node back inside.
		n.X = clamp(n.X, 0, e.doc.Width-n.Width)
		n.Y = clamp(n.Y, 0, e.doc.Height-n.Height)
	}
	e.changed()
	return true
}

// PointerUp ends any drag.
func (e *Editor) PointerUp() {
	e.drag = Drag{}
}

// clamp bounds v to [lo, hi]. When hi < lo the lower bound wins.
func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
