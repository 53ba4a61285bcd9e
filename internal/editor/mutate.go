package editor

import (
	"fmt"
	"math"
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
)

// Guide proximity and new-block geometry.
const (
	guideThreshold  = 8
	duplicateOffset = 16
	newNodeHeight   = 80
	newNodeText     = "New paragraph"
)

// Guides reports which alignment guides to draw for the selected node.
type Guides struct {
	Vertical   bool    // node's horizontal center is near the canvas center
	Horizontal bool    // node's vertical center is near the canvas center
	X          float64 // x of the vertical guide
	Y          float64 // y of the horizontal guide
}

// Select selects the node with the given id.
func (e *Editor) Select(id string) bool {
	if e.dragging() || !e.doc.HasNode(id) {
		return false
	}
	e.selected = id
	return true
}

// ClearSelection deselects any node.
func (e *Editor) ClearSelection() {
	if e.dragging() {
		return
	}
	e.selected = ""
}

// Guides computes alignment guides for the current selection. Guides are
// feedback only; nothing is snapped.
func (e *Editor) Guides() Guides {
	g := Guides{X: e.doc.Width / 2, Y: e.doc.Height / 2}
	idx := e.doc.NodeIndex(e.selected)
	if idx < 0 {
		return g
	}
	n := e.doc.Nodes[idx]
	g.Vertical = math.Abs(n.X+n.Width/2-g.X) <= guideThreshold
	g.Horizontal = math.Abs(n.Y+n.Height/2-g.Y) <= guideThreshold
	return g
}

// AddNode appends a paragraph below the lowest node and selects it. The
// canvas grows if the new block does not fit.
func (e *Editor) AddNode() (string, bool) {
	if !e.editable() {
		return "", false
	}
	y := float64(canvas.Margin)
	if len(e.doc.Nodes) > 0 {
		y = e.doc.Bottom() + canvas.Gap
	}
	n := canvas.Node{
		ID:     canvas.NewID("node"),
		Type:   canvas.NodeParagraph,
		X:      canvas.Margin,
		Y:      y,
		Width:  clamp(canvas.ContentWidth, canvas.MinNodeWidth, e.doc.Width-canvas.Margin),
		Height: newNodeHeight,
		ZIndex: e.doc.MaxZIndex() + 1,
		Text:   newNodeText,
		Style:  convert.DefaultStyle(canvas.NodeParagraph, nil),
	}
	e.doc.Height = max(e.doc.Height, n.Bottom()+canvas.BottomPadding)
	e.doc.Nodes = append(e.doc.Nodes, n)
	e.selected = n.ID
	e.changed()
	return n.ID, true
}

// DuplicateSelected clones the selected node 16 units down and right and
// selects the copy.
func (e *Editor) DuplicateSelected() (string, bool) {
	if !e.editable() {
		return "", false
	}
	idx := e.doc.NodeIndex(e.selected)
	if idx < 0 {
		return "", false
	}
	n := e.doc.Nodes[idx]
	n.ID = e.copyID(n.ID)
	n.X = clamp(n.X+duplicateOffset, 0, e.doc.Width-n.Width)
	n.Y = clamp(n.Y+duplicateOffset, 0, e.doc.Height-n.Height)
	n.ZIndex = e.doc.MaxZIndex() + 1
	e.doc.Nodes = append(e.doc.Nodes, n)
	e.selected = n.ID
	e.changed()
	return n.ID, true
}

// copyID derives an unused id from base.
func (e *Editor) copyID(base string) string {
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-copy-%d", base, i)
		if !e.doc.HasNode(id) {
			return id
		}
	}
}

// DeleteSelected removes the selected node and every edge touching it.
func (e *Editor) DeleteSelected() bool {
	if !e.editable() || !e.doc.RemoveNode(e.selected) {
		return false
	}
	e.selected = ""
	e.changed()
	return true
}

// EditText stores the trimmed text on a node.
func (e *Editor) EditText(id, text string) bool {
	if !e.editable() {
		return false
	}
	idx := e.doc.NodeIndex(id)
	if idx < 0 {
		return false
	}
	e.doc.Nodes[idx].Text = strings.TrimSpace(text)
	e.changed()
	return true
}
