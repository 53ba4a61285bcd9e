// Package canvas defines the editable document model: a fixed-size canvas of
// positioned, typed content blocks and optional directed links between them.
package canvas

import (
	"crypto/rand"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
)

// Layout constants shared by converters and the editor.
const (
	DefaultWidth  = 760
	DefaultHeight = 900

	Margin        = 24  // top/left inset of the first block
	ContentWidth  = 700 // width of generated blocks
	Gap           = 16  // vertical gap between generated blocks
	BottomPadding = 40  // space kept below the lowest block

	MinNodeWidth  = 180
	MinNodeHeight = 48
)

// NodeType is the closed set of block kinds. Sizing, style defaults and
// rendering all switch on it.
type NodeType string

const (
	NodeHeading   NodeType = "heading"
	NodeParagraph NodeType = "paragraph"
	NodeImage     NodeType = "image"
	NodeCTA       NodeType = "cta"
	NodeHashtag   NodeType = "hashtag"
)

// EdgeKind labels a relation between two nodes.
type EdgeKind string

const (
	EdgeFlow  EdgeKind = "flow"  // reading-order sequence
	EdgeGroup EdgeKind = "group" // visual grouping
)

// SourceType records where a document came from.
type SourceType string

const (
	SourceArticle SourceType = "article"
	SourceSocial  SourceType = "social"
)

// Document is the root aggregate: canvas size, nodes and edges.
type Document struct {
	ID       string   `json:"id" validate:"required"`
	Width    float64  `json:"width" validate:"gt=0"`
	Height   float64  `json:"height" validate:"gt=0"`
	Nodes    []Node   `json:"nodes" validate:"dive"`
	Edges    []Edge   `json:"edges" validate:"dive"`
	Metadata Metadata `json:"metadata"`
}

// Metadata holds provenance hints. The editor never reads it.
type Metadata struct {
	SourceType SourceType `json:"sourceType,omitempty" validate:"omitempty,oneof=article social"`
}

// Node is one positioned content block.
type Node struct {
	ID     string   `json:"id" validate:"required"`
	Type   NodeType `json:"type" validate:"oneof=heading paragraph image cta hashtag"`
	X      float64  `json:"x" validate:"gte=0"`
	Y      float64  `json:"y" validate:"gte=0"`
	Width  float64  `json:"width" validate:"gte=0"`
	Height float64  `json:"height" validate:"gte=0"`
	ZIndex int      `json:"zIndex"`
	Text   string   `json:"text"`
	Style  Style    `json:"style"`
}

// Style carries optional presentation hints. Values are free-form and never
// validated.
type Style struct {
	FontSize   int    `json:"fontSize,omitempty"`
	FontWeight int    `json:"fontWeight,omitempty"`
	Color      string `json:"color,omitempty"`
	Background string `json:"background,omitempty"`
	TextAlign  string `json:"textAlign,omitempty"`
}

// Edge is a directed relation between two nodes, referenced by id.
type Edge struct {
	ID   string   `json:"id" validate:"required"`
	From string   `json:"from" validate:"required"`
	To   string   `json:"to" validate:"required"`
	Kind EdgeKind `json:"kind" validate:"oneof=flow group"`
}

// Bottom returns the y coordinate of the node's lower edge.
func (n Node) Bottom() float64 { return n.Y + n.Height }

// Right returns the x coordinate of the node's right edge.
func (n Node) Right() float64 { return n.X + n.Width }

// New returns an empty document of the default size.
func New() *Document {
	return &Document{
		ID:     NewID("doc"),
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Nodes:  []Node{},
		Edges:  []Edge{},
	}
}

// Clone returns a deep copy of d. Nil slices stay nil.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.Nodes != nil {
		c.Nodes = slices.Clone(d.Nodes)
	}
	if d.Edges != nil {
		c.Edges = slices.Clone(d.Edges)
	}
	return &c
}

// NodeIndex returns the slice index of the node with the given id, or -1.
func (d *Document) NodeIndex(id string) int {
	return slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
}

// HasNode reports whether a node with the given id exists.
func (d *Document) HasNode(id string) bool {
	return d.NodeIndex(id) >= 0
}

// MaxZIndex returns the highest zIndex in use, or 0 for an empty document.
func (d *Document) MaxZIndex() int {
	z := 0
	for _, n := range d.Nodes {
		z = max(z, n.ZIndex)
	}
	return z
}

// Bottom returns the lowest node bottom edge, or 0 for an empty document.
func (d *Document) Bottom() float64 {
	var b float64
	for _, n := range d.Nodes {
		b = max(b, n.Bottom())
	}
	return b
}

// HasNodeType reports whether any node has type t.
func (d *Document) HasNodeType(t NodeType) bool {
	return slices.ContainsFunc(d.Nodes, func(n Node) bool { return n.Type == t })
}

// RemoveNode deletes the node with the given id together with every edge
// that references it. Returns false if no such node exists.
func (d *Document) RemoveNode(id string) bool {
	idx := d.NodeIndex(id)
	if idx < 0 {
		return false
	}
	d.Nodes = slices.Delete(d.Nodes, idx, idx+1)
	d.Edges = slices.DeleteFunc(d.Edges, func(e Edge) bool {
		return e.From == id || e.To == id
	})
	return true
}

// ReadingOrder returns the nodes sorted by ascending y, ties by ascending x.
// Nodes at identical positions keep their slice order.
func ReadingOrder(d *Document) []Node {
	if d == nil {
		return nil
	}
	ordered := slices.Clone(d.Nodes)
	slices.SortStableFunc(ordered, func(a, b Node) int {
		switch {
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return 0
	})
	return ordered
}

// entropy is shared so ids made within one millisecond still sort in
// creation order.
var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// NewULID returns a ULID from the process-wide monotonic source.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewID returns prefix-<ULID>. If the shared source fails it falls back to
// the library's default entropy.
func NewID(prefix string) string {
	id, err := NewULID()
	if err != nil {
		id = ulid.Make().String()
	}
	return prefix + "-" + id
}
