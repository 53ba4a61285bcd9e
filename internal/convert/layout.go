// Package convert translates between canvas documents and the outside world:
// content blocks from the generation API, Markdown source, serialized
// documents, and the text/Markdown/HTML export formats.
package convert

import (
	"math"
	"unicode/utf8"

	"github.com/hpungsan/easel/internal/canvas"
)

// Sizing rules for generated blocks.
const (
	headingHeight   = 68
	hashtagHeight   = 44
	minBlockHeight  = 80
	charsPerLine    = 48
	lineHeight      = 30
	blockPadding    = 32
	defaultLevel    = 2
	maxHeadingFont  = 34
	minHeadingFont  = 20
	paragraphFont   = 16
	ctaFont         = 18
	hashtagFont     = 15
	headingWeight   = 700
	ctaWeight       = 600
	paragraphWeight = 400
)

// blockHeight estimates the box height for a block of the given type.
// The text estimate assumes about 48 characters per 30-unit line.
func blockHeight(t canvas.NodeType, text string) float64 {
	switch t {
	case canvas.NodeHeading:
		return headingHeight
	case canvas.NodeHashtag:
		return hashtagHeight
	default:
		lines := math.Ceil(float64(utf8.RuneCountInString(text)) / charsPerLine)
		return math.Max(minBlockHeight, lines*lineHeight+blockPadding)
	}
}

// headingFontSize maps a heading depth to a font size: 34-2*level, clamped
// to [20, 34]. A nil level means depth 2; levels are clamped to [1, 6].
func headingFontSize(level *int) int {
	l := defaultLevel
	if level != nil {
		l = min(max(*level, 1), 6)
	}
	return min(max(maxHeadingFont-2*l, minHeadingFont), maxHeadingFont)
}

// DefaultStyle returns the presentation defaults for a node type. level only
// affects headings.
func DefaultStyle(t canvas.NodeType, level *int) canvas.Style {
	switch t {
	case canvas.NodeHeading:
		return canvas.Style{FontSize: headingFontSize(level), FontWeight: headingWeight}
	case canvas.NodeCTA:
		return canvas.Style{FontSize: ctaFont, FontWeight: ctaWeight, Background: "#eef2ff", Color: "#1e1b4b", TextAlign: "center"}
	case canvas.NodeHashtag:
		return canvas.Style{FontSize: hashtagFont, Color: "#2563eb"}
	case canvas.NodeImage:
		return canvas.Style{Background: "#f1f5f9"}
	default:
		return canvas.Style{FontSize: paragraphFont, FontWeight: paragraphWeight}
	}
}

// stacker lays nodes out top to bottom in a single column and links each
// node to its predecessor with a flow edge.
type stacker struct {
	doc *canvas.Document
	y   float64
}

func newStacker(source canvas.SourceType) *stacker {
	doc := canvas.New()
	doc.Metadata.SourceType = source
	return &stacker{doc: doc, y: canvas.Margin}
}

// push appends a node at the current cursor and advances it.
func (s *stacker) push(t canvas.NodeType, text string, level *int) {
	h := blockHeight(t, text)
	node := canvas.Node{
		ID:     canvas.NewID("node"),
		Type:   t,
		X:      canvas.Margin,
		Y:      s.y,
		Width:  canvas.ContentWidth,
		Height: h,
		ZIndex: len(s.doc.Nodes) + 1,
		Text:   text,
		Style:  DefaultStyle(t, level),
	}
	if n := len(s.doc.Nodes); n > 0 {
		s.doc.Edges = append(s.doc.Edges, canvas.Edge{
			ID:   canvas.NewID("edge"),
			From: s.doc.Nodes[n-1].ID,
			To:   node.ID,
			Kind: canvas.EdgeFlow,
		})
	}
	s.doc.Nodes = append(s.doc.Nodes, node)
	s.y += h + canvas.Gap
}

// finish sizes the canvas to fit the content and returns the document.
func (s *stacker) finish() *canvas.Document {
	s.doc.Width = canvas.DefaultWidth
	s.doc.Height = math.Max(canvas.DefaultHeight, s.y+canvas.BottomPadding)
	return s.doc
}
