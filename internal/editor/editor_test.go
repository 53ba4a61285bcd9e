package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/errors"
)

func testDoc() *canvas.Document {
	return &canvas.Document{
		ID:     "doc",
		Width:  canvas.DefaultWidth,
		Height: canvas.DefaultHeight,
		Nodes: []canvas.Node{
			{ID: "a", Type: canvas.NodeHeading, X: 24, Y: 24, Width: 700, Height: 68, ZIndex: 1, Text: "Title"},
			{ID: "b", Type: canvas.NodeParagraph, X: 24, Y: 108, Width: 300, Height: 80, ZIndex: 2, Text: "Body"},
		},
		Edges: []canvas.Edge{{ID: "e", From: "a", To: "b", Kind: canvas.EdgeFlow}},
	}
}

// recorder captures published documents.
type recorder struct {
	docs []*canvas.Document
}

func (r *recorder) opts() Options {
	return Options{OnChange: func(d *canvas.Document) { r.docs = append(r.docs, d) }}
}

func TestNew_CopiesDocument(t *testing.T) {
	doc := testDoc()
	e := New(doc, Options{})
	doc.Nodes[0].Text = "mutated"

	require.Equal(t, "Title", e.Document().Nodes[0].Text)
	require.Equal(t, ModeCanvas, e.Mode())

	empty := New(nil, Options{})
	require.Empty(t, empty.Document().Nodes)
}

func TestDeleteSelected_PrunesEdges(t *testing.T) {
	rec := &recorder{}
	e := New(testDoc(), rec.opts())

	require.True(t, e.Select("b"))
	require.True(t, e.DeleteSelected())

	doc := e.Document()
	require.Len(t, doc.Nodes, 1)
	require.Empty(t, doc.Edges)
	require.Equal(t, "", e.Selected())
	require.Len(t, rec.docs, 1)

	// Nothing selected now
	require.False(t, e.DeleteSelected())
}

func TestMove_ClampsToCanvas(t *testing.T) {
	e := New(testDoc(), Options{})

	require.True(t, e.PointerDownBody("b", Point{X: 50, Y: 120}))
	require.Equal(t, "b", e.Selected())
	require.Equal(t, DragMoving, e.Drag().Kind)

	require.True(t, e.PointerMove(Point{X: 1050, Y: 1120}))
	n := e.Document().Nodes[1]
	require.LessOrEqual(t, n.X+n.Width, 760.0)
	require.LessOrEqual(t, n.Y+n.Height, 900.0)
	require.Equal(t, 460.0, n.X)
	require.Equal(t, 820.0, n.Y)

	require.True(t, e.PointerMove(Point{X: -5000, Y: -5000}))
	n = e.Document().Nodes[1]
	require.Equal(t, 0.0, n.X)
	require.Equal(t, 0.0, n.Y)

	e.PointerUp()
	require.Equal(t, DragNone, e.Drag().Kind)
	require.False(t, e.PointerMove(Point{X: 10, Y: 10}))
}

func TestMove_UsesDeltaFromDragOrigin(t *testing.T) {
	e := New(testDoc(), Options{})
	e.PointerDownBody("b", Point{X: 100, Y: 100})
	e.PointerMove(Point{X: 110, Y: 130})
	e.PointerMove(Point{X: 120, Y: 140})

	n := e.Document().Nodes[1]
	require.Equal(t, 44.0, n.X)
	require.Equal(t, 148.0, n.Y)
}

func TestResize_Clamps(t *testing.T) {
	e := New(testDoc(), Options{})

	require.True(t, e.PointerDownHandle("b", Point{X: 324, Y: 188}))
	require.Equal(t, DragResizing, e.Drag().Kind)

	e.PointerMove(Point{X: 5000, Y: 5000})
	n := e.Document().Nodes[1]
	require.Equal(t, 760.0-24, n.Width)
	require.Equal(t, 900.0-108, n.Height)

	e.PointerMove(Point{X: -5000, Y: -5000})
	n = e.Document().Nodes[1]
	require.Equal(t, float64(canvas.MinNodeWidth), n.Width)
	require.Equal(t, float64(canvas.MinNodeHeight), n.Height)
	require.Equal(t, 24.0, n.X)
	e.PointerUp()
}

func TestResize_NearEdgeKeepsMinimumInside(t *testing.T) {
	doc := testDoc()
	doc.Nodes[1] = canvas.Node{ID: "b", Type: canvas.NodeParagraph, X: 700, Y: 860, Width: 60, Height: 40}
	e := New(doc, Options{})

	e.PointerDownHandle("b", Point{})
	e.PointerMove(Point{X: -10, Y: -10})
	n := e.Document().Nodes[1]

	require.GreaterOrEqual(t, n.Width, float64(canvas.MinNodeWidth))
	require.GreaterOrEqual(t, n.Height, float64(canvas.MinNodeHeight))
	require.LessOrEqual(t, n.X+n.Width, 760.0)
	require.LessOrEqual(t, n.Y+n.Height, 900.0)
}

func TestDrag_ClampPropertyOverManyDeltas(t *testing.T) {
	deltas := []float64{-100000, -761, -1, 0, 0.5, 17, 380, 901, 100000}
	for _, dx := range deltas {
		for _, dy := range deltas {
			e := New(testDoc(), Options{})
			e.PointerDownBody("b", Point{})
			e.PointerMove(Point{X: dx, Y: dy})
			e.PointerUp()
			e.PointerDownHandle("b", Point{})
			e.PointerMove(Point{X: dy, Y: dx})
			e.PointerUp()

			doc := e.Document()
			n := doc.Nodes[1]
			if n.X < 0 || n.Y < 0 || n.X > doc.Width-n.Width || n.Y > doc.Height-n.Height {
				t.Fatalf("delta (%v,%v): node out of bounds: %+v", dx, dy, n)
			}
			if n.Width < canvas.MinNodeWidth || n.Height < canvas.MinNodeHeight {
				t.Fatalf("delta (%v,%v): node below minimum size: %+v", dx, dy, n)
			}
		}
	}
}

func TestDrag_BlocksOtherInput(t *testing.T) {
	e := New(testDoc(), Options{})
	e.PointerDownBody("a", Point{})

	_, added := e.AddNode()
	require.False(t, added)
	require.False(t, e.Select("b"))
	require.False(t, e.EditText("a", "x"))
	require.NoError(t, e.SetMode(ModeJSON))
	require.Equal(t, ModeCanvas, e.Mode())
	require.False(t, e.PointerDownHandle("b", Point{}))

	e.PointerUp()
	require.True(t, e.Select("b"))
}

func TestPointerDown_UnknownNode(t *testing.T) {
	e := New(testDoc(), Options{})
	require.False(t, e.PointerDownBody("zzz", Point{}))
	require.Equal(t, DragNone, e.Drag().Kind)
}

func TestGuides(t *testing.T) {
	doc := testDoc()
	// Centered horizontally: 30 + 700/2 = 380 = 760/2
	doc.Nodes[0].X = 30
	// Vertical center 108 + 80/2 = 148, far from 450
	e := New(doc, Options{})

	require.Equal(t, Guides{X: 380, Y: 450}, e.Guides())

	e.Select("a")
	g := e.Guides()
	require.True(t, g.Vertical)
	require.False(t, g.Horizontal)

	// Centers within 8 units still count; guides never move the node
	e.PointerDownBody("b", Point{})
	e.PointerMove(Point{X: 226 - 24, Y: 415 - 108})
	e.PointerUp()
	n := e.Document().Nodes[1]
	require.Equal(t, 226.0, n.X)
	g = e.Guides()
	require.True(t, g.Vertical)
	require.True(t, g.Horizontal)

	e.PointerDownBody("b", Point{})
	e.PointerMove(Point{X: 20, Y: 0})
	e.PointerUp()
	require.False(t, e.Guides().Vertical)
}

func TestAddNode(t *testing.T) {
	rec := &recorder{}
	e := New(testDoc(), rec.opts())

	id, ok := e.AddNode()
	require.True(t, ok)
	require.Equal(t, id, e.Selected())

	doc := e.Document()
	n := doc.Nodes[len(doc.Nodes)-1]
	require.Equal(t, canvas.NodeParagraph, n.Type)
	require.Equal(t, 188.0+canvas.Gap, n.Y)
	require.Equal(t, 3, n.ZIndex)
	require.Len(t, rec.docs, 1)

	generated := convert.ArticleMarkdownToCanvas("plain paragraph").Nodes[0]
	require.Equal(t, generated.Style, n.Style, "added paragraphs use the converter defaults")

	empty := New(canvas.New(), Options{})
	_, ok = empty.AddNode()
	require.True(t, ok)
	require.Equal(t, float64(canvas.Margin), empty.Document().Nodes[0].Y)
}

func TestAddNode_GrowsCanvas(t *testing.T) {
	doc := testDoc()
	doc.Nodes[1].Y = 800
	doc.Nodes[1].Height = 90
	e := New(doc, Options{})

	_, ok := e.AddNode()
	require.True(t, ok)
	out := e.Document()
	last := out.Nodes[len(out.Nodes)-1]
	require.GreaterOrEqual(t, out.Height, last.Bottom()+canvas.BottomPadding)
}

func TestDuplicateSelected(t *testing.T) {
	e := New(testDoc(), Options{})

	_, ok := e.DuplicateSelected()
	require.False(t, ok, "nothing selected")

	e.Select("b")
	first, ok := e.DuplicateSelected()
	require.True(t, ok)
	require.Equal(t, "b-copy-1", first)
	require.Equal(t, first, e.Selected())

	doc := e.Document()
	orig, dup := doc.Nodes[1], doc.Nodes[2]
	require.Equal(t, orig.X+16, dup.X)
	require.Equal(t, orig.Y+16, dup.Y)
	require.Equal(t, orig.Text, dup.Text)
	require.Equal(t, 3, dup.ZIndex)

	e.Select("b")
	second, _ := e.DuplicateSelected()
	require.Equal(t, "b-copy-2", second)
}

func TestEditText_Trims(t *testing.T) {
	rec := &recorder{}
	e := New(testDoc(), rec.opts())

	require.True(t, e.EditText("b", "  new body \n"))
	require.Equal(t, "new body", e.Document().Nodes[1].Text)
	require.False(t, e.EditText("missing", "x"))
	require.Len(t, rec.docs, 1)
}

func TestModes_SerializeOnEntry(t *testing.T) {
	e := New(testDoc(), Options{})

	require.NoError(t, e.SetMode(ModeMarkdown))
	require.Equal(t, "## Title\n\nBody", e.Source())

	require.NoError(t, e.SetMode(ModeJSON))
	require.True(t, strings.HasPrefix(e.Source(), "{\n"))
	require.Contains(t, e.Source(), `"id": "doc"`)

	err := e.SetMode("preview")
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
	require.Equal(t, ModeJSON, e.Mode())
}

func TestModes_CanvasDoesNotApplyPendingEdits(t *testing.T) {
	e := New(testDoc(), Options{})
	e.SetMode(ModeMarkdown)
	e.SetSource("# Replaced")
	require.NoError(t, e.SetMode(ModeCanvas))

	require.Len(t, e.Document().Nodes, 2)
	require.Equal(t, "", e.Source())

	// SetSource is ignored in canvas mode
	e.SetSource("ignored")
	require.Equal(t, "", e.Source())
}

func TestModes_MutationsOnlyInCanvas(t *testing.T) {
	e := New(testDoc(), Options{})
	e.SetMode(ModeMarkdown)

	_, ok := e.AddNode()
	require.False(t, ok)
	require.False(t, e.PointerDownBody("a", Point{}))
	require.False(t, e.EditText("a", "x"))
}

func TestApplySource_MarkdownAlwaysSucceeds(t *testing.T) {
	rec := &recorder{}
	e := New(testDoc(), rec.opts())
	e.Select("b")

	require.NoError(t, e.SetMode(ModeMarkdown))
	e.SetSource("{ this is not json }\n\n<<<")
	require.NoError(t, e.ApplySource())

	require.Equal(t, "", e.Error())
	doc := e.Document()
	require.Len(t, doc.Nodes, 2)
	require.Equal(t, "{ this is not json }", doc.Nodes[0].Text)
	require.Equal(t, "", e.Selected(), "selection of a replaced node is cleared")
	require.Len(t, rec.docs, 1)
}

func TestApplySource_CorruptJSONLeavesDocument(t *testing.T) {
	rec := &recorder{}
	e := New(testDoc(), rec.opts())
	before := e.Document()

	require.NoError(t, e.SetMode(ModeJSON))
	e.SetSource(e.Source()[:40])

	err := e.ApplySource()
	require.True(t, errors.Is(err, errors.ErrParse))
	require.NotEmpty(t, e.Error())
	require.Equal(t, before, e.Document())
	require.Empty(t, rec.docs)

	// A successful apply clears the error
	good, err := convert.EncodeDocument(before)
	require.NoError(t, err)
	e.SetSource(strings.Replace(good, `"Body"`, `"Edited"`, 1))
	require.NoError(t, e.ApplySource())
	require.Equal(t, "", e.Error())
	require.Equal(t, "Edited", e.Document().Nodes[1].Text)
}

func TestApplySource_JSONRoundTrip(t *testing.T) {
	e := New(testDoc(), Options{})
	require.NoError(t, e.SetMode(ModeJSON))
	require.NoError(t, e.ApplySource())
	require.Equal(t, testDoc(), e.Document())
}

func TestApplySource_CanvasModeNoop(t *testing.T) {
	e := New(testDoc(), Options{})
	require.NoError(t, e.ApplySource())
	require.Equal(t, testDoc(), e.Document())
}

func TestExport_IndependentOfMode(t *testing.T) {
	var gotFormat convert.Format
	var gotText string
	e := New(testDoc(), Options{OnExport: func(f convert.Format, s string) {
		gotFormat, gotText = f, s
	}})

	e.SetMode(ModeJSON)
	e.SetSource("garbage")

	out, err := e.Export(convert.FormatHTML)
	require.NoError(t, err)
	require.Equal(t, "<h2>Title</h2>\n<p>Body</p>", out)
	require.Equal(t, convert.FormatHTML, gotFormat)
	require.Equal(t, out, gotText)

	_, err = e.Export("rtf")
	require.Error(t, err)
}
