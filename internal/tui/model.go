// Package tui is a keyboard front end for the canvas editor built on
// bubbletea. Movement and resizing are fed to the editor as pointer drags
// so clamping stays in one place.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/editor"
)

// Step is the distance, in canvas units, of one arrow-key move or resize.
const Step = 8

// SaveFunc persists doc and returns the version it was saved as.
type SaveFunc func(ctx context.Context, doc *canvas.Document) (int, error)

type inputState int

const (
	stateBrowse inputState = iota
	stateEditText
	stateEditSource
)

var exportFormats = []convert.Format{convert.FormatMarkdown, convert.FormatText, convert.FormatHTML}

// savedMsg reports a finished save. changes is the edit count the saved
// snapshot was taken at.
type savedMsg struct {
	version int
	changes int
}

type saveErrMsg struct{ err error }

// Model is the bubbletea model for one draft.
type Model struct {
	ed    *editor.Editor
	title string
	save  SaveFunc

	state   inputState
	buf     buffer
	version int
	dirty   bool
	changes int
	saving  bool
	quitArm bool

	exportIdx int
	preview   string
	previewOf convert.Format

	status string
	errMsg string
	width  int
	height int
}

// New creates a model editing doc. save may be nil for a scratch session.
func New(doc *canvas.Document, title string, version int, save SaveFunc) *Model {
	m := &Model{title: title, save: save, version: version}
	m.ed = editor.New(doc, editor.Options{
		OnChange: func(*canvas.Document) {
			m.dirty = true
			m.changes++
		},
		OnExport: func(f convert.Format, out string) {
			m.previewOf = f
			m.preview = out
		},
	})
	if order := m.order(); len(order) > 0 {
		m.ed.Select(order[0])
	}
	return m
}

// Editor exposes the underlying editor.
func (m *Model) Editor() *editor.Editor { return m.ed }

// Dirty reports whether there are unsaved changes.
func (m *Model) Dirty() bool { return m.dirty }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case savedMsg:
		m.saving = false
		if msg.changes == m.changes {
			m.dirty = false
		}
		m.version = msg.version
		m.status = fmt.Sprintf("saved as v%d", msg.version)
		m.errMsg = ""
		return m, nil
	case saveErrMsg:
		m.saving = false
		m.errMsg = msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyCtrlS {
			return m, m.saveCmd()
		}
		switch m.state {
		case stateEditText:
			return m, m.updateEditText(msg)
		case stateEditSource:
			return m, m.updateEditSource(msg)
		default:
			return m, m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key != "q" {
		m.quitArm = false
	}
	m.status = ""

	switch key {
	case "q":
		if m.dirty && !m.quitArm {
			m.quitArm = true
			m.status = "unsaved changes: press q again to quit, ctrl+s to save"
			return nil
		}
		return tea.Quit
	case "tab", "n":
		m.cycle(1)
	case "shift+tab", "p":
		m.cycle(-1)
	case "esc":
		m.ed.ClearSelection()
	case "up":
		m.drag(false, 0, -Step)
	case "down":
		m.drag(false, 0, Step)
	case "left":
		m.drag(false, -Step, 0)
	case "right":
		m.drag(false, Step, 0)
	case "shift+up":
		m.drag(true, 0, -Step)
	case "shift+down":
		m.drag(true, 0, Step)
	case "shift+left":
		m.drag(true, -Step, 0)
	case "shift+right":
		m.drag(true, Step, 0)
	case "a":
		m.ed.AddNode()
	case "d":
		if _, ok := m.ed.DuplicateSelected(); !ok {
			m.status = "nothing selected"
		}
	case "x", "delete":
		if !m.ed.DeleteSelected() {
			m.status = "nothing selected"
		}
	case "enter":
		if n, ok := m.selectedNode(); ok {
			m.buf = newBuffer(n.Text)
			m.state = stateEditText
		}
	case "m":
		m.enterSource(editor.ModeMarkdown)
	case "j":
		m.enterSource(editor.ModeJSON)
	case "c":
		_ = m.ed.SetMode(editor.ModeCanvas)
	case "e":
		m.exportIdx = (m.exportIdx + 1) % (len(exportFormats) + 1)
		m.refreshPreview()
	}
	return nil
}

func (m *Model) updateEditText(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = stateBrowse
	case tea.KeyEnter:
		m.ed.EditText(m.ed.Selected(), m.buf.String())
		m.state = stateBrowse
	default:
		m.editBuffer(msg)
	}
	return nil
}

func (m *Model) updateEditSource(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		_ = m.ed.SetMode(editor.ModeCanvas)
		m.state = stateBrowse
		m.status = "source discarded"
	case tea.KeyCtrlR:
		m.ed.SetSource(m.buf.String())
		if err := m.ed.ApplySource(); err != nil {
			m.errMsg = m.ed.Error()
			return nil
		}
		m.errMsg = ""
		_ = m.ed.SetMode(editor.ModeCanvas)
		m.state = stateBrowse
		m.status = "source applied"
		m.refreshPreview()
	case tea.KeyEnter:
		m.buf.insert('\n')
	default:
		m.editBuffer(msg)
	}
	return nil
}

func (m *Model) editBuffer(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyBackspace:
		m.buf.backspace()
	case tea.KeyDelete:
		m.buf.del()
	case tea.KeyLeft:
		m.buf.left()
	case tea.KeyRight:
		m.buf.right()
	case tea.KeyHome:
		m.buf.home()
	case tea.KeyEnd:
		m.buf.end()
	case tea.KeyCtrlJ:
		m.buf.insert('\n')
	case tea.KeySpace:
		m.buf.insert(' ')
	case tea.KeyTab:
		m.buf.insert('\t')
	case tea.KeyRunes:
		m.buf.insert(msg.Runes...)
	}
}

func (m *Model) enterSource(mode editor.Mode) {
	if err := m.ed.SetMode(mode); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.buf = newBuffer(m.ed.Source())
	m.buf.pos = 0
	m.state = stateEditSource
	m.errMsg = ""
}

// order returns node ids in reading order.
func (m *Model) order() []string {
	nodes := canvas.ReadingOrder(m.ed.Document())
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// cycle moves the selection through the reading order, wrapping.
func (m *Model) cycle(delta int) {
	order := m.order()
	if len(order) == 0 {
		return
	}
	idx := -1
	for i, id := range order {
		if id == m.ed.Selected() {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(order) - 1
	default:
		idx = (idx + delta + len(order)) % len(order)
	}
	m.ed.Select(order[idx])
}

// drag moves or resizes the selected node by one pointer gesture.
func (m *Model) drag(resize bool, dx, dy float64) {
	id := m.ed.Selected()
	if id == "" {
		m.status = "nothing selected"
		return
	}
	start := m.ed.PointerDownBody
	if resize {
		start = m.ed.PointerDownHandle
	}
	if !start(id, editor.Point{}) {
		return
	}
	m.ed.PointerMove(editor.Point{X: dx, Y: dy})
	m.ed.PointerUp()
	m.refreshPreview()
}

func (m *Model) selectedNode() (canvas.Node, bool) {
	doc := m.ed.Document()
	idx := doc.NodeIndex(m.ed.Selected())
	if idx < 0 {
		return canvas.Node{}, false
	}
	return doc.Nodes[idx], true
}

// refreshPreview re-runs the active export. Index 0 means no preview.
func (m *Model) refreshPreview() {
	if m.exportIdx == 0 {
		m.preview = ""
		m.previewOf = ""
		return
	}
	if _, err := m.ed.Export(exportFormats[m.exportIdx-1]); err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) saveCmd() tea.Cmd {
	if m.save == nil {
		m.status = "scratch session: nothing to save"
		return nil
	}
	if m.saving {
		return nil
	}
	m.saving = true
	m.status = "saving..."
	save, doc, changes := m.save, m.ed.Document(), m.changes
	return func() tea.Msg {
		v, err := save(context.Background(), doc)
		if err != nil {
			return saveErrMsg{err: err}
		}
		return savedMsg{version: v, changes: changes}
	}
}
