package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/editor"
)

const maxNodeText = 48

func (m *Model) View() string {
	var b strings.Builder

	header := styleTitle.Render(m.title)
	if m.version > 0 {
		header += styleDim.Render(fmt.Sprintf("  v%d", m.version))
	}
	if m.dirty {
		header += styleWarning.Render("  modified")
	}
	header += styleDim.Render("  [" + string(m.ed.Mode()) + "]")
	b.WriteString(header)
	b.WriteString("\n\n")

	var body string
	switch m.state {
	case stateEditSource:
		body = stylePane.Render(m.buf.render())
	default:
		body = m.renderNodes()
		if m.preview != "" {
			preview := styleDim.Render("export: "+string(m.previewOf)) + "\n" + m.preview
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", stylePane.Render(preview))
		}
	}
	b.WriteString(body)
	b.WriteString("\n")

	if m.state == stateEditText {
		b.WriteString("\n")
		b.WriteString(styleDim.Render("text: "))
		b.WriteString(m.buf.render())
		b.WriteString("\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render("✗ " + m.errMsg))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(styleSuccess.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleDim.Render(m.help()))
	return b.String()
}

func (m *Model) renderNodes() string {
	doc := m.ed.Document()
	nodes := canvas.ReadingOrder(doc)

	var b strings.Builder
	b.WriteString(styleDim.Render(fmt.Sprintf("canvas %g×%g  %d nodes  %d edges", doc.Width, doc.Height, len(doc.Nodes), len(doc.Edges))))
	b.WriteString("\n")
	if len(nodes) == 0 {
		b.WriteString(styleDim.Render("  (empty: press a to add a block)"))
		return stylePane.Render(b.String())
	}

	selected := m.ed.Selected()
	for _, n := range nodes {
		cursor := "  "
		text := styleNode
		if n.ID == selected {
			cursor = "▸ "
			text = styleSelected
		}
		geom := fmt.Sprintf("%4g,%-4g %4g×%-4g z%d", n.X, n.Y, n.Width, n.Height, n.ZIndex)
		b.WriteString(cursor)
		b.WriteString(styleType.Render(fmt.Sprintf("%-9s", n.Type)))
		b.WriteString(" ")
		b.WriteString(styleDim.Render(geom))
		b.WriteString(" ")
		b.WriteString(text.Render(truncate(n.Text)))
		b.WriteString("\n")
	}

	if g := m.ed.Guides(); g.Vertical || g.Horizontal {
		var parts []string
		if g.Vertical {
			parts = append(parts, fmt.Sprintf("centered horizontally (x=%g)", g.X))
		}
		if g.Horizontal {
			parts = append(parts, fmt.Sprintf("centered vertically (y=%g)", g.Y))
		}
		b.WriteString(styleWarning.Render("guide: " + strings.Join(parts, ", ")))
		b.WriteString("\n")
	}
	return stylePane.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) help() string {
	switch m.state {
	case stateEditText:
		return "enter commit  ctrl+j newline  esc cancel"
	case stateEditSource:
		return "ctrl+r apply  esc discard  ctrl+s save"
	}
	if m.ed.Mode() != editor.ModeCanvas {
		return "c canvas  ctrl+s save  q quit"
	}
	return "tab/shift+tab select  arrows move  shift+arrows resize  a add  d duplicate  x delete  enter edit  m markdown  j json  e export  ctrl+s save  q quit"
}

// truncate shortens text to one line for the node list.
func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxNodeText {
		return s
	}
	return string(r[:maxNodeText-1]) + "…"
}
