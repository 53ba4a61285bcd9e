package convert

import (
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/errors"
)

// Format is an export format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name. An empty name means Markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatMarkdown, nil
	case FormatText, FormatMarkdown, FormatHTML:
		return f, nil
	default:
		return "", errors.NewInvalidRequest("format must be one of: text, markdown, html")
	}
}

// Extension returns the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatHTML:
		return ".html"
	default:
		return ".md"
	}
}

// Export renders doc in the given format.
func Export(doc *canvas.Document, format Format) (string, error) {
	switch format {
	case FormatText:
		return ToText(doc), nil
	case FormatMarkdown:
		return ToMarkdown(doc), nil
	case FormatHTML:
		return ToHTML(doc), nil
	default:
		return "", errors.NewInvalidRequest("format must be one of: text, markdown, html")
	}
}

// exportable returns the nodes in reading order with blank nodes dropped
// and text trimmed.
func exportable(doc *canvas.Document) []canvas.Node {
	ordered := canvas.ReadingOrder(doc)
	out := ordered[:0]
	for _, n := range ordered {
		n.Text = strings.TrimSpace(n.Text)
		if n.Text != "" {
			out = append(out, n)
		}
	}
	return out
}

// ToText renders every node's text, blank-line separated.
func ToText(doc *canvas.Document) string {
	nodes := exportable(doc)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Text
	}
	return strings.Join(parts, "\n\n")
}

// ToMarkdown renders headings as "##", calls to action as blockquotes and
// everything else as plain paragraphs.
func ToMarkdown(doc *canvas.Document) string {
	nodes := exportable(doc)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		switch n.Type {
		case canvas.NodeHeading:
			parts[i] = "## " + n.Text
		case canvas.NodeCTA:
			parts[i] = "> " + n.Text
		default:
			parts[i] = n.Text
		}
	}
	return strings.Join(parts, "\n\n")
}

// htmlEscaper only escapes angle brackets; ampersands and quotes pass through.
var htmlEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// ToHTML renders one element per node, newline separated.
func ToHTML(doc *canvas.Document) string {
	nodes := exportable(doc)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		text := htmlEscaper.Replace(n.Text)
		switch n.Type {
		case canvas.NodeHeading:
			parts[i] = "<h2>" + text + "</h2>"
		case canvas.NodeHashtag:
			parts[i] = `<p class="hashtags">` + text + "</p>"
		case canvas.NodeCTA:
			parts[i] = "<blockquote>" + text + "</blockquote>"
		default:
			parts[i] = "<p>" + text + "</p>"
		}
	}
	return strings.Join(parts, "\n")
}
