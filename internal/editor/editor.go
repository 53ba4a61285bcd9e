// Package editor implements direct manipulation of a canvas document as a
// plain state machine. A UI layer feeds it pointer and keyboard events and
// re-renders from its state; the editor never blocks and never panics on
// user input.
package editor

import (
	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/errors"
)

// Mode is the editor's current display.
type Mode string

const (
	ModeCanvas   Mode = "canvas"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Options wires the editor to its host.
type Options struct {
	// OnChange receives a copy of the document after every change.
	OnChange func(*canvas.Document)

	// OnExport receives the output of every Export call.
	OnExport func(convert.Format, string)
}

// Editor owns one document and the transient UI state around it.
type Editor struct {
	doc      *canvas.Document
	mode     Mode
	source   string
	err      string
	selected string
	drag     Drag
	opts     Options
}

// New creates an editor over a copy of doc. A nil doc starts an empty canvas.
func New(doc *canvas.Document, opts Options) *Editor {
	if doc == nil {
		doc = canvas.New()
	}
	return &Editor{
		doc:  doc.Clone(),
		mode: ModeCanvas,
		opts: opts,
	}
}

// Document returns a copy of the live document.
func (e *Editor) Document() *canvas.Document { return e.doc.Clone() }

// Mode returns the current display mode.
func (e *Editor) Mode() Mode { return e.mode }

// Source returns the textual source buffer (markdown and json modes).
func (e *Editor) Source() string { return e.source }

// Error returns the message from the last failed ApplySource, if any.
func (e *Editor) Error() string { return e.err }

// Selected returns the selected node id, or "".
func (e *Editor) Selected() string { return e.selected }

// SetMode switches the display. Entering markdown or json serializes the
// live document into the source buffer; entering canvas discards the buffer
// without applying it. Ignored while a drag is in progress.
func (e *Editor) SetMode(m Mode) error {
	if e.dragging() {
		return nil
	}
	switch m {
	case ModeCanvas:
		e.source = ""
	case ModeMarkdown:
		e.source = convert.ToMarkdown(e.doc)
	case ModeJSON:
		src, err := convert.EncodeDocument(e.doc)
		if err != nil {
			return err
		}
		e.source = src
	default:
		return errors.NewInvalidRequest("mode must be one of: canvas, markdown, json")
	}
	e.mode = m
	e.err = ""
	return nil
}

// SetSource replaces the source buffer. Ignored in canvas mode.
func (e *Editor) SetSource(text string) {
	if e.mode == ModeCanvas {
		return
	}
	e.source = text
}

// ApplySource parses the source buffer and, on success, replaces the
// document and clears the error message. On failure the document is left
// untouched, the message is kept for display, and the PARSE_ERROR is
// returned. A no-op in canvas mode.
func (e *Editor) ApplySource() error {
	var mode convert.SourceMode
	switch e.mode {
	case ModeMarkdown:
		mode = convert.SourceMarkdown
	case ModeJSON:
		mode = convert.SourceJSON
	default:
		return nil
	}

	doc, err := convert.SourceToCanvas(e.source, mode)
	if err != nil {
		if eErr, ok := err.(*errors.EaselError); ok {
			e.err = eErr.Message
		} else {
			e.err = err.Error()
		}
		return err
	}

	e.doc = doc
	e.err = ""
	if e.selected != "" && !e.doc.HasNode(e.selected) {
		e.selected = ""
	}
	e.changed()
	return nil
}

// Export renders the live document regardless of mode and hands the result
// to OnExport.
func (e *Editor) Export(format convert.Format) (string, error) {
	out, err := convert.Export(e.doc, format)
	if err != nil {
		return "", err
	}
	if e.opts.OnExport != nil {
		e.opts.OnExport(format, out)
	}
	return out, nil
}

// changed publishes a copy of the document to the host.
func (e *Editor) changed() {
	if e.opts.OnChange != nil {
		e.opts.OnChange(e.doc.Clone())
	}
}

// editable reports whether canvas mutations are accepted right now.
func (e *Editor) editable() bool {
	return e.mode == ModeCanvas && !e.dragging()
}
