package convert

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/errors"
)

// SourceMode selects how SourceToCanvas interprets its input.
type SourceMode string

const (
	SourceJSON     SourceMode = "json"
	SourceMarkdown SourceMode = "markdown"
)

// SourceToCanvas parses edited source text back into a document. JSON source
// must match the document schema exactly; Markdown source always succeeds.
func SourceToCanvas(source string, mode SourceMode) (*canvas.Document, error) {
	switch mode {
	case SourceJSON:
		return ParseDocument([]byte(source))
	case SourceMarkdown:
		return ArticleMarkdownToCanvas(source), nil
	default:
		return nil, errors.NewInvalidRequest("source mode must be one of: json, markdown")
	}
}

// ParseDocument decodes a serialized document. Unknown fields, trailing
// data and schema violations are PARSE_ERRORs.
func ParseDocument(data []byte) (*canvas.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.NewParse(stderrors.New("empty source"))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc canvas.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.NewParse(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.NewParse(stderrors.New("unexpected data after document"))
	}
	if err := canvas.Validate(&doc); err != nil {
		return nil, errors.NewParse(err)
	}
	return &doc, nil
}

// EncodeDocument serializes doc as indented JSON, the form shown in the
// editor's json source view.
func EncodeDocument(doc *canvas.Document) (string, error) {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", errors.NewInternal(err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
