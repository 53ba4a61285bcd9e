package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// ConvertFrom names the input a conversion starts from.
type ConvertFrom string

const (
	ConvertFromBlocks   ConvertFrom = "blocks"   // content-generation API blocks
	ConvertFromMarkdown ConvertFrom = "markdown" // Markdown or a social post
	ConvertFromSource   ConvertFrom = "source"   // editor source text (json or markdown)
)

// ConvertInput contains parameters for the Convert operation.
type ConvertInput struct {
	From        ConvertFrom            `json:"from"`
	ContentType draft.ContentType      `json:"content_type,omitempty"` // default: article
	Title       string                 `json:"title,omitempty"`
	Blocks      []convert.ContentBlock `json:"blocks,omitempty"`
	Hashtags    []string               `json:"hashtags,omitempty"`
	Text        string                 `json:"text,omitempty"`
	Mode        convert.SourceMode     `json:"mode,omitempty"` // for source; default json
}

// ConvertOutput contains the converted canvas.
type ConvertOutput struct {
	Canvas *canvas.Document `json:"canvas"`
	Nodes  int              `json:"nodes"`
	Edges  int              `json:"edges"`
}

// Convert lays out content as a canvas without storing anything.
func Convert(input ConvertInput) (*ConvertOutput, error) {
	contentType := input.ContentType
	if contentType == "" {
		contentType = draft.ContentArticle
	}
	if !contentType.Valid() {
		return nil, errors.NewInvalidRequest("content_type must be one of: article, social")
	}
	social := contentType == draft.ContentSocial

	var doc *canvas.Document
	switch ConvertFrom(strings.ToLower(string(input.From))) {
	case ConvertFromBlocks:
		if social {
			doc = convert.SocialBlocksToCanvas(input.Blocks, input.Hashtags, input.Title)
		} else {
			doc = convert.ArticleBlocksToCanvas(input.Blocks, input.Title)
		}
	case ConvertFromMarkdown:
		if social {
			doc = convert.SocialToCanvas(input.Text, input.Hashtags)
		} else {
			doc = convert.ArticleMarkdownToCanvas(input.Text)
		}
	case ConvertFromSource:
		mode := input.Mode
		if mode == "" {
			mode = convert.SourceJSON
		}
		var err error
		if doc, err = convert.SourceToCanvas(input.Text, mode); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("from must be one of: %s, %s, %s",
			ConvertFromBlocks, ConvertFromMarkdown, ConvertFromSource))
	}

	return &ConvertOutput{Canvas: doc, Nodes: len(doc.Nodes), Edges: len(doc.Edges)}, nil
}

// RenderInput contains parameters for the Render operation.
type RenderInput struct {
	Canvas *canvas.Document `json:"canvas"`
	Format string           `json:"format,omitempty"` // default: markdown
}

// RenderOutput contains a rendered canvas.
type RenderOutput struct {
	Format  convert.Format `json:"format"`
	Content string         `json:"content"`
}

// Render exports an unsaved canvas in reading order.
func Render(input RenderInput) (*RenderOutput, error) {
	if input.Canvas == nil {
		return nil, errors.NewInvalidRequest("canvas is required")
	}
	if err := canvas.Validate(input.Canvas); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid canvas: %v", err))
	}
	format, err := convert.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	content, err := convert.Export(input.Canvas, format)
	if err != nil {
		return nil, err
	}
	return &RenderOutput{Format: format, Content: content}, nil
}
