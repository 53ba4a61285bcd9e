package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

// ImportSource names the kind of file an import read.
type ImportSource string

const (
	ImportMarkdown        ImportSource = "markdown"
	ImportContentResponse ImportSource = "content_response"
	ImportDocument        ImportSource = "document"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path        string
	Project     string
	ContentType draft.ContentType // default: article, or the document's source type
	Title       string            // default: response title, first heading, or file name
	Hashtags    []string          // appended to social Markdown imports
	UpdatedBy   *string
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	CreateOutput
	Source ImportSource `json:"source"`
	Title  string       `json:"title"`
	Nodes  int          `json:"nodes"`
}

// Import creates a new draft from a file: Markdown (.md), a
// content-generation response (.json with "blocks") or a serialized canvas
// document (.json with "nodes").
func Import(ctx context.Context, database db.Querier, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if err := ValidatePath(input.Path, PathCheckRead, importExtensions, cfg); err != nil {
		return nil, err
	}
	if input.ContentType != "" && !input.ContentType.Valid() {
		return nil, errors.NewInvalidRequest("content_type must be one of: article, social")
	}
	data, err := readFileLimited(input.Path)
	if err != nil {
		return nil, err
	}

	doc, source, title, err := decodeImport(input, data)
	if err != nil {
		return nil, err
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = draft.ContentArticle
		if doc.Metadata.SourceType == canvas.SourceSocial {
			contentType = draft.ContentSocial
		}
	}
	if t := strings.TrimSpace(input.Title); t != "" {
		title = t
	}
	if strings.TrimSpace(title) == "" {
		title = firstHeading(doc)
	}
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(input.Path), filepath.Ext(input.Path))
	}
	if n := []rune(strings.TrimSpace(title)); len(n) > draft.MaxTitleChars {
		title = string(n[:draft.MaxTitleChars])
	}

	created, err := Create(ctx, database, cfg, CreateInput{
		Project:     input.Project,
		ContentType: contentType,
		Title:       title,
		Canvas:      doc,
		UpdatedBy:   input.UpdatedBy,
	})
	if err != nil {
		return nil, err
	}

	return &ImportOutput{
		CreateOutput: *created,
		Source:       source,
		Title:        strings.TrimSpace(title),
		Nodes:        len(doc.Nodes),
	}, nil
}

// decodeImport turns file contents into a canvas, returning the detected
// source and any title the file carried.
func decodeImport(input ImportInput, data []byte) (*canvas.Document, ImportSource, string, error) {
	if strings.EqualFold(filepath.Ext(input.Path), ".md") {
		text := string(data)
		if input.ContentType == draft.ContentSocial {
			return convert.SocialToCanvas(text, input.Hashtags), ImportMarkdown, "", nil
		}
		return convert.ArticleMarkdownToCanvas(text), ImportMarkdown, "", nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, "", "", errors.NewParse(err)
	}

	if _, ok := probe["nodes"]; ok {
		doc, err := convert.ParseDocument(data)
		if err != nil {
			return nil, "", "", err
		}
		return doc, ImportDocument, "", nil
	}

	if _, ok := probe["blocks"]; ok {
		resp, err := convert.ParseContentResponse(data)
		if err != nil {
			return nil, "", "", errors.NewParse(err)
		}
		kind := canvas.SourceArticle
		if input.ContentType == draft.ContentSocial {
			kind = canvas.SourceSocial
		}
		return resp.ToCanvas(kind), ImportContentResponse, resp.Title, nil
	}

	return nil, "", "", errors.NewParse(fmt.Errorf("json file has neither %q nor %q", "nodes", "blocks"))
}

// firstHeading returns the text of the first heading in reading order.
func firstHeading(doc *canvas.Document) string {
	for _, n := range canvas.ReadingOrder(doc) {
		if n.Type == canvas.NodeHeading && strings.TrimSpace(n.Text) != "" {
			return strings.TrimSpace(n.Text)
		}
	}
	return ""
}
