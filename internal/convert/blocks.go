package convert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
)

// ContentBlock is one block of a content-generation API response.
type ContentBlock struct {
	Type  string     `json:"type"`
	Text  string     `json:"text,omitempty"`
	Level *int       `json:"level,omitempty"`
	Meta  *BlockMeta `json:"meta,omitempty"`
}

// BlockMeta carries optional list items used when a block has no text.
type BlockMeta struct {
	Items []any `json:"items,omitempty"`
}

// ContentResponse is the full generation API payload.
type ContentResponse struct {
	Title    string         `json:"title,omitempty"`
	Blocks   []ContentBlock `json:"blocks"`
	Hashtags []string       `json:"hashtags,omitempty"`
}

// ParseContentResponse decodes a generation API response. Unknown fields are
// ignored.
func ParseContentResponse(data []byte) (*ContentResponse, error) {
	var resp ContentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToCanvas converts the response using the article or social layout.
func (r *ContentResponse) ToCanvas(kind canvas.SourceType) *canvas.Document {
	if kind == canvas.SourceSocial {
		return SocialBlocksToCanvas(r.Blocks, r.Hashtags, r.Title)
	}
	return ArticleBlocksToCanvas(r.Blocks, r.Title)
}

// blockText returns the display text for a block: its trimmed text, or its
// non-empty list items joined by newlines.
func blockText(b ContentBlock) string {
	if text := strings.TrimSpace(b.Text); text != "" {
		return text
	}
	if b.Meta == nil {
		return ""
	}
	items := make([]string, 0, len(b.Meta.Items))
	for _, item := range b.Meta.Items {
		if item == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			items = append(items, s)
		}
	}
	return strings.Join(items, "\n")
}

// blockNodeType maps an API block type onto the node tag set.
func blockNodeType(t string) canvas.NodeType {
	switch t {
	case "heading":
		return canvas.NodeHeading
	case "cta":
		return canvas.NodeCTA
	case "hashtag":
		return canvas.NodeHashtag
	default:
		return canvas.NodeParagraph
	}
}

func stackBlocks(blocks []ContentBlock, title string, source canvas.SourceType) *stacker {
	s := newStacker(source)
	if t := strings.TrimSpace(title); t != "" {
		one := 1
		s.push(canvas.NodeHeading, t, &one)
	}
	for _, b := range blocks {
		text := blockText(b)
		if text == "" {
			continue
		}
		s.push(blockNodeType(b.Type), text, b.Level)
	}
	return s
}

// ArticleBlocksToCanvas stacks the blocks into a single-column document.
// Blocks with no text and no list items produce no node. A non-blank title
// becomes a leading heading.
func ArticleBlocksToCanvas(blocks []ContentBlock, title string) *canvas.Document {
	return stackBlocks(blocks, title, canvas.SourceArticle).finish()
}

// SocialBlocksToCanvas works like ArticleBlocksToCanvas and then appends a
// hashtag node below the content, unless the blocks already produced one or
// there are no hashtags.
func SocialBlocksToCanvas(blocks []ContentBlock, hashtags []string, title string) *canvas.Document {
	s := stackBlocks(blocks, title, canvas.SourceSocial)
	if line := hashtagLine(hashtags); line != "" && !s.doc.HasNodeType(canvas.NodeHashtag) {
		s.push(canvas.NodeHashtag, line, nil)
	}
	return s.finish()
}

// hashtagLine renders tags as "#a #b". Leading '#' characters on input are
// not doubled; blank tags are dropped.
func hashtagLine(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		parts = append(parts, "#"+tag)
	}
	return strings.Join(parts, " ")
}
