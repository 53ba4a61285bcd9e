package convert

import (
	"regexp"
	"strings"

	"github.com/hpungsan/easel/internal/canvas"
)

var (
	blockSeparator = regexp.MustCompile(`\n{2,}`)
	headingMarker  = regexp.MustCompile(`^#{1,3}\s+`)
)

// splitMarkdown breaks source into trimmed, non-empty blank-line separated blocks.
func splitMarkdown(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	parts := blockSeparator.Split(source, -1)
	blocks := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			blocks = append(blocks, p)
		}
	}
	return blocks
}

func stackMarkdown(source string, kind canvas.SourceType) *stacker {
	s := newStacker(kind)
	for _, block := range splitMarkdown(source) {
		if !strings.HasPrefix(block, "#") {
			s.push(canvas.NodeParagraph, block, nil)
			continue
		}
		level := len(block) - len(strings.TrimLeft(block, "#"))
		s.push(canvas.NodeHeading, headingMarker.ReplaceAllString(block, ""), &level)
	}
	return s
}

// ArticleMarkdownToCanvas imports Markdown: every blank-line separated block
// becomes a heading (if it starts with '#') or a paragraph.
func ArticleMarkdownToCanvas(markdown string) *canvas.Document {
	return stackMarkdown(markdown, canvas.SourceArticle).finish()
}

// SocialToCanvas imports a social post the same way as Markdown and appends
// a hashtag node whenever hashtags are supplied.
func SocialToCanvas(text string, hashtags []string) *canvas.Document {
	s := stackMarkdown(text, canvas.SourceSocial)
	if line := hashtagLine(hashtags); line != "" {
		s.push(canvas.NodeHashtag, line, nil)
	}
	return s.finish()
}
