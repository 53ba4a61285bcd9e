package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

func TestConvert(t *testing.T) {
	level := 2
	blocks := []convert.ContentBlock{
		{Type: "heading", Text: "Intro", Level: &level},
		{Type: "paragraph", Text: "Body"},
	}

	article, err := Convert(ConvertInput{From: ConvertFromBlocks, Title: "Post", Blocks: blocks})
	require.NoError(t, err)
	require.Equal(t, 3, article.Nodes)
	require.Equal(t, canvas.SourceArticle, article.Canvas.Metadata.SourceType)

	social, err := Convert(ConvertInput{From: ConvertFromBlocks, ContentType: draft.ContentSocial, Blocks: blocks, Hashtags: []string{"go"}})
	require.NoError(t, err)
	require.Equal(t, 3, social.Nodes)
	require.True(t, social.Canvas.HasNodeType(canvas.NodeHashtag))

	md, err := Convert(ConvertInput{From: "Markdown", Text: "# A\n\nB"})
	require.NoError(t, err)
	require.Equal(t, 2, md.Nodes)

	encoded, err := convert.EncodeDocument(md.Canvas)
	require.NoError(t, err)
	src, err := Convert(ConvertInput{From: ConvertFromSource, Text: encoded})
	require.NoError(t, err)
	require.Equal(t, md.Canvas.ID, src.Canvas.ID)

	_, err = Convert(ConvertInput{From: ConvertFromSource, Text: "{"})
	requireCode(t, err, errors.ErrParse)
	_, err = Convert(ConvertInput{From: "pdf"})
	requireCode(t, err, errors.ErrInvalidRequest)
	_, err = Convert(ConvertInput{From: ConvertFromMarkdown, ContentType: "video"})
	requireCode(t, err, errors.ErrInvalidRequest)
}

func TestRender(t *testing.T) {
	out, err := Render(RenderInput{Canvas: testCanvas()})
	require.NoError(t, err)
	require.Equal(t, convert.FormatMarkdown, out.Format)
	require.Equal(t, "## Launch\n\nBody text", out.Content)

	out, err = Render(RenderInput{Canvas: testCanvas(), Format: "text"})
	require.NoError(t, err)
	require.Equal(t, "Launch\n\nBody text", out.Content)

	_, err = Render(RenderInput{})
	requireCode(t, err, errors.ErrInvalidRequest)

	bad := testCanvas()
	bad.Edges = append(bad.Edges, canvas.Edge{ID: "e", From: "nope", To: bad.Nodes[0].ID, Kind: canvas.EdgeFlow})
	_, err = Render(RenderInput{Canvas: bad})
	requireCode(t, err, errors.ErrInvalidRequest)
}
