package convert

import (
	"strings"
	"testing"

	"github.com/hpungsan/easel/internal/canvas"
)

func intPtr(i int) *int { return &i }

func TestArticleBlocksToCanvas_TitleAndHeading(t *testing.T) {
	doc := ArticleBlocksToCanvas([]ContentBlock{
		{Type: "heading", Text: "Hi", Level: intPtr(1)},
	}, "Title")

	if len(doc.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(doc.Nodes))
	}

	title, hi := doc.Nodes[0], doc.Nodes[1]
	if title.Type != canvas.NodeHeading || title.Text != "Title" || title.Y != 24 {
		t.Errorf("title node = %+v", title)
	}
	if hi.Type != canvas.NodeHeading || hi.Text != "Hi" || hi.Y != 108 {
		t.Errorf("heading node = %+v", hi)
	}
	if hi.Style.FontSize != 32 {
		t.Errorf("heading FontSize = %d, want 32", hi.Style.FontSize)
	}
	if hi.X != canvas.Margin || hi.Width != canvas.ContentWidth || hi.Height != 68 {
		t.Errorf("heading geometry = (%v,%v,%v)", hi.X, hi.Width, hi.Height)
	}
	if doc.Width != canvas.DefaultWidth || doc.Height != canvas.DefaultHeight {
		t.Errorf("doc size = %vx%v, want 760x900", doc.Width, doc.Height)
	}
	if doc.Metadata.SourceType != canvas.SourceArticle {
		t.Errorf("SourceType = %q, want article", doc.Metadata.SourceType)
	}
	if title.ZIndex != 1 || hi.ZIndex != 2 {
		t.Errorf("zIndex = %d,%d, want 1,2", title.ZIndex, hi.ZIndex)
	}
}

func TestArticleBlocksToCanvas_SkipsEmptyBlocks(t *testing.T) {
	blocks := []ContentBlock{
		{Type: "paragraph", Text: "first"},
		{Type: "paragraph", Text: "   "},
		{Type: "paragraph", Meta: &BlockMeta{Items: []any{" ", nil}}},
		{Type: "paragraph"},
		{Type: "list", Meta: &BlockMeta{Items: []any{"one", " two ", "", 3.0}}},
	}

	doc := ArticleBlocksToCanvas(blocks, "")
	if len(doc.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(doc.Nodes))
	}
	if doc.Nodes[1].Text != "one\ntwo\n3" {
		t.Errorf("list text = %q, want %q", doc.Nodes[1].Text, "one\ntwo\n3")
	}

	withTitle := ArticleBlocksToCanvas(blocks, "T")
	if len(withTitle.Nodes) != 3 {
		t.Errorf("len(Nodes) with title = %d, want 3", len(withTitle.Nodes))
	}

	blankTitle := ArticleBlocksToCanvas(blocks, "  ")
	if len(blankTitle.Nodes) != 2 {
		t.Errorf("blank title should not add a node, got %d nodes", len(blankTitle.Nodes))
	}
}

func TestArticleBlocksToCanvas_TypeMapping(t *testing.T) {
	doc := ArticleBlocksToCanvas([]ContentBlock{
		{Type: "cta", Text: "Buy"},
		{Type: "hashtag", Text: "#a"},
		{Type: "quote", Text: "q"},
	}, "")

	want := []canvas.NodeType{canvas.NodeCTA, canvas.NodeHashtag, canvas.NodeParagraph}
	for i, n := range doc.Nodes {
		if n.Type != want[i] {
			t.Errorf("node %d type = %q, want %q", i, n.Type, want[i])
		}
	}
	if doc.Nodes[1].Height != 44 {
		t.Errorf("hashtag height = %v, want 44", doc.Nodes[1].Height)
	}
}

func TestBlockHeight(t *testing.T) {
	tests := []struct {
		name string
		typ  canvas.NodeType
		text string
		want float64
	}{
		{"heading fixed", canvas.NodeHeading, strings.Repeat("x", 500), 68},
		{"hashtag fixed", canvas.NodeHashtag, "#a #b", 44},
		{"short paragraph uses minimum", canvas.NodeParagraph, "short", 80},
		{"two lines", canvas.NodeParagraph, strings.Repeat("x", 49), 92},
		{"three lines", canvas.NodeCTA, strings.Repeat("x", 100), 122},
		{"runes not bytes", canvas.NodeParagraph, strings.Repeat("é", 96), 92},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blockHeight(tt.typ, tt.text); got != tt.want {
				t.Errorf("blockHeight = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeadingFontSize(t *testing.T) {
	tests := []struct {
		name  string
		level *int
		want  int
	}{
		{"default level", nil, 30},
		{"level 1", intPtr(1), 32},
		{"level 2", intPtr(2), 30},
		{"level 6", intPtr(6), 22},
		{"zero clamps to 1", intPtr(0), 32},
		{"negative clamps to 1", intPtr(-4), 32},
		{"large clamps to 6", intPtr(40), 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := headingFontSize(tt.level); got != tt.want {
				t.Errorf("headingFontSize = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStacking_GapAndFlowEdges(t *testing.T) {
	doc := ArticleBlocksToCanvas([]ContentBlock{
		{Type: "paragraph", Text: "a"},
		{Type: "paragraph", Text: "b"},
		{Type: "paragraph", Text: "c"},
	}, "")

	for i := 1; i < len(doc.Nodes); i++ {
		prev, cur := doc.Nodes[i-1], doc.Nodes[i]
		if cur.Y != prev.Bottom()+canvas.Gap {
			t.Errorf("node %d y = %v, want %v", i, cur.Y, prev.Bottom()+canvas.Gap)
		}
	}

	if len(doc.Edges) != 2 {
		t.Fatalf("len(Edges) = %d, want 2", len(doc.Edges))
	}
	for i, e := range doc.Edges {
		if e.Kind != canvas.EdgeFlow || e.From != doc.Nodes[i].ID || e.To != doc.Nodes[i+1].ID {
			t.Errorf("edge %d = %+v", i, e)
		}
	}
	if err := canvas.Validate(doc); err != nil {
		t.Errorf("generated document invalid: %v", err)
	}
}

func TestHeightGrowth(t *testing.T) {
	blocks := make([]ContentBlock, 20)
	for i := range blocks {
		blocks[i] = ContentBlock{Type: "paragraph", Text: strings.Repeat("word ", 30)}
	}
	doc := ArticleBlocksToCanvas(blocks, "Long")

	last := doc.Nodes[len(doc.Nodes)-1]
	if doc.Height < max(canvas.DefaultHeight, last.Bottom()+canvas.BottomPadding) {
		t.Errorf("Height = %v, want >= %v", doc.Height, last.Bottom()+canvas.BottomPadding)
	}
	if doc.Height <= canvas.DefaultHeight {
		t.Errorf("Height = %v, expected growth past %d", doc.Height, canvas.DefaultHeight)
	}

	empty := ArticleBlocksToCanvas(nil, "")
	if len(empty.Nodes) != 0 || empty.Height != canvas.DefaultHeight {
		t.Errorf("empty doc = %d nodes, height %v", len(empty.Nodes), empty.Height)
	}
}

func TestSocialBlocksToCanvas(t *testing.T) {
	doc := SocialBlocksToCanvas([]ContentBlock{
		{Type: "paragraph", Text: "Launch day"},
	}, []string{"seo", "#growth", " "}, "")

	if doc.Metadata.SourceType != canvas.SourceSocial {
		t.Errorf("SourceType = %q, want social", doc.Metadata.SourceType)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(doc.Nodes))
	}
	tags := doc.Nodes[1]
	if tags.Type != canvas.NodeHashtag || tags.Text != "#seo #growth" {
		t.Errorf("hashtag node = %+v", tags)
	}
	if tags.Y < doc.Nodes[0].Bottom() {
		t.Errorf("hashtag node y = %v, want below %v", tags.Y, doc.Nodes[0].Bottom())
	}
}

func TestSocialBlocksToCanvas_ExistingHashtagNode(t *testing.T) {
	doc := SocialBlocksToCanvas([]ContentBlock{
		{Type: "paragraph", Text: "Post"},
		{Type: "hashtag", Text: "#already"},
	}, []string{"more"}, "")

	if len(doc.Nodes) != 2 {
		t.Errorf("len(Nodes) = %d, want 2 (no extra hashtag node)", len(doc.Nodes))
	}
}

func TestSocialBlocksToCanvas_NoHashtags(t *testing.T) {
	doc := SocialBlocksToCanvas([]ContentBlock{{Type: "paragraph", Text: "Post"}}, nil, "")
	if len(doc.Nodes) != 1 {
		t.Errorf("len(Nodes) = %d, want 1", len(doc.Nodes))
	}
}

func TestParseContentResponse(t *testing.T) {
	data := []byte(`{
		"title": "Guide",
		"blocks": [
			{"type": "heading", "text": "Intro", "level": 2},
			{"type": "list", "meta": {"items": ["a", "b"]}},
			{"type": "cta", "text": "Sign up", "extra": true}
		],
		"hashtags": ["seo"],
		"model": "ignored"
	}`)

	resp, err := ParseContentResponse(data)
	if err != nil {
		t.Fatalf("ParseContentResponse: %v", err)
	}
	if resp.Title != "Guide" || len(resp.Blocks) != 3 || *resp.Blocks[0].Level != 2 {
		t.Errorf("resp = %+v", resp)
	}

	article := resp.ToCanvas(canvas.SourceArticle)
	if len(article.Nodes) != 4 {
		t.Errorf("article nodes = %d, want 4", len(article.Nodes))
	}
	social := resp.ToCanvas(canvas.SourceSocial)
	if len(social.Nodes) != 5 {
		t.Errorf("social nodes = %d, want 5", len(social.Nodes))
	}

	if _, err := ParseContentResponse([]byte(`{"blocks": [`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
