package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

var canvasSchema = map[string]any{
	"id":       map[string]any{"type": "string"},
	"width":    map[string]any{"type": "number"},
	"height":   map[string]any{"type": "number"},
	"nodes":    map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
	"edges":    map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
	"metadata": map[string]any{"type": "object"},
}

var createToolDef = mcp.NewTool("draft_create",
	mcp.WithDescription("Create a new content draft from a canvas document. Returns the draft id, lineage id and version 1."),
	mcp.WithString("project", mcp.Description("Project the draft belongs to (default: \"default\")")),
	mcp.WithString("content_type", mcp.Required(), mcp.Enum("article", "social"), mcp.Description("Kind of content")),
	mcp.WithString("title", mcp.Required(), mcp.Description("Draft title, 1-255 characters")),
	mcp.WithObject("canvas", mcp.Required(), mcp.Properties(canvasSchema), mcp.Description("Canvas document with positioned nodes")),
	mcp.WithString("export_text", mcp.Description("Plain export text (default: Markdown export of the canvas)")),
	mcp.WithString("updated_by", mcp.Description("Author of this version")),
)

var fetchToolDef = mcp.NewTool("draft_fetch",
	mcp.WithDescription("Fetch one draft version by id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Draft id")),
	mcp.WithBoolean("include_canvas", mcp.Description("Include the canvas document (default: true)")),
	mcp.WithBoolean("include_deleted", mcp.Description("Also return soft-deleted drafts")),
)

var listToolDef = mcp.NewTool("draft_list",
	mcp.WithDescription("List draft summaries in a project, most recently updated first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("project", mcp.Description("Project (default: \"default\")")),
	mcp.WithString("content_type", mcp.Enum("article", "social"), mcp.Description("Filter by content type")),
	mcp.WithString("lineage_id", mcp.Description("Only versions of this lineage")),
	mcp.WithBoolean("latest_only", mcp.Description("Only the head version of each lineage")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted drafts")),
)

var historyToolDef = mcp.NewTool("draft_history",
	mcp.WithDescription("List every version of a draft lineage, oldest first. Address it by any draft id, or by project and lineage_id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Description("Any draft id in the lineage")),
	mcp.WithString("project", mcp.Description("Project, used with lineage_id")),
	mcp.WithString("lineage_id", mcp.Description("Lineage id")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted versions")),
)

var updateToolDef = mcp.NewTool("draft_update",
	mcp.WithDescription("Update the head version of a draft. expected_version must match the head or a VERSION_CONFLICT with the latest draft is returned."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Draft id (must be the lineage head)")),
	mcp.WithNumber("expected_version", mcp.Required(), mcp.Description("Version the edit is based on")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithObject("canvas", mcp.Properties(canvasSchema), mcp.Description("Replacement canvas document")),
	mcp.WithString("export_text", mcp.Description("Replacement export text (regenerated from a new canvas when omitted)")),
	mcp.WithString("updated_by", mcp.Description("Author of this version")),
	mcp.WithBoolean("save_as_new_version", mcp.Description("Keep the current version and store the result as a new one")),
	mcp.WithNumber("rollback_to_version", mcp.Description("Copy this version's content into a new head version")),
)

var deleteToolDef = mcp.NewTool("draft_delete",
	mcp.WithDescription("Soft-delete one draft version. The previous version becomes the head."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Draft id")),
)

var exportToolDef = mcp.NewTool("draft_export",
	mcp.WithDescription("Render a draft as text, markdown or html in reading order. With a path, writes the file instead of returning the content."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Draft id")),
	mcp.WithString("format", mcp.Enum("text", "markdown", "html"), mcp.Description("Output format (default from config)")),
	mcp.WithString("path", mcp.Description("Output file (.txt, .md or .html matching the format)")),
)

var importToolDef = mcp.NewTool("draft_import",
	mcp.WithDescription("Create a draft from a .md file, a content-generation response (.json with blocks) or a canvas document (.json with nodes)."),
	mcp.WithString("path", mcp.Required(), mcp.Description("File to import")),
	mcp.WithString("project", mcp.Description("Project (default: \"default\")")),
	mcp.WithString("content_type", mcp.Enum("article", "social"), mcp.Description("Kind of content (default: article)")),
	mcp.WithString("title", mcp.Description("Title (default: from the file)")),
	mcp.WithArray("hashtags", stringItems, mcp.Description("Hashtags for social Markdown imports")),
	mcp.WithString("updated_by", mcp.Description("Author")),
)

var backupToolDef = mcp.NewTool("draft_backup",
	mcp.WithDescription("Write every draft version to a JSONL backup file."),
	mcp.WithString("path", mcp.Description("Output .jsonl file (default: ~/.easel/exports/<project>-<time>.jsonl)")),
	mcp.WithString("project", mcp.Description("Only this project")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted drafts")),
)

var restoreToolDef = mcp.NewTool("draft_restore",
	mcp.WithDescription("Load drafts from a JSONL backup file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup .jsonl file")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "skip"), mcp.Description("On collision: abort everything, overwrite, or keep existing (default: error)")),
)

var purgeToolDef = mcp.NewTool("draft_purge",
	mcp.WithDescription("Permanently delete soft-deleted drafts."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("project", mcp.Description("Only this project")),
	mcp.WithNumber("older_than_days", mcp.Description("Only drafts deleted more than this many days ago")),
)

var convertToolDef = mcp.NewTool("canvas_convert",
	mcp.WithDescription("Lay out content as a canvas document without saving it: API blocks, Markdown/social text, or editor source."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("from", mcp.Required(), mcp.Enum("blocks", "markdown", "source"), mcp.Description("Input kind")),
	mcp.WithString("content_type", mcp.Enum("article", "social"), mcp.Description("Layout (default: article)")),
	mcp.WithString("title", mcp.Description("Title heading for blocks")),
	mcp.WithArray("blocks", mcp.Items(map[string]any{"type": "object"}), mcp.Description("Content blocks {type, text, level, meta}")),
	mcp.WithArray("hashtags", stringItems, mcp.Description("Hashtags for social layouts")),
	mcp.WithString("text", mcp.Description("Markdown, social text or editor source")),
	mcp.WithString("mode", mcp.Enum("json", "markdown"), mcp.Description("Source mode for from=source (default: json)")),
)

var renderToolDef = mcp.NewTool("canvas_export",
	mcp.WithDescription("Render an unsaved canvas document as text, markdown or html."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithObject("canvas", mcp.Required(), mcp.Properties(canvasSchema), mcp.Description("Canvas document")),
	mcp.WithString("format", mcp.Enum("text", "markdown", "html"), mcp.Description("Output format (default: markdown)")),
)
