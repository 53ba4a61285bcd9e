package mcp

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/logging"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"draft", "canvas"}

type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"draft_create":   {createToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate }},
	"draft_fetch":    {fetchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch }},
	"draft_list":     {listToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	"draft_history":  {historyToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistory }},
	"draft_update":   {updateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate }},
	"draft_delete":   {deleteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete }},
	"draft_export":   {exportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
	"draft_import":   {importToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},
	"draft_backup":   {backupToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleBackup }},
	"draft_restore":  {restoreToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleRestore }},
	"draft_purge":    {purgeToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge }},
	"canvas_convert": {convertToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleConvert }},
	"canvas_export":  {renderToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleRender }},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ValidateDisabledTools returns the names that are not known tools.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns the names that are not known types.
func ValidateDisabledTypes(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(KnownTypes, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool returns the prefix of a "type_action" tool name.
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	tools := make([]string, 0)
	for _, name := range AllToolNames() {
		if slices.Contains(types, GetTypeForTool(name)) {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server with the easel tools registered, minus
// those disabled by name or type in cfg.
func NewServer(db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"easel",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves MCP over stdio until stdin closes. Unknown entries in the
// disabled lists are reported on the context logger and otherwise ignored.
func Run(ctx context.Context, db *sql.DB, cfg *config.Config, version string) error {
	logger := logging.FromContext(ctx)
	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_tools", "names", unknown, "known", AllToolNames())
	}
	if unknown := ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_types", "names", unknown, "known", KnownTypes)
	}

	s := NewServer(db, cfg, version)
	logger.Debug("serving mcp over stdio", "version", version)
	return server.ServeStdio(s)
}
