package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/easel/internal/canvas"
	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
	"github.com/hpungsan/easel/internal/logging"
	"github.com/hpungsan/easel/internal/mcp"
	"github.com/hpungsan/easel/internal/ops"
	"github.com/hpungsan/easel/internal/tui"
	"github.com/hpungsan/easel/internal/web"
)

// maxInputBytes caps source text read from stdin or --file.
const maxInputBytes = 16 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "easel",
		Usage:   "Canvas content drafts",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log debug output to stderr"},
		},
		Before: func(c *cli.Context) error {
			logger := logging.New(c.App.ErrWriter, logging.Level(c.Bool("verbose")))
			c.Context = logging.WithLogger(c.Context, logger)
			return nil
		},
		Commands: []*cli.Command{
			createCmd(db, cfg),
			fetchCmd(db),
			listCmd(db),
			historyCmd(db),
			updateCmd(db, cfg),
			deleteCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			backupCmd(db, cfg),
			restoreCmd(db, cfg),
			purgeCmd(db),
			convertCmd(),
			editCmd(db, cfg),
			serveCmd(db, cfg),
			mcpCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

var sourceFlags = []cli.Flag{
	&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Value: "markdown", Usage: "Input format: markdown|json|blocks"},
	&cli.StringFlag{Name: "file", Usage: "Read input from this file instead of stdin"},
	&cli.StringFlag{Name: "hashtags", Usage: "Comma-separated hashtags (social drafts)"},
}

// createCmd creates the create command.
func createCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a draft from Markdown, a document or API blocks (stdin or --file)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Value: "default", Usage: "Project name"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "article", Usage: "Content type: article|social"},
			&cli.StringFlag{Name: "title", Usage: "Draft title (defaults to the blocks response title)"},
			&cli.StringFlag{Name: "updated-by", Usage: "Author recorded on the draft"},
		}, sourceFlags...),
		Action: func(c *cli.Context) error {
			contentType := draft.ContentType(strings.ToLower(c.String("type")))
			doc, title, err := readCanvas(c, contentType)
			if err != nil {
				return outputError(err)
			}
			if t := c.String("title"); t != "" {
				title = t
			}

			output, err := ops.Create(c.Context, db, cfg, ops.CreateInput{
				Project:     c.String("project"),
				ContentType: contentType,
				Title:       title,
				Canvas:      doc,
				UpdatedBy:   optionalString(c, "updated-by"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a draft by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-canvas", Usage: "Exclude the canvas from output"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted drafts"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, db, ops.FetchInput{
				ID:             c.Args().First(),
				IncludeCanvas:  !c.Bool("no-canvas"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List drafts in a project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Value: "default", Usage: "Project name"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by content type"},
			&cli.StringFlag{Name: "lineage", Usage: "Filter by lineage ID"},
			&cli.BoolFlag{Name: "latest-only", Usage: "Only the head version of each lineage"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted drafts"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				Project:        c.String("project"),
				ContentType:    c.String("type"),
				LineageID:      c.String("lineage"),
				LatestOnly:     c.Bool("latest-only"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "List every version of a draft lineage",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Value: "default", Usage: "Project name (with --lineage)"},
			&cli.StringFlag{Name: "lineage", Usage: "Lineage ID"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted versions"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.History(c.Context, db, ops.HistoryInput{
				ID:             c.Args().First(),
				Project:        c.String("project"),
				LineageID:      c.String("lineage"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a draft (with --from or --file, reads a new canvas from stdin or the file)",
		ArgsUsage: "<id>",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "expected-version", Aliases: []string{"e"}, Required: true, Usage: "Current head version of the lineage"},
			&cli.StringFlag{Name: "title", Usage: "New title"},
			&cli.StringFlag{Name: "export-text", Usage: "Override the stored export text"},
			&cli.BoolFlag{Name: "new-version", Usage: "Keep the current version and save a new one"},
			&cli.IntFlag{Name: "rollback", Usage: "Copy this version into a new head version"},
			&cli.StringFlag{Name: "updated-by", Usage: "Author recorded on the draft"},
		}, sourceFlags...),
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{
				ID:               c.Args().First(),
				ExpectedVersion:  c.Int("expected-version"),
				Title:            optionalString(c, "title"),
				ExportText:       optionalString(c, "export-text"),
				UpdatedBy:        optionalString(c, "updated-by"),
				SaveAsNewVersion: c.Bool("new-version"),
			}
			if c.IsSet("rollback") {
				v := c.Int("rollback")
				input.RollbackToVersion = &v
			}

			if c.IsSet("file") || c.IsSet("from") {
				current, err := ops.Fetch(c.Context, db, ops.FetchInput{ID: input.ID})
				if err != nil {
					return outputError(err)
				}
				doc, _, err := readCanvas(c, current.ContentType)
				if err != nil {
					return outputError(err)
				}
				input.Canvas = doc
			}

			output, err := ops.Update(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a draft version",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Render a draft as text, Markdown or HTML",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "text|markdown|html (default from config)"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Write to this file instead of stdout"},
			&cli.BoolFlag{Name: "json", Usage: "Print the JSON result instead of the raw rendering"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				ID:     c.Args().First(),
				Format: c.String("format"),
				Path:   c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			if output.Path != "" || c.Bool("json") {
				return outputJSON(c, output)
			}
			_, err = fmt.Fprintln(c.App.Writer, output.Content)
			return err
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Create a draft from a .md or .json file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Value: "default", Usage: "Project name"},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Content type: article|social"},
			&cli.StringFlag{Name: "title", Usage: "Draft title"},
			&cli.StringFlag{Name: "hashtags", Usage: "Comma-separated hashtags (social Markdown)"},
			&cli.StringFlag{Name: "updated-by", Usage: "Author recorded on the draft"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path:        c.String("path"),
				Project:     c.String("project"),
				ContentType: draft.ContentType(strings.ToLower(c.String("type"))),
				Title:       c.String("title"),
				Hashtags:    parseList(c.String("hashtags")),
				UpdatedBy:   optionalString(c, "updated-by"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// backupCmd creates the backup command.
func backupCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Write drafts to a JSONL backup file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Backup file path (default: ~/.easel/exports/<project>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Only back up this project"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted drafts"},
		},
		Action: func(c *cli.Context) error {
			timer := logging.Start(logging.FromContext(c.Context))
			output, err := ops.Backup(c.Context, db, cfg, ops.BackupInput{
				Path:           c.String("path"),
				Project:        optionalString(c, "project"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			timer.Done("backup written", "path", output.Path, "drafts", output.Count)
			return outputJSON(c, output)
		},
	}
}

// restoreCmd creates the restore command.
func restoreCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Restore drafts from a JSONL backup file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Backup file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			timer := logging.Start(logging.FromContext(c.Context))
			output, err := ops.Restore(c.Context, db, cfg, ops.RestoreInput{
				Path: c.String("path"),
				Mode: ops.RestoreMode(strings.ToLower(c.String("mode"))),
			})
			if err != nil {
				return outputError(err)
			}
			timer.Done("restore finished", "restored", output.Restored, "skipped", output.Skipped)
			return outputJSON(c, output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted drafts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project"},
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{Project: optionalString(c, "project")}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// convertCmd creates the convert command. It never touches the database.
func convertCmd() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Lay out Markdown, a document or API blocks as a canvas without saving",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "article", Usage: "Layout: article|social"},
			&cli.StringFlag{Name: "export", Aliases: []string{"x"}, Usage: "Print the canvas rendered as text|markdown|html"},
		}, sourceFlags...),
		Action: func(c *cli.Context) error {
			doc, _, err := readCanvas(c, draft.ContentType(strings.ToLower(c.String("type"))))
			if err != nil {
				return outputError(err)
			}
			if !c.IsSet("export") {
				return outputJSON(c, ops.ConvertOutput{Canvas: doc, Nodes: len(doc.Nodes), Edges: len(doc.Edges)})
			}
			rendered, err := ops.Render(ops.RenderInput{Canvas: doc, Format: c.String("export")})
			if err != nil {
				return outputError(err)
			}
			_, err = fmt.Fprintln(c.App.Writer, rendered.Content)
			return err
		},
	}
}

// editCmd creates the edit command.
func editCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a draft's canvas in the terminal (ctrl+s saves)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "updated-by", Usage: "Author recorded on saves"},
		},
		Action: func(c *cli.Context) error {
			d, err := ops.Fetch(c.Context, db, ops.FetchInput{ID: c.Args().First(), IncludeCanvas: true})
			if err != nil {
				return outputError(err)
			}
			saver := tui.DraftSaver(db, cfg, d.ID, d.Version, optionalString(c, "updated-by"))
			final, err := tui.Run(tui.New(d.Canvas, d.Title, d.Version, saver))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if final.Dirty() {
				logging.FromContext(c.Context).Warn("quit with unsaved changes", "id", d.ID)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Bind address (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Usage: "Port (default from config, 8420)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				cfg.Web.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				cfg.Web.Port = c.Int("port")
			}
			srv, err := web.NewServer(db, cfg, Version, logging.FromContext(c.Context))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(c.Context, srv)
		},
	}
}

// mcpCmd creates the mcp command, the explicit form of the default mode.
func mcpCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(c.Context, db, cfg, Version)
		},
	}
}

// Helper functions

// readCanvas reads source text from --file or stdin and lays it out
// according to --from. The returned title is the blocks response title, if
// any.
func readCanvas(c *cli.Context, contentType draft.ContentType) (*canvas.Document, string, error) {
	text, err := readSource(c)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = draft.ContentArticle
	}
	input := ops.ConvertInput{
		ContentType: contentType,
		Hashtags:    parseList(c.String("hashtags")),
		Text:        text,
	}

	switch strings.ToLower(c.String("from")) {
	case "markdown", "md":
		input.From = ops.ConvertFromMarkdown
	case "json":
		input.From = ops.ConvertFromSource
		input.Mode = convert.SourceJSON
	case "blocks":
		resp, err := convert.ParseContentResponse([]byte(text))
		if err != nil {
			return nil, "", errors.NewParse(err)
		}
		input.From = ops.ConvertFromBlocks
		input.Blocks = resp.Blocks
		input.Title = resp.Title
		input.Hashtags = append(resp.Hashtags, input.Hashtags...)
	default:
		return nil, "", errors.NewInvalidRequest("from must be one of: markdown, json, blocks")
	}

	out, err := ops.Convert(input)
	if err != nil {
		return nil, "", err
	}
	return out.Canvas, input.Title, nil
}

// readSource returns the --file contents, or stdin when no file is given.
func readSource(c *cli.Context) (string, error) {
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", errors.NewFileNotFound(path)
			}
			return "", errors.NewInternal(err)
		}
		defer f.Close()
		return readLimited(f, maxInputBytes)
	}
	if !stdinHasData(c) {
		return "", errors.NewInvalidRequest("source must be piped via stdin or given with --file")
	}
	return readLimited(c.App.Reader, maxInputBytes)
}

// readLimited reads all of r, failing if it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// stdinHasData reports whether the app's reader is something other than an
// interactive terminal.
func stdinHasData(c *cli.Context) bool {
	f, ok := c.App.Reader.(*os.File)
	if !ok {
		return c.App.Reader != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// outputJSON writes v to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats err as "[CODE] message" with exit status 1.
func outputError(err error) error {
	var eErr *errors.EaselError
	if stderrors.As(err, &eErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", eErr.Code, eErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// optionalString returns a pointer to a flag's value if it was set.
func optionalString(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	s := c.String(name)
	return &s
}

// parseList splits a comma-separated string, dropping blanks.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
