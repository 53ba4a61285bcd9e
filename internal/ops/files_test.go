package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/convert"
	"github.com/hpungsan/easel/internal/draft"
	"github.com/hpungsan/easel/internal/errors"
)

func TestExport_Content(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	created := mustCreate(t, database, "p", "Launch")

	out, err := Export(ctx, database, config.DefaultConfig(), ExportInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, convert.FormatMarkdown, out.Format)
	require.Equal(t, "## Launch\n\nBody text", out.Content)
	require.Equal(t, len(out.Content), out.Bytes)
	require.Empty(t, out.Path)

	html, err := Export(ctx, database, config.DefaultConfig(), ExportInput{ID: created.ID, Format: "HTML"})
	require.NoError(t, err)
	require.Equal(t, "<h2>Launch</h2>\n<p>Body text</p>", html.Content)

	cfg := config.DefaultConfig()
	cfg.DefaultExportFormat = "text"
	text, err := Export(ctx, database, cfg, ExportInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, "Launch\n\nBody text", text.Content)

	_, err = Export(ctx, database, cfg, ExportInput{ID: created.ID, Format: "pdf"})
	requireCode(t, err, errors.ErrInvalidRequest)
	_, err = Export(ctx, database, cfg, ExportInput{ID: "missing"})
	requireCode(t, err, errors.ErrNotFound)
}

func TestExport_ToFile(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	cfg := unsafeConfig()
	created := mustCreate(t, database, "p", "Launch")
	dir := t.TempDir()

	path := filepath.Join(dir, "launch.html")
	out, err := Export(ctx, database, cfg, ExportInput{ID: created.ID, Format: "html", Path: path})
	require.NoError(t, err)
	require.Equal(t, path, out.Path)
	require.Empty(t, out.Content)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<h2>Launch</h2>\n<p>Body text</p>", string(data))

	// Overwrite keeps a single file and no temp leftovers
	_, err = Export(ctx, database, cfg, ExportInput{ID: created.ID, Format: "html", Path: path})
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Extension must match the format
	_, err = Export(ctx, database, cfg, ExportInput{ID: created.ID, Format: "markdown", Path: filepath.Join(dir, "launch.txt")})
	requireCode(t, err, errors.ErrInvalidRequest)
}

func TestImport_Markdown(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	cfg := unsafeConfig()
	dir := t.TempDir()

	path := writeTempFile(t, dir, "post.md", "# Big News\n\nWe shipped.\n\n## Details\n\nMore here.")
	out, err := Import(ctx, database, cfg, ImportInput{Path: path, Project: "blog"})
	require.NoError(t, err)
	require.Equal(t, ImportMarkdown, out.Source)
	require.Equal(t, "Big News", out.Title)
	require.Equal(t, 4, out.Nodes)
	require.Equal(t, 1, out.Version)

	got, err := Fetch(ctx, database, FetchInput{ID: out.ID, IncludeCanvas: true})
	require.NoError(t, err)
	require.Equal(t, draft.ContentArticle, got.ContentType)
	require.Equal(t, "blog", got.Project)
	require.Equal(t, "## Big News\n\nWe shipped.\n\n## Details\n\nMore here.", got.ExportText)

	plain := writeTempFile(t, dir, "notes.md", "just text")
	out, err = Import(ctx, database, cfg, ImportInput{Path: plain})
	require.NoError(t, err)
	require.Equal(t, "notes", out.Title)

	out, err = Import(ctx, database, cfg, ImportInput{Path: plain, Title: "  Given  "})
	require.NoError(t, err)
	require.Equal(t, "Given", out.Title)
}

func TestImport_SocialMarkdown(t *testing.T) {
	database := setupTestDB(t)
	cfg := unsafeConfig()
	path := writeTempFile(t, t.TempDir(), "teaser.md", "Coming soon")

	out, err := Import(context.Background(), database, cfg, ImportInput{
		Path:        path,
		ContentType: draft.ContentSocial,
		Hashtags:    []string{"launch", "#beta"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Nodes)

	got, err := Fetch(context.Background(), database, FetchInput{ID: out.ID})
	require.NoError(t, err)
	require.Equal(t, draft.ContentSocial, got.ContentType)
	require.Equal(t, "Coming soon\n\n#launch #beta", got.ExportText)
}

func TestImport_JSON(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	cfg := unsafeConfig()
	dir := t.TempDir()

	resp := writeTempFile(t, dir, "resp.json", `{"title":"From API","blocks":[{"type":"paragraph","text":"Hello"},{"type":"cta","text":"Sign up"}],"extra":true}`)
	out, err := Import(ctx, database, cfg, ImportInput{Path: resp})
	require.NoError(t, err)
	require.Equal(t, ImportContentResponse, out.Source)
	require.Equal(t, "From API", out.Title)
	require.Equal(t, 3, out.Nodes)

	encoded, err := convert.EncodeDocument(convert.SocialToCanvas("Hi", []string{"x"}))
	require.NoError(t, err)
	docPath := writeTempFile(t, dir, "doc.json", encoded)
	out, err = Import(ctx, database, cfg, ImportInput{Path: docPath})
	require.NoError(t, err)
	require.Equal(t, ImportDocument, out.Source)
	require.Equal(t, "doc", out.Title)

	got, err := Fetch(ctx, database, FetchInput{ID: out.ID})
	require.NoError(t, err)
	require.Equal(t, draft.ContentSocial, got.ContentType)

	unknown := writeTempFile(t, dir, "other.json", `{"foo":1}`)
	_, err = Import(ctx, database, cfg, ImportInput{Path: unknown})
	requireCode(t, err, errors.ErrParse)

	broken := writeTempFile(t, dir, "broken.json", `{"nodes":[{"id":"a","type":"video"}]}`)
	_, err = Import(ctx, database, cfg, ImportInput{Path: broken})
	requireCode(t, err, errors.ErrParse)

	_, err = Import(ctx, database, cfg, ImportInput{Path: filepath.Join(dir, "missing.md")})
	requireCode(t, err, errors.ErrFileNotFound)
	_, err = Import(ctx, database, cfg, ImportInput{Path: resp, ContentType: "video"})
	requireCode(t, err, errors.ErrInvalidRequest)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReadBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestBackup(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	cfg := unsafeConfig()

	a := mustCreate(t, database, "p", "A")
	b := mustCreate(t, database, "p", "B")
	mustCreate(t, database, "q", "Q")
	_, err := Delete(ctx, database, DeleteInput{ID: b.ID})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "p.jsonl")
	out, err := Backup(ctx, database, cfg, BackupInput{Path: path, Project: stringPtr("P")})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	require.Equal(t, path, out.Path)

	lines := readLines(t, path)
	require.Len(t, lines, 2)

	var header BackupHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	require.True(t, header.EaselBackup)
	require.Equal(t, draft.BackupSchemaVersion, header.SchemaVersion)
	require.Equal(t, out.ExportedAt, header.ExportedAt)

	var record draft.BackupRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))
	require.Equal(t, a.ID, record.ID)
	require.NotNil(t, record.Canvas)

	all, err := Backup(ctx, database, cfg, BackupInput{Path: path, IncludeDeleted: true})
	require.NoError(t, err)
	require.Equal(t, 3, all.Count)
}

func TestBackup_DefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	database := setupTestDB(t)
	mustCreate(t, database, "p", "A")

	out, err := Backup(context.Background(), database, config.DefaultConfig(), BackupInput{Project: stringPtr("../p")})
	require.NoError(t, err)

	dir, err := DefaultExportsDir()
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(out.Path))
	require.True(t, strings.HasPrefix(filepath.Base(out.Path), "p-"))
	require.True(t, strings.HasSuffix(out.Path, ".jsonl"))
}

func TestBackup_Cancelled(t *testing.T) {
	database := setupTestDB(t)
	mustCreate(t, database, "p", "A")
	path := filepath.Join(t.TempDir(), "all.jsonl")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Backup(ctx, database, unsafeConfig(), BackupInput{Path: path})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "failed backup must not leave a file")
}

func backupFixture(t *testing.T) (string, *CreateOutput) {
	t.Helper()
	database := setupTestDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()

	created := mustCreate(t, database, "p", "v1")
	_, err := Update(ctx, database, cfg, UpdateInput{ID: created.ID, ExpectedVersion: 1, Title: stringPtr("v2"), SaveAsNewVersion: true})
	require.NoError(t, err)
	mustCreate(t, database, "q", "other")

	path := filepath.Join(t.TempDir(), "all.jsonl")
	out, err := Backup(ctx, database, unsafeConfig(), BackupInput{Path: path, IncludeDeleted: true})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count)
	return path, created
}

func TestRestore_IntoEmptyDatabase(t *testing.T) {
	path, created := backupFixture(t)
	database := setupTestDB(t)
	ctx := context.Background()

	out, err := Restore(ctx, database, unsafeConfig(), RestoreInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 3, out.Restored)
	require.Empty(t, out.Errors)

	hist, err := History(ctx, database, HistoryInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, 2, hist.HeadVersion)
	require.Len(t, hist.Items, 2)

	got, err := Fetch(ctx, database, FetchInput{ID: created.ID, IncludeCanvas: true})
	require.NoError(t, err)
	require.Equal(t, "v1", got.Title)
	require.Len(t, got.Canvas.Nodes, 2)
}

func TestRestore_Modes(t *testing.T) {
	path, _ := backupFixture(t)
	database := setupTestDB(t)
	ctx := context.Background()
	cfg := unsafeConfig()

	_, err := Restore(ctx, database, cfg, RestoreInput{Path: path})
	require.NoError(t, err)

	// error mode is all-or-nothing
	out, err := Restore(ctx, database, cfg, RestoreInput{Path: path, Mode: RestoreModeError})
	require.NoError(t, err)
	require.Zero(t, out.Restored)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "COLLISION", out.Errors[0].Code)
	require.Equal(t, 2, out.Errors[0].Line)

	out, err = Restore(ctx, database, cfg, RestoreInput{Path: path, Mode: RestoreModeSkip})
	require.NoError(t, err)
	require.Zero(t, out.Restored)
	require.Equal(t, 3, out.Skipped)

	out, err = Restore(ctx, database, cfg, RestoreInput{Path: path, Mode: RestoreModeReplace})
	require.NoError(t, err)
	require.Equal(t, 3, out.Restored)
	require.Empty(t, out.Errors)

	_, err = Restore(ctx, database, cfg, RestoreInput{Path: path, Mode: "merge"})
	requireCode(t, err, errors.ErrInvalidRequest)
}

func TestRestore_ReplaceVersionCollision(t *testing.T) {
	path, _ := backupFixture(t)
	ctx := context.Background()
	cfg := unsafeConfig()

	lines := readLines(t, path)
	var record draft.BackupRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &record))

	// Same lineage and version under a new id
	record.ID = "01ZZZZZZZZZZZZZZZZZZZZZZZZ"
	data, err := json.Marshal(record)
	require.NoError(t, err)
	dir := t.TempDir()
	clash := writeTempFile(t, dir, "clash.jsonl", lines[0]+"\n"+string(data)+"\n")

	database := setupTestDB(t)
	_, err = Restore(ctx, database, cfg, RestoreInput{Path: path})
	require.NoError(t, err)

	out, err := Restore(ctx, database, cfg, RestoreInput{Path: clash, Mode: RestoreModeReplace})
	require.NoError(t, err)
	require.Zero(t, out.Restored)
	require.Equal(t, 1, out.Skipped)
	require.Len(t, out.Errors, 1)
	require.Equal(t, "VERSION_COLLISION", out.Errors[0].Code)
}

func TestRestore_InvalidLines(t *testing.T) {
	path, _ := backupFixture(t)
	ctx := context.Background()
	cfg := unsafeConfig()
	lines := readLines(t, path)

	content := strings.Join([]string{
		lines[0],
		lines[1],
		"",
		"{not json",
		`{"id":"x","project_raw":"p","lineage_id":"l","content_type":"video","version":1,"canvas":{}}`,
		`{"id":"y","project_raw":"p","lineage_id":"l","content_type":"article","version":1}`,
	}, "\n")
	bad := writeTempFile(t, t.TempDir(), "bad.jsonl", content)

	database := setupTestDB(t)
	out, err := Restore(ctx, database, cfg, RestoreInput{Path: bad})
	require.NoError(t, err)
	require.Zero(t, out.Restored)
	require.Len(t, out.Errors, 3)
	require.Equal(t, "PARSE_ERROR", out.Errors[0].Code)
	require.Equal(t, 4, out.Errors[0].Line)
	require.Equal(t, "INVALID_RECORD", out.Errors[1].Code)
	require.Equal(t, "y", out.Errors[2].ID)

	listed, err := List(ctx, database, ListInput{Project: "p"})
	require.NoError(t, err)
	require.Zero(t, listed.Pagination.Total, "error mode must not restore anything when lines are invalid")

	out, err = Restore(ctx, database, cfg, RestoreInput{Path: bad, Mode: RestoreModeSkip})
	require.NoError(t, err)
	require.Equal(t, 1, out.Restored)
	require.Equal(t, 3, out.Skipped)
}

func TestRestore_PathChecks(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	_, err := Restore(ctx, database, unsafeConfig(), RestoreInput{Path: filepath.Join(t.TempDir(), "missing.jsonl")})
	requireCode(t, err, errors.ErrFileNotFound)

	_, err = Restore(ctx, database, unsafeConfig(), RestoreInput{Path: "/tmp/backup.json"})
	requireCode(t, err, errors.ErrInvalidRequest)
}
