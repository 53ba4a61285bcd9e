package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/easel/internal/config"
	"github.com/hpungsan/easel/internal/db"
	"github.com/hpungsan/easel/internal/ops"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// runCLI runs the app with args, feeding input on stdin when non-empty,
// and returns what it wrote to stdout.
func runCLI(t *testing.T, database *sql.DB, input string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(database, config.DefaultConfig())
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	if input != "" {
		app.Reader = strings.NewReader(input)
	}
	err := app.Run(append([]string{"easel"}, args...))
	return out.String(), err
}

const launchMarkdown = "# Launch\n\nBody text"

func createLaunch(t *testing.T, database *sql.DB) ops.CreateOutput {
	t.Helper()
	out, err := runCLI(t, database, launchMarkdown, "create", "--project", "Blog", "--title", "Launch post")
	require.NoError(t, err)
	var created ops.CreateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	return created
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single", "go", []string{"go"}},
		{"multiple", "go,canvas,drafts", []string{"go", "canvas", "drafts"}},
		{"spaces", " go , canvas ", []string{"go", "canvas"}},
		{"blank entries", "go,,  ,canvas", []string{"go", "canvas"}},
		{"only commas", ",,", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, parseList(tt.input))
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"7d", 7, false},
		{"0d", 0, false},
		{"30d", 30, false},
		{"7", 0, true},
		{"7h", 0, true},
		{"xd", 0, true},
		{"-1d", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"easel"}, false},
		{[]string{"easel", "create"}, true},
		{[]string{"easel", "serve"}, true},
		{[]string{"easel", "edit"}, true},
		{[]string{"easel", "--help"}, true},
		{[]string{"easel", "--verbose", "list"}, true},
		{[]string{"easel", "unknown"}, false},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			require.Equal(t, tt.want, isCLIMode(tt.args))
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	require.True(t, isHelpOrVersion([]string{"easel", "--help"}))
	require.True(t, isHelpOrVersion([]string{"easel", "-v"}))
	require.True(t, isHelpOrVersion([]string{"easel", "help"}))
	require.False(t, isHelpOrVersion([]string{"easel", "list"}))
	require.False(t, isHelpOrVersion([]string{"easel"}))
}

func TestReadLimited(t *testing.T) {
	got, err := readLimited(strings.NewReader("  hello \n"), 16)
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	_, err = readLimited(strings.NewReader("0123456789"), 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "input exceeds 4 bytes")
}

func TestCLICreateFetch(t *testing.T) {
	database := setupTestDB(t)
	created := createLaunch(t, database)
	require.NotEmpty(t, created.ID)
	require.Equal(t, 1, created.Version)

	out, err := runCLI(t, database, "", "fetch", created.ID)
	require.NoError(t, err)
	var fetched ops.DraftOutput
	require.NoError(t, json.Unmarshal([]byte(out), &fetched))
	require.Equal(t, "Launch post", fetched.Title)
	require.Equal(t, "Blog", fetched.Project)
	require.Equal(t, "## Launch\n\nBody text", fetched.ExportText)
	require.NotNil(t, fetched.Canvas)
	require.Len(t, fetched.Canvas.Nodes, 2)

	out, err = runCLI(t, database, "", "fetch", "--no-canvas", created.ID)
	require.NoError(t, err)
	require.NotContains(t, out, `"canvas"`)
}

func TestCLICreateRequiresInput(t *testing.T) {
	database := setupTestDB(t)
	_, err := runCLI(t, database, "", "create", "--title", "Empty", "--file", "/nonexistent/draft.md")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[FILE_NOT_FOUND]")
}

func TestCLICreateFromBlocks(t *testing.T) {
	database := setupTestDB(t)
	blocks := `{"title":"Big news","blocks":[{"type":"paragraph","text":"We shipped."}],"hashtags":["go"]}`
	out, err := runCLI(t, database, blocks, "create", "--type", "social", "--from", "blocks")
	require.NoError(t, err)
	var created ops.CreateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	out, err = runCLI(t, database, "", "export", "--format", "text", created.ID)
	require.NoError(t, err)
	require.Equal(t, "Big news\n\nWe shipped.\n\n#go\n", out)
}

func TestCLIUpdateAndHistory(t *testing.T) {
	database := setupTestDB(t)
	created := createLaunch(t, database)

	out, err := runCLI(t, database, "", "update", "--expected-version", "1", "--title", "Renamed", created.ID)
	require.NoError(t, err)
	var updated ops.UpdateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	require.Equal(t, 2, updated.Version)
	require.Equal(t, ops.UpdateInPlace, updated.Mode)

	out, err = runCLI(t, database, "# Second\n\nMore", "update", "--expected-version", "2", "--new-version", "--from", "markdown", updated.ID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &updated))
	require.Equal(t, 3, updated.Version)
	require.Equal(t, ops.UpdateNewVersion, updated.Mode)

	out, err = runCLI(t, database, "", "history", updated.ID)
	require.NoError(t, err)
	var history ops.HistoryOutput
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Equal(t, 3, history.HeadVersion)
	require.Len(t, history.Items, 2)
}

func TestCLIUpdateConflict(t *testing.T) {
	database := setupTestDB(t)
	created := createLaunch(t, database)

	_, err := runCLI(t, database, "", "update", "--expected-version", "5", "--title", "Stale", created.ID)
	require.Error(t, err)
	require.Contains(t, err.Error(), "[VERSION_CONFLICT]")
}

func TestCLIListDeletePurge(t *testing.T) {
	database := setupTestDB(t)
	created := createLaunch(t, database)

	out, err := runCLI(t, database, "", "list", "--project", "blog")
	require.NoError(t, err)
	var list ops.ListOutput
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Items, 1)

	_, err = runCLI(t, database, "", "delete", created.ID)
	require.NoError(t, err)

	out, err = runCLI(t, database, "", "list", "--project", "blog")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Empty(t, list.Items)

	_, err = runCLI(t, database, "", "purge", "--older-than", "soon")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[INVALID_REQUEST]")

	out, err = runCLI(t, database, "", "purge")
	require.NoError(t, err)
	var purged ops.PurgeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &purged))
	require.Equal(t, 1, purged.Purged)
}

func TestCLIConvert(t *testing.T) {
	out, err := runCLI(t, nil, launchMarkdown, "convert", "--export", "html")
	require.NoError(t, err)
	require.Equal(t, "<h2>Launch</h2>\n<p>Body text</p>\n", out)

	out, err = runCLI(t, nil, launchMarkdown, "convert")
	require.NoError(t, err)
	var converted ops.ConvertOutput
	require.NoError(t, json.Unmarshal([]byte(out), &converted))
	require.Equal(t, 2, converted.Nodes)
	require.Equal(t, 1, converted.Edges)

	_, err = runCLI(t, nil, launchMarkdown, "convert", "--from", "yaml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[INVALID_REQUEST]")

	_, err = runCLI(t, nil, "{not json", "convert", "--from", "json")
	require.Error(t, err)
	require.Contains(t, err.Error(), "[PARSE_ERROR]")
}

func TestCLIFetchNotFound(t *testing.T) {
	database := setupTestDB(t)
	_, err := runCLI(t, database, "", "fetch", "missing")
	require.Error(t, err)
	require.Equal(t, "[NOT_FOUND] draft not found: missing", err.Error())
}
