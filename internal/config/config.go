package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config file names, in lookup order.
var configFiles = []string{"config.toml", "config.json"}

// Config holds application configuration.
type Config struct {
	// DraftMaxBytes is the maximum size of a serialized canvas document
	DraftMaxBytes int `json:"draft_max_bytes" toml:"draft_max_bytes"`

	// DefaultExportFormat is used when export is called without a format:
	// "text", "markdown" or "html".
	DefaultExportFormat string `json:"default_export_format,omitempty" toml:"default_export_format"`

	// AllowedPaths is an allowlist of directories for import/export/backup.
	// Paths outside ~/.easel/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" toml:"allowed_paths"`

	// AllowUnsafePaths disables directory restrictions for file operations.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" toml:"allow_unsafe_paths"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" toml:"db_max_open_conns"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" toml:"db_max_idle_conns"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" toml:"disabled_tools"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "draft", "canvas". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty" toml:"disabled_types"`

	// Web configures the HTTP server started by `easel serve`.
	Web Web `json:"web" toml:"web"`
}

// Web holds HTTP server settings.
type Web struct {
	Bind string `json:"bind,omitempty" toml:"bind"`
	Port int    `json:"port,omitempty" toml:"port"`

	// AllowedOrigins lists origins permitted by CORS on /api. Empty disables CORS.
	AllowedOrigins []string `json:"allowed_origins,omitempty" toml:"allowed_origins"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DraftMaxBytes:       1 << 20,
		DefaultExportFormat: "markdown",
		Web: Web{
			Bind: "127.0.0.1",
			Port: 8420,
		},
	}
}

// Load loads configuration from baseDir/config.toml, falling back to
// baseDir/config.json. Returns default config if neither exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.easel.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(findConfig(baseDir))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.easel) and repo (.easel) directories.
// Repo config is found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(findConfig(globalDir))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .easel/config.toml or .easel/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		if path := findConfig(filepath.Join(dir, ".easel")); path != "" {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// findConfig returns the first config file present in dir, or "".
func findConfig(dir string) string {
	for _, name := range configFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.DraftMaxBytes = orInt(overlay.DraftMaxBytes, base.DraftMaxBytes)
	result.DefaultExportFormat = orString(overlay.DefaultExportFormat, base.DefaultExportFormat)
	result.DBMaxOpenConns = orInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = orInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)
	result.Web.Bind = orString(overlay.Web.Bind, base.Web.Bind)
	result.Web.Port = orInt(overlay.Web.Port, base.Web.Port)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)
	result.Web.AllowedOrigins = mergeStringSlice(base.Web.AllowedOrigins, overlay.Web.AllowedOrigins)

	return result
}

func orInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func orString(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
