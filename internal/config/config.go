package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains project and state locations.
type Paths struct {
	ProjectPath        string `toml:"project_path"`
	ExpansionPath      string `toml:"expansion_path"`
	StateDir           string `toml:"state_dir"`
	LogDir             string `toml:"log_dir"`
	OutputDir          string `toml:"output_dir"`
	DefinitionFile     string `toml:"definition_file"`
	DefinitionOverride string `toml:"definition_override"`
}

// Build contains batch assembly limits and mode flags.
type Build struct {
	MaxFileSize        int            `toml:"max_file_size"`
	MaxDeployCount     int            `toml:"max_deploy_count"`
	CompileOnBuild     bool           `toml:"compile_on_build"`
	SupportParallel    bool           `toml:"support_parallel"`
	DefaultMaxParallel int            `toml:"default_max_parallel"`
	HeadersOnly        bool           `toml:"headers_only"`
	SingleFile         bool           `toml:"single_file"`
	DiscoveryWorkers   int            `toml:"discovery_workers"`
	Manifest           map[string]any `toml:"manifest"`
}

// Compiler contains derived-asset compiler settings.
type Compiler struct {
	SassBinary     string `toml:"sass_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb"`
}

// Config encapsulates all configuration values.
//
// Configuration sections:
//   - Paths: project tree, expansion subdirectory, state, logs and batch output
//   - Build: size and count ceilings, scheduling modes and the manifest filter
//   - Compiler: the sass binary used when compiling on build
//   - Logging: log format, level and file rotation
type Config struct {
	Paths    Paths    `toml:"paths"`
	Build    Build    `toml:"build"`
	Compiler Compiler `toml:"compiler"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("datapacks.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, log and output directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ImportPath returns the directory scanned for DataPacks: the project path
// joined with the expansion path when one is set.
func (c *Config) ImportPath() string {
	if c.Paths.ExpansionPath == "" {
		return c.Paths.ProjectPath
	}
	return filepath.Join(c.Paths.ProjectPath, c.Paths.ExpansionPath)
}

// DatabasePath returns the status database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "datapacks.db")
}

// LockPath returns the run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "datapacks.lock")
}

// JobLogDir returns the directory holding per-run job logs.
func (c *Config) JobLogDir() string {
	return filepath.Join(c.Paths.StateDir, "jobs")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
