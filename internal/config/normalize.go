package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBuild()
	c.normalizeCompiler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectPath) == "" {
		if value, ok := os.LookupEnv(projectPathEnv); ok {
			c.Paths.ProjectPath = strings.TrimSpace(value)
		}
	}
	if c.Paths.ProjectPath, err = expandPath(c.Paths.ProjectPath); err != nil {
		return fmt.Errorf("paths.project_path: %w", err)
	}
	c.Paths.ExpansionPath = filepath.Clean(strings.TrimSpace(c.Paths.ExpansionPath))
	if c.Paths.ExpansionPath == "." {
		c.Paths.ExpansionPath = ""
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.DefinitionFile, err = expandPath(strings.TrimSpace(c.Paths.DefinitionFile)); err != nil {
		return fmt.Errorf("paths.definition_file: %w", err)
	}
	if c.Paths.DefinitionOverride, err = expandPath(strings.TrimSpace(c.Paths.DefinitionOverride)); err != nil {
		return fmt.Errorf("paths.definition_override: %w", err)
	}
	return nil
}

func (c *Config) normalizeBuild() {
	if c.Build.MaxFileSize == 0 {
		c.Build.MaxFileSize = defaultMaxFileSize
	}
	if c.Build.MaxDeployCount == 0 {
		c.Build.MaxDeployCount = defaultMaxDeployCount
	}
	if c.Build.DefaultMaxParallel == 0 {
		c.Build.DefaultMaxParallel = defaultMaxParallel
	}
	if c.Build.DiscoveryWorkers == 0 {
		c.Build.DiscoveryWorkers = defaultDiscoveryWorkers
	}
	if len(c.Build.Manifest) == 0 {
		c.Build.Manifest = nil
	}
}

func (c *Config) normalizeCompiler() {
	c.Compiler.SassBinary = strings.TrimSpace(c.Compiler.SassBinary)
	if c.Compiler.SassBinary == "" {
		c.Compiler.SassBinary = defaultSassBinary
	}
	if c.Compiler.TimeoutSeconds == 0 {
		c.Compiler.TimeoutSeconds = defaultCompilerTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
}
