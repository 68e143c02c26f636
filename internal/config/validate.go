package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateCompiler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireProject checks that a project tree is configured and readable.
// Commands that only inspect state do not need one.
func (c *Config) RequireProject() error {
	if strings.TrimSpace(c.Paths.ProjectPath) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("paths.project_path is required. Set %s or edit %s (create with 'datapacks config init')", projectPathEnv, defaultPath)
	}
	info, err := os.Stat(c.ImportPath())
	if err != nil {
		return fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path %q is not a directory", c.ImportPath())
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.MaxFileSize < 0 {
		return errors.New("build.max_file_size must be positive")
	}
	if c.Build.MaxDeployCount < 0 {
		return errors.New("build.max_deploy_count must be positive")
	}
	if c.Build.DefaultMaxParallel < 1 {
		return errors.New("build.default_max_parallel must be at least 1")
	}
	if c.Build.DiscoveryWorkers < 1 {
		return errors.New("build.discovery_workers must be at least 1")
	}
	for dataPackType, filter := range c.Build.Manifest {
		if strings.TrimSpace(dataPackType) == "" {
			return errors.New("build.manifest contains an empty type name")
		}
		if filter == nil {
			return fmt.Errorf("build.manifest.%s must not be empty", dataPackType)
		}
	}
	return nil
}

func (c *Config) validateCompiler() error {
	if c.Compiler.TimeoutSeconds < 0 {
		return errors.New("compiler.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be positive")
	}
	if c.Logging.MaxSizeMB < 0 {
		return errors.New("logging.max_size_mb must be positive")
	}
	return nil
}
