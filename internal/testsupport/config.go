package testsupport

import (
	"path/filepath"
	"testing"

	"datapacks/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The project path points at <base>/project, which callers populate with
// NewProject.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ProjectPath = filepath.Join(base, "project")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "batches")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithManifest restricts the build to the given manifest.
func WithManifest(manifest map[string]any) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.Manifest = manifest
	}
}

// WithHeadersOnly enables the headers-only pre-pass.
func WithHeadersOnly() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.HeadersOnly = true
	}
}

// WithCeilings overrides the batch size and count limits.
func WithCeilings(maxFileSize, maxDeployCount int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Build.MaxFileSize = maxFileSize
		b.cfg.Build.MaxDeployCount = maxDeployCount
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
