package preflight

import (
	"context"
	"strings"

	"datapacks/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Project directory", cfg.ImportPath(), ReadOnly))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir, ReadWrite))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir, ReadWrite))
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, ReadWrite))
	}

	if cfg.Paths.DefinitionFile != "" {
		results = append(results, CheckReadableFile("Definition file", cfg.Paths.DefinitionFile))
	}
	if cfg.Paths.DefinitionOverride != "" {
		results = append(results, CheckReadableFile("Definition override", cfg.Paths.DefinitionOverride))
	}

	// Compiled fields are only inlined as source when compiling is off.
	results = append(results, CheckBinary(ctx, "Sass compiler", cfg.Compiler.SassBinary, !cfg.Build.CompileOnBuild))

	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
