package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"regexp"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

var importDirective = regexp.MustCompile(`(?m)^[ \t]*@import[ \t]+([^;]+);[ \t]*$`)

// SassOption configures the sass compiler.
type SassOption func(*Sass)

// WithSassBinary overrides the sass executable.
func WithSassBinary(binary string) SassOption {
	return func(s *Sass) {
		if strings.TrimSpace(binary) != "" {
			s.binary = binary
		}
	}
}

// WithSassTimeout bounds a single compiler run.
func WithSassTimeout(timeout time.Duration) SassOption {
	return func(s *Sass) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// Sass compiles SCSS through the sass command-line compiler.
type Sass struct {
	binary  string
	timeout time.Duration
}

// NewSass constructs a sass compiler using defaults.
func NewSass(opts ...SassOption) *Sass {
	s := &Sass{binary: "sass", timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile implements Compiler.
func (s *Sass) Compile(ctx context.Context, _ string, source string, opts Options) (string, error) {
	flattened, err := InlineImports(source, opts.IncludePaths)
	if err != nil {
		return "", err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := []string{"--stdin", "--no-source-map", "--style=expanded"}
	for _, dir := range opts.IncludePaths {
		args = append(args, "--load-path="+dir)
	}
	cmd := commandContext(ctx, s.binary, args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(flattened)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("sass: %w", err)
		}
		return "", fmt.Errorf("sass: %w: %s", err, msg)
	}
	return stdout.String(), nil
}

// InlineImports replaces @import directives naming local partials with the
// content found through FindInclude. Each name is tried as "<name>.scss"
// then "_<name>.scss". Imports that resolve to CSS files or URLs are left for
// the compiler.
func InlineImports(source string, includePaths []string) (string, error) {
	return inline(source, includePaths, map[string]bool{})
}

func inline(source string, includePaths []string, active map[string]bool) (string, error) {
	var firstErr error
	out := importDirective.ReplaceAllStringFunc(source, func(directive string) string {
		if firstErr != nil {
			return directive
		}
		names := parseImportNames(importDirective.FindStringSubmatch(directive)[1])
		if len(names) == 0 {
			return directive
		}
		var parts []string
		for _, name := range names {
			if skipImport(name) {
				parts = append(parts, fmt.Sprintf("@import %q;", name))
				continue
			}
			resolved, content, err := findPartial(name, includePaths)
			if err != nil {
				firstErr = err
				return directive
			}
			if active[resolved] {
				firstErr = fmt.Errorf("import cycle through %s", resolved)
				return directive
			}
			active[resolved] = true
			expanded, err := inline(content, includePaths, active)
			delete(active, resolved)
			if err != nil {
				firstErr = err
				return directive
			}
			parts = append(parts, expanded)
		}
		return strings.Join(parts, "\n")
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func parseImportNames(list string) []string {
	var names []string
	for _, raw := range strings.Split(list, ",") {
		name := strings.Trim(strings.TrimSpace(raw), `"'`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func skipImport(name string) bool {
	return strings.HasSuffix(name, ".css") ||
		strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "url(")
}

func findPartial(name string, includePaths []string) (string, string, error) {
	base := strings.TrimSuffix(name, ".scss")
	dir, file := path.Split(base)
	candidates := []string{base + ".scss", dir + "_" + file + ".scss"}
	var lastErr error
	for _, candidate := range candidates {
		resolved, content, err := FindInclude(candidate, includePaths)
		if err == nil {
			return resolved, content, nil
		}
		lastErr = err
	}
	if errors.Is(lastErr, ErrIncludeNotFound) {
		return "", "", fmt.Errorf("%w: %s", ErrIncludeNotFound, name)
	}
	return "", "", lastErr
}
