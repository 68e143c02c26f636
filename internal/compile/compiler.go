package compile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownLanguage is returned for jobs whose language has no compiler.
var ErrUnknownLanguage = errors.New("unknown language")

// Compiler turns source text into its compiled form.
type Compiler interface {
	Compile(ctx context.Context, language, source string, opts Options) (string, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(ctx context.Context, language, source string, opts Options) (string, error)

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, language, source string, opts Options) (string, error) {
	return f(ctx, language, source, opts)
}

// Registry dispatches jobs to the compiler registered for their language.
type Registry struct {
	mu        sync.RWMutex
	compilers map[string]Compiler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{compilers: make(map[string]Compiler)}
}

// Register binds a compiler to a language tag. Tags are case-insensitive.
func (r *Registry) Register(language string, c Compiler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compilers[normalizeLanguage(language)] = c
}

// Languages lists the registered language tags.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.compilers))
	for lang := range r.compilers {
		out = append(out, lang)
	}
	return out
}

// Compile implements Compiler.
func (r *Registry) Compile(ctx context.Context, language, source string, opts Options) (string, error) {
	r.mu.RLock()
	c, ok := r.compilers[normalizeLanguage(language)]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}
	return c.Compile(ctx, language, source, opts)
}

func normalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}
