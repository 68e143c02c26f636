package services

import "context"

type contextKey string

const (
	runIDKey       contextKey = "run_id"
	dataPackKeyKey contextKey = "datapack_key"
	phaseKey       contextKey = "phase"
)

// WithRunID annotates context with the build run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the build run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDataPackKey annotates context with the DataPack being processed.
func WithDataPackKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, dataPackKeyKey, key)
}

// DataPackKeyFromContext returns the DataPack key if present.
func DataPackKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(dataPackKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPhase annotates context with the build phase (discovery, headers, build, compile).
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the build phase if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(phaseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
