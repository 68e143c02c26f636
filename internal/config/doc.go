// Package config loads, normalizes, and validates datapacks configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DATAPACKS_PROJECT_PATH
// environment fallback. The Config type centralizes the project location,
// batch ceilings, scheduling modes, manifest filter, compiler and logging
// settings so the CLI resolves everything in one pass.
package config
