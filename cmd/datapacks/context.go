package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"datapacks/internal/compile"
	"datapacks/internal/config"
	"datapacks/internal/logging"
	"datapacks/internal/schema"
	"datapacks/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// projectConfig returns the config after checking that a project is set.
func (c *commandContext) projectConfig() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireProject(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger builds the run logger. Terminal output goes to the command's
// stderr so it never mixes with tables or JSON on stdout.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.NewFromConfig(cfg, cmd.ErrOrStderr())
}

func (c *commandContext) withStore(cfg *config.Config, fn func(*store.Store) error) error {
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open status database: %w", err)
	}
	defer st.Close()
	return fn(st)
}

// acquireLock takes the run lock so two builds never write the same state.
func acquireLock(cfg *config.Config) (*flock.Flock, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another datapacks build is already running for this state directory")
	}
	return lock, nil
}

func loadDefinitions(cfg *config.Config) (*schema.Definitions, error) {
	var (
		defs *schema.Definitions
		err  error
	)
	if path := cfg.Paths.DefinitionFile; path != "" {
		defs, err = schema.Load(path)
	} else {
		defs, err = schema.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	if path := cfg.Paths.DefinitionOverride; path != "" {
		defs, err = defs.LoadOverride(path)
		if err != nil {
			return nil, fmt.Errorf("load definition override: %w", err)
		}
	}
	return defs, nil
}

func newCompiler(cfg *config.Config) compile.Compiler {
	sass := compile.NewSass(
		compile.WithSassBinary(cfg.Compiler.SassBinary),
		compile.WithSassTimeout(time.Duration(cfg.Compiler.TimeoutSeconds)*time.Second),
	)
	registry := compile.NewRegistry()
	registry.Register("scss", sass)
	registry.Register("sass", sass)
	return registry
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
