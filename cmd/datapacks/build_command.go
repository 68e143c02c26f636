package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"datapacks/internal/preflight"
	"datapacks/internal/store"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var singleFile bool
	var fresh bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble deployment batches from the project tree",
		Long: "Scan the project, then write every eligible batch to the output directory in\n" +
			"dependency order. Statuses are saved after each batch so an interrupted build\n" +
			"resumes where it stopped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.projectConfig()
			if err != nil {
				return err
			}
			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				return fmt.Errorf("preflight failed: %s: %s (run `datapacks check` for details)", failed[0].Name, failed[0].Detail)
			}
			lock, err := acquireLock(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return ctx.withStore(cfg, func(st *store.Store) error {
				if fresh {
					if _, err := st.Clear(runCtx, cfg.ImportPath()); err != nil {
						return err
					}
				}
				runner, err := newBuildRunner(cfg, logger, st)
				if err != nil {
					return err
				}
				result, runErr := runner.run(runCtx, runOptions{SingleFile: singleFile})
				if jsonOutput {
					if err := writeJSON(cmd, result.Log); err != nil {
						return err
					}
					return runErr
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderSummary(result.Summary, shouldColorize(out)))
				if result.Path != "" {
					fmt.Fprintf(out, "Job log: %s\n", result.Path)
				}
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the job log as JSON")
	cmd.Flags().BoolVar(&singleFile, "single-file", false, "Put every record in its own batch, ignoring dependencies")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Forget saved statuses before building")
	return cmd
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
