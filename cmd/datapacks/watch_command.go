package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"datapacks/internal/logging"
	"datapacks/internal/store"
	"datapacks/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild changed DataPacks whenever the project tree changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.projectConfig()
			if err != nil {
				return err
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
				runner, err := newBuildRunner(cfg, logger, st)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				report := func(result runResult, err error) {
					fmt.Fprint(out, renderSummary(result.Summary, colorize))
					if err != nil {
						logger.Error("build failed", logging.Error(err))
					}
				}

				report(runner.run(runCtx, runOptions{}))

				w, err := watch.New(cfg.ImportPath(), logger, watch.WithDebounce(debounce))
				if err != nil {
					return err
				}
				defer w.Close()

				return w.Run(runCtx, func(ctx context.Context, change watch.Change) error {
					if err := requeue(ctx, st, cfg.ImportPath(), change); err != nil {
						return err
					}
					report(runner.run(ctx, runOptions{ResetFileData: true}))
					return nil
				})
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change triggers a build")
	return cmd
}

// requeue returns the DataPacks touched by change to Ready so the next run
// rebuilds them. New records are picked up by the rescan.
func requeue(ctx context.Context, st *store.Store, project string, change watch.Change) error {
	keys, all := change.Keys()
	if all {
		_, err := st.RequeueAll(ctx, project)
		return err
	}
	_, err := st.Requeue(ctx, project, keys)
	return err
}
