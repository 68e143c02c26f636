package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"datapacks/internal/logging"
	"datapacks/internal/retention"
	"datapacks/internal/store"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		olderThan  time.Duration
		keepLatest int
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove batch output and job logs of old builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
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
			logger = logging.NewComponentLogger(logger, "retention")

			return ctx.withStore(cfg, func(st *store.Store) error {
				keep := make(map[string]struct{})
				if keepLatest > 0 {
					runs, err := st.Runs(cmd.Context(), cfg.ImportPath(), keepLatest)
					if err != nil {
						return err
					}
					for _, run := range runs {
						keep[run.ID] = struct{}{}
					}
				}

				result := retention.Prune(cmd.Context(), retention.Options{
					OutputDir: cfg.Paths.OutputDir,
					JobLogDir: cfg.JobLogDir(),
					MaxAge:    olderThan,
					Keep:      keep,
					DryRun:    dryRun,
				}, logger)

				out := cmd.OutOrStdout()
				verb := "Removed"
				if dryRun {
					verb = "Would remove"
				}
				for _, id := range result.Removed {
					fmt.Fprintf(out, "%s run %s\n", verb, id)
				}
				if !dryRun && len(result.Removed) > 0 {
					if _, err := st.DeleteRuns(cmd.Context(), result.Removed); err != nil {
						return err
					}
				}
				if len(result.Removed) == 0 {
					fmt.Fprintln(out, "No runs to prune")
				} else {
					fmt.Fprintf(out, "%s %s of batch output\n", verb, humanize.Bytes(uint64(result.Freed)))
				}
				for _, failure := range result.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "prune %s: %v\n", failure.Path, failure.Error)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d path(s) could not be removed", len(result.Errors))
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Remove runs older than this age")
	cmd.Flags().IntVar(&keepLatest, "keep", 1, "Always keep this many of the most recent runs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List runs without removing them")
	return cmd
}
