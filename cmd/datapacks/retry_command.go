package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapacks/internal/store"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Move errored DataPacks back to Ready for the next build",
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
			return ctx.withStore(cfg, func(st *store.Store) error {
				moved, err := st.RetryErrored(cmd.Context(), cfg.ImportPath())
				if err != nil {
					return err
				}
				if moved == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No errored DataPacks to retry")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d errored DataPack(s) Ready\n", moved)
				return nil
			})
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every saved status so the next build starts over",
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
			return ctx.withStore(cfg, func(st *store.Store) error {
				cleared, err := st.Clear(cmd.Context(), cfg.ImportPath())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d saved status(es)\n", cleared)
				return nil
			})
		},
	}
}
