package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"datapacks/internal/logging"
	"datapacks/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		runID     string
		component string
		key       string
		level     string
		lines     int
		follow    bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show entries from the DataPacks log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Paths.LogDir) == "" {
				return errors.New("log_dir is not configured")
			}
			filter := logs.Filter{RunID: runID, Component: component, Key: key}
			if level != "" {
				if err := filter.MinLevel.UnmarshalText([]byte(level)); err != nil {
					return fmt.Errorf("invalid --level %q", level)
				}
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)

			entries, offset, err := logs.Read(path, filter, lines)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 && !follow {
				fmt.Fprintln(out, "No matching log entries")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(out, e.Format())
			}
			if !follow {
				return nil
			}

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(runCtx, path, offset, filter, logs.DefaultPollInterval, func(e logs.Entry) error {
				_, err := fmt.Fprintln(out, e.Format())
				return err
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only show entries from this run id")
	cmd.Flags().StringVar(&component, "component", "", "Only show entries from this component")
	cmd.Flags().StringVar(&key, "key", "", "Only show entries for this DataPack key")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	return cmd
}
