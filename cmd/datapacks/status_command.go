package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"datapacks/internal/builder"
	"datapacks/internal/report"
	"datapacks/internal/store"
)

type statusView struct {
	Summary report.Summary `json:"summary"`
	Runs    []store.Run    `json:"runs,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showKeys bool
	var runLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show saved DataPack statuses and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			project := cfg.ImportPath()
			return ctx.withStore(cfg, func(st *store.Store) error {
				entries, err := st.LoadStatuses(cmd.Context(), project)
				if err != nil {
					return err
				}
				job := builder.JobFromConfig(cfg)
				job.ID = ""
				if err := job.Status.Restore(entries); err != nil {
					return err
				}
				runs, err := st.Runs(cmd.Context(), project, runLimit)
				if err != nil {
					return err
				}
				view := statusView{Summary: report.Summarize(job), Runs: runs}
				if jsonOutput {
					return writeJSON(cmd, view)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStatusView(view, showKeys, shouldColorize(cmd.OutOrStdout())))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print statuses as JSON")
	cmd.Flags().BoolVar(&showKeys, "keys", false, "List DataPack names per status and type")
	cmd.Flags().IntVar(&runLimit, "runs", 5, "Number of recent runs to show")
	return cmd
}

func renderStatusView(view statusView, showKeys, colorize bool) string {
	var b strings.Builder
	sum := view.Summary
	for _, line := range renderSectionHeader("DataPacks", colorize) {
		b.WriteString(line + "\n")
	}
	b.WriteString(renderStatusLine("Project", statusInfo, sum.Project, colorize) + "\n")
	if sum.Total == 0 {
		b.WriteString(renderStatusLine("Statuses", statusInfo, "none saved; run `datapacks build`", colorize) + "\n")
	} else {
		b.WriteString(renderCountsTable(sum) + "\n")
	}

	if showKeys {
		for _, group := range sum.Groups() {
			kind := groupKind(group)
			for _, typ := range sortedKeys(sum.Keys[group]) {
				for _, name := range sum.Keys[group][typ] {
					label := typ + "/" + name
					b.WriteString(renderStatusLine(label, kind, sum.Reasons[label], colorize) + "\n")
				}
			}
		}
	}

	if len(view.Runs) > 0 {
		b.WriteString("\n")
		for _, line := range renderSectionHeader("Recent runs", colorize) {
			b.WriteString(line + "\n")
		}
		rows := make([][]string, 0, len(view.Runs))
		for _, run := range view.Runs {
			rows = append(rows, []string{
				run.ID,
				run.StartedAt.Local().Format(time.DateTime),
				runDuration(run),
				strconv.Itoa(run.Batches),
				strconv.Itoa(run.Records),
				yesNo(run.ErrorMessage != ""),
			})
		}
		b.WriteString(renderTable(
			[]string{"Run", "Started", "Duration", "Batches", "Records", "Errors"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		) + "\n")
	}
	return b.String()
}

func runDuration(run store.Run) string {
	if !run.Finished() {
		return "running"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
