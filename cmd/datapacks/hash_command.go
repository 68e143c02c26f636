package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapacks/internal/builder"
	"datapacks/internal/datapack"
	"datapacks/internal/store"
)

type hashEntry struct {
	Key      string         `json:"key"`
	Hash     string         `json:"hash"`
	Hashable map[string]any `json:"hashable,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showForm bool

	cmd := &cobra.Command{
		Use:   "hash [TYPE/NAME ...]",
		Short: "Print content hashes of DataPacks, ignoring volatile fields",
		Long: "Build each DataPack without changing its status and hash its canonical form.\n" +
			"Parents, relationships and the type's unhashable fields are left out, so two\n" +
			"builds of unchanged content hash the same. With no arguments every key is hashed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.projectConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			return ctx.withStore(cfg, func(st *store.Store) error {
				runner, err := newBuildRunner(cfg, logger, st)
				if err != nil {
					return err
				}
				job, err := runner.newJob(cmd.Context())
				if err != nil {
					return err
				}

				keys := make([]datapack.Key, 0, len(args))
				for _, arg := range args {
					keys = append(keys, datapack.Key(arg))
				}
				if len(keys) == 0 {
					if err := runner.builder.Scan(cmd.Context(), job); err != nil {
						return err
					}
					keys = runner.builder.Keys()
				}

				entries := make([]hashEntry, 0, len(keys))
				failed := 0
				for _, key := range keys {
					entry, err := hashKey(cmd, runner, job, key, showForm)
					if err != nil {
						failed++
						entry.Error = err.Error()
					}
					entries = append(entries, entry)
				}

				if jsonOutput {
					if err := writeJSON(cmd, entries); err != nil {
						return err
					}
				} else {
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						value := e.Hash
						if e.Error != "" {
							value = "error: " + e.Error
						}
						rows = append(rows, []string{e.Key, value})
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"DataPack", "Hash"}, rows, nil))
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d DataPack(s) could not be hashed", failed, len(entries))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print hashes as JSON")
	cmd.Flags().BoolVar(&showForm, "form", false, "Include the hashed form in JSON output")
	return cmd
}

func hashKey(cmd *cobra.Command, runner *buildRunner, job *builder.Job, key datapack.Key, showForm bool) (hashEntry, error) {
	entry := hashEntry{Key: key.String()}
	dp, err := runner.builder.Load(cmd.Context(), job, key)
	if err != nil {
		return entry, err
	}
	if entry.Hash, err = runner.builder.Hash(dp); err != nil {
		return entry, err
	}
	if showForm {
		if entry.Hashable, err = runner.builder.Hashable(dp); err != nil {
			return entry, err
		}
	}
	return entry, nil
}
