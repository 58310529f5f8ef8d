package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"nvrgraph/internal/history"
	"nvrgraph/internal/pipeline"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previously rendered pipelines",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent renders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(commandCtx(cmd), func(store *history.Store) error {
				records, err := store.List(commandCtx(cmd), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					if records == nil {
						records = []history.Record{}
					}
					return writeJSON(out, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(out, "No renders recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						shortRunID(rec.RunID),
						rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						rec.Template,
						rec.Device,
						strconv.Itoa(rec.InferenceChannels),
						strconv.Itoa(rec.Channels()),
						rec.OutputPath,
					})
				}
				fmt.Fprintln(out, renderTable("", []string{"Run", "Created", "Template", "Device", "Inference", "Channels", "Output"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum renders to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print renders as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one render; a unique run ID prefix is accepted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(commandCtx(cmd), func(store *history.Store) error {
				rec, err := store.Get(commandCtx(cmd), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, rec)
				}
				fmt.Fprintf(out, "Run:       %s\n", rec.RunID)
				fmt.Fprintf(out, "Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Template:  %s\n", rec.Template)
				fmt.Fprintf(out, "Device:    %s\n", rec.Device)
				fmt.Fprintf(out, "Channels:  %d (%d inference, %d regular)\n", rec.Channels(), rec.InferenceChannels, rec.RegularChannels)
				fmt.Fprintf(out, "Output:    %s\n", rec.OutputPath)
				if len(rec.Stages) > 0 {
					rows := make([][]string, 0, len(rec.Stages))
					for _, role := range stageOrder(rec.Stages) {
						rows = append(rows, []string{role, rec.Stages[role]})
					}
					fmt.Fprintln(out, renderTable("", []string{"Role", "Selected"}, rows, nil))
				}
				fmt.Fprintln(out, rec.Command)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the render as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(commandCtx(cmd), func(store *history.Store) error {
				removed, err := store.Prune(commandCtx(cmd), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d render(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "Number of newest renders to keep")
	return cmd
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// stageOrder lists known roles in resolution order, then any others sorted.
func stageOrder(stages map[string]string) []string {
	out := make([]string, 0, len(stages))
	seen := make(map[string]bool, len(stages))
	for _, role := range pipeline.Roles {
		if _, ok := stages[string(role)]; ok {
			out = append(out, string(role))
			seen[string(role)] = true
		}
	}
	var rest []string
	for role := range stages {
		if !seen[role] {
			rest = append(rest, role)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
