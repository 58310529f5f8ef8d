package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nvrgraph/internal/deps"
	"nvrgraph/internal/device"
	"nvrgraph/internal/failures"
	"nvrgraph/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check tools, files and devices needed to render and run the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := commandCtx(cmd)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			statuses := preflight.CheckSystemDeps(cfg)
			lines = append(lines, dependencyLines(statuses, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Files and devices", colorize)...)
			results := preflight.RunAll(cfg)
			lines = append(lines, preflightLines(results, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Element catalog", colorize)...)
			catalogOK := true
			cat, err := ctx.loadCatalog(runCtx, cfg, false)
			if err != nil {
				catalogOK = false
				lines = append(lines, renderStatusLine("Catalog", statusError, err.Error(), colorize))
			} else {
				lines = append(lines, renderStatusLine("Catalog", statusOK,
					fmt.Sprintf("%d elements (source: %s)", cat.Len(), cfg.Catalog.Source), colorize))
				if dev, perr := device.Parse(cfg.Detection.Device); perr == nil {
					for _, r := range resolveRoles(dev, cat) {
						if r.Fragment != "" {
							lines = append(lines, renderStatusLine(r.Role, statusOK, r.Fragment, colorize))
							continue
						}
						catalogOK = false
						lines = append(lines, renderStatusLine(r.Role, statusError, "no candidate installed", colorize))
					}
				}
			}

			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return failures.Wrap(failures.ErrExternalTool, "check", "dependencies",
					fmt.Sprintf("%d required tool(s) missing", len(missing)), nil)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return failures.Wrap(failures.ErrValidation, "check", "preflight",
					fmt.Sprintf("%d check(s) failed", len(failed)), nil)
			}
			if !catalogOK {
				return failures.Wrap(failures.ErrConfiguration, "check", "catalog", "pipeline stages cannot be resolved", nil)
			}
			return nil
		},
	}
}
